// Package server provides the HTTP server for the Pingboard dashboard and API.
//
// This package is internal to Pingboard and handles all HTTP concerns:
//
//   - Dashboard serving: the embedded HTML dashboard at "/"
//   - JSON API: "/api/status", "/api/status/{address}", "/api/targets" and
//     "/health", rendered by the query package
//   - Live streams: Server-Sent Events at "/api/sse" and a WebSocket at
//     "/api/ws"
//   - Prometheus exposition at "/metrics" when a handler is configured
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the pingboard library should not need to interact with this
// package directly. The server is started automatically by [pingboard.PingBoard.Start].
package server
