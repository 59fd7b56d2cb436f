// Package dashboard holds the reachability grid page served at "/".
//
// The page is a single HTML file with inline CSS and JavaScript. It polls
// /api/status every five seconds and draws one card per probed address with
// its status detail and response time. The server replaces the
// {{.Title}} placeholder, HTML-escaped, before serving it.
package dashboard

import "embed"

// Assets holds assets/index.html.
//
//go:embed assets/*
var Assets embed.FS
