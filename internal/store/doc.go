// Package store holds the latest probe verdict for every target.
//
// This package is internal to Pingboard. The store keeps exactly one
// [Entry] per target address: the result of the most recently completed
// probe. There is no history. Each write replaces the whole entry under a
// single lock, so readers never observe a partially updated entry.
//
// The main components are:
//
//   - [Store]: interface combining [Reader] and [Writer]
//   - [MemoryStore]: mutex-guarded in-memory implementation with pub/sub
//   - [Entry]: storage representation of a target's status
//
// Subscribers receive writes via buffered channels with non-blocking sends,
// so a slow live-stream client misses updates rather than stalling probing.
package store
