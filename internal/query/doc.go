// Package query renders the read-side views of Pingboard's status store.
//
// A [Surface] turns store entries into the JSON shapes served by the HTTP
// API: the status snapshot, a single target's status, the registry listing
// and the monitor's own health. It never triggers probes and never blocks
// the scheduler beyond the store's read lock.
package query
