// Package poller drives periodic probing cycles for Pingboard.
//
// This package is internal to Pingboard. A [Scheduler] walks the target
// list in registry order once per cycle, probes each target and writes the
// verdict to the status store as soon as that probe completes, so readers
// see partial progress during a long cycle.
//
// Cycles start on a fixed interval measured between cycle starts. A cycle
// that overruns the interval is followed immediately by the next one.
// Probing is sequential by default; a concurrency limit above one fans a
// cycle out over a bounded worker group while still finishing every target
// before the next cycle begins.
//
// The main components are:
//
//   - [Scheduler]: owns the probing goroutine and its lifecycle
//   - [Target]: address and display name of a probed endpoint
//   - [Result]: a verdict handed to the optional result observer
//   - [CycleStats]: summary of one completed cycle
package poller
