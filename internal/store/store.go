package store

import "time"

// Entry is the latest probe verdict for one target address.
//
// Entry is the storage representation of a probe result, decoupled from the
// prober's types so the two can evolve independently. The display name is
// denormalized onto the entry for the convenience of readers.
type Entry struct {
	// Address is the probed target address and the store key.
	Address string

	// Name is the target's display name.
	Name string

	// Reachable is the verdict of the probe.
	Reachable bool

	// Detail is the classification tag, e.g. "HTTP OK (200)".
	Detail string

	// ResponseTimeMs is the duration of the deciding tier in milliseconds.
	// nil when the target was not reachable.
	ResponseTimeMs *float64

	// Tier is the probing tier that produced the verdict ("http", "https",
	// "tcp" or "none").
	Tier string

	// CheckedAt is the moment the verdict was produced.
	CheckedAt time.Time
}

// Writer accepts probe verdicts. The scheduler is the only writer.
type Writer interface {
	// Write replaces the entry stored under e.Address. Readers observe
	// either the previous entry or e, never a mix of both.
	Write(e Entry)
}

// Reader exposes point-in-time views of stored entries.
type Reader interface {
	// ReadAll returns a snapshot of every entry keyed by address.
	// The returned map is a copy; modifications do not affect the store.
	ReadAll() map[string]Entry

	// ReadOne returns the entry for address, if one has been written.
	ReadOne(address string) (Entry, bool)

	// Subscribe returns a channel that receives every written entry.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Entry

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Entry)
}

// Store combines [Reader] and [Writer]. Implementations must be safe for
// concurrent access.
type Store interface {
	Reader
	Writer
}
