package store

import (
	"sync"
)

// subscriberBuffer is the channel capacity given to each subscriber.
const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// A single RWMutex guards the whole map. Target counts are in the tens, so
// one coarse lock keeps the critical section short for both the scheduler
// and API readers.
type MemoryStore struct {
	mu          sync.RWMutex
	entries     map[string]Entry
	subscribers map[chan Entry]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates an empty [MemoryStore], ready for use.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:     make(map[string]Entry),
		subscribers: make(map[chan Entry]struct{}),
	}
}

// Write stores e under e.Address and notifies all subscribers.
func (m *MemoryStore) Write(e Entry) {
	e.ResponseTimeMs = copyFloat(e.ResponseTimeMs)

	m.mu.Lock()
	m.entries[e.Address] = e
	m.mu.Unlock()

	m.notifySubscribers(e)
}

// ReadAll returns a snapshot of all stored entries keyed by address.
//
// Before the first write the snapshot is an empty, non-nil map.
func (m *MemoryStore) ReadAll() map[string]Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Entry, len(m.entries))
	for addr, e := range m.entries {
		e.ResponseTimeMs = copyFloat(e.ResponseTimeMs)
		out[addr] = e
	}
	return out
}

// ReadOne returns the entry stored for address.
func (m *MemoryStore) ReadOne(address string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[address]
	if !ok {
		return Entry{}, false
	}
	e.ResponseTimeMs = copyFloat(e.ResponseTimeMs)
	return e, true
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Subscribe creates a new subscription and returns a channel for receiving
// writes. If the buffer fills, new writes are dropped for this subscriber.
//
// Caller must call [MemoryStore.Unsubscribe] when done.
func (m *MemoryStore) Subscribe() <-chan Entry {
	ch := make(chan Entry, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Entry) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends e to all active subscribers without blocking.
func (m *MemoryStore) notifySubscribers(e Entry) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		out := e
		out.ResponseTimeMs = copyFloat(e.ResponseTimeMs)
		select {
		case ch <- out:
		default:
			// subscriber is slow, drop the message
		}
	}
}

// copyFloat keeps callers from sharing the pointer held by the store.
func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
