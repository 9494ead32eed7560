package runtime

import (
	"reflect"
	"sync"

	idspkg "github.com/ariflow/ariflow/internal/runtime/ids"
)

// listenerEntry is one registration: the callback plus the identity used for
// replace-by-identity semantics. A zero key opts out of replacement.
type listenerEntry struct {
	id  string
	key uintptr
	fn  Listener
}

// funcKey derives the replacement identity of a callback: its code pointer.
// Closures created from the same function literal share a code pointer, so
// wrapped listeners (OnObjectEvent) register with a zero key instead.
func funcKey(fn Listener) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

// listenerRegistry maps event type names to their registered listeners in
// registration order. Registration, removal, and snapshot reads may all occur
// concurrently with an in-flight dispatch.
type listenerRegistry struct {
	mu        sync.RWMutex
	listeners map[string][]*listenerEntry
}

func newListenerRegistry() *listenerRegistry {
	return &listenerRegistry{listeners: make(map[string][]*listenerEntry)}
}

// register appends a listener for eventType. When key is non-zero and an
// entry with the same key already exists for that type, the old entry is
// removed first, so the new registration replaces it and moves to the end of
// the invocation order.
func (r *listenerRegistry) register(eventType string, key uintptr, fn Listener) *listenerEntry {
	entry := &listenerEntry{id: idspkg.CreateULID(), key: key, fn: fn}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.listeners[eventType]
	entries := make([]*listenerEntry, 0, len(existing)+1)
	for _, e := range existing {
		if key == 0 || e.key != key {
			entries = append(entries, e)
		}
	}
	r.listeners[eventType] = append(entries, entry)
	return entry
}

// remove deletes exactly the given entry from eventType's list. It reports
// whether the entry was still present; removing an already-removed entry is a
// no-op.
func (r *listenerRegistry) remove(eventType string, target *listenerEntry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.listeners[eventType]
	for i, e := range entries {
		if e != target {
			continue
		}
		remaining := make([]*listenerEntry, 0, len(entries)-1)
		remaining = append(remaining, entries[:i]...)
		remaining = append(remaining, entries[i+1:]...)
		if len(remaining) == 0 {
			delete(r.listeners, eventType)
		} else {
			r.listeners[eventType] = remaining
		}
		return true
	}
	return false
}

// snapshot returns a copy of eventType's listener list. Dispatch iterates the
// copy, so concurrent mutation cannot skip or duplicate entries mid-event.
func (r *listenerRegistry) snapshot(eventType string) []*listenerEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.listeners[eventType]
	if len(entries) == 0 {
		return nil
	}
	copied := make([]*listenerEntry, len(entries))
	copy(copied, entries)
	return copied
}

func (r *listenerRegistry) count(eventType string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners[eventType])
}

func (r *listenerRegistry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = make(map[string][]*listenerEntry)
}

// Subscription is the unregistration token bound to one specific listener
// registration.
type Subscription struct {
	registry  *listenerRegistry
	eventType string
	entry     *listenerEntry
}

// ID returns the subscription's unique identifier.
func (s *Subscription) ID() string { return s.entry.id }

// EventType returns the event type the subscription was registered for.
func (s *Subscription) EventType() string { return s.eventType }

// Close removes exactly the listener this subscription was returned for. It
// is idempotent: once the listener is gone (closed earlier, or replaced by a
// re-registration of the same callback), Close does nothing. It never removes
// another entry that happens to wrap the same callback.
func (s *Subscription) Close() {
	s.registry.remove(s.eventType, s.entry)
}
