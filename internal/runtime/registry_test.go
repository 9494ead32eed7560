package runtime

import (
	"sync"
	"testing"
)

func TestRegisterAppendsInOrder(t *testing.T) {
	r := newListenerRegistry()

	var order []string
	a := func(ev Event) { order = append(order, "a") }
	b := func(ev Event) { order = append(order, "b") }

	r.register("StasisStart", funcKey(a), a)
	r.register("StasisStart", funcKey(b), b)

	snapshot := r.snapshot("StasisStart")
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snapshot))
	}
	for _, entry := range snapshot {
		entry.fn(nil)
	}
	if order[0] != "a" || order[1] != "b" {
		t.Fatalf("expected registration order, got %v", order)
	}
}

func TestRegisterSameCallbackReplacesAndMovesToEnd(t *testing.T) {
	r := newListenerRegistry()

	var order []string
	a := func(ev Event) { order = append(order, "a") }
	b := func(ev Event) { order = append(order, "b") }

	first := r.register("StasisStart", funcKey(a), a)
	r.register("StasisStart", funcKey(b), b)
	second := r.register("StasisStart", funcKey(a), a)

	if r.count("StasisStart") != 2 {
		t.Fatalf("expected replacement, got %d entries", r.count("StasisStart"))
	}
	if first == second {
		t.Fatal("replacement must produce a new entry")
	}

	for _, entry := range r.snapshot("StasisStart") {
		entry.fn(nil)
	}
	if order[0] != "b" || order[1] != "a" {
		t.Fatalf("replaced callback must move to the end, got %v", order)
	}
}

func TestRemoveIsExactAndIdempotent(t *testing.T) {
	r := newListenerRegistry()

	fn := func(ev Event) {}
	entry := r.register("ChannelDtmfReceived", funcKey(fn), fn)

	if !r.remove("ChannelDtmfReceived", entry) {
		t.Fatal("expected removal of a present entry")
	}
	if r.remove("ChannelDtmfReceived", entry) {
		t.Fatal("second removal must be a no-op")
	}
	if r.count("ChannelDtmfReceived") != 0 {
		t.Fatalf("expected empty list, got %d", r.count("ChannelDtmfReceived"))
	}
}

func TestRemoveOfReplacedEntryDoesNotTouchNewEntry(t *testing.T) {
	r := newListenerRegistry()

	fn := func(ev Event) {}
	old := r.register("StasisEnd", funcKey(fn), fn)
	r.register("StasisEnd", funcKey(fn), fn) // replaces old

	if r.remove("StasisEnd", old) {
		t.Fatal("stale entry must already be gone")
	}
	if r.count("StasisEnd") != 1 {
		t.Fatalf("replacement entry must survive, got %d entries", r.count("StasisEnd"))
	}
}

func TestSnapshotIsStableUnderMutation(t *testing.T) {
	r := newListenerRegistry()

	fn := func(ev Event) {}
	entry := r.register("StasisStart", funcKey(fn), fn)
	snapshot := r.snapshot("StasisStart")

	r.remove("StasisStart", entry)

	if len(snapshot) != 1 {
		t.Fatalf("snapshot must not observe later mutation, got %d entries", len(snapshot))
	}
	if len(r.snapshot("StasisStart")) != 0 {
		t.Fatal("registry must observe the removal")
	}
}

func TestSubscriptionCloseRemovesOnlyItsOwnEntry(t *testing.T) {
	r := newListenerRegistry()

	a := func(ev Event) {}
	b := func(ev Event) {}
	subA := &Subscription{registry: r, eventType: "StasisStart", entry: r.register("StasisStart", funcKey(a), a)}
	r.register("StasisStart", funcKey(b), b)

	subA.Close()
	subA.Close() // idempotent

	if r.count("StasisStart") != 1 {
		t.Fatalf("expected only b to survive, got %d entries", r.count("StasisStart"))
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := newListenerRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				entry := r.register("StasisStart", 0, func(ev Event) {})
				for _, e := range r.snapshot("StasisStart") {
					_ = e.id
				}
				r.remove("StasisStart", entry)
			}
		}()
	}
	wg.Wait()

	if r.count("StasisStart") != 0 {
		t.Fatalf("expected empty registry, got %d entries", r.count("StasisStart"))
	}
}
