package runtime

import (
	"errors"
	"testing"

	errspkg "github.com/ariflow/ariflow/internal/runtime/errors"
)

func passthroughFactory(c *Client, data map[string]any) (any, error) {
	return data, nil
}

func extractorClient(t *testing.T) *Client {
	t.Helper()
	c, _ := newTestClient(t, ClientDependencies{Schema: StaticSchema(testModels())})
	return c
}

func TestExtractorSingleFieldYieldsBareObject(t *testing.T) {
	c := extractorClient(t)

	var got any
	listener, err := c.newObjectExtractor("BridgeCreated", func(obj any, ev Event) {
		got = obj
	}, passthroughFactory, "Bridge")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	listener(Event{"type": "BridgeCreated", "bridge": map[string]any{"id": "b1"}})

	record, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("expected a bare record, got %T", got)
	}
	if record["id"] != "b1" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestExtractorSingleFieldAbsentYieldsNil(t *testing.T) {
	c := extractorClient(t)

	for name, ev := range map[string]Event{
		"absent": {"type": "BridgeCreated"},
		"null":   {"type": "BridgeCreated", "bridge": nil},
		"empty":  {"type": "BridgeCreated", "bridge": map[string]any{}},
		"scalar": {"type": "BridgeCreated", "bridge": "b1"},
	} {
		called := false
		var got any
		listener, err := c.newObjectExtractor("BridgeCreated", func(obj any, ev Event) {
			called = true
			got = obj
		}, passthroughFactory, "Bridge")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}

		listener(ev)

		if !called {
			t.Fatalf("%s: callback was not invoked", name)
		}
		if got != nil {
			t.Fatalf("%s: expected nil object, got %v", name, got)
		}
	}
}

func TestExtractorMultiFieldYieldsMapOfPopulated(t *testing.T) {
	c := extractorClient(t)

	var got any
	listener, err := c.newObjectExtractor("StasisStart", func(obj any, ev Event) {
		got = obj
	}, passthroughFactory, "Channel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	listener(Event{
		"type":    "StasisStart",
		"channel": map[string]any{"id": "c1"},
	})

	objects, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("expected a field-keyed map, got %T", got)
	}
	if len(objects) != 1 {
		t.Fatalf("expected only the populated field, got %v", objects)
	}
	channel, ok := objects["channel"].(map[string]any)
	if !ok || channel["id"] != "c1" {
		t.Fatalf("unexpected objects: %v", objects)
	}
}

func TestExtractorMultiFieldAllAbsentYieldsEmptyMap(t *testing.T) {
	c := extractorClient(t)

	var got any
	listener, err := c.newObjectExtractor("StasisStart", func(obj any, ev Event) {
		got = obj
	}, passthroughFactory, "Channel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	listener(Event{"type": "StasisStart"})

	objects, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("expected a field-keyed map even when empty, got %T", got)
	}
	if len(objects) != 0 {
		t.Fatalf("expected no objects, got %v", objects)
	}
}

func TestExtractorFactoryErrorSkipsCallback(t *testing.T) {
	var failures []error
	c, _ := newTestClient(t, ClientDependencies{
		Schema:           StaticSchema(testModels()),
		ExceptionHandler: func(err error) { failures = append(failures, err) },
	})

	boom := errors.New("boom")
	called := false
	listener, err := c.newObjectExtractor("BridgeCreated", func(obj any, ev Event) {
		called = true
	}, func(c *Client, data map[string]any) (any, error) {
		return nil, boom
	}, "Bridge")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	listener(Event{"type": "BridgeCreated", "bridge": map[string]any{"id": "b1"}})

	if called {
		t.Fatal("callback must not run when the factory fails")
	}
	if len(failures) != 1 || !errors.Is(failures[0], boom) {
		t.Fatalf("expected the factory error to reach the exception handler, got %v", failures)
	}
}

func TestExtractorUnknownEventType(t *testing.T) {
	c := extractorClient(t)

	_, err := c.newObjectExtractor("NoSuchEvent", func(obj any, ev Event) {}, passthroughFactory, "Channel")
	if !errors.Is(err, errspkg.ErrUnknownEventModel) {
		t.Fatalf("expected ErrUnknownEventModel, got %v", err)
	}
}
