package runtime

// Event is one decoded inbound frame: a dynamically-shaped record carrying a
// "type" discriminator. Events are consumed synchronously during dispatch and
// not retained afterward.
type Event map[string]any

// Type returns the event's type discriminator, or "" when missing.
func (e Event) Type() string {
	typ, _ := e["type"].(string)
	return typ
}

// Field returns the named field as a raw sub-record. The second return is
// false when the field is absent, null, not a record, or empty.
func (e Event) Field(name string) (map[string]any, bool) {
	raw, ok := e[name]
	if !ok || raw == nil {
		return nil, false
	}
	record, ok := raw.(map[string]any)
	if !ok || len(record) == 0 {
		return nil, false
	}
	return record, true
}

// Listener handles one decoded event.
type Listener func(ev Event)

// ObjectListener handles one decoded event together with the domain objects
// extracted from it. When the event model declares exactly one field of the
// requested type, obj is that single object (nil when the field is absent
// from the record); otherwise obj is a map[string]any keyed by field name,
// holding only the populated fields.
type ObjectListener func(obj any, ev Event)

// Factory materialises a typed domain object from a raw event sub-record.
type Factory func(c *Client, data map[string]any) (any, error)
