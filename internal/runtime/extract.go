package runtime

import (
	"fmt"
)

// newObjectExtractor resolves the event model's fields of modelName once, at
// registration time, and returns a Listener that materialises the embedded
// objects on every dispatched event before handing them to cb.
//
// The collapsing rule is keyed off the SCHEMA's field count, not the record's
// populated-field count: an event model with a single eligible field always
// yields a bare object (nil when the record leaves it empty), while a model
// with several same-typed fields always yields a field-name-keyed map holding
// only the populated ones.
func (c *Client) newObjectExtractor(eventType string, cb ObjectListener, factory Factory, modelName string) (Listener, error) {
	fields, err := c.catalog.fieldsOfType(eventType, modelName)
	if err != nil {
		return nil, err
	}
	single := len(fields) == 1

	return func(ev Event) {
		objects := make(map[string]any, len(fields))
		for _, field := range fields {
			record, ok := ev.Field(field)
			if !ok {
				continue
			}
			obj, err := factory(c, record)
			if err != nil {
				c.reportFailure(eventType, fmt.Errorf("build %s from field %q: %w", modelName, field, err))
				return
			}
			objects[field] = obj
		}

		if single {
			if len(objects) == 0 {
				cb(nil, ev)
				return
			}
			cb(objects[fields[0]], ev)
			return
		}
		cb(objects, ev)
	}, nil
}
