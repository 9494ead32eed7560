package runtime

import (
	"fmt"
	"sort"

	errspkg "github.com/ariflow/ariflow/internal/runtime/errors"
)

// EventModel maps an event's field names to their declared type names, for
// example {"channel": "Channel", "cause": "int"}.
type EventModel map[string]string

// catalog is the static lookup from event type name to its model. It is built
// once at client construction and never mutated afterwards.
type catalog struct {
	models map[string]EventModel
}

func newCatalog(models map[string]EventModel) *catalog {
	copied := make(map[string]EventModel, len(models))
	for typ, model := range models {
		fields := make(EventModel, len(model))
		for field, declared := range model {
			fields[field] = declared
		}
		copied[typ] = fields
	}
	return &catalog{models: copied}
}

func (c *catalog) lookup(eventType string) (EventModel, bool) {
	model, ok := c.models[eventType]
	return model, ok
}

// fieldsOfType returns the event model's field names declared with the given
// model type, sorted for deterministic extraction order.
func (c *catalog) fieldsOfType(eventType, modelName string) ([]string, error) {
	model, ok := c.lookup(eventType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errspkg.ErrUnknownEventModel, eventType)
	}

	var fields []string
	for field, declared := range model {
		if declared == modelName {
			fields = append(fields, field)
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %q has no fields of type %q", errspkg.ErrNoFieldsOfType, eventType, modelName)
	}

	sort.Strings(fields)
	return fields, nil
}
