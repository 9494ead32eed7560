package runtime

import (
	"context"
	"fmt"

	"github.com/ariflow/ariflow/internal/runtime/jsoncodec"
)

// SchemaSource supplies the service's published event schema. The schema is
// fetched exactly once, at client construction.
type SchemaSource interface {
	// EventSchema returns the mapping from event type name to event model.
	// An empty mapping means the service publishes no event group; object
	// registrations will then fail with ErrUnknownEventModel.
	EventSchema(ctx context.Context) (map[string]EventModel, error)
}

// StaticSchema adapts a fixed mapping into a SchemaSource.
type StaticSchema map[string]EventModel

// EventSchema implements SchemaSource.
func (s StaticSchema) EventSchema(ctx context.Context) (map[string]EventModel, error) {
	return s, nil
}

// DocsSchema adapts a raw events api-declaration document into a
// SchemaSource. Fetching the document is the API gateway's job; DocsSchema
// only parses it.
type DocsSchema []byte

// EventSchema implements SchemaSource.
func (d DocsSchema) EventSchema(ctx context.Context) (map[string]EventModel, error) {
	return ParseEventDocs([]byte(d))
}

type eventDocs struct {
	Models map[string]struct {
		Properties map[string]struct {
			Type string `json:"type"`
		} `json:"properties"`
	} `json:"models"`
}

// ParseEventDocs extracts event models from a Swagger-style events
// api-declaration document:
//
//	{"models": {"StasisStart": {"properties": {"channel": {"type": "Channel"}}}}}
func ParseEventDocs(doc []byte) (map[string]EventModel, error) {
	var decl eventDocs
	if err := jsoncodec.Unmarshal(doc, &decl); err != nil {
		return nil, fmt.Errorf("parse event docs: %w", err)
	}

	models := make(map[string]EventModel, len(decl.Models))
	for typ, model := range decl.Models {
		fields := make(EventModel, len(model.Properties))
		for field, prop := range model.Properties {
			fields[field] = prop.Type
		}
		models[typ] = fields
	}
	return models, nil
}
