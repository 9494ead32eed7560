package errors

import sterrors "errors"

var (
	ErrListenerRequired  = sterrors.New("ariflow: listener callback is required")
	ErrEventTypeRequired = sterrors.New("ariflow: event type is required")
	ErrFactoryRequired   = sterrors.New("ariflow: model factory is required")
	ErrModelNameRequired = sterrors.New("ariflow: model name is required")
	ErrConfigRequired    = sterrors.New("ariflow: config is required")
	ErrAppRequired       = sterrors.New("ariflow: at least one application name is required")

	// ErrClientClosed is returned by Run after the client has been closed.
	ErrClientClosed = sterrors.New("ariflow: client is closed")

	// ErrUnknownEventModel is returned when an event type is not present in
	// the service's published event schema.
	ErrUnknownEventModel = sterrors.New("ariflow: unknown event model")

	// ErrNoFieldsOfType is returned when an event model declares no fields of
	// the requested model type.
	ErrNoFieldsOfType = sterrors.New("ariflow: event model has no fields of requested type")

	// ErrUnknownModel is returned when no factory is registered for a model name.
	ErrUnknownModel = sterrors.New("ariflow: no factory registered for model")
)
