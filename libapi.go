package ariflow

import (
	runtimepkg "github.com/ariflow/ariflow/internal/runtime"
	configpkg "github.com/ariflow/ariflow/internal/runtime/config"
	errspkg "github.com/ariflow/ariflow/internal/runtime/errors"
	idspkg "github.com/ariflow/ariflow/internal/runtime/ids"
	jsoncodec "github.com/ariflow/ariflow/internal/runtime/jsoncodec"
	loggingpkg "github.com/ariflow/ariflow/internal/runtime/logging"
	transportpkg "github.com/ariflow/ariflow/transport"
)

type (
	Config             = configpkg.Config
	Client             = runtimepkg.Client
	ClientDependencies = runtimepkg.ClientDependencies

	Event          = runtimepkg.Event
	EventModel     = runtimepkg.EventModel
	Listener       = runtimepkg.Listener
	ObjectListener = runtimepkg.ObjectListener
	Factory        = runtimepkg.Factory
	Model          = runtimepkg.Model
	Subscription   = runtimepkg.Subscription

	SchemaSource = runtimepkg.SchemaSource
	StaticSchema = runtimepkg.StaticSchema
	DocsSchema   = runtimepkg.DocsSchema

	DispatchContext = runtimepkg.DispatchContext
	DispatchHooks   = runtimepkg.DispatchHooks
	DispatchMetrics = runtimepkg.DispatchMetrics

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	// Transport types for custom stream backends.
	TransportConn         = transportpkg.Conn
	TransportOpener       = transportpkg.Opener
	TransportBuilder      = transportpkg.Builder
	TransportConfig       = transportpkg.Config
	TransportRegistry     = transportpkg.Registry
	TransportCapabilities = transportpkg.Capabilities
)

var (
	NewClient    = runtimepkg.NewClient
	TryNewClient = runtimepkg.TryNewClient

	ValidateConfig = configpkg.ValidateConfig
	ConfigFromEnv  = configpkg.FromEnv

	ParseEventDocs = runtimepkg.ParseEventDocs

	LoggingHooks       = runtimepkg.LoggingHooks
	NewDispatchMetrics = runtimepkg.NewDispatchMetrics

	NewSlogServiceLogger = loggingpkg.NewSlogServiceLogger
	NewNopLogger         = loggingpkg.NewNopLogger

	Marshal   = jsoncodec.Marshal
	Unmarshal = jsoncodec.Unmarshal

	CreateULID = idspkg.CreateULID

	// Modular transport registry. Import individual transports and call their
	// Register function, e.g. websocket.Register().
	DefaultTransportRegistry = transportpkg.DefaultRegistry
	RegisterTransport        = transportpkg.Register
	BuildTransport           = transportpkg.Build
	GetCapabilities          = transportpkg.GetCapabilities

	ErrClientClosed      = errspkg.ErrClientClosed
	ErrUnknownEventModel = errspkg.ErrUnknownEventModel
	ErrNoFieldsOfType    = errspkg.ErrNoFieldsOfType
	ErrUnknownModel      = errspkg.ErrUnknownModel
	ErrListenerRequired  = errspkg.ErrListenerRequired
	ErrEventTypeRequired = errspkg.ErrEventTypeRequired
	ErrFactoryRequired   = errspkg.ErrFactoryRequired
	ErrModelNameRequired = errspkg.ErrModelNameRequired
	ErrConfigRequired    = errspkg.ErrConfigRequired
	ErrAppRequired       = errspkg.ErrAppRequired
)

// Model name constants for OnObjectEvent and RegisterModelFactory.
const (
	ModelChannel         = runtimepkg.ModelChannel
	ModelBridge          = runtimepkg.ModelBridge
	ModelPlayback        = runtimepkg.ModelPlayback
	ModelLiveRecording   = runtimepkg.ModelLiveRecording
	ModelStoredRecording = runtimepkg.ModelStoredRecording
	ModelEndpoint        = runtimepkg.ModelEndpoint
	ModelDeviceState     = runtimepkg.ModelDeviceState
	ModelSound           = runtimepkg.ModelSound
)
