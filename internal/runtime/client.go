package runtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	configpkg "github.com/ariflow/ariflow/internal/runtime/config"
	errspkg "github.com/ariflow/ariflow/internal/runtime/errors"
	loggingpkg "github.com/ariflow/ariflow/internal/runtime/logging"
	transportpkg "github.com/ariflow/ariflow/transport"
)

// ClientDependencies holds the optional collaborators that the Client can
// use. Leave fields nil/zero to get the defaults.
type ClientDependencies struct {
	// Schema supplies the published event schema. Nil leaves the event model
	// catalog empty, so every object registration fails with
	// ErrUnknownEventModel.
	Schema SchemaSource

	// TransportRegistry resolves the stream transport named by the config.
	// Nil uses the default registry.
	TransportRegistry *transportpkg.Registry

	// ExceptionHandler receives listener failures. Nil installs the default
	// log-and-continue handler.
	ExceptionHandler func(err error)

	// Hooks are invoked around the dispatch of each frame.
	Hooks DispatchHooks

	// MetricsRegisterer overrides where dispatch metrics are registered when
	// metrics are enabled. Nil uses the default Prometheus registerer.
	MetricsRegisterer prometheus.Registerer
}

// Client owns the listener registry, the event model catalog, and the set of
// active event stream connections. Register listeners on the returned Client,
// then call Run to drain a stream.
type Client struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	opener   transportpkg.Opener
	catalog  *catalog
	registry *listenerRegistry
	hooks    DispatchHooks
	metrics  *DispatchMetrics
	tracer   trace.Tracer

	factoriesMu sync.RWMutex
	factories   map[string]Factory

	exceptionMu sync.RWMutex
	exception   func(err error)

	connsMu sync.Mutex
	conns   map[transportpkg.Conn]struct{}
	closed  bool
}

// NewClient constructs a Client for the supplied configuration, panicking
// when the transport cannot be built or the schema cannot be loaded. Use
// TryNewClient to handle those errors instead.
func NewClient(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps ClientDependencies) *Client {
	c, err := TryNewClient(conf, log, ctx, deps)
	if err != nil {
		panic(err)
	}
	return c
}

// TryNewClient constructs a Client for the supplied configuration.
func TryNewClient(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps ClientDependencies) (*Client, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if log == nil {
		log = loggingpkg.NewNopLogger()
	}

	log.Info("Creating event client", loggingpkg.LogFields{
		"stream_system": conf.StreamSystem,
		"config":        conf,
	})

	registry := deps.TransportRegistry
	if registry == nil {
		registry = transportpkg.DefaultRegistry
	}
	opener, err := registry.Build(ctx, conf, loggingpkg.NewWatermillAdapter(log))
	if err != nil {
		return nil, fmt.Errorf("build transport: %w", err)
	}

	models := map[string]EventModel{}
	if deps.Schema != nil {
		models, err = deps.Schema.EventSchema(ctx)
		if err != nil {
			opener.Close()
			return nil, fmt.Errorf("load event schema: %w", err)
		}
	}

	c := &Client{
		Conf:      conf,
		Logger:    log,
		opener:    opener,
		catalog:   newCatalog(models),
		registry:  newListenerRegistry(),
		hooks:     deps.Hooks,
		factories: make(map[string]Factory, len(defaultModelNames)),
		conns:     make(map[transportpkg.Conn]struct{}),
	}

	for _, name := range defaultModelNames {
		c.factories[name] = defaultModelFactory(name)
	}

	c.SetExceptionHandler(deps.ExceptionHandler)

	if conf.TracingEnabled {
		c.tracer = otel.Tracer("ariflow")
	}
	if conf.MetricsEnabled {
		c.metrics = NewDispatchMetrics(deps.MetricsRegisterer)
		c.startMetricsServer()
	}

	return c, nil
}

// OnEvent registers a callback for events of the given type. Registering the
// same callback identity again for the same type replaces the previous
// registration and moves it to the end of the invocation order. Identity is
// the callback's code pointer, so closures created from the same function
// literal are treated as the same callback.
func (c *Client) OnEvent(eventType string, fn Listener) (*Subscription, error) {
	if fn == nil {
		return nil, errspkg.ErrListenerRequired
	}
	return c.subscribe(eventType, funcKey(fn), fn)
}

func (c *Client) subscribe(eventType string, key uintptr, fn Listener) (*Subscription, error) {
	if eventType == "" {
		return nil, errspkg.ErrEventTypeRequired
	}
	entry := c.registry.register(eventType, key, fn)
	return &Subscription{registry: c.registry, eventType: eventType, entry: entry}, nil
}

// OnObjectEvent registers a callback for events of the given type, with the
// event fields declared as modelName extracted and materialised through
// factory before each invocation. The schema is checked here, once: an
// unknown event type or a model with no matching fields aborts the
// registration.
func (c *Client) OnObjectEvent(eventType string, cb ObjectListener, factory Factory, modelName string) (*Subscription, error) {
	if eventType == "" {
		return nil, errspkg.ErrEventTypeRequired
	}
	if cb == nil {
		return nil, errspkg.ErrListenerRequired
	}
	if factory == nil {
		return nil, errspkg.ErrFactoryRequired
	}
	if modelName == "" {
		return nil, errspkg.ErrModelNameRequired
	}

	listener, err := c.newObjectExtractor(eventType, cb, factory, modelName)
	if err != nil {
		return nil, err
	}
	// Every call builds a fresh extractor, so object registrations never
	// replace one another; register with no replacement identity.
	return c.subscribe(eventType, 0, listener)
}

// RegisterModelFactory sets the factory used by the On<Model>Event helpers
// for the given model name, replacing any earlier registration.
func (c *Client) RegisterModelFactory(modelName string, factory Factory) error {
	if modelName == "" {
		return errspkg.ErrModelNameRequired
	}
	if factory == nil {
		return errspkg.ErrFactoryRequired
	}
	c.factoriesMu.Lock()
	defer c.factoriesMu.Unlock()
	c.factories[modelName] = factory
	return nil
}

func (c *Client) modelFactory(modelName string) (Factory, error) {
	c.factoriesMu.RLock()
	defer c.factoriesMu.RUnlock()
	factory, ok := c.factories[modelName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errspkg.ErrUnknownModel, modelName)
	}
	return factory, nil
}

func (c *Client) onModelEvent(eventType string, cb ObjectListener, modelName string) (*Subscription, error) {
	factory, err := c.modelFactory(modelName)
	if err != nil {
		return nil, err
	}
	return c.OnObjectEvent(eventType, cb, factory, modelName)
}

// OnChannelEvent registers a callback for Channel related events.
func (c *Client) OnChannelEvent(eventType string, cb ObjectListener) (*Subscription, error) {
	return c.onModelEvent(eventType, cb, ModelChannel)
}

// OnBridgeEvent registers a callback for Bridge related events.
func (c *Client) OnBridgeEvent(eventType string, cb ObjectListener) (*Subscription, error) {
	return c.onModelEvent(eventType, cb, ModelBridge)
}

// OnPlaybackEvent registers a callback for Playback related events.
func (c *Client) OnPlaybackEvent(eventType string, cb ObjectListener) (*Subscription, error) {
	return c.onModelEvent(eventType, cb, ModelPlayback)
}

// OnLiveRecordingEvent registers a callback for LiveRecording related events.
func (c *Client) OnLiveRecordingEvent(eventType string, cb ObjectListener) (*Subscription, error) {
	return c.onModelEvent(eventType, cb, ModelLiveRecording)
}

// OnStoredRecordingEvent registers a callback for StoredRecording related events.
func (c *Client) OnStoredRecordingEvent(eventType string, cb ObjectListener) (*Subscription, error) {
	return c.onModelEvent(eventType, cb, ModelStoredRecording)
}

// OnEndpointEvent registers a callback for Endpoint related events.
func (c *Client) OnEndpointEvent(eventType string, cb ObjectListener) (*Subscription, error) {
	return c.onModelEvent(eventType, cb, ModelEndpoint)
}

// OnDeviceStateEvent registers a callback for DeviceState related events.
func (c *Client) OnDeviceStateEvent(eventType string, cb ObjectListener) (*Subscription, error) {
	return c.onModelEvent(eventType, cb, ModelDeviceState)
}

// OnSoundEvent registers a callback for Sound related events.
func (c *Client) OnSoundEvent(eventType string, cb ObjectListener) (*Subscription, error) {
	return c.onModelEvent(eventType, cb, ModelSound)
}

// SetExceptionHandler installs the handler that receives listener failures.
// Passing nil restores the default, which logs the failure and continues.
func (c *Client) SetExceptionHandler(fn func(err error)) {
	if fn == nil {
		log := c.Logger
		fn = func(err error) {
			log.Error("Event listener threw exception", err, nil)
		}
	}
	c.exceptionMu.Lock()
	c.exception = fn
	c.exceptionMu.Unlock()
}

func (c *Client) exceptionHandler() func(err error) {
	c.exceptionMu.RLock()
	defer c.exceptionMu.RUnlock()
	return c.exception
}

// ListenerCount returns the number of listeners currently registered for the
// given event type.
func (c *Client) ListenerCount(eventType string) int {
	return c.registry.count(eventType)
}

// Transport returns the transport opener backing the client. Tests use it to
// reach transport-specific helpers such as the channel transport's Publish.
func (c *Client) Transport() transportpkg.Opener {
	return c.opener
}

// Close shuts every active event stream connection, closes the transport, and
// releases the registry state. It is idempotent. In-flight Receive calls are
// unblocked by the transport's close contract, so blocked Run calls return.
func (c *Client) Close() error {
	c.connsMu.Lock()
	if c.closed {
		c.connsMu.Unlock()
		return nil
	}
	c.closed = true
	conns := make([]transportpkg.Conn, 0, len(c.conns))
	for conn := range c.conns {
		conns = append(conns, conn)
	}
	c.connsMu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
	err := c.opener.Close()
	c.registry.clear()

	c.Logger.Info("Event client closed", nil)
	return err
}

// track remembers an open connection. It fails when the client was closed
// concurrently, in which case the caller must close the connection itself.
func (c *Client) track(conn transportpkg.Conn) error {
	c.connsMu.Lock()
	defer c.connsMu.Unlock()
	if c.closed {
		return errspkg.ErrClientClosed
	}
	c.conns[conn] = struct{}{}
	c.metrics.connectionOpened()
	return nil
}

func (c *Client) untrack(conn transportpkg.Conn) {
	c.connsMu.Lock()
	defer c.connsMu.Unlock()
	if _, ok := c.conns[conn]; !ok {
		return
	}
	delete(c.conns, conn)
	c.metrics.connectionClosed()
}

// ActiveConnections returns the number of streams currently being drained.
func (c *Client) ActiveConnections() int {
	c.connsMu.Lock()
	defer c.connsMu.Unlock()
	return len(c.conns)
}

func (c *Client) startMetricsServer() {
	if c.Conf.MetricsPort <= 0 {
		return
	}
	addr := fmt.Sprintf(":%d", c.Conf.MetricsPort)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	c.Logger.Info("Starting metrics server", loggingpkg.LogFields{"address": addr})
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			c.Logger.Error("Failed to start metrics server", err, loggingpkg.LogFields{"address": addr})
		}
	}()
}
