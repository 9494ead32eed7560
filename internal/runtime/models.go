package runtime

// Names of the domain object models embedded in events, as declared by the
// service's event schema.
const (
	ModelChannel         = "Channel"
	ModelBridge          = "Bridge"
	ModelPlayback        = "Playback"
	ModelLiveRecording   = "LiveRecording"
	ModelStoredRecording = "StoredRecording"
	ModelEndpoint        = "Endpoint"
	ModelDeviceState     = "DeviceState"
	ModelSound           = "Sound"
)

// defaultModelNames lists the models that get a built-in factory at client
// construction. Applications can override any of them, or add their own, with
// RegisterModelFactory.
var defaultModelNames = []string{
	ModelChannel,
	ModelBridge,
	ModelPlayback,
	ModelLiveRecording,
	ModelStoredRecording,
	ModelEndpoint,
	ModelDeviceState,
	ModelSound,
}

// Model is the default wrapper for domain objects embedded in events. The
// dispatch core treats extracted objects as opaque; Model keeps the raw
// record together with the owning client so richer wrappers (remote actions,
// typed accessors) can be layered on top by the resource layer.
type Model struct {
	client *Client
	name   string
	data   map[string]any
}

func defaultModelFactory(name string) Factory {
	return func(c *Client, data map[string]any) (any, error) {
		return &Model{client: c, name: name, data: data}, nil
	}
}

// Name returns the model type name, e.g. "Channel".
func (m *Model) Name() string { return m.name }

// Raw returns the raw record the model was built from.
func (m *Model) Raw() map[string]any { return m.data }

// Client returns the client the model was built by.
func (m *Model) Client() *Client { return m.client }

// ID returns the model's identifier: the "id" field when present, falling
// back to "name" (recordings and device states are keyed by name).
func (m *Model) ID() string {
	if id, ok := m.data["id"].(string); ok && id != "" {
		return id
	}
	if name, ok := m.data["name"].(string); ok {
		return name
	}
	return ""
}
