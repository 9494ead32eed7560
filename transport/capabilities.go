package transport

// Capabilities describes the features supported by a transport backend. Use
// this to introspect what operations are available at runtime.
type Capabilities struct {
	// SupportsOrdering indicates frames are delivered in the order the server
	// emitted them.
	SupportsOrdering bool

	// SupportsReconnect indicates the transport can transparently re-open a
	// dropped stream. When false, the application owns reconnection.
	SupportsReconnect bool

	// SupportsLocalInjection indicates frames can be injected locally without
	// a server, which is what tests want.
	SupportsLocalInjection bool

	// MaxFrameSize is the maximum frame size in bytes (0 = unlimited/unknown).
	MaxFrameSize int64

	// Name is the human-readable name of the transport.
	Name string
}

// Predefined capability sets for the built-in transports.
var (
	// WebSocketCapabilities for the gorilla/websocket transport.
	WebSocketCapabilities = Capabilities{
		Name:             "websocket",
		SupportsOrdering: true,
	}

	// NATSCapabilities for the NATS bridged feed transport.
	NATSCapabilities = Capabilities{
		Name:              "nats",
		SupportsOrdering:  true,
		SupportsReconnect: true,
	}

	// ChannelCapabilities for the in-memory channel transport.
	ChannelCapabilities = Capabilities{
		Name:                   "channel",
		SupportsOrdering:       true,
		SupportsLocalInjection: true,
	}
)
