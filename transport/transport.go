// Package transport defines the core interfaces and types for ariflow event
// stream transports. Each transport implementation (websocket, nats, channel)
// lives in its own sub-package and registers itself with the transport
// registry.
package transport

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// Conn is one open event stream. Frames are JSON text, one event per frame.
type Conn interface {
	// Receive blocks until the next frame arrives. It returns io.EOF once the
	// stream has ended, whether the server closed it or Close was called
	// locally. Close from another goroutine must unblock a pending Receive.
	Receive(ctx context.Context) (string, error)

	// Close ends the stream. It is idempotent and safe to call concurrently
	// with Receive.
	Close() error
}

// Opener produces event streams for a transport backend.
type Opener interface {
	// Open starts a stream delivering events for the given comma-joined
	// application names.
	Open(ctx context.Context, apps string) (Conn, error)

	// Close releases the backend (connection pools, in-memory hubs). Streams
	// opened earlier are closed as well.
	Close() error
}

// Builder is the function signature for creating a transport opener from
// config. Each transport package provides a Builder that can be registered.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Opener, error)

// Config provides the configuration values needed by transports. The
// interface keeps transports from depending on the full config package.
type Config interface {
	// GetStreamSystem returns the transport type name.
	GetStreamSystem() string

	// WebSocket
	GetWebSocketURL() string
	GetAPIKey() string
	GetHandshakeTimeout() time.Duration
	GetReadLimit() int64

	// NATS
	GetNATSURL() string
	GetNATSSubjectPrefix() string

	// Channel
	GetChannelTopicPrefix() string
}

// CapabilitiesProvider is implemented by transports that can report their
// capabilities.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}
