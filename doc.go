// Package ariflow is a client for stateful, event-driven telephony control
// protocols in the ARI family: it opens a long-lived stream of JSON event
// frames, decodes each frame, and distributes it to application-registered
// listeners by event type. Listener registration is concurrent-safe, each
// listener failure is isolated, and domain objects embedded in events
// (Channel, Bridge, Playback, recordings, and friends) can be extracted and
// materialised through pluggable factories driven by the service's published
// event schema.
//
// A minimal setup fills Config, creates a Client, registers listeners with
// OnEvent or one of the typed On<Model>Event helpers, and calls Run with the
// application names to subscribe for; see the examples directory for
// copy/paste starting points.
//
// # Transports
//
// The event stream is pluggable. Three transports ship out of the box:
//   - websocket: the production transport, one server-side event WebSocket
//   - nats: a bridged event feed, one subject per application name set
//   - channel: in-memory streams for testing and local development
//
// Transports register themselves in a registry; import the sub-package you
// need and call its Register function (or register a custom Builder).
//
// # Dispatch semantics
//
// One Run call drains one connection: frames are decoded and listeners run
// in arrival order, one at a time, on that call's goroutine. Malformed
// frames are logged and discarded without stopping the loop. A listener
// panic is routed to the client's exception handler (log-and-continue by
// default) and does not affect the other listeners. Closing the client
// unblocks every pending receive and lets each Run return normally.
package ariflow
