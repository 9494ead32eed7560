// Package channel provides an in-memory event stream transport for ariflow,
// backed by Watermill's gochannel pub/sub. This transport is useful for
// testing and local development: tests publish frames and a dispatch loop
// receives them with the same ordering and close semantics as a live stream.
package channel

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/ariflow/ariflow/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "channel"

const defaultTopicPrefix = "ari.events"

// Factory allows overriding the pub/sub creation for testing.
var Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(cfg, logger)
}

// Register registers the channel transport with the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.ChannelCapabilities)
}

// Build creates a new in-memory channel transport.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Opener, error) {
	prefix := cfg.GetChannelTopicPrefix()
	if prefix == "" {
		prefix = defaultTopicPrefix
	}
	return &Opener{
		pubsub: Factory(gochannel.Config{}, logger),
		prefix: prefix,
	}, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.ChannelCapabilities
}

// Topic returns the pub/sub topic carrying frames for the given comma-joined
// application names.
func Topic(prefix, apps string) string {
	return prefix + "." + apps
}

// Opener is the channel transport backend. Besides opening streams it lets
// tests inject frames with Publish.
type Opener struct {
	pubsub *gochannel.GoChannel
	prefix string

	mu     sync.Mutex
	closed bool
}

// Open subscribes to the topic for apps and exposes the subscription as an
// event stream.
func (o *Opener) Open(ctx context.Context, apps string) (transport.Conn, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, fmt.Errorf("channel: opener is closed")
	}
	o.mu.Unlock()

	// The subscription lives until Conn.Close, not until the dial context
	// ends.
	subCtx, cancel := context.WithCancel(context.Background())
	messages, err := o.pubsub.Subscribe(subCtx, Topic(o.prefix, apps))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("channel: subscribe: %w", err)
	}

	return &conn{messages: messages, cancel: cancel}, nil
}

// Publish injects frames for the given comma-joined application names. Frames
// are delivered in order to every open stream for apps.
func (o *Opener) Publish(apps string, frames ...string) error {
	msgs := make([]*message.Message, 0, len(frames))
	for _, frame := range frames {
		msgs = append(msgs, message.NewMessage(watermill.NewUUID(), []byte(frame)))
	}
	return o.pubsub.Publish(Topic(o.prefix, apps), msgs...)
}

// Close shuts down the pub/sub hub; every open stream ends with io.EOF.
func (o *Opener) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()
	return o.pubsub.Close()
}

type conn struct {
	messages  <-chan *message.Message
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (c *conn) Receive(ctx context.Context) (string, error) {
	select {
	case msg, ok := <-c.messages:
		if !ok {
			return "", io.EOF
		}
		msg.Ack()
		return string(msg.Payload), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *conn) Close() error {
	c.closeOnce.Do(c.cancel)
	return nil
}
