// Package nats provides a NATS-backed event stream transport for ariflow.
// It is intended for deployments where the telephony server's events are
// bridged onto NATS subjects, one subject per application name set.
package nats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/nats-io/nats.go"

	"github.com/ariflow/ariflow/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "nats"

const defaultSubjectPrefix = "ari.events"

// Connect allows overriding the NATS connection for testing.
var Connect = func(url string, opts ...nats.Option) (*nats.Conn, error) {
	return nats.Connect(url, opts...)
}

// Register registers the NATS transport with the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.NATSCapabilities)
}

// Build creates a new NATS transport opener.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Opener, error) {
	url := cfg.GetNATSURL()
	if url == "" {
		return nil, fmt.Errorf("nats: URL is required")
	}

	nc, err := Connect(url, nats.Name("ariflow"))
	if err != nil {
		return nil, fmt.Errorf("nats: connect: %w", err)
	}

	prefix := cfg.GetNATSSubjectPrefix()
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}

	return &opener{nc: nc, prefix: prefix, logger: logger}, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.NATSCapabilities
}

// Subject returns the NATS subject carrying frames for the given comma-joined
// application names.
func Subject(prefix, apps string) string {
	return prefix + "." + apps
}

type opener struct {
	nc     *nats.Conn
	prefix string
	logger watermill.LoggerAdapter
}

func (o *opener) Open(ctx context.Context, apps string) (transport.Conn, error) {
	subject := Subject(o.prefix, apps)
	sub, err := o.nc.SubscribeSync(subject)
	if err != nil {
		return nil, fmt.Errorf("nats: subscribe %s: %w", subject, err)
	}
	o.logger.Info("Subscribed to event subject", watermill.LogFields{"subject": subject})
	return &conn{sub: sub, done: make(chan struct{})}, nil
}

// Close closes the NATS connection, which ends every open stream.
func (o *opener) Close() error {
	o.nc.Close()
	return nil
}

type conn struct {
	sub       *nats.Subscription
	closeOnce sync.Once
	done      chan struct{}
}

// Receive blocks on the next message. Unsubscribing (locally via Close) or
// losing the connection unblocks the pending wait; both surface as io.EOF.
func (c *conn) Receive(ctx context.Context) (string, error) {
	msg, err := c.sub.NextMsgWithContext(ctx)
	if err != nil {
		select {
		case <-c.done:
			return "", io.EOF
		default:
		}
		if errors.Is(err, nats.ErrBadSubscription) || errors.Is(err, nats.ErrConnectionClosed) {
			return "", io.EOF
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("nats: receive: %w", err)
	}
	return string(msg.Data), nil
}

func (c *conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.sub.Unsubscribe()
	})
	return err
}
