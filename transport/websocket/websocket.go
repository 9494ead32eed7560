// Package websocket provides the production event stream transport for
// ariflow, backed by gorilla/websocket. One Conn maps to one server-side
// event WebSocket.
package websocket

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gorilla/websocket"

	"github.com/ariflow/ariflow/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "websocket"

const defaultHandshakeTimeout = 10 * time.Second

// Dial allows overriding the WebSocket dial for testing.
var Dial = func(ctx context.Context, dialer *websocket.Dialer, url string) (*websocket.Conn, error) {
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// Register registers the WebSocket transport with the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.WebSocketCapabilities)
}

// Build creates a new WebSocket transport opener.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Opener, error) {
	base := cfg.GetWebSocketURL()
	if base == "" {
		return nil, fmt.Errorf("websocket: URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("websocket: invalid URL %q: %w", base, err)
	}

	timeout := cfg.GetHandshakeTimeout()
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}

	return &opener{
		baseURL:   base,
		apiKey:    cfg.GetAPIKey(),
		readLimit: cfg.GetReadLimit(),
		dialer:    &websocket.Dialer{HandshakeTimeout: timeout},
		logger:    logger,
		conns:     make(map[*conn]struct{}),
	}, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.WebSocketCapabilities
}

type opener struct {
	baseURL   string
	apiKey    string
	readLimit int64
	dialer    *websocket.Dialer
	logger    watermill.LoggerAdapter

	mu     sync.Mutex
	conns  map[*conn]struct{}
	closed bool
}

func (o *opener) Open(ctx context.Context, apps string) (transport.Conn, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, fmt.Errorf("websocket: opener is closed")
	}
	o.mu.Unlock()

	target, err := url.Parse(o.baseURL)
	if err != nil {
		return nil, fmt.Errorf("websocket: invalid URL %q: %w", o.baseURL, err)
	}
	query := target.Query()
	query.Set("app", apps)
	if o.apiKey != "" {
		query.Set("api_key", o.apiKey)
	}
	target.RawQuery = query.Encode()

	o.logger.Info("Opening event WebSocket", watermill.LogFields{"app": apps})

	ws, err := Dial(ctx, o.dialer, target.String())
	if err != nil {
		return nil, fmt.Errorf("websocket: dial %s: %w", target.Host, err)
	}
	if o.readLimit > 0 {
		ws.SetReadLimit(o.readLimit)
	}

	c := &conn{ws: ws, done: make(chan struct{}), opener: o}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		c.Close()
		return nil, fmt.Errorf("websocket: opener is closed")
	}
	o.conns[c] = struct{}{}
	o.mu.Unlock()

	return c, nil
}

func (o *opener) Close() error {
	o.mu.Lock()
	o.closed = true
	conns := make([]*conn, 0, len(o.conns))
	for c := range o.conns {
		conns = append(conns, c)
	}
	o.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	return nil
}

func (o *opener) forget(c *conn) {
	o.mu.Lock()
	delete(o.conns, c)
	o.mu.Unlock()
}

type conn struct {
	ws     *websocket.Conn
	opener *opener

	closeOnce sync.Once
	done      chan struct{}
}

// Receive blocks on the next text frame. Close from another goroutine tears
// down the underlying socket, which unblocks the pending read; that and any
// close frame from the server surface as io.EOF.
func (c *conn) Receive(ctx context.Context) (string, error) {
	select {
	case <-c.done:
		return "", io.EOF
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	_, payload, err := c.ws.ReadMessage()
	if err != nil {
		select {
		case <-c.done:
			// Locally requested close; the read error is expected.
			return "", io.EOF
		default:
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return "", io.EOF
		}
		return "", fmt.Errorf("websocket: receive: %w", err)
	}
	return string(payload), nil
}

func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		deadline := time.Now().Add(time.Second)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = c.ws.Close()
		c.opener.forget(c)
	})
	return nil
}
