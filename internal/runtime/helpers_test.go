package runtime

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	configpkg "github.com/ariflow/ariflow/internal/runtime/config"
	loggingpkg "github.com/ariflow/ariflow/internal/runtime/logging"
	transportpkg "github.com/ariflow/ariflow/transport"
)

// fakeConn is an in-process event stream fed by the test.
type fakeConn struct {
	frames    chan string
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan string, 16), done: make(chan struct{})}
}

func (c *fakeConn) push(frame string) { c.frames <- frame }

func (c *fakeConn) Receive(ctx context.Context) (string, error) {
	select {
	case <-c.done:
		return "", io.EOF
	default:
	}
	select {
	case frame := <-c.frames:
		return frame, nil
	case <-c.done:
		return "", io.EOF
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

type fakeOpener struct {
	mu     sync.Mutex
	conns  []*fakeConn
	apps   []string
	closed bool
}

func (o *fakeOpener) Open(ctx context.Context, apps string) (transportpkg.Conn, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil, fmt.Errorf("opener is closed")
	}
	conn := newFakeConn()
	o.conns = append(o.conns, conn)
	o.apps = append(o.apps, apps)
	return conn, nil
}

func (o *fakeOpener) Close() error {
	o.mu.Lock()
	conns := o.conns
	o.closed = true
	o.mu.Unlock()
	for _, conn := range conns {
		conn.Close()
	}
	return nil
}

// waitConn blocks until the n-th stream has been opened.
func (o *fakeOpener) waitConn(t *testing.T, n int) *fakeConn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		o.mu.Lock()
		if len(o.conns) > n {
			conn := o.conns[n]
			o.mu.Unlock()
			return conn
		}
		o.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("stream %d was not opened", n)
	return nil
}

func newTestClient(t *testing.T, deps ClientDependencies) (*Client, *fakeOpener) {
	t.Helper()

	opener := &fakeOpener{}
	if deps.TransportRegistry == nil {
		registry := transportpkg.NewRegistry()
		registry.Register("fake", func(ctx context.Context, cfg transportpkg.Config, logger watermill.LoggerAdapter) (transportpkg.Opener, error) {
			return opener, nil
		})
		deps.TransportRegistry = registry
	}

	conf := &configpkg.Config{StreamSystem: "fake"}
	c, err := TryNewClient(conf, loggingpkg.NewNopLogger(), context.Background(), deps)
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, opener
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}
