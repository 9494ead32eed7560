package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	errspkg "github.com/ariflow/ariflow/internal/runtime/errors"
	"github.com/ariflow/ariflow/internal/runtime/jsoncodec"
	loggingpkg "github.com/ariflow/ariflow/internal/runtime/logging"
	transportpkg "github.com/ariflow/ariflow/transport"
)

// Run opens one event stream for the given application names and blocks,
// decoding frames and invoking listeners, until the stream ends or the client
// is closed. Multiple Run calls may drain independent streams concurrently;
// they share the client's listener registry.
//
// A stream that ends - server close, or a Close elsewhere - is a normal
// return, not an error.
func (c *Client) Run(ctx context.Context, apps ...string) error {
	if len(apps) == 0 {
		return errspkg.ErrAppRequired
	}
	joined := strings.Join(apps, ",")

	conn, err := c.opener.Open(ctx, joined)
	if err != nil {
		return fmt.Errorf("open event stream: %w", err)
	}
	if err := c.track(conn); err != nil {
		conn.Close()
		return err
	}
	defer func() {
		conn.Close()
		c.untrack(conn)
	}()

	c.Logger.Info("Draining event stream", loggingpkg.LogFields{"app": joined})
	return c.drain(ctx, conn)
}

// drain pulls frames until end-of-stream. Malformed frames are discarded and
// never terminate the loop.
func (c *Client) drain(ctx context.Context, conn transportpkg.Conn) error {
	for {
		frame, err := conn.Receive(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.Logger.Debug("Event stream closed", nil)
				return nil
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.Logger.Error("Event stream receive failed", err, nil)
			return err
		}
		c.dispatch(ctx, frame)
	}
}

// dispatch decodes one frame and delivers it to a snapshot of the listeners
// registered for its type.
func (c *Client) dispatch(ctx context.Context, frame string) {
	c.metrics.frameReceived()

	var raw any
	if err := jsoncodec.Unmarshal([]byte(frame), &raw); err != nil {
		c.discardFrame(frame, err)
		return
	}
	record, ok := raw.(map[string]any)
	if !ok {
		c.discardFrame(frame, errors.New("frame is not an object"))
		return
	}
	ev := Event(record)
	eventType := ev.Type()
	if eventType == "" {
		c.discardFrame(frame, errors.New("frame has no type field"))
		return
	}

	snapshot := c.registry.snapshot(eventType)
	c.metrics.eventDispatched(eventType)

	dctx := DispatchContext{
		EventType: eventType,
		Listeners: len(snapshot),
		StartedAt: time.Now(),
	}
	if c.hooks.OnFrame != nil {
		c.hooks.OnFrame(dctx)
	}

	if c.tracer != nil {
		var span trace.Span
		_, span = c.tracer.Start(ctx, "ariflow.dispatch", trace.WithAttributes(
			attribute.String("event.type", eventType),
			attribute.Int("event.listeners", len(snapshot)),
		))
		defer span.End()
	}

	for _, entry := range snapshot {
		c.invoke(eventType, entry, ev)
	}

	if c.hooks.OnDispatchDone != nil {
		dctx.Duration = time.Since(dctx.StartedAt)
		c.hooks.OnDispatchDone(dctx)
	}
}

// invoke runs one listener with isolated failure handling: a panicking
// listener is reported to the exception handler and does not affect the
// remaining listeners or the loop.
func (c *Client) invoke(eventType string, entry *listenerEntry, ev Event) {
	c.metrics.listenerInvoked(eventType)
	defer func() {
		if r := recover(); r != nil {
			c.reportFailure(eventType, fmt.Errorf("listener panic: %v", r))
		}
	}()
	entry.fn(ev)
}

func (c *Client) discardFrame(frame string, err error) {
	c.metrics.frameMalformed()
	c.Logger.Error("Invalid event frame", err, loggingpkg.LogFields{"frame": frame})
}

// reportFailure routes one listener failure through metrics, hooks, and the
// process-wide exception handler.
func (c *Client) reportFailure(eventType string, err error) {
	c.metrics.listenerFailed(eventType)
	if c.hooks.OnListenerError != nil {
		c.hooks.OnListenerError(DispatchContext{EventType: eventType}, err)
	}
	c.exceptionHandler()(err)
}
