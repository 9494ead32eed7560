package runtime

import (
	"time"

	loggingpkg "github.com/ariflow/ariflow/internal/runtime/logging"
)

// DispatchContext provides information about one dispatched frame to hooks.
type DispatchContext struct {
	// EventType is the frame's type discriminator.
	EventType string
	// Listeners is the size of the listener snapshot taken for this frame.
	Listeners int
	// StartedAt is when dispatch of the frame began.
	StartedAt time.Time
	// Duration is how long dispatch took (only set in OnDispatchDone).
	Duration time.Duration
}

// DispatchHooks defines callbacks around the dispatch of each frame.
// All hooks are optional - nil hooks are simply not called.
type DispatchHooks struct {
	// OnFrame is called after a frame is decoded and its listener snapshot
	// taken, before any listener runs.
	OnFrame func(ctx DispatchContext)

	// OnDispatchDone is called after every listener in the snapshot has run.
	OnDispatchDone func(ctx DispatchContext)

	// OnListenerError is called once per failing listener; remaining
	// listeners in the snapshot still run.
	OnListenerError func(ctx DispatchContext, err error)
}

// Merge combines two DispatchHooks, creating a new DispatchHooks that calls
// both. The hooks from 'other' are called after the hooks from 'h'.
func (h DispatchHooks) Merge(other DispatchHooks) DispatchHooks {
	return DispatchHooks{
		OnFrame:         chainFrameHooks(h.OnFrame, other.OnFrame),
		OnDispatchDone:  chainFrameHooks(h.OnDispatchDone, other.OnDispatchDone),
		OnListenerError: chainErrorHooks(h.OnListenerError, other.OnListenerError),
	}
}

func chainFrameHooks(a, b func(DispatchContext)) func(DispatchContext) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx DispatchContext) {
		a(ctx)
		b(ctx)
	}
}

func chainErrorHooks(a, b func(DispatchContext, error)) func(DispatchContext, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx DispatchContext, err error) {
		a(ctx, err)
		b(ctx, err)
	}
}

// LoggingHooks returns pre-built hooks that log frame dispatch events.
func LoggingHooks(logger loggingpkg.ServiceLogger) DispatchHooks {
	return DispatchHooks{
		OnFrame: func(ctx DispatchContext) {
			logger.Debug("Dispatching event", loggingpkg.LogFields{
				"event_type": ctx.EventType,
				"listeners":  ctx.Listeners,
			})
		},
		OnDispatchDone: func(ctx DispatchContext) {
			logger.Debug("Event dispatched", loggingpkg.LogFields{
				"event_type":  ctx.EventType,
				"listeners":   ctx.Listeners,
				"duration_ms": ctx.Duration.Milliseconds(),
			})
		},
		OnListenerError: func(ctx DispatchContext, err error) {
			logger.Error("Event listener failed", err, loggingpkg.LogFields{
				"event_type": ctx.EventType,
			})
		},
	}
}
