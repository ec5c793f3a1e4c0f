package engine

import (
	"context"
	"time"
)

// StepEvent describes a completed step.
type StepEvent struct {
	RunID   int64
	Tick    Tick
	Records int
}

// TransmitEvent describes one transmission.
type TransmitEvent struct {
	Sender   string
	Receiver string
	Channel  string
	Packets  int
}

// FlushEvent describes the final flush of a run.
type FlushEvent struct {
	RunID    int64
	Rows     int64
	Duration time.Duration
	Err      error
}

// Hooks observe a run. Every field is optional. Hooks run synchronously on
// the simulation goroutine and must not block.
type Hooks struct {
	OnStep     func(ctx context.Context, e StepEvent)
	OnTransmit func(e TransmitEvent)
	OnFlush    func(ctx context.Context, e FlushEvent)
	OnRunEnd   func(ctx context.Context, o Outcome)
}

// Merge returns hooks calling h first and then other.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnStep: func(ctx context.Context, e StepEvent) {
			if h.OnStep != nil {
				h.OnStep(ctx, e)
			}
			if other.OnStep != nil {
				other.OnStep(ctx, e)
			}
		},
		OnTransmit: mergeTransmit(h.OnTransmit, other.OnTransmit),
		OnFlush: func(ctx context.Context, e FlushEvent) {
			if h.OnFlush != nil {
				h.OnFlush(ctx, e)
			}
			if other.OnFlush != nil {
				other.OnFlush(ctx, e)
			}
		},
		OnRunEnd: func(ctx context.Context, o Outcome) {
			if h.OnRunEnd != nil {
				h.OnRunEnd(ctx, o)
			}
			if other.OnRunEnd != nil {
				other.OnRunEnd(ctx, o)
			}
		},
	}
}

// mergeTransmit stays nil when neither side observes transmissions, so the
// graph keeps its fast path.
func mergeTransmit(a, b func(TransmitEvent)) func(TransmitEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(e TransmitEvent) {
		a(e)
		b(e)
	}
}
