package engine

import "sync/atomic"

// Tick identifies one simulation step on the logical clock.
type Tick struct {
	Seq       int64
	Iteration int
	Period    int
}

// Clock is the runner's logical step counter. Every step advances it by
// one, so Seq orders steps across iterations without wall-clock time.
// Seq is readable from other goroutines, e.g. a metrics scrape.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock at 0; the first step is seq 1.
func NewClock() *Clock {
	return &Clock{}
}

// Advance moves to the next step and returns its tick.
func (c *Clock) Advance(iteration, period int) Tick {
	return Tick{Seq: c.seq.Add(1), Iteration: iteration, Period: period}
}

// Current returns the seq of the last step.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
