package broadcast

import "context"

// Broadcaster runs one full expand-then-process cycle. It is invoked once
// synchronously after a direct publish and once per scheduler tick, and is
// safe to run overlapping with itself: all safety comes from the
// idempotency of the expander and the per-row commits of the processor,
// not from mutual exclusion. No lock spans the cycle.
type Broadcaster struct {
	expander  *Expander
	processor *Processor
}

func NewBroadcaster(expander *Expander, processor *Processor) *Broadcaster {
	return &Broadcaster{expander: expander, processor: processor}
}

func (b *Broadcaster) RunCycle(ctx context.Context) {
	b.expander.Expand(ctx)
	b.processor.ProcessQueued(ctx)
}
