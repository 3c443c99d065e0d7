package app

import (
	"context"
	"time"

	"github.com/five82/steamview/internal/dispatch"
)

const defaultPumpInterval = 100 * time.Millisecond

// Pump drains queue at a fixed cadence, and early whenever the queue signals
// a post, handing envelopes to handle in order. It returns nil once handle
// reports done, or ctx's error when ctx ends first. Envelopes drained after
// the one that finished the wait go back to the head of the queue.
func Pump(ctx context.Context, queue *dispatch.Queue, interval time.Duration, handle func(dispatch.Envelope) (done bool)) error {
	if interval <= 0 {
		interval = defaultPumpInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		batch := queue.Drain()
		for i, env := range batch {
			if handle(env) {
				queue.Requeue(batch[i+1:])
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-queue.Ready():
		case <-ticker.C:
		}
	}
}
