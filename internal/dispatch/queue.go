package dispatch

import "sync"

// Queue is an unbounded FIFO hand-off from background tasks to the UI
// goroutine. Any number of goroutines may Post; exactly one should Drain.
type Queue struct {
	mu    sync.Mutex
	items []Envelope
	ready chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Post appends env. It never blocks on the reader.
func (q *Queue) Post(env Envelope) {
	q.mu.Lock()
	q.items = append(q.items, env)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Drain removes and returns everything queued, oldest first. It returns nil
// when the queue is empty.
func (q *Queue) Drain() []Envelope {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Requeue puts envs back at the head of the queue, ahead of anything posted
// since they were drained, keeping their order.
func (q *Queue) Requeue(envs []Envelope) {
	if len(envs) == 0 {
		return
	}
	q.mu.Lock()
	items := make([]Envelope, 0, len(envs)+len(q.items))
	items = append(items, envs...)
	q.items = append(items, q.items...)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Len reports the number of queued envelopes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Ready receives a value after a Post that happened since the last receive.
// Readers that prefer waking on enqueue over polling select on it and then
// Drain.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}
