package app

import (
	"context"
	"log"
	"time"
)

// EffectFunc is a single best-effort side effect.
type EffectFunc func(ctx context.Context) error

type effect struct {
	label string
	run   EffectFunc
}

// EffectQueue runs persistence side effects off the interaction path, one at
// a time, in order. Enqueue never blocks: a full buffer drops the effect and
// logs it, matching the at-most-once policy for non-critical writes. Failures
// are logged; they never roll back or retry.
type EffectQueue struct {
	ch      chan effect
	done    chan struct{}
	timeout time.Duration
}

// NewEffectQueue starts the worker. size <= 0 picks a sensible default.
func NewEffectQueue(size int) *EffectQueue {
	if size <= 0 {
		size = 64
	}
	q := &EffectQueue{
		ch:      make(chan effect, size),
		done:    make(chan struct{}),
		timeout: 10 * time.Second,
	}
	go q.loop()
	return q
}

func (q *EffectQueue) loop() {
	defer close(q.done)
	for e := range q.ch {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		if err := e.run(ctx); err != nil {
			log.Printf("effect %q failed: %v", e.label, err)
		}
		cancel()
	}
}

// Enqueue schedules an effect and reports whether it was accepted.
func (q *EffectQueue) Enqueue(label string, run EffectFunc) bool {
	select {
	case q.ch <- effect{label: label, run: run}:
		return true
	default:
		log.Printf("effect queue full, dropping %q", label)
		return false
	}
}

// Flush blocks until every effect enqueued before the call has run. Test aid.
func (q *EffectQueue) Flush() {
	ran := make(chan struct{})
	q.ch <- effect{label: "flush", run: func(context.Context) error {
		close(ran)
		return nil
	}}
	<-ran
}

// Close drains the queue and stops the worker.
func (q *EffectQueue) Close() {
	close(q.ch)
	<-q.done
}
