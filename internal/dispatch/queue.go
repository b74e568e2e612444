// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import "sync"

// Reply is a ready-to-render result of one request. Every reply is
// assistant-originated: either the model's answer or a description of why
// there is none.
type Reply struct {
	// RequestID ties the reply to the submit that produced it.
	RequestID string
	// Text is what the transcript should show.
	Text string
	// Err is set when Text describes a failure.
	Err error
}

// Failed reports whether the reply describes an error.
func (r Reply) Failed() bool {
	return r.Err != nil
}

// =============================================================================
// HAND-OFF QUEUE
// =============================================================================

// Queue is an unbounded FIFO of replies with one producer (the request
// worker) and one consumer (the UI loop). Neither side ever blocks.
type Queue struct {
	mu    sync.Mutex
	items []Reply
	ready chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		ready: make(chan struct{}, 1),
	}
}

// Push appends r and wakes a waiting consumer, if any.
func (q *Queue) Push(r Reply) {
	q.mu.Lock()
	q.items = append(q.items, r)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Drain removes and returns everything queued, oldest first. It returns nil
// when the queue is empty.
func (q *Queue) Drain() []Reply {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of queued replies.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Ready is signalled after a Push. A consumer that would rather wait than
// poll receives from it and then calls Drain. One signal may cover several
// pushes.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}
