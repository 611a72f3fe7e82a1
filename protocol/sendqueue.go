// File: protocol/sendqueue.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FIFO of prepared outbound messages awaiting transport flush. The queue
// preserves prepare order so interleaved control frames go out between data
// fragments exactly as built.

package protocol

import (
	"github.com/eapache/queue"

	"github.com/momentics/wscore/api"
)

// SendQueue holds prepared messages in transmit order. It is driven by the
// same single owner as the rest of the connection and is not internally
// synchronized.
type SendQueue struct {
	q *queue.Queue
}

// NewSendQueue returns an empty send queue.
func NewSendQueue() *SendQueue {
	return &SendQueue{q: queue.New()}
}

// Push enqueues a prepared message. Unprepared messages are rejected.
func (s *SendQueue) Push(m api.Message) error {
	if m == nil || !m.Prepared() {
		return api.ErrInvalidArguments
	}
	s.q.Add(m)
	return nil
}

// Pop dequeues the oldest prepared message, or nil when empty.
func (s *SendQueue) Pop() api.Message {
	if s.q.Length() == 0 {
		return nil
	}
	return s.q.Remove().(api.Message)
}

// Peek returns the oldest prepared message without removing it.
func (s *SendQueue) Peek() api.Message {
	if s.q.Length() == 0 {
		return nil
	}
	return s.q.Peek().(api.Message)
}

// Len returns the number of queued messages.
func (s *SendQueue) Len() int {
	return s.q.Length()
}
