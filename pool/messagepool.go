// File: pool/messagepool.go
// Package pool
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// sync.Pool backed api.MessageManager. One pool may serve many connections;
// message buffers circulate between the processor, the application, and the
// pool without reallocation when capacities fit.

package pool

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/wscore/api"
)

// MessagePoolStats aggregates allocation/reuse accounting.
type MessagePoolStats struct {
	TotalAlloc int64
	TotalFree  int64
	InUse      int64
}

// MessagePool implements api.MessageManager over sync.Pool.
type MessagePool struct {
	pool sync.Pool

	allocated atomic.Int64
	freed     atomic.Int64
	inUse     atomic.Int64
}

// NewMessagePool returns an empty message pool.
func NewMessagePool() *MessagePool {
	p := &MessagePool{}
	p.pool.New = func() any {
		p.allocated.Add(1)
		return &Message{}
	}
	return p
}

// GetMessage returns a message for the given opcode with at least sizeHint
// bytes of payload capacity.
func (p *MessagePool) GetMessage(opcode byte, sizeHint int) api.Message {
	m := p.pool.Get().(*Message)
	m.reset(opcode, sizeHint)
	p.inUse.Add(1)
	return m
}

// Put returns a delivered message for reuse. Foreign implementations are
// ignored.
func (p *MessagePool) Put(m api.Message) {
	pm, ok := m.(*Message)
	if !ok {
		return
	}
	p.freed.Add(1)
	p.inUse.Add(-1)
	p.pool.Put(pm)
}

// Stats exposes allocation accounting for observability.
func (p *MessagePool) Stats() MessagePoolStats {
	return MessagePoolStats{
		TotalAlloc: p.allocated.Load(),
		TotalFree:  p.freed.Load(),
		InUse:      p.inUse.Load(),
	}
}
