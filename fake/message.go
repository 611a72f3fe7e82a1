// Package fake
// Author: momentics <momentics@gmail.com>

package fake

import "github.com/momentics/wscore/api"

// Message is a plain api.Message for tests.
type Message struct {
	Op         byte
	Final      bool
	Body       []byte
	Head       []byte
	IsPrepared bool
	Compress   bool
}

func (m *Message) Opcode() byte                  { return m.Op }
func (m *Message) Fin() bool                     { return m.Final }
func (m *Message) SetFin(fin bool)               { m.Final = fin }
func (m *Message) Payload() []byte               { return m.Body }
func (m *Message) SetPayload(p []byte)           { m.Body = p }
func (m *Message) AppendPayload(p []byte)        { m.Body = append(m.Body, p...) }
func (m *Message) Header() []byte                { return m.Head }
func (m *Message) SetHeader(h []byte)            { m.Head = h }
func (m *Message) Prepared() bool                { return m.IsPrepared }
func (m *Message) SetPrepared(prepared bool)     { m.IsPrepared = prepared }
func (m *Message) Compressed() bool              { return m.Compress }
func (m *Message) SetCompressed(compressed bool) { m.Compress = compressed }

// Manager allocates plain messages and counts traffic for assertions.
type Manager struct {
	Issued   int
	Returned int
}

// GetMessage returns a fresh fake message.
func (m *Manager) GetMessage(opcode byte, sizeHint int) api.Message {
	m.Issued++
	return &Message{Op: opcode, Body: make([]byte, 0, sizeHint)}
}

// Put counts returned messages.
func (m *Manager) Put(api.Message) {
	m.Returned++
}
