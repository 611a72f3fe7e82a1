// File: api/message.go
// Package api defines Message and MessageManager interfaces.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Message buffers are owned by the inbound processor while a message is in
// flight and transfer to the caller on delivery. The outbound builder writes
// a prepared header + payload pair into a caller supplied message.

package api

// Message is a reusable buffer holding one WebSocket message.
type Message interface {
	// Opcode returns the message type (text/binary/ping/etc.).
	Opcode() byte

	// Fin reports whether the final frame of the message has been written.
	Fin() bool
	SetFin(fin bool)

	// Payload returns the current payload bytes. The slice is owned by the
	// message and is invalidated by AppendPayload and SetPayload.
	Payload() []byte
	SetPayload(p []byte)
	AppendPayload(p []byte)

	// Header holds the serialized frame header of a prepared outbound message.
	Header() []byte
	SetHeader(h []byte)

	// Prepared marks a message as ready for transport.
	Prepared() bool
	SetPrepared(prepared bool)

	// Compressed requests (outbound) or records (inbound) per-message
	// compression.
	Compressed() bool
	SetCompressed(compressed bool)
}

// MessageManager allocates message buffers for the processor.
type MessageManager interface {
	// GetMessage returns a message buffer for the given opcode, sized with
	// at least sizeHint bytes of payload capacity.
	GetMessage(opcode byte, sizeHint int) Message

	// Put returns a delivered message to the manager for reuse.
	Put(m Message)
}
