// File: protocol/prepare.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Outbound frame builder. Each prepare call produces a self-contained
// prepared message (serialized header + transformed payload) owned by the
// caller; the builder keeps no state between calls apart from the masking
// key source.

package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/frame"
	"github.com/momentics/wscore/utf8x"
)

// PrepareDataFrame validates, optionally compresses, optionally masks, and
// serializes a data frame from in into out. Clients mask, servers do not.
// Compression applies when negotiated and requested on in; the header's
// RSV1 bit marks the compressed message and its length field carries the
// on-wire (compressed) payload size.
func (p *Processor) PrepareDataFrame(in, out api.Message) error {
	if in == nil || out == nil {
		return api.ErrInvalidArguments
	}

	op := in.Opcode()
	if frame.IsControl(op) {
		return api.ErrInvalidOpcode
	}

	payload := in.Payload()
	if op == frame.OpcodeText && !utf8x.Valid(payload) {
		return api.ErrInvalidPayload
	}

	masked := !p.server
	compressed := p.compressionEnabled() && in.Compressed()
	fin := in.Fin()

	var key [4]byte
	if masked {
		binary.BigEndian.PutUint32(key[:], p.keys.NextMaskKey())
	}

	var wire []byte
	if compressed {
		var err error
		wire, err = p.compressor.Compress(payload, out.Payload()[:0])
		if err != nil {
			return fmt.Errorf("compress: %w", api.ErrInvalidPayload)
		}
		if masked {
			frame.MaskExact(wire, wire, key)
		}
	} else {
		wire = growPayload(out.Payload(), len(payload))
		if masked {
			frame.MaskExact(wire, payload, key)
		} else {
			copy(wire, payload)
		}
	}
	out.SetPayload(wire)

	size := uint64(len(wire))
	h := frame.NewBasicHeader(op, size, fin, masked, compressed)
	var e frame.ExtendedHeader
	if masked {
		e = frame.NewMaskedExtendedHeader(size, key)
	} else {
		e = frame.NewExtendedHeader(size)
	}
	out.SetHeader(frame.PrepareHeader(h, e))
	out.SetFin(fin)
	out.SetCompressed(compressed)
	out.SetPrepared(true)
	return nil
}

// PreparePing builds a ping frame carrying payload.
func (p *Processor) PreparePing(payload []byte, out api.Message) error {
	return p.prepareControl(frame.OpcodePing, payload, out)
}

// PreparePong builds a pong frame carrying payload.
func (p *Processor) PreparePong(payload []byte, out api.Message) error {
	return p.prepareControl(frame.OpcodePong, payload, out)
}

// PrepareClose builds a close frame. CloseNoStatus yields an empty payload
// and admits no reason; any other code must be sendable on the wire, and
// the reason must fit beside the 2-byte code in a control frame.
func (p *Processor) PrepareClose(code frame.CloseCode, reason string, out api.Message) error {
	if out == nil {
		return api.ErrInvalidArguments
	}
	if code == frame.CloseNoStatus {
		if len(reason) > 0 {
			return api.ErrReasonRequiresCode
		}
	} else {
		if frame.ReservedCloseCode(code) {
			return api.ErrReservedCloseCode
		}
		if frame.InvalidCloseCode(code) {
			return api.ErrInvalidCloseCode
		}
	}
	if len(reason) > frame.MaxCloseReasonLength {
		return api.ErrControlTooBig
	}
	return p.prepareControl(frame.OpcodeClose, frame.BuildClosePayload(code, reason), out)
}

// prepareControl is the shared control-frame builder: always FIN, never
// compressed, masked in the client role.
func (p *Processor) prepareControl(op byte, payload []byte, out api.Message) error {
	if out == nil {
		return api.ErrInvalidArguments
	}
	if !frame.IsControl(op) {
		return api.ErrInvalidOpcode
	}
	if len(payload) > frame.PayloadSizeBasic {
		return api.ErrControlTooBig
	}

	masked := !p.server
	size := uint64(len(payload))
	h := frame.NewBasicHeader(op, size, true, masked, false)

	wire := growPayload(out.Payload(), len(payload))
	var e frame.ExtendedHeader
	if masked {
		var key [4]byte
		binary.BigEndian.PutUint32(key[:], p.keys.NextMaskKey())
		e = frame.NewMaskedExtendedHeader(size, key)
		frame.MaskExact(wire, payload, key)
	} else {
		e = frame.NewExtendedHeader(size)
		copy(wire, payload)
	}

	out.SetPayload(wire)
	out.SetHeader(frame.PrepareHeader(h, e))
	out.SetFin(true)
	out.SetPrepared(true)
	return nil
}

// growPayload reslices b to n bytes, reallocating when capacity is short.
func growPayload(b []byte, n int) []byte {
	if cap(b) >= n {
		return b[:n]
	}
	return make([]byte, n)
}
