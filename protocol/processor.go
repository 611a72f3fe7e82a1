// File: protocol/processor.go
// Package protocol implements the hybi-13 WebSocket protocol engine.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The inbound processor is a push state machine: the I/O driver feeds it raw
// transport bytes in TCP order and pulls completed messages. No operation
// blocks; when input runs out the processor simply stops and resumes on the
// next Consume call.

package protocol

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/frame"
	"github.com/momentics/wscore/utf8x"
)

// State enumerates the processor's consume states.
type State int

const (
	StateHeaderBasic State = iota
	StateHeaderExtended
	StateExtension
	StateApplication
	StateReady
	StateFatalError
)

// msgMetadata tracks one in-flight message reassembly: the output buffer,
// the prepared masking key rotated to the current payload cursor, the UTF-8
// validation state, and the staged compressed body when RSV1 was set on the
// first frame.
type msgMetadata struct {
	msg         api.Message
	preparedKey uint32
	validator   utf8x.Validator
	compressed  bool
	compressBuf []byte
}

// Processor parses inbound frames into messages and prepares outbound
// frames. One processor serves one connection and is driven sequentially by
// whatever owns that connection; distinct connections' processors are
// independent.
type Processor struct {
	secure     bool
	server     bool
	manager    api.MessageManager
	compressor api.Compressor
	keys       api.KeySource

	state       State
	err         error
	bytesNeeded uint64
	cursor      int
	basic       frame.BasicHeader
	extended    frame.ExtendedHeader

	// Exactly one data and one control reassembly may be in flight; control
	// frames interleave between data fragments without disturbing them.
	dataMsg      msgMetadata
	controlMsg   msgMetadata
	curIsControl bool

	framesIn   atomic.Int64
	messagesIn atomic.Int64
	bytesIn    atomic.Int64
}

// Option customizes processor construction.
type Option func(*Processor)

// WithCompressor registers the permessage-compress extension object and
// enables extension negotiation.
func WithCompressor(c api.Compressor) Option {
	return func(p *Processor) {
		p.compressor = c
	}
}

// WithKeySource overrides the masking key source.
func WithKeySource(ks api.KeySource) Option {
	return func(p *Processor) {
		p.keys = ks
	}
}

// NewProcessor constructs a hybi-13 processor for one connection. secure
// selects ws/wss in URI extraction; server selects the masking direction
// rules.
func NewProcessor(secure, server bool, manager api.MessageManager, opts ...Option) *Processor {
	p := &Processor{
		secure:  secure,
		server:  server,
		manager: manager,
		keys:    CryptoKeySource{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.resetHeaders()
	return p
}

// Version returns the WebSocket protocol version this processor speaks.
func (p *Processor) Version() int { return 13 }

// IsServer reports the masking direction this processor enforces.
func (p *Processor) IsServer() bool { return p.server }

// HasPermessageCompress reports whether a compressor collaborator is wired.
func (p *Processor) HasPermessageCompress() bool {
	return p.compressor != nil && p.compressor.IsImplemented()
}

func (p *Processor) compressionEnabled() bool {
	return p.compressor != nil && p.compressor.IsEnabled()
}

// Consume processes transport bytes and returns how many were consumed.
// The loop stops when a message becomes ready, input is exhausted, or a
// protocol violation puts the processor into its terminal error state.
// Zero-length payload frames advance without further input.
func (p *Processor) Consume(buf []byte) (int, error) {
	if p.state == StateFatalError {
		return 0, p.err
	}

	pos := 0
	for p.state != StateReady && p.state != StateFatalError &&
		(pos < len(buf) || p.bytesNeeded == 0) {

		switch p.state {
		case StateHeaderBasic:
			pos += p.copyBasicHeaderBytes(buf[pos:])
			if p.bytesNeeded > 0 {
				continue
			}
			if err := p.validateBasicHeader(); err != nil {
				return pos, p.fatal(err)
			}
			p.state = StateHeaderExtended
			p.cursor = 0
			p.bytesNeeded = uint64(frame.HeaderLen(p.basic) - frame.BasicHeaderLength)

		case StateHeaderExtended:
			pos += p.copyExtendedHeaderBytes(buf[pos:])
			if p.bytesNeeded > 0 {
				continue
			}
			if err := p.validateExtendedHeader(); err != nil {
				return pos, p.fatal(err)
			}
			p.beginFramePayload()

		case StateExtension:
			// Reserved for extension data; currently a pass-through.
			p.state = StateApplication

		case StateApplication:
			n := len(buf) - pos
			if uint64(n) > p.bytesNeeded {
				n = int(p.bytesNeeded)
			}
			if n > 0 {
				if err := p.processPayloadBytes(buf[pos : pos+n]); err != nil {
					return pos, p.fatal(err)
				}
				pos += n
			}
			if p.bytesNeeded > 0 {
				continue
			}
			if err := p.finishFrame(); err != nil {
				return pos, p.fatal(err)
			}

		default:
			return pos, p.fatal(api.ErrGeneric)
		}
	}
	return pos, nil
}

// Ready reports whether a completed message is waiting for GetMessage.
func (p *Processor) Ready() bool { return p.state == StateReady }

// Err returns the sticky terminal error, or nil.
func (p *Processor) Err() error { return p.err }

// GetMessage transfers ownership of the completed message to the caller and
// returns the processor to frame parsing. Returns nil unless Ready.
func (p *Processor) GetMessage() api.Message {
	if !p.Ready() {
		return nil
	}
	var msg api.Message
	if p.curIsControl {
		msg = p.controlMsg.msg
		p.controlMsg = msgMetadata{}
	} else {
		msg = p.dataMsg.msg
		p.dataMsg = msgMetadata{}
	}
	p.messagesIn.Add(1)
	p.resetHeaders()
	return msg
}

// Stats is a snapshot of the processor's inbound counters.
type Stats struct {
	FramesIn   int64
	MessagesIn int64
	BytesIn    int64
}

// Stats returns a snapshot of inbound traffic counters.
func (p *Processor) Stats() Stats {
	return Stats{
		FramesIn:   p.framesIn.Load(),
		MessagesIn: p.messagesIn.Load(),
		BytesIn:    p.bytesIn.Load(),
	}
}

func (p *Processor) fatal(err error) error {
	p.state = StateFatalError
	p.err = err
	return err
}

func (p *Processor) resetHeaders() {
	p.state = StateHeaderBasic
	p.bytesNeeded = frame.BasicHeaderLength
	p.cursor = 0
	p.basic = frame.BasicHeader{}
	p.extended = frame.ExtendedHeader{}
}

func (p *Processor) current() *msgMetadata {
	if p.curIsControl {
		return &p.controlMsg
	}
	return &p.dataMsg
}

// copyBasicHeaderBytes fills the two-byte basic header, tolerating
// one-byte-at-a-time delivery.
func (p *Processor) copyBasicHeaderBytes(buf []byte) int {
	if len(buf) == 0 || p.bytesNeeded == 0 {
		return 0
	}
	if p.bytesNeeded == frame.BasicHeaderLength && len(buf) > 1 {
		p.basic.B0, p.basic.B1 = buf[0], buf[1]
		p.bytesNeeded -= 2
		return 2
	}
	if p.bytesNeeded == frame.BasicHeaderLength {
		p.basic.B0 = buf[0]
	} else {
		p.basic.B1 = buf[0]
	}
	p.bytesNeeded--
	return 1
}

func (p *Processor) copyExtendedHeaderBytes(buf []byte) int {
	n := len(buf)
	if uint64(n) > p.bytesNeeded {
		n = int(p.bytesNeeded)
	}
	copy(p.extended.Bytes[p.cursor:], buf[:n])
	p.cursor += n
	p.bytesNeeded -= uint64(n)
	return n
}

// validateBasicHeader enforces the receive-side frame rules that depend only
// on the first two bytes.
func (p *Processor) validateBasicHeader() error {
	h := p.basic
	op := h.Opcode()
	newMsg := p.dataMsg.msg == nil

	if frame.IsControl(op) && h.BasicSize() > frame.PayloadSizeBasic {
		return api.ErrControlTooBig
	}

	// RSV1 is only legal on a data frame with compression negotiated; the
	// extension marks the first frame of a compressed message with it.
	if h.Rsv1() && (!p.compressionEnabled() || frame.IsControl(op)) {
		return api.ErrInvalidRSVBit
	}
	if h.Rsv2() || h.Rsv3() {
		return api.ErrInvalidRSVBit
	}

	if frame.ReservedOpcode(op) || frame.InvalidOpcode(op) {
		return api.ErrInvalidOpcode
	}

	if frame.IsControl(op) && !h.Fin() {
		return api.ErrFragmentedControl
	}

	if newMsg && op == frame.OpcodeContinuation {
		return api.ErrInvalidContinuation
	}
	if !newMsg && !frame.IsControl(op) && op != frame.OpcodeContinuation {
		return api.ErrInvalidContinuation
	}

	if p.server && !h.Masked() {
		return api.ErrMaskingRequired
	}
	if !p.server && h.Masked() {
		return api.ErrMaskingForbidden
	}
	return nil
}

// validateExtendedHeader enforces minimal length encoding and host range.
func (p *Processor) validateExtendedHeader() error {
	basicSize := p.basic.BasicSize()
	size := frame.PayloadSize(p.basic, p.extended)

	if basicSize == frame.PayloadSizeCode16 && size <= frame.PayloadSizeBasic {
		return api.ErrNonMinimalEncoding
	}
	if basicSize == frame.PayloadSizeCode64 && size <= frame.PayloadSizeExtended {
		return api.ErrNonMinimalEncoding
	}

	if size&(1<<63) != 0 || size > uint64(math.MaxInt) {
		return api.ErrRequires64Bit
	}
	return nil
}

// beginFramePayload locates or creates the message metadata for the frame
// whose header just completed. Each frame starts a fresh masking key; all
// other message state persists between fragments.
func (p *Processor) beginFramePayload() {
	size := frame.PayloadSize(p.basic, p.extended)
	key := frame.PrepareMaskingKey(frame.MaskingKey(p.basic, p.extended))
	op := p.basic.Opcode()

	if frame.IsControl(op) {
		p.controlMsg = msgMetadata{
			msg:         p.manager.GetMessage(op, int(size)),
			preparedKey: key,
		}
		p.curIsControl = true
	} else {
		if p.dataMsg.msg == nil {
			p.dataMsg = msgMetadata{
				msg:         p.manager.GetMessage(op, int(size)),
				preparedKey: key,
				compressed:  p.compressionEnabled() && p.basic.Rsv1(),
			}
		} else {
			p.dataMsg.preparedKey = key
		}
		p.curIsControl = false
	}

	p.state = StateApplication
	p.bytesNeeded = size
}

// processPayloadBytes runs the payload pipeline on one chunk: unmask in
// place, route to the message buffer or the compressed staging buffer, and
// validate UTF-8 on the decoded bytes. The input chunk is scratch space;
// the raw bytes are not preserved.
func (p *Processor) processPayloadBytes(chunk []byte) error {
	cur := p.current()

	if p.basic.Masked() {
		cur.preparedKey = frame.MaskStream(chunk, cur.preparedKey)
	}

	if cur.compressed {
		cur.compressBuf = append(cur.compressBuf, chunk...)
	} else {
		cur.msg.AppendPayload(chunk)
		if cur.msg.Opcode() == frame.OpcodeText && !cur.validator.Decode(chunk) {
			return api.ErrInvalidUTF8
		}
	}

	p.bytesIn.Add(int64(len(chunk)))
	p.bytesNeeded -= uint64(len(chunk))
	return nil
}

// finishFrame handles the end of a frame: either the message is complete
// (inflate staged compressed bytes, check UTF-8 completeness, go READY) or
// the headers reset for the next fragment.
func (p *Processor) finishFrame() error {
	p.framesIn.Add(1)

	if !p.basic.Fin() {
		p.resetHeaders()
		return nil
	}

	cur := p.current()
	if cur.compressed {
		payload, err := p.compressor.Decompress(cur.compressBuf, cur.msg.Payload())
		if err != nil {
			return fmt.Errorf("decompress: %w", api.ErrInvalidPayload)
		}
		cur.msg.SetPayload(payload)
		cur.msg.SetCompressed(true)
		cur.compressBuf = nil
		if cur.msg.Opcode() == frame.OpcodeText {
			cur.validator.Decode(payload)
		}
	}

	if cur.msg.Opcode() == frame.OpcodeText && !cur.validator.Complete() {
		return api.ErrInvalidUTF8
	}

	cur.msg.SetFin(true)
	p.state = StateReady
	return nil
}
