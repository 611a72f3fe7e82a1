// File: protocol/processor_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/extension"
	"github.com/momentics/wscore/fake"
	"github.com/momentics/wscore/frame"
	"github.com/momentics/wscore/pool"
)

// buildFrame serializes one frame for the processor under test, masking the
// payload when a key is supplied.
func buildFrame(fin bool, op byte, rsv1 bool, key *[4]byte, payload []byte) []byte {
	size := uint64(len(payload))
	h := frame.NewBasicHeader(op, size, fin, key != nil, rsv1)
	var e frame.ExtendedHeader
	body := make([]byte, len(payload))
	if key != nil {
		e = frame.NewMaskedExtendedHeader(size, *key)
		frame.MaskExact(body, payload, *key)
	} else {
		e = frame.NewExtendedHeader(size)
		copy(body, payload)
	}
	return append(frame.PrepareHeader(h, e), body...)
}

func newServer(opts ...Option) *Processor {
	return NewProcessor(false, true, pool.NewMessagePool(), opts...)
}

func newClient(opts ...Option) *Processor {
	return NewProcessor(false, false, pool.NewMessagePool(), opts...)
}

// drain consumes the whole buffer, collecting every message that becomes
// ready along the way.
func drain(t *testing.T, p *Processor, data []byte) []api.Message {
	t.Helper()
	var msgs []api.Message
	pos := 0
	for pos < len(data) || p.Ready() {
		if p.Ready() {
			msgs = append(msgs, p.GetMessage())
			continue
		}
		n, err := p.Consume(data[pos:])
		require.NoError(t, err)
		require.Positive(t, n, "processor stalled")
		pos += n
	}
	return msgs
}

func TestSingleFrameTextHello(t *testing.T) {
	// Masked "Hello" from RFC 6455 section 5.7.
	data := []byte{0x81, 0x85, 0x37, 0xFA, 0x21, 0x3D, 0x7F, 0x9F, 0x4D, 0x51, 0x58}

	p := newServer()
	n, err := p.Consume(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	require.True(t, p.Ready())

	msg := p.GetMessage()
	require.NotNil(t, msg)
	assert.Equal(t, frame.OpcodeText, msg.Opcode())
	assert.Equal(t, "Hello", string(msg.Payload()))
	assert.True(t, msg.Fin())

	assert.Equal(t, StateHeaderBasic, p.state)
}

func TestSingleFrameByteAtATime(t *testing.T) {
	data := []byte{0x81, 0x85, 0x37, 0xFA, 0x21, 0x3D, 0x7F, 0x9F, 0x4D, 0x51, 0x58}

	p := newServer()
	for _, b := range data {
		_, err := p.Consume([]byte{b})
		require.NoError(t, err)
	}
	require.True(t, p.Ready())
	assert.Equal(t, "Hello", string(p.GetMessage().Payload()))
}

func TestInterleavedPingDuringFragmentedBinary(t *testing.T) {
	key := [4]byte{0x10, 0x20, 0x30, 0x40}
	var data []byte
	data = append(data, buildFrame(false, frame.OpcodeBinary, false, &key, []byte{0x01, 0x02})...)
	data = append(data, buildFrame(true, frame.OpcodePing, false, &key, []byte{0xAA})...)
	data = append(data, buildFrame(true, frame.OpcodeContinuation, false, &key, []byte{0x03, 0x04})...)

	p := newServer()
	msgs := drain(t, p, data)
	require.Len(t, msgs, 2)

	assert.Equal(t, frame.OpcodePing, msgs[0].Opcode())
	assert.Equal(t, []byte{0xAA}, msgs[0].Payload())

	assert.Equal(t, frame.OpcodeBinary, msgs[1].Opcode())
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, msgs[1].Payload())
}

func TestFragmentedTextPerFrameMask(t *testing.T) {
	key1 := [4]byte{0x11, 0x22, 0x33, 0x44}
	key2 := [4]byte{0xAA, 0xBB, 0xCC, 0xDD}
	var data []byte
	data = append(data, buildFrame(false, frame.OpcodeText, false, &key1, []byte("Hel"))...)
	data = append(data, buildFrame(true, frame.OpcodeContinuation, false, &key2, []byte("lo"))...)

	p := newServer()
	msgs := drain(t, p, data)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Hello", string(msgs[0].Payload()))
}

func TestInvalidUTF8SplitAcrossFrames(t *testing.T) {
	key := [4]byte{1, 2, 3, 4}
	var data []byte
	// Valid prefix ending mid-codepoint, then a byte that breaks it.
	data = append(data, buildFrame(false, frame.OpcodeText, false, &key, []byte{'a', 0xC3})...)
	data = append(data, buildFrame(true, frame.OpcodeContinuation, false, &key, []byte{0x28, 'b'})...)

	p := newServer()
	var err error
	pos := 0
	for pos < len(data) && err == nil {
		var n int
		n, err = p.Consume(data[pos:])
		pos += n
	}
	require.ErrorIs(t, err, api.ErrInvalidUTF8)
	assert.Equal(t, StateFatalError, p.state)

	// The error state is sticky.
	_, err = p.Consume([]byte{0x81})
	assert.ErrorIs(t, err, api.ErrInvalidUTF8)
}

func TestTextEndingMidCodepoint(t *testing.T) {
	key := [4]byte{1, 2, 3, 4}
	data := buildFrame(true, frame.OpcodeText, false, &key, []byte{'a', 0xC3})

	p := newServer()
	_, err := p.Consume(data)
	assert.ErrorIs(t, err, api.ErrInvalidUTF8)
}

func TestControlTooBigRejectedBeforeExtendedLength(t *testing.T) {
	p := newServer()
	// Ping with payload-len-code 126: rejected on the basic header alone.
	n, err := p.Consume([]byte{0x89, 0xFE})
	assert.ErrorIs(t, err, api.ErrControlTooBig)
	assert.Equal(t, 2, n)
}

func TestMaskingDirection(t *testing.T) {
	unmasked := buildFrame(true, frame.OpcodeText, false, nil, []byte("hi"))
	key := [4]byte{9, 9, 9, 9}
	masked := buildFrame(true, frame.OpcodeText, false, &key, []byte("hi"))

	server := newServer()
	_, err := server.Consume(unmasked)
	assert.ErrorIs(t, err, api.ErrMaskingRequired)

	client := newClient()
	_, err = client.Consume(masked)
	assert.ErrorIs(t, err, api.ErrMaskingForbidden)

	// The legal directions parse cleanly.
	require.Len(t, drain(t, newServer(), masked), 1)
	require.Len(t, drain(t, newClient(), unmasked), 1)
}

func TestNonMinimalEncoding(t *testing.T) {
	// 16-bit length field carrying 5.
	short16 := []byte{0x82, 0xFE, 0x00, 0x05, 0xCA, 0xFE, 0xBA, 0xBE}
	p := newServer()
	_, err := p.Consume(short16)
	assert.ErrorIs(t, err, api.ErrNonMinimalEncoding)

	// 64-bit length field carrying 300.
	short64 := []byte{
		0x82, 0xFF,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x2C,
		0xDE, 0xAD, 0xBE, 0xEF,
	}
	p = newServer()
	_, err = p.Consume(short64)
	assert.ErrorIs(t, err, api.ErrNonMinimalEncoding)
}

func TestRequires64BitPayload(t *testing.T) {
	data := []byte{
		0x82, 0xFF,
		0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xDE, 0xAD, 0xBE, 0xEF,
	}
	p := newServer()
	_, err := p.Consume(data)
	assert.ErrorIs(t, err, api.ErrRequires64Bit)
}

func TestInvalidContinuationSequences(t *testing.T) {
	key := [4]byte{1, 2, 3, 4}

	// Continuation without a message in flight.
	p := newServer()
	_, err := p.Consume(buildFrame(true, frame.OpcodeContinuation, false, &key, []byte("x")))
	assert.ErrorIs(t, err, api.ErrInvalidContinuation)

	// New data opcode while a fragmented message is in flight.
	p = newServer()
	data := buildFrame(false, frame.OpcodeBinary, false, &key, []byte("x"))
	data = append(data, buildFrame(true, frame.OpcodeBinary, false, &key, []byte("y"))...)
	err = nil
	pos := 0
	for pos < len(data) && err == nil {
		var n int
		n, err = p.Consume(data[pos:])
		pos += n
	}
	assert.ErrorIs(t, err, api.ErrInvalidContinuation)
}

func TestReservedOpcodeAndRsvBits(t *testing.T) {
	p := newServer()
	_, err := p.Consume([]byte{0x83, 0x80}) // opcode 0x3
	assert.ErrorIs(t, err, api.ErrInvalidOpcode)

	p = newServer()
	_, err = p.Consume([]byte{0xA1, 0x80}) // RSV2 set
	assert.ErrorIs(t, err, api.ErrInvalidRSVBit)

	p = newServer()
	_, err = p.Consume([]byte{0xC1, 0x80}) // RSV1 without negotiated compression
	assert.ErrorIs(t, err, api.ErrInvalidRSVBit)
}

func TestFragmentedControlRejected(t *testing.T) {
	p := newServer()
	_, err := p.Consume([]byte{0x09, 0x80}) // ping with FIN=0
	assert.ErrorIs(t, err, api.ErrFragmentedControl)
}

func TestEmptyCloseFrame(t *testing.T) {
	key := [4]byte{5, 6, 7, 8}
	data := buildFrame(true, frame.OpcodeClose, false, &key, nil)

	p := newServer()
	msgs := drain(t, p, data)
	require.Len(t, msgs, 1)
	assert.Equal(t, frame.OpcodeClose, msgs[0].Opcode())
	assert.Empty(t, msgs[0].Payload())

	code, reason, err := frame.ParseClosePayload(msgs[0].Payload())
	require.NoError(t, err)
	assert.Equal(t, frame.CloseNoStatus, code)
	assert.Empty(t, reason)
}

func TestZeroLengthContinuation(t *testing.T) {
	key := [4]byte{5, 6, 7, 8}
	var data []byte
	data = append(data, buildFrame(false, frame.OpcodeBinary, false, &key, []byte("ab"))...)
	data = append(data, buildFrame(false, frame.OpcodeContinuation, false, &key, nil)...)
	data = append(data, buildFrame(true, frame.OpcodeContinuation, false, &key, []byte("cd"))...)

	p := newServer()
	msgs := drain(t, p, data)
	require.Len(t, msgs, 1)
	assert.Equal(t, "abcd", string(msgs[0].Payload()))
}

func TestCompressedMessageIdentityCompressor(t *testing.T) {
	comp := &fake.Compressor{Implemented: true, Enabled: true}
	key := [4]byte{0x37, 0xFA, 0x21, 0x3D}
	data := buildFrame(true, frame.OpcodeText, true, &key, []byte("Hello"))

	p := newServer(WithCompressor(comp))
	msgs := drain(t, p, data)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Hello", string(msgs[0].Payload()))
	assert.True(t, msgs[0].Compressed())
	require.Len(t, comp.DecompressedInputs, 1)
}

func TestCompressedFragmentsSpanFrames(t *testing.T) {
	comp := &fake.Compressor{Implemented: true, Enabled: true}
	key := [4]byte{1, 1, 2, 2}
	var data []byte
	// RSV1 marks only the first frame of the compressed message.
	data = append(data, buildFrame(false, frame.OpcodeBinary, true, &key, []byte{1, 2})...)
	data = append(data, buildFrame(true, frame.OpcodeContinuation, false, &key, []byte{3, 4})...)

	p := newServer(WithCompressor(comp))
	msgs := drain(t, p, data)
	require.Len(t, msgs, 1)
	assert.Equal(t, []byte{1, 2, 3, 4}, msgs[0].Payload())

	// The staged body reaches the compressor as one unit.
	require.Len(t, comp.DecompressedInputs, 1)
	assert.Equal(t, []byte{1, 2, 3, 4}, comp.DecompressedInputs[0])
}

func TestCompressedMessageRealDeflate(t *testing.T) {
	sender := extension.NewDeflate()
	_, err := sender.Negotiate(nil)
	require.NoError(t, err)
	compressed, err := sender.Compress([]byte("Hello compressed world"), nil)
	require.NoError(t, err)

	receiver := extension.NewDeflate()
	_, err = receiver.Negotiate(nil)
	require.NoError(t, err)

	key := [4]byte{0xDE, 0xAD, 0xBE, 0xEF}
	data := buildFrame(true, frame.OpcodeText, true, &key, compressed)

	p := newServer(WithCompressor(receiver))
	msgs := drain(t, p, data)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Hello compressed world", string(msgs[0].Payload()))
}

func TestStatsCounters(t *testing.T) {
	key := [4]byte{1, 2, 3, 4}
	var data []byte
	data = append(data, buildFrame(false, frame.OpcodeBinary, false, &key, []byte("ab"))...)
	data = append(data, buildFrame(true, frame.OpcodeContinuation, false, &key, []byte("cd"))...)

	p := newServer()
	msgs := drain(t, p, data)
	require.Len(t, msgs, 1)

	s := p.Stats()
	assert.Equal(t, int64(2), s.FramesIn)
	assert.Equal(t, int64(1), s.MessagesIn)
	assert.Equal(t, int64(4), s.BytesIn)
}

func TestExtendedLengthFrame(t *testing.T) {
	key := [4]byte{0x42, 0x13, 0x37, 0x99}
	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = byte(i)
	}
	data := buildFrame(true, frame.OpcodeBinary, false, &key, payload)

	p := newServer()
	msgs := drain(t, p, data)
	require.Len(t, msgs, 1)
	assert.Equal(t, payload, msgs[0].Payload())
}
