// File: extension/deflate.go
// Package extension implements the permessage-compress extension.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// DEFLATE-based per-message compression (permessage-deflate wire format,
// RFC 7692). Negotiation pins both sides to no-context-takeover, so every
// message is a self-contained DEFLATE stream ending in a stripped empty
// sync block.

package extension

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/klauspost/compress/flate"

	"github.com/momentics/wscore/api"
)

// Name is the extension token recognized in Sec-WebSocket-Extensions.
const Name = "permessage-compress"

// syncTail is the empty sync block every flushed DEFLATE stream ends with;
// the sender strips it, the receiver restores it.
var syncTail = []byte{0x00, 0x00, 0xFF, 0xFF}

// finalTail terminates a restored stream with an empty final stored block so
// the inflater reads to a clean EOF.
var finalTail = []byte{0x00, 0x00, 0xFF, 0xFF, 0x01, 0x00, 0x00, 0xFF, 0xFF}

// Deflate implements api.Compressor.
type Deflate struct {
	enabled bool
	level   int

	fw   *flate.Writer
	cbuf bytes.Buffer
}

// NewDeflate returns a compressor at the default compression level.
func NewDeflate() *Deflate {
	return &Deflate{level: flate.DefaultCompression}
}

// NewDeflateLevel returns a compressor at the given flate level.
func NewDeflateLevel(level int) *Deflate {
	return &Deflate{level: level}
}

// IsImplemented reports that a concrete compressor is present.
func (d *Deflate) IsImplemented() bool { return true }

// IsEnabled reports whether negotiation activated the extension.
func (d *Deflate) IsEnabled() bool { return d.enabled }

// Negotiate processes the offer attributes and returns the response
// fragment. Window-bits offers are accepted and ignored: with no context
// takeover the inflater handles any window size. Unknown attributes fail the
// negotiation; the caller drops the offer and continues the handshake.
func (d *Deflate) Negotiate(attributes map[string]string) (string, error) {
	for name, value := range attributes {
		switch name {
		case "server_no_context_takeover", "client_no_context_takeover":
			if value != "" {
				return "", fmt.Errorf("%s takes no value: %w", name, api.ErrExtensionParse)
			}
		case "server_max_window_bits", "client_max_window_bits":
			if value == "" {
				continue
			}
			bits, err := strconv.Atoi(value)
			if err != nil || bits < 8 || bits > 15 {
				return "", fmt.Errorf("bad %s %q: %w", name, value, api.ErrExtensionParse)
			}
		default:
			return "", fmt.Errorf("unknown attribute %q: %w", name, api.ErrExtensionParse)
		}
	}
	d.enabled = true
	return Name + "; server_no_context_takeover; client_no_context_takeover", nil
}

// Compress appends the compressed form of in to out, with the trailing sync
// block stripped per the wire format.
func (d *Deflate) Compress(in, out []byte) ([]byte, error) {
	d.cbuf.Reset()
	if d.fw == nil {
		fw, err := flate.NewWriter(&d.cbuf, d.level)
		if err != nil {
			return out, err
		}
		d.fw = fw
	} else {
		d.fw.Reset(&d.cbuf)
	}
	if _, err := d.fw.Write(in); err != nil {
		return out, err
	}
	if err := d.fw.Flush(); err != nil {
		return out, err
	}
	b := d.cbuf.Bytes()
	b = bytes.TrimSuffix(b, syncTail)
	if len(b) == 0 {
		b = []byte{0x00}
	}
	return append(out, b...), nil
}

// Decompress appends the decompressed form of in to out.
func (d *Deflate) Decompress(in, out []byte) ([]byte, error) {
	fr := flate.NewReader(io.MultiReader(bytes.NewReader(in), bytes.NewReader(finalTail)))
	defer fr.Close()

	var chunk [4096]byte
	for {
		n, err := fr.Read(chunk[:])
		out = append(out, chunk[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("inflate: %w", err)
		}
	}
}
