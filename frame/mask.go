// File: frame/mask.go
// Package frame
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// XOR masking engine. The prepared key is the 4-byte wire key loaded as a
// little-endian word and rotated to the current payload cursor, so that the
// streaming path can XOR a machine word at a time. Loads and stores go
// through the same little-endian interpretation, which keeps the byte-level
// result identical on every host.

package frame

import (
	"encoding/binary"
	"math/bits"
)

// PrepareMaskingKey converts the on-the-wire masking key into the rotating
// word form used by MaskStream.
func PrepareMaskingKey(key [4]byte) uint32 {
	return binary.LittleEndian.Uint32(key[:])
}

// MaskStream applies the XOR mask to b in place and returns the key rotated
// by len(b) mod 4. Callers thread the returned key into the next call to
// continue masking the same frame's payload across buffer boundaries.
func MaskStream(b []byte, prepared uint32) uint32 {
	return maskStream(b, prepared)
}

// MaskExact masks the full contiguous payload from src into dst. dst and src
// may alias; len(dst) must be at least len(src).
func MaskExact(dst, src []byte, key [4]byte) {
	n := copy(dst, src)
	maskStream(dst[:n], PrepareMaskingKey(key))
}

// wordMaskStream XORs eight bytes per step, then finishes the tail bytewise.
func wordMaskStream(b []byte, prepared uint32) uint32 {
	k64 := uint64(prepared) | uint64(prepared)<<32
	for len(b) >= 8 {
		binary.LittleEndian.PutUint64(b, binary.LittleEndian.Uint64(b)^k64)
		b = b[8:]
	}
	return byteMaskStream(b, prepared)
}

// byteMaskStream is the strict one-byte-at-a-time path. After masking byte i
// the key is rotated so its low byte is the wire key byte (i+1) mod 4.
func byteMaskStream(b []byte, prepared uint32) uint32 {
	for i := range b {
		b[i] ^= byte(prepared)
		prepared = bits.RotateLeft32(prepared, -8)
	}
	return prepared
}
