// File: protocol/keysource.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"crypto/rand"
	"encoding/binary"
)

// CryptoKeySource draws masking keys from the operating system CSPRNG.
// Masking keys must be unpredictable per frame; a guessable key defeats the
// proxy cache-poisoning defense masking exists for.
type CryptoKeySource struct{}

// NextMaskKey returns a fresh 32-bit masking key.
func (CryptoKeySource) NextMaskKey() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("wscore: system entropy unavailable: " + err.Error())
	}
	return binary.BigEndian.Uint32(b[:])
}
