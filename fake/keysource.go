// Package fake
// Author: momentics <momentics@gmail.com>
//
// Deterministic collaborator implementations for testing.

package fake

// KeySource returns a fixed masking key, making prepared frames
// byte-reproducible in tests.
type KeySource struct {
	Key uint32
}

// NextMaskKey returns the configured key.
func (k *KeySource) NextMaskKey() uint32 { return k.Key }
