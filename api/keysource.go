// File: api/keysource.go
// Package api defines the masking key source.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// KeySource produces masking keys for outbound client frames. Implementations
// must yield cryptographically unpredictable values, one per masked frame.
type KeySource interface {
	NextMaskKey() uint32
}
