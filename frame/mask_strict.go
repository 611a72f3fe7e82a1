// File: frame/mask_strict.go
// Package frame
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Built with -tags strictmasking, all mask operations proceed byte at a
// time. Observable behaviour is identical to the default word path.

//go:build strictmasking

package frame

func maskStream(b []byte, prepared uint32) uint32 {
	return byteMaskStream(b, prepared)
}
