// File: frame/mask_fast.go
// Package frame
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

//go:build !strictmasking

package frame

func maskStream(b []byte, prepared uint32) uint32 {
	return wordMaskStream(b, prepared)
}
