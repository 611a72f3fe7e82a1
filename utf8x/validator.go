// File: utf8x/validator.go
// Package utf8x implements incremental UTF-8 stream validation.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The validator consumes arbitrary byte chunks, possibly split mid-codepoint,
// and reports completeness only at a code point boundary. Table-driven DFA
// after Bjoern Hoehrmann's "Flexible and Economical UTF-8 Decoder".

package utf8x

const (
	accept = 0
	reject = 12
)

// utf8d maps bytes to character classes (first 256 entries), then maps
// (state + class) to the next state.
var utf8d = [364]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	8, 8, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
	10, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 4, 3, 3,
	11, 6, 6, 6, 5, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8,

	0, 12, 24, 36, 60, 96, 84, 12, 12, 12, 48, 72,
	12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12,
	12, 0, 12, 12, 12, 12, 12, 0, 12, 0, 12, 12,
	12, 24, 12, 12, 12, 12, 12, 24, 12, 24, 12, 12,
	12, 12, 12, 12, 12, 12, 12, 24, 12, 12, 12, 12,
	12, 24, 12, 12, 12, 12, 12, 12, 12, 24, 12, 12,
	12, 12, 12, 12, 12, 12, 12, 36, 12, 36, 12, 12,
	12, 36, 12, 12, 12, 12, 12, 36, 12, 36, 12, 12,
	12, 36, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12,
}

// Validator holds the DFA state for one message. The zero value is ready to
// use.
type Validator struct {
	state uint8
}

// Decode feeds the next chunk to the validator. It returns false once an
// invalid sequence has been consumed; from then on the validator stays
// poisoned until Reset.
func (v *Validator) Decode(p []byte) bool {
	state := v.state
	for _, b := range p {
		state = utf8d[256+uint32(state)+uint32(utf8d[b])]
		if state == reject {
			break
		}
	}
	v.state = state
	return state != reject
}

// Complete reports whether the consumed stream ends on a code point boundary
// and no invalid sequence was seen.
func (v *Validator) Complete() bool {
	return v.state == accept
}

// Reset returns the validator to its initial state.
func (v *Validator) Reset() {
	v.state = accept
}

// Valid reports whether p is a complete valid UTF-8 string.
func Valid(p []byte) bool {
	var v Validator
	return v.Decode(p) && v.Complete()
}
