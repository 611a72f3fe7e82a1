// File: frame/close.go
// Package frame
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Close status codes per RFC 6455 section 7.4 and the IANA registry.

package frame

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/momentics/wscore/api"
)

// CloseCode is a 16-bit close status code.
type CloseCode uint16

const (
	CloseNormal            CloseCode = 1000
	CloseGoingAway         CloseCode = 1001
	CloseProtocolError     CloseCode = 1002
	CloseUnsupportedData   CloseCode = 1003
	CloseNoStatus          CloseCode = 1005
	CloseAbnormal          CloseCode = 1006
	CloseInvalidPayload    CloseCode = 1007
	ClosePolicyViolation   CloseCode = 1008
	CloseMessageTooBig     CloseCode = 1009
	CloseExtensionRequired CloseCode = 1010
	CloseInternalError     CloseCode = 1011
	CloseServiceRestart    CloseCode = 1012
	CloseTryAgainLater     CloseCode = 1013
	CloseBadGateway        CloseCode = 1014
	CloseTLSHandshake      CloseCode = 1015
)

// MaxCloseReasonLength is the longest close reason that fits a control frame
// alongside the 2-byte status code.
const MaxCloseReasonLength = PayloadSizeBasic - 2

// ReservedCloseCode reports whether code must never appear on the wire
// (1004, 1005, 1006, 1015).
func ReservedCloseCode(code CloseCode) bool {
	switch code {
	case 1004, CloseNoStatus, CloseAbnormal, CloseTLSHandshake:
		return true
	}
	return false
}

// InvalidCloseCode reports whether code lies outside the ranges the IANA
// registry permits on the wire.
func InvalidCloseCode(code CloseCode) bool {
	return code < 1000 || (code >= 1016 && code <= 2999) || code > 4999
}

// BuildClosePayload constructs the close frame payload: the status code in
// network order followed by the reason bytes. CloseNoStatus yields an empty
// payload.
func BuildClosePayload(code CloseCode, reason string) []byte {
	if code == CloseNoStatus {
		return nil
	}
	payload := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(payload, uint16(code))
	copy(payload[2:], reason)
	return payload
}

// ParseClosePayload extracts the status code and reason from a received
// close message payload. An empty payload is the distinguished no-status
// state. A 1-byte payload, a forbidden code, or a non-UTF-8 reason is an
// error.
func ParseClosePayload(payload []byte) (CloseCode, string, error) {
	if len(payload) == 0 {
		return CloseNoStatus, "", nil
	}
	if len(payload) == 1 {
		return 0, "", api.ErrInvalidCloseCode
	}
	code := CloseCode(binary.BigEndian.Uint16(payload[:2]))
	if ReservedCloseCode(code) {
		return 0, "", api.ErrReservedCloseCode
	}
	if InvalidCloseCode(code) {
		return 0, "", api.ErrInvalidCloseCode
	}
	reason := payload[2:]
	if !utf8.Valid(reason) {
		return 0, "", api.ErrInvalidUTF8
	}
	return code, string(reason), nil
}
