// File: api/errors.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error kinds carried by every fallible protocol operation.

package api

import "errors"

// ErrorKind identifies a specific protocol, handshake, or build failure.
// Every fallible operation in the engine reports one of these values.
type ErrorKind int

const (
	ErrNone ErrorKind = iota
	ErrExtensionsDisabled
	ErrExtensionParse
	ErrInvalidHTTPMethod
	ErrInvalidHTTPVersion
	ErrMissingRequiredHeader
	ErrSHA1Library
	ErrInvalidArguments
	ErrInvalidOpcode
	ErrInvalidPayload
	ErrInvalidRSVBit
	ErrInvalidContinuation
	ErrFragmentedControl
	ErrControlTooBig
	ErrMaskingRequired
	ErrMaskingForbidden
	ErrNonMinimalEncoding
	ErrRequires64Bit
	ErrInvalidUTF8
	ErrReservedCloseCode
	ErrInvalidCloseCode
	ErrReasonRequiresCode
	ErrGeneric
)

var errorKindMessages = map[ErrorKind]string{
	ErrNone:                  "no error",
	ErrExtensionsDisabled:    "extension support is disabled",
	ErrExtensionParse:        "extension offer could not be parsed",
	ErrInvalidHTTPMethod:     "invalid HTTP method",
	ErrInvalidHTTPVersion:    "invalid HTTP version",
	ErrMissingRequiredHeader: "missing required handshake header",
	ErrSHA1Library:           "SHA-1 digest computation failed",
	ErrInvalidArguments:      "invalid arguments",
	ErrInvalidOpcode:         "invalid opcode",
	ErrInvalidPayload:        "invalid payload",
	ErrInvalidRSVBit:         "invalid RSV bit",
	ErrInvalidContinuation:   "invalid continuation sequence",
	ErrFragmentedControl:     "fragmented control frame",
	ErrControlTooBig:         "control frame payload exceeds 125 bytes",
	ErrMaskingRequired:       "client frames must be masked",
	ErrMaskingForbidden:      "server frames must not be masked",
	ErrNonMinimalEncoding:    "payload length not minimally encoded",
	ErrRequires64Bit:         "payload length requires a 64 bit host",
	ErrInvalidUTF8:           "invalid UTF-8 in text message",
	ErrReservedCloseCode:     "reserved close code",
	ErrInvalidCloseCode:      "invalid close code",
	ErrReasonRequiresCode:    "close reason requires a close code",
	ErrGeneric:               "generic protocol error",
}

// Error implements the error interface.
func (k ErrorKind) Error() string {
	if msg, ok := errorKindMessages[k]; ok {
		return "wscore: " + msg
	}
	return "wscore: unknown error"
}

// KindOf extracts the ErrorKind from err, unwrapping as needed.
// Returns ErrNone when err is nil and ErrGeneric when err carries no kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrNone
	}
	var k ErrorKind
	if errors.As(err, &k) {
		return k
	}
	return ErrGeneric
}
