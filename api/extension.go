// File: api/extension.go
// Package api defines the permessage-compress extension contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// ExtensionParameter is one element of a parsed Sec-WebSocket-Extensions
// offer: an extension name plus its attribute list in offer order.
type ExtensionParameter struct {
	Name       string
	Attributes map[string]string
}

// Compressor is the payload-transforming extension collaborator. The engine
// recognizes exactly one extension (permessage-compress); its wire details
// (window bits, context takeover) are opaque to the engine.
type Compressor interface {
	// IsImplemented reports whether a concrete compressor is present at all.
	IsImplemented() bool

	// IsEnabled reports whether negotiation activated the extension for
	// this connection.
	IsEnabled() bool

	// Negotiate processes the attributes of a permessage-compress offer and
	// returns the response fragment for the Sec-WebSocket-Extensions header.
	Negotiate(attributes map[string]string) (string, error)

	// Compress appends the compressed form of in to out and returns the
	// extended slice.
	Compress(in, out []byte) ([]byte, error)

	// Decompress appends the decompressed form of in to out and returns the
	// extended slice. Appending to the caller's buffer lets the UTF-8
	// validator see the decoded bytes without a second copy.
	Decompress(in, out []byte) ([]byte, error)
}
