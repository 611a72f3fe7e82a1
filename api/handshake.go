// File: api/handshake.go
// Package api defines the handshake request/response accessor contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// HTTP parsing itself lives outside the engine; these interfaces are the
// accessor surface the engine relies on.

package api

// HandshakeRequest exposes the parsed client upgrade request.
type HandshakeRequest interface {
	// Method returns the HTTP request method, e.g. "GET".
	Method() string

	// Version returns the HTTP version string, e.g. "HTTP/1.1".
	Version() string

	// Header returns the value of the named header, or "" when absent.
	Header(name string) string

	// ParameterList parses the named header as an extension offer list.
	ParameterList(name string) ([]ExtensionParameter, error)

	// URI returns the request target.
	URI() string
}

// HandshakeResponse collects the server's upgrade response headers.
type HandshakeResponse interface {
	ReplaceHeader(name, value string)
	AppendHeader(name, value string)

	// Raw serializes the response for the transport.
	Raw() string
}
