// File: protocol/http.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Adapters binding the engine's handshake accessor contracts to net/http,
// plus the Sec-WebSocket-Extensions offer grammar.

package protocol

import (
	"net/http"
	"strings"

	"github.com/momentics/wscore/api"
)

// httpRequest adapts *http.Request to api.HandshakeRequest.
type httpRequest struct {
	r *http.Request
}

// WrapRequest exposes a parsed net/http request through the handshake
// accessor contract.
func WrapRequest(r *http.Request) api.HandshakeRequest {
	return httpRequest{r: r}
}

func (h httpRequest) Method() string  { return h.r.Method }
func (h httpRequest) Version() string { return h.r.Proto }

func (h httpRequest) Header(name string) string {
	// net/http promotes Host out of the header map.
	if http.CanonicalHeaderKey(name) == "Host" {
		return h.r.Host
	}
	return h.r.Header.Get(name)
}

func (h httpRequest) ParameterList(name string) ([]api.ExtensionParameter, error) {
	return ParseExtensionOffers(h.r.Header.Values(name))
}

func (h httpRequest) URI() string {
	return h.r.URL.RequestURI()
}

// ParseExtensionOffers parses Sec-WebSocket-Extensions header values:
// comma-separated extension offers, each a token followed by
// semicolon-separated attribute[=value] pairs, values optionally quoted.
func ParseExtensionOffers(values []string) ([]api.ExtensionParameter, error) {
	var offers []api.ExtensionParameter
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			parts := strings.Split(item, ";")
			name := strings.TrimSpace(parts[0])
			if name == "" {
				return nil, api.ErrExtensionParse
			}
			offer := api.ExtensionParameter{
				Name:       name,
				Attributes: make(map[string]string),
			}
			for _, attr := range parts[1:] {
				attr = strings.TrimSpace(attr)
				if attr == "" {
					return nil, api.ErrExtensionParse
				}
				key, val, _ := strings.Cut(attr, "=")
				key = strings.TrimSpace(key)
				if key == "" {
					return nil, api.ErrExtensionParse
				}
				offer.Attributes[key] = strings.Trim(strings.TrimSpace(val), `"`)
			}
			offers = append(offers, offer)
		}
	}
	return offers, nil
}

// headerField keeps response headers in emission order.
type headerField struct {
	name, value string
}

// Response is an in-memory api.HandshakeResponse that serializes to a
// 101 Switching Protocols reply.
type Response struct {
	fields []headerField
}

// NewResponse returns an empty upgrade response.
func NewResponse() *Response {
	return &Response{}
}

// ReplaceHeader sets the named header, dropping prior values.
func (r *Response) ReplaceHeader(name, value string) {
	kept := r.fields[:0]
	for _, f := range r.fields {
		if !strings.EqualFold(f.name, name) {
			kept = append(kept, f)
		}
	}
	r.fields = append(kept, headerField{name: name, value: value})
}

// AppendHeader adds a header value, keeping prior values.
func (r *Response) AppendHeader(name, value string) {
	r.fields = append(r.fields, headerField{name: name, value: value})
}

// Header returns the first value of the named header, or "".
func (r *Response) Header(name string) string {
	for _, f := range r.fields {
		if strings.EqualFold(f.name, name) {
			return f.value
		}
	}
	return ""
}

// Raw serializes the status line and headers for the transport.
func (r *Response) Raw() string {
	var sb strings.Builder
	sb.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	for _, f := range r.fields {
		sb.WriteString(f.name)
		sb.WriteString(": ")
		sb.WriteString(f.value)
		sb.WriteString("\r\n")
	}
	sb.WriteString("\r\n")
	return sb.String()
}
