// File: protocol/handshake.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Opening handshake computation and extension negotiation. HTTP parsing is
// the caller's concern; the engine works against the accessor contracts in
// the api package.

package protocol

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/momentics/wscore/api"
)

// HandshakeGUID is the key-derivation constant of RFC 6455 section 1.3.
const HandshakeGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// Response tokens for the 101 reply.
const (
	UpgradeToken    = "websocket"
	ConnectionToken = "Upgrade"
)

const permessageCompressName = "permessage-compress"

// ValidateHandshake checks that the request is an HTTP/1.1 GET carrying a
// client key.
func (p *Processor) ValidateHandshake(r api.HandshakeRequest) error {
	if r.Method() != "GET" {
		return api.ErrInvalidHTTPMethod
	}
	if r.Version() != "HTTP/1.1" {
		return api.ErrInvalidHTTPVersion
	}
	if r.Header("Sec-WebSocket-Key") == "" {
		return api.ErrMissingRequiredHeader
	}
	return nil
}

// ProcessHandshake computes Sec-WebSocket-Accept from the client key and
// writes the upgrade headers to the response. The computation is pure: the
// same request always produces a byte-identical accept token.
func (p *Processor) ProcessHandshake(req api.HandshakeRequest, res api.HandshakeResponse) error {
	key := req.Header("Sec-WebSocket-Key")
	if key == "" {
		return api.ErrMissingRequiredHeader
	}
	accept := ComputeAcceptKey(key)
	res.ReplaceHeader("Sec-WebSocket-Accept", accept)
	res.AppendHeader("Upgrade", UpgradeToken)
	res.AppendHeader("Connection", ConnectionToken)
	return nil
}

// ComputeAcceptKey derives the accept token: SHA-1 over key+GUID, digest in
// network byte order, base64 encoded.
func ComputeAcceptKey(clientKey string) string {
	digest := sha1.Sum([]byte(clientKey + HandshakeGUID))
	return base64.StdEncoding.EncodeToString(digest[:])
}

// NegotiateExtensions parses the client's Sec-WebSocket-Extensions offer and
// delegates known extensions to their objects. A per-extension negotiation
// failure drops that offer and the handshake continues; the returned string
// is the aggregated Sec-WebSocket-Extensions response value, empty when
// nothing was accepted.
func (p *Processor) NegotiateExtensions(req api.HandshakeRequest) (string, error) {
	if p.compressor == nil {
		return "", api.ErrExtensionsDisabled
	}

	offers, err := req.ParameterList("Sec-WebSocket-Extensions")
	if err != nil {
		return "", fmt.Errorf("parse offer: %w", api.ErrExtensionParse)
	}
	if len(offers) == 0 {
		return "", nil
	}

	var fragments []string
	if p.compressor.IsImplemented() {
		for _, offer := range offers {
			if offer.Name != permessageCompressName {
				continue
			}
			fragment, negErr := p.compressor.Negotiate(offer.Attributes)
			if negErr != nil {
				// Soft failure: the offer is dropped, nothing is advertised
				// for this extension.
				break
			}
			fragments = append(fragments, fragment)
			break
		}
	}
	return strings.Join(fragments, ", "), nil
}

// GetOrigin returns the request's Origin header.
func GetOrigin(r api.HandshakeRequest) string {
	return r.Header("Origin")
}

// URI is the location a handshake request addressed.
type URI struct {
	Secure   bool
	Host     string
	Port     string
	Resource string
}

// GetURI extracts the request target from the Host header and request line.
// The last colon splits host and port unless a ']' follows it, in which
// case the value is an IPv6 literal without a port.
func (p *Processor) GetURI(r api.HandshakeRequest) URI {
	host := r.Header("Host")

	lastColon := strings.LastIndex(host, ":")
	lastBrace := strings.LastIndex(host, "]")

	u := URI{Secure: p.secure, Resource: r.URI()}
	if lastColon == -1 || lastBrace > lastColon {
		u.Host = host
	} else {
		u.Host = host[:lastColon]
		u.Port = host[lastColon+1:]
	}
	return u
}
