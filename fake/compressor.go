// Package fake
// Author: momentics <momentics@gmail.com>
//
// Identity compressor for exercising the compression plumbing without a
// real DEFLATE stream.

package fake

// Compressor is an api.Compressor whose transform is the identity. Enabled
// and Response control negotiation behaviour; NegotiateErr forces the soft
// failure path.
type Compressor struct {
	Implemented  bool
	Enabled      bool
	Response     string
	NegotiateErr error

	CompressedInputs   [][]byte
	DecompressedInputs [][]byte
}

// IsImplemented reports whether the fake advertises an implementation.
func (c *Compressor) IsImplemented() bool { return c.Implemented }

// IsEnabled reports whether the fake is negotiated on.
func (c *Compressor) IsEnabled() bool { return c.Enabled }

// Negotiate returns the configured response fragment or error, enabling the
// fake on success.
func (c *Compressor) Negotiate(map[string]string) (string, error) {
	if c.NegotiateErr != nil {
		return "", c.NegotiateErr
	}
	c.Enabled = true
	return c.Response, nil
}

// Compress records in and appends it unchanged.
func (c *Compressor) Compress(in, out []byte) ([]byte, error) {
	c.CompressedInputs = append(c.CompressedInputs, append([]byte(nil), in...))
	return append(out, in...), nil
}

// Decompress records in and appends it unchanged.
func (c *Compressor) Decompress(in, out []byte) ([]byte, error) {
	c.DecompressedInputs = append(c.DecompressedInputs, append([]byte(nil), in...))
	return append(out, in...), nil
}
