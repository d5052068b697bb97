package testutil

import (
	"github.com/tidwall/sjson"
)

// RequestBuilder provides a fluent helper for constructing JSON-RPC 2.0
// requests in tests.
// Example:
//
//	req := NewRequestBuilder("system_health").ID(1).Build()
//
// Chain only the parts you need; the id defaults to 1.
type RequestBuilder struct {
	json   string
	params []any
}

// NewRequestBuilder starts a request for method.
func NewRequestBuilder(method string) *RequestBuilder {
	b := &RequestBuilder{json: `{"jsonrpc":"2.0"}`}
	b.json, _ = sjson.Set(b.json, "id", 1)
	b.json, _ = sjson.Set(b.json, "method", method)
	return b
}

// ID sets the request id, a number or a string (chainable).
func (b *RequestBuilder) ID(id any) *RequestBuilder {
	b.json, _ = sjson.Set(b.json, "id", id)
	return b
}

// Param appends a positional parameter (chainable).
func (b *RequestBuilder) Param(val any) *RequestBuilder {
	b.params = append(b.params, val)
	return b
}

// Build returns the request JSON text.
func (b *RequestBuilder) Build() string {
	if b.params == nil {
		return b.json
	}
	out, _ := sjson.Set(b.json, "params", b.params)
	return out
}
