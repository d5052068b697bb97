package core

import "errors"

var (
	// ErrUnknownChain is returned when a chain id is not registered.
	ErrUnknownChain = errors.New("unknown chain")

	// ErrInvalidChainSpec is returned when a chain specification is rejected.
	ErrInvalidChainSpec = errors.New("invalid chain specification")

	// ErrMalformedRequest is returned when a request is not valid JSON-RPC 2.0.
	ErrMalformedRequest = errors.New("malformed json-rpc request")

	// ErrQuotaExceeded is returned when a chain cannot accept more requests.
	ErrQuotaExceeded = errors.New("json-rpc request quota exceeded")

	// ErrJSONRPCDisabled is returned for requests to a chain added without JSON-RPC.
	ErrJSONRPCDisabled = errors.New("json-rpc disabled for chain")

	// ErrEngineClosed is returned by an engine that has been shut down.
	ErrEngineClosed = errors.New("engine closed")
)

// IsRejection reports whether err is a domain-level refusal by the engine,
// as opposed to a lookup failure or an engine shutdown.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidChainSpec) ||
		errors.Is(err, ErrMalformedRequest) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrJSONRPCDisabled)
}
