package core

// Engine is the light-client engine consumed by the bridge.
//
// A concrete implementation is responsible for:
//   - Registering chains from a chain specification (AddChain)
//   - Tearing chains down synchronously (RemoveChain)
//   - Accepting JSON-RPC requests for asynchronous processing (JSONRPCRequest)
//
// Implementations MUST:
//   - Be safe for concurrent use
//   - Deliver responses of one chain in production order on the channel
//     returned by AddChain
//   - Close that channel once the chain is removed or the engine shuts down,
//     and never send on it afterwards
type Engine interface {
	// AddChain registers a chain. It fails with an error wrapping
	// ErrInvalidChainSpec when the specification is rejected.
	AddChain(cfg AddChainConfig) (AddChainSuccess, error)

	// RemoveChain releases every resource of the chain before returning.
	// The chain's response channel is closed once RemoveChain returns.
	RemoveChain(id ChainID) error

	// JSONRPCRequest queues a request for the chain. It returns once the
	// request is accepted, not once it is answered.
	//
	// Errors:
	//   - ErrUnknownChain: the chain is not registered
	//   - ErrMalformedRequest: the payload is not a JSON-RPC 2.0 request
	//   - ErrQuotaExceeded: too many pending requests, or over the rate limit
	//   - ErrJSONRPCDisabled: the chain was added without JSON-RPC
	JSONRPCRequest(request string, id ChainID) error
}
