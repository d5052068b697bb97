// Package engine implements a reference light-client engine behind the
// core.Engine contract.
//
// The engine owns every chain it registers. Each chain gets a worker goroutine
// that answers JSON-RPC requests in submission order and writes responses to
// a buffered channel handed out by AddChain. The channel is closed when the
// chain is removed or the engine is closed, which is how consumers learn that
// no further responses will arrive.
//
// # Chain Specifications
//
// ParseChainSpec accepts the JSON chain specification format used by
// Substrate-based chains:
//
//	{
//	  "name": "Polkadot",
//	  "id": "polkadot",
//	  "chainType": "Live",
//	  "bootNodes": ["/dns/example.com/tcp/443/wss"],
//	  "properties": {"tokenSymbol": "DOT"},
//	  "genesis": {"raw": {"top": {}}}
//	}
//
// Boot nodes are validated as multiaddrs. A parachain names its relay chain
// with relay_chain and para_id; the relay must be one of the chains passed in
// AddChainConfig.PotentialRelayChains.
//
// # JSON-RPC
//
// Requests must be JSON-RPC 2.0 calls with an id. Malformed requests are
// refused synchronously with core.ErrMalformedRequest and never produce a
// response. Every accepted request produces exactly one response carrying the
// request's id verbatim; chainHead_v1_follow also emits a followEvent
// notification. Unknown methods are answered with error -32601.
//
// Served methods are listed by MethodNames and by the rpc_methods call.
//
// # Quotas
//
// AddChainConfig.JSONRPC bounds queued requests and live subscriptions per
// chain. Config.RequestsPerSecond adds a token-bucket limit. Requests over
// either bound fail with core.ErrQuotaExceeded.
//
// # Usage
//
//	e := engine.New(func(o *engine.Options) {
//	    o.Logger = logging.Component("engine")
//	})
//	defer e.Close()
package engine
