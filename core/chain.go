package core

import (
	"math"
	"strconv"
)

// ChainID identifies a chain registered in an Engine. It is handed to foreign
// callers as a size_t and carries no meaning beyond identity.
type ChainID uint64

// String returns the decimal form of the id.
func (id ChainID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// JSONRPCConfig bounds the JSON-RPC service of one chain.
type JSONRPCConfig struct {
	// Disabled turns the JSON-RPC service off. Requests are refused and no
	// response channel is created.
	Disabled bool
	// MaxPendingRequests caps requests queued but not yet answered.
	MaxPendingRequests uint32
	// MaxSubscriptions caps concurrently active subscriptions.
	MaxSubscriptions uint32
}

// UnboundedJSONRPC is the configuration the bridge registers every chain with:
// pending requests and subscriptions are effectively unlimited.
var UnboundedJSONRPC = JSONRPCConfig{
	MaxPendingRequests: math.MaxUint32,
	MaxSubscriptions:   math.MaxUint32,
}

// AddChainConfig describes a chain to register.
type AddChainConfig struct {
	// Specification is the chain specification JSON text.
	Specification string
	// DatabaseContent is a previously exported database, or empty.
	DatabaseContent string
	// PotentialRelayChains lists registered chains the new chain may use as
	// its relay chain when it is a parachain.
	PotentialRelayChains []ChainID
	// JSONRPC configures the chain's JSON-RPC service.
	JSONRPC JSONRPCConfig
}

// AddChainSuccess is returned by Engine.AddChain.
type AddChainSuccess struct {
	// ChainID is the handle assigned by the engine.
	ChainID ChainID
	// Responses yields JSON-RPC responses and notifications in production
	// order. It is closed once the chain is removed or the engine shuts
	// down. Nil when JSON-RPC is disabled.
	Responses <-chan string
}
