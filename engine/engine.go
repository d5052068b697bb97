package engine

import (
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/finsig/smolder-c-ffi/core"
	"github.com/finsig/smolder-c-ffi/logging"
	"github.com/mr-tron/base58"
)

// Config defines tuning parameters for the Engine's operational behavior.
//
// Example:
//
//	cfg := Config{
//	    ClientName:         "wallet",
//	    ClientVersion:      "1.2.0",
//	    ResponseBufferSize: 128,
//	}
type Config struct {
	// ClientName is reported by system_name.
	ClientName string

	// ClientVersion is reported by system_version.
	ClientVersion string

	// ResponseBufferSize sets the capacity of each chain's response channel.
	// Once it is full the chain's worker waits for the consumer.
	ResponseBufferSize int

	// RequestsPerSecond limits accepted requests per chain. Zero disables
	// the limit.
	RequestsPerSecond float64

	// RequestBurst is the token bucket size used with RequestsPerSecond.
	// Values below one are raised to one.
	RequestBurst int
}

// DefaultConfig provides the values used when no Config is supplied.
//
// Configuration values:
//   - ClientName / ClientVersion: identify this module over JSON-RPC
//   - ResponseBufferSize: 64
//   - RequestsPerSecond: 0 (unlimited)
var DefaultConfig = Config{
	ClientName:         "smolder-c-ffi",
	ClientVersion:      "0.1.0",
	ResponseBufferSize: 64,
}

// Options configures an Engine instance using the functional options pattern.
//
// Example:
//
//	e := New(func(o *Options) {
//	    o.Config.ClientName = "wallet"
//	    o.Logger = logging.Component("engine")
//	})
type Options struct {
	// Config contains operational parameters for the engine behavior.
	// Defaults to DefaultConfig if not specified.
	Config Config

	// Logger provides structured logging for debugging and monitoring.
	// Defaults to NoOp logger if nil to ensure no logging dependencies.
	Logger logging.Logger

	// PeerID overrides the generated local peer id.
	PeerID string
}

// Engine is a reference light-client engine. It validates chain
// specifications, serves a fixed set of JSON-RPC methods from chain
// specification data, and supports chainHead_v1_follow subscriptions. It does
// not connect to any peer.
//
// Concurrency Model:
//   - Chain registry protected by an RWMutex
//   - One worker goroutine per chain answering requests in submission order
//   - RemoveChain stops the worker and closes the chain's response channel
//     before returning
//
// Example Usage:
//
//	e := engine.New()
//	added, err := e.AddChain(core.AddChainConfig{
//	    Specification: specJSON,
//	    JSONRPC:       core.UnboundedJSONRPC,
//	})
//	if err != nil {
//	    return err
//	}
//	_ = e.JSONRPCRequest(`{"jsonrpc":"2.0","id":1,"method":"system_health"}`, added.ChainID)
//	fmt.Println(<-added.Responses)
type Engine struct {
	// Configuration - immutable after construction
	config Config
	logger logging.Logger
	peerID string

	// Chain registry - protected by mutex for thread-safe access
	chains map[core.ChainID]*chain
	nextID core.ChainID
	closed bool
	mu     sync.RWMutex
}

var _ core.Engine = (*Engine)(nil)

// New creates a new Engine instance with sensible defaults and optional configuration.
//
// Examples:
//
//	// Minimal setup with all defaults
//	e := New()
//
//	// Rate limited chains with a custom logger
//	e := New(func(o *Options) {
//	    o.Config.RequestsPerSecond = 20
//	    o.Config.RequestBurst = 40
//	    o.Logger = myLogger
//	})
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Config.ResponseBufferSize < 0 {
		opts.Config.ResponseBufferSize = 0
	}
	if opts.PeerID == "" {
		opts.PeerID = newPeerID()
	}

	return &Engine{
		config: opts.Config,
		logger: opts.Logger,
		peerID: opts.PeerID,
		chains: make(map[core.ChainID]*chain),
	}
}

// PeerID returns the base58 peer id reported by system_localPeerId.
func (e *Engine) PeerID() string {
	return e.peerID
}

// AddChain validates the specification and registers the chain.
//
// Parachain specifications must name a relay chain whose specification id
// matches exactly one of cfg.PotentialRelayChains.
//
// Chain ids are allocated monotonically and never reused by this engine.
func (e *Engine) AddChain(cfg core.AddChainConfig) (core.AddChainSuccess, error) {
	spec, err := ParseChainSpec(cfg.Specification)
	if err != nil {
		return core.AddChainSuccess{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return core.AddChainSuccess{}, core.ErrEngineClosed
	}

	attrs := []any{"name", spec.Name}
	if spec.IsParachain() {
		relay, err := e.findRelayLocked(spec, cfg.PotentialRelayChains)
		if err != nil {
			return core.AddChainSuccess{}, err
		}
		attrs = append(attrs, "relay_chain_id", relay.id, "para_id", spec.ParaID)
	}

	id := e.nextID
	e.nextID++

	c := newChain(id, spec, cfg.JSONRPC, e)
	e.chains[id] = c
	go c.run()

	e.logger.Debug("chain added", append([]any{"chain_id", id}, attrs...)...)

	added := core.AddChainSuccess{ChainID: id}
	if !cfg.JSONRPC.Disabled {
		added.Responses = c.responses
	}
	return added, nil
}

func (e *Engine) findRelayLocked(spec *ChainSpec, candidates []core.ChainID) (*chain, error) {
	var found *chain
	for _, id := range candidates {
		c, ok := e.chains[id]
		if !ok || c.spec.ID != spec.RelayChain {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: relay chain %q is ambiguous", core.ErrInvalidChainSpec, spec.RelayChain)
		}
		found = c
	}
	if found == nil {
		return nil, fmt.Errorf("%w: relay chain %q not found", core.ErrInvalidChainSpec, spec.RelayChain)
	}
	return found, nil
}

// RemoveChain stops the chain and closes its response channel before
// returning.
func (e *Engine) RemoveChain(id core.ChainID) error {
	e.mu.Lock()
	c, ok := e.chains[id]
	if ok {
		delete(e.chains, id)
	}
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("remove chain %d: %w", id, core.ErrUnknownChain)
	}

	dropped := c.pending()
	c.stop()
	e.logger.Debug("chain removed", "chain_id", id, "dropped_requests", dropped)
	return nil
}

// JSONRPCRequest validates the request and queues it on the chain's worker.
func (e *Engine) JSONRPCRequest(request string, id core.ChainID) error {
	e.mu.RLock()
	c, ok := e.chains[id]
	e.mu.RUnlock()

	if !ok {
		return fmt.Errorf("json-rpc request to chain %d: %w", id, core.ErrUnknownChain)
	}
	return c.submit(request)
}

// Close removes every chain, ending all response channels. Later calls to
// AddChain fail with core.ErrEngineClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	chains := e.chains
	e.chains = make(map[core.ChainID]*chain)
	e.mu.Unlock()

	for _, c := range chains {
		c.stop()
	}
	e.logger.Info("engine closed", "chains", len(chains))
	return nil
}

// newPeerID renders a random ed25519 identity as a libp2p peer id: the
// protobuf-encoded public key wrapped in an identity multihash, base58.
func newPeerID() string {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("engine: read random peer key: %v", err))
	}
	raw := append([]byte{0x00, 0x24, 0x08, 0x01, 0x12, 0x20}, key...)
	return base58.Encode(raw)
}
