// Package registry maps chain handles to response sessions on top of a
// core.Engine. It is the state behind the C surface: every exported C entry
// point resolves to one Registry method.
//
// Two locks are involved. Registry.mu guards the handle map and is held only
// while the map is read or changed. Each session serializes its own waiters,
// so a caller blocked on one chain never delays callers on another chain or
// registry mutations.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/finsig/smolder-c-ffi/core"
	"github.com/finsig/smolder-c-ffi/logging"
	"github.com/finsig/smolder-c-ffi/session"
)

// Options configures a Registry.
type Options struct {
	// Logger defaults to logging.NoOpLogger.
	Logger logging.Logger

	// Metrics is optional; nil records nothing.
	Metrics *Metrics
}

// Registry tracks the chains registered through it.
type Registry struct {
	engine  core.Engine
	logger  logging.Logger
	metrics *Metrics

	mu       sync.Mutex
	sessions map[core.ChainID]*session.Session
}

// New creates an empty Registry in front of engine.
func New(engine core.Engine, optFns ...func(o *Options)) *Registry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Registry{
		engine:   engine,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		sessions: make(map[core.ChainID]*session.Session),
	}
}

// AddChain registers a chain from its specification text. Every chain
// already registered is offered to the engine as a potential relay chain.
func (r *Registry) AddChain(spec string) (core.ChainID, error) {
	if !utf8.ValidString(spec) {
		return 0, fmt.Errorf("add chain: %w", ErrInvalidText)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	added, err := r.engine.AddChain(core.AddChainConfig{
		Specification:        spec,
		DatabaseContent:      "",
		PotentialRelayChains: r.chainIDsLocked(),
		JSONRPC:              core.UnboundedJSONRPC,
	})
	if err != nil {
		r.metrics.chainRejected()
		r.logger.Warn("chain rejected", "error", err)
		return 0, &EngineRejection{Op: "add chain", Err: err}
	}

	if _, exists := r.sessions[added.ChainID]; exists {
		panic(fmt.Sprintf("registry: engine returned live chain id %d", added.ChainID))
	}
	r.sessions[added.ChainID] = session.New(added.ChainID, added.Responses)
	r.metrics.chainAdded()
	r.logger.Debug("chain added", "chain_id", added.ChainID, "chains", len(r.sessions))

	return added.ChainID, nil
}

// RemoveChain unregisters id and tears the chain down in the engine. A caller
// blocked in PollNext on id is released with the end of the stream.
func (r *Registry) RemoveChain(id core.ChainID) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("remove chain %d: %w", id, ErrUnknownChain)
	}

	s.MarkRemoved()
	if err := r.engine.RemoveChain(id); err != nil {
		r.logger.Error("engine failed to remove chain", "chain_id", id, "error", err)
	}
	r.metrics.chainRemoved()
	r.logger.Debug("chain removed", "chain_id", id, "waiters", s.Waiting())
	return nil
}

// SubmitRequest forwards a JSON-RPC request to the chain. The text is not
// inspected beyond its encoding.
func (r *Registry) SubmitRequest(id core.ChainID, request string) error {
	if !utf8.ValidString(request) {
		r.metrics.request(resultInvalidText)
		return fmt.Errorf("json-rpc request: %w", ErrInvalidText)
	}

	if _, ok := r.lookup(id); !ok {
		r.metrics.request(resultUnknownChain)
		return fmt.Errorf("json-rpc request to chain %d: %w", id, ErrUnknownChain)
	}

	if err := r.engine.JSONRPCRequest(request, id); err != nil {
		// The chain can disappear between the lookup and the engine call.
		if errors.Is(err, core.ErrUnknownChain) {
			r.metrics.request(resultUnknownChain)
			return fmt.Errorf("json-rpc request to chain %d: %w", id, ErrUnknownChain)
		}
		r.metrics.request(resultRejected)
		r.logger.Debug("request rejected", "chain_id", id, "error", err)
		return &EngineRejection{Op: "json-rpc request", Err: err}
	}
	r.metrics.request(resultAccepted)
	return nil
}

// PollNext blocks until the chain's next response is available. ok is false
// once the stream has ended, which happens when the chain is removed.
func (r *Registry) PollNext(ctx context.Context, id core.ChainID) (response string, ok bool, err error) {
	s, found := r.lookup(id)
	if !found {
		return "", false, fmt.Errorf("poll chain %d: %w", id, ErrUnknownChain)
	}

	done := r.metrics.pollStarted()
	response, ok, err = s.Next(ctx)
	done(ok, err)
	return response, ok, err
}

// IsValid reports whether id is registered.
func (r *Registry) IsValid(id core.ChainID) bool {
	_, ok := r.lookup(id)
	return ok
}

// Waiters returns the number of callers blocked in PollNext on id.
func (r *Registry) Waiters(id core.ChainID) int {
	s, ok := r.lookup(id)
	if !ok {
		return 0
	}
	return s.Waiting()
}

// ChainIDs returns the registered handles in ascending order.
func (r *Registry) ChainIDs() []core.ChainID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chainIDsLocked()
}

// Len returns the number of registered chains.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) lookup(id core.ChainID) (*session.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) chainIDsLocked() []core.ChainID {
	ids := make([]core.ChainID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
