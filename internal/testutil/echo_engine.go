package testutil

import (
	"fmt"
	"sync"

	"github.com/finsig/smolder-c-ffi/core"
	"github.com/tidwall/gjson"
)

// EchoEngine is a core.Engine that answers every request with the request
// text itself. Specifications and requests that are not valid JSON are
// rejected. Each chain buffers up to Buffer responses; a full buffer rejects
// with core.ErrQuotaExceeded.
type EchoEngine struct {
	Buffer int

	mu      sync.Mutex
	nextID  core.ChainID
	chains  map[core.ChainID]chan string
	configs []core.AddChainConfig
}

var _ core.Engine = (*EchoEngine)(nil)

// NewEchoEngine returns an EchoEngine buffering 64 responses per chain.
func NewEchoEngine() *EchoEngine {
	return &EchoEngine{Buffer: 64, chains: make(map[core.ChainID]chan string)}
}

// AddChain registers a chain when the specification is valid JSON.
func (e *EchoEngine) AddChain(cfg core.AddChainConfig) (core.AddChainSuccess, error) {
	if !gjson.Valid(cfg.Specification) {
		return core.AddChainSuccess{}, fmt.Errorf("%w: not valid JSON", core.ErrInvalidChainSpec)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	ch := make(chan string, e.Buffer)
	e.chains[id] = ch
	e.configs = append(e.configs, cfg)
	return core.AddChainSuccess{ChainID: id, Responses: ch}, nil
}

// RemoveChain closes the chain's response channel.
func (e *EchoEngine) RemoveChain(id core.ChainID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch, ok := e.chains[id]
	if !ok {
		return core.ErrUnknownChain
	}
	delete(e.chains, id)
	close(ch)
	return nil
}

// JSONRPCRequest echoes request on the chain's response channel.
func (e *EchoEngine) JSONRPCRequest(request string, id core.ChainID) error {
	if !gjson.Valid(request) {
		return fmt.Errorf("%w: not valid JSON", core.ErrMalformedRequest)
	}
	return e.Emit(id, request)
}

// Emit queues an arbitrary response on the chain, bypassing validation.
func (e *EchoEngine) Emit(id core.ChainID, response string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch, ok := e.chains[id]
	if !ok {
		return core.ErrUnknownChain
	}
	select {
	case ch <- response:
		return nil
	default:
		return core.ErrQuotaExceeded
	}
}

// Configs returns the configurations passed to AddChain, in call order.
func (e *EchoEngine) Configs() []core.AddChainConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.AddChainConfig(nil), e.configs...)
}
