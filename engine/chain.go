package engine

import (
	"fmt"
	"sync"

	"github.com/finsig/smolder-c-ffi/core"
	"github.com/finsig/smolder-c-ffi/logging"
	"golang.org/x/time/rate"
)

// chain is one registered chain and its JSON-RPC worker.
//
// Requests are queued by submit and answered by run in submission order.
// Responses leave through a buffered channel that run closes on exit.
type chain struct {
	id      core.ChainID
	spec    *ChainSpec
	jsonrpc core.JSONRPCConfig
	host    *Engine
	logger  logging.Logger
	limiter *rate.Limiter

	mu            sync.Mutex
	queue         []request
	subscriptions map[string]struct{}

	wake      chan struct{}
	responses chan string
	done      chan struct{}
	stopped   chan struct{}
	stopOnce  sync.Once
}

func newChain(id core.ChainID, spec *ChainSpec, cfg core.JSONRPCConfig, host *Engine) *chain {
	c := &chain{
		id:            id,
		spec:          spec,
		jsonrpc:       cfg,
		host:          host,
		logger:        host.logger,
		subscriptions: make(map[string]struct{}),
		wake:          make(chan struct{}, 1),
		responses:     make(chan string, host.config.ResponseBufferSize),
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	if rps := host.config.RequestsPerSecond; rps > 0 {
		burst := host.config.RequestBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return c
}

// submit validates raw and queues it for the worker.
func (c *chain) submit(raw string) error {
	if c.jsonrpc.Disabled {
		return fmt.Errorf("chain %d: %w", c.id, core.ErrJSONRPCDisabled)
	}

	req, err := parseRequest(raw)
	if err != nil {
		return err
	}

	if c.limiter != nil && !c.limiter.Allow() {
		return fmt.Errorf("chain %d: %w: rate limit", c.id, core.ErrQuotaExceeded)
	}

	c.mu.Lock()
	select {
	case <-c.done:
		c.mu.Unlock()
		return fmt.Errorf("json-rpc request to chain %d: %w", c.id, core.ErrUnknownChain)
	default:
	}
	if uint64(len(c.queue)) >= uint64(c.jsonrpc.MaxPendingRequests) {
		c.mu.Unlock()
		return fmt.Errorf("chain %d: %w: %d requests pending", c.id, core.ErrQuotaExceeded, len(c.queue))
	}
	c.queue = append(c.queue, req)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return nil
}

// run answers queued requests until stop is called.
func (c *chain) run() {
	defer func() {
		close(c.responses)
		close(c.stopped)
	}()

	for {
		req, ok := c.next()
		if !ok {
			return
		}
		for _, out := range c.handle(req) {
			select {
			case c.responses <- out:
			case <-c.done:
				return
			}
		}
	}
}

func (c *chain) next() (request, bool) {
	for {
		c.mu.Lock()
		if len(c.queue) > 0 {
			req := c.queue[0]
			c.queue[0] = request{}
			c.queue = c.queue[1:]
			c.mu.Unlock()
			return req, true
		}
		c.mu.Unlock()

		select {
		case <-c.wake:
		case <-c.done:
			return request{}, false
		}
	}
}

// stop ends the worker and waits until the response channel is closed.
func (c *chain) stop() {
	c.stopOnce.Do(func() { close(c.done) })
	<-c.stopped
}

func (c *chain) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *chain) addSubscription(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if uint64(len(c.subscriptions)) >= uint64(c.jsonrpc.MaxSubscriptions) {
		return false
	}
	c.subscriptions[id] = struct{}{}
	return true
}

func (c *chain) removeSubscription(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subscriptions[id]; !ok {
		return false
	}
	delete(c.subscriptions, id)
	return true
}
