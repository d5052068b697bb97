// Package smolder wires the bridge together: configuration, the logger
// singleton, an engine and the chain registry. Most programs use Global, the
// lazily built process instance that backs the C entry points; tests and
// tools build their own Client with New.
//
//	c := smolder.New()
//	defer c.Close()
//
//	id, err := c.Registry().AddChain(specJSON)
//	if err != nil {
//	    return err
//	}
//	resp, err := c.Call(ctx, id, `{"jsonrpc":"2.0","id":1,"method":"system_health"}`)
package smolder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/finsig/smolder-c-ffi/config"
	"github.com/finsig/smolder-c-ffi/core"
	"github.com/finsig/smolder-c-ffi/engine"
	"github.com/finsig/smolder-c-ffi/logging"
	"github.com/finsig/smolder-c-ffi/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tidwall/gjson"
)

// Options configures a Client.
type Options struct {
	// Config defaults to config.Default().
	Config config.Config

	// Engine overrides the reference engine built from Config.Engine.
	Engine core.Engine

	// Registerer receives the registry metrics when Config.Metrics.Enabled.
	// When nil the metrics are collected but not registered anywhere.
	Registerer prometheus.Registerer

	// Logs is the logger singleton InitLogging configures. Defaults to
	// logging.Default().
	Logs *logging.Singleton

	// Logger, when set, receives component logs directly instead of the
	// singleton.
	Logger *slog.Logger
}

func (o *Options) componentLogger(name string) logging.Logger {
	if o.Logger != nil {
		return logging.NewSlogAdapter(o.Logger, name)
	}
	return logging.Component(name)
}

// Client is the façade aggregating the engine and the registry.
type Client struct {
	config   config.Config
	engine   core.Engine
	registry *registry.Registry
	metrics  *registry.Metrics
	logs     *logging.Singleton
}

// New creates a Client. Unless Options.Logger is set, components log through
// logging.Component and stay silent until the logger singleton is
// initialized.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{Config: config.Default(), Logs: logging.Default()}
	for _, fn := range optFns {
		fn(&opts)
	}

	eng := opts.Engine
	if eng == nil {
		eng = engine.New(func(o *engine.Options) {
			o.Config = EngineConfig(opts.Config.Engine)
			o.Logger = opts.componentLogger("engine")
		})
	}

	var metrics *registry.Metrics
	if opts.Config.Metrics.Enabled {
		metrics = registry.NewMetrics(opts.Registerer, opts.Config.Metrics.Namespace)
	}

	reg := registry.New(eng, func(o *registry.Options) {
		o.Logger = opts.componentLogger("registry")
		o.Metrics = metrics
	})

	if opts.Logs == nil {
		opts.Logs = logging.Default()
	}

	return &Client{
		config:   opts.Config,
		engine:   eng,
		registry: reg,
		metrics:  metrics,
		logs:     opts.Logs,
	}
}

// EngineConfig maps the file and environment configuration onto the
// reference engine's tuning parameters.
func EngineConfig(c config.EngineConfig) engine.Config {
	return engine.Config{
		ClientName:         c.ClientName,
		ClientVersion:      c.ClientVersion,
		ResponseBufferSize: c.ResponseBuffer,
		RequestsPerSecond:  c.RequestsPerSecond,
		RequestBurst:       c.RequestBurst,
	}
}

// Config returns the configuration the client was built with.
func (c *Client) Config() config.Config { return c.config }

// Engine returns the engine behind the registry.
func (c *Client) Engine() core.Engine { return c.engine }

// Registry returns the chain registry.
func (c *Client) Registry() *registry.Registry { return c.registry }

// Metrics returns the registry metrics, or nil when disabled.
func (c *Client) Metrics() *registry.Metrics { return c.metrics }

// InitLogging installs the logger with the configured format and output.
// Only the first call on the singleton has any effect.
func (c *Client) InitLogging(level string) error {
	return c.logs.Init(level, func(o *logging.LoggerConfig) {
		o.Format = c.config.Logging.Format
		o.Output = c.config.Logging.Writer()
	})
}

// CallOptions configures Call.
type CallOptions struct {
	// Unmatched receives stream items that are not the response to the
	// request, such as subscription notifications or responses whose caller
	// gave up. Nil drops them.
	Unmatched func(item string)
}

// Call submits request to chain id and waits for the response carrying the
// same id. It is meant for callers that keep one request in flight per
// chain.
func (c *Client) Call(ctx context.Context, id core.ChainID, request string, optFns ...func(o *CallOptions)) (string, error) {
	var opts CallOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	want := gjson.Get(request, "id").Raw
	if err := c.registry.SubmitRequest(id, request); err != nil {
		return "", err
	}
	for {
		item, ok, err := c.registry.PollNext(ctx, id)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("chain %d: response stream ended", id)
		}
		if gjson.Get(item, "id").Raw == want {
			return item, nil
		}
		if opts.Unmatched != nil {
			opts.Unmatched(item)
		}
	}
}

// Close removes every registered chain and shuts the engine down when it
// supports it.
func (c *Client) Close() error {
	for _, id := range c.registry.ChainIDs() {
		_ = c.registry.RemoveChain(id)
	}
	if closer, ok := c.engine.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

var (
	globalOnce sync.Once
	global     *Client
)

// Global returns the process-wide Client, building it on first use from
// config.LoadFromEnv. A configuration error falls back to the defaults. The
// instance is never torn down.
func Global() *Client {
	globalOnce.Do(func() {
		cfg := loadGlobalConfig(logging.Default(), os.Stderr)
		global = New(func(o *Options) {
			o.Config = cfg
			o.Registerer = prometheus.DefaultRegisterer
		})
	})
	return global
}

// loadGlobalConfig reports a rejected configuration through logs when it is
// initialized and to w otherwise. Global usually runs before the host has
// called smoldot_env_logger.
func loadGlobalConfig(logs *logging.Singleton, w io.Writer) config.Config {
	cfg, err := config.LoadFromEnv()
	if err == nil {
		return cfg
	}

	log := logs.Component("smolder")
	if !logs.Initialized() {
		fallback := logging.DefaultLoggerConfig()
		fallback.Output = w
		log = logging.NewSlogAdapter(logging.NewLogger(fallback), "smolder")
	}
	log.Error("configuration rejected, using defaults", "error", err)
	return config.Default()
}
