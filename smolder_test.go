package smolder

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/finsig/smolder-c-ffi/config"
	"github.com/finsig/smolder-c-ffi/internal/testutil"
	"github.com/finsig/smolder-c-ffi/logging"
	"github.com/finsig/smolder-c-ffi/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestNew_ReferenceEngine(t *testing.T) {
	c := New(func(o *Options) {
		o.Config.Engine.ClientVersion = "2.0.0"
	})
	defer c.Close()

	id, err := c.Registry().AddChain(testutil.NewChainSpecBuilder("dev").Build())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := c.Call(ctx, id, testutil.NewRequestBuilder("system_version").Build())
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", gjson.Get(resp, "result").String())
	assert.NotNil(t, c.Metrics())
}

func TestNew_CustomEngine(t *testing.T) {
	eng := testutil.NewEchoEngine()
	c := New(func(o *Options) {
		o.Engine = eng
		o.Config.Metrics.Enabled = false
	})

	assert.Same(t, eng, c.Engine())
	assert.Nil(t, c.Metrics())

	id, err := c.Registry().AddChain(`{}`)
	require.NoError(t, err)

	resp, err := c.Call(context.Background(), id, `{"echo":true}`)
	require.NoError(t, err)
	assert.Equal(t, `{"echo":true}`, resp)

	require.NoError(t, c.Close())
	assert.Equal(t, 0, c.Registry().Len())
}

func TestNew_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(func(o *Options) {
		o.Engine = testutil.NewEchoEngine()
		o.Registerer = reg
		o.Config.Metrics.Namespace = "unit"
	})

	_, err := c.Registry().AddChain(`{}`)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "unit_registry_chains_added_total")
}

func TestCall_StreamEnded(t *testing.T) {
	eng := testutil.NewEchoEngine()
	c := New(func(o *Options) { o.Engine = eng })

	id, err := c.Registry().AddChain(`{}`)
	require.NoError(t, err)

	// The engine drops the chain behind the registry's back.
	require.NoError(t, eng.RemoveChain(id))
	_, ok, err := c.Registry().PollNext(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Call(context.Background(), id, `{}`)
	assert.ErrorIs(t, err, registry.ErrUnknownChain)
}

func TestEngineConfig(t *testing.T) {
	cfg := config.Default().Engine
	cfg.RequestsPerSecond = 5
	cfg.RequestBurst = 10

	got := EngineConfig(cfg)
	assert.Equal(t, cfg.ClientName, got.ClientName)
	assert.Equal(t, cfg.ClientVersion, got.ClientVersion)
	assert.Equal(t, cfg.ResponseBuffer, got.ResponseBufferSize)
	assert.Equal(t, 5.0, got.RequestsPerSecond)
	assert.Equal(t, 10, got.RequestBurst)
}

func TestGlobal_ConcurrentFirstCallers(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")

	const callers = 32
	var (
		start sync.WaitGroup
		done  sync.WaitGroup
		got   [callers]*Client
	)
	start.Add(1)
	for i := 0; i < callers; i++ {
		done.Add(1)
		go func(i int) {
			defer done.Done()
			start.Wait()
			got[i] = Global()
		}(i)
	}
	start.Done()
	done.Wait()

	require.NotNil(t, got[0])
	for i := 1; i < callers; i++ {
		assert.Same(t, got[0], got[i])
	}
	assert.Same(t, got[0], Global())
	assert.NotNil(t, got[0].Registry())
}

func TestCall_SkipsUnmatchedItems(t *testing.T) {
	c := New(func(o *Options) {
		o.Logs = &logging.Singleton{}
	})
	defer c.Close()

	id, err := c.Registry().AddChain(testutil.NewChainSpecBuilder("westend2").Name("Westend").Build())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var unmatched []string
	collect := func(o *CallOptions) {
		o.Unmatched = func(item string) { unmatched = append(unmatched, item) }
	}

	resp, err := c.Call(ctx, id, testutil.NewRequestBuilder("chainHead_v1_follow").ID(1).Build(), collect)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gjson.Get(resp, "id").Int())
	subID := gjson.Get(resp, "result").String()
	require.NotEmpty(t, subID)

	resp, err = c.Call(ctx, id, testutil.NewRequestBuilder("system_chain").ID(2).Build(), collect)
	require.NoError(t, err)
	assert.Equal(t, int64(2), gjson.Get(resp, "id").Int())
	assert.Equal(t, "Westend", gjson.Get(resp, "result").String())

	require.Len(t, unmatched, 1)
	assert.Equal(t, "chainHead_v1_followEvent", gjson.Get(unmatched[0], "method").String())
	assert.Equal(t, subID, gjson.Get(unmatched[0], "params.subscription").String())
}

func TestCall_DropsStaleResponses(t *testing.T) {
	eng := testutil.NewEchoEngine()
	c := New(func(o *Options) { o.Engine = eng })

	id, err := c.Registry().AddChain(`{}`)
	require.NoError(t, err)

	stale := `{"jsonrpc":"2.0","id":"late","result":null}`
	require.NoError(t, eng.Emit(id, stale))

	req := testutil.NewRequestBuilder("system_name").ID("now").Build()
	resp, err := c.Call(context.Background(), id, req)
	require.NoError(t, err)
	assert.Equal(t, req, resp)
}

func TestNew_Logger(t *testing.T) {
	var out bytes.Buffer
	filter, err := logging.ParseFilter("debug")
	require.NoError(t, err)
	cfg := logging.DefaultLoggerConfig()
	cfg.Output = &out
	cfg.Filter = filter

	logs := &logging.Singleton{}
	c := New(func(o *Options) {
		o.Engine = testutil.NewEchoEngine()
		o.Logs = logs
		o.Logger = logging.NewLogger(cfg)
	})

	_, err = c.Registry().AddChain(`{}`)
	require.NoError(t, err)

	assert.False(t, logs.Initialized())
	assert.Contains(t, out.String(), "chain added")
	assert.Contains(t, out.String(), "component=registry")
}

func TestLoadGlobalConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smoldot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: ["), 0o600))
	t.Setenv(config.EnvConfigPath, path)

	t.Run("before logging is initialized", func(t *testing.T) {
		var fallback bytes.Buffer
		cfg := loadGlobalConfig(&logging.Singleton{}, &fallback)
		assert.Equal(t, config.Default(), cfg)
		assert.Contains(t, fallback.String(), "configuration rejected, using defaults")
		assert.Contains(t, fallback.String(), "component=smolder")
	})

	t.Run("after logging is initialized", func(t *testing.T) {
		var fallback, out bytes.Buffer
		logs := &logging.Singleton{}
		require.NoError(t, logs.Init("error", func(o *logging.LoggerConfig) { o.Output = &out }))

		cfg := loadGlobalConfig(logs, &fallback)
		assert.Equal(t, config.Default(), cfg)
		assert.Empty(t, fallback.String())
		assert.Contains(t, out.String(), "configuration rejected, using defaults")
	})

	t.Run("valid configuration", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("engine:\n  clientName: wallet\n"), 0o600))
		var fallback bytes.Buffer
		cfg := loadGlobalConfig(&logging.Singleton{}, &fallback)
		assert.Equal(t, "wallet", cfg.Engine.ClientName)
		assert.Empty(t, fallback.String())
	})
}
