package engine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/finsig/smolder-c-ffi/core"
	"github.com/finsig/smolder-c-ffi/internal/testutil"
	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func recv(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case out, ok := <-ch:
		require.True(t, ok, "response channel closed")
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for response")
		return ""
	}
}

func addChain(t *testing.T, e *Engine, spec string) core.AddChainSuccess {
	t.Helper()
	added, err := e.AddChain(core.AddChainConfig{Specification: spec, JSONRPC: core.UnboundedJSONRPC})
	require.NoError(t, err)
	return added
}

func TestEngine_New_Defaults(t *testing.T) {
	e := New()
	defer e.Close()

	assert.Equal(t, DefaultConfig, e.config)
	assert.True(t, strings.HasPrefix(e.PeerID(), "12D3KooW"), e.PeerID())
}

func TestEngine_ChainIDsAreMonotonic(t *testing.T) {
	e := New()
	defer e.Close()

	a := addChain(t, e, testutil.NewChainSpecBuilder("a").Build())
	b := addChain(t, e, testutil.NewChainSpecBuilder("b").Build())
	require.NoError(t, e.RemoveChain(b.ChainID))
	c := addChain(t, e, testutil.NewChainSpecBuilder("c").Build())

	assert.Equal(t, core.ChainID(0), a.ChainID)
	assert.Equal(t, core.ChainID(1), b.ChainID)
	assert.Equal(t, core.ChainID(2), c.ChainID)
}

func TestEngine_AddChain_InvalidSpec(t *testing.T) {
	e := New()
	defer e.Close()

	_, err := e.AddChain(core.AddChainConfig{Specification: "{", JSONRPC: core.UnboundedJSONRPC})
	assert.True(t, errors.Is(err, core.ErrInvalidChainSpec))
	assert.True(t, core.IsRejection(err))
}

func TestEngine_Parachain(t *testing.T) {
	e := New()
	defer e.Close()

	relay := addChain(t, e, testutil.NewChainSpecBuilder("rococo").Build())
	para := testutil.NewChainSpecBuilder("contracts").Parachain("rococo", 1002).Build()

	_, err := e.AddChain(core.AddChainConfig{Specification: para, JSONRPC: core.UnboundedJSONRPC})
	assert.True(t, errors.Is(err, core.ErrInvalidChainSpec), "relay not offered")

	added, err := e.AddChain(core.AddChainConfig{
		Specification:        para,
		PotentialRelayChains: []core.ChainID{relay.ChainID},
		JSONRPC:              core.UnboundedJSONRPC,
	})
	require.NoError(t, err)
	assert.Equal(t, core.ChainID(1), added.ChainID)
}

func TestEngine_Parachain_AmbiguousRelay(t *testing.T) {
	e := New()
	defer e.Close()

	r1 := addChain(t, e, testutil.NewChainSpecBuilder("rococo").Build())
	r2 := addChain(t, e, testutil.NewChainSpecBuilder("rococo").Build())
	para := testutil.NewChainSpecBuilder("contracts").Parachain("rococo", 1002).Build()

	_, err := e.AddChain(core.AddChainConfig{
		Specification:        para,
		PotentialRelayChains: []core.ChainID{r1.ChainID, r2.ChainID},
		JSONRPC:              core.UnboundedJSONRPC,
	})
	assert.True(t, errors.Is(err, core.ErrInvalidChainSpec))
}

func TestEngine_RequestResponse(t *testing.T) {
	e := New(func(o *Options) {
		o.Config.ClientName = "wallet"
		o.Config.ClientVersion = "9.9.9"
		o.PeerID = "12D3KooWtest"
	})
	defer e.Close()

	added := addChain(t, e, testutil.NewChainSpecBuilder("westend2").Name("Westend").Property("tokenSymbol", "WND").Build())

	cases := []struct {
		method string
		result string
	}{
		{"system_name", `"wallet"`},
		{"system_version", `"9.9.9"`},
		{"system_chain", `"Westend"`},
		{"system_chainType", `"Live"`},
		{"system_properties", `{"tokenSymbol":"WND"}`},
		{"system_localPeerId", `"12D3KooWtest"`},
		{"chainSpec_v1_chainName", `"Westend"`},
		{"chainSpec_v1_properties", `{"tokenSymbol":"WND"}`},
	}

	for i, tc := range cases {
		req := testutil.NewRequestBuilder(tc.method).ID(i).Build()
		require.NoError(t, e.JSONRPCRequest(req, added.ChainID))

		out := recv(t, added.Responses)
		assert.Equal(t, int64(i), gjson.Get(out, "id").Int(), tc.method)
		assert.JSONEq(t, tc.result, gjson.Get(out, "result").Raw, tc.method)
	}
}

func TestEngine_ResponsesKeepSubmissionOrder(t *testing.T) {
	e := New()
	defer e.Close()

	added := addChain(t, e, testutil.NewChainSpecBuilder("dev").Build())
	for i := 0; i < 20; i++ {
		require.NoError(t, e.JSONRPCRequest(testutil.NewRequestBuilder("system_chain").ID(i).Build(), added.ChainID))
	}
	for i := 0; i < 20; i++ {
		assert.Equal(t, int64(i), gjson.Get(recv(t, added.Responses), "id").Int())
	}
}

func TestEngine_GenesisHash(t *testing.T) {
	e := New()
	defer e.Close()

	text := testutil.NewChainSpecBuilder("dev").Build()
	spec, err := ParseChainSpec(text)
	require.NoError(t, err)

	added := addChain(t, e, text)
	require.NoError(t, e.JSONRPCRequest(testutil.NewRequestBuilder("chainSpec_v1_genesisHash").Build(), added.ChainID))
	assert.Equal(t, spec.GenesisHash, gjson.Get(recv(t, added.Responses), "result").String())
}

func TestEngine_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	e := New()
	defer e.Close()

	added := addChain(t, e, testutil.NewChainSpecBuilder("polkadot").BootNode("/dns/example.com/tcp/443/wss").Build())

	cases := []struct {
		name    string
		request string
	}{
		{"system_health", testutil.NewRequestBuilder("system_health").ID(1).Build()},
		{"method_not_found", testutil.NewRequestBuilder("author_submitExtrinsic").ID("abc").Param("0x00").Build()},
		{"rpc_methods", testutil.NewRequestBuilder("rpc_methods").ID(3).Build()},
		{"unfollow_ack", `{"jsonrpc":"2.0","id":4,"method":"chainHead_v1_unfollow","params":["missing"]}`},
	}

	for _, tc := range cases {
		require.NoError(t, e.JSONRPCRequest(tc.request, added.ChainID))
		g.Assert(t, tc.name, []byte(recv(t, added.Responses)))
	}
}

func TestEngine_Follow(t *testing.T) {
	e := New()
	defer e.Close()

	text := testutil.NewChainSpecBuilder("dev").Build()
	spec, err := ParseChainSpec(text)
	require.NoError(t, err)

	added, err := e.AddChain(core.AddChainConfig{
		Specification: text,
		JSONRPC:       core.JSONRPCConfig{MaxPendingRequests: 16, MaxSubscriptions: 1},
	})
	require.NoError(t, err)

	require.NoError(t, e.JSONRPCRequest(testutil.NewRequestBuilder("chainHead_v1_follow").ID(1).Param(false).Build(), added.ChainID))
	subID := gjson.Get(recv(t, added.Responses), "result").String()
	_, err = uuid.Parse(subID)
	require.NoError(t, err)

	event := recv(t, added.Responses)
	assert.Equal(t, "chainHead_v1_followEvent", gjson.Get(event, "method").String())
	assert.False(t, gjson.Get(event, "id").Exists())
	assert.Equal(t, subID, gjson.Get(event, "params.subscription").String())
	assert.Equal(t, "initialized", gjson.Get(event, "params.result.event").String())
	assert.Equal(t, spec.GenesisHash, gjson.Get(event, "params.result.finalizedBlockHashes.0").String())

	// Second subscription exceeds the limit.
	require.NoError(t, e.JSONRPCRequest(testutil.NewRequestBuilder("chainHead_v1_follow").ID(2).Param(false).Build(), added.ChainID))
	denied := recv(t, added.Responses)
	assert.Equal(t, int64(CodeTooManySubscriptions), gjson.Get(denied, "error.code").Int())

	require.NoError(t, e.JSONRPCRequest(testutil.NewRequestBuilder("chainHead_v1_unfollow").ID(3).Param(subID).Build(), added.ChainID))
	assert.Equal(t, "null", gjson.Get(recv(t, added.Responses), "result").Raw)

	require.NoError(t, e.JSONRPCRequest(testutil.NewRequestBuilder("chainHead_v1_follow").ID(4).Param(false).Build(), added.ChainID))
	assert.True(t, gjson.Get(recv(t, added.Responses), "result").Exists())
}

func TestEngine_Unfollow_InvalidParams(t *testing.T) {
	e := New()
	defer e.Close()

	added := addChain(t, e, testutil.NewChainSpecBuilder("dev").Build())
	require.NoError(t, e.JSONRPCRequest(testutil.NewRequestBuilder("chainHead_v1_unfollow").Param(5).Build(), added.ChainID))
	assert.Equal(t, int64(CodeInvalidParams), gjson.Get(recv(t, added.Responses), "error.code").Int())
}

func TestEngine_MalformedRequest(t *testing.T) {
	e := New()
	defer e.Close()

	added := addChain(t, e, testutil.NewChainSpecBuilder("dev").Build())

	cases := map[string]string{
		"not json":       `{"jsonrpc":`,
		"array":          `[]`,
		"wrong version":  `{"jsonrpc":"1.0","id":1,"method":"system_name"}`,
		"numeric method": `{"jsonrpc":"2.0","id":1,"method":5}`,
		"missing id":     `{"jsonrpc":"2.0","method":"system_name"}`,
		"object id":      `{"jsonrpc":"2.0","id":{},"method":"system_name"}`,
		"scalar params":  `{"jsonrpc":"2.0","id":1,"method":"system_name","params":3}`,
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			err := e.JSONRPCRequest(req, added.ChainID)
			assert.True(t, errors.Is(err, core.ErrMalformedRequest), "got %v", err)
		})
	}

	select {
	case out := <-added.Responses:
		t.Fatalf("unexpected response %s", out)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEngine_PendingQuota(t *testing.T) {
	e := New()
	defer e.Close()

	added, err := e.AddChain(core.AddChainConfig{
		Specification: testutil.NewChainSpecBuilder("dev").Build(),
		JSONRPC:       core.JSONRPCConfig{MaxPendingRequests: 0, MaxSubscriptions: 1},
	})
	require.NoError(t, err)

	err = e.JSONRPCRequest(testutil.NewRequestBuilder("system_name").Build(), added.ChainID)
	assert.True(t, errors.Is(err, core.ErrQuotaExceeded))
	assert.True(t, core.IsRejection(err))
}

func TestEngine_RateLimit(t *testing.T) {
	e := New(func(o *Options) {
		o.Config.RequestsPerSecond = 0.001
		o.Config.RequestBurst = 1
	})
	defer e.Close()

	added := addChain(t, e, testutil.NewChainSpecBuilder("dev").Build())
	req := testutil.NewRequestBuilder("system_name").Build()

	require.NoError(t, e.JSONRPCRequest(req, added.ChainID))
	assert.True(t, errors.Is(e.JSONRPCRequest(req, added.ChainID), core.ErrQuotaExceeded))
}

func TestEngine_JSONRPCDisabled(t *testing.T) {
	e := New()
	defer e.Close()

	added, err := e.AddChain(core.AddChainConfig{
		Specification: testutil.NewChainSpecBuilder("dev").Build(),
		JSONRPC:       core.JSONRPCConfig{Disabled: true},
	})
	require.NoError(t, err)
	assert.Nil(t, added.Responses)

	err = e.JSONRPCRequest(testutil.NewRequestBuilder("system_name").Build(), added.ChainID)
	assert.True(t, errors.Is(err, core.ErrJSONRPCDisabled))
	require.NoError(t, e.RemoveChain(added.ChainID))
}

func TestEngine_RemoveChain(t *testing.T) {
	e := New()
	defer e.Close()

	added := addChain(t, e, testutil.NewChainSpecBuilder("dev").Build())
	require.NoError(t, e.RemoveChain(added.ChainID))

	_, ok := <-added.Responses
	assert.False(t, ok, "responses closed after removal")

	assert.True(t, errors.Is(e.RemoveChain(added.ChainID), core.ErrUnknownChain))
	err := e.JSONRPCRequest(testutil.NewRequestBuilder("system_name").Build(), added.ChainID)
	assert.True(t, errors.Is(err, core.ErrUnknownChain))
	assert.False(t, core.IsRejection(err))
}

func TestEngine_RemoveChain_WithUnreadResponses(t *testing.T) {
	e := New(func(o *Options) { o.Config.ResponseBufferSize = 0 })
	defer e.Close()

	added := addChain(t, e, testutil.NewChainSpecBuilder("dev").Build())
	for i := 0; i < 5; i++ {
		require.NoError(t, e.JSONRPCRequest(testutil.NewRequestBuilder("system_name").ID(i).Build(), added.ChainID))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, e.RemoveChain(added.ChainID))
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RemoveChain blocked on an unread response")
	}
	for range added.Responses {
	}
}

func TestEngine_Close(t *testing.T) {
	e := New()

	a := addChain(t, e, testutil.NewChainSpecBuilder("a").Build())
	b := addChain(t, e, testutil.NewChainSpecBuilder("b").Build())

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	for _, ch := range []<-chan string{a.Responses, b.Responses} {
		_, ok := <-ch
		assert.False(t, ok)
	}

	_, err := e.AddChain(core.AddChainConfig{Specification: testutil.NewChainSpecBuilder("c").Build()})
	assert.True(t, errors.Is(err, core.ErrEngineClosed))
}

func TestMethodNames(t *testing.T) {
	names := MethodNames()
	assert.Contains(t, names, "system_health")
	assert.Contains(t, names, "chainHead_v1_follow")
	assert.IsIncreasing(t, names)
}
