package testutil

import (
	"github.com/tidwall/sjson"
)

// ChainSpecBuilder helps construct chain specification JSON with fluent
// chaining for tests.
// Example:
//
//	spec := NewChainSpecBuilder("westend").BootNode("/dns/example.com/tcp/443/wss").Build()
type ChainSpecBuilder struct {
	json      string
	bootNodes []string
}

// NewChainSpecBuilder creates a builder for a relay chain whose name and id
// are both id, with a minimal raw genesis.
func NewChainSpecBuilder(id string) *ChainSpecBuilder {
	b := &ChainSpecBuilder{json: `{}`}
	return b.Name(id).ID(id).RawGenesis(`{"top":{},"childrenDefault":{}}`)
}

// Name sets the human readable chain name (chainable).
func (b *ChainSpecBuilder) Name(name string) *ChainSpecBuilder {
	return b.set("name", name)
}

// ID sets the specification id (chainable).
func (b *ChainSpecBuilder) ID(id string) *ChainSpecBuilder {
	return b.set("id", id)
}

// ChainType sets chainType (chainable).
func (b *ChainSpecBuilder) ChainType(t string) *ChainSpecBuilder {
	return b.set("chainType", t)
}

// BootNode appends a boot node multiaddr (chainable).
func (b *ChainSpecBuilder) BootNode(addr string) *ChainSpecBuilder {
	b.bootNodes = append(b.bootNodes, addr)
	return b
}

// Property sets one entry of the properties object (chainable).
func (b *ChainSpecBuilder) Property(key string, val any) *ChainSpecBuilder {
	return b.set("properties."+key, val)
}

// Parachain marks the chain as a parachain of relay (chainable).
func (b *ChainSpecBuilder) Parachain(relay string, paraID uint32) *ChainSpecBuilder {
	return b.set("relay_chain", relay).set("para_id", paraID)
}

// RawGenesis replaces the genesis section with {"raw": raw} (chainable).
func (b *ChainSpecBuilder) RawGenesis(raw string) *ChainSpecBuilder {
	b.json, _ = sjson.SetRaw(b.json, "genesis", `{}`)
	b.json, _ = sjson.SetRaw(b.json, "genesis.raw", raw)
	return b
}

// Without deletes a top-level key, for building invalid specifications
// (chainable).
func (b *ChainSpecBuilder) Without(key string) *ChainSpecBuilder {
	b.json, _ = sjson.Delete(b.json, key)
	return b
}

// Build returns the specification JSON text.
func (b *ChainSpecBuilder) Build() string {
	if len(b.bootNodes) == 0 {
		return b.json
	}
	out, _ := sjson.Set(b.json, "bootNodes", b.bootNodes)
	return out
}

func (b *ChainSpecBuilder) set(path string, val any) *ChainSpecBuilder {
	b.json, _ = sjson.Set(b.json, path, val)
	return b
}
