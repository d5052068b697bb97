package engine

import (
	"encoding/hex"
	"fmt"

	"github.com/finsig/smolder-c-ffi/core"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/blake2b"
)

// DefaultChainType is reported when a specification omits chainType.
const DefaultChainType = "Live"

// ChainSpec is the subset of a Substrate chain specification the engine reads.
type ChainSpec struct {
	Name       string
	ID         string
	ChainType  string
	ProtocolID string
	BootNodes  []ma.Multiaddr

	// Properties is the raw JSON object, "{}" when absent.
	Properties string

	// RelayChain is the relay chain's specification id; empty for relay
	// chains and standalone chains.
	RelayChain string
	ParaID     uint32

	// GenesisHash identifies the genesis section: "0x" followed by the hex
	// BLAKE2b-256 digest of its JSON text.
	GenesisHash string
}

// IsParachain reports whether the specification names a relay chain.
func (s *ChainSpec) IsParachain() bool {
	return s.RelayChain != ""
}

// ParseChainSpec validates a JSON chain specification. Every error wraps
// core.ErrInvalidChainSpec.
func ParseChainSpec(text string) (*ChainSpec, error) {
	if !gjson.Valid(text) {
		return nil, invalidSpec("not valid JSON")
	}
	root := gjson.Parse(text)
	if !root.IsObject() {
		return nil, invalidSpec("top level must be an object")
	}

	spec := &ChainSpec{
		ChainType:  DefaultChainType,
		Properties: "{}",
	}

	var err error
	if spec.Name, err = requiredString(root, "name"); err != nil {
		return nil, err
	}
	if spec.ID, err = requiredString(root, "id"); err != nil {
		return nil, err
	}

	if ct := root.Get("chainType"); ct.Exists() {
		switch {
		case ct.Type == gjson.String:
			spec.ChainType = ct.String()
		case ct.IsObject() && ct.Get("Custom").Type == gjson.String:
			spec.ChainType = ct.Get("Custom").String()
		default:
			return nil, invalidSpec("chainType must be a string")
		}
	}

	if pid := root.Get("protocolId"); pid.Exists() && pid.Type != gjson.Null {
		if pid.Type != gjson.String {
			return nil, invalidSpec("protocolId must be a string")
		}
		spec.ProtocolID = pid.String()
	}

	if spec.BootNodes, err = parseBootNodes(root.Get("bootNodes")); err != nil {
		return nil, err
	}

	if props := root.Get("properties"); props.Exists() && props.Type != gjson.Null {
		if !props.IsObject() {
			return nil, invalidSpec("properties must be an object")
		}
		spec.Properties = props.Raw
	}

	if err := parseRelay(root, spec); err != nil {
		return nil, err
	}

	genesis := root.Get("genesis")
	if !genesis.IsObject() {
		return nil, invalidSpec("missing genesis object")
	}
	if !genesis.Get("raw").IsObject() && genesis.Get("stateRootHash").Type != gjson.String {
		return nil, invalidSpec("genesis needs raw storage or stateRootHash")
	}
	digest := blake2b.Sum256([]byte(genesis.Raw))
	spec.GenesisHash = "0x" + hex.EncodeToString(digest[:])

	return spec, nil
}

func requiredString(root gjson.Result, key string) (string, error) {
	v := root.Get(key)
	if v.Type != gjson.String || v.String() == "" {
		return "", invalidSpec(fmt.Sprintf("%s must be a non-empty string", key))
	}
	return v.String(), nil
}

func parseBootNodes(nodes gjson.Result) ([]ma.Multiaddr, error) {
	if !nodes.Exists() || nodes.Type == gjson.Null {
		return nil, nil
	}
	if !nodes.IsArray() {
		return nil, invalidSpec("bootNodes must be an array")
	}
	var out []ma.Multiaddr
	for i, node := range nodes.Array() {
		if node.Type != gjson.String {
			return nil, invalidSpec(fmt.Sprintf("bootNodes[%d] must be a string", i))
		}
		addr, err := ma.NewMultiaddr(node.String())
		if err != nil {
			return nil, invalidSpec(fmt.Sprintf("bootNodes[%d]: %v", i, err))
		}
		out = append(out, addr)
	}
	return out, nil
}

func parseRelay(root gjson.Result, spec *ChainSpec) error {
	relay := firstOf(root, "relay_chain", "relayChain")
	para := firstOf(root, "para_id", "paraId")

	if !relay.Exists() && !para.Exists() {
		return nil
	}
	if relay.Type != gjson.String || relay.String() == "" {
		return invalidSpec("para_id requires relay_chain")
	}
	if para.Type != gjson.Number || para.Float() < 0 || para.Float() != float64(para.Uint()) || para.Uint() > 0xFFFFFFFF {
		return invalidSpec("relay_chain requires a numeric para_id")
	}
	spec.RelayChain = relay.String()
	spec.ParaID = uint32(para.Uint())
	return nil
}

func firstOf(root gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := root.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func invalidSpec(reason string) error {
	return fmt.Errorf("%w: %s", core.ErrInvalidChainSpec, reason)
}
