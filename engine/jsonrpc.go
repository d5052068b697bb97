package engine

import (
	"fmt"
	"sort"

	"github.com/finsig/smolder-c-ffi/core"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// JSON-RPC error codes emitted by the engine.
const (
	CodeMethodNotFound       = -32601
	CodeInvalidParams        = -32602
	CodeTooManySubscriptions = -32800
)

// request is a validated JSON-RPC call. id keeps its raw JSON form so it is
// echoed back byte for byte.
type request struct {
	id     string
	method string
	params gjson.Result
}

func parseRequest(raw string) (request, error) {
	if !gjson.Valid(raw) {
		return request{}, malformed("not valid JSON")
	}
	root := gjson.Parse(raw)
	if !root.IsObject() {
		return request{}, malformed("not an object")
	}
	if v := root.Get("jsonrpc"); v.Type != gjson.String || v.String() != "2.0" {
		return request{}, malformed(`jsonrpc must be "2.0"`)
	}
	method := root.Get("method")
	if method.Type != gjson.String {
		return request{}, malformed("method must be a string")
	}
	id := root.Get("id")
	if id.Type != gjson.Number && id.Type != gjson.String {
		return request{}, malformed("id must be a number or a string")
	}
	params := root.Get("params")
	if params.Exists() && !params.IsArray() && !params.IsObject() {
		return request{}, malformed("params must be an array or an object")
	}
	return request{id: id.Raw, method: method.String(), params: params}, nil
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", core.ErrMalformedRequest, reason)
}

type methodFunc func(c *chain, req request) []string

var methods map[string]methodFunc

func init() {
	methods = map[string]methodFunc{
		"system_health": func(c *chain, req request) []string {
			health, _ := sjson.Set(`{"isSyncing":false,"peers":0}`, "shouldHavePeers", len(c.spec.BootNodes) > 0)
			return []string{respondRaw(req.id, health)}
		},
		"system_name": func(c *chain, req request) []string {
			return []string{respond(req.id, c.host.config.ClientName)}
		},
		"system_version": func(c *chain, req request) []string {
			return []string{respond(req.id, c.host.config.ClientVersion)}
		},
		"system_chain": func(c *chain, req request) []string {
			return []string{respond(req.id, c.spec.Name)}
		},
		"system_chainType": func(c *chain, req request) []string {
			return []string{respond(req.id, c.spec.ChainType)}
		},
		"system_properties": func(c *chain, req request) []string {
			return []string{respondRaw(req.id, c.spec.Properties)}
		},
		"system_localPeerId": func(c *chain, req request) []string {
			return []string{respond(req.id, c.host.peerID)}
		},
		"chainSpec_v1_chainName": func(c *chain, req request) []string {
			return []string{respond(req.id, c.spec.Name)}
		},
		"chainSpec_v1_genesisHash": func(c *chain, req request) []string {
			return []string{respond(req.id, c.spec.GenesisHash)}
		},
		"chainSpec_v1_properties": func(c *chain, req request) []string {
			return []string{respondRaw(req.id, c.spec.Properties)}
		},
		"rpc_methods": func(_ *chain, req request) []string {
			result, _ := sjson.Set(`{}`, "methods", MethodNames())
			return []string{respondRaw(req.id, result)}
		},
		"chainHead_v1_follow":   follow,
		"chainHead_v1_unfollow": unfollow,
	}
}

// MethodNames returns the supported JSON-RPC methods in sorted order.
func MethodNames() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// handle produces the responses and notifications for one request.
func (c *chain) handle(req request) []string {
	fn, ok := methods[req.method]
	if !ok {
		c.logger.Debug("unknown json-rpc method", "chain_id", c.id, "method", req.method)
		return []string{respondError(req.id, CodeMethodNotFound, "Method not found")}
	}
	return fn(c, req)
}

func follow(c *chain, req request) []string {
	subID := uuid.NewString()
	if !c.addSubscription(subID) {
		return []string{respondError(req.id, CodeTooManySubscriptions,
			"Maximum number of chainHead_v1_follow subscriptions reached")}
	}
	event, _ := sjson.Set(`{"jsonrpc":"2.0"}`, "method", "chainHead_v1_followEvent")
	event, _ = sjson.Set(event, "params.subscription", subID)
	event, _ = sjson.Set(event, "params.result.event", "initialized")
	event, _ = sjson.Set(event, "params.result.finalizedBlockHashes", []string{c.spec.GenesisHash})
	return []string{respond(req.id, subID), event}
}

func unfollow(c *chain, req request) []string {
	subID := req.params.Get("0")
	if req.params.IsObject() {
		subID = req.params.Get("followSubscription")
	}
	if subID.Type != gjson.String {
		return []string{respondError(req.id, CodeInvalidParams, "Invalid params")}
	}
	// Unknown subscriptions are ignored.
	c.removeSubscription(subID.String())
	return []string{respondRaw(req.id, "null")}
}

func respond(id string, result any) string {
	out, _ := sjson.SetRaw(`{"jsonrpc":"2.0"}`, "id", id)
	out, _ = sjson.Set(out, "result", result)
	return out
}

func respondRaw(id, result string) string {
	out, _ := sjson.SetRaw(`{"jsonrpc":"2.0"}`, "id", id)
	out, _ = sjson.SetRaw(out, "result", result)
	return out
}

func respondError(id string, code int, message string) string {
	out, _ := sjson.SetRaw(`{"jsonrpc":"2.0"}`, "id", id)
	out, _ = sjson.Set(out, "error.code", code)
	out, _ = sjson.Set(out, "error.message", message)
	return out
}
