package ffi

/*
#include <stddef.h>
*/
import "C"

import (
	"context"
	"errors"
	"sync"
	"unicode/utf8"
	"unsafe"

	smolder "github.com/finsig/smolder-c-ffi"
	"github.com/finsig/smolder-c-ffi/core"
	"github.com/finsig/smolder-c-ffi/registry"
)

// Surface implements the C entry points against one Client.
type Surface struct {
	client *smolder.Client
	texts  *textTable
}

// NewSurface creates a Surface with its own ownership table.
func NewSurface(client *smolder.Client) *Surface {
	return &Surface{client: client, texts: newTextTable()}
}

var (
	defaultOnce    sync.Once
	defaultSurface *Surface
)

// Default returns the Surface over smolder.Global used by the shared library.
func Default() *Surface {
	defaultOnce.Do(func() {
		defaultSurface = NewSurface(smolder.Global())
	})
	return defaultSurface
}

// AddChain implements smoldot_add_chain. On success the new chain id is
// stored through chainID. errorMessage may be NULL.
func (s *Surface) AddChain(chainSpec, chainID, errorMessage unsafe.Pointer) Status {
	const op = "smoldot_add_chain"
	requireNonNull(op, "chain_spec", chainSpec)
	requireNonNull(op, "chain_id", chainID)
	clearOut(errorMessage)

	id, err := s.client.Registry().AddChain(borrowText(chainSpec))
	if err != nil {
		return s.fail(op, err, errorMessage)
	}
	*(*C.size_t)(chainID) = C.size_t(id)
	return StatusOK
}

// RemoveChain implements smoldot_remove_chain.
func (s *Surface) RemoveChain(chainID uint64) Status {
	if err := s.client.Registry().RemoveChain(core.ChainID(chainID)); err != nil {
		return s.fail("smoldot_remove_chain", err, nil)
	}
	return StatusOK
}

// JSONRPCRequest implements smoldot_json_rpc_request. errorMessage may be
// NULL.
func (s *Surface) JSONRPCRequest(chainID uint64, request, errorMessage unsafe.Pointer) Status {
	const op = "smoldot_json_rpc_request"
	requireNonNull(op, "request", request)
	clearOut(errorMessage)

	if err := s.client.Registry().SubmitRequest(core.ChainID(chainID), borrowText(request)); err != nil {
		return s.fail(op, err, errorMessage)
	}
	return StatusOK
}

// WaitNextResponse implements smoldot_wait_next_json_rpc_response. It blocks
// the calling thread until a response is available or the stream ends. On
// StatusOK the response is stored through response and must be released with
// FreeText; otherwise NULL is stored.
func (s *Surface) WaitNextResponse(chainID uint64, response unsafe.Pointer) Status {
	const op = "smoldot_wait_next_json_rpc_response"
	requireNonNull(op, "response", response)
	clearOut(response)

	text, ok, err := s.client.Registry().PollNext(context.Background(), core.ChainID(chainID))
	if err != nil {
		return s.fail(op, err, nil)
	}
	if !ok {
		return StatusEnd
	}
	*(*unsafe.Pointer)(response) = s.texts.export(op, text)
	return StatusOK
}

// IsValidChainID implements smoldot_is_valid_chain_id.
func (s *Surface) IsValidChainID(chainID uint64) bool {
	return s.client.Registry().IsValid(core.ChainID(chainID))
}

// FreeText implements smoldot_next_json_rpc_response_free.
func (s *Surface) FreeText(text unsafe.Pointer) {
	s.texts.release("smoldot_next_json_rpc_response_free", text)
}

// EnvLogger implements smoldot_env_logger. The first call installs the
// logger; an unparseable level on that call is fatal. Later calls do
// nothing.
func (s *Surface) EnvLogger(level unsafe.Pointer) {
	const op = "smoldot_env_logger"
	requireNonNull(op, "level", level)

	text := borrowText(level)
	if !utf8.ValidString(text) {
		violate(op, "level is not valid UTF-8")
	}
	if err := s.client.InitLogging(text); err != nil {
		violate(op, err.Error())
	}
}

// fail maps a registry error onto a status code, storing a diagnostic for
// engine rejections when errorMessage is not NULL.
func (s *Surface) fail(op string, err error, errorMessage unsafe.Pointer) Status {
	switch {
	case errors.Is(err, registry.ErrInvalidText):
		violate(op, "text is not valid UTF-8")
	case errors.Is(err, registry.ErrUnknownChain):
		logger.Debug("unknown chain", "op", op, "error", err)
		return StatusUnknownChain
	}

	logger.Debug("engine rejected call", "op", op, "error", err)
	if errorMessage != nil {
		*(*unsafe.Pointer)(errorMessage) = s.texts.export(op, diagnostic(err.Error()))
	}
	return StatusEngineRejected
}

func clearOut(p unsafe.Pointer) {
	if p != nil {
		*(*unsafe.Pointer)(p) = nil
	}
}
