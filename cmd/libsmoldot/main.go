// Command libsmoldot builds the bridge as a C shared library:
//
//	go build -buildmode=c-shared -o libsmoldot.so ./cmd/libsmoldot
//
// The stable declarations live in include/smoldot.h.
package main

/*
#include <stdbool.h>
#include <stddef.h>
#include <stdint.h>
*/
import "C"

import (
	"unsafe"

	"github.com/finsig/smolder-c-ffi/ffi"
)

//export smoldot_add_chain
func smoldot_add_chain(chainSpec *C.char, chainID *C.size_t, errorMessage **C.char) C.int32_t {
	return C.int32_t(ffi.Default().AddChain(unsafe.Pointer(chainSpec), unsafe.Pointer(chainID), unsafe.Pointer(errorMessage)))
}

//export smoldot_remove_chain
func smoldot_remove_chain(chainID C.size_t) C.int32_t {
	return C.int32_t(ffi.Default().RemoveChain(uint64(chainID)))
}

//export smoldot_json_rpc_request
func smoldot_json_rpc_request(chainID C.size_t, request *C.char, errorMessage **C.char) C.int32_t {
	return C.int32_t(ffi.Default().JSONRPCRequest(uint64(chainID), unsafe.Pointer(request), unsafe.Pointer(errorMessage)))
}

//export smoldot_wait_next_json_rpc_response
func smoldot_wait_next_json_rpc_response(chainID C.size_t, response **C.char) C.int32_t {
	return C.int32_t(ffi.Default().WaitNextResponse(uint64(chainID), unsafe.Pointer(response)))
}

//export smoldot_is_valid_chain_id
func smoldot_is_valid_chain_id(chainID C.size_t) C.bool {
	return C.bool(ffi.Default().IsValidChainID(uint64(chainID)))
}

//export smoldot_next_json_rpc_response_free
func smoldot_next_json_rpc_response_free(text *C.char) {
	ffi.Default().FreeText(unsafe.Pointer(text))
}

//export smoldot_env_logger
func smoldot_env_logger(level *C.char) {
	ffi.Default().EnvLogger(unsafe.Pointer(level))
}

func main() {}
