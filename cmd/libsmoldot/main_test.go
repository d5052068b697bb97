package main

import (
	"os"
	"regexp"
	"strconv"
	"testing"

	"github.com/finsig/smolder-c-ffi/ffi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader_StatusCodes(t *testing.T) {
	header, err := os.ReadFile("../../include/smoldot.h")
	require.NoError(t, err)

	want := map[string]ffi.Status{
		"SMOLDOT_OK":              ffi.StatusOK,
		"SMOLDOT_END":             ffi.StatusEnd,
		"SMOLDOT_UNKNOWN_CHAIN":   ffi.StatusUnknownChain,
		"SMOLDOT_ENGINE_REJECTED": ffi.StatusEngineRejected,
	}

	defines := regexp.MustCompile(`(?m)^#define (SMOLDOT_[A-Z_]+) (-?\d+)$`).FindAllStringSubmatch(string(header), -1)
	require.Len(t, defines, len(want))
	for _, m := range defines {
		value, err := strconv.Atoi(m[2])
		require.NoError(t, err)
		status, ok := want[m[1]]
		require.True(t, ok, m[1])
		assert.Equal(t, int(status), value, m[1])
		assert.Equal(t, m[1], status.String())
	}
}

func TestHeader_EveryFunctionExported(t *testing.T) {
	header, err := os.ReadFile("../../include/smoldot.h")
	require.NoError(t, err)
	source, err := os.ReadFile("main.go")
	require.NoError(t, err)

	declared := regexp.MustCompile(`(?m)^\w+\s+\*?(smoldot_\w+)\(`).FindAllStringSubmatch(string(header), -1)
	require.Len(t, declared, 7)

	for _, m := range declared {
		assert.Regexp(t, regexp.MustCompile(`(?m)^//export `+m[1]+`$`), string(source))
	}
}
