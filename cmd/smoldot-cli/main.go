// Command smoldot-cli registers chains and sends JSON-RPC requests through the
// bridge registry without going through the C ABI.
package main

import (
	"fmt"
	"os"

	"github.com/finsig/smolder-c-ffi/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
