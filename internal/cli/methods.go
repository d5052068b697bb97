package cli

import (
	"fmt"

	"github.com/finsig/smolder-c-ffi/engine"
	"github.com/spf13/cobra"
)

// NewMethodsCommand creates the methods command.
func NewMethodsCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List the JSON-RPC methods served by the reference engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range engine.MethodNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
