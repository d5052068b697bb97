// Package cli implements the smoldot-cli command tree. The CLI drives an
// in-process registry exactly as the C entry points do, which makes it handy
// for trying chain specifications and requests without writing C.
package cli

import (
	"github.com/finsig/smolder-c-ffi/config"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand creates the root command for smoldot-cli.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "smoldot-cli",
		Short: "Drive the smoldot C bridge from the command line",
		Long: `Drive the smoldot C bridge from the command line.

Chains are registered with the same registry the shared library uses, and
requests travel the same submit and poll path as smoldot_json_rpc_request and
smoldot_wait_next_json_rpc_response.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML or TOML configuration file (default $"+config.EnvConfigPath+")")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log filter, e.g. info or warn,registry=debug")

	cmd.AddCommand(NewRequestCommand(opts))
	cmd.AddCommand(NewMethodsCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// loadConfig reads --config when given, else the file named by the
// environment.
func (o *RootOptions) loadConfig() (config.Config, error) {
	if o.ConfigPath != "" {
		return config.Load(o.ConfigPath)
	}
	return config.LoadFromEnv()
}
