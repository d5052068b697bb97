package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	smolder "github.com/finsig/smolder-c-ffi"
	"github.com/finsig/smolder-c-ffi/core"
	"github.com/finsig/smolder-c-ffi/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

// RequestOptions holds flags for the request command.
type RequestOptions struct {
	*RootOptions
	ChainSpec   string
	RelaySpecs  []string
	Timeout     time.Duration
	ShowMetrics bool
}

// NewRequestCommand creates the request command.
func NewRequestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "request [json-rpc-request...]",
		Short: "Register a chain and send JSON-RPC requests to it",
		Long: `Register a chain and send JSON-RPC requests to it.

Relay chains given with --relay-spec are registered first, in order, so a
parachain specification can refer to them. Each request prints its response,
matched by id, on stdout. Notifications received while waiting go to stderr.
Without arguments, requests are read from stdin, one per line.

Example:
  smoldot-cli request --chain-spec westend.json '{"jsonrpc":"2.0","id":1,"method":"system_health"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequests(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.ChainSpec, "chain-spec", "", "chain specification file")
	cmd.Flags().StringArrayVar(&opts.RelaySpecs, "relay-spec", nil, "relay chain specification file (repeatable)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "time to wait for each response")
	cmd.Flags().BoolVar(&opts.ShowMetrics, "metrics", false, "print registry metrics to stderr when done")
	_ = cmd.MarkFlagRequired("chain-spec")

	return cmd
}

func runRequests(cmd *cobra.Command, opts *RequestOptions, args []string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	filter, err := logging.ParseFilter(opts.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logCfg := logging.DefaultLoggerConfig()
	logCfg.Filter = filter
	logCfg.Format = cfg.Logging.Format
	logCfg.Output = cmd.ErrOrStderr()
	if cfg.Logging.Output == "stdout" {
		logCfg.Output = cmd.OutOrStdout()
	}

	metrics := prometheus.NewRegistry()
	client := smolder.New(func(o *smolder.Options) {
		o.Config = cfg
		o.Registerer = metrics
		o.Logger = logging.NewLogger(logCfg)
	})
	defer client.Close()

	for _, path := range opts.RelaySpecs {
		if _, err := addChainFromFile(client, path); err != nil {
			return err
		}
	}
	id, err := addChainFromFile(client, opts.ChainSpec)
	if err != nil {
		return err
	}

	requests := args
	if len(requests) == 0 {
		if requests, err = readLines(cmd.InOrStdin()); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	notify := func(o *smolder.CallOptions) {
		o.Unmatched = func(item string) { fmt.Fprintln(cmd.ErrOrStderr(), item) }
	}
	for _, req := range requests {
		ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
		resp, err := client.Call(ctx, id, req, notify)
		cancel()
		if err != nil {
			return fmt.Errorf("request %s: %w", req, err)
		}
		fmt.Fprintln(out, resp)
	}

	if opts.ShowMetrics {
		return writeMetrics(cmd.ErrOrStderr(), metrics)
	}
	return nil
}

func addChainFromFile(client *smolder.Client, path string) (core.ChainID, error) {
	spec, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read chain spec: %w", err)
	}
	id, err := client.Registry().AddChain(string(spec))
	if err != nil {
		return 0, fmt.Errorf("add chain %s: %w", path, err)
	}
	return id, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func writeMetrics(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
