// Command gantry activates compiled modules from manifests and resolves
// symbols and resources through their dependency graph.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gantry-io/gantry/internal/config"
	"github.com/gantry-io/gantry/internal/telemetry"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// app carries state shared by every command: configuration, the logger,
// the tracing provider, and the manifest selection flags.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	tracing *telemetry.Provider

	configPath    string
	manifestPaths []string
	manifestDir   string
	noColor       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "gantry",
		Short:         "Plugin module loading runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.shutdown(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file path")
	pf.StringArrayVarP(&a.manifestPaths, "manifest", "m", nil, "Module manifest file (repeatable)")
	pf.StringVar(&a.manifestDir, "manifest-dir", "", "Directory of module manifests")
	pf.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newResolveCmd(a),
		newResourceCmd(a),
		newGraphCmd(a),
		newInspectCmd(a),
		newPackCmd(a),
		newShellCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = cfg.Logger()
	if a.noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
	provider, err := telemetry.Init(ctx, &telemetry.Config{
		ServiceName:    "gantry",
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.tracing = provider
	return nil
}

func (a *app) shutdown(ctx context.Context) error {
	if a.tracing == nil {
		return nil
	}
	return a.tracing.Shutdown(ctx)
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, color.RedString("error: %s", err))
}
