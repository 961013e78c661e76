// Package cli implements the geomval command line interface: conformer
// validation, gradient-descent refinement, and SMILES identity utilities.
package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/motifchem/geomval/internal/application/identity"
	"github.com/motifchem/geomval/internal/application/validation"
	"github.com/motifchem/geomval/internal/domain/geometry"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds global CLI flags.
type RootOptions struct {
	LogLevel     string
	OutputFormat string
	Verbose      bool
}

// Dependencies aggregates the services the subcommands run against.  The CLI
// evaluates everything locally; no API server is required.
type Dependencies struct {
	Logger     logging.Logger
	Identity   identity.Service
	Validation validation.Service
	GeomConfig geometry.Config
}

// NewRootCommand creates the root command with global flags and all
// subcommands mounted.  The shared Dependencies value is populated by the
// persistent pre-run hook once the global flags are parsed.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	deps := &Dependencies{}

	cmd := &cobra.Command{
		Use:     "geomval",
		Short:   "geomval — differentiable molecular geometry validation",
		Long:    "geomval scores 3D conformers against their bonded topology using a\nweighted sum of differentiable loss terms (bond length, bond angle, ring\nplanarity, steric clash, chirality) and refines them by gradient descent.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initDependencies(deps, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")

	cmd.AddCommand(
		newValidateCmd(deps, opts),
		newRefineCmd(deps, opts),
		newMoleculeCmd(deps, opts),
		newDemoCmd(deps, opts),
	)

	return cmd
}

// initDependencies builds the logger and shared services in place.
func initDependencies(deps *Dependencies, opts *RootOptions) error {
	level := strings.ToLower(opts.LogLevel)
	if opts.Verbose {
		level = "debug"
	}

	log, err := logging.New(logging.Config{
		Level:       level,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	deps.Logger = log
	deps.GeomConfig = geometry.DefaultConfig()
	deps.Identity = identity.NewService(log)
	deps.Validation = validation.NewService(deps.GeomConfig, log,
		validation.WithIdentity(deps.Identity))
	return nil
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
		return 1
	}
	return 0
}

// printResult writes data to the command's stdout in the selected format.
func printResult(cmd *cobra.Command, opts *RootOptions, data interface{}) error {
	if strings.EqualFold(opts.OutputFormat, "json") {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}
