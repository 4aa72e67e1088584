package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/combatlens/internal/config"
	"github.com/roach88/combatlens/internal/engine"
	"github.com/roach88/combatlens/internal/telemetry"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string

	// Config holds the environment defaults, loaded before any command
	// runs.
	Config config.Config

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to engine.UUIDv7Generator.
	RunIDs engine.RunIDGenerator

	shutdown telemetry.Shutdown
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the combatlens CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "combatlens",
		Short: "combatlens - combat log analysis",
		Long: `Analyze recorded combat sessions with a graph of analysis modules.

Sessions are imported into a SQLite store or read from YAML fixtures,
linked according to a CUE analysis profile and dispatched in a single
deterministic pass.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := config.Load()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid environment", err)
			}
			opts.Config = cfg
			if opts.Database == "" {
				opts.Database = cfg.Database
			}

			shutdown, err := telemetry.Setup(cmd.Context(), cfg.OTelEndpoint)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to set up telemetry", err)
			}
			opts.shutdown = shutdown
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.shutdown == nil {
				return nil
			}
			return opts.shutdown(cmd.Context())
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $COMBATLENS_DB or combatlens.db)")

	// Add subcommands
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewAnalyzeCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// logger builds the command logger. --verbose wins over
// COMBATLENS_LOG_LEVEL. Logs go to stderr so JSON output stays clean.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level, err := config.ParseLevel(o.Config.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// newEngine builds an engine from the global options plus extra.
func (o *RootOptions) newEngine(logger *slog.Logger, extra ...engine.EngineOption) *engine.Engine {
	opts := []engine.EngineOption{engine.WithLogger(logger)}
	if o.RunIDs != nil {
		opts = append(opts, engine.WithRunIDGenerator(o.RunIDs))
	}
	if o.Config.MaxFabrications > 0 {
		opts = append(opts, engine.WithMaxFabrications(o.Config.MaxFabrications))
	}
	return engine.New(append(opts, extra...)...)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}
