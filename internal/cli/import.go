package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/combatlens/internal/session"
	"github.com/roach88/combatlens/internal/store"
)

// ImportedSession describes one session written by the import command.
type ImportedSession struct {
	File        string `json:"file"`
	ID          string `json:"id"`
	Events      int    `json:"events"`
	InputDigest string `json:"input_digest"`
}

// ImportResult holds the import command result.
type ImportResult struct {
	Sessions []ImportedSession `json:"sessions"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <session.yaml>...",
		Short: "Import session fixtures into the store",
		Long: `Import recorded sessions into the SQLite store.

Each session and its events are written in a single transaction. Events
are stored in sequence order. Importing the same session twice is a
no-op; importing different content under an existing id fails.

Exit codes:
  0 - All sessions imported
  1 - A session id is already stored with different content
  2 - Command error (unreadable file, database error, etc.)

Examples:
  combatlens import --db ./logs.db fights/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args, cmd)
		},
	}
}

func runImport(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	result := ImportResult{Sessions: make([]ImportedSession, 0, len(files))}
	for _, file := range files {
		sess, err := session.Load(file)
		if err != nil {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load session", err)
		}

		if err := st.WriteSession(cmd.Context(), sess); err != nil {
			if errors.Is(err, store.ErrSessionConflict) {
				_ = formatter.Error(ErrCodeConflict, err.Error(), map[string]string{"file": file, "session": sess.ID})
				return WrapExitError(ExitFailure, "import failed", err)
			}
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "import failed", err)
		}

		digest, err := store.InputDigest(sess.Events)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to digest session", err)
		}
		logger.Debug("session imported", "file", file, "session", sess.ID, "events", len(sess.Events))
		result.Sessions = append(result.Sessions, ImportedSession{
			File:        file,
			ID:          sess.ID,
			Events:      len(sess.Events),
			InputDigest: digest,
		})
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	w := cmd.OutOrStdout()
	for _, s := range result.Sessions {
		fmt.Fprintf(w, "✓ %s: %d event(s) from %s\n", s.ID, s.Events, s.File)
	}
	fmt.Fprintf(w, "Imported %d session(s)\n", len(result.Sessions))
	return nil
}
