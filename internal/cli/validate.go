package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/combatlens/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                       `json:"valid"`
	Profile string                     `json:"profile,omitempty"`
	Modules []string                   `json:"modules,omitempty"`
	Links   int                        `json:"links"`
	Errors  []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <profile-dir>",
		Short: "Validate an analysis profile",
		Long: `Validate a CUE analysis profile without running it.

Loads the CUE package in the directory, checks it against the profile
schema and then checks module names, normalizers, event kinds, actors
and relation names. Every problem is reported, not just the first.

Exit codes:
  0 - Profile valid
  1 - Validation failed
  2 - Command error (directory not found, no CUE files, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loadResult, err := LoadProfileDir(dir)
	if err != nil {
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			return outputValidateError(formatter, ErrCodeGeneric, err.Error())
		}
		if loadErr.Code != ErrCodeSchema {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		// Schema violations are validation failures, not command errors.
		return outputValidationErrors(formatter, []compiler.ValidationError{{
			Field:   "schema",
			Message: loadErr.Message,
			Code:    loadErr.Code,
			Line:    getLineFromCuePos(loadErr),
		}})
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, dir)

	profile := loadResult.Profile
	if errs := compiler.Validate(profile); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	return outputValidateSuccess(formatter, profile)
}

// getLineFromCuePos extracts the line number of a load error.
func getLineFromCuePos(e *LoadError) int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, p *compiler.Profile) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:   true,
			Profile: p.Name,
			Modules: p.Modules,
			Links:   len(p.Links),
		})
	}

	fmt.Fprintf(formatter.Writer, "✓ Profile %s valid (%d module(s), %d link(s))\n", p.Name, len(p.Modules), len(p.Links))
	return nil
}

// outputValidateError outputs a single command error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		// Validation failures = exit code 1
		return formatter.Failure(errs[0].Code, errs[0].Message, ValidationResult{Valid: false, Errors: errs})
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
