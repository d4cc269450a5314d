package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tesseradb/tessera/internal/partition"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidatedTemplate summarizes one compiled template.
type ValidatedTemplate struct {
	Name       string `json:"name"`
	Fields     int    `json:"fields"`
	ForeignKey string `json:"foreign_key,omitempty"` // target template, if any
	Scheme     string `json:"scheme,omitempty"`      // partition scheme
}

// ValidationSummary is the success payload of the validate command.
type ValidationSummary struct {
	FileCount int                 `json:"file_count"`
	Templates []ValidatedTemplate `json:"templates"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate CUE template specs",
		Long: `Compile and link a directory of CUE template specs without
materializing anything, reporting every error found.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, specsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result, loadErrors := LoadSpecs(specsDir, partition.SystemClock{}, LoadModeCollectAll)
	if len(loadErrors) > 0 {
		return outputValidateErrors(formatter, loadErrors)
	}

	summary := &ValidationSummary{FileCount: result.FileCount}
	for _, def := range result.Defs {
		vt := ValidatedTemplate{
			Name:   def.Name,
			Fields: len(def.Fields),
			Scheme: def.Partition.By,
		}
		for _, fd := range def.Fields {
			if fd.FK != "" {
				vt.ForeignKey = fd.FK
			}
		}
		summary.Templates = append(summary.Templates, vt)
	}

	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	fmt.Fprintf(formatter.Writer, "✓ Validated %d template(s) from %d CUE file(s)\n\n",
		len(summary.Templates), summary.FileCount)
	for _, vt := range summary.Templates {
		line := fmt.Sprintf("  %s: %d field(s)", vt.Name, vt.Fields)
		if vt.ForeignKey != "" {
			line += fmt.Sprintf(", fk → %s", vt.ForeignKey)
		}
		if vt.Scheme != "" {
			line += fmt.Sprintf(", partitioned by %s", vt.Scheme)
		}
		fmt.Fprintln(formatter.Writer, line)
	}
	return nil
}

// outputValidateErrors prints every load error and exits usage-class.
func outputValidateErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseLoadError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}
		_ = formatter.Error(cliErrors[0].Code, cliErrors[0].Message, cliErrors)
		return NewExitError(ExitUsageError, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		code, message := parseLoadError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}
	return NewExitError(ExitUsageError, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// parseLoadError extracts error code and message from an error.
func parseLoadError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
