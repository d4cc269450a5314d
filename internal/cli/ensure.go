package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tesseradb/tessera/internal/ddl"
	"github.com/tesseradb/tessera/internal/partition"
	"github.com/tesseradb/tessera/internal/schema"
	"github.com/tesseradb/tessera/internal/store"
)

// EnsureOptions holds flags for the ensure command.
type EnsureOptions struct {
	*RootOptions
	SpecsDir    string
	CurrentOnly bool
	NextOnly    bool
	SQLOnly     bool
	Database    string // alias into the config file
	ConfigPath  string
	DBPath      string // explicit SQLite path, bypasses config
}

// EnsuredEntity describes one concrete entity synthesized by a run.
type EnsuredEntity struct {
	Entity string `json:"entity"`
	Base   string `json:"base"`
	Key    string `json:"key"`
	Table  string `json:"table"`
	SQL    string `json:"sql"`
}

// EnsureResult is the success payload of the ensure command.
type EnsureResult struct {
	Template    string          `json:"template"`
	Keys        []string        `json:"keys"`
	Synthesized []EnsuredEntity `json:"synthesized"`
	RunID       string          `json:"run_id,omitempty"`
	Created     []string        `json:"created,omitempty"`
	Skipped     []string        `json:"skipped,omitempty"`
}

// NewEnsureCommand creates the ensure command.
func NewEnsureCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EnsureOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ensure <template> [key...]",
		Short: "Materialize partitions for a template",
		Long: `Materialize concrete partition schemas for a template entity.

With explicit keys, exactly those partitions are ensured. With
--current-only or --next-only, the manager's keyer picks the key. With
neither, both the current and the next partition are ensured. Every
partition reached through a deferred foreign key is ensured alongside.

By default the generated tables are applied to the configured database;
--sql prints the DDL instead without touching anything.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnsure(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SpecsDir, "specs", "specs", "directory of CUE template specs")
	cmd.Flags().BoolVarP(&opts.CurrentOnly, "current-only", "c", false, "ensure only the current partition")
	cmd.Flags().BoolVarP(&opts.NextOnly, "next-only", "n", false, "ensure only the next partition")
	cmd.Flags().BoolVar(&opts.SQLOnly, "sql", false, "print DDL instead of applying it")
	cmd.Flags().StringVarP(&opts.Database, "database", "d", "", "database alias from the config file")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "config file path (default tessera.yaml)")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "SQLite database path (bypasses config)")

	return cmd
}

func runEnsure(opts *EnsureOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Usage errors first: these are the caller's mistake, not the engine's.
	if opts.CurrentOnly && opts.NextOnly {
		return usageError(formatter, ErrCodeConflictingFlags,
			"--current-only and --next-only cannot be used together")
	}
	if len(args) == 0 {
		return usageError(formatter, ErrCodeMissingTemplate,
			"please supply a partitioned template name")
	}
	templateName := args[0]

	result, loadErrors := LoadSpecs(opts.SpecsDir, partition.SystemClock{}, LoadModeFailFast)
	if len(loadErrors) > 0 {
		return loadFailure(formatter, loadErrors[0])
	}
	universe := result.Universe
	formatter.VerboseLog("Loaded %d template(s) from %d CUE file(s)", len(result.Defs), result.FileCount)

	mgr, ok := universe.Manager(templateName)
	if !ok {
		return usageError(formatter, ErrCodeUnknownTemplate,
			fmt.Sprintf("unknown template %q (declared: %v)", templateName, universe.Names()))
	}

	keys, err := selectKeys(opts, args[1:], mgr)
	if err != nil {
		return synthesisFailure(formatter, err)
	}

	// Snapshot the catalog so the run can report exactly what it
	// synthesized, cascade included.
	before := universe.Catalog.Len()
	for _, key := range keys {
		formatter.VerboseLog("Ensuring partition %q of %s", key, templateName)
		if _, err := mgr.GetPartition(key, true); err != nil {
			return synthesisFailure(formatter, err)
		}
	}

	synthesized, err := collectSynthesized(universe.Catalog, before)
	if err != nil {
		_ = formatter.Error(ErrCodeDDL, err.Error(), nil)
		return WrapExitError(ExitFailure, err.Error(), err)
	}

	out := &EnsureResult{Template: templateName, Keys: keys, Synthesized: synthesized}

	if opts.SQLOnly {
		return outputEnsureSQL(formatter, out)
	}

	dbPath, err := resolveDatabase(opts.DBPath, opts.ConfigPath, opts.Database)
	if err != nil {
		return usageError(formatter, ErrCodeBadConfig, err.Error())
	}
	if err := applyEnsure(dbPath, out); err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, err.Error(), err)
	}

	return outputEnsureApplied(formatter, out)
}

// selectKeys resolves which partition keys the run targets, matching the
// precedence of the original management command: flags first, then
// explicit keys, then current+next.
func selectKeys(opts *EnsureOptions, explicit []string, mgr *partition.Manager) ([]string, error) {
	switch {
	case opts.CurrentOnly:
		key, err := mgr.Keyer().CurrentPartitionKey()
		if err != nil {
			return nil, err
		}
		return []string{key}, nil
	case opts.NextOnly:
		key, err := mgr.Keyer().NextPartitionKey()
		if err != nil {
			return nil, err
		}
		return []string{key}, nil
	case len(explicit) > 0:
		return explicit, nil
	default:
		current, err := mgr.Keyer().CurrentPartitionKey()
		if err != nil {
			return nil, err
		}
		next, err := mgr.Keyer().NextPartitionKey()
		if err != nil {
			return nil, err
		}
		return []string{current, next}, nil
	}
}

// collectSynthesized turns every catalog binding added after the snapshot
// into an EnsuredEntity with its compiled DDL, preserving creation order
// so referenced tables precede their dependents.
func collectSynthesized(cat *schema.Catalog, before int) ([]EnsuredEntity, error) {
	names := cat.Names()
	var out []EnsuredEntity
	for _, name := range names[before:] {
		obj, ok := cat.Lookup(name)
		if !ok {
			continue
		}
		p, ok := obj.(*schema.Partition)
		if !ok {
			continue
		}
		sql, err := ddl.Compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, EnsuredEntity{
			Entity: p.Name(),
			Base:   p.Base().Name(),
			Key:    p.Key(),
			Table:  p.TableName(),
			SQL:    sql,
		})
	}
	return out, nil
}

// applyEnsure applies the synthesized tables to the database and records
// the outcome on the result.
func applyEnsure(dbPath string, out *EnsureResult) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	tables := make([]store.CreateTable, len(out.Synthesized))
	for i, e := range out.Synthesized {
		tables[i] = store.CreateTable{Entity: e.Base, Key: e.Key, Table: e.Table, SQL: e.SQL}
	}
	applied, err := s.Apply(context.Background(), tables)
	if err != nil {
		return err
	}
	out.RunID = applied.RunID
	out.Created = applied.Created
	out.Skipped = applied.Skipped
	return nil
}

// outputEnsureSQL prints the run's DDL without touching a database.
func outputEnsureSQL(formatter *OutputFormatter, out *EnsureResult) error {
	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	for _, e := range out.Synthesized {
		fmt.Fprintf(formatter.Writer, "%s;\n", e.SQL)
	}
	return nil
}

// outputEnsureApplied prints the apply summary.
func outputEnsureApplied(formatter *OutputFormatter, out *EnsureResult) error {
	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	fmt.Fprintf(formatter.Writer, "✓ Ensured %d partition(s) of %s (run %s)\n",
		len(out.Keys), out.Template, out.RunID)
	for _, t := range out.Created {
		fmt.Fprintf(formatter.Writer, "  created %s\n", t)
	}
	for _, t := range out.Skipped {
		fmt.Fprintf(formatter.Writer, "  exists  %s\n", t)
	}
	return nil
}

// usageError reports a user mistake: distinct code, ExitUsageError.
func usageError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitUsageError, fmt.Sprintf("%s: %s", code, message))
}

// loadFailure reports a spec load error as a usage-class failure.
func loadFailure(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if e, ok := err.(*LoadError); ok {
		loadErr = e
	} else {
		loadErr = &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
	return NewExitError(ExitUsageError, loadErr.Error())
}

// synthesisFailure reports an engine failure: E1xx code, ExitFailure.
func synthesisFailure(formatter *OutputFormatter, err error) error {
	code := SynthesisErrorCode(err)
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitFailure, fmt.Sprintf("%s: %s", code, err.Error()), err)
}
