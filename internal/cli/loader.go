package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/tesseradb/tessera/internal/cuespec"
	"github.com/tesseradb/tessera/internal/partition"
	"github.com/tesseradb/tessera/internal/schema"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading template specs from a directory.
type LoadResult struct {
	Universe  *cuespec.Universe     // nil when compilation or linking failed
	Defs      []*cuespec.TemplateDef
	FileCount int // Number of CUE files found
}

// LoadError represents an error that occurred during spec loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSpecs loads template definitions from a directory of CUE files and
// links them into a fresh universe (isolated catalog + registry).
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all compile errors; linking only
// runs when compilation is clean.
func LoadSpecs(dir string, clock partition.Clock, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	// Verify directory exists
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	// Find CUE files
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	// Load CUE instances
	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{FileCount: len(cueFiles)}

	// Extract templates
	templatesVal := value.LookupPath(cue.ParsePath("template"))
	if !templatesVal.Exists() {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: "no templates found in specs"}}
	}
	iter, iterErr := templatesVal.Fields()
	if iterErr != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating templates: %v", iterErr)}}
	}
	for iter.Next() {
		def, compileErr := cuespec.CompileTemplate(iter.Value())
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, "template."+iter.Label()))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Defs = append(result.Defs, def)
	}

	if len(result.Defs) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no templates found in specs"})
	}

	// Link only when compilation is clean; a half-compiled universe would
	// report misleading attachment errors.
	if len(errs) == 0 {
		universe, linkErr := cuespec.Link(result.Defs, clock)
		if linkErr != nil {
			errs = append(errs, convertCompileError(linkErr, "link"))
			return result, errs
		}
		result.Universe = universe
	}

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler or attachment error to a
// LoadError with position info where available.
func convertCompileError(err error, context string) error {
	var compileErr *cuespec.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeCompile,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	var synthErr *schema.SynthesisError
	if errors.As(err, &synthErr) {
		return &LoadError{
			Code:    SynthesisErrorCode(synthErr),
			Message: synthErr.Error(),
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
//
// E0xx codes are usage/load failures reported with ExitUsageError; E1xx
// codes come out of synthesis or application and exit with ExitFailure.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeCompile     = "E007" // Template compile error

	// Usage errors
	ErrCodeMissingTemplate  = "E010" // No template argument given
	ErrCodeUnknownTemplate  = "E011" // Template not declared in specs
	ErrCodeConflictingFlags = "E012" // --current-only and --next-only together
	ErrCodeBadConfig        = "E013" // Config file missing/invalid alias

	// Synthesis/application errors
	ErrCodeConfigInvalid  = "E101" // Misdeclared template or placeholder
	ErrCodeNameCollision  = "E102" // Catalog name collision
	ErrCodeMissingManager = "E103" // Dependent template has no manager
	ErrCodeNotImplemented = "E104" // Keyer extension point not overridden
	ErrCodeDDL            = "E105" // DDL compilation failed
	ErrCodeStore          = "E106" // Database application failed
)

// SynthesisErrorCode maps an engine error to its CLI error code.
func SynthesisErrorCode(err error) string {
	var se *schema.SynthesisError
	if !errors.As(err, &se) {
		return ErrCodeGeneric
	}
	switch se.Code {
	case schema.ErrCodeConfig:
		return ErrCodeConfigInvalid
	case schema.ErrCodeNameCollision:
		return ErrCodeNameCollision
	case schema.ErrCodeMissingManager:
		return ErrCodeMissingManager
	case schema.ErrCodeNotImplemented:
		return ErrCodeNotImplemented
	default:
		return ErrCodeGeneric
	}
}
