package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/build"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/sysplan/internal/ir"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the descriptors found in a set of CUE files.
type LoadResult struct {
	// Descriptors are in declaration order.
	Descriptors []ir.Descriptor
	CUEValue    cue.Value // The raw CUE value for additional processing
	FileCount   int       // Number of CUE files loaded
}

// Load error codes (E001-E099).
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No CUE files found
	ErrCodeLoadFailed   = "E004" // CUE load failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeBuildFailed  = "E006" // CUE build failed
	ErrCodeNoSystems    = "E007" // No system declarations
	ErrCodeInvalidField = "E101" // Field has the wrong CUE type
	ErrCodeUnknownField = "E102" // Field name not recognized
	ErrCodeNoRoutine    = "E103" // Routine name missing
)

// LoadError represents an error that occurred during loading.
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

// LoadDir loads every system declared in the CUE package in dir.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadDir(dir string, mode LoadMode) (*LoadResult, []error) {
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

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	return loadInstances(instances, len(cueFiles), mode)
}

// LoadFiles loads the systems declared in the given CUE files, which must
// belong to one package.
func LoadFiles(files []string, mode LoadMode) (*LoadResult, []error) {
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: "no CUE files given"}}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("spec file not found: %s", f)}}
		}
	}

	instances := load.Instances(files, &load.Config{})
	return loadInstances(instances, len(files), mode)
}

func loadInstances(instances []*build.Instance, fileCount int, mode LoadMode) (*LoadResult, []error) {
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	ctx := cuecontext.New()
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result, errs := CompileValue(value, mode)
	result.FileCount = fileCount
	return result, errs
}

// CompileValue extracts every system declared under the top-level
// "system" field of value.
func CompileValue(value cue.Value, mode LoadMode) (*LoadResult, []error) {
	var errs []error
	result := &LoadResult{CUEValue: value}

	systemsVal := value.LookupPath(cue.ParsePath("system"))
	if !systemsVal.Exists() {
		errs = append(errs, &LoadError{Code: ErrCodeNoSystems, Message: "no systems found in specs"})
		return result, errs
	}

	iter, err := systemsVal.Fields()
	if err != nil {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating systems: %v", err)})
		return result, errs
	}

	for iter.Next() {
		d, compileErr := CompileSystem(iter.Value())
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, "system."+iter.Label()))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Descriptors = append(result.Descriptors, *d)
	}

	if len(result.Descriptors) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoSystems, Message: "no systems found in specs"})
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

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    mapFieldToErrorCode(compileErr),
			Message: fmt.Sprintf("%s: %s", context, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

func mapFieldToErrorCode(e *CompileError) string {
	switch {
	case e.Field == "cue":
		return ErrCodeBuildFailed
	case strings.HasPrefix(e.Message, "unknown field"):
		return ErrCodeUnknownField
	case e.Field == fieldRoutine && e.Message == msgRoutineRequired:
		return ErrCodeNoRoutine
	default:
		return ErrCodeInvalidField
	}
}
