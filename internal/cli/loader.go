package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/roach88/a11yq/internal/harness"
)

// Error codes used across commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No scenario files found
	ErrCodeParseFailed  = "E004" // Scenario decode failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeSchemaFailed = "E006" // CUE schema violation
	ErrCodeStoreFailed  = "E007" // Database access failed
)

// LoadError represents an error that occurred during scenario loading.
type LoadError struct {
	Code    string
	Message string
	Path    string // Offending file, if known
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FindScenarioFiles returns all YAML scenario files directly under dir,
// sorted by name for deterministic processing.
func FindScenarioFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// LoadScenarios loads every scenario file under dir. Decoding continues past
// per-file failures; the scenarios that did load are returned together with
// one error per failed file.
func LoadScenarios(dir string) ([]*harness.Scenario, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("scenario directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing scenario directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindScenarioFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no scenario files found in %s", dir)}}
	}

	var scenarios []*harness.Scenario
	var errs []error
	for _, path := range files {
		s, err := harness.LoadScenario(path)
		if err != nil {
			errs = append(errs, &LoadError{
				Code:    ErrCodeParseFailed,
				Message: err.Error(),
				Path:    path,
			})
			continue
		}
		scenarios = append(scenarios, s)
	}

	return scenarios, errs
}
