package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"github.com/spf13/cobra"

	"github.com/roach88/a11yq/internal/harness"
)

//go:embed schema.cue
var schemaCUE string

// ValidationError describes one schema or structural violation.
type ValidationError struct {
	File    string `json:"file"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenarios-dir>",
		Short: "Validate scenario files without replaying them",
		Long: `Validate scenario YAML files against the scenario schema.

Each file is checked against the embedded CUE schema (field names, enum
values, shapes) and then structurally (referential integrity between nodes
and events). Faster than replay for authoring feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("scenario directory not found: %s", dir))
	}

	files, err := FindScenarioFiles(dir)
	if err != nil {
		return outputValidateError(formatter, ErrCodeScanError, fmt.Sprintf("error scanning directory: %v", err))
	}
	if len(files) == 0 {
		return outputValidateError(formatter, ErrCodeNoFiles, fmt.Sprintf("no scenario files found in %s", dir))
	}

	schema, err := compileSchema()
	if err != nil {
		return outputValidateError(formatter, ErrCodeGeneric, fmt.Sprintf("compiling schema: %v", err))
	}

	var validationErrors []ValidationError
	for _, path := range files {
		formatter.VerboseLog("Validating %s", path)
		validationErrors = append(validationErrors, validateFile(schema, path)...)
	}

	result := ValidationResult{
		Valid:  len(validationErrors) == 0,
		Files:  len(files),
		Errors: validationErrors,
	}

	if !result.Valid {
		if opts.Format == "json" {
			if err := formatter.Error(ErrCodeSchemaFailed, "validation failed", result); err != nil {
				return err
			}
		} else {
			for _, ve := range validationErrors {
				fmt.Fprintf(formatter.Writer, "%s: [%s] %s\n", ve.File, ve.Code, ve.Message)
			}
			fmt.Fprintf(formatter.Writer, "%d file(s), %d error(s)\n", len(files), len(validationErrors))
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(validationErrors)))
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "%d file(s) valid\n", len(files))
	return nil
}

// compileSchema compiles the embedded schema and resolves the scenario
// definition.
func compileSchema() (cue.Value, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, err
	}
	schema := v.LookupPath(cue.ParsePath("#Scenario"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, err
	}
	return schema, nil
}

// validateFile checks one scenario file against the CUE schema, then runs
// the harness's structural validation.
func validateFile(schema cue.Value, path string) []ValidationError {
	data, err := os.ReadFile(path)
	if err != nil {
		return []ValidationError{{File: path, Code: ErrCodeNotFound, Message: err.Error()}}
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return []ValidationError{{File: path, Code: ErrCodeParseFailed, Message: err.Error()}}
	}

	value := schema.Context().BuildFile(file)
	if err := value.Err(); err != nil {
		return []ValidationError{{File: path, Code: ErrCodeParseFailed, Message: err.Error()}}
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return []ValidationError{{File: path, Code: ErrCodeSchemaFailed, Message: err.Error()}}
	}

	// Schema-clean files can still have dangling references; the harness
	// decoder checks those.
	if _, err := harness.ParseScenario(data); err != nil {
		return []ValidationError{{File: path, Code: ErrCodeParseFailed, Message: err.Error()}}
	}

	return nil
}

func outputValidateError(formatter *OutputFormatter, code, message string) error {
	if err := formatter.Error(code, message, nil); err != nil {
		return err
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
