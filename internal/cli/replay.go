package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/a11yq/internal/event"
	"github.com/roach88/a11yq/internal/harness"
	"github.com/roach88/a11yq/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string // optional - record traces into this database
}

// ReplayScenarioResult holds the replay result for a single scenario.
type ReplayScenarioResult struct {
	Name    string   `json:"name"`
	Passed  bool     `json:"passed"`
	Events  int      `json:"events"`
	CycleID string   `json:"cycle_id,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Scenarios []ReplayScenarioResult `json:"scenarios"`
	Total     int                    `json:"total"`
	Passed    int                    `json:"passed"`
	AllPassed bool                   `json:"all_passed"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <scenarios-dir>",
		Short: "Replay scenarios through the event queue",
		Long: `Replay scenario files through the event queue and evaluate their
assertions against the dispatched trace.

With --db, every replayed cycle is recorded: one cycle row plus one
dispatch row per trace entry, for later inspection with the trace command.

Exit codes:
  0 - All scenarios passed
  1 - At least one assertion failed
  2 - Command error (directory not found, database error, etc.)

Examples:
  a11yq replay ./scenarios
  a11yq replay ./scenarios --db ./a11yq.db
  a11yq replay ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record traces into this SQLite database")

	return cmd
}

func runReplay(opts *ReplayOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	scenarios, loadErrors := LoadScenarios(dir)
	if len(loadErrors) > 0 {
		if err := formatter.Error(ErrCodeParseFailed, "scenario loading failed", loadErrors); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, loadErrors[0].Error())
	}

	var st *store.Store
	if opts.Database != "" {
		var err error
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
	}

	result := ReplayResult{Scenarios: make([]ReplayScenarioResult, 0, len(scenarios))}
	for _, scenario := range scenarios {
		formatter.VerboseLog("Replaying %s", scenario.Name)

		runResult, err := harness.Run(scenario)
		if err != nil {
			return WrapExitError(ExitCommandError,
				fmt.Sprintf("replaying %s", scenario.Name), err)
		}

		sr := ReplayScenarioResult{
			Name:   scenario.Name,
			Passed: runResult.Passed(),
			Events: len(runResult.Trace),
			Errors: runResult.Errors,
		}

		if st != nil {
			cycleID, err := recordCycle(cmd.Context(), st, scenario.Name, runResult)
			if err != nil {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("recording %s", scenario.Name), err)
			}
			sr.CycleID = cycleID
		}

		result.Scenarios = append(result.Scenarios, sr)
		result.Total++
		if sr.Passed {
			result.Passed++
		}
	}
	result.AllPassed = result.Passed == result.Total

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		for _, sr := range result.Scenarios {
			status := "PASS"
			if !sr.Passed {
				status = "FAIL"
			}
			fmt.Fprintf(formatter.Writer, "%s  %s (%d trace events)\n", status, sr.Name, sr.Events)
			for _, msg := range sr.Errors {
				fmt.Fprintf(formatter.Writer, "  %s\n", msg)
			}
			if sr.CycleID != "" {
				formatter.VerboseLog("  recorded as cycle %s", sr.CycleID)
			}
		}
		fmt.Fprintf(formatter.Writer, "%d/%d scenarios passed\n", result.Passed, result.Total)
	}

	if !result.AllPassed {
		return NewExitError(ExitFailure,
			fmt.Sprintf("%d scenario(s) failed", result.Total-result.Passed))
	}
	return nil
}

// recordCycle persists one replayed trace and returns its cycle ID.
func recordCycle(ctx context.Context, st *store.Store, scenarioName string, result *harness.Result) (string, error) {
	cycle := store.Cycle{
		ID:        store.NewCycleID(),
		Scenario:  scenarioName,
		CreatedAt: time.Now(),
	}

	dispatches := make([]store.Dispatch, 0, len(result.Trace))
	for _, te := range result.Trace {
		detail, err := dispatchDetail(te)
		if err != nil {
			return "", fmt.Errorf("trace seq %d: %w", te.Seq, err)
		}
		dispatches = append(dispatches, store.Dispatch{
			CycleID:   cycle.ID,
			Seq:       te.Seq,
			Sink:      te.Sink,
			EventType: te.Type,
			Target:    te.Target,
			Detail:    detail,
			UserInput: te.UserInput,
		})
	}

	if err := st.WriteTrace(ctx, cycle, dispatches); err != nil {
		return "", err
	}
	return cycle.ID, nil
}

// dispatchDetail serializes the trace fields that have no column of their
// own. Returns "" when there is nothing beyond the broken-out columns.
func dispatchDetail(te harness.TraceEvent) (string, error) {
	detail := map[string]any{}
	if te.State != "" {
		detail["state"] = te.State
	}
	if te.Enabled != nil {
		detail["enabled"] = *te.Enabled
	}
	if te.Selected != nil {
		detail["selected"] = te.Selected
	}
	if te.Unselected != nil {
		detail["unselected"] = te.Unselected
	}
	if len(detail) == 0 {
		return "", nil
	}

	data, err := event.MarshalCanonical(detail)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
