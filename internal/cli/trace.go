package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/a11yq/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	CycleID  string // optional - show one cycle's dispatches
}

// CycleSummary is one row of the cycle listing.
type CycleSummary struct {
	ID        string `json:"id"`
	Scenario  string `json:"scenario"`
	CreatedAt string `json:"created_at"`
}

// DispatchView is one dispatch row of the trace output.
type DispatchView struct {
	Seq       int    `json:"seq"`
	Sink      string `json:"sink"`
	EventType string `json:"event_type"`
	Target    string `json:"target,omitempty"`
	Detail    string `json:"detail,omitempty"`
	UserInput bool   `json:"user_input,omitempty"`
}

// CycleTrace holds one recorded cycle with its dispatches.
type CycleTrace struct {
	Cycle      CycleSummary   `json:"cycle"`
	Dispatches []DispatchView `json:"dispatches"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded flush cycles",
		Long: `Inspect flush cycles recorded by replay --db.

Without --cycle, lists all recorded cycles newest first. With --cycle,
prints the cycle's dispatches in delivery order.

Examples:
  a11yq trace --db ./a11yq.db
  a11yq trace --db ./a11yq.db --cycle 0b51cf5e-...
  a11yq trace --db ./a11yq.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.CycleID, "cycle", "", "show dispatches for this cycle")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.CycleID == "" {
		return listCycles(opts, st, formatter, cmd)
	}
	return showCycle(opts, st, formatter, cmd)
}

func listCycles(opts *TraceOptions, st *store.Store, formatter *OutputFormatter, cmd *cobra.Command) error {
	cycles, err := st.ListCycles(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list cycles", err)
	}

	summaries := make([]CycleSummary, 0, len(cycles))
	for _, c := range cycles {
		summaries = append(summaries, CycleSummary{
			ID:        c.ID,
			Scenario:  c.Scenario,
			CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	if opts.Format == "json" {
		return formatter.Success(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(formatter.Writer, "No cycles recorded.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(formatter.Writer, "%s  %s  %s\n", s.ID, s.CreatedAt, s.Scenario)
	}
	return nil
}

func showCycle(opts *TraceOptions, st *store.Store, formatter *OutputFormatter, cmd *cobra.Command) error {
	cycle, dispatches, err := st.ReadCycle(cmd.Context(), opts.CycleID)
	if err != nil {
		return WrapExitError(ExitCommandError,
			fmt.Sprintf("failed to read cycle %s", opts.CycleID), err)
	}

	views := make([]DispatchView, 0, len(dispatches))
	for _, d := range dispatches {
		views = append(views, DispatchView{
			Seq:       d.Seq,
			Sink:      d.Sink,
			EventType: d.EventType,
			Target:    d.Target,
			Detail:    d.Detail,
			UserInput: d.UserInput,
		})
	}

	trace := CycleTrace{
		Cycle: CycleSummary{
			ID:        cycle.ID,
			Scenario:  cycle.Scenario,
			CreatedAt: cycle.CreatedAt.UTC().Format(time.RFC3339),
		},
		Dispatches: views,
	}

	if opts.Format == "json" {
		return formatter.Success(trace)
	}

	fmt.Fprintf(formatter.Writer, "cycle %s (%s)\n", trace.Cycle.ID, trace.Cycle.Scenario)
	for _, d := range views {
		line := fmt.Sprintf("[%d] %s %s", d.Seq, d.Sink, d.EventType)
		if d.Target != "" {
			line += ":" + d.Target
		}
		if d.Detail != "" {
			line += "  " + d.Detail
		}
		fmt.Fprintln(formatter.Writer, line)
	}
	return nil
}
