package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s\n", i+1, event.Sink, event.Desc())
	}

	return buf.String()
}

// sinkEvents returns the dispatched portion of the trace: everything sent to
// the focus, dispatch, and selection sinks, in seq order. Channel traffic is
// excluded so ordering assertions are about event delivery only.
func sinkEvents(trace []TraceEvent) []TraceEvent {
	var out []TraceEvent
	for _, event := range trace {
		if event.Sink != "channel" {
			out = append(out, event)
		}
	}
	return out
}

// assertDispatchOrder checks that the listed event descriptors appear in the
// trace in the given order. Intervening events are allowed.
func assertDispatchOrder(trace []TraceEvent, assertion Assertion) error {
	events := sinkEvents(trace)

	positions := make(map[string]int)
	for i, event := range events {
		desc := event.Desc()
		if _, seen := positions[desc]; !seen {
			positions[desc] = i + 1 // 1-indexed for readability
		}
	}

	for _, desc := range assertion.Events {
		if positions[desc] == 0 {
			return &AssertionError{
				Type:     AssertDispatchOrder,
				Expected: fmt.Sprintf("all events present: %v", assertion.Events),
				Actual:   fmt.Sprintf("missing event: %s", desc),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Events); i++ {
		prev := assertion.Events[i-1]
		curr := assertion.Events[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertDispatchOrder,
				Expected: fmt.Sprintf("events in order: %v", assertion.Events),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertDispatchContains checks that the event descriptor was delivered to
// some sink at least once.
func assertDispatchContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range sinkEvents(trace) {
		if event.Desc() == assertion.Event {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertDispatchContains,
		Expected: fmt.Sprintf("event %s delivered", assertion.Event),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertDispatchCount checks that the event descriptor was delivered exactly
// Count times.
func assertDispatchCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range sinkEvents(trace) {
		if event.Desc() == assertion.Event {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertDispatchCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Event),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertNoDispatch checks that the event descriptor never reached a sink.
// Coalesced-away events must leave no trace.
func assertNoDispatch(trace []TraceEvent, assertion Assertion) error {
	for _, event := range sinkEvents(trace) {
		if event.Desc() == assertion.Event {
			return &AssertionError{
				Type:     AssertNoDispatch,
				Expected: fmt.Sprintf("no delivery of %s", assertion.Event),
				Actual:   fmt.Sprintf("delivered at seq %d", event.Seq),
				Trace:    trace,
			}
		}
	}

	return nil
}

// assertSelectionDeltas checks the batched selection delta sent over the
// channel at the end of the cycle. Order matters: deltas are collected in
// first-seen item order.
func assertSelectionDeltas(trace []TraceEvent, assertion Assertion) error {
	var batch *TraceEvent
	for i := range trace {
		if trace[i].Sink == "channel" && trace[i].Type == "selected_accessibles_changed" {
			if batch != nil {
				return &AssertionError{
					Type:     AssertSelectionDeltas,
					Expected: "a single selection delta batch",
					Actual:   "multiple batches found",
					Trace:    trace,
				}
			}
			batch = &trace[i]
		}
	}

	if batch == nil {
		return &AssertionError{
			Type:     AssertSelectionDeltas,
			Expected: fmt.Sprintf("selected=%v unselected=%v", assertion.Selected, assertion.Unselected),
			Actual:   "no selection delta batch in trace",
			Trace:    trace,
		}
	}

	if !stringSlicesEqual(batch.Selected, assertion.Selected) ||
		!stringSlicesEqual(batch.Unselected, assertion.Unselected) {
		return &AssertionError{
			Type:     AssertSelectionDeltas,
			Expected: fmt.Sprintf("selected=%v unselected=%v", assertion.Selected, assertion.Unselected),
			Actual:   fmt.Sprintf("selected=%v unselected=%v", batch.Selected, batch.Unselected),
			Trace:    trace,
		}
	}

	return nil
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertDispatchOrder:
			err = assertDispatchOrder(result.Trace, assertion)
		case AssertDispatchContains:
			err = assertDispatchContains(result.Trace, assertion)
		case AssertDispatchCount:
			err = assertDispatchCount(result.Trace, assertion)
		case AssertNoDispatch:
			err = assertNoDispatch(result.Trace, assertion)
		case AssertSelectionDeltas:
			err = assertSelectionDeltas(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
