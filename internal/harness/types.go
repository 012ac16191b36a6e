package harness

// TraceEvent is one sink interaction captured during a scenario run.
// Sink is "focus", "dispatch", "selection", or "channel".
type TraceEvent struct {
	Seq    int    `json:"seq"`
	Sink   string `json:"sink"`
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`

	// State-change detail.
	State   string `json:"state,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`

	// Channel detail: node IDs of the batched selection delta.
	Selected   []string `json:"selected,omitempty"`
	Unselected []string `json:"unselected,omitempty"`

	// UserInput is set on user-initiated records.
	UserInput bool `json:"user_input,omitempty"`
}

// Desc returns the "type:target" descriptor used by assertions.
func (e TraceEvent) Desc() string {
	if e.Target == "" {
		return e.Type
	}
	return e.Type + ":" + e.Target
}

// Result holds a scenario run's trace and assertion failures.
type Result struct {
	ScenarioName string
	Trace        []TraceEvent
	Errors       []string
}

// NewResult creates an empty result for a scenario.
func NewResult(name string) *Result {
	return &Result{ScenarioName: name}
}

// AddError records an assertion failure.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Passed reports whether every assertion held.
func (r *Result) Passed() bool {
	return len(r.Errors) == 0
}

// toCanonicalMap converts the result to plain maps for canonical JSON
// serialization.
func (r *Result) toCanonicalMap() map[string]any {
	trace := make([]any, len(r.Trace))
	for i, e := range r.Trace {
		m := map[string]any{
			"seq":  e.Seq,
			"sink": e.Sink,
			"type": e.Type,
		}
		if e.Target != "" {
			m["target"] = e.Target
		}
		if e.State != "" {
			m["state"] = e.State
		}
		if e.Enabled != nil {
			m["enabled"] = *e.Enabled
		}
		if e.Selected != nil {
			m["selected"] = toAnySlice(e.Selected)
		}
		if e.Unselected != nil {
			m["unselected"] = toAnySlice(e.Unselected)
		}
		if e.UserInput {
			m["user_input"] = true
		}
		trace[i] = m
	}
	return map[string]any{
		"scenario_name": r.ScenarioName,
		"trace":         trace,
	}
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
