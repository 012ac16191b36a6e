// Package harness provides a conformance harness for the event queue.
//
// A scenario file describes an accessible tree, a sequence of submitted
// events, and assertions over the resulting dispatch trace. The runner
// builds the tree from deterministic fakes, plays the submissions into a
// real queue, flushes once, and captures every sink interaction in one
// ordered trace.
//
// Traces serialize to canonical JSON, so golden files under testdata/golden
// compare byte-for-byte across runs. Regenerate them with:
//
//	go test ./internal/harness -update
package harness
