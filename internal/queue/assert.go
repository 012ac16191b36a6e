package queue

import "fmt"

// Assertions toggles debug-only invariant checks. Defunct targets and
// mid-flush teardown are expected conditions and never assert; only
// programming errors do. Tests enable this; production builds leave it off
// so a violated invariant degrades to a log-free no-op instead of a crash.
var Assertions = false

func assertf(cond bool, format string, args ...any) {
	if !cond && Assertions {
		panic(fmt.Sprintf("queue invariant violated: "+format, args...))
	}
}
