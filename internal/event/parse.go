package event

import "fmt"

// ParseType resolves a type name produced by Type.String.
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// ParseRule resolves a rule name produced by Rule.String.
func ParseRule(s string) (Rule, error) {
	for r, name := range ruleNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown coalescing rule %q", s)
}

// ParseState resolves a state-bit name from StateNames.
func ParseState(s string) (uint64, error) {
	for bit, name := range StateNames {
		if name == s {
			return bit, nil
		}
	}
	return 0, fmt.Errorf("unknown state %q", s)
}
