package sdm

import "fmt"

// ParseError reports a truncated FileSettings buffer (spec §4.F, spec §7
// ParseError).
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return fmt.Sprintf("sdm: parse error: %s", e.Msg) }

// BuildError reports an NDEF template that is too long (spec §4.G step 3)
// or whose placeholder markers are missing or not all ASCII '0' (step 5).
// The base URL itself is not validated.
type BuildError struct {
	Msg string
}

func (e *BuildError) Error() string { return fmt.Sprintf("sdm: build error: %s", e.Msg) }
