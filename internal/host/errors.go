package host

import "fmt"

// Stage names the step of Run that failed.
type Stage uint8

const (
	StageResolve Stage = iota
	StageLoad
)

func (s Stage) String() string {
	if s == StageLoad {
		return "load"
	}
	return "resolve"
}

// StageError wraps a failure with the stage and module it belongs to.
type StageError struct {
	Stage     Stage
	Specifier string
	URL       string
	Err       error
}

func (e *StageError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s %s: %v", e.Stage, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Stage, e.Specifier, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
