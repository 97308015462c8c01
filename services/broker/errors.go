package broker

import "fmt"

// Kind classifies which collaborator failed.
type Kind string

const (
	KindScreener  Kind = "screener"
	KindExecution Kind = "execution"
	KindMonitor   Kind = "monitor"
	KindAccount   Kind = "account"
	KindReport    Kind = "report"
)

// Error wraps a collaborator failure with its kind and the script involved.
type Error struct {
	Kind   Kind
	Script string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s collaborator (%s): %v", e.Kind, e.Script, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
