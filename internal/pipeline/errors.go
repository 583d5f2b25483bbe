package pipeline

import (
	"errors"
	"fmt"

	"github.com/vvvsurvey/pawpipe/internal/survey"
)

// Coded is implemented by errors that carry a stable fault code.
// The typed errors of the catalog and sample packages implement it;
// the engine records the code alongside the cause so operators can
// group failures without parsing messages.
type Coded interface {
	error
	FaultCode() string
}

// FaultCode extracts the stable code from an error chain, falling back
// to "ERROR" for uncoded failures.
func FaultCode(err error) string {
	var c Coded
	if errors.As(err, &c) {
		return c.FaultCode()
	}
	return "ERROR"
}

// PreconditionError means an entity was eligible by its conditions but
// failed a runtime prerequisite (e.g. a tile advancing to feature
// extraction without an attached light-curves artifact). Reported per
// entity, never raised as a batch abort.
type PreconditionError struct {
	Kind   survey.Kind
	Name   string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed for %s %q: %s", e.Kind, e.Name, e.Reason)
}

// FaultCode marks the error for per-entity fault recording.
func (e *PreconditionError) FaultCode() string { return "PRECONDITION" }

// IsPrecondition reports whether the error chain holds a
// PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
