package pipeline

import (
	"context"

	"github.com/vvvsurvey/pawpipe/internal/store"
	"github.com/vvvsurvey/pawpipe/internal/survey"
)

// Step is one status-gated processing stage.
//
// Conditions select eligible entities from the persisted fields of the
// step's kind; Process receives a snapshot, works off-store, and
// returns the updated snapshot to commit. Returning (nil, nil) leaves
// the entity untouched.
type Step interface {
	// Name uniquely identifies the step in reports and logs.
	Name() string

	// Group is the logical grouping label ("preprocess", "match", ...)
	// used to run a subset of registered steps.
	Group() string

	// Kind is the entity kind this step processes.
	Kind() survey.Kind

	// Conditions are the eligibility predicates, combined with AND.
	Conditions() []store.Condition

	// Process computes the updated snapshot for one entity. Any error
	// is recorded against that entity only.
	Process(ctx context.Context, e survey.Entity) (survey.Entity, error)
}

// Transitional is implemented by steps that hold entities in a
// transient status while they work (raw -> processing -> ready). The
// engine commits the transient status before calling Process, so a
// concurrent run never selects the same entity twice.
type Transitional interface {
	TransientStatus() survey.Status
}
