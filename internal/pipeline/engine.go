package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vvvsurvey/pawpipe/internal/store"
	"github.com/vvvsurvey/pawpipe/internal/survey"
)

// Engine runs registered steps against the entity store.
//
// Scheduling is batch-sequential: one pipeline invocation visits each
// step's eligible entities in stable name order and processes them one
// at a time. Per-entity independence means a future implementation
// could fan out, provided commits stay serialized per row; nothing in
// the engine relies on cross-entity ordering.
//
// ERROR HANDLING: a failure in one entity's processing is recorded
// against that entity (status -> failed where the kind has one, cause
// retained) and the run continues with the next entity. Entities whose
// snapshots were already committed stay committed.
type Engine struct {
	store  *store.Store
	steps  []Step
	tokens TokenGenerator
}

// New creates an engine over the given store. A nil generator defaults
// to UUIDv7 run tokens.
func New(s *store.Store, tokens TokenGenerator) *Engine {
	if tokens == nil {
		tokens = UUIDv7Generator{}
	}
	return &Engine{store: s, tokens: tokens}
}

// Register adds steps in declaration order. Step names must be unique;
// declaration order is the execution order within a run.
func (e *Engine) Register(steps ...Step) error {
	seen := make(map[string]bool, len(e.steps)+len(steps))
	for _, s := range e.steps {
		seen[s.Name()] = true
	}
	for _, s := range steps {
		if seen[s.Name()] {
			return fmt.Errorf("duplicate step name: %s", s.Name())
		}
		seen[s.Name()] = true
		e.steps = append(e.steps, s)
	}
	return nil
}

// Steps returns the registered steps in declaration order.
func (e *Engine) Steps() []Step {
	return e.steps
}

// Failure records one entity that could not be advanced.
type Failure struct {
	Name  string
	Code  string
	Cause string
}

// StepReport summarizes one step's slice of a run.
type StepReport struct {
	Step      string
	Eligible  int
	Succeeded []string
	Failures  []Failure
}

// Report summarizes a whole run for operator-facing output.
type Report struct {
	RunToken string
	Steps    []StepReport
}

// Failed reports whether any entity failed during the run.
func (r *Report) Failed() bool {
	for _, s := range r.Steps {
		if len(s.Failures) > 0 {
			return true
		}
	}
	return false
}

// Run executes every registered step whose group matches, in
// declaration order. An empty group runs all steps.
//
// The returned error covers engine-level problems (store unreachable,
// condition compilation); per-entity failures are reported in the
// Report, never as an error.
func (e *Engine) Run(ctx context.Context, group string) (*Report, error) {
	report := &Report{RunToken: e.tokens.Generate()}
	log := slog.With("run", report.RunToken)
	log.Info("pipeline run starting", "group", groupLabel(group))

	for _, step := range e.steps {
		if group != "" && step.Group() != group {
			continue
		}
		sr, err := e.runStep(ctx, log, step, report.RunToken)
		if err != nil {
			return report, fmt.Errorf("step %s: %w", step.Name(), err)
		}
		report.Steps = append(report.Steps, *sr)
	}

	log.Info("pipeline run finished", "steps", len(report.Steps), "failed", report.Failed())
	return report, nil
}

func (e *Engine) runStep(ctx context.Context, log *slog.Logger, step Step, runToken string) (*StepReport, error) {
	names, err := e.store.SelectNames(ctx, step.Kind(), step.Conditions())
	if err != nil {
		return nil, err
	}

	sr := &StepReport{Step: step.Name(), Eligible: len(names)}
	log.Info("step starting", "step", step.Name(), "eligible", len(names))

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.processOne(ctx, log, step, name, runToken, sr)
	}

	log.Info("step finished",
		"step", step.Name(),
		"succeeded", len(sr.Succeeded),
		"failed", len(sr.Failures),
	)
	return sr, nil
}

// processOne advances a single entity inside its own transactional
// boundary. Every exit path either commits the updated snapshot or
// records a fault; nothing here can abort the surrounding batch.
func (e *Engine) processOne(ctx context.Context, log *slog.Logger, step Step, name, runToken string, sr *StepReport) {
	snap, err := e.store.Get(ctx, step.Kind(), name)
	if err != nil {
		sr.Failures = append(sr.Failures, Failure{Name: name, Code: "ERROR", Cause: err.Error()})
		log.Error("entity load failed", "step", step.Name(), "entity", name, "error", err)
		return
	}

	fail := func(err error) {
		code := FaultCode(err)
		sr.Failures = append(sr.Failures, Failure{Name: name, Code: code, Cause: err.Error()})
		log.Error("entity processing failed",
			"step", step.Name(), "entity", name, "code", code, "error", err)
		if recErr := e.store.RecordFault(ctx, snap, err.Error(), runToken); recErr != nil {
			log.Error("fault recording failed", "entity", name, "error", recErr)
		}
	}

	// Hold the entity in a transient status while the step works, so
	// the row is never selectable twice and a crash leaves evidence.
	if tr, ok := step.(Transitional); ok {
		if err := e.markTransient(ctx, snap, tr); err != nil {
			fail(err)
			return
		}
	}

	updated, err := step.Process(ctx, snap)
	if err != nil {
		fail(err)
		return
	}
	if updated == nil {
		// Step yielded nothing: leave the entity as it stands.
		log.Debug("entity yielded no update", "step", step.Name(), "entity", name)
		sr.Succeeded = append(sr.Succeeded, name)
		return
	}

	if err := e.store.Commit(ctx, updated); err != nil {
		fail(err)
		return
	}

	sr.Succeeded = append(sr.Succeeded, name)
	log.Info("entity advanced",
		"step", step.Name(),
		"entity", name,
		"status", string(updated.EntityStatus()),
	)
}

func (e *Engine) markTransient(ctx context.Context, snap survey.Entity, tr Transitional) error {
	if err := survey.SetStatus(snap, tr.TransientStatus()); err != nil {
		return err
	}
	return e.store.Commit(ctx, snap)
}

func groupLabel(group string) string {
	if group == "" {
		return "all"
	}
	return group
}
