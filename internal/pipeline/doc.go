// Package pipeline is the status-gated processing engine.
//
// A Step declares an entity kind, a set of eligibility conditions over
// persisted fields, a grouping label, and a processing function. The
// engine selects every entity satisfying all conditions, runs the
// function once per entity inside that entity's own transactional
// boundary, and commits the yielded snapshot or records the failure
// and moves on. One bad exposure never aborts a batch; entities
// outside a step's conditions are never touched.
//
// The engine is deliberately a pure function of (entity snapshot,
// condition set): no mutable process-wide flags, so a run resumes from
// wherever the store says entities currently stand.
package pipeline
