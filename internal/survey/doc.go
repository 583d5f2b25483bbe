// Package survey defines the persisted entities of the pawprint
// pipeline and their status state machines.
//
// Four entity kinds exist:
//
//   - Tile: a fixed sky-region catalog unit.
//   - PawprintStack: one raw multi-detector exposure.
//   - PawprintStackXTile: the outcome of matching one pawprint stack
//     against one tile (at most one per pair).
//   - LightCurves: the feature table attached to a tile once it is
//     ready for variable-star work.
//
// Statuses are closed string enums. Every status mutation goes through
// the transition tables in status.go; the store rejects commits whose
// status change is not listed there. This is what lets a pipeline run
// resume from wherever entities currently stand without re-running
// completed work: state lives in the rows, never in process memory.
package survey
