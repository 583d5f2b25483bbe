// Package steps holds the concrete pipeline steps of the survey:
// catalog preprocessing for tiles and pawprint stacks, positional
// matching of pawprints against tiles, and the gate that releases
// tiles into feature extraction.
//
// Each step implements pipeline.Step and works only on in-memory
// snapshots; the engine owns selection, transient marking, commits
// and fault recording.
package steps
