package survey

import "fmt"

// Status is a persisted pipeline status label.
//
// The sets are closed per entity kind: a status not listed for a kind
// is invalid for that kind, and a transition not listed in the kind's
// table is rejected at commit time even if no current step attempts it.
type Status string

const (
	// StatusRaw is the initial status for tiles and pawprint stacks.
	StatusRaw Status = "raw"

	// StatusProcessing is transient, held only while a step is
	// actively working on the entity.
	StatusProcessing Status = "processing"

	// StatusReady means a pawprint stack has been normalized and its
	// band, mjd and artifact are populated.
	StatusReady Status = "ready"

	// StatusFailed is terminal until a manual reset back to raw.
	StatusFailed Status = "failed"

	// StatusReadyToMatch means the entity is waiting on the tile
	// matching stage.
	StatusReadyToMatch Status = "ready-to-match"

	// StatusMatched means matching finished for the entity.
	StatusMatched Status = "matched"

	// StatusPending is the initial status of a tile/pawprint
	// association, before matching runs.
	StatusPending Status = "pending"

	// StatusReadyToExtractFeatures means a tile holds a light-curves
	// artifact and feature extraction may begin.
	StatusReadyToExtractFeatures Status = "ready-to-extract-features"
)

// Kind identifies an entity table.
type Kind string

const (
	KindTile          Kind = "tile"
	KindPawprintStack Kind = "pawprint-stack"
	KindPawprintXTile Kind = "pawprint-x-tile"
	KindLightCurves   Kind = "light-curves"
)

// statuses holds the closed status set per kind.
var statuses = map[Kind][]Status{
	KindTile: {
		StatusRaw, StatusReadyToMatch, StatusReadyToExtractFeatures,
	},
	KindPawprintStack: {
		StatusRaw, StatusProcessing, StatusReady, StatusFailed,
		StatusReadyToMatch, StatusMatched,
	},
	KindPawprintXTile: {
		StatusPending, StatusMatched, StatusFailed,
	},
}

// transitions lists the allowed (from -> to) edges per kind.
// Self transitions are always allowed (commits that change other
// fields but not the status).
var transitions = map[Kind]map[Status][]Status{
	KindTile: {
		StatusRaw:          {StatusReadyToMatch},
		StatusReadyToMatch: {StatusReadyToExtractFeatures},
	},
	KindPawprintStack: {
		StatusRaw:          {StatusProcessing},
		StatusProcessing:   {StatusReady, StatusFailed},
		StatusReady:        {StatusReadyToMatch},
		StatusReadyToMatch: {StatusMatched, StatusFailed},
		StatusFailed:       {StatusRaw}, // manual reset
	},
	KindPawprintXTile: {
		StatusPending: {StatusMatched, StatusFailed},
		StatusFailed:  {StatusPending}, // manual reset
	},
}

// ValidStatus reports whether st belongs to the closed set for kind.
func ValidStatus(kind Kind, st Status) bool {
	for _, s := range statuses[kind] {
		if s == st {
			return true
		}
	}
	return false
}

// Statuses returns the closed status set for a kind, in declaration
// order. Used by the CLI for flag validation.
func Statuses(kind Kind) []Status {
	out := make([]Status, len(statuses[kind]))
	copy(out, statuses[kind])
	return out
}

// CanTransition reports whether kind entities may move from one
// status to another. A no-op transition (from == to) is always
// allowed so that commits which only touch payload fields pass.
func CanTransition(kind Kind, from, to Status) bool {
	if from == to {
		return ValidStatus(kind, to)
	}
	for _, next := range transitions[kind][from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition is CanTransition with a descriptive error.
func CheckTransition(kind Kind, from, to Status) error {
	if !ValidStatus(kind, to) {
		return fmt.Errorf("status %q is not valid for %s", to, kind)
	}
	if !CanTransition(kind, from, to) {
		return fmt.Errorf("%s may not move from %q to %q", kind, from, to)
	}
	return nil
}

// FailureStatus returns the status an entity of the given kind takes
// when a processing step fails, and whether such a status exists.
// Tiles have no failed status: a tile that cannot advance keeps its
// current status and only the fault cause is recorded.
func FailureStatus(kind Kind) (Status, bool) {
	switch kind {
	case KindPawprintStack, KindPawprintXTile:
		return StatusFailed, true
	default:
		return "", false
	}
}
