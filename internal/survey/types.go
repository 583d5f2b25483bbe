package survey

import "fmt"

// Entity is implemented by every persisted pipeline entity.
// The store reads a snapshot, a step computes a new snapshot off-store,
// and the store writes it back in one commit per entity.
type Entity interface {
	EntityKind() Kind
	EntityName() string
	EntityStatus() Status
}

// Tile is a fixed sky region. Tiles are created during catalog
// ingestion and never deleted during normal operation; only the
// pipeline engine advances their status.
type Tile struct {
	ID     int64
	Name   string
	Status Status

	// OGLE3Tagged counts catalog tags matched against this tile.
	OGLE3Tagged int64

	// Size is the byte size of the tile catalog.
	Size int64

	// Ready flags the tile for downstream feature extraction.
	Ready bool

	// CatalogPath points at the tile's source-catalog artifact.
	CatalogPath string
}

func (t *Tile) EntityKind() Kind     { return KindTile }
func (t *Tile) EntityName() string   { return t.Name }
func (t *Tile) EntityStatus() Status { return t.Status }

// PawprintStack is one raw telescope exposure.
//
// Band and MJD stay unset until the normalization step succeeds; they
// are populated in the same commit that moves the status to ready.
type PawprintStack struct {
	ID     int64
	Name   string
	Status Status

	// Band is the photometric band, empty until normalization.
	Band string

	// MJD is the modified Julian date of the observation, zero until
	// normalization.
	MJD float64

	// Size is the byte size of the raw file.
	Size int64

	// RawPath is the raw exposure file on disk.
	RawPath string

	// ArtifactPath is the normalized binary array, empty until the
	// normalization step succeeds.
	ArtifactPath string
}

func (p *PawprintStack) EntityKind() Kind     { return KindPawprintStack }
func (p *PawprintStack) EntityName() string   { return p.Name }
func (p *PawprintStack) EntityStatus() Status { return p.Status }

// PawprintXTile records the outcome of matching one pawprint stack
// against one tile. At most one association exists per pair; the
// references are lookups only, the engine never cascades through them.
type PawprintXTile struct {
	ID              int64
	TileID          int64
	PawprintStackID int64

	// TileName and PawprintName are resolved on read for reporting.
	TileName     string
	PawprintName string

	Status Status

	// MatchedNumber is the count of positionally matched records.
	MatchedNumber int64
}

func (x *PawprintXTile) EntityKind() Kind     { return KindPawprintXTile }
func (x *PawprintXTile) EntityStatus() Status { return x.Status }

// EntityName is the composite "tile:pawprint" pair name.
func (x *PawprintXTile) EntityName() string {
	return fmt.Sprintf("%s:%s", x.TileName, x.PawprintName)
}

// SetStatus mutates an entity snapshot's status field in memory.
// Persisted validation still happens at commit time; this only keeps
// the engine free of per-kind type switches.
func SetStatus(e Entity, st Status) error {
	switch ent := e.(type) {
	case *Tile:
		ent.Status = st
	case *PawprintStack:
		ent.Status = st
	case *PawprintXTile:
		ent.Status = st
	default:
		return fmt.Errorf("entity type %T has no status", e)
	}
	return nil
}

// LightCurves is the feature table attached to a tile. It is created
// once per tile and read-only afterwards except for replacement by
// re-extraction.
type LightCurves struct {
	ID     int64
	TileID int64

	// FeaturesPath is the columnar feature-table artifact. Rows carry
	// a classification tag field that is the empty string for unknown
	// sources.
	FeaturesPath string
}
