package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vvvsurvey/pawpipe/internal/survey"
)

// InsertTile registers a tile, normally done by the catalog ingestion
// collaborator. The entity's ID is populated on return.
func (s *Store) InsertTile(ctx context.Context, t *survey.Tile) error {
	if t.Status == "" {
		t.Status = survey.StatusRaw
	}
	if !survey.ValidStatus(survey.KindTile, t.Status) {
		return fmt.Errorf("insert tile %s: invalid status %q", t.Name, t.Status)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tiles (name, status, ogle3_tagged, size, ready, catalog_path)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.Name, string(t.Status), t.OGLE3Tagged, t.Size, t.Ready, t.CatalogPath)
	if err != nil {
		return fmt.Errorf("insert tile %s: %w", t.Name, err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert tile %s: %w", t.Name, err)
	}
	return nil
}

// InsertPawprintStack registers a raw exposure. Band, mjd and the
// artifact stay NULL until the normalization step commits them.
func (s *Store) InsertPawprintStack(ctx context.Context, p *survey.PawprintStack) error {
	if p.Status == "" {
		p.Status = survey.StatusRaw
	}
	if !survey.ValidStatus(survey.KindPawprintStack, p.Status) {
		return fmt.Errorf("insert pawprint %s: invalid status %q", p.Name, p.Status)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO pawprint_stacks (name, status, band, mjd, size, raw_path, artifact_path)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.Name, string(p.Status), nullStr(p.Band), nullFloat(p.MJD), p.Size, p.RawPath, nullStr(p.ArtifactPath))
	if err != nil {
		return fmt.Errorf("insert pawprint %s: %w", p.Name, err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert pawprint %s: %w", p.Name, err)
	}
	return nil
}

// InsertPawprintXTile creates the association between a tile and a
// pawprint stack. The UNIQUE (tile_id, pawprint_stack_id) constraint
// enforces at most one association per pair.
func (s *Store) InsertPawprintXTile(ctx context.Context, tileName, pawprintName string) (*survey.PawprintXTile, error) {
	tile, err := s.GetTile(ctx, tileName)
	if err != nil {
		return nil, fmt.Errorf("insert association: %w", err)
	}
	paw, err := s.GetPawprintStack(ctx, pawprintName)
	if err != nil {
		return nil, fmt.Errorf("insert association: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO pawprint_x_tiles (tile_id, pawprint_stack_id, status)
		VALUES (?, ?, ?)
	`, tile.ID, paw.ID, string(survey.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("insert association %s:%s: %w", tileName, pawprintName, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert association %s:%s: %w", tileName, pawprintName, err)
	}

	return &survey.PawprintXTile{
		ID:              id,
		TileID:          tile.ID,
		PawprintStackID: paw.ID,
		TileName:        tileName,
		PawprintName:    pawprintName,
		Status:          survey.StatusPending,
	}, nil
}

// PutLightCurves attaches (or replaces) the feature-table artifact of
// a tile.
func (s *Store) PutLightCurves(ctx context.Context, tileName, featuresPath string) (*survey.LightCurves, error) {
	tile, err := s.GetTile(ctx, tileName)
	if err != nil {
		return nil, fmt.Errorf("put light curves: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO light_curves (tile_id, features_path)
		VALUES (?, ?)
		ON CONFLICT(tile_id) DO UPDATE SET features_path = excluded.features_path
	`, tile.ID, featuresPath)
	if err != nil {
		return nil, fmt.Errorf("put light curves for %s: %w", tileName, err)
	}
	id, _ := res.LastInsertId()
	return &survey.LightCurves{ID: id, TileID: tile.ID, FeaturesPath: featuresPath}, nil
}

// Commit writes an entity snapshot back to its row in one transaction.
//
// The current persisted status is re-read inside the transaction and
// the (current -> snapshot) transition is validated against the
// survey transition tables; an illegal move aborts the commit. A
// successful commit clears any recorded fault.
func (s *Store) Commit(ctx context.Context, e survey.Entity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit %s %s: begin tx: %w", e.EntityKind(), e.EntityName(), err)
	}
	defer tx.Rollback() // no-op if committed

	if err := s.commitTx(ctx, tx, e); err != nil {
		return fmt.Errorf("commit %s %s: %w", e.EntityKind(), e.EntityName(), err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s %s: %w", e.EntityKind(), e.EntityName(), err)
	}
	return nil
}

func (s *Store) commitTx(ctx context.Context, tx *sql.Tx, e survey.Entity) error {
	switch ent := e.(type) {
	case *survey.Tile:
		if err := checkRowTransition(ctx, tx, e,
			`SELECT status FROM tiles WHERE id = ?`, ent.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE tiles
			SET status = ?, ogle3_tagged = ?, size = ?, ready = ?, catalog_path = ?,
			    fault = NULL, fault_run = NULL
			WHERE id = ?
		`, string(ent.Status), ent.OGLE3Tagged, ent.Size, ent.Ready, ent.CatalogPath, ent.ID)
		return err

	case *survey.PawprintStack:
		if err := checkRowTransition(ctx, tx, e,
			`SELECT status FROM pawprint_stacks WHERE id = ?`, ent.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE pawprint_stacks
			SET status = ?, band = ?, mjd = ?, size = ?, artifact_path = ?,
			    fault = NULL, fault_run = NULL
			WHERE id = ?
		`, string(ent.Status), nullStr(ent.Band), nullFloat(ent.MJD), ent.Size,
			nullStr(ent.ArtifactPath), ent.ID)
		return err

	case *survey.PawprintXTile:
		if err := checkRowTransition(ctx, tx, e,
			`SELECT status FROM pawprint_x_tiles WHERE id = ?`, ent.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE pawprint_x_tiles
			SET status = ?, matched_number = ?, fault = NULL, fault_run = NULL
			WHERE id = ?
		`, string(ent.Status), ent.MatchedNumber, ent.ID)
		return err

	default:
		return fmt.Errorf("unsupported entity type %T", e)
	}
}

// checkRowTransition validates the persisted-status -> snapshot-status
// edge inside the commit transaction.
func checkRowTransition(ctx context.Context, tx *sql.Tx, e survey.Entity, query string, id int64) error {
	var current string
	if err := tx.QueryRowContext(ctx, query, id).Scan(&current); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return err
	}
	return survey.CheckTransition(e.EntityKind(), survey.Status(current), e.EntityStatus())
}

// RecordFault marks an entity failed and retains the cause for
// operator inspection. Kinds without a failure status (tiles) keep
// their current status; only the cause and run token are recorded.
func (s *Store) RecordFault(ctx context.Context, e survey.Entity, cause, runToken string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record fault %s %s: begin tx: %w", e.EntityKind(), e.EntityName(), err)
	}
	defer tx.Rollback()

	table, err := tableFor(e.EntityKind())
	if err != nil {
		return fmt.Errorf("record fault: %w", err)
	}

	id, err := rowID(e)
	if err != nil {
		return fmt.Errorf("record fault: %w", err)
	}

	var current string
	q := fmt.Sprintf(`SELECT status FROM %s WHERE id = ?`, table)
	if err := tx.QueryRowContext(ctx, q, id).Scan(&current); err != nil {
		return fmt.Errorf("record fault %s %s: %w", e.EntityKind(), e.EntityName(), err)
	}

	status := survey.Status(current)
	if failed, ok := survey.FailureStatus(e.EntityKind()); ok &&
		survey.CanTransition(e.EntityKind(), status, failed) {
		status = failed
	}

	u := fmt.Sprintf(`UPDATE %s SET status = ?, fault = ?, fault_run = ? WHERE id = ?`, table)
	if _, err := tx.ExecContext(ctx, u, string(status), cause, runToken, id); err != nil {
		return fmt.Errorf("record fault %s %s: %w", e.EntityKind(), e.EntityName(), err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record fault %s %s: %w", e.EntityKind(), e.EntityName(), err)
	}
	return nil
}

func rowID(e survey.Entity) (int64, error) {
	switch ent := e.(type) {
	case *survey.Tile:
		return ent.ID, nil
	case *survey.PawprintStack:
		return ent.ID, nil
	case *survey.PawprintXTile:
		return ent.ID, nil
	default:
		return 0, fmt.Errorf("unsupported entity type %T", e)
	}
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: f != 0}
}
