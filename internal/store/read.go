package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vvvsurvey/pawpipe/internal/survey"
)

// ErrNotFound is returned when a named entity does not exist.
var ErrNotFound = errors.New("entity not found")

// GetTile reads one tile snapshot by name.
func (s *Store) GetTile(ctx context.Context, name string) (*survey.Tile, error) {
	t := &survey.Tile{}
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, ogle3_tagged, size, ready, catalog_path
		FROM tiles WHERE name = ?
	`, name).Scan(&t.ID, &t.Name, &status, &t.OGLE3Tagged, &t.Size, &t.Ready, &t.CatalogPath)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: tile %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get tile %s: %w", name, err)
	}
	t.Status = survey.Status(status)
	return t, nil
}

// GetPawprintStack reads one pawprint-stack snapshot by name.
func (s *Store) GetPawprintStack(ctx context.Context, name string) (*survey.PawprintStack, error) {
	p := &survey.PawprintStack{}
	var status string
	var band, artifact sql.NullString
	var mjd sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, band, mjd, size, raw_path, artifact_path
		FROM pawprint_stacks WHERE name = ?
	`, name).Scan(&p.ID, &p.Name, &status, &band, &mjd, &p.Size, &p.RawPath, &artifact)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: pawprint stack %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get pawprint %s: %w", name, err)
	}
	p.Status = survey.Status(status)
	p.Band = band.String
	p.MJD = mjd.Float64
	p.ArtifactPath = artifact.String
	return p, nil
}

const xTileSelect = `
	SELECT x.id, x.tile_id, x.pawprint_stack_id, t.name, p.name, x.status, x.matched_number
	FROM pawprint_x_tiles x
	JOIN tiles t ON t.id = x.tile_id
	JOIN pawprint_stacks p ON p.id = x.pawprint_stack_id
`

func scanXTile(row interface{ Scan(...any) error }) (*survey.PawprintXTile, error) {
	x := &survey.PawprintXTile{}
	var status string
	err := row.Scan(&x.ID, &x.TileID, &x.PawprintStackID,
		&x.TileName, &x.PawprintName, &status, &x.MatchedNumber)
	if err != nil {
		return nil, err
	}
	x.Status = survey.Status(status)
	return x, nil
}

// GetPawprintXTile reads one association snapshot by its pair names.
func (s *Store) GetPawprintXTile(ctx context.Context, tileName, pawprintName string) (*survey.PawprintXTile, error) {
	row := s.db.QueryRowContext(ctx, xTileSelect+`WHERE t.name = ? AND p.name = ?`,
		tileName, pawprintName)
	x, err := scanXTile(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: association %q:%q", ErrNotFound, tileName, pawprintName)
	}
	if err != nil {
		return nil, fmt.Errorf("get association %s:%s: %w", tileName, pawprintName, err)
	}
	return x, nil
}

// GetLightCurves reads the feature-table artifact attached to a tile.
func (s *Store) GetLightCurves(ctx context.Context, tileName string) (*survey.LightCurves, error) {
	lc := &survey.LightCurves{}
	err := s.db.QueryRowContext(ctx, `
		SELECT lc.id, lc.tile_id, lc.features_path
		FROM light_curves lc
		JOIN tiles t ON t.id = lc.tile_id
		WHERE t.name = ?
	`, tileName).Scan(&lc.ID, &lc.TileID, &lc.FeaturesPath)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: light curves for tile %q", ErrNotFound, tileName)
	}
	if err != nil {
		return nil, fmt.Errorf("get light curves %s: %w", tileName, err)
	}
	return lc, nil
}

// SelectNames returns the names of all entities of a kind satisfying
// every condition, in stable name order. Association names are the
// composite "tile:pawprint" pair.
//
// Ordering across entities is an implementation detail, not contract;
// name order is used so repeated runs visit entities deterministically.
func (s *Store) SelectNames(ctx context.Context, kind survey.Kind, conds []Condition) ([]string, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	where, params, err := compileConditions(table, conds)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", kind, err)
	}

	var query string
	if kind == survey.KindPawprintXTile {
		// Conditions reference the association table; names come from
		// the joined rows.
		where = strings.ReplaceAll(where, "status", "x.status")
		query = xTileSelect + strings.TrimPrefix(where, " ") +
			` ORDER BY t.name ASC, p.name ASC`
		rows, err := s.db.QueryContext(ctx, query, params...)
		if err != nil {
			return nil, fmt.Errorf("select %s: %w", kind, err)
		}
		defer rows.Close()
		names := []string{}
		for rows.Next() {
			x, err := scanXTile(rows)
			if err != nil {
				return nil, fmt.Errorf("select %s: %w", kind, err)
			}
			names = append(names, x.EntityName())
		}
		return names, rows.Err()
	}

	query = fmt.Sprintf(`SELECT name FROM %s%s ORDER BY name ASC`, table, where)
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", kind, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("select %s: %w", kind, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Get reads one entity snapshot of the given kind by name.
// Association names use the composite "tile:pawprint" form.
func (s *Store) Get(ctx context.Context, kind survey.Kind, name string) (survey.Entity, error) {
	switch kind {
	case survey.KindTile:
		return s.GetTile(ctx, name)
	case survey.KindPawprintStack:
		return s.GetPawprintStack(ctx, name)
	case survey.KindPawprintXTile:
		tileName, pawName, ok := strings.Cut(name, ":")
		if !ok {
			return nil, fmt.Errorf("association name %q is not tile:pawprint", name)
		}
		return s.GetPawprintXTile(ctx, tileName, pawName)
	default:
		return nil, fmt.Errorf("kind %q is not loadable by name", kind)
	}
}

// ListTiles returns tile snapshots, optionally filtered to the given
// statuses, in name order.
func (s *Store) ListTiles(ctx context.Context, statuses ...survey.Status) ([]*survey.Tile, error) {
	where, params := statusFilter(statuses)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status, ogle3_tagged, size, ready, catalog_path
		FROM tiles`+where+` ORDER BY name ASC`, params...)
	if err != nil {
		return nil, fmt.Errorf("list tiles: %w", err)
	}
	defer rows.Close()

	var out []*survey.Tile
	for rows.Next() {
		t := &survey.Tile{}
		var status string
		if err := rows.Scan(&t.ID, &t.Name, &status, &t.OGLE3Tagged, &t.Size, &t.Ready, &t.CatalogPath); err != nil {
			return nil, fmt.Errorf("list tiles: %w", err)
		}
		t.Status = survey.Status(status)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListPawprintStacks returns pawprint snapshots, optionally filtered
// to the given statuses, in name order.
func (s *Store) ListPawprintStacks(ctx context.Context, statuses ...survey.Status) ([]*survey.PawprintStack, error) {
	where, params := statusFilter(statuses)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status, band, mjd, size, raw_path, artifact_path
		FROM pawprint_stacks`+where+` ORDER BY name ASC`, params...)
	if err != nil {
		return nil, fmt.Errorf("list pawprints: %w", err)
	}
	defer rows.Close()

	var out []*survey.PawprintStack
	for rows.Next() {
		p := &survey.PawprintStack{}
		var status string
		var band, artifact sql.NullString
		var mjd sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.Name, &status, &band, &mjd, &p.Size, &p.RawPath, &artifact); err != nil {
			return nil, fmt.Errorf("list pawprints: %w", err)
		}
		p.Status = survey.Status(status)
		p.Band = band.String
		p.MJD = mjd.Float64
		p.ArtifactPath = artifact.String
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListPawprintXTiles returns association snapshots, optionally
// filtered to the given statuses, in pair-name order.
func (s *Store) ListPawprintXTiles(ctx context.Context, statuses ...survey.Status) ([]*survey.PawprintXTile, error) {
	where, params := statusFilter(statuses)
	where = strings.ReplaceAll(where, "status", "x.status")
	rows, err := s.db.QueryContext(ctx, xTileSelect+where+` ORDER BY t.name ASC, p.name ASC`, params...)
	if err != nil {
		return nil, fmt.Errorf("list associations: %w", err)
	}
	defer rows.Close()

	var out []*survey.PawprintXTile
	for rows.Next() {
		x, err := scanXTile(rows)
		if err != nil {
			return nil, fmt.Errorf("list associations: %w", err)
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

// AssociationsForPawprint returns every association involving the
// named pawprint stack, in tile-name order. Used to decide when a
// pawprint has been matched against all of its tiles.
func (s *Store) AssociationsForPawprint(ctx context.Context, pawprintName string) ([]*survey.PawprintXTile, error) {
	rows, err := s.db.QueryContext(ctx, xTileSelect+`WHERE p.name = ? ORDER BY t.name ASC`, pawprintName)
	if err != nil {
		return nil, fmt.Errorf("associations for %s: %w", pawprintName, err)
	}
	defer rows.Close()

	var out []*survey.PawprintXTile
	for rows.Next() {
		x, err := scanXTile(rows)
		if err != nil {
			return nil, fmt.Errorf("associations for %s: %w", pawprintName, err)
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

// Fault returns the recorded fault cause and run token for an entity,
// both empty when no fault is recorded.
func (s *Store) Fault(ctx context.Context, kind survey.Kind, name string) (cause, runToken string, err error) {
	e, err := s.Get(ctx, kind, name)
	if err != nil {
		return "", "", err
	}
	table, err := tableFor(kind)
	if err != nil {
		return "", "", err
	}
	id, err := rowID(e)
	if err != nil {
		return "", "", err
	}
	var c, r sql.NullString
	q := fmt.Sprintf(`SELECT fault, fault_run FROM %s WHERE id = ?`, table)
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&c, &r); err != nil {
		return "", "", fmt.Errorf("fault %s %s: %w", kind, name, err)
	}
	return c.String, r.String, nil
}

// TileNames returns every tile name, used for not-found suggestions.
func (s *Store) TileNames(ctx context.Context) ([]string, error) {
	return s.SelectNames(ctx, survey.KindTile, nil)
}

// statusFilter builds an optional "WHERE status IN (...)" clause.
func statusFilter(statuses []survey.Status) (string, []any) {
	if len(statuses) == 0 {
		return "", nil
	}
	marks := make([]string, len(statuses))
	params := make([]any, len(statuses))
	for i, st := range statuses {
		marks[i] = "?"
		params[i] = string(st)
	}
	return " WHERE status IN (" + strings.Join(marks, ", ") + ")", params
}
