package store

import (
	"fmt"
	"strings"

	"github.com/vvvsurvey/pawpipe/internal/survey"
)

// Op is a comparison operator usable in an eligibility condition.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
)

// Condition is one eligibility predicate over a persisted field, e.g.
// {Field: "status", Op: OpEq, Value: "raw"}. Conditions are combined
// with AND.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Eq is shorthand for an equality condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// StatusIs is the most common predicate: entity status equals st.
func StatusIs(st survey.Status) Condition {
	return Eq("status", string(st))
}

// tableFor maps an entity kind to its table name.
func tableFor(kind survey.Kind) (string, error) {
	switch kind {
	case survey.KindTile:
		return "tiles", nil
	case survey.KindPawprintStack:
		return "pawprint_stacks", nil
	case survey.KindPawprintXTile:
		return "pawprint_x_tiles", nil
	default:
		return "", fmt.Errorf("kind %q has no entity table", kind)
	}
}

// conditionFields is the per-table allowlist of fields a condition may
// reference. Field names are interpolated into SQL, so anything not
// listed here is rejected; values are always parameterized.
var conditionFields = map[string]map[string]bool{
	"tiles": {
		"name": true, "status": true, "ready": true, "ogle3_tagged": true,
	},
	"pawprint_stacks": {
		"name": true, "status": true, "band": true,
	},
	"pawprint_x_tiles": {
		"status": true, "tile_id": true, "pawprint_stack_id": true,
	},
}

// compileConditions builds the WHERE clause and parameter list for a
// condition set. Every compiled query carries a stable ORDER BY so
// batch processing is deterministic per entity.
func compileConditions(table string, conds []Condition) (where string, params []any, err error) {
	allowed := conditionFields[table]
	var parts []string
	for _, c := range conds {
		if !allowed[c.Field] {
			return "", nil, fmt.Errorf("field %q is not selectable on %s", c.Field, table)
		}
		switch c.Op {
		case OpEq, OpNe:
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
		parts = append(parts, fmt.Sprintf("%s %s ?", c.Field, c.Op))
		params = append(params, c.Value)
	}
	if len(parts) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(parts, " AND "), params, nil
}
