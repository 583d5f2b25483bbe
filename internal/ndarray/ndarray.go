// Package ndarray implements the binary columnar array artifact used
// for normalized pawprint arrays, tile catalogs, feature tables and
// feature samples.
//
// On disk the format is little-endian and versioned:
//
//	magic "PWPA" | u16 version | u16 ncols | u64 nrows
//	per column: u16 name length | name bytes | u8 kind
//	per column body, column-major:
//	  int64/float64: nrows * 8 bytes
//	  string:        per value u32 length | bytes
//
// Readers memory-map the file and decode into heap slices, so the
// mapping is released before Open returns.
package ndarray

import "fmt"

// Kind is the element type of a column.
type Kind uint8

const (
	Int64 Kind = iota
	Float64
	String
)

func (k Kind) String() string {
	switch k {
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case String:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Column is a single named, typed column. Exactly one of the value
// slices is populated, matching Kind.
type Column struct {
	Name    string
	Kind    Kind
	Ints    []int64
	Floats  []float64
	Strings []string
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	switch c.Kind {
	case Int64:
		return len(c.Ints)
	case Float64:
		return len(c.Floats)
	default:
		return len(c.Strings)
	}
}

// Array is an in-memory columnar table. All columns have the same
// row count.
type Array struct {
	Cols []Column
}

// Rows returns the row count (zero for an empty array).
func (a *Array) Rows() int {
	if len(a.Cols) == 0 {
		return 0
	}
	return a.Cols[0].Len()
}

// Names returns the column names in order.
func (a *Array) Names() []string {
	names := make([]string, len(a.Cols))
	for i := range a.Cols {
		names[i] = a.Cols[i].Name
	}
	return names
}

// Col returns the column with the given name.
func (a *Array) Col(name string) (*Column, error) {
	for i := range a.Cols {
		if a.Cols[i].Name == name {
			return &a.Cols[i], nil
		}
	}
	return nil, fmt.Errorf("column %q not found", name)
}

// FloatCol returns the float64 values of a named column, converting
// int64 columns on the fly. Used by the coordinate transform, which
// operates on float columns regardless of the stored kind.
func (a *Array) FloatCol(name string) ([]float64, error) {
	col, err := a.Col(name)
	if err != nil {
		return nil, err
	}
	switch col.Kind {
	case Float64:
		return col.Floats, nil
	case Int64:
		out := make([]float64, len(col.Ints))
		for i, v := range col.Ints {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("column %q is %s, not numeric", name, col.Kind)
	}
}

// check verifies column shape consistency before serialization.
func (a *Array) check() error {
	rows := a.Rows()
	seen := make(map[string]bool, len(a.Cols))
	for i := range a.Cols {
		c := &a.Cols[i]
		if c.Name == "" {
			return fmt.Errorf("column %d has no name", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = true
		if c.Len() != rows {
			return fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len(), rows)
		}
	}
	return nil
}

// SelectRows gathers the given row indices into a new array, in index
// order. Duplicate indices are allowed (sampling with replacement
// relies on this).
func (a *Array) SelectRows(idx []int) (*Array, error) {
	rows := a.Rows()
	for _, i := range idx {
		if i < 0 || i >= rows {
			return nil, fmt.Errorf("row index %d out of range [0,%d)", i, rows)
		}
	}
	out := &Array{Cols: make([]Column, len(a.Cols))}
	for ci := range a.Cols {
		src := &a.Cols[ci]
		dst := &out.Cols[ci]
		dst.Name = src.Name
		dst.Kind = src.Kind
		switch src.Kind {
		case Int64:
			dst.Ints = make([]int64, len(idx))
			for j, i := range idx {
				dst.Ints[j] = src.Ints[i]
			}
		case Float64:
			dst.Floats = make([]float64, len(idx))
			for j, i := range idx {
				dst.Floats[j] = src.Floats[i]
			}
		default:
			dst.Strings = make([]string, len(idx))
			for j, i := range idx {
				dst.Strings[j] = src.Strings[i]
			}
		}
	}
	return out, nil
}

// Concat appends b's rows after a's. Both arrays must share the same
// column names and kinds in the same order.
func Concat(a, b *Array) (*Array, error) {
	if len(a.Cols) != len(b.Cols) {
		return nil, fmt.Errorf("column count mismatch: %d vs %d", len(a.Cols), len(b.Cols))
	}
	out := &Array{Cols: make([]Column, len(a.Cols))}
	for i := range a.Cols {
		ca, cb := &a.Cols[i], &b.Cols[i]
		if ca.Name != cb.Name || ca.Kind != cb.Kind {
			return nil, fmt.Errorf("column %d mismatch: %s/%s vs %s/%s",
				i, ca.Name, ca.Kind, cb.Name, cb.Kind)
		}
		c := &out.Cols[i]
		c.Name = ca.Name
		c.Kind = ca.Kind
		switch ca.Kind {
		case Int64:
			c.Ints = append(append([]int64{}, ca.Ints...), cb.Ints...)
		case Float64:
			c.Floats = append(append([]float64{}, ca.Floats...), cb.Floats...)
		default:
			c.Strings = append(append([]string{}, ca.Strings...), cb.Strings...)
		}
	}
	return out, nil
}
