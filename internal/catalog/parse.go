package catalog

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vvvsurvey/pawpipe/internal/ndarray"
)

// ParseTable reads a converter ASCII table into a columnar array with
// the 27-column pawprint schema.
//
// Parsing is strict: every non-blank, non-comment line must carry
// exactly 27 parseable fields. Any malformed or short row fails the
// whole parse with a MalformedCatalogError; partial records are never
// returned.
func ParseTable(path string) (*ndarray.Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &MalformedCatalogError{Path: path, Reason: err.Error()}
	}
	defer f.Close()

	arr := &ndarray.Array{Cols: make([]ndarray.Column, len(PawprintSchema))}
	for i, field := range PawprintSchema {
		arr.Cols[i].Name = field.Name
		arr.Cols[i].Kind = field.Kind
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != len(PawprintSchema) {
			return nil, &MalformedCatalogError{
				Path: path, Line: lineNo,
				Reason: fmt.Sprintf("got %d columns, want %d", len(fields), len(PawprintSchema)),
			}
		}

		for i, raw := range fields {
			col := &arr.Cols[i]
			switch col.Kind {
			case ndarray.Int64:
				v, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return nil, &MalformedCatalogError{
						Path: path, Line: lineNo,
						Reason: fmt.Sprintf("column %s: %q is not an integer", col.Name, raw),
					}
				}
				col.Ints = append(col.Ints, v)
			default:
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, &MalformedCatalogError{
						Path: path, Line: lineNo,
						Reason: fmt.Sprintf("column %s: %q is not a float", col.Name, raw),
					}
				}
				col.Floats = append(col.Floats, v)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &MalformedCatalogError{Path: path, Reason: err.Error()}
	}

	return arr, nil
}
