// Package sample draws training sets from tile feature tables.
//
// A training set is every tagged variable source plus a random sample
// of untagged sources, drawn with replacement so the draw works for
// any requested size. Feature tables can dwarf available memory, so
// the sampler checks the memory floor before touching the table.
package sample

import (
	"fmt"
	"math/rand/v2"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/vvvsurvey/pawpipe/internal/ndarray"
)

// tagColumn partitions the feature table: non-empty values are
// confirmed variable sources, the empty string marks unknowns.
const tagColumn = "ogle3_type"

// ResourceError means the host cannot safely hold the feature table.
type ResourceError struct {
	NeedBytes      uint64
	AvailableBytes uint64
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("insufficient memory: %d bytes available, %d required",
		e.AvailableBytes, e.NeedBytes)
}

// FaultCode marks the error for per-entity fault recording.
func (e *ResourceError) FaultCode() string { return "RESOURCE" }

// Sampler draws training sets.
type Sampler struct {
	// MinMemoryBytes is the required available-memory floor. Zero
	// disables the check.
	MinMemoryBytes uint64

	// Rand drives the with-replacement draw. Nil uses a fresh
	// PCG-seeded source; tests inject a fixed seed.
	Rand *rand.Rand
}

// Result reports what a draw produced.
type Result struct {
	// Variables is the count of tagged sources, all of which are in
	// the output.
	Variables int

	// Sampled is the count of drawn unknown sources.
	Sampled int
}

// Rows is the total output row count.
func (r Result) Rows() int { return r.Variables + r.Sampled }

// Draw reads the feature table, partitions it on the classification
// tag, draws size unknown sources with replacement and writes
// variables followed by the sample to outPath.
//
// The memory floor is checked first; on shortfall the table is never
// opened and a ResourceError is returned.
func (s *Sampler) Draw(featuresPath, outPath string, size int) (Result, error) {
	if size < 0 {
		return Result{}, fmt.Errorf("sample size must not be negative, got %d", size)
	}

	if s.MinMemoryBytes > 0 {
		vm, err := mem.VirtualMemory()
		if err != nil {
			return Result{}, fmt.Errorf("memory check: %w", err)
		}
		if vm.Available < s.MinMemoryBytes {
			return Result{}, &ResourceError{
				NeedBytes:      s.MinMemoryBytes,
				AvailableBytes: vm.Available,
			}
		}
	}

	arr, err := ndarray.Open(featuresPath)
	if err != nil {
		return Result{}, fmt.Errorf("feature table: %w", err)
	}
	tags, err := arr.Col(tagColumn)
	if err != nil {
		return Result{}, fmt.Errorf("feature table: %w", err)
	}
	if tags.Kind != ndarray.String {
		return Result{}, fmt.Errorf("feature table: column %s is %s, want string",
			tagColumn, tags.Kind)
	}

	var varIdx, unkIdx []int
	for i, tag := range tags.Strings {
		if tag == "" {
			unkIdx = append(unkIdx, i)
		} else {
			varIdx = append(varIdx, i)
		}
	}
	if size > 0 && len(unkIdx) == 0 {
		return Result{}, fmt.Errorf("feature table holds no unknown sources to sample")
	}

	rng := s.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	drawn := make([]int, size)
	for i := range drawn {
		drawn[i] = unkIdx[rng.IntN(len(unkIdx))]
	}

	variables, err := arr.SelectRows(varIdx)
	if err != nil {
		return Result{}, err
	}
	unknown, err := arr.SelectRows(drawn)
	if err != nil {
		return Result{}, err
	}
	out, err := ndarray.Concat(variables, unknown)
	if err != nil {
		return Result{}, err
	}
	if err := ndarray.Write(outPath, out); err != nil {
		return Result{}, fmt.Errorf("write sample %s: %w", outPath, err)
	}

	return Result{Variables: len(varIdx), Sampled: size}, nil
}
