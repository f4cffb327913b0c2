package models

import (
	"math"
	"time"

	"github.com/wyndhurst/edgelab/edgeerr"
)

// FeatureTable is a mapping from timestamp to a fixed set of named
// real-valued features, aligned one-to-one with its source bar series.
// By construction (see the features package), FeatureTable.Columns[c][t]
// depends only on bars strictly before t.
type FeatureTable struct {
	Index   []time.Time
	Names   []string // preserves column order for deterministic iteration
	Columns map[string][]float64
}

// NewFeatureTable allocates an empty table for the given index and column
// names, with every cell initialised to math.NaN (missing).
func NewFeatureTable(index []time.Time, names []string) *FeatureTable {
	cols := make(map[string][]float64, len(names))
	for _, n := range names {
		col := make([]float64, len(index))
		for i := range col {
			col[i] = math.NaN()
		}
		cols[n] = col
	}
	return &FeatureTable{Index: index, Names: append([]string(nil), names...), Columns: cols}
}

// Len returns the number of rows.
func (t *FeatureTable) Len() int { return len(t.Index) }

// Lag returns a copy of the table shifted forward by n bars: row i of the
// result holds the values that were at row i-n in the receiver, with the
// first n rows undefined (NaN). This is the final step of the no-lookahead
// construction — features are computed on natural-time prices, then the
// whole table is lagged once.
func (t *FeatureTable) Lag(n int) *FeatureTable {
	out := NewFeatureTable(t.Index, t.Names)
	for _, name := range t.Names {
		src := t.Columns[name]
		dst := out.Columns[name]
		for i := n; i < len(dst); i++ {
			dst[i] = src[i-n]
		}
	}
	return out
}

// ReplaceInfWithMissing rewrites +/-Inf cells to NaN in place, the
// convention this module uses for "missing" throughout.
func (t *FeatureTable) ReplaceInfWithMissing() {
	for _, name := range t.Names {
		col := t.Columns[name]
		for i, v := range col {
			if math.IsInf(v, 0) {
				col[i] = math.NaN()
			}
		}
	}
}

// RowHasMissing reports whether any feature at row i is NaN.
func (t *FeatureTable) RowHasMissing(i int) bool {
	for _, name := range t.Names {
		if math.IsNaN(t.Columns[name][i]) {
			return true
		}
	}
	return false
}

// DropMissing returns a new table containing only rows where every column
// is defined, along with the retained index positions (useful for aligning
// a parallel TargetVector against the same drop mask).
func (t *FeatureTable) DropMissing() (*FeatureTable, []int) {
	keep := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if !t.RowHasMissing(i) {
			keep = append(keep, i)
		}
	}
	out := &FeatureTable{
		Index:   make([]time.Time, len(keep)),
		Names:   append([]string(nil), t.Names...),
		Columns: make(map[string][]float64, len(t.Names)),
	}
	for _, name := range t.Names {
		out.Columns[name] = make([]float64, len(keep))
	}
	for j, i := range keep {
		out.Index[j] = t.Index[i]
		for _, name := range t.Names {
			out.Columns[name][j] = t.Columns[name][i]
		}
	}
	return out, keep
}

// SelectRows returns a new table containing only the given row positions,
// in order. Used to align a feature table against a target vector that was
// independently filtered (e.g. dropping rows with an undefined target).
func (t *FeatureTable) SelectRows(positions []int) (*FeatureTable, []int) {
	out := &FeatureTable{
		Index:   make([]time.Time, len(positions)),
		Names:   append([]string(nil), t.Names...),
		Columns: make(map[string][]float64, len(t.Names)),
	}
	for _, name := range t.Names {
		out.Columns[name] = make([]float64, len(positions))
	}
	for j, i := range positions {
		out.Index[j] = t.Index[i]
		for _, name := range t.Names {
			out.Columns[name][j] = t.Columns[name][i]
		}
	}
	return out, positions
}

// Row returns the named features at position i as a map, primarily for
// feeding a classifier one observation at a time.
func (t *FeatureTable) Row(i int) map[string]float64 {
	row := make(map[string]float64, len(t.Names))
	for _, name := range t.Names {
		row[name] = t.Columns[name][i]
	}
	return row
}

// TargetVector is a binary label per timestamp, NaN where undefined (the
// trailing horizon rows).
type TargetVector struct {
	Index  []time.Time
	Values []float64
}

// Len returns the number of rows.
func (t TargetVector) Len() int { return len(t.Values) }

// Select returns the subset of the vector at the given index positions,
// used to align a target against a feature table after DropMissing.
func (t TargetVector) Select(positions []int) TargetVector {
	out := TargetVector{Index: make([]time.Time, len(positions)), Values: make([]float64, len(positions))}
	for j, i := range positions {
		out.Index[j] = t.Index[i]
		out.Values[j] = t.Values[i]
	}
	return out
}

// SignalFrame holds the two aligned boolean columns entries/exits produced
// by a signal generator. The invariant entries && exits is never true at
// the same timestamp is enforced by NewSignalFrame, not left to callers.
type SignalFrame struct {
	Index   []time.Time
	Entries []bool
	Exits   []bool
}

// NewSignalFrame builds a SignalFrame, resolving any simultaneous
// entry/exit conflict by giving entries precedence (spec.md §3).
func NewSignalFrame(index []time.Time, entries, exits []bool) (SignalFrame, error) {
	if len(entries) != len(index) || len(exits) != len(index) {
		return SignalFrame{}, edgeerr.Contract("signal", "entries/exits", len(entries), "entries/exits length must match index length")
	}
	resolvedExits := make([]bool, len(exits))
	for i := range index {
		resolvedExits[i] = exits[i] && !entries[i]
	}
	return SignalFrame{
		Index:   index,
		Entries: append([]bool(nil), entries...),
		Exits:   resolvedExits,
	}, nil
}

// Len returns the number of rows.
func (f SignalFrame) Len() int { return len(f.Index) }

// Shift returns a copy of the frame delayed by n bars (used to apply the
// execution-delay contract): row i of the result reflects what the
// receiver held at row i-n, with no signal before that.
func (f SignalFrame) Shift(n int) SignalFrame {
	out := SignalFrame{
		Index:   f.Index,
		Entries: make([]bool, f.Len()),
		Exits:   make([]bool, f.Len()),
	}
	for i := n; i < f.Len(); i++ {
		out.Entries[i] = f.Entries[i-n]
		out.Exits[i] = f.Exits[i-n]
	}
	return out
}
