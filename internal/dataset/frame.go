// Package dataset holds the column-oriented table the pipeline operates on
// and the training-only CSV loader that assembles it.
package dataset

import (
	"math"

	"github.com/JanKosminski/HousingPricesInPoland/internal/pkg/errors"
)

// Kind is the semantic type of a column. After pipeline processing every
// column is Numeric or Categorical; nothing else survives into the
// model-facing table.
type Kind int

const (
	// Numeric columns store float64 values; NaN marks a missing cell.
	Numeric Kind = iota
	// Categorical columns store strings from a finite domain; the empty
	// string marks a missing cell.
	Categorical
)

// Column is one named column. Exactly one of Nums/Strs is populated,
// matching Kind.
type Column struct {
	Name string
	Kind Kind
	Nums []float64
	Strs []string
}

// Missing reports whether the cell at row i is missing.
func (c *Column) Missing(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.Nums[i])
	}
	return c.Strs[i] == ""
}

// Frame is a column-oriented table. Columns are addressed by name, never by
// position; iteration order is insertion order.
type Frame struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// NewFrame creates an empty frame with a fixed row count.
func NewFrame(rows int) *Frame {
	return &Frame{index: make(map[string]int), rows: rows}
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int { return f.rows }

// Columns returns all columns in insertion order.
func (f *Frame) Columns() []*Column { return f.cols }

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column, or false if it does not exist.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// Has reports whether the named column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// AddNumeric appends a numeric column. The value slice length must match the
// frame's row count.
func (f *Frame) AddNumeric(name string, vals []float64) error {
	if len(vals) != f.rows {
		return errors.Newf("column %q: %d values for %d rows", name, len(vals), f.rows)
	}
	if f.Has(name) {
		return errors.Newf("column %q already exists", name)
	}
	f.index[name] = len(f.cols)
	f.cols = append(f.cols, &Column{Name: name, Kind: Numeric, Nums: vals})
	return nil
}

// AddCategorical appends a categorical column. The value slice length must
// match the frame's row count.
func (f *Frame) AddCategorical(name string, vals []string) error {
	if len(vals) != f.rows {
		return errors.Newf("column %q: %d values for %d rows", name, len(vals), f.rows)
	}
	if f.Has(name) {
		return errors.Newf("column %q already exists", name)
	}
	f.index[name] = len(f.cols)
	f.cols = append(f.cols, &Column{Name: name, Kind: Categorical, Strs: vals})
	return nil
}

// Drop removes the named column. Dropping an absent column is a no-op.
func (f *Frame) Drop(name string) {
	i, ok := f.index[name]
	if !ok {
		return
	}
	f.cols = append(f.cols[:i], f.cols[i+1:]...)
	delete(f.index, name)
	for j := i; j < len(f.cols); j++ {
		f.index[f.cols[j].Name] = j
	}
}

// Clone returns a deep copy. Pipeline stages transform clones so the caller's
// frame is never mutated.
func (f *Frame) Clone() *Frame {
	out := NewFrame(f.rows)
	for _, c := range f.cols {
		switch c.Kind {
		case Numeric:
			vals := make([]float64, len(c.Nums))
			copy(vals, c.Nums)
			_ = out.AddNumeric(c.Name, vals)
		case Categorical:
			vals := make([]string, len(c.Strs))
			copy(vals, c.Strs)
			_ = out.AddCategorical(c.Name, vals)
		}
	}
	return out
}

// FilterRows returns a new frame containing only the rows where keep is true.
func (f *Frame) FilterRows(keep []bool) (*Frame, error) {
	if len(keep) != f.rows {
		return nil, errors.Newf("keep mask has %d entries for %d rows", len(keep), f.rows)
	}
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	out := NewFrame(n)
	for _, c := range f.cols {
		switch c.Kind {
		case Numeric:
			vals := make([]float64, 0, n)
			for i, k := range keep {
				if k {
					vals = append(vals, c.Nums[i])
				}
			}
			_ = out.AddNumeric(c.Name, vals)
		case Categorical:
			vals := make([]string, 0, n)
			for i, k := range keep {
				if k {
					vals = append(vals, c.Strs[i])
				}
			}
			_ = out.AddCategorical(c.Name, vals)
		}
	}
	return out, nil
}

// Concat stacks frames vertically. The column set is the union over all
// inputs; cells absent from a source frame become missing markers, matching
// how per-period source files with slightly different headers merge into one
// training table.
func Concat(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return nil, errors.New("no frames to concatenate")
	}
	total := 0
	type colSpec struct {
		name string
		kind Kind
	}
	var order []colSpec
	kinds := make(map[string]Kind)
	for _, f := range frames {
		total += f.rows
		for _, c := range f.cols {
			if k, ok := kinds[c.Name]; ok {
				if k != c.Kind {
					return nil, errors.Newf("column %q has conflicting kinds across source frames", c.Name)
				}
				continue
			}
			kinds[c.Name] = c.Kind
			order = append(order, colSpec{c.Name, c.Kind})
		}
	}
	out := NewFrame(total)
	for _, spec := range order {
		switch spec.kind {
		case Numeric:
			vals := make([]float64, 0, total)
			for _, f := range frames {
				if c, ok := f.Column(spec.name); ok {
					vals = append(vals, c.Nums...)
					continue
				}
				for i := 0; i < f.rows; i++ {
					vals = append(vals, math.NaN())
				}
			}
			_ = out.AddNumeric(spec.name, vals)
		case Categorical:
			vals := make([]string, 0, total)
			for _, f := range frames {
				if c, ok := f.Column(spec.name); ok {
					vals = append(vals, c.Strs...)
					continue
				}
				for i := 0; i < f.rows; i++ {
					vals = append(vals, "")
				}
			}
			_ = out.AddCategorical(spec.name, vals)
		}
	}
	return out, nil
}
