package pipeline

import (
	"math"
	"sort"

	"github.com/JanKosminski/HousingPricesInPoland/internal/dataset"
	"github.com/JanKosminski/HousingPricesInPoland/internal/pkg/errors"
)

// UnknownCategory is the sentinel filled into missing categorical cells. It
// is a fixed constant shared by training and serving, never computed.
const UnknownCategory = "Unknown"

// MedianImputer fills missing numeric cells with per-column medians captured
// over the training corpus, and missing categorical cells with the sentinel.
// The medians are fitted once and reused verbatim at inference; a single-row
// request can never recompute them. Skip lists the columns excluded from
// fitting (the raw price, which never reaches serving).
type MedianImputer struct {
	// Medians maps column name to the training-time median. Serialized
	// into the model artifact so inference imputation is deterministic.
	Medians map[string]float64 `json:"medians"`

	// Skip names numeric columns to leave out of Fit.
	Skip []string `json:"skip,omitempty"`
}

// NewMedianImputer creates an unfitted imputer.
func NewMedianImputer(skip ...string) *MedianImputer {
	return &MedianImputer{Skip: skip}
}

// IsFitted reports whether Fit has captured medians.
func (m *MedianImputer) IsFitted() bool { return m.Medians != nil }

// Fit captures the median of every numeric column over the non-missing
// cells. A column with no observed values stores 0; there is nothing better
// to reuse at inference, and the pipeline must not fail for one empty column.
func (m *MedianImputer) Fit(f *dataset.Frame) error {
	if f.NumRows() == 0 {
		return errors.New("MedianImputer.Fit: empty training table")
	}
	skip := make(map[string]bool, len(m.Skip))
	for _, name := range m.Skip {
		skip[name] = true
	}
	m.Medians = make(map[string]float64)
	for _, c := range f.Columns() {
		if c.Kind != dataset.Numeric || skip[c.Name] {
			continue
		}
		m.Medians[c.Name] = median(c.Nums)
	}
	return nil
}

// Transform fills missing cells in place: numeric gaps with the stored
// training median, categorical gaps with UnknownCategory. Numeric columns
// without a stored median (target-only columns) are left untouched. Returns
// NotFittedError before Fit.
func (m *MedianImputer) Transform(f *dataset.Frame) error {
	if !m.IsFitted() {
		return errors.NewNotFittedError("MedianImputer", "Transform")
	}
	for _, c := range f.Columns() {
		switch c.Kind {
		case dataset.Numeric:
			med, ok := m.Medians[c.Name]
			if !ok {
				continue
			}
			for i, v := range c.Nums {
				if math.IsNaN(v) {
					c.Nums[i] = med
				}
			}
		case dataset.Categorical:
			for i, v := range c.Strs {
				if v == "" {
					c.Strs[i] = UnknownCategory
				}
			}
		}
	}
	return nil
}

// median returns the median of the finite values in vals, or 0 when none
// exist. Even-length inputs average the two middle values.
func median(vals []float64) float64 {
	finite := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0
	}
	sort.Float64s(finite)
	mid := len(finite) / 2
	if len(finite)%2 == 1 {
		return finite[mid]
	}
	return (finite[mid-1] + finite[mid]) / 2
}
