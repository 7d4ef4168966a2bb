package pipeline

import (
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/JanKosminski/HousingPricesInPoland/internal/dataset"
	"github.com/JanKosminski/HousingPricesInPoland/internal/pkg/errors"
	"github.com/JanKosminski/HousingPricesInPoland/internal/schema"
)

// TransformVersion identifies the transformation semantics baked into an
// artifact. Bump it whenever the stage order, synonym tables, sentinel, or
// encoding change; the service refuses artifacts produced by another version.
const TransformVersion = 1

// Pipeline is the single shared transformation invoked by both the training
// and serving paths: Normalize -> Impute -> Derive -> Encode. Its fitted
// state (medians, category domains, the frozen feature-name order) is
// persisted alongside the model and is immutable afterwards, so concurrent
// inference calls share it without locking.
type Pipeline struct {
	Version        int              `json:"version"`
	BooleanColumns []string         `json:"booleanColumns"`
	Imputer        *MedianImputer   `json:"imputer"`
	Encoder        *CategoryEncoder `json:"encoder"`

	// FeatureNames is the ordered column set the trained model sees,
	// excluding the target. Matrix assembly matches by name, never by
	// position, so the order of incoming columns is irrelevant.
	FeatureNames []string `json:"featureNames"`
}

// New creates an unfitted pipeline over the canonical listing schema.
// The imputer skips the raw price, which never reaches serving, and the
// boolean-like columns: those take DefaultBoolean when missing, and a
// captured median would substitute a different value for the same gap.
func New() *Pipeline {
	booleans := schema.BooleanColumns()
	return &Pipeline{
		Version:        TransformVersion,
		BooleanColumns: booleans,
		Imputer:        NewMedianImputer(append([]string{schema.PriceColumn}, booleans...)...),
		Encoder:        NewCategoryEncoder(),
	}
}

// IsFitted reports whether Fit has frozen the pipeline state.
func (p *Pipeline) IsFitted() bool { return p.FeatureNames != nil }

// Fit runs the transformation over the training table and freezes the
// imputation medians, the category domains, and the feature-name order.
func (p *Pipeline) Fit(f *dataset.Frame) error {
	work := f.Clone()
	Normalize(work, p.BooleanColumns)
	if err := p.Imputer.Fit(work); err != nil {
		return err
	}
	if err := p.Imputer.Transform(work); err != nil {
		return err
	}
	if err := Derive(work, Training); err != nil {
		return err
	}
	if err := p.Encoder.Fit(work); err != nil {
		return err
	}
	names := make([]string, 0, len(work.Columns()))
	for _, c := range work.Columns() {
		if c.Name == TargetColumn {
			continue
		}
		names = append(names, c.Name)
	}
	p.FeatureNames = names
	return nil
}

// Transform applies the fitted transformation and assembles the feature
// matrix in the frozen column order. In training mode it also extracts the
// target vector, dropping rows whose target is not finite; in inference mode
// y is nil. The input frame is never mutated.
func (p *Pipeline) Transform(f *dataset.Frame, mode Mode) (X *mat.Dense, y *mat.VecDense, err error) {
	if !p.IsFitted() {
		return nil, nil, errors.NewNotFittedError("Pipeline", "Transform")
	}
	if p.Version != TransformVersion {
		return nil, nil, errors.Newf("pipeline version %d does not match transform version %d", p.Version, TransformVersion)
	}
	work := f.Clone()
	p.materializeMissing(work)
	Normalize(work, p.BooleanColumns)
	if err := p.Imputer.Transform(work); err != nil {
		return nil, nil, err
	}
	if err := Derive(work, mode); err != nil {
		return nil, nil, err
	}
	if err := p.Encoder.Transform(work); err != nil {
		return nil, nil, err
	}

	if mode == Training {
		work, err = dropNonFiniteTarget(work)
		if err != nil {
			return nil, nil, err
		}
	}

	rows := work.NumRows()
	X = mat.NewDense(rows, len(p.FeatureNames), nil)
	for j, name := range p.FeatureNames {
		c, ok := work.Column(name)
		if !ok || c.Kind != dataset.Numeric {
			return nil, nil, errors.Newf("transformed table is missing feature column %q", name)
		}
		for i := 0; i < rows; i++ {
			X.Set(i, j, c.Nums[i])
		}
	}

	if mode != Training {
		return X, nil, nil
	}
	tc, ok := work.Column(TargetColumn)
	if !ok {
		return nil, nil, errors.Newf("training table is missing target column %q", TargetColumn)
	}
	y = mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		y.SetVec(i, tc.Nums[i])
	}
	return X, y, nil
}

// CategoricalFeatureIndices returns the positions of the encoded categorical
// columns within FeatureNames, for the boosting library's categorical-split
// handling.
func (p *Pipeline) CategoricalFeatureIndices() []int {
	cat := make(map[string]bool, len(p.Encoder.Domains))
	for name := range p.Encoder.Domains {
		cat[name] = true
	}
	var idx []int
	for j, name := range p.FeatureNames {
		if cat[name] {
			idx = append(idx, j)
		}
	}
	return idx
}

// materializeMissing adds an all-missing column for every fitted column the
// incoming frame omits, so a request leaving out an optional attribute (or a
// source file lacking a column) flows through imputation instead of failing.
func (p *Pipeline) materializeMissing(f *dataset.Frame) {
	n := f.NumRows()
	for name := range p.Imputer.Medians {
		if f.Has(name) {
			continue
		}
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = math.NaN()
		}
		_ = f.AddNumeric(name, vals)
	}
	for name := range p.Encoder.Domains {
		if f.Has(name) {
			continue
		}
		_ = f.AddCategorical(name, make([]string, n))
	}
	for _, name := range p.BooleanColumns {
		if f.Has(name) {
			continue
		}
		_ = f.AddCategorical(name, make([]string, n))
	}
}

func dropNonFiniteTarget(f *dataset.Frame) (*dataset.Frame, error) {
	tc, ok := f.Column(TargetColumn)
	if !ok {
		return nil, errors.Newf("training table is missing target column %q", TargetColumn)
	}
	keep := make([]bool, f.NumRows())
	dropped := 0
	for i, v := range tc.Nums {
		keep[i] = !math.IsNaN(v) && !math.IsInf(v, 0)
		if !keep[i] {
			dropped++
		}
	}
	if dropped == 0 {
		return f, nil
	}
	if dropped == f.NumRows() {
		return nil, errors.NewTrainingError("transform", errors.Newf("all %d target values are non-finite", dropped))
	}
	log.Warn().Int("rows", dropped).Msg("dropped rows with non-finite target")
	return f.FilterRows(keep)
}
