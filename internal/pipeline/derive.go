package pipeline

import (
	"time"

	"github.com/JanKosminski/HousingPricesInPoland/internal/dataset"
	"github.com/JanKosminski/HousingPricesInPoland/internal/pkg/errors"
	"github.com/JanKosminski/HousingPricesInPoland/internal/schema"
)

// Mode selects target-column handling; it is the only difference between the
// training and serving invocations of the pipeline.
type Mode int

const (
	// Training derives the regression target and drops the raw price.
	Training Mode = iota
	// Inference expects no price column and derives no target.
	Inference
)

// TargetColumn names the derived regression target (price / squareMeters).
const TargetColumn = "pricePerArea"

// Derive replaces the date column with numeric month and year columns and,
// in training mode, computes the target and drops the raw price so it can
// never leak into the feature set.
func Derive(f *dataset.Frame, mode Mode) error {
	dateCol, ok := f.Column(schema.DateColumn)
	if !ok || dateCol.Kind != dataset.Categorical {
		return errors.Newf("derive: missing %s column", schema.DateColumn)
	}
	n := f.NumRows()
	months := make([]float64, n)
	years := make([]float64, n)
	for i, v := range dateCol.Strs {
		t, err := time.Parse(schema.DateLayout, v)
		if err != nil {
			// Imputation runs before this stage, so an unparseable
			// cell takes a zero default here rather than leaking NaN
			// into the feature matrix.
			errors.Warn(errors.NewUnexpectedValueWarning(schema.DateColumn, v, 0))
			months[i] = 0
			years[i] = 0
			continue
		}
		months[i] = float64(t.Month())
		years[i] = float64(t.Year())
	}
	f.Drop(schema.DateColumn)
	if err := f.AddNumeric("month", months); err != nil {
		return err
	}
	if err := f.AddNumeric("year", years); err != nil {
		return err
	}

	if mode != Training {
		return nil
	}

	price, ok := f.Column(schema.PriceColumn)
	if !ok || price.Kind != dataset.Numeric {
		return errors.Newf("derive: training mode requires a numeric %s column", schema.PriceColumn)
	}
	area, ok := f.Column("squareMeters")
	if !ok || area.Kind != dataset.Numeric {
		return errors.New("derive: training mode requires a numeric squareMeters column")
	}
	target := make([]float64, n)
	for i := range target {
		target[i] = price.Nums[i] / area.Nums[i]
	}
	f.Drop(schema.PriceColumn)
	return f.AddNumeric(TargetColumn, target)
}
