package pipeline

import (
	"math"
	"testing"

	"github.com/JanKosminski/HousingPricesInPoland/internal/dataset"
	"github.com/JanKosminski/HousingPricesInPoland/internal/pkg/errors"
)

func TestMedianImputerStoresTrainingMedian(t *testing.T) {
	trainTable := dataset.NewFrame(4)
	_ = trainTable.AddNumeric("centreDistance", []float64{1, 2, 3, 100})

	imp := NewMedianImputer()
	if err := imp.Fit(trainTable); err != nil {
		t.Fatal(err)
	}
	if got := imp.Medians["centreDistance"]; got != 2.5 {
		t.Fatalf("stored median = %v, want 2.5", got)
	}

	// A later single-row request must receive the stored training median,
	// not anything recomputed from the request itself.
	req := dataset.NewFrame(1)
	_ = req.AddNumeric("centreDistance", []float64{math.NaN()})
	if err := imp.Transform(req); err != nil {
		t.Fatal(err)
	}
	c, _ := req.Column("centreDistance")
	if c.Nums[0] != 2.5 {
		t.Errorf("imputed value = %v, want 2.5", c.Nums[0])
	}
}

func TestMedianImputerOddCount(t *testing.T) {
	f := dataset.NewFrame(3)
	_ = f.AddNumeric("rooms", []float64{3, 1, 2})
	imp := NewMedianImputer()
	if err := imp.Fit(f); err != nil {
		t.Fatal(err)
	}
	if got := imp.Medians["rooms"]; got != 2 {
		t.Errorf("median = %v, want 2", got)
	}
}

func TestMedianImputerIgnoresMissingWhenFitting(t *testing.T) {
	f := dataset.NewFrame(5)
	_ = f.AddNumeric("floor", []float64{math.NaN(), 4, math.NaN(), 2, 6})
	imp := NewMedianImputer()
	if err := imp.Fit(f); err != nil {
		t.Fatal(err)
	}
	if got := imp.Medians["floor"]; got != 4 {
		t.Errorf("median = %v, want 4", got)
	}
}

func TestMedianImputerSkipsConfiguredColumns(t *testing.T) {
	f := dataset.NewFrame(2)
	_ = f.AddNumeric("price", []float64{100, 200})
	_ = f.AddNumeric("rooms", []float64{2, 4})
	imp := NewMedianImputer("price")
	if err := imp.Fit(f); err != nil {
		t.Fatal(err)
	}
	if _, ok := imp.Medians["price"]; ok {
		t.Error("price median should not be captured")
	}
	if imp.Medians["rooms"] != 3 {
		t.Errorf("rooms median = %v, want 3", imp.Medians["rooms"])
	}
}

func TestImputerFillsCategoricalWithSentinel(t *testing.T) {
	train := dataset.NewFrame(2)
	_ = train.AddNumeric("rooms", []float64{1, 2})
	imp := NewMedianImputer()
	if err := imp.Fit(train); err != nil {
		t.Fatal(err)
	}

	f := dataset.NewFrame(3)
	_ = f.AddNumeric("rooms", []float64{1, 2, 3})
	_ = f.AddCategorical("condition", []string{"dobry", "", ""})
	if err := imp.Transform(f); err != nil {
		t.Fatal(err)
	}
	c, _ := f.Column("condition")
	if c.Strs[1] != UnknownCategory || c.Strs[2] != UnknownCategory {
		t.Errorf("filled values = %v, want sentinel %q", c.Strs, UnknownCategory)
	}
	if c.Strs[0] != "dobry" {
		t.Errorf("present value mutated to %q", c.Strs[0])
	}
}

func TestImputerTransformBeforeFit(t *testing.T) {
	f := dataset.NewFrame(1)
	_ = f.AddNumeric("rooms", []float64{1})
	imp := NewMedianImputer()
	err := imp.Transform(f)
	if err == nil {
		t.Fatal("expected NotFittedError")
	}
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Fatalf("error type = %T, want NotFittedError", err)
	}
}
