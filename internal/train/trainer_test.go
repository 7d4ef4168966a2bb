package train

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/JanKosminski/HousingPricesInPoland/internal/pkg/errors"
)

// syntheticData builds rows whose target is a smooth function of the
// features, strong enough for a boosted model to pick up.
func syntheticData(rows int, seed int64) (*mat.Dense, *mat.VecDense) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(rows, 3, nil)
	y := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		area := 30 + rng.Float64()*90
		dist := rng.Float64() * 15
		age := rng.Float64() * 60
		X.Set(i, 0, area)
		X.Set(i, 1, dist)
		X.Set(i, 2, age)
		y.SetVec(i, 15000-500*dist-30*age+20*area)
	}
	return X, y
}

func TestBaselineFitsAndPredicts(t *testing.T) {
	X, y := syntheticData(200, 1)
	cfg := DefaultConfig()
	model, err := cfg.Baseline(X, y)
	if err != nil {
		t.Fatal(err)
	}
	pred, err := model.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	rows, _ := pred.Dims()
	if rows != 200 {
		t.Fatalf("prediction rows = %d, want 200", rows)
	}
	for i := 0; i < rows; i++ {
		v := pred.At(i, 0)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite prediction at row %d", i)
		}
	}
}

func TestSearchReturnsBestConfiguration(t *testing.T) {
	if testing.Short() {
		t.Skip("cross-validation search is slow")
	}
	X, y := syntheticData(150, 2)
	cfg := Config{Trials: 3, Folds: 3, Seed: 42}
	model, params, err := cfg.Search(X, y)
	if err != nil {
		t.Fatal(err)
	}
	if model == nil {
		t.Fatal("no model returned")
	}
	if params.NumIterations == 0 || params.MaxDepth == 0 {
		t.Errorf("params not drawn from the grids: %+v", params)
	}
	if params.Objective != "regression" || params.Metric != "l1" {
		t.Errorf("objective/metric = %q/%q", params.Objective, params.Metric)
	}
}

func TestSearchDeterministicDraws(t *testing.T) {
	cfg := Config{Trials: 5, Folds: 3, Seed: 42}
	a := rand.New(rand.NewSource(cfg.Seed))
	b := rand.New(rand.NewSource(cfg.Seed))
	for i := 0; i < cfg.Trials; i++ {
		pa := cfg.drawParams(a)
		pb := cfg.drawParams(b)
		if pa.NumIterations != pb.NumIterations || pa.LearningRate != pb.LearningRate ||
			pa.MaxDepth != pb.MaxDepth || pa.Lambda != pb.Lambda {
			t.Fatalf("draw %d differs under the same seed", i)
		}
	}
}

func TestDrawParamsStayOnGrids(t *testing.T) {
	cfg := DefaultConfig()
	rng := rand.New(rand.NewSource(7))
	onGrid := func(v float64, grid []float64) bool {
		for _, g := range grid {
			if v == g {
				return true
			}
		}
		return false
	}
	for i := 0; i < 100; i++ {
		p := cfg.drawParams(rng)
		if !onGrid(p.LearningRate, gridLearningRate) ||
			!onGrid(p.BaggingFraction, gridSubsample) ||
			!onGrid(p.Alpha, gridAlpha) ||
			!onGrid(p.Lambda, gridLambda) {
			t.Fatalf("draw %d left the grids: %+v", i, p)
		}
		if p.BaggingFraction < 1.0 && p.BaggingFreq != 1 {
			t.Fatalf("subsampling drawn without bagging frequency: %+v", p)
		}
	}
}

func TestValidateTargetRejectsDegenerateInput(t *testing.T) {
	cfg := DefaultConfig()
	X := mat.NewDense(5, 2, nil)

	constant := mat.NewVecDense(5, []float64{3, 3, 3, 3, 3})
	if _, err := cfg.Baseline(X, constant); err == nil {
		t.Error("constant target accepted")
	} else {
		var te *errors.TrainingError
		if !errors.As(err, &te) {
			t.Errorf("error type = %T, want *TrainingError", err)
		}
	}

	withNaN := mat.NewVecDense(5, []float64{1, 2, math.NaN(), 4, 5})
	if _, err := cfg.Baseline(X, withNaN); err == nil {
		t.Error("non-finite target accepted")
	}

	single := mat.NewVecDense(1, []float64{1})
	if _, err := cfg.Baseline(mat.NewDense(1, 2, nil), single); err == nil {
		t.Error("single-row target accepted")
	}
	if _, _, err := cfg.Search(X, constant); err == nil {
		t.Error("search over constant target accepted")
	}
}
