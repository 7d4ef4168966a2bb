// Package train fits the baseline and hyperparameter-tuned price models.
// The boosting algorithm itself is the library's concern; this package owns
// the search loop and its failure semantics.
package train

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/scigo/sklearn/lightgbm"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/JanKosminski/HousingPricesInPoland/internal/pkg/errors"
)

// Config bounds the randomized hyperparameter search.
type Config struct {
	// Trials is the number of random configurations drawn from the grids.
	Trials int
	// Folds is k for the cross-validation inside each trial.
	Folds int
	// Seed drives both the parameter draws and the fold shuffling.
	Seed int64
	// CategoricalFeatures are feature-matrix column indices holding
	// category codes.
	CategoricalFeatures []int
}

// DefaultConfig returns the search bounds used by the production training
// run: 50 random trials scored by 5-fold cross-validated MAE.
func DefaultConfig() Config {
	return Config{Trials: 50, Folds: 5, Seed: 42}
}

// Value grids for the randomized search, one axis per tunable.
var (
	gridIterations   = []int{100, 200, 300, 500}
	gridMaxDepth     = []int{3, 5, 7, 10}
	gridLearningRate = []float64{0.01, 0.05, 0.1, 0.2}
	gridSubsample    = []float64{0.6, 0.8, 1.0}
	gridColsample    = []float64{0.6, 0.8, 1.0}
	gridMinSplitGain = []float64{0, 1, 5}
	gridAlpha        = []float64{0, 0.1, 1}
	gridLambda       = []float64{1, 5, 10}
)

// Baseline fits one regressor with fixed default hyperparameters on the full
// engineered training split.
func (c Config) Baseline(X *mat.Dense, y *mat.VecDense) (*lightgbm.Model, error) {
	if err := validateTarget(y); err != nil {
		return nil, err
	}
	params := c.baseParams()
	trainer := lightgbm.NewTrainer(params)
	if err := trainer.Fit(X, y); err != nil {
		return nil, errors.NewTrainingError("baseline", err)
	}
	return trainer.GetModel(), nil
}

// Search draws Trials random configurations, scores each by k-fold
// cross-validated mean absolute error, and refits the best configuration on
// the full training split. If no trial produces a valid fit the run fails;
// there is no fallback.
func (c Config) Search(X *mat.Dense, y *mat.VecDense) (*lightgbm.Model, lightgbm.TrainingParams, error) {
	if err := validateTarget(y); err != nil {
		return nil, lightgbm.TrainingParams{}, err
	}

	rng := rand.New(rand.NewSource(c.Seed))
	splitter := lightgbm.NewKFold(c.Folds, true, int(c.Seed))

	best := math.Inf(1)
	var bestParams lightgbm.TrainingParams
	found := false

	for trial := 0; trial < c.Trials; trial++ {
		params := c.drawParams(rng)
		result, err := lightgbm.CrossValidate(params, X, y, splitter, "l1", 0, false)
		if err != nil {
			log.Warn().Err(err).Int("trial", trial).Msg("cross-validation trial failed")
			continue
		}
		score := result.GetMeanScore()
		if math.IsNaN(score) || math.IsInf(score, 0) {
			log.Warn().Int("trial", trial).Msg("cross-validation trial produced a non-finite score")
			continue
		}
		log.Debug().
			Int("trial", trial).
			Float64("cv_mae", score).
			Float64("cv_std", result.GetStdScore()).
			Msg("search trial scored")
		if score < best {
			best = score
			bestParams = params
			found = true
		}
	}
	if !found {
		return nil, lightgbm.TrainingParams{}, errors.NewTrainingError("search", errors.Newf("no valid fit in %d trials", c.Trials))
	}
	log.Info().
		Float64("cv_mae", best).
		Int("num_iterations", bestParams.NumIterations).
		Int("max_depth", bestParams.MaxDepth).
		Float64("learning_rate", bestParams.LearningRate).
		Msg("best configuration found")

	trainer := lightgbm.NewTrainer(bestParams)
	if err := trainer.Fit(X, y); err != nil {
		return nil, lightgbm.TrainingParams{}, errors.NewTrainingError("refit", err)
	}
	return trainer.GetModel(), bestParams, nil
}

func (c Config) baseParams() lightgbm.TrainingParams {
	return lightgbm.TrainingParams{
		Objective:           "regression",
		Metric:              "l1",
		Seed:                int(c.Seed),
		Deterministic:       true,
		Verbosity:           -1,
		CategoricalFeatures: c.CategoricalFeatures,
	}
}

func (c Config) drawParams(rng *rand.Rand) lightgbm.TrainingParams {
	params := c.baseParams()
	params.NumIterations = gridIterations[rng.Intn(len(gridIterations))]
	params.MaxDepth = gridMaxDepth[rng.Intn(len(gridMaxDepth))]
	params.LearningRate = gridLearningRate[rng.Intn(len(gridLearningRate))]
	params.BaggingFraction = gridSubsample[rng.Intn(len(gridSubsample))]
	params.FeatureFraction = gridColsample[rng.Intn(len(gridColsample))]
	params.MinGainToSplit = gridMinSplitGain[rng.Intn(len(gridMinSplitGain))]
	params.Alpha = gridAlpha[rng.Intn(len(gridAlpha))]
	params.Lambda = gridLambda[rng.Intn(len(gridLambda))]
	if params.BaggingFraction < 1.0 {
		params.BaggingFreq = 1
	}
	return params
}

// validateTarget rejects degenerate training targets: fewer than two rows,
// non-finite values, or a constant column leave nothing to fit.
func validateTarget(y *mat.VecDense) error {
	n := y.Len()
	if n < 2 {
		return errors.NewTrainingError("target", errors.Newf("%d rows is not enough to fit", n))
	}
	first := y.AtVec(0)
	constant := true
	for i := 0; i < n; i++ {
		v := y.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewTrainingError("target", errors.Newf("non-finite target at row %d", i))
		}
		if v != first {
			constant = false
		}
	}
	if constant {
		return errors.NewTrainingError("target", errors.New("target is constant"))
	}
	return nil
}
