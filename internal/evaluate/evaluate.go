// Package evaluate computes held-out error metrics for a trained model.
package evaluate

import (
	"github.com/YuminosukeSato/scigo/metrics"
	"github.com/YuminosukeSato/scigo/sklearn/lightgbm"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/JanKosminski/HousingPricesInPoland/internal/pkg/errors"
)

// Report holds the regression metrics for one evaluation pass.
type Report struct {
	MSE float64 `json:"mse"`
	MAE float64 `json:"mae"`
	R2  float64 `json:"r2"`
}

// MarshalZerologObject adds the metrics to a zerolog event.
func (r Report) MarshalZerologObject(e *zerolog.Event) {
	e.Float64("mse", r.MSE).Float64("mae", r.MAE).Float64("r2", r.R2)
}

// Evaluate predicts over the held-out features and computes MSE, MAE, and
// R². Pure function: reporting is the caller's concern.
func Evaluate(model *lightgbm.Model, X *mat.Dense, y *mat.VecDense) (Report, error) {
	pred, err := model.Predict(X)
	if err != nil {
		return Report{}, errors.Wrap(err, "predicting held-out split")
	}
	rows, _ := pred.Dims()
	if rows != y.Len() {
		return Report{}, errors.Newf("prediction returned %d rows for %d targets", rows, y.Len())
	}
	predVec := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		predVec.SetVec(i, pred.At(i, 0))
	}

	var rep Report
	if rep.MSE, err = metrics.MSE(y, predVec); err != nil {
		return Report{}, errors.Wrap(err, "mse")
	}
	if rep.MAE, err = metrics.MAE(y, predVec); err != nil {
		return Report{}, errors.Wrap(err, "mae")
	}
	if rep.R2, err = metrics.R2Score(y, predVec); err != nil {
		return Report{}, errors.Wrap(err, "r2")
	}
	return rep, nil
}
