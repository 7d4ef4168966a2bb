package dataset

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/JanKosminski/HousingPricesInPoland/internal/pkg/errors"
)

// TrainTestSplit shuffles the rows of X and y with the given seed and splits
// them into train and test partitions. testFraction must be in (0, 1).
func TrainTestSplit(X *mat.Dense, y *mat.VecDense, testFraction float64, seed int64) (XTrain, XTest *mat.Dense, yTrain, yTest *mat.VecDense, err error) {
	rows, cols := X.Dims()
	if y.Len() != rows {
		return nil, nil, nil, nil, errors.Newf("X has %d rows but y has %d", rows, y.Len())
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, nil, nil, errors.Newf("test fraction %v out of range (0, 1)", testFraction)
	}
	nTest := int(float64(rows) * testFraction)
	if nTest == 0 || nTest == rows {
		return nil, nil, nil, nil, errors.Newf("split of %d rows at fraction %v leaves an empty partition", rows, testFraction)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(rows)
	testIdx := perm[:nTest]
	trainIdx := perm[nTest:]

	take := func(idx []int) (*mat.Dense, *mat.VecDense) {
		Xp := mat.NewDense(len(idx), cols, nil)
		yp := mat.NewVecDense(len(idx), nil)
		for i, src := range idx {
			Xp.SetRow(i, mat.Row(nil, src, X))
			yp.SetVec(i, y.AtVec(src))
		}
		return Xp, yp
	}
	XTrain, yTrain = take(trainIdx)
	XTest, yTest = take(testIdx)
	return XTrain, XTest, yTrain, yTest, nil
}
