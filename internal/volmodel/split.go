package volmodel

import (
	"math"
	"math/rand/v2"
)

// TrainTestSplit shuffles the rows with seed and holds out testFrac of them.
// At least one row lands in each side when there are two or more rows.
func TrainTestSplit(X [][]float64, y []float64, testFrac float64, seed uint64) (Xtrain [][]float64, Xtest [][]float64, ytrain []float64, ytest []float64) {
	n := len(X)
	perm := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)).Perm(n)

	nTest := int(math.Ceil(float64(n) * testFrac))
	if n >= 2 {
		nTest = max(1, min(nTest, n-1))
	} else {
		nTest = 0
	}

	for k, i := range perm {
		if k < nTest {
			Xtest = append(Xtest, X[i])
			ytest = append(ytest, y[i])
		} else {
			Xtrain = append(Xtrain, X[i])
			ytrain = append(ytrain, y[i])
		}
	}
	return Xtrain, Xtest, ytrain, ytest
}

// MSE is the mean squared error between actual and predicted values.
func MSE(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return 0
	}
	var sum float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return sum / float64(len(actual))
}
