package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ridge is a linear least squares estimator with L2 regularization and
// per-feature standardization. The intercept is unpenalized. Fields are
// exported for JSON artifact serialization only.
type ridge struct {
	Lambda    float64   `json:"lambda"`
	Means     []float64 `json:"means"`
	Stds      []float64 `json:"stds"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// fit solves (Z'Z + lambda*I) w = Z'(y - mean(y)) on standardized features.
func (r *ridge) fit(X [][]float64, y []float64) error {
	n := len(X)
	if n == 0 {
		return errors.New("no samples")
	}
	p := len(X[0])

	r.Means = make([]float64, p)
	r.Stds = make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1 // constant column, leave it centered at zero
		}
		r.Means[j] = mean
		r.Stds[j] = std
	}

	yMean := stat.Mean(y, nil)
	r.Intercept = yMean

	z := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			z.Set(i, j, (X[i][j]-r.Means[j])/r.Stds[j])
		}
	}
	yc := mat.NewVecDense(n, nil)
	for i, v := range y {
		yc.SetVec(i, v-yMean)
	}

	var ztz mat.Dense
	ztz.Mul(z.T(), z)
	for j := 0; j < p; j++ {
		ztz.Set(j, j, ztz.At(j, j)+r.Lambda)
	}

	var zty mat.VecDense
	zty.MulVec(z.T(), yc)

	var w mat.VecDense
	if err := w.SolveVec(&ztz, &zty); err != nil {
		return fmt.Errorf("solve ridge system: %w", err)
	}

	r.Weights = make([]float64, p)
	for j := 0; j < p; j++ {
		r.Weights[j] = w.AtVec(j)
	}
	return nil
}

// predict returns the estimate for one raw (unstandardized) feature vector.
func (r *ridge) predict(x []float64) float64 {
	yhat := r.Intercept
	for j, w := range r.Weights {
		yhat += w * (x[j] - r.Means[j]) / r.Stds[j]
	}
	return yhat
}

// rSquared scores predictions against observed values.
func rSquared(estimates, values []float64) float64 {
	return stat.RSquaredFrom(estimates, values, nil)
}
