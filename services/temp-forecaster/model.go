package main

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Regressor is a batch regression model. Predict returns one value per row, in row order.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
}

var errNotFitted = errors.New("modèle non entraîné")

// Ridge is L2-regularised least squares on standardised features.
// Sensor columns are often close to collinear (light and sound follow the same
// daily cycle), the penalty keeps the normal equations solvable.
type Ridge struct {
	Lambda float64

	mean      []float64
	scale     []float64
	coef      []float64
	intercept float64
}

func NewRidge(lambda float64) *Ridge {
	return &Ridge{Lambda: lambda}
}

func (r *Ridge) Fit(X [][]float64, y []float64) error {
	n := len(X)
	if n == 0 || n != len(y) {
		return fmt.Errorf("dimensions incohérentes: %d lignes, %d étiquettes", n, len(y))
	}
	p := len(X[0])
	if p == 0 {
		return errors.New("aucune variable explicative")
	}

	r.mean = make([]float64, p)
	r.scale = make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := range X {
			if len(X[i]) != p {
				return fmt.Errorf("ligne %d: %d colonnes au lieu de %d", i, len(X[i]), p)
			}
			col[i] = X[i][j]
		}
		r.mean[j], r.scale[j] = stat.MeanStdDev(col, nil)
		if !(r.scale[j] > 0) { // constant column or a single row
			r.scale[j] = 1
		}
	}

	z := mat.NewDense(n, p, nil)
	for i, row := range X {
		for j, v := range row {
			z.Set(i, j, (v-r.mean[j])/r.scale[j])
		}
	}

	r.intercept = stat.Mean(y, nil)
	yc := mat.NewVecDense(n, nil)
	for i, v := range y {
		yc.SetVec(i, v-r.intercept)
	}

	// (ZᵀZ + λI) β = Zᵀy
	var gram mat.SymDense
	gram.SymOuterK(1, z.T())
	for j := 0; j < p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+r.Lambda)
	}
	var rhs mat.VecDense
	rhs.MulVec(z.T(), yc)

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return errors.New("système singulier, augmenter RIDGE_LAMBDA")
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &rhs); err != nil {
		return fmt.Errorf("résolution: %w", err)
	}

	r.coef = make([]float64, p)
	for j := range r.coef {
		r.coef[j] = beta.AtVec(j)
	}
	return nil
}

func (r *Ridge) Predict(X [][]float64) ([]float64, error) {
	if r.coef == nil {
		return nil, errNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != len(r.coef) {
			return nil, fmt.Errorf("ligne %d: %d colonnes au lieu de %d", i, len(row), len(r.coef))
		}
		v := r.intercept
		for j, x := range row {
			v += r.coef[j] * (x - r.mean[j]) / r.scale[j]
		}
		if math.IsNaN(v) {
			return nil, fmt.Errorf("ligne %d: prédiction NaN", i)
		}
		out[i] = v
	}
	return out, nil
}
