package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRidge_RecoversLinearRelation(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		a := float64(i)
		b := float64((i * 7) % 11)
		X = append(X, []float64{a, b})
		y = append(y, 2*a-3*b+1)
	}

	m := NewRidge(1e-9)
	require.NoError(t, m.Fit(X, y))

	preds, err := m.Predict([][]float64{{100, 5}, {0, 0}})
	require.NoError(t, err)
	assert.InDelta(t, 186, preds[0], 1e-4)
	assert.InDelta(t, 1, preds[1], 1e-4)
}

func TestRidge_CollinearColumns(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 20; i++ {
		v := float64(i)
		X = append(X, []float64{v, 2 * v, 5}) // duplicated and constant columns
		y = append(y, v+20)
	}

	m := NewRidge(1e-3)
	require.NoError(t, m.Fit(X, y))

	preds, err := m.Predict(X)
	require.NoError(t, err)
	for i, p := range preds {
		assert.InDelta(t, y[i], p, 0.05)
	}
}

func TestRidge_PreservesRowOrder(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{10, 20, 30, 40}
	m := NewRidge(1e-9)
	require.NoError(t, m.Fit(X, y))

	preds, err := m.Predict([][]float64{{4}, {1}, {3}})
	require.NoError(t, err)
	require.Len(t, preds, 3)
	assert.InDelta(t, 40, preds[0], 1e-6)
	assert.InDelta(t, 10, preds[1], 1e-6)
	assert.InDelta(t, 30, preds[2], 1e-6)
}

func TestRidge_Errors(t *testing.T) {
	m := NewRidge(1e-3)

	_, err := m.Predict([][]float64{{1}})
	assert.ErrorIs(t, err, errNotFitted)

	assert.Error(t, m.Fit(nil, nil))
	assert.Error(t, m.Fit([][]float64{{1}, {2}}, []float64{1}))
	assert.Error(t, m.Fit([][]float64{{}, {}}, []float64{1, 2}))
	assert.Error(t, m.Fit([][]float64{{1, 2}, {3}}, []float64{1, 2}))

	require.NoError(t, m.Fit([][]float64{{1, 2}, {3, 5}}, []float64{1, 2}))
	_, err = m.Predict([][]float64{{1}})
	assert.Error(t, err)
}

func TestRidge_SingleRow(t *testing.T) {
	m := NewRidge(1e-3)
	require.NoError(t, m.Fit([][]float64{{3, 4}}, []float64{21}))

	preds, err := m.Predict([][]float64{{3, 4}})
	require.NoError(t, err)
	assert.InDelta(t, 21, preds[0], 1e-9)
}
