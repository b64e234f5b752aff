package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedModel returns canned predictions.
type fixedModel struct {
	preds  []float64
	err    error
	fitted int
}

func (m *fixedModel) Fit(_ [][]float64, _ []float64) error {
	m.fitted++
	return nil
}

func (m *fixedModel) Predict(X [][]float64) ([]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.preds[:len(X)], nil
}

func TestEvaluate_RowsAndMSE(t *testing.T) {
	test := Dataset{
		X: [][]float64{{0}, {0}, {0}},
		Y: []float64{20, 22, 24},
	}
	ev, err := Evaluate(&fixedModel{preds: []float64{21, 22, 21}}, test)
	require.NoError(t, err)

	assert.Equal(t, []ComparisonRow{
		{Actual: 20, Predicted: 21, AbsDeviation: 1},
		{Actual: 22, Predicted: 22, AbsDeviation: 0},
		{Actual: 24, Predicted: 21, AbsDeviation: 3},
	}, ev.Rows)
	assert.InDelta(t, 10.0/3.0, ev.MSE, 1e-12)
}

func TestEvaluate_Errors(t *testing.T) {
	_, err := Evaluate(&fixedModel{}, Dataset{})
	assert.ErrorIs(t, err, ErrNotEnoughData)

	test := Dataset{X: [][]float64{{0}}, Y: []float64{1}}
	_, err = Evaluate(&fixedModel{err: errors.New("boom")}, test)
	assert.Error(t, err)

	short := &shortModel{}
	_, err = Evaluate(short, Dataset{X: [][]float64{{0}, {0}}, Y: []float64{1, 2}})
	assert.Error(t, err)
}

type shortModel struct{}

func (shortModel) Fit([][]float64, []float64) error         { return nil }
func (shortModel) Predict([][]float64) ([]float64, error) { return []float64{1}, nil }

func TestMeanSquaredError(t *testing.T) {
	assert.Equal(t, 0.0, MeanSquaredError([]float64{1, 2, 3}, []float64{1, 2, 3}))
	assert.InDelta(t, 2.5, MeanSquaredError([]float64{0, 0}, []float64{1, 2}), 1e-12)
	assert.Equal(t, 0.0, MeanSquaredError(nil, nil))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, DecisionAlert, Classify(29.0, 28.0))
	assert.Equal(t, DecisionNormal, Classify(27.9, 28.0))
	assert.Equal(t, DecisionNormal, Classify(28.0, 28.0), "the threshold itself is not an alert")
}
