package main

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Evaluation is the test-set score of a fitted model.
type Evaluation struct {
	MSE  float64
	Rows []ComparisonRow
}

// Evaluate predicts the whole test set in one batch and compares each
// prediction with its label, keeping the chronological order.
func Evaluate(model Regressor, test Dataset) (Evaluation, error) {
	if test.Len() == 0 {
		return Evaluation{}, fmt.Errorf("%w: jeu de test vide", ErrNotEnoughData)
	}
	preds, err := model.Predict(test.X)
	if err != nil {
		return Evaluation{}, fmt.Errorf("prédiction: %w", err)
	}
	if len(preds) != test.Len() {
		return Evaluation{}, fmt.Errorf("le modèle a rendu %d prédictions pour %d lignes", len(preds), test.Len())
	}

	rows := make([]ComparisonRow, len(preds))
	for i, p := range preds {
		rows[i] = ComparisonRow{
			Actual:       test.Y[i],
			Predicted:    p,
			AbsDeviation: math.Abs(test.Y[i] - p),
		}
	}
	return Evaluation{MSE: MeanSquaredError(test.Y, preds), Rows: rows}, nil
}

// MeanSquaredError of two equally long series.
func MeanSquaredError(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	d := floats.Distance(actual, predicted, 2)
	return d * d / float64(len(actual))
}

// Classify flags a forecast strictly above the threshold.
func Classify(predicted, threshold float64) Decision {
	if predicted > threshold {
		return DecisionAlert
	}
	return DecisionNormal
}
