package main

import (
	"fmt"
	"slices"
)

// WithTarget drops the observations that carry no temperature. They cannot be
// labelled and cannot label an earlier row either.
func WithTarget(obs []Observation) (kept []Observation, dropped int) {
	kept = make([]Observation, 0, len(obs))
	for _, o := range obs {
		if _, ok := o.Values[targetField]; ok {
			kept = append(kept, o)
			continue
		}
		dropped++
	}
	return kept, dropped
}

// FeatureColumns returns, sorted, the numeric fields present in every observation.
// The temperature itself is a feature: the label is its future value.
func FeatureColumns(obs []Observation) ([]string, error) {
	if len(obs) == 0 {
		return nil, ErrNoData
	}

	var cols []string
	for key := range obs[0].Values {
		if nonFeatures[key] {
			continue
		}
		inAll := true
		for _, o := range obs[1:] {
			if _, ok := o.Values[key]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			cols = append(cols, key)
		}
	}
	slices.Sort(cols)

	if !slices.Contains(cols, targetField) {
		return nil, fmt.Errorf("le champ %q n'est pas présent dans toutes les mesures", targetField)
	}
	return cols, nil
}

// BuildDataset labels row i with the temperature of row i+horizon.
// The last horizon rows have no label and are left out.
func BuildDataset(obs []Observation, horizon int) (Dataset, error) {
	if horizon < 1 {
		return Dataset{}, fmt.Errorf("horizon invalide: %d", horizon)
	}
	cols, err := FeatureColumns(obs)
	if err != nil {
		return Dataset{}, err
	}
	if len(obs) <= horizon {
		return Dataset{}, fmt.Errorf("%w: %d mesures pour un horizon de %d", ErrNotEnoughData, len(obs), horizon)
	}

	n := len(obs) - horizon
	ds := Dataset{
		Columns: cols,
		X:       make([][]float64, n),
		Y:       make([]float64, n),
		Index:   make([]int, n),
	}
	for i := 0; i < n; i++ {
		ds.X[i] = featureRow(obs[i], cols)
		ds.Y[i] = obs[i+horizon].Values[targetField]
		ds.Index[i] = i
	}
	return ds, nil
}

// Split cuts the dataset chronologically: the first percent of the rows
// (rounded down) train the model, the rest test it. Nothing is shuffled.
func Split(ds Dataset, percent int) (train, test Dataset, err error) {
	n := ds.Len()
	cut := n * percent / 100
	if cut == 0 || cut == n {
		return Dataset{}, Dataset{}, fmt.Errorf("%w: %d lignes étiquetées, découpage %d/%d", ErrNotEnoughData, n, percent, 100-percent)
	}
	return ds.slice(0, cut), ds.slice(cut, n), nil
}

func (d Dataset) slice(from, to int) Dataset {
	return Dataset{
		Columns: d.Columns,
		X:       d.X[from:to],
		Y:       d.Y[from:to],
		Index:   d.Index[from:to],
	}
}

// LatestFeatures is the feature row of the most recent observation, the input
// of the forward forecast.
func LatestFeatures(obs []Observation, cols []string) []float64 {
	return featureRow(obs[len(obs)-1], cols)
}

func featureRow(o Observation, cols []string) []float64 {
	row := make([]float64, len(cols))
	for j, c := range cols {
		row[j] = o.Values[c]
	}
	return row
}
