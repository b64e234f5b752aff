package main

import (
	"errors"
	"time"
)

// targetField is the reading being forecast.
const targetField = "temperature"

// nonFeatures are record keys that never enter the feature vector.
var nonFeatures = map[string]bool{
	"id":        true,
	"_id":       true,
	"timestamp": true,
}

// Observation is one stored reading reduced to its numeric fields.
type Observation struct {
	ID     string
	Time   time.Time
	Values map[string]float64
}

// Dataset is a labelled feature matrix. Row i of X is the observation at
// position Index[i] of the loaded sequence; Y[i] is its future temperature.
type Dataset struct {
	Columns []string
	X       [][]float64
	Y       []float64
	Index   []int
}

func (d Dataset) Len() int { return len(d.Y) }

// ComparisonRow is one test-set prediction next to the value that was observed.
type ComparisonRow struct {
	Actual       float64
	Predicted    float64
	AbsDeviation float64
}

// Decision is the outcome of the forward-looking alert check.
type Decision string

const (
	DecisionAlert  Decision = "alert"
	DecisionNormal Decision = "normal"
)

var (
	// ErrNoData means the source returned no usable record.
	ErrNoData = errors.New("aucune donnée")
	// ErrNotEnoughData means the records do not fill both halves of the split.
	ErrNotEnoughData = errors.New("pas assez de données")
)
