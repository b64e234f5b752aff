package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var comparisonHeader = []string{"Température réelle", "Température prédite", "Ecart (°C)"}

// WriteComparisonTable prints the rows as an aligned console table.
func WriteComparisonTable(w io.Writer, rows []ComparisonRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\t%s\t%s\t\n", comparisonHeader[0], comparisonHeader[1], comparisonHeader[2])
	for _, r := range rows {
		fmt.Fprintf(tw, "%.2f\t%.2f\t%.2f\t\n", r.Actual, r.Predicted, r.AbsDeviation)
	}
	return tw.Flush()
}

// WriteComparisonCSV replaces path with the comparison table.
func WriteComparisonCSV(path string, rows []ComparisonRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("création de %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	w.Write(comparisonHeader)
	for _, r := range rows {
		w.Write([]string{formatFloat(r.Actual), formatFloat(r.Predicted), formatFloat(r.AbsDeviation)})
	}
	w.Flush()

	return errors.Join(w.Error(), f.Close())
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderChart draws actual and predicted temperature over the test-set index.
// The image format follows the file extension.
func RenderChart(path string, rows []ComparisonRow) error {
	if len(rows) == 0 {
		return errors.New("aucune ligne à tracer")
	}

	p := plot.New()
	p.Title.Text = "Comparaison Température réelle vs prédite"
	p.X.Label.Text = "Index (test set)"
	p.Y.Label.Text = "Température (°C)"
	p.Add(plotter.NewGrid())

	actual := make(plotter.XYs, len(rows))
	predicted := make(plotter.XYs, len(rows))
	for i, r := range rows {
		actual[i] = plotter.XY{X: float64(i), Y: r.Actual}
		predicted[i] = plotter.XY{X: float64(i), Y: r.Predicted}
	}
	if err := plotutil.AddLinePoints(p,
		comparisonHeader[0], actual,
		comparisonHeader[1], predicted,
	); err != nil {
		return fmt.Errorf("tracé: %w", err)
	}
	p.Legend.Top = true

	if err := p.Save(12*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("enregistrement de %s: %w", path, err)
	}
	return nil
}

// formatHorizon renders the forecast lead time the way the report reads it,
// "30 minutes" rather than "30m0s".
func formatHorizon(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 heure"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d heures", d/time.Hour)
	case d == time.Minute:
		return "1 minute"
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}

// WriteForecast prints the forward forecast and the alert decision.
func WriteForecast(w io.Writer, horizon time.Duration, predicted float64, decision Decision) {
	lead := formatHorizon(horizon)
	fmt.Fprintf(w, "\nTempérature prévue dans %s : %.2f°C\n", lead, predicted)
	if decision == DecisionAlert {
		fmt.Fprintf(w, "⚠️  Alerte : Température élevée prévue dans %s !\n", lead)
		return
	}
	fmt.Fprintln(w, "Température future dans la normale.")
}
