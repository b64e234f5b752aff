package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Pipeline is one forecast run: load, label, split, fit, score, report, forecast.
type Pipeline struct {
	Loader         Loader
	Model          Regressor
	Horizon        int
	SampleInterval time.Duration
	TrainPercent   int
	Threshold      float64
	ComparisonCSV  string
	ComparisonPNG  string

	Out    io.Writer // console report
	Logger *slog.Logger
}

// Result sums up a run.
type Result struct {
	Columns    []string
	TrainRows  int
	Evaluation Evaluation
	Forecast   float64
	Decision   Decision
}

func NewPipeline(cfg Config, loader Loader, model Regressor, out io.Writer, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		Loader:         loader,
		Model:          model,
		Horizon:        cfg.Horizon,
		SampleInterval: cfg.SampleInterval,
		TrainPercent:   cfg.TrainPercent,
		Threshold:      cfg.AlertThreshold,
		ComparisonCSV:  cfg.ComparisonCSV,
		ComparisonPNG:  cfg.ComparisonPNG,
		Out:            out,
		Logger:         logger,
	}
}

// Run returns ErrNoData when the source holds no usable reading.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	obs, err := p.Loader.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("chargement: %w", err)
	}
	if len(obs) == 0 {
		return Result{}, ErrNoData
	}

	obs, dropped := WithTarget(obs)
	if dropped > 0 {
		p.Logger.Warn("Mesures sans température ignorées", "count", dropped)
	}
	if len(obs) == 0 {
		return Result{}, ErrNoData
	}
	p.Logger.Info("Données chargées", "records", len(obs), "from", obs[0].Time, "to", obs[len(obs)-1].Time)

	ds, err := BuildDataset(obs, p.Horizon)
	if err != nil {
		return Result{}, err
	}
	train, test, err := Split(ds, p.TrainPercent)
	if err != nil {
		return Result{}, err
	}
	p.Logger.Debug("Découpage", "columns", ds.Columns, "train", train.Len(), "test", test.Len())

	p.Logger.Info("Entraînement du modèle...")
	if err := p.Model.Fit(train.X, train.Y); err != nil {
		return Result{}, fmt.Errorf("entraînement: %w", err)
	}
	p.Logger.Info("Entraînement terminé.")

	p.Logger.Info("Prédiction sur le test set...")
	ev, err := Evaluate(p.Model, test)
	if err != nil {
		return Result{}, err
	}

	fmt.Fprintf(p.Out, "MSE sur le test set : %.2f\n", ev.MSE)
	fmt.Fprintf(p.Out, "\nTableau de comparaison (%d%% test set) :\n", 100-p.TrainPercent)
	if err := WriteComparisonTable(p.Out, ev.Rows); err != nil {
		return Result{}, err
	}

	if err := WriteComparisonCSV(p.ComparisonCSV, ev.Rows); err != nil {
		return Result{}, err
	}
	fmt.Fprintf(p.Out, "\nTableau sauvegardé dans '%s'.\n", p.ComparisonCSV)

	if err := RenderChart(p.ComparisonPNG, ev.Rows); err != nil {
		return Result{}, err
	}
	fmt.Fprintf(p.Out, "Graphique sauvegardé dans '%s'.\n", p.ComparisonPNG)

	preds, err := p.Model.Predict([][]float64{LatestFeatures(obs, ds.Columns)})
	if err != nil {
		return Result{}, fmt.Errorf("prévision: %w", err)
	}
	if len(preds) != 1 {
		return Result{}, fmt.Errorf("prévision: %d valeurs au lieu d'une", len(preds))
	}
	decision := Classify(preds[0], p.Threshold)
	WriteForecast(p.Out, time.Duration(p.Horizon)*p.SampleInterval, preds[0], decision)

	return Result{
		Columns:    ds.Columns,
		TrainRows:  train.Len(),
		Evaluation: ev,
		Forecast:   preds[0],
		Decision:   decision,
	}, nil
}
