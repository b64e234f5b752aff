package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"
)

// CSVFields is the fixed column set of the flat file. Payload keys outside it are not written.
var CSVFields = []string{
	"timestamp", "date", "heure",
	"air_quality", "humidity", "light_level", "pressure", "sound_level", "temperature",
}

// CSVSink appends one row per uplink to a delimited file.
// The file is opened and closed on every write so external rotation just works.
type CSVSink struct {
	path   string
	clock  clockwork.Clock
	logger *slog.Logger
}

func NewCSVSink(path string, clock clockwork.Clock, logger *slog.Logger) *CSVSink {
	return &CSVSink{path: path, clock: clock, logger: logger}
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Handle(_ context.Context, u Uplink) error {
	now := s.clock.Now().UTC()
	rec := stamp(u.Payload, now)
	rec.Set("date", now.Format("2006-01-02"))
	rec.Set("heure", now.Format("15:04:05"))

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("ouverture du CSV: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat du CSV: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(CSVFields); err != nil {
			return fmt.Errorf("écriture de l'en-tête CSV: %w", err)
		}
	}

	row := make([]string, len(CSVFields))
	for i, field := range CSVFields {
		row[i] = rec.Text(field)
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("écriture CSV: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("écriture CSV: %w", err)
	}

	s.logger.Info("Données insérées dans le CSV", "file", s.path)
	return nil
}
