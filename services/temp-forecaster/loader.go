package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// timestampLayout matches the timestamps the relay writes.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Loader returns every stored reading in chronological order.
type Loader interface {
	Load(ctx context.Context) ([]Observation, error)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresLoader reads the relay's table.
type PostgresLoader struct {
	db     querier
	table  string
	logger *slog.Logger
	pool   *pgxpool.Pool
}

func NewPostgresLoader(ctx context.Context, url, table string, logger *slog.Logger) (*PostgresLoader, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("configuration PostgreSQL invalide: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("PostgreSQL n'est pas disponible: %w", err)
	}
	return &PostgresLoader{db: pool, table: table, logger: logger, pool: pool}, nil
}

func (l *PostgresLoader) Load(ctx context.Context) ([]Observation, error) {
	query := fmt.Sprintf(
		"SELECT id::text, recorded_at, payload FROM %s ORDER BY recorded_at ASC, id ASC",
		pgx.Identifier{l.table}.Sanitize(),
	)

	rows, err := l.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("lecture de %s: %w", l.table, err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var (
			id         string
			recordedAt time.Time
			payload    []byte
		)
		if err := rows.Scan(&id, &recordedAt, &payload); err != nil {
			return nil, fmt.Errorf("lecture d'une ligne: %w", err)
		}
		obs, err := observationFromJSON(id, recordedAt, payload)
		if err != nil {
			l.logger.Warn("Ligne ignorée", "id", id, "error", err)
			continue
		}
		out = append(out, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lecture de %s: %w", l.table, err)
	}
	return out, nil
}

func (l *PostgresLoader) Close() {
	if l.pool != nil {
		l.pool.Close()
	}
}

// observationFromJSON keeps the numeric fields of a stored payload.
func observationFromJSON(id string, at time.Time, payload []byte) (Observation, error) {
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Observation{}, fmt.Errorf("payload illisible: %w", err)
	}

	obs := Observation{ID: id, Time: at.UTC(), Values: make(map[string]float64, len(doc))}
	for key, raw := range doc {
		if f, ok := raw.(float64); ok {
			obs.Values[key] = f
		}
	}
	return obs, nil
}

// CSVLoader reads the flat file written by the relay. Any header works as long
// as it has a timestamp column; non-numeric cells are left out.
type CSVLoader struct {
	path string
}

func NewCSVLoader(path string) *CSVLoader {
	return &CSVLoader{path: path}
}

func (l *CSVLoader) Load(_ context.Context) ([]Observation, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("ouverture du CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lecture de l'en-tête: %w", err)
	}
	tsCol := slices.Index(header, "timestamp")
	if tsCol < 0 {
		return nil, fmt.Errorf("%s: colonne timestamp absente", l.path)
	}

	var out []Observation
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ligne %d: %w", line, err)
		}
		if tsCol >= len(row) {
			return nil, fmt.Errorf("ligne %d: colonne timestamp manquante", line)
		}

		at, err := parseTimestamp(row[tsCol])
		if err != nil {
			return nil, fmt.Errorf("ligne %d: %w", line, err)
		}
		obs := Observation{ID: strconv.Itoa(line), Time: at, Values: map[string]float64{}}
		for i, cell := range row {
			if i == tsCol || i >= len(header) || cell == "" {
				continue
			}
			if f, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				obs.Values[header[i]] = f
			}
		}
		out = append(out, obs)
	}

	// Rows are appended in arrival order; sorting only matters for hand-edited files.
	slices.SortStableFunc(out, func(a, b Observation) int { return a.Time.Compare(b.Time) })
	return out, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(timestampLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp invalide %q", s)
	}
	return t.UTC(), nil
}
