package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// timestampLayout is ISO-8601 UTC with fixed-width microseconds, so string order is time order.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// ErrNotFound is returned by Latest when no reading is cached for a device.
var ErrNotFound = errors.New("aucune mesure récente")

// ErrCacheDisabled is returned by Latest when Valkey is not configured.
var ErrCacheDisabled = errors.New("cache Valkey désactivé")

// stamp returns a copy of rec carrying the storage timestamp.
func stamp(rec Record, now time.Time) Record {
	out := rec.Clone()
	out.Set("timestamp", now.UTC().Format(timestampLayout))
	return out
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// latestCache is the part of the Valkey client the repository uses.
type latestCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Repository is the durable store sink: every uplink becomes one row in Postgres
// (payload as jsonb) and, when Valkey is configured, the latest reading per device
// is kept under sensor:last:<device> for the HTTP API.
type Repository struct {
	db     execer
	cache  latestCache
	table  string // already sanitized identifier
	ttl    time.Duration
	clock  clockwork.Clock
	logger *slog.Logger

	pool *pgxpool.Pool
	rdb  *redis.Client
}

// NewRepository connects to Postgres and, if configured, Valkey, and pings both.
func NewRepository(ctx context.Context, cfg Config, clock clockwork.Clock, logger *slog.Logger) (*Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("configuration PostgreSQL invalide: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("PostgreSQL n'est pas disponible: %w", err)
	}

	repo := newRepository(pool, nil, cfg.PostgresTable, cfg.ValkeyTTL, clock, logger)
	repo.pool = pool

	if cfg.ValkeyAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.ValkeyAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			pool.Close()
			rdb.Close()
			return nil, fmt.Errorf("Valkey n'est pas disponible: %w", err)
		}
		repo.cache = rdb
		repo.rdb = rdb
	}

	return repo, nil
}

func newRepository(db execer, cache latestCache, table string, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger) *Repository {
	return &Repository{
		db:     db,
		cache:  cache,
		table:  table,
		ttl:    ttl,
		clock:  clock,
		logger: logger,
	}
}

// EnsureSchema creates the readings table and its time index if they do not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	table := pgx.Identifier{r.table}.Sanitize()
	index := pgx.Identifier{r.table + "_recorded_at_idx"}.Sanitize()

	ddl := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id          uuid PRIMARY KEY,
			device_id   text NOT NULL DEFAULT '',
			recorded_at timestamptz NOT NULL,
			payload     jsonb NOT NULL
		)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (recorded_at)`, index, table),
	}
	for _, stmt := range ddl {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("création du schéma: %w", err)
		}
	}
	return nil
}

func (r *Repository) Name() string { return "postgres" }

// Handle inserts the stamped payload. The Valkey update only runs after a successful insert.
func (r *Repository) Handle(ctx context.Context, u Uplink) error {
	now := r.clock.Now().UTC()
	rec := stamp(u.Payload, now)

	payload, err := rec.MarshalJSON()
	if err != nil {
		return fmt.Errorf("sérialisation du payload: %w", err)
	}

	id := uuid.New()
	query := fmt.Sprintf(`INSERT INTO %s (id, device_id, recorded_at, payload) VALUES ($1, $2, $3, $4)`,
		pgx.Identifier{r.table}.Sanitize())
	if _, err := r.db.Exec(ctx, query, id, u.DeviceID, now, payload); err != nil {
		return fmt.Errorf("erreur lors de l'insertion dans PostgreSQL: %w", err)
	}
	r.logger.Info("Données insérées dans PostgreSQL", "id", id.String())

	if r.cache == nil {
		return nil
	}
	if err := r.cache.Set(ctx, latestKey(u.DeviceID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("erreur de mise à jour Valkey: %w", err)
	}
	return nil
}

// Latest returns the last stored payload of a device as JSON.
func (r *Repository) Latest(ctx context.Context, deviceID string) ([]byte, error) {
	if r.cache == nil {
		return nil, ErrCacheDisabled
	}
	val, err := r.cache.Get(ctx, latestKey(deviceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Close releases the Postgres pool and the Valkey client.
func (r *Repository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
	if r.rdb != nil {
		r.rdb.Close()
	}
}

func latestKey(deviceID string) string {
	if deviceID == "" {
		deviceID = "unknown"
	}
	return "sensor:last:" + deviceID
}
