package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/disruption-cli/internal/db"
	"github.com/sells-group/disruption-cli/internal/model"
	"github.com/sells-group/disruption-cli/pkg/geocode"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements are prepared on every new connection.
var preparedStatements = map[string]string{
	"list_events_on": `SELECT id, name, date, venue, address, url, source, scraped_at FROM events WHERE date = $1 ORDER BY name`,
	"get_geocode":    `SELECT latitude, longitude, source, quality, formatted_address, matched, cached_at FROM geocode_cache WHERE address_hash = $1`,
}

var eventsUpsert = db.UpsertConfig{
	Table:        "events",
	Columns:      []string{"id", "name", "date", "venue", "address", "url", "source", "scraped_at"},
	ConflictKeys: []string{"name", "date", "venue"},
	UpdateCols:   []string{"address", "url", "source", "scraped_at"},
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 1
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL,
	date       TEXT NOT NULL,
	venue      TEXT NOT NULL,
	address    TEXT NOT NULL,
	url        TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	scraped_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (name, date, venue)
);

CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);

CREATE TABLE IF NOT EXISTS geocode_cache (
	address_hash      TEXT PRIMARY KEY,
	address           TEXT NOT NULL,
	latitude          DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude         DOUBLE PRECISION NOT NULL DEFAULT 0,
	source            TEXT NOT NULL DEFAULT '',
	quality           TEXT NOT NULL DEFAULT '',
	formatted_address TEXT NOT NULL DEFAULT '',
	matched           BOOLEAN NOT NULL,
	cached_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_cached_at ON geocode_cache(cached_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertEvents(ctx context.Context, events []model.Event) (int, error) {
	prepared, err := prepareEvents(events, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	rows := make([][]any, len(prepared))
	for i, e := range prepared {
		rows[i] = []any{e.ID, e.Name, e.Date, e.Venue, e.Address, e.URL, e.Source, e.ScrapedAt}
	}

	if _, err := db.BulkUpsert(ctx, s.pool, eventsUpsert, rows); err != nil {
		return 0, eris.Wrap(err, "postgres: upsert events")
	}
	return len(prepared), nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error) {
	query := `SELECT id, name, date, venue, address, url, source, scraped_at FROM events WHERE true`
	args := []any{}
	argIdx := 1

	if filter.From != "" {
		query += fmt.Sprintf(` AND date >= $%d`, argIdx)
		args = append(args, filter.From)
		argIdx++
	}
	if filter.To != "" {
		query += fmt.Sprintf(` AND date <= $%d`, argIdx)
		args = append(args, filter.To)
		argIdx++
	}
	if filter.Venue != "" {
		query += fmt.Sprintf(` AND venue = $%d`, argIdx)
		args = append(args, filter.Venue)
		argIdx++
	}
	query += ` ORDER BY date, name`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list events")
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Date, &e.Venue, &e.Address, &e.URL, &e.Source, &e.ScrapedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan event")
		}
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "postgres: iterate events")
}

func (s *PostgresStore) DeleteEventsBefore(ctx context.Context, date string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM events WHERE date < $1`, date)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete events")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) GetGeocode(ctx context.Context, key string, maxAge time.Duration) (*geocode.Result, bool, error) {
	var r geocode.Result
	var cachedAt time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT latitude, longitude, source, quality, formatted_address, matched, cached_at FROM geocode_cache WHERE address_hash = $1`,
		key,
	).Scan(&r.Latitude, &r.Longitude, &r.Source, &r.Quality, &r.FormattedAddress, &r.Matched, &cachedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: get geocode")
	}
	if maxAge > 0 && time.Since(cachedAt) > maxAge {
		return nil, false, nil
	}
	return &r, true, nil
}

func (s *PostgresStore) PutGeocode(ctx context.Context, key, address string, result *geocode.Result) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO geocode_cache (address_hash, address, latitude, longitude, source, quality, formatted_address, matched, cached_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (address_hash) DO UPDATE SET
			address = EXCLUDED.address,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			source = EXCLUDED.source,
			quality = EXCLUDED.quality,
			formatted_address = EXCLUDED.formatted_address,
			matched = EXCLUDED.matched,
			cached_at = now()`,
		key, address, result.Latitude, result.Longitude, result.Source, result.Quality, result.FormattedAddress, result.Matched,
	)
	return eris.Wrap(err, "postgres: put geocode")
}
