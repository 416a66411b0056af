package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/disruption-cli/internal/model"
	"github.com/sells-group/disruption-cli/pkg/geocode"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// The parent directory is created if missing.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dsn); dir != "." && dsn != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "sqlite: create dir %s", dir)
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	date       TEXT NOT NULL,
	venue      TEXT NOT NULL,
	address    TEXT NOT NULL,
	url        TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	scraped_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (name, date, venue)
);

CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);

CREATE TABLE IF NOT EXISTS geocode_cache (
	address_hash      TEXT PRIMARY KEY,
	address           TEXT NOT NULL,
	latitude          REAL NOT NULL DEFAULT 0,
	longitude         REAL NOT NULL DEFAULT 0,
	source            TEXT NOT NULL DEFAULT '',
	quality           TEXT NOT NULL DEFAULT '',
	formatted_address TEXT NOT NULL DEFAULT '',
	matched           INTEGER NOT NULL,
	cached_at         DATETIME NOT NULL
);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertEvents(ctx context.Context, events []model.Event) (int, error) {
	prepared, err := prepareEvents(events, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if len(prepared) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (id, name, date, venue, address, url, source, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name, date, venue) DO UPDATE SET
			address = excluded.address,
			url = excluded.url,
			source = excluded.source,
			scraped_at = excluded.scraped_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert event")
	}
	defer stmt.Close() //nolint:errcheck

	for _, e := range prepared {
		if _, err := stmt.ExecContext(ctx, e.ID, e.Name, e.Date, e.Venue, e.Address, e.URL, e.Source, e.ScrapedAt); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert event %q", e.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit events")
	}
	return len(prepared), nil
}

func (s *SQLiteStore) ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error) {
	query := `SELECT id, name, date, venue, address, url, source, scraped_at FROM events WHERE 1=1`
	var args []any

	if filter.From != "" {
		query += ` AND date >= ?`
		args = append(args, filter.From)
	}
	if filter.To != "" {
		query += ` AND date <= ?`
		args = append(args, filter.To)
	}
	if filter.Venue != "" {
		query += ` AND venue = ?`
		args = append(args, filter.Venue)
	}
	query += ` ORDER BY date, name`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list events")
	}
	defer rows.Close() //nolint:errcheck

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Date, &e.Venue, &e.Address, &e.URL, &e.Source, &e.ScrapedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan event")
		}
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: iterate events")
}

func (s *SQLiteStore) DeleteEventsBefore(ctx context.Context, date string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE date < ?`, date)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete events")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLiteStore) GetGeocode(ctx context.Context, key string, maxAge time.Duration) (*geocode.Result, bool, error) {
	var r geocode.Result
	var cachedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT latitude, longitude, source, quality, formatted_address, matched, cached_at
		 FROM geocode_cache WHERE address_hash = ?`, key,
	).Scan(&r.Latitude, &r.Longitude, &r.Source, &r.Quality, &r.FormattedAddress, &r.Matched, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: get geocode")
	}
	if maxAge > 0 && time.Since(cachedAt) > maxAge {
		return nil, false, nil
	}
	return &r, true, nil
}

func (s *SQLiteStore) PutGeocode(ctx context.Context, key, address string, result *geocode.Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO geocode_cache (address_hash, address, latitude, longitude, source, quality, formatted_address, matched, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (address_hash) DO UPDATE SET
			address = excluded.address,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			source = excluded.source,
			quality = excluded.quality,
			formatted_address = excluded.formatted_address,
			matched = excluded.matched,
			cached_at = excluded.cached_at`,
		key, address, result.Latitude, result.Longitude, result.Source, result.Quality,
		result.FormattedAddress, result.Matched, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: put geocode")
}
