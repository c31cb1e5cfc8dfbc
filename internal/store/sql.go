package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/i474232898/weather-companion/internal/weather"
)

var (
	// ErrNotFound is returned when no data is available for a given key.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a favorite for the same place is already saved.
	ErrAlreadyExists = errors.New("location already saved")
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS locations (
		id           TEXT PRIMARY KEY,
		coord_key    TEXT NOT NULL UNIQUE,
		name_en      TEXT NOT NULL,
		name_fi      TEXT NOT NULL,
		country      TEXT NOT NULL,
		country_code TEXT NOT NULL,
		region       TEXT NOT NULL,
		latitude     DOUBLE PRECISION NOT NULL,
		longitude    DOUBLE PRECISION NOT NULL,
		timezone     TEXT NOT NULL,
		position     INTEGER NOT NULL,
		created_at   BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS weather_cache (
		cache_key  TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		fetched_at BIGINT NOT NULL,
		days       INTEGER NOT NULL DEFAULT 0
	)`,
}

// SQLStore keeps favorite locations and cached forecast payloads in an SQL
// database. SQLite is the embedded default; Postgres serves shared deployments.
type SQLStore struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// OpenSQL opens the database and creates the tables if needed.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One connection keeps ":memory:" databases shared and serializes writers.
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, driver: driver, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const locationColumns = `id, name_en, name_fi, country, country_code, region, latitude, longitude, timezone`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner) (weather.LocationData, error) {
	var l weather.LocationData
	err := row.Scan(&l.ID, &l.NameEN, &l.NameFI, &l.Country, &l.CountryCode, &l.Region,
		&l.Latitude, &l.Longitude, &l.Timezone)
	return l, err
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ListFavorites returns all favorites in display order.
func (s *SQLStore) ListFavorites(ctx context.Context) ([]weather.LocationData, error) {
	return s.listFavorites(ctx, s.db, "")
}

func (s *SQLStore) listFavorites(ctx context.Context, q queryer, suffix string) ([]weather.LocationData, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+locationColumns+` FROM locations ORDER BY position, created_at`+suffix)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	out := []weather.LocationData{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetFavorite returns one favorite by ID.
func (s *SQLStore) GetFavorite(ctx context.Context, id string) (weather.LocationData, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+locationColumns+` FROM locations WHERE id = ?`), id)
	l, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.LocationData{}, ErrNotFound
	}
	if err != nil {
		return weather.LocationData{}, fmt.Errorf("get favorite: %w", err)
	}
	return l, nil
}

// AddFavorite saves loc at the end of the list and returns it with its new ID.
func (s *SQLStore) AddFavorite(ctx context.Context, loc weather.LocationData) (weather.LocationData, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return weather.LocationData{}, err
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT id FROM locations WHERE coord_key = ?`), loc.Key()).Scan(&existing)
	switch {
	case err == nil:
		return weather.LocationData{}, fmt.Errorf("%w: %s", ErrAlreadyExists, existing)
	case !errors.Is(err, sql.ErrNoRows):
		return weather.LocationData{}, fmt.Errorf("check favorite: %w", err)
	}

	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM locations`).Scan(&next); err != nil {
		return weather.LocationData{}, fmt.Errorf("next position: %w", err)
	}

	loc.ID = uuid.NewString()
	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO locations
		(id, coord_key, name_en, name_fi, country, country_code, region, latitude, longitude, timezone, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		loc.ID, loc.Key(), loc.NameEN, loc.NameFI, loc.Country, loc.CountryCode, loc.Region,
		loc.Latitude, loc.Longitude, loc.Timezone, next, s.now().UnixMilli())
	if err != nil {
		return weather.LocationData{}, fmt.Errorf("insert favorite: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return weather.LocationData{}, err
	}
	return loc, nil
}

// RemoveFavorite deletes a favorite and its cached forecast.
func (s *SQLStore) RemoveFavorite(ctx context.Context, id string) error {
	loc, err := s.GetFavorite(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM locations WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM weather_cache WHERE cache_key = ?`), loc.Key()); err != nil {
		return fmt.Errorf("delete cached forecast: %w", err)
	}
	return tx.Commit()
}

// MoveFavorite moves a favorite to position (0-based, clamped) and renumbers the rest.
func (s *SQLStore) MoveFavorite(ctx context.Context, id string, position int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	lock := ""
	if s.driver == DriverPostgres {
		lock = " FOR UPDATE"
	}
	favs, err := s.listFavorites(ctx, tx, lock)
	if err != nil {
		return err
	}

	from := -1
	for i, f := range favs {
		if f.ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return ErrNotFound
	}

	if position < 0 {
		position = 0
	}
	if position >= len(favs) {
		position = len(favs) - 1
	}

	moved := favs[from]
	favs = append(favs[:from], favs[from+1:]...)
	favs = append(favs[:position], append([]weather.LocationData{moved}, favs[position:]...)...)

	stmt, err := tx.PrepareContext(ctx, s.rebind(`UPDATE locations SET position = ? WHERE id = ?`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, f := range favs {
		if _, err := stmt.ExecContext(ctx, i, f.ID); err != nil {
			return fmt.Errorf("reorder favorites: %w", err)
		}
	}
	return tx.Commit()
}

// SaveForecast stores the raw provider payload for a location, replacing the previous one.
func (s *SQLStore) SaveForecast(ctx context.Context, entry weather.CachedForecast) error {
	payload, err := json.Marshal(entry.Raw)
	if err != nil {
		return fmt.Errorf("encode forecast: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO weather_cache (cache_key, payload, fetched_at, days)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at, days = excluded.days`),
		entry.Key, string(payload), entry.FetchedAt.UnixMilli(), entry.Days)
	if err != nil {
		return fmt.Errorf("save forecast: %w", err)
	}
	return nil
}

// LatestForecast loads the cached payload for a location.
func (s *SQLStore) LatestForecast(ctx context.Context, key string) (weather.CachedForecast, error) {
	var (
		payload   string
		fetchedAt int64
		days      int
	)
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT payload, fetched_at, days FROM weather_cache WHERE cache_key = ?`), key).
		Scan(&payload, &fetchedAt, &days)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.CachedForecast{}, weather.ErrNotCached
	}
	if err != nil {
		return weather.CachedForecast{}, fmt.Errorf("load forecast: %w", err)
	}

	entry := weather.CachedForecast{Key: key, FetchedAt: time.UnixMilli(fetchedAt).UTC(), Days: days}
	if err := json.Unmarshal([]byte(payload), &entry.Raw); err != nil {
		return weather.CachedForecast{}, fmt.Errorf("decode forecast: %w", err)
	}
	return entry, nil
}
