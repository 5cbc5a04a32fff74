package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/abelbrown/skydeck/internal/model"
)

// SQLite is the default Store backend.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SQLite struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens or creates the database at dbPath.
// ":memory:" opens a private in-memory database.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func OpenSQLite(dbPath string) (*SQLite, error) {
	memory := dbPath == ":memory:"

	connStr := dbPath
	if memory {
		// Shared cache so every pooled connection sees the same database,
		// with a unique name so separate stores never share one.
		connStr = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	} else if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if !memory {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &SQLite{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
// Timestamps are stored as unix nanoseconds.
func (s *SQLite) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chat_sessions (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		title TEXT NOT NULL,
		messages TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_owner ON chat_sessions(owner, updated_at DESC);

	CREATE TABLE IF NOT EXISTS saved_events (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		date INTEGER NOT NULL,
		payload TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_owner ON saved_events(owner, date);

	CREATE TABLE IF NOT EXISTS profiles (
		owner TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		display_name TEXT,
		location_name TEXT,
		latitude REAL,
		longitude REAL,
		dark_mode INTEGER DEFAULT 0,
		units TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stargazing_events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		event_type TEXT,
		date INTEGER NOT NULL,
		location_name TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		organizer TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stargazing_date ON stargazing_events(date);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// CreateSession inserts a new session.
func (s *SQLite) CreateSession(ctx context.Context, cs model.ChatSession) error {
	msgs, err := json.Marshal(cs.Messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, owner, title, messages, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, cs.ID, cs.Owner, cs.Title, string(msgs), nanos(cs.CreatedAt), nanos(cs.UpdatedAt))
	return err
}

// GetSession returns one session by id.
func (s *SQLite) GetSession(ctx context.Context, id string) (model.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions, err := s.querySessions(ctx, `
		SELECT id, owner, title, messages, created_at, updated_at
		FROM chat_sessions WHERE id = ?
	`, id)
	if err != nil {
		return model.ChatSession{}, err
	}
	if len(sessions) == 0 {
		return model.ChatSession{}, ErrNotFound
	}
	return sessions[0], nil
}

// ListSessions returns the owner's sessions, newest first.
func (s *SQLite) ListSessions(ctx context.Context, owner string) ([]model.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySessions(ctx, `
		SELECT id, owner, title, messages, created_at, updated_at
		FROM chat_sessions WHERE owner = ?
		ORDER BY updated_at DESC, id
	`, owner)
}

// UpdateSession overwrites title, messages and updated_at.
func (s *SQLite) UpdateSession(ctx context.Context, cs model.ChatSession) error {
	msgs, err := json.Marshal(cs.Messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE chat_sessions SET title = ?, messages = ?, updated_at = ?
		WHERE id = ?
	`, cs.Title, string(msgs), nanos(cs.UpdatedAt), cs.ID)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// DeleteSession removes a session.
func (s *SQLite) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// querySessions executes a query and scans results into sessions.
// Caller must hold s.mu (read lock is sufficient).
func (s *SQLite) querySessions(ctx context.Context, query string, args ...any) ([]model.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ChatSession
	for rows.Next() {
		var cs model.ChatSession
		var msgs string
		var created, updated int64
		if err := rows.Scan(&cs.ID, &cs.Owner, &cs.Title, &msgs, &created, &updated); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(msgs), &cs.Messages); err != nil {
			return nil, fmt.Errorf("decode messages of %s: %w", cs.ID, err)
		}
		cs.CreatedAt = fromNanos(created)
		cs.UpdatedAt = fromNanos(updated)
		out = append(out, cs)
	}
	return out, rows.Err()
}

// SaveEvent inserts or replaces a saved event.
func (s *SQLite) SaveEvent(ctx context.Context, e model.SavedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_events (id, owner, type, title, date, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			title = excluded.title,
			date = excluded.date,
			payload = excluded.payload
	`, e.ID, e.Owner, e.Type, e.Title, nanos(e.Date), nullableJSON(e.Payload), nanos(e.CreatedAt))
	return err
}

// ListEvents returns the owner's events, soonest first.
func (s *SQLite) ListEvents(ctx context.Context, owner string) ([]model.SavedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, type, title, date, payload, created_at
		FROM saved_events WHERE owner = ?
		ORDER BY date ASC, id
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SavedEvent
	for rows.Next() {
		var e model.SavedEvent
		var date, created int64
		var payload sql.NullString
		if err := rows.Scan(&e.ID, &e.Owner, &e.Type, &e.Title, &date, &payload, &created); err != nil {
			return nil, err
		}
		e.Date = fromNanos(date)
		e.CreatedAt = fromNanos(created)
		if payload.Valid && payload.String != "" {
			e.Payload = json.RawMessage(payload.String)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteEvent removes one of the owner's events.
func (s *SQLite) DeleteEvent(ctx context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM saved_events WHERE id = ? AND owner = ?", id, owner)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// GetProfile returns the owner's profile.
func (s *SQLite) GetProfile(ctx context.Context, owner string) (model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p model.Profile
	var name, loc, units sql.NullString
	var lat, lng sql.NullFloat64
	var dark int
	var created, updated int64
	err := s.db.QueryRowContext(ctx, `
		SELECT owner, id, display_name, location_name, latitude, longitude, dark_mode, units, created_at, updated_at
		FROM profiles WHERE owner = ?
	`, owner).Scan(&p.Owner, &p.ID, &name, &loc, &lat, &lng, &dark, &units, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, err
	}

	p.DisplayName = name.String
	p.LocationName = loc.String
	p.Units = units.String
	p.DarkMode = dark != 0
	if lat.Valid {
		p.Latitude = &lat.Float64
	}
	if lng.Valid {
		p.Longitude = &lng.Float64
	}
	p.CreatedAt = fromNanos(created)
	p.UpdatedAt = fromNanos(updated)
	return p, nil
}

// UpsertProfile creates or replaces the owner's profile. CreatedAt of an
// existing row is kept.
func (s *SQLite) UpsertProfile(ctx context.Context, p model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (owner, id, display_name, location_name, latitude, longitude, dark_mode, units, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner) DO UPDATE SET
			display_name = excluded.display_name,
			location_name = excluded.location_name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			dark_mode = excluded.dark_mode,
			units = excluded.units,
			updated_at = excluded.updated_at
	`, p.Owner, p.ID, p.DisplayName, p.LocationName, nullFloat(p.Latitude), nullFloat(p.Longitude),
		boolToInt(p.DarkMode), p.Units, nanos(p.CreatedAt), nanos(p.UpdatedAt))
	return err
}

// SaveStargazingEvent inserts or replaces a listing. CreatedAt of an
// existing row is kept.
func (s *SQLite) SaveStargazingEvent(ctx context.Context, e model.StargazingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stargazing_events (id, title, description, event_type, date, location_name, latitude, longitude, organizer, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			event_type = excluded.event_type,
			date = excluded.date,
			location_name = excluded.location_name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			organizer = excluded.organizer
	`, e.ID, e.Title, e.Description, e.EventType, nanos(e.Date), e.LocationName, e.Latitude, e.Longitude,
		e.Organizer, nanos(e.CreatedAt))
	return err
}

// ListStargazingEvents returns listings dated at or after from, soonest first.
func (s *SQLite) ListStargazingEvents(ctx context.Context, from time.Time, limit int) ([]model.StargazingEvent, error) {
	if limit <= 0 {
		limit = -1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, event_type, date, location_name, latitude, longitude, organizer, created_at
		FROM stargazing_events WHERE date >= ?
		ORDER BY date ASC, id
		LIMIT ?
	`, nanos(from), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StargazingEvent
	for rows.Next() {
		var e model.StargazingEvent
		var desc, kind, organizer sql.NullString
		var date, created int64
		if err := rows.Scan(&e.ID, &e.Title, &desc, &kind, &date, &e.LocationName, &e.Latitude, &e.Longitude,
			&organizer, &created); err != nil {
			return nil, err
		}
		e.Description = desc.String
		e.EventType = kind.String
		e.Organizer = organizer.String
		e.Date = fromNanos(date)
		e.CreatedAt = fromNanos(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteStargazingEvent removes a listing.
func (s *SQLite) DeleteStargazingEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM stargazing_events WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullableJSON(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
