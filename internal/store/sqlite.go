package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tubepro/studio/internal/domain"
	"github.com/tubepro/studio/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		balance INTEGER NOT NULL,
		level INTEGER NOT NULL,
		experience INTEGER NOT NULL,
		experience_to_next INTEGER NOT NULL,
		usage_history_json TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scripts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scripts_user ON scripts(user_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// execRetry runs a write, retrying briefly on SQLite concurrency errors.
func (s *SQLiteStore) execRetry(ctx context.Context, query string, args ...interface{}) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
			}
		}
		_, err = s.db.ExecContext(ctx, query, args...)
		if err == nil || !shared.IsSQLiteConflictError(err) {
			return err
		}
	}
	return err
}

// usageEventRecord is the wire form of a usage event inside the history
// column: ISO-8601 date string, feature tag, coins spent.
type usageEventRecord struct {
	Date       string `json:"date"`
	Feature    string `json:"feature"`
	CoinsSpent int    `json:"coinsSpent"`
}

func encodeHistory(events []domain.UsageEvent) (string, error) {
	records := make([]usageEventRecord, 0, len(events))
	for _, e := range events {
		records = append(records, usageEventRecord{
			Date:       e.Date.UTC().Format(time.RFC3339),
			Feature:    e.Feature,
			CoinsSpent: e.CoinsSpent,
		})
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode usage history: %w", err)
	}
	return string(b), nil
}

func decodeHistory(raw string) ([]domain.UsageEvent, error) {
	if raw == "" {
		return nil, nil
	}
	var records []usageEventRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode usage history: %w", err)
	}
	events := make([]domain.UsageEvent, 0, len(records))
	for _, r := range records {
		date, err := time.Parse(time.RFC3339, r.Date)
		if err != nil {
			return nil, fmt.Errorf("decode usage event date: %w", err)
		}
		events = append(events, domain.UsageEvent{
			Date:       date,
			Feature:    r.Feature,
			CoinsSpent: r.CoinsSpent,
		})
	}
	return events, nil
}

// GetProfile retrieves a profile by user ID.
func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	query := `
		SELECT user_id, balance, level, experience, experience_to_next,
		       usage_history_json, created_at, updated_at
		FROM profiles WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var profile domain.Profile
	var historyJSON string
	var createdAt, updatedAt int64

	err := row.Scan(
		&profile.UserID, &profile.Balance, &profile.Level,
		&profile.Experience, &profile.ExperienceToNext,
		&historyJSON, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile row: %w", err)
	}

	profile.UsageHistory, err = decodeHistory(historyJSON)
	if err != nil {
		return nil, err
	}
	profile.CreatedAt = time.Unix(createdAt, 0)
	profile.UpdatedAt = time.Unix(updatedAt, 0)

	return &profile, nil
}

// UpsertProfile creates or updates a profile record.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, profile *domain.Profile) error {
	historyJSON, err := encodeHistory(profile.UsageHistory)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO profiles (user_id, balance, level, experience, experience_to_next, usage_history_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		balance = excluded.balance,
		level = excluded.level,
		experience = excluded.experience,
		experience_to_next = excluded.experience_to_next,
		usage_history_json = excluded.usage_history_json,
		updated_at = excluded.updated_at`

	err = s.execRetry(ctx, query,
		profile.UserID, profile.Balance, profile.Level,
		profile.Experience, profile.ExperienceToNext, historyJSON,
		profile.CreatedAt.Unix(), profile.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// SaveScript stores a generated script.
func (s *SQLiteStore) SaveScript(ctx context.Context, script *domain.Script) error {
	query := `INSERT INTO scripts (id, user_id, title, content, created_at) VALUES (?, ?, ?, ?, ?)`
	err := s.execRetry(ctx, query,
		script.ID, script.UserID, script.Title, script.Content, script.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert script: %w", err)
	}
	return nil
}

// ListScripts retrieves a user's saved scripts, newest first.
func (s *SQLiteStore) ListScripts(ctx context.Context, userID string) ([]*domain.Script, error) {
	query := `
		SELECT id, user_id, title, content, created_at
		FROM scripts WHERE user_id = ? ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query scripts: %w", err)
	}
	defer rows.Close()

	var scripts []*domain.Script
	for rows.Next() {
		var script domain.Script
		var createdAt int64
		if err := rows.Scan(&script.ID, &script.UserID, &script.Title, &script.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan script row: %w", err)
		}
		script.CreatedAt = time.Unix(createdAt, 0)
		scripts = append(scripts, &script)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scripts: %w", err)
	}

	return scripts, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
