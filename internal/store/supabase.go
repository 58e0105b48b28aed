package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/supabase-community/supabase-go"
	"github.com/tubepro/studio/internal/domain"
)

// SupabaseStore implements Repository against the hosted Supabase tables the
// original product used (profiles keyed by user id, scripts per user).
type SupabaseStore struct {
	client *supabase.Client
}

// NewSupabase creates a Supabase-backed repository.
func NewSupabase(url, serviceKey string) (Repository, error) {
	if url == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if serviceKey == "" {
		return nil, fmt.Errorf("supabase service key is required")
	}

	client, err := supabase.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}

	return &SupabaseStore{client: client}, nil
}

// profileRow mirrors the profiles table. Usage history is a JSON column so
// the whole profile stays one record.
type profileRow struct {
	UserID           string          `json:"user_id"`
	Balance          int             `json:"balance"`
	Level            int             `json:"level"`
	Experience       int             `json:"experience"`
	ExperienceToNext int             `json:"experience_to_next"`
	UsageHistory     json.RawMessage `json:"usage_history"`
	CreatedAt        string          `json:"created_at"`
	UpdatedAt        string          `json:"updated_at"`
}

type scriptRow struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// GetProfile retrieves a profile by user ID.
func (s *SupabaseStore) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var rows []profileRow
	_, err := s.client.From("profiles").
		Select("*", "", false).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}

	return rowToProfile(&rows[0])
}

// UpsertProfile creates or updates a profile record.
func (s *SupabaseStore) UpsertProfile(ctx context.Context, profile *domain.Profile) error {
	row, err := profileToRow(profile)
	if err != nil {
		return err
	}

	_, _, err = s.client.From("profiles").
		Insert(row, true, "user_id", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// SaveScript stores a generated script.
func (s *SupabaseStore) SaveScript(ctx context.Context, script *domain.Script) error {
	row := scriptRow{
		ID:        script.ID,
		UserID:    script.UserID,
		Title:     script.Title,
		Content:   script.Content,
		CreatedAt: script.CreatedAt.UTC().Format(time.RFC3339),
	}

	_, _, err := s.client.From("scripts").
		Insert(row, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("insert script: %w", err)
	}
	return nil
}

// ListScripts retrieves a user's saved scripts, newest first.
func (s *SupabaseStore) ListScripts(ctx context.Context, userID string) ([]*domain.Script, error) {
	var rows []scriptRow
	_, err := s.client.From("scripts").
		Select("*", "", false).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("list scripts: %w", err)
	}

	scripts := make([]*domain.Script, 0, len(rows))
	for i := range rows {
		script, err := rowToScript(&rows[i])
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, script)
	}
	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].CreatedAt.After(scripts[j].CreatedAt)
	})

	return scripts, nil
}

// Ping verifies store connectivity with a cheap read.
func (s *SupabaseStore) Ping(ctx context.Context) error {
	var rows []profileRow
	_, err := s.client.From("profiles").
		Select("user_id", "", false).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("ping supabase: %w", err)
	}
	return nil
}

// Close closes the Supabase client.
func (s *SupabaseStore) Close() error {
	// Supabase client doesn't require explicit close.
	return nil
}

func rowToProfile(row *profileRow) (*domain.Profile, error) {
	history, err := decodeHistory(string(row.UsageHistory))
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse profile created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339, row.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse profile updated_at: %w", err)
	}

	return &domain.Profile{
		UserID:           row.UserID,
		Balance:          row.Balance,
		Level:            row.Level,
		Experience:       row.Experience,
		ExperienceToNext: row.ExperienceToNext,
		UsageHistory:     history,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}, nil
}

func profileToRow(profile *domain.Profile) (*profileRow, error) {
	historyJSON, err := encodeHistory(profile.UsageHistory)
	if err != nil {
		return nil, err
	}
	return &profileRow{
		UserID:           profile.UserID,
		Balance:          profile.Balance,
		Level:            profile.Level,
		Experience:       profile.Experience,
		ExperienceToNext: profile.ExperienceToNext,
		UsageHistory:     json.RawMessage(historyJSON),
		CreatedAt:        profile.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        profile.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func rowToScript(row *scriptRow) (*domain.Script, error) {
	createdAt, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse script created_at: %w", err)
	}
	return &domain.Script{
		ID:        row.ID,
		UserID:    row.UserID,
		Title:     row.Title,
		Content:   row.Content,
		CreatedAt: createdAt,
	}, nil
}
