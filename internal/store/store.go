// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"fmt"

	"github.com/tubepro/studio/internal/config"
	"github.com/tubepro/studio/internal/domain"
)

// Repository defines the interface for persisting profiles and scripts.
type Repository interface {
	// GetProfile retrieves a profile by user ID. Returns domain.ErrNotFound
	// when no record exists.
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)

	// UpsertProfile creates or updates a profile record, including its
	// usage history.
	UpsertProfile(ctx context.Context, profile *domain.Profile) error

	// SaveScript stores a generated script.
	SaveScript(ctx context.Context, script *domain.Script) error

	// ListScripts retrieves a user's saved scripts, newest first.
	ListScripts(ctx context.Context, userID string) ([]*domain.Script, error)

	// Ping verifies store connectivity.
	Ping(ctx context.Context) error

	// Close closes the underlying connection.
	Close() error
}

// New creates a Repository for the configured driver.
func New(cfg *config.Config) (Repository, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		return NewSQLite(cfg.DBPath)
	case "supabase":
		return NewSupabase(cfg.SupabaseURL, cfg.SupabaseServiceKey)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
