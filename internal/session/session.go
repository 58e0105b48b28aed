// Package session persists in-flight briefing sessions between requests, so
// the asking phase survives reconnects and, with the redis driver, multiple
// server instances.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/tubepro/studio/internal/briefing"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrVersionConflict = errors.New("session version conflict")
	ErrInvalidConfig   = errors.New("invalid session store config")
	ErrInvalidDriver   = errors.New("invalid session store driver")
)

// Data is one stored briefing session, keyed by "userID:sessionID".
// Version implements optimistic locking across concurrent writers.
type Data struct {
	ID        string            `json:"id"`
	Briefing  *briefing.Session `json:"briefing"`
	Version   int64             `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Store is the briefing session store contract. Get returns (nil, nil) for
// a missing session; Update fails with ErrVersionConflict when the stored
// version has moved.
type Store interface {
	Create(ctx context.Context, data *Data) error
	Get(ctx context.Context, id string) (*Data, error)
	Update(ctx context.Context, data *Data) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Key builds the store key for a user/tab pair.
func Key(userID, sessionID string) string {
	return userID + ":" + sessionID
}
