// Package ledger implements the coin balance, usage metering, and leveling
// rules for a single profile.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tubepro/studio/internal/domain"
	"github.com/tubepro/studio/internal/store"
)

// LevelUp describes one level gained during experience normalization.
type LevelUp struct {
	Level int `json:"level"`
	Bonus int `json:"bonus"`
}

// Ledger gates feature access for one loaded profile. All mutations go
// through it; the in-memory profile is authoritative once loaded, and every
// mutation is followed by a durable save. A failed save leaves the ledger
// ahead of the store; the save is retried on the next mutation.
type Ledger struct {
	mu      sync.Mutex
	repo    store.Repository
	profile *domain.Profile
	saveErr error
}

// New creates a ledger with no profile loaded. Operations return
// domain.ErrUnauthenticated until Load succeeds.
func New(repo store.Repository) *Ledger {
	return &Ledger{repo: repo}
}

// Load fetches the profile for userID, creating and persisting the default
// profile on first sight.
func (l *Ledger) Load(ctx context.Context, userID string) (*domain.Profile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	profile, err := l.repo.GetProfile(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		profile = domain.NewProfile(userID)
		if err := l.repo.UpsertProfile(ctx, profile); err != nil {
			return nil, fmt.Errorf("persist new profile: %w", err)
		}
		slog.Info("Created default profile", "user_id", userID, "balance", profile.Balance)
	} else if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	l.profile = profile
	l.saveErr = nil
	return snapshot(profile), nil
}

// Snapshot returns a copy of the loaded profile, or nil when none is loaded.
func (l *Ledger) Snapshot() *domain.Profile {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.profile == nil {
		return nil
	}
	return snapshot(l.profile)
}

// SaveErr returns the persistence error from the most recent mutation, if
// the durable copy is behind the in-memory state.
func (l *Ledger) SaveErr() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveErr
}

// Spend debits amount from the balance and records a usage event. It fails
// with domain.ErrInsufficientBalance (no mutation) when the balance does not
// cover amount, and domain.ErrUnauthenticated when no profile is loaded.
// A successful spend grants floor(amount/2) experience; any level-ups that
// result are returned.
func (l *Ledger) Spend(ctx context.Context, amount int, feature string) ([]LevelUp, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("spend amount must be positive, got %d", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.profile == nil {
		return nil, domain.ErrUnauthenticated
	}
	if !l.profile.CanAfford(amount) {
		return nil, fmt.Errorf("%w: need %d, have %d", domain.ErrInsufficientBalance, amount, l.profile.Balance)
	}

	l.profile.Balance -= amount
	l.profile.UsageHistory = append(l.profile.UsageHistory, domain.UsageEvent{
		Date:       time.Now(),
		Feature:    feature,
		CoinsSpent: amount,
	})

	levelUps := l.applyExperience(amount / 2)
	l.save(ctx)

	slog.Info("Coins spent", "user_id", l.profile.UserID, "feature", feature, "amount", amount, "balance", l.profile.Balance)
	return levelUps, nil
}

// Earn credits amount to the balance. Always succeeds while a profile is
// loaded.
func (l *Ledger) Earn(ctx context.Context, amount int, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("earn amount must be positive, got %d", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.profile == nil {
		return domain.ErrUnauthenticated
	}

	l.profile.Balance += amount
	l.save(ctx)

	slog.Info("Coins earned", "user_id", l.profile.UserID, "reason", reason, "amount", amount, "balance", l.profile.Balance)
	return nil
}

// EarnExperience grants experience and normalizes it against the level
// thresholds, possibly crossing several levels in one call.
func (l *Ledger) EarnExperience(ctx context.Context, amount int) ([]LevelUp, error) {
	if amount < 0 {
		return nil, fmt.Errorf("experience amount must be non-negative, got %d", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.profile == nil {
		return nil, domain.ErrUnauthenticated
	}

	levelUps := l.applyExperience(amount)
	l.save(ctx)
	return levelUps, nil
}

// applyExperience adds experience and runs the normalization loop. Each
// threshold crossed bumps the level and grants a bonus of level*10 coins.
// Caller must hold l.mu.
func (l *Ledger) applyExperience(amount int) []LevelUp {
	p := l.profile
	p.Experience += amount

	var levelUps []LevelUp
	for p.Experience >= p.ExperienceToNext {
		p.Experience -= p.ExperienceToNext
		p.Level++
		p.ExperienceToNext = domain.ExperienceToNext(p.Level)

		bonus := p.Level * 10
		p.Balance += bonus
		levelUps = append(levelUps, LevelUp{Level: p.Level, Bonus: bonus})
		slog.Info("Level up", "user_id", p.UserID, "level", p.Level, "bonus", bonus)
	}
	return levelUps
}

// save persists the profile. On failure the in-memory state stays
// authoritative and the error is kept for the next mutation to retry.
// Caller must hold l.mu.
func (l *Ledger) save(ctx context.Context) {
	l.profile.UpdatedAt = time.Now()
	if err := l.repo.UpsertProfile(ctx, l.profile); err != nil {
		l.saveErr = fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		slog.Error("Profile save failed, in-memory state ahead of store", "user_id", l.profile.UserID, "error", err)
		return
	}
	l.saveErr = nil
}

func snapshot(p *domain.Profile) *domain.Profile {
	copied := *p
	copied.UsageHistory = append([]domain.UsageEvent(nil), p.UsageHistory...)
	return &copied
}
