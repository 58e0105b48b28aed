// Package domain contains core domain types for the TubePro studio backend.
package domain

import (
	"math"
	"time"
)

// Starting values for a freshly created profile.
const (
	InitialBalance = 100
	InitialLevel   = 1
)

// Profile represents one user's creator account: spendable coin balance,
// leveling progress, and the append-only usage history.
type Profile struct {
	UserID           string       `json:"user_id"`
	Balance          int          `json:"balance"`
	Level            int          `json:"level"`
	Experience       int          `json:"experience"`
	ExperienceToNext int          `json:"experienceToNext"`
	UsageHistory     []UsageEvent `json:"usageHistory"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// UsageEvent is an immutable record of a single successful spend.
type UsageEvent struct {
	Date       time.Time `json:"date"`
	Feature    string    `json:"feature"`
	CoinsSpent int       `json:"coinsSpent"`
}

// NewProfile creates a default profile for a first-time user.
func NewProfile(userID string) *Profile {
	now := time.Now()
	return &Profile{
		UserID:           userID,
		Balance:          InitialBalance,
		Level:            InitialLevel,
		Experience:       0,
		ExperienceToNext: ExperienceToNext(InitialLevel),
		UsageHistory:     nil,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ExperienceToNext returns the experience threshold for leveling past the
// given level: floor(100 * 1.5^(level-1)). Defined for level >= 1.
func ExperienceToNext(level int) int {
	return int(math.Floor(100 * math.Pow(1.5, float64(level-1))))
}

// CanAfford reports whether the profile balance covers the given amount.
func (p *Profile) CanAfford(amount int) bool {
	return amount <= p.Balance
}
