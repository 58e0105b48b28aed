package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/tubepro/studio/internal/domain"
)

// fakeRepo is an in-memory Repository for ledger tests. Setting failSaves
// makes every UpsertProfile fail, simulating a store outage.
type fakeRepo struct {
	profiles  map[string]*domain.Profile
	failSaves bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{profiles: make(map[string]*domain.Profile)}
}

func (r *fakeRepo) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeRepo) UpsertProfile(ctx context.Context, profile *domain.Profile) error {
	if r.failSaves {
		return errors.New("store unavailable")
	}
	copied := *profile
	r.profiles[profile.UserID] = &copied
	return nil
}

func (r *fakeRepo) SaveScript(ctx context.Context, script *domain.Script) error { return nil }
func (r *fakeRepo) ListScripts(ctx context.Context, userID string) ([]*domain.Script, error) {
	return nil, nil
}
func (r *fakeRepo) Ping(ctx context.Context) error { return nil }
func (r *fakeRepo) Close() error                   { return nil }

func loadedLedger(t *testing.T, repo *fakeRepo) *Ledger {
	t.Helper()
	l := New(repo)
	if _, err := l.Load(context.Background(), "user-1"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return l
}

func TestLoadCreatesDefaultProfile(t *testing.T) {
	repo := newFakeRepo()
	l := New(repo)

	p, err := l.Load(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Balance != 100 || p.Level != 1 || p.Experience != 0 {
		t.Errorf("Unexpected default profile: balance=%d level=%d exp=%d", p.Balance, p.Level, p.Experience)
	}
	if _, ok := repo.profiles["user-1"]; !ok {
		t.Error("Expected default profile to be persisted")
	}
}

func TestSpendDebitsAndRecordsUsage(t *testing.T) {
	l := loadedLedger(t, newFakeRepo())

	levelUps, err := l.Spend(context.Background(), 25, "Script Writing")
	if err != nil {
		t.Fatalf("Spend failed: %v", err)
	}
	if len(levelUps) != 0 {
		t.Errorf("Expected no level-ups, got %d", len(levelUps))
	}

	p := l.Snapshot()
	if p.Balance != 75 {
		t.Errorf("Expected balance 75, got %d", p.Balance)
	}
	if p.Experience != 12 {
		t.Errorf("Expected 12 experience (floor of 25/2), got %d", p.Experience)
	}
	if len(p.UsageHistory) != 1 {
		t.Fatalf("Expected one usage event, got %d", len(p.UsageHistory))
	}
	event := p.UsageHistory[0]
	if event.Feature != "Script Writing" || event.CoinsSpent != 25 {
		t.Errorf("Unexpected usage event: %+v", event)
	}
	if event.Date.IsZero() {
		t.Error("Expected usage event date to be set")
	}
}

func TestSpendInsufficientBalance(t *testing.T) {
	l := loadedLedger(t, newFakeRepo())

	_, err := l.Spend(context.Background(), 101, "Script Writing")
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}

	p := l.Snapshot()
	if p.Balance != 100 {
		t.Errorf("Expected balance untouched at 100, got %d", p.Balance)
	}
	if len(p.UsageHistory) != 0 {
		t.Errorf("Expected no usage events after refused spend, got %d", len(p.UsageHistory))
	}
}

func TestSpendWithoutProfile(t *testing.T) {
	l := New(newFakeRepo())

	if _, err := l.Spend(context.Background(), 10, "Content Plan"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated, got %v", err)
	}
	if err := l.Earn(context.Background(), 10, "reward"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated, got %v", err)
	}
}

func TestSpendRejectsNonPositiveAmount(t *testing.T) {
	l := loadedLedger(t, newFakeRepo())

	for _, amount := range []int{0, -5} {
		if _, err := l.Spend(context.Background(), amount, "Script Writing"); err == nil {
			t.Errorf("Expected error for amount %d", amount)
		}
	}
}

func TestEarnCreditsBalance(t *testing.T) {
	l := loadedLedger(t, newFakeRepo())

	if err := l.Earn(context.Background(), 50, "daily reward"); err != nil {
		t.Fatalf("Earn failed: %v", err)
	}
	if got := l.Snapshot().Balance; got != 150 {
		t.Errorf("Expected balance 150, got %d", got)
	}
}

func TestExperienceNormalizationCrossesMultipleLevels(t *testing.T) {
	l := loadedLedger(t, newFakeRepo())

	// 500 XP from level 1: crosses 100, 150, and 225 thresholds, landing at
	// level 4 with 25 XP. Bonuses: 20 + 30 + 40 coins.
	levelUps, err := l.EarnExperience(context.Background(), 500)
	if err != nil {
		t.Fatalf("EarnExperience failed: %v", err)
	}

	if len(levelUps) != 3 {
		t.Fatalf("Expected 3 level-ups, got %d", len(levelUps))
	}
	wantBonuses := []LevelUp{{Level: 2, Bonus: 20}, {Level: 3, Bonus: 30}, {Level: 4, Bonus: 40}}
	for i, want := range wantBonuses {
		if levelUps[i] != want {
			t.Errorf("Level-up %d = %+v, want %+v", i, levelUps[i], want)
		}
	}

	p := l.Snapshot()
	if p.Level != 4 {
		t.Errorf("Expected level 4, got %d", p.Level)
	}
	if p.Experience != 25 {
		t.Errorf("Expected 25 leftover experience, got %d", p.Experience)
	}
	if p.ExperienceToNext != 337 {
		t.Errorf("Expected next threshold 337, got %d", p.ExperienceToNext)
	}
	if p.Balance != 190 {
		t.Errorf("Expected balance 190 (100 + bonuses), got %d", p.Balance)
	}
}

func TestSpendExperienceCanLevelUp(t *testing.T) {
	repo := newFakeRepo()
	l := loadedLedger(t, repo)

	if err := l.Earn(context.Background(), 200, "top-up"); err != nil {
		t.Fatalf("Earn failed: %v", err)
	}

	// Spending 250 grants 125 XP, crossing the level 1 threshold of 100.
	levelUps, err := l.Spend(context.Background(), 250, "Script Writing")
	if err != nil {
		t.Fatalf("Spend failed: %v", err)
	}
	if len(levelUps) != 1 || levelUps[0].Level != 2 || levelUps[0].Bonus != 20 {
		t.Fatalf("Expected one level-up to 2 with bonus 20, got %+v", levelUps)
	}

	p := l.Snapshot()
	if p.Balance != 70 {
		t.Errorf("Expected balance 70 (300 - 250 + 20), got %d", p.Balance)
	}
	if p.Experience != 25 {
		t.Errorf("Expected 25 leftover experience, got %d", p.Experience)
	}
}

func TestSaveFailureKeepsMemoryAuthoritative(t *testing.T) {
	repo := newFakeRepo()
	l := loadedLedger(t, repo)

	repo.failSaves = true
	if _, err := l.Spend(context.Background(), 25, "Script Writing"); err != nil {
		t.Fatalf("Spend should succeed despite save failure, got %v", err)
	}
	if got := l.Snapshot().Balance; got != 75 {
		t.Errorf("Expected in-memory balance 75, got %d", got)
	}
	if err := l.SaveErr(); !errors.Is(err, domain.ErrPersistence) {
		t.Errorf("Expected ErrPersistence from SaveErr, got %v", err)
	}

	// The next mutation retries the save and clears the error.
	repo.failSaves = false
	if err := l.Earn(context.Background(), 10, "reward"); err != nil {
		t.Fatalf("Earn failed: %v", err)
	}
	if err := l.SaveErr(); err != nil {
		t.Errorf("Expected save error cleared, got %v", err)
	}
	if repo.profiles["user-1"].Balance != 85 {
		t.Errorf("Expected persisted balance 85, got %d", repo.profiles["user-1"].Balance)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	l := loadedLedger(t, newFakeRepo())

	if _, err := l.Spend(context.Background(), 10, "Content Plan"); err != nil {
		t.Fatalf("Spend failed: %v", err)
	}

	snap := l.Snapshot()
	snap.Balance = 0
	snap.UsageHistory[0].Feature = "mutated"

	p := l.Snapshot()
	if p.Balance != 90 {
		t.Errorf("Expected balance 90 after snapshot mutation, got %d", p.Balance)
	}
	if p.UsageHistory[0].Feature != "Content Plan" {
		t.Errorf("Expected usage history isolated from snapshot mutation, got %q", p.UsageHistory[0].Feature)
	}
}
