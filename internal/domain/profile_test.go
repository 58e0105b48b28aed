package domain

import "testing"

func TestExperienceToNext(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{level: 1, want: 100},
		{level: 2, want: 150},
		{level: 3, want: 225},
		{level: 4, want: 337},
		{level: 5, want: 506},
		{level: 10, want: 3844},
	}

	for _, tt := range tests {
		if got := ExperienceToNext(tt.level); got != tt.want {
			t.Errorf("ExperienceToNext(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestNewProfileDefaults(t *testing.T) {
	p := NewProfile("user-1")

	if p.UserID != "user-1" {
		t.Errorf("Expected user ID user-1, got %q", p.UserID)
	}
	if p.Balance != InitialBalance {
		t.Errorf("Expected balance %d, got %d", InitialBalance, p.Balance)
	}
	if p.Level != InitialLevel {
		t.Errorf("Expected level %d, got %d", InitialLevel, p.Level)
	}
	if p.Experience != 0 {
		t.Errorf("Expected zero experience, got %d", p.Experience)
	}
	if p.ExperienceToNext != 100 {
		t.Errorf("Expected experienceToNext 100, got %d", p.ExperienceToNext)
	}
	if len(p.UsageHistory) != 0 {
		t.Errorf("Expected empty usage history, got %d events", len(p.UsageHistory))
	}
}

func TestCanAfford(t *testing.T) {
	p := &Profile{Balance: 25}

	if !p.CanAfford(25) {
		t.Error("Expected to afford an amount equal to the balance")
	}
	if p.CanAfford(26) {
		t.Error("Expected not to afford more than the balance")
	}
	if !p.CanAfford(0) {
		t.Error("Expected to afford zero")
	}
}
