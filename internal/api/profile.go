package api

import (
	"log/slog"
	"net/http"
)

// profileResponse wraps the profile with any level-ups the request produced.
type profileResponse struct {
	Profile  interface{} `json:"profile"`
	LevelUps interface{} `json:"levelUps,omitempty"`
}

// GetProfile returns the requesting user's profile, creating the starter
// profile on first sight.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	l, _, err := h.ledgerFor(r.Context())
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, profileResponse{Profile: l.Snapshot()})
}

type earnRequest struct {
	Amount     int    `json:"amount"`
	Reason     string `json:"reason"`
	Experience int    `json:"experience"`
}

// EarnCoins credits coins and optional experience to the profile. Experience
// is normalized against the level thresholds; crossed levels grant coin
// bonuses on top of the credited amount.
func (h *Handler) EarnCoins(w http.ResponseWriter, r *http.Request) {
	var req earnRequest
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount <= 0 && req.Experience <= 0 {
		Error(w, http.StatusBadRequest, "amount or experience must be positive")
		return
	}

	l, userID, err := h.ledgerFor(r.Context())
	if err != nil {
		Fail(w, err)
		return
	}

	if req.Amount > 0 {
		reason := req.Reason
		if reason == "" {
			reason = "reward"
		}
		if err := l.Earn(r.Context(), req.Amount, reason); err != nil {
			Fail(w, err)
			return
		}
	}

	var levelUps interface{}
	if req.Experience > 0 {
		ups, err := l.EarnExperience(r.Context(), req.Experience)
		if err != nil {
			Fail(w, err)
			return
		}
		if len(ups) > 0 {
			levelUps = ups
		}
	}

	if err := l.SaveErr(); err != nil {
		slog.Warn("Profile persisted state is behind", "user_id", userID, "error", err)
	}
	JSON(w, http.StatusOK, profileResponse{Profile: l.Snapshot(), LevelUps: levelUps})
}
