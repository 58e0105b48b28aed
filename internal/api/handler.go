// Package api provides HTTP handlers for the TubePro API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tubepro/studio/internal/domain"
	"github.com/tubepro/studio/internal/generation"
	"github.com/tubepro/studio/internal/identity"
	"github.com/tubepro/studio/internal/ledger"
	"github.com/tubepro/studio/internal/session"
	"github.com/tubepro/studio/internal/store"
)

// Handler provides common handler utilities.
type Handler struct {
	repo     store.Repository
	sessions session.Store
	streamer generation.Streamer
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, sessions session.Store, streamer generation.Streamer) *Handler {
	return &Handler{
		repo:     repo,
		sessions: sessions,
		streamer: streamer,
	}
}

// RegisterRoutes mounts all JSON API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Get("/profile", h.GetProfile)
		r.Post("/profile/earn", h.EarnCoins)

		r.Get("/briefing", h.GetBriefing)
		r.Post("/briefing/answer", h.SubmitAnswer)
		r.Post("/briefing/reset", h.ResetBriefing)

		r.Post("/plan", h.CreatePlan)
		r.Post("/assistant", h.Assist)

		r.Get("/scripts", h.ListScripts)
		r.Post("/scripts", h.SaveScript)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Fail writes the JSON error response matching a domain error.
func Fail(w http.ResponseWriter, err error) {
	Error(w, statusFromError(err), err.Error())
}

// statusFromError maps domain errors to HTTP status codes.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrGenerationStarted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrBlankAnswer), errors.Is(err, domain.ErrBriefingIncomplete):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMalformedPlan), errors.Is(err, domain.ErrStreamRead):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decode parses a JSON request body into v.
func decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// ledgerFor loads the requesting user's ledger. The identity middleware
// guarantees a user ID and a starter profile on every request.
func (h *Handler) ledgerFor(ctx context.Context) (*ledger.Ledger, string, error) {
	userID := identity.UserIDFromContext(ctx)
	if userID == "" {
		return nil, "", domain.ErrUnauthenticated
	}

	l := ledger.New(h.repo)
	if _, err := l.Load(ctx, userID); err != nil {
		return nil, "", err
	}
	return l, userID, nil
}

// Health reports server and store status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.repo.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	JSON(w, code, map[string]string{"status": status})
}
