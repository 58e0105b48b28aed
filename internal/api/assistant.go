package api

import (
	"net/http"

	"github.com/tubepro/studio/internal/briefing"
)

type planRequest struct {
	Topic    string `json:"topic"`
	Audience string `json:"audience"`
}

// CreatePlan generates a structured content plan for a topic. The spend is
// authorized before the stream opens; malformed model output is not refunded.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	l, _, err := h.ledgerFor(r.Context())
	if err != nil {
		Fail(w, err)
		return
	}

	runner := briefing.NewRunner(l, h.streamer)
	plan, err := runner.GeneratePlan(r.Context(), req.Topic, req.Audience)
	if err != nil {
		Fail(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"plan":    plan,
		"profile": l.Snapshot(),
	})
}

type assistRequest struct {
	Prompt string `json:"prompt"`
}

// Assist runs the free-form assistant and returns the full response text.
func (h *Handler) Assist(w http.ResponseWriter, r *http.Request) {
	var req assistRequest
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	l, _, err := h.ledgerFor(r.Context())
	if err != nil {
		Fail(w, err)
		return
	}

	runner := briefing.NewRunner(l, h.streamer)
	reply, err := runner.Assist(r.Context(), req.Prompt)
	if err != nil {
		Fail(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"reply":   reply,
		"profile": l.Snapshot(),
	})
}
