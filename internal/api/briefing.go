package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tubepro/studio/internal/briefing"
	"github.com/tubepro/studio/internal/identity"
	"github.com/tubepro/studio/internal/session"
)

// briefingView is the client-facing projection of a briefing session. Only
// revealed parts are included.
type briefingView struct {
	Stage          briefing.Stage `json:"stage"`
	QuestionIndex  int            `json:"questionIndex"`
	TotalQuestions int            `json:"totalQuestions"`
	Question       string         `json:"question,omitempty"`
	Example        string         `json:"example,omitempty"`
	Options        []string       `json:"options,omitempty"`
	Parts          []string       `json:"parts,omitempty"`
	PartsTotal     int            `json:"partsTotal,omitempty"`
	FailReason     string         `json:"failReason,omitempty"`
}

func viewOf(sess *briefing.Session) briefingView {
	view := briefingView{
		Stage:          sess.Stage,
		QuestionIndex:  sess.CurrentIndex,
		TotalQuestions: len(briefing.Questions),
		Question:       sess.Question(),
		Parts:          sess.RevealedParts(),
		PartsTotal:     len(sess.Parts),
		FailReason:     sess.FailReason,
	}
	if sess.Stage == briefing.StageAsking {
		view.Example = briefing.QuestionExamples[sess.CurrentIndex]
		if sess.CurrentIndex == len(briefing.Questions)-1 {
			view.Options = briefing.DurationOptions
		}
	}
	return view
}

// loadOrCreateSession fetches the caller's briefing session, starting a
// fresh one when none exists.
func (h *Handler) loadOrCreateSession(ctx context.Context) (*session.Data, error) {
	key := session.Key(identity.UserIDFromContext(ctx), identity.SessionIDFromContext(ctx))

	data, err := h.sessions.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load briefing session: %w", err)
	}
	if data != nil {
		return data, nil
	}

	data = &session.Data{ID: key, Briefing: briefing.NewSession()}
	if err := h.sessions.Create(ctx, data); err != nil {
		return nil, fmt.Errorf("create briefing session: %w", err)
	}
	return data, nil
}

// GetBriefing returns the current briefing state for this user/tab pair.
func (h *Handler) GetBriefing(w http.ResponseWriter, r *http.Request) {
	data, err := h.loadOrCreateSession(r.Context())
	if err != nil {
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, viewOf(data.Briefing))
}

type answerRequest struct {
	Text string `json:"text"`
}

// SubmitAnswer records the answer to the current briefing question. The
// final answer moves the session to the generating stage; the client then
// opens the generation websocket.
func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	data, err := h.loadOrCreateSession(r.Context())
	if err != nil {
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := data.Briefing.SubmitAnswer(req.Text); err != nil {
		Fail(w, err)
		return
	}
	if err := h.sessions.Update(r.Context(), data); err != nil {
		Error(w, http.StatusInternalServerError, fmt.Sprintf("save briefing session: %v", err))
		return
	}
	JSON(w, http.StatusOK, viewOf(data.Briefing))
}

// ResetBriefing discards the current session and starts a fresh one. Spent
// coins are not refunded.
func (h *Handler) ResetBriefing(w http.ResponseWriter, r *http.Request) {
	key := session.Key(identity.UserIDFromContext(r.Context()), identity.SessionIDFromContext(r.Context()))

	if err := h.sessions.Delete(r.Context(), key); err != nil {
		Error(w, http.StatusInternalServerError, fmt.Sprintf("reset briefing session: %v", err))
		return
	}

	data := &session.Data{ID: key, Briefing: briefing.NewSession()}
	if err := h.sessions.Create(r.Context(), data); err != nil {
		Error(w, http.StatusInternalServerError, fmt.Sprintf("create briefing session: %v", err))
		return
	}
	JSON(w, http.StatusOK, viewOf(data.Briefing))
}
