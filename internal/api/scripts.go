package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tubepro/studio/internal/domain"
	"github.com/tubepro/studio/internal/generation"
	"github.com/tubepro/studio/internal/identity"
)

type saveScriptRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SaveScript stores a script in the user's library. When content is omitted
// the finished parts of the current briefing session are saved, joined on
// the part delimiter.
func (h *Handler) SaveScript(w http.ResponseWriter, r *http.Request) {
	var req saveScriptRequest
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Fail(w, domain.ErrUnauthenticated)
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		data, err := h.loadOrCreateSession(r.Context())
		if err != nil {
			Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		sess := data.Briefing
		if len(sess.Parts) == 0 {
			Error(w, http.StatusBadRequest, "no script content to save")
			return
		}
		req.Content = strings.Join(sess.Parts, "\n\n"+generation.PartBreak+"\n\n")
		if req.Title == "" && len(sess.Responses) > 0 && sess.Responses[0] != "" {
			req.Title = sess.Responses[0]
		}
	}
	if req.Title == "" {
		req.Title = "Untitled script"
	}

	script := &domain.Script{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}
	if err := h.repo.SaveScript(r.Context(), script); err != nil {
		Error(w, http.StatusInternalServerError, "failed to save script")
		return
	}
	JSON(w, http.StatusCreated, script)
}

// ListScripts returns the user's saved scripts, newest first.
func (h *Handler) ListScripts(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Fail(w, domain.ErrUnauthenticated)
		return
	}

	scripts, err := h.repo.ListScripts(r.Context(), userID)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to list scripts")
		return
	}
	if scripts == nil {
		scripts = []*domain.Script{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"scripts": scripts})
}
