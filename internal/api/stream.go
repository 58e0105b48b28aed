package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/tubepro/studio/internal/briefing"
	"github.com/tubepro/studio/internal/domain"
	"github.com/tubepro/studio/internal/generation"
	"github.com/tubepro/studio/internal/identity"
	"github.com/tubepro/studio/internal/ledger"
	"github.com/tubepro/studio/internal/session"
	"github.com/tubepro/studio/internal/store"
)

// StreamHandler runs the generation flow over a WebSocket: the client sends
// start, the server streams finished parts as they complete, and the client
// paces the script with reveal messages.
type StreamHandler struct {
	repo          store.Repository
	sessions      session.Store
	streamer      generation.Streamer
	allowedOrigin string
	isDev         bool
}

// NewStreamHandler creates a new generation WebSocket handler.
func NewStreamHandler(repo store.Repository, sessions session.Store, streamer generation.Streamer, allowedOrigin string, isDev bool) *StreamHandler {
	return &StreamHandler{
		repo:          repo,
		sessions:      sessions,
		streamer:      streamer,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// wsMessage is the message envelope in both directions.
type wsMessage struct {
	Type    string `json:"type"`
	Index   int    `json:"index,omitempty"`
	Content string `json:"content,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Parts   int    `json:"parts,omitempty"`
	Message string `json:"message,omitempty"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	slog.Info("Generation WebSocket request", "user_id", userID, "session_id", sessionID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "generation ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	// The accepted connection is hijacked, so the request context no longer
	// ends on client disconnect; the read loop's exit is what cancels ctx.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	key := session.Key(userID, sessionID)
	data, err := h.sessions.Get(ctx, key)
	if err != nil || data == nil {
		h.sendError(ws, "briefing session not found", string(briefing.StageError))
		return
	}
	sess := data.Briefing

	msgs := h.readLoop(ctx, cancel, ws, userID)

	if !awaitStart(ctx, msgs) {
		return
	}

	if err := sess.Launch(); err != nil {
		h.sendError(ws, err.Error(), string(sess.Stage))
		return
	}
	// Persist the claim before any spend. A concurrent socket for the same
	// session loses here, on the claim or the version check, not after
	// paying.
	if err := h.sessions.Update(ctx, data); err != nil {
		slog.Warn("Generation claim lost", "error", err, "user_id", userID)
		h.sendError(ws, domain.ErrGenerationStarted.Error(), string(sess.Stage))
		return
	}

	l := ledger.New(h.repo)
	if _, err := l.Load(ctx, userID); err != nil {
		h.sendError(ws, "failed to load profile", string(briefing.StageError))
		return
	}

	runner := briefing.NewRunner(l, h.streamer)
	err = runner.Generate(ctx, sess, func(index int, content string) {
		h.send(ws, wsMessage{Type: "part", Index: index, Content: content})
	})
	h.persist(ctx, data, userID)
	if err != nil {
		slog.Warn("Generation failed", "error", err, "user_id", userID)
		h.sendError(ws, err.Error(), string(briefing.SpendFailureStage(err)))
		return
	}

	h.send(ws, wsMessage{Type: "done", Stage: string(sess.Stage), Parts: len(sess.Parts)})

	// Reveal loop: the client paces the remaining parts.
	for sess.Stage == briefing.StageRevealing {
		var msg wsMessage
		select {
		case msg = <-msgs:
		case <-ctx.Done():
			return
		}
		if msg.Type != "reveal" {
			continue
		}
		if err := sess.RevealNext(); err != nil {
			h.sendError(ws, err.Error(), string(sess.Stage))
			continue
		}
		h.persist(ctx, data, userID)
		h.send(ws, wsMessage{Type: "reveal", Index: sess.Revealed - 1, Stage: string(sess.Stage)})
	}

	slog.Info("Generation session ended", "user_id", userID, "stage", sess.Stage, "parts", len(sess.Parts))
}

// readLoop pumps client messages for the connection's lifetime in its own
// goroutine. Its exit — client close or read failure — cancels ctx, which
// aborts an in-flight generation's decoding. Messages are dropped when no
// one is receiving so the disconnect watch never stalls.
func (h *StreamHandler) readLoop(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn, userID string) <-chan wsMessage {
	msgs := make(chan wsMessage, 8)
	go func() {
		defer cancel()
		for {
			_, raw, err := ws.Read(ctx)
			if err != nil {
				if websocket.CloseStatus(err) != -1 {
					slog.Debug("WebSocket closed by client", "user_id", userID)
				} else if ctx.Err() == nil {
					slog.Warn("WebSocket read error", "error", err, "user_id", userID)
				}
				return
			}

			var msg wsMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				slog.Debug("Discarding malformed message", "user_id", userID)
				continue
			}
			if msg.Type == "ping" {
				h.send(ws, wsMessage{Type: "pong"})
				continue
			}

			select {
			case msgs <- msg:
			default:
			}
		}
	}()
	return msgs
}

// awaitStart blocks until the client sends a start message or the
// connection ends.
func awaitStart(ctx context.Context, msgs <-chan wsMessage) bool {
	for {
		select {
		case msg := <-msgs:
			if msg.Type == "start" {
				return true
			}
		case <-ctx.Done():
			return false
		}
	}
}

// persist writes the session back even when the connection is already gone;
// a terminal stage must reach the store or a reconnect could relaunch a
// paid generation.
func (h *StreamHandler) persist(ctx context.Context, data *session.Data, userID string) {
	if err := h.sessions.Update(context.WithoutCancel(ctx), data); err != nil {
		slog.Warn("Failed to persist briefing session", "error", err, "user_id", userID)
	}
}

func (h *StreamHandler) send(ws *websocket.Conn, msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := ws.Write(context.Background(), websocket.MessageText, data); err != nil {
		slog.Debug("WebSocket write error", "error", err)
	}
}

func (h *StreamHandler) sendError(ws *websocket.Conn, message, stage string) {
	h.send(ws, wsMessage{Type: "error", Message: message, Stage: stage})
}

func (h *StreamHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}
