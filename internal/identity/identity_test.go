package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tubepro/studio/internal/domain"
)

type fakeRepo struct {
	profiles map[string]*domain.Profile
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{profiles: make(map[string]*domain.Profile)}
}

func (r *fakeRepo) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) UpsertProfile(ctx context.Context, profile *domain.Profile) error {
	r.profiles[profile.UserID] = profile
	return nil
}

func (r *fakeRepo) SaveScript(ctx context.Context, script *domain.Script) error { return nil }
func (r *fakeRepo) ListScripts(ctx context.Context, userID string) ([]*domain.Script, error) {
	return nil, nil
}
func (r *fakeRepo) Ping(ctx context.Context) error { return nil }
func (r *fakeRepo) Close() error                   { return nil }

func TestMiddlewareIssuesIdentityAndProfile(t *testing.T) {
	repo := newFakeRepo()
	var seenUserID, seenSessionID string

	handler := Middleware(repo, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserIDFromContext(r.Context())
		seenSessionID = SessionIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/profile", nil))

	if !isValidAnonID(seenUserID) {
		t.Fatalf("Expected a valid anonymous ID in context, got %q", seenUserID)
	}
	if seenSessionID != DefaultSessionIDValue {
		t.Errorf("Expected default session ID, got %q", seenSessionID)
	}

	profile, ok := repo.profiles[seenUserID]
	if !ok {
		t.Fatal("Expected starter profile created on first request")
	}
	if profile.Balance != domain.InitialBalance || profile.Level != domain.InitialLevel {
		t.Errorf("Unexpected starter profile: balance=%d level=%d", profile.Balance, profile.Level)
	}

	cookies := w.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == AnonCookieName {
			found = true
			if c.Value != seenUserID {
				t.Errorf("Cookie value %q does not match context user %q", c.Value, seenUserID)
			}
			if !c.HttpOnly {
				t.Error("Expected HttpOnly cookie")
			}
		}
	}
	if !found {
		t.Errorf("Expected %s cookie to be set", AnonCookieName)
	}
}

func TestMiddlewareReusesExistingCookie(t *testing.T) {
	repo := newFakeRepo()
	const existing = "anon_0123456789abcdef0123456789abcdef"

	var seenUserID string
	handler := Middleware(repo, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: existing})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seenUserID != existing {
		t.Errorf("Expected existing identity %q, got %q", existing, seenUserID)
	}
}

func TestMiddlewareRejectsForgedCookie(t *testing.T) {
	repo := newFakeRepo()

	var seenUserID string
	handler := Middleware(repo, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: "admin'; DROP TABLE profiles;--"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.HasPrefix(seenUserID, "anon_") || !isValidAnonID(seenUserID) {
		t.Errorf("Expected a freshly minted identity for a forged cookie, got %q", seenUserID)
	}
}

func TestSessionIDFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		want   string
	}{
		{name: "Header wins", header: "tab-7", query: "tab-9", want: "tab-7"},
		{name: "Query fallback", header: "", query: "tab-9", want: "tab-9"},
		{name: "Default when absent", header: "", query: "", want: DefaultSessionIDValue},
		{name: "Invalid characters rejected", header: "bad session!", query: "", want: DefaultSessionIDValue},
		{name: "Overlong rejected", header: strings.Repeat("a", 129), query: "", want: DefaultSessionIDValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "/"
			if tt.query != "" {
				url += "?session_id=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tt.header != "" {
				req.Header.Set(SessionHeaderName, tt.header)
			}
			if got := sessionIDFromRequest(req); got != tt.want {
				t.Errorf("sessionIDFromRequest = %q, want %q", got, tt.want)
			}
		})
	}
}
