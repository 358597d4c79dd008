package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/meetingroom/internal/application"
	"github.com/example/meetingroom/internal/persistence"
	"github.com/example/meetingroom/internal/token"
)

func newTestIssuer(t *testing.T, now func() time.Time) *token.Issuer {
	t.Helper()
	issuer, err := token.NewIssuer("test-secret-test-secret-test-secret", "meetingroom-test", 15*time.Minute, now)
	if err != nil {
		t.Fatalf("failed to build issuer: %v", err)
	}
	return issuer
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, nil)

	nextCalled := func(t *testing.T) (http.Handler, *application.Principal) {
		captured := &application.Principal{}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				t.Error("expected principal in context")
			}
			*captured = principal
			w.WriteHeader(http.StatusOK)
		}), captured
	}

	t.Run("rejects missing token", func(t *testing.T) {
		t.Parallel()

		handler := RequireAuth(issuer, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler must not run without credentials")
		}))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/meetings", nil))

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", recorder.Code)
		}
	})

	t.Run("rejects malformed token", func(t *testing.T) {
		t.Parallel()

		handler := RequireAuth(issuer, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler must not run with a malformed token")
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/meetings", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", recorder.Code)
		}
	})

	t.Run("rejects expired token with a dedicated code", func(t *testing.T) {
		t.Parallel()

		past := func() time.Time { return time.Now().Add(-2 * time.Hour) }
		staleIssuer := newTestIssuer(t, past)
		raw, _, err := staleIssuer.Issue("user-1", "Alice", []string{persistence.RoleEmployee})
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		handler := RequireAuth(issuer, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler must not run with an expired token")
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/meetings", nil)
		req.Header.Set("Authorization", "Bearer "+raw)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", recorder.Code)
		}
		var body errorResponse
		if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode error body: %v", err)
		}
		if body.ErrorCode != "AUTH_TOKEN_EXPIRED" {
			t.Fatalf("error_code = %q, want AUTH_TOKEN_EXPIRED", body.ErrorCode)
		}
	})

	t.Run("attaches employee principal", func(t *testing.T) {
		t.Parallel()

		raw, _, err := issuer.Issue("user-1", "Alice", []string{persistence.RoleEmployee})
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		next, captured := nextCalled(t)
		handler := RequireAuth(issuer, nil)(next)

		req := httptest.NewRequest(http.MethodGet, "/api/meetings", nil)
		req.Header.Set("Authorization", "Bearer "+raw)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		if captured.UserID != "user-1" || captured.Name != "Alice" {
			t.Fatalf("principal = %+v, want user-1/Alice", captured)
		}
		if captured.IsAdmin {
			t.Fatal("employee principal must not be admin")
		}
	})

	t.Run("detects the admin role", func(t *testing.T) {
		t.Parallel()

		raw, _, err := issuer.Issue("admin-1", "Root", []string{persistence.RoleAdmin})
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		next, captured := nextCalled(t)
		handler := RequireAuth(issuer, nil)(next)

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("Authorization", "Bearer "+raw)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		if !captured.IsAdmin {
			t.Fatal("expected admin principal")
		}
	})
}
