package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/meetingroom/internal/application"
	"github.com/example/meetingroom/internal/persistence"
	"github.com/example/meetingroom/internal/token"
)

// TokenParser verifies a bearer token and returns its claims.
type TokenParser interface {
	Parse(raw string) (*token.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resulting principal in the request context.
func RequireAuth(parser TokenParser, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearerToken(r)
			if raw == "" {
				responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
					ErrorCode: "AUTH_TOKEN_MISSING",
					Message:   errMissingBearerToken.Error(),
				})
				return
			}

			claims, err := parser.Parse(raw)
			if err != nil {
				switch {
				case errors.Is(err, token.ErrExpiredToken):
					responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
						ErrorCode: "AUTH_TOKEN_EXPIRED",
						Message:   "The access token has expired.",
					})
				default:
					responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
						ErrorCode: "AUTH_TOKEN_INVALID",
						Message:   "The access token is invalid.",
					})
				}
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principalFromClaims(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func principalFromClaims(claims *token.Claims) application.Principal {
	principal := application.Principal{
		UserID: claims.Subject,
		Name:   claims.Name,
	}
	for _, role := range claims.Roles {
		if role == persistence.RoleAdmin {
			principal.IsAdmin = true
			break
		}
	}
	return principal
}

func extractBearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, prefix))
	}
	return ""
}

func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}
