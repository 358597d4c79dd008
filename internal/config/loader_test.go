package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"MEETINGROOM_HTTP_PORT",
			"MEETINGROOM_SQLITE_DSN",
			"MEETINGROOM_JWT_ISSUER",
			"MEETINGROOM_ACCESS_TOKEN_TTL",
			"MEETINGROOM_REFRESH_TOKEN_TTL",
			"MEETINGROOM_MAX_UPLOAD_BYTES",
			"MEETINGROOM_CORS_ORIGINS",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		const secret = "super-secret"
		t.Setenv("MEETINGROOM_JWT_SECRET", secret)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:meetingroom.db?_foreign_keys=on" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.JWTSecret != secret {
			t.Fatalf("expected JWT secret to be %q, got %q", secret, cfg.JWTSecret)
		}
		if cfg.AccessTokenTTL != 15*time.Minute {
			t.Fatalf("expected default access token TTL 15m, got %s", cfg.AccessTokenTTL)
		}
		if cfg.RefreshTokenTTL != 7*24*time.Hour {
			t.Fatalf("expected default refresh token TTL 168h, got %s", cfg.RefreshTokenTTL)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		for _, key := range []string{
			"MEETINGROOM_JWT_SECRET",
			"MEETINGROOM_HTTP_PORT",
			"MEETINGROOM_SQLITE_DSN",
		} {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		if !strings.Contains(err.Error(), "MEETINGROOM_JWT_SECRET") {
			t.Fatalf("expected error to name the missing variable, got %q", err.Error())
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		t.Setenv("MEETINGROOM_JWT_SECRET", "secret-value")
		t.Setenv("MEETINGROOM_HTTP_PORT", "9090")
		t.Setenv("MEETINGROOM_SQLITE_DSN", "file:/tmp/meetingroom.db")
		t.Setenv("MEETINGROOM_ACCESS_TOKEN_TTL", "30m")
		t.Setenv("MEETINGROOM_REFRESH_TOKEN_TTL", "72h")
		t.Setenv("MEETINGROOM_MAX_UPLOAD_BYTES", "1048576")
		t.Setenv("MEETINGROOM_CORS_ORIGINS", "http://localhost:3000, https://example.com")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.AccessTokenTTL != 30*time.Minute {
			t.Fatalf("expected access token TTL 30m, got %s", cfg.AccessTokenTTL)
		}
		if cfg.RefreshTokenTTL != 72*time.Hour {
			t.Fatalf("expected refresh token TTL 72h, got %s", cfg.RefreshTokenTTL)
		}
		if cfg.MaxUploadBytes != 1048576 {
			t.Fatalf("expected max upload bytes 1048576, got %d", cfg.MaxUploadBytes)
		}
		if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "http://localhost:3000" || cfg.CORSOrigins[1] != "https://example.com" {
			t.Fatalf("unexpected CORS origins: %v", cfg.CORSOrigins)
		}
	})

	t.Run("rejects malformed numeric values", func(t *testing.T) {
		t.Setenv("MEETINGROOM_JWT_SECRET", "secret-value")
		t.Setenv("MEETINGROOM_HTTP_PORT", "not-a-port")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for malformed port")
		}
		if !strings.Contains(err.Error(), "MEETINGROOM_HTTP_PORT") {
			t.Fatalf("expected error to name the invalid variable, got %q", err.Error())
		}
	})
}
