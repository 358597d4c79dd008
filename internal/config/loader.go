package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration for the booking service.
type Config struct {
	HTTPPort        int
	SQLiteDSN       string
	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	MaxUploadBytes  int64
	CORSOrigins     []string
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults; missing and invalid entries are
// accumulated so operators see every problem in a single error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:meetingroom.db?_foreign_keys=on",
		JWTIssuer:       "meetingroom",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		MaxUploadBytes:  10 << 20,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("MEETINGROOM_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "MEETINGROOM_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("MEETINGROOM_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("MEETINGROOM_JWT_SECRET")); secret == "" {
		missing = append(missing, "MEETINGROOM_JWT_SECRET")
	} else {
		cfg.JWTSecret = secret
	}

	if issuer := strings.TrimSpace(os.Getenv("MEETINGROOM_JWT_ISSUER")); issuer != "" {
		cfg.JWTIssuer = issuer
	}

	if ttlValue := strings.TrimSpace(os.Getenv("MEETINGROOM_ACCESS_TOKEN_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "MEETINGROOM_ACCESS_TOKEN_TTL")
		} else {
			cfg.AccessTokenTTL = ttl
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("MEETINGROOM_REFRESH_TOKEN_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "MEETINGROOM_REFRESH_TOKEN_TTL")
		} else {
			cfg.RefreshTokenTTL = ttl
		}
	}

	if sizeValue := strings.TrimSpace(os.Getenv("MEETINGROOM_MAX_UPLOAD_BYTES")); sizeValue != "" {
		size, err := strconv.ParseInt(sizeValue, 10, 64)
		if err != nil || size <= 0 {
			invalid = append(invalid, "MEETINGROOM_MAX_UPLOAD_BYTES")
		} else {
			cfg.MaxUploadBytes = size
		}
	}

	if origins := strings.TrimSpace(os.Getenv("MEETINGROOM_CORS_ORIGINS")); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, trimmed)
			}
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
