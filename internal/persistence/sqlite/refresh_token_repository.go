package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/meetingroom/internal/persistence"
)

// RefreshTokenRepository implements persistence.RefreshTokenRepository using SQLite.
type RefreshTokenRepository struct {
	store *Store
}

// NewRefreshTokenRepository creates a new SQLite refresh token repository.
func NewRefreshTokenRepository(store *Store) *RefreshTokenRepository {
	return &RefreshTokenRepository{store: store}
}

// CreateRefreshToken persists a freshly issued refresh token.
func (r *RefreshTokenRepository) CreateRefreshToken(ctx context.Context, token persistence.RefreshToken) error {
	if token.ID == "" || token.Token == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO refresh_tokens (id, user_id, token, created_at, expires_at, created_by_ip, revoked_at, revoked_by_ip, replaced_by_token)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.store.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.Token,
		fmtTime(token.CreatedAt),
		fmtTime(token.ExpiresAt),
		token.CreatedByIP,
		nullTime(token.RevokedAt),
		token.RevokedByIP,
		nullString(token.ReplacedByToken),
	)
	return mapError(err)
}

// GetRefreshToken looks up a token by its opaque value.
func (r *RefreshTokenRepository) GetRefreshToken(ctx context.Context, token string) (persistence.RefreshToken, error) {
	if token == "" {
		return persistence.RefreshToken{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, user_id, token, created_at, expires_at, created_by_ip, revoked_at, revoked_by_ip, replaced_by_token
		FROM refresh_tokens
		WHERE token = ?
	`
	var rt persistence.RefreshToken
	var revokedAt, replacedBy sql.NullString
	var createdAt, expiresAt string

	err := r.store.db.QueryRowContext(ctx, query, token).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&createdAt,
		&expiresAt,
		&rt.CreatedByIP,
		&revokedAt,
		&rt.RevokedByIP,
		&replacedBy,
	)
	if err != nil {
		return persistence.RefreshToken{}, mapError(err)
	}

	rt.ReplacedByToken = stringPtr(replacedBy)
	if revokedAt.Valid {
		if rt.RevokedAt, err = parseTimePtr(revokedAt.String); err != nil {
			return persistence.RefreshToken{}, fmt.Errorf("failed to parse revoked_at: %w", err)
		}
	}
	if rt.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.RefreshToken{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if rt.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.RefreshToken{}, fmt.Errorf("failed to parse expires_at: %w", err)
	}
	return rt, nil
}

// RevokeRefreshToken marks a token revoked and, during rotation, records the
// token that superseded it.
func (r *RefreshTokenRepository) RevokeRefreshToken(ctx context.Context, token string, revokedAt time.Time, revokedByIP string, replacedBy *string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = ?, revoked_by_ip = ?, replaced_by_token = ?
		WHERE token = ? AND revoked_at IS NULL
	`
	result, err := r.store.db.ExecContext(ctx, query,
		fmtTime(revokedAt),
		revokedByIP,
		nullString(replacedBy),
		token,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteExpiredRefreshTokens removes tokens that expired before the
// reference instant. Run periodically to keep the table bounded.
func (r *RefreshTokenRepository) DeleteExpiredRefreshTokens(ctx context.Context, reference time.Time) error {
	_, err := r.store.db.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at < ?", fmtTime(reference))
	return mapError(err)
}
