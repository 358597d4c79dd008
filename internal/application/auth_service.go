package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/example/meetingroom/internal/persistence"
	"github.com/example/meetingroom/internal/token"
)

// TokenIssuer mints signed access tokens for authenticated accounts and
// recovers the claims of an expired one during the refresh exchange.
type TokenIssuer interface {
	Issue(userID, name string, roles []string) (string, time.Time, error)
	ParseExpired(raw string) (*token.Claims, error)
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService coordinates login, refresh token rotation and logout.
type AuthService struct {
	users          persistence.UserRepository
	refreshTokens  persistence.RefreshTokenRepository
	issuer         TokenIssuer
	verifyPassword PasswordVerifier
	tokenGenerator func() string
	idGenerator    func() string
	now            func() time.Time
	refreshTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(
	users persistence.UserRepository,
	refreshTokens persistence.RefreshTokenRepository,
	issuer TokenIssuer,
	verify PasswordVerifier,
	tokenGenerator func() string,
	idGenerator func() string,
	now func() time.Time,
	refreshTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		users:          users,
		refreshTokens:  refreshTokens,
		issuer:         issuer,
		verifyPassword: verify,
		tokenGenerator: tokenGenerator,
		idGenerator:    idGenerator,
		now:            now,
		refreshTTL:     refreshTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Login validates credentials and issues an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result LoginResult, err error) {
	email := strings.TrimSpace(strings.ToLower(params.Email))

	logger := s.loggerWith(ctx, "Login", "email", email)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "login succeeded", "user_id", result.User.ID)
	}()

	if email == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var user persistence.User
	user, err = s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		return
	}

	if err = s.verifyPassword(user.PasswordHash, params.Password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	result, err = s.issueTokens(ctx, user, params.ClientIP, s.tokenGenerator())
	return
}

// Refresh rotates a refresh token: the expired access token is verified for
// signature and subject (expiry aside), the presented refresh token is revoked
// and linked to its replacement, and a fresh access/refresh pair is returned.
// The old token is revoked before the replacement row exists so a failure
// mid-rotation never leaves both tokens live.
func (s *AuthService) Refresh(ctx context.Context, params RefreshParams) (result LoginResult, err error) {
	logger := s.loggerWith(ctx, "Refresh")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "token refresh failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "token refreshed", "user_id", result.User.ID)
	}()

	if params.RefreshToken == "" {
		err = ErrTokenRevoked
		return
	}
	if params.AccessToken == "" {
		err = ErrTokenInvalid
		return
	}

	claims, parseErr := s.issuer.ParseExpired(params.AccessToken)
	if parseErr != nil {
		err = ErrTokenInvalid
		return
	}

	var stored persistence.RefreshToken
	stored, err = s.refreshTokens.GetRefreshToken(ctx, params.RefreshToken)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrTokenRevoked
		}
		return
	}

	if stored.UserID != claims.Subject {
		err = ErrTokenRevoked
		return
	}

	now := s.now()
	if stored.RevokedAt != nil {
		err = ErrTokenRevoked
		return
	}
	if !stored.ExpiresAt.After(now) {
		err = ErrTokenExpired
		return
	}

	var user persistence.User
	user, err = s.users.GetUser(ctx, stored.UserID)
	if err != nil {
		err = mapRepositoryError(err)
		return
	}

	replacement := s.tokenGenerator()
	if err = s.refreshTokens.RevokeRefreshToken(ctx, stored.Token, now, params.ClientIP, &replacement); err != nil {
		err = mapRepositoryError(err)
		return
	}

	result, err = s.issueTokens(ctx, user, params.ClientIP, replacement)
	return
}

// Logout revokes the presented refresh token. Unknown tokens are treated as
// already logged out.
func (s *AuthService) Logout(ctx context.Context, refreshToken, clientIP string) error {
	if refreshToken == "" {
		return nil
	}
	err := s.refreshTokens.RevokeRefreshToken(ctx, refreshToken, s.now(), clientIP, nil)
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return err
	}
	return nil
}

// PurgeExpiredTokens removes refresh tokens past their expiry.
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) error {
	return s.refreshTokens.DeleteExpiredRefreshTokens(ctx, s.now())
}

func (s *AuthService) issueTokens(ctx context.Context, user persistence.User, clientIP, refreshToken string) (LoginResult, error) {
	access, expiresAt, err := s.issuer.Issue(user.ID, user.Name, []string{user.Role})
	if err != nil {
		return LoginResult{}, err
	}

	now := s.now()
	refresh := persistence.RefreshToken{
		ID:          s.idGenerator(),
		UserID:      user.ID,
		Token:       refreshToken,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.refreshTTL),
		CreatedByIP: clientIP,
	}
	if err := s.refreshTokens.CreateRefreshToken(ctx, refresh); err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		User:         user,
		AccessToken:  access,
		ExpiresAt:    expiresAt,
		RefreshToken: refresh.Token,
	}, nil
}
