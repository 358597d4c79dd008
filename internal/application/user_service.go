package application

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/meetingroom/internal/persistence"
)

// UserService orchestrates validation, authorization, and persistence for accounts.
type UserService struct {
	users        persistence.UserRepository
	hashPassword func(password string) (string, error)
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users persistence.UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users: users,
		hashPassword: func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		},
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// Register creates a self-service employee account.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (persistence.User, error) {
	input := UserInput{
		Name:     params.Name,
		Email:    params.Email,
		Phone:    params.Phone,
		Password: params.Password,
		Role:     persistence.RoleEmployee,
	}
	return s.create(ctx, input, true)
}

// CreateUser persists a new account on behalf of an administrator.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (persistence.User, error) {
	if !params.Principal.IsAdmin {
		return persistence.User{}, ErrUnauthorized
	}
	return s.create(ctx, params.Input, true)
}

func (s *UserService) create(ctx context.Context, input UserInput, requirePassword bool) (persistence.User, error) {
	normalized := normalizeUserInput(input)
	vErr := validateUserInput(normalized, requirePassword)
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	hash, err := s.hashPassword(normalized.Password)
	if err != nil {
		return persistence.User{}, err
	}

	now := s.now()
	user := persistence.User{
		ID:           s.idGenerator(),
		Name:         normalized.Name,
		Email:        normalized.Email,
		Phone:        normalized.Phone,
		PasswordHash: hash,
		Role:         normalized.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	logger := s.loggerWith(ctx, "CreateUser", "email", user.Email)
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			logger.WarnContext(ctx, "account creation rejected", "error_kind", "already_exists")
			return persistence.User{}, ErrAlreadyExists
		}
		logger.ErrorContext(ctx, "account creation failed", "error", err)
		return persistence.User{}, err
	}

	logger.InfoContext(ctx, "account created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// UpdateUser rewrites an account for an administrator. A blank password keeps
// the stored hash.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (persistence.User, error) {
	if !params.Principal.IsAdmin {
		return persistence.User{}, ErrUnauthorized
	}

	existing, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return persistence.User{}, mapRepositoryError(err)
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized, false)
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	updated := existing
	updated.Name = normalized.Name
	updated.Email = normalized.Email
	updated.Phone = normalized.Phone
	updated.Role = normalized.Role
	updated.UpdatedAt = s.now()

	if normalized.Password != "" {
		hash, err := s.hashPassword(normalized.Password)
		if err != nil {
			return persistence.User{}, err
		}
		updated.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, updated); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return persistence.User{}, ErrAlreadyExists
		}
		return persistence.User{}, mapRepositoryError(err)
	}

	s.loggerWith(ctx, "UpdateUser").InfoContext(ctx, "account updated", "user_id", updated.ID)
	return updated, nil
}

// UpdateProfile lets an account change its own name, phone and password.
func (s *UserService) UpdateProfile(ctx context.Context, params UpdateProfileParams) (persistence.User, error) {
	existing, err := s.users.GetUser(ctx, params.Principal.UserID)
	if err != nil {
		return persistence.User{}, mapRepositoryError(err)
	}

	vErr := &ValidationError{}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		vErr.add("name", "name is required")
	}
	if params.Password != "" && len(params.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	existing.Name = name
	existing.Phone = strings.TrimSpace(params.Phone)
	existing.UpdatedAt = s.now()
	if params.Password != "" {
		hash, err := s.hashPassword(params.Password)
		if err != nil {
			return persistence.User{}, err
		}
		existing.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, existing); err != nil {
		return persistence.User{}, mapRepositoryError(err)
	}
	return existing, nil
}

// GetUser returns one account. Admins may look up anyone, employees only themselves.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (persistence.User, error) {
	if !principal.IsAdmin && principal.UserID != userID {
		return persistence.User{}, ErrUnauthorized
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return persistence.User{}, mapRepositoryError(err)
	}
	return user, nil
}

// ListUsers returns all accounts. Any authenticated account may list; the
// directory backs attendee pickers.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]persistence.User, error) {
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	return s.users.ListUsers(ctx)
}

// DeleteUser removes an account when requested by an administrator.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if principal.UserID == userID {
		vErr := &ValidationError{}
		vErr.add("user_id", "cannot delete your own account")
		return vErr
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return mapRepositoryError(err)
	}
	s.loggerWith(ctx, "DeleteUser").InfoContext(ctx, "account deleted", "user_id", userID)
	return nil
}

func normalizeUserInput(input UserInput) UserInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	if input.Role == "" {
		input.Role = persistence.RoleEmployee
	}
	return input
}

func validateUserInput(input UserInput, requirePassword bool) *ValidationError {
	vErr := &ValidationError{}
	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is not a valid address")
	}
	if requirePassword && input.Password == "" {
		vErr.add("password", "password is required")
	}
	if input.Password != "" && len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if input.Role != persistence.RoleAdmin && input.Role != persistence.RoleEmployee {
		vErr.add("role", "role must be Admin or Employee")
	}
	return vErr
}

// mapRepositoryError translates persistence sentinels into application ones.
func mapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrBookingConflict):
		return ErrRoomUnavailable
	default:
		return err
	}
}
