package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"slices"
	"strings"
	"time"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// UserService exposes the user directory and creates profiles for new identities.
type UserService struct {
	users  UserRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, now, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, now func() time.Time, logger *slog.Logger) *UserService {
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, now: now, logger: defaultLogger(logger)}
}

// CreateProfile validates and stores the profile of a freshly registered
// identity. The profile id is the identity id.
func (s *UserService) CreateProfile(ctx context.Context, user User) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}

	normalized := User{
		ID:        strings.TrimSpace(user.ID),
		Email:     strings.ToLower(strings.TrimSpace(user.Email)),
		Name:      strings.TrimSpace(user.Name),
		Role:      strings.ToLower(strings.TrimSpace(user.Role)),
		CreatedAt: user.CreatedAt,
	}
	if normalized.Role == "" {
		normalized.Role = RoleUser
	}
	if normalized.CreatedAt.IsZero() {
		normalized.CreatedAt = s.now()
	}

	if vErr := validateProfile(normalized); vErr.HasErrors() {
		return User{}, vErr
	}
	if s.users == nil {
		return normalized, nil
	}

	if err := s.users.CreateUser(ctx, normalized); err != nil {
		err = mapRepoError(err)
		serviceLogger(ctx, s.logger, "UserService", "CreateProfile", "user_id", normalized.ID).
			ErrorContext(ctx, "failed to create profile", "error", err, "error_kind", ErrorKind(err))
		return User{}, err
	}
	return normalized, nil
}

// GetUser returns a single profile.
func (s *UserService) GetUser(ctx context.Context, userID string) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, ErrNotFound
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return User{}, mapRepoError(err)
	}
	return user, nil
}

// ListUsers returns the user directory ordered by name.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	out := slices.Clone(users)
	slices.SortFunc(out, func(a, b User) int { return compareByName(a.Name, a.ID, b.Name, b.ID) })
	return out, nil
}

// compareByName orders case-insensitively by name, then by id.
func compareByName(aName, aID, bName, bID string) int {
	if c := strings.Compare(strings.ToLower(aName), strings.ToLower(bName)); c != 0 {
		return c
	}
	return strings.Compare(aID, bID)
}

func validateProfile(user User) *ValidationError {
	vErr := &ValidationError{}

	if user.ID == "" {
		vErr.add("id", "id is required")
	}
	if user.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(user.Email); err != nil {
		vErr.add("email", "email is invalid")
	}
	if user.Role != RoleAdmin && user.Role != RoleUser {
		vErr.add("role", "role is invalid")
	}

	return vErr
}
