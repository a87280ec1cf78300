package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/roombooking/internal/identity"
)

// IdentityProvider is the identity service the gateway fronts.
type IdentityProvider interface {
	Register(ctx context.Context, email, password string) (identity.Identity, error)
	Login(ctx context.Context, email, password string) (identity.Identity, identity.Token, error)
	Verify(ctx context.Context, token string) (identity.Identity, error)
	Logout(ctx context.Context, token string) error
	Subscribe(buffer int) (<-chan identity.Event, func())
}

// SessionState is the sign-in state of a Session.
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticating
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session is the explicit sign-in state of one client.
type Session struct {
	State     SessionState
	Token     string
	ExpiresAt time.Time
	User      User
}

// Authenticated reports whether repository calls may be issued for the session.
func (s *Session) Authenticated() bool {
	return s != nil && s.State == StateAuthenticated
}

// Principal returns the acting principal of an authenticated session.
func (s *Session) Principal() Principal {
	if !s.Authenticated() {
		return Principal{}
	}
	return s.User.Principal()
}

// transition moves the session along unauthenticated -> authenticating ->
// authenticated -> unauthenticated. A failed sign-in returns from
// authenticating to unauthenticated.
func (s *Session) transition(next SessionState) error {
	allowed := false
	switch s.State {
	case StateUnauthenticated:
		allowed = next == StateAuthenticating
	case StateAuthenticating:
		allowed = next == StateAuthenticated || next == StateUnauthenticated
	case StateAuthenticated:
		allowed = next == StateUnauthenticated
	}
	if !allowed {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, s.State, next)
	}
	s.State = next
	return nil
}

// IdentityEvent notifies that the identity signed in on some session changed.
type IdentityEvent struct {
	Kind      string
	UserID    string
	SessionID string
	At        time.Time
}

// IdentityGateway signs users in and out and resolves their profiles.
type IdentityGateway struct {
	provider IdentityProvider
	users    *UserService
	cache    ProfileCache
	logger   *slog.Logger
}

// NewIdentityGateway constructs a gateway. A nil cache falls back to an
// in-memory cache with default settings.
func NewIdentityGateway(provider IdentityProvider, users *UserService, cache ProfileCache, logger *slog.Logger) *IdentityGateway {
	if cache == nil {
		cache = NewMemoryProfileCache(0, 0, nil)
	}
	return &IdentityGateway{provider: provider, users: users, cache: cache, logger: defaultLogger(logger)}
}

func (g *IdentityGateway) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, g.logger, "IdentityGateway", operation, attrs...)
}

// Register creates an identity, stores its profile with the requested role
// and signs it in.
func (g *IdentityGateway) Register(ctx context.Context, params RegisterParams) (session *Session, err error) {
	if g == nil {
		return nil, fmt.Errorf("IdentityGateway is nil")
	}

	role := strings.ToLower(strings.TrimSpace(params.Role))
	if role == "" {
		role = RoleUser
	}

	logger := g.loggerWith(ctx, "Register", "role", role)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "account registered", "user_id", session.User.ID)
	}()

	vErr := &ValidationError{}
	if role != RoleAdmin && role != RoleUser {
		vErr.add("role", "role is invalid")
	}
	if len(params.Password) < identity.MinPasswordLength {
		vErr.add("password", "password is too short")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	registered, err := g.provider.Register(ctx, params.Email, params.Password)
	if err != nil {
		identityErr := mapIdentityError(err)
		var providerErr *ValidationError
		if errors.As(identityErr, &providerErr) {
			vErr.merge(providerErr)
			return nil, vErr
		}
		return nil, identityErr
	}

	if _, err = g.users.CreateProfile(ctx, User{
		ID:    registered.UserID,
		Email: registered.Email,
		Name:  params.Name,
		Role:  role,
	}); err != nil {
		// The credential already exists. A later sign-in creates the profile
		// with RoleUser, so the requested role is lost.
		g.loggerWith(ctx, "Register", "user_id", registered.UserID, "requested_role", role).
			ErrorContext(ctx, "credential registered without profile", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	return g.Login(ctx, params.Email, params.Password)
}

// Login signs in with email and password. A profile missing for the identity
// is created with the user role.
func (g *IdentityGateway) Login(ctx context.Context, email, password string) (session *Session, err error) {
	if g == nil {
		return nil, fmt.Errorf("IdentityGateway is nil")
	}

	logger := g.loggerWith(ctx, "Login")
	session = &Session{}
	if err = session.transition(StateAuthenticating); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = session.transition(StateUnauthenticated)
			logger.WarnContext(ctx, "sign-in failed", "error", err, "error_kind", ErrorKind(err))
			session = nil
			return
		}
		logger.InfoContext(ctx, "signed in", "user_id", session.User.ID)
	}()

	signedIn, token, err := g.provider.Login(ctx, email, password)
	if err != nil {
		return session, mapIdentityError(err)
	}

	profile, err := g.loadProfile(ctx, signedIn)
	if err != nil {
		return session, err
	}

	session.Token = token.Value
	session.ExpiresAt = token.ExpiresAt
	session.User = profile
	return session, session.transition(StateAuthenticated)
}

// Resume turns a token presented with a request back into an authenticated session.
func (g *IdentityGateway) Resume(ctx context.Context, token string) (*Session, error) {
	if g == nil {
		return nil, fmt.Errorf("IdentityGateway is nil")
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthenticated
	}

	verified, err := g.provider.Verify(ctx, token)
	if err != nil {
		return nil, mapIdentityError(err)
	}

	profile, err := g.loadProfile(ctx, verified)
	if err != nil {
		return nil, err
	}

	return &Session{State: StateAuthenticated, Token: token, User: profile}, nil
}

// Logout revokes the session and drops the cached profile.
func (g *IdentityGateway) Logout(ctx context.Context, session *Session) error {
	if g == nil {
		return fmt.Errorf("IdentityGateway is nil")
	}
	if !session.Authenticated() {
		return ErrUnauthenticated
	}

	logger := g.loggerWith(ctx, "Logout", "user_id", session.User.ID)

	if err := g.provider.Logout(ctx, session.Token); err != nil {
		err = mapIdentityError(err)
		logger.WarnContext(ctx, "sign-out failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if err := g.cache.Invalidate(ctx, session.User.ID); err != nil {
		logger.WarnContext(ctx, "failed to invalidate cached profile", "error", err)
	}

	userID := session.User.ID
	if err := session.transition(StateUnauthenticated); err != nil {
		return err
	}
	session.Token = ""
	session.User = User{}
	logger.InfoContext(ctx, "signed out", "user_id", userID)
	return nil
}

// Subscribe streams sign-in and sign-out events of userID until cancel is
// called. The returned channel is closed after cancel.
func (g *IdentityGateway) Subscribe(userID string) (<-chan IdentityEvent, func()) {
	upstream, cancel := g.provider.Subscribe(16)
	out := make(chan IdentityEvent, 16)

	go func() {
		defer close(out)
		for evt := range upstream {
			if evt.UserID != userID {
				continue
			}
			select {
			case out <- IdentityEvent{Kind: string(evt.Kind), UserID: evt.UserID, SessionID: evt.SessionID, At: evt.At}:
			default:
			}
		}
	}()

	return out, cancel
}

func (g *IdentityGateway) loadProfile(ctx context.Context, who identity.Identity) (User, error) {
	if cached, ok, err := g.cache.Get(ctx, who.UserID); err == nil && ok {
		return cached, nil
	} else if err != nil {
		g.loggerWith(ctx, "loadProfile", "user_id", who.UserID).WarnContext(ctx, "profile cache read failed", "error", err)
	}

	profile, err := g.users.GetUser(ctx, who.UserID)
	if errors.Is(err, ErrNotFound) {
		profile, err = g.users.CreateProfile(ctx, User{ID: who.UserID, Email: who.Email, Role: RoleUser})
		if errors.Is(err, ErrAlreadyExists) {
			profile, err = g.users.GetUser(ctx, who.UserID)
		}
	}
	if err != nil {
		return User{}, err
	}

	if cacheErr := g.cache.Set(ctx, profile); cacheErr != nil {
		g.loggerWith(ctx, "loadProfile", "user_id", who.UserID).WarnContext(ctx, "profile cache write failed", "error", cacheErr)
	}
	return profile, nil
}

func mapIdentityError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, identity.ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, identity.ErrEmailTaken):
		return ErrAlreadyExists
	case errors.Is(err, identity.ErrInvalidEmail):
		return &ValidationError{FieldErrors: map[string]string{"email": "email is invalid"}}
	case errors.Is(err, identity.ErrWeakPassword):
		return &ValidationError{FieldErrors: map[string]string{"password": "password is too short"}}
	case errors.Is(err, identity.ErrSessionExpired):
		return ErrSessionExpired
	case errors.Is(err, identity.ErrSessionRevoked):
		return ErrSessionRevoked
	case errors.Is(err, identity.ErrInvalidToken):
		return ErrUnauthenticated
	}
	return fmt.Errorf("%w: %v", ErrOperationFailed, err)
}
