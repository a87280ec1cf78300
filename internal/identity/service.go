package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/roombooking/internal/logging"
	"github.com/example/roombooking/internal/persistence"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// Identity is an authenticated principal as known to the identity service.
type Identity struct {
	UserID    string
	Email     string
	SessionID string
}

// Token is a signed session token.
type Token struct {
	Value     string
	SessionID string
	ExpiresAt time.Time
}

// Options configures a Service.
type Options struct {
	Secret      string
	SessionTTL  time.Duration
	HashParams  Argon2idParams
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// Service registers identities, signs them in and out and streams
// identity changes to subscribers.
type Service struct {
	credentials persistence.CredentialRepository
	sessions    persistence.SessionRepository
	signer      *TokenSigner
	hub         *Hub
	hashParams  Argon2idParams
	idGenerator func() string
	now         func() time.Time
	ttl         time.Duration
	logger      *slog.Logger
}

// NewService constructs an identity service.
func NewService(credentials persistence.CredentialRepository, sessions persistence.SessionRepository, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = func() string { return "" }
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.HashParams == (Argon2idParams{}) {
		opts.HashParams = DefaultArgon2idParams
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		credentials: credentials,
		sessions:    sessions,
		signer:      NewTokenSigner(opts.Secret, opts.Now),
		hub:         NewHub(),
		hashParams:  opts.HashParams,
		idGenerator: opts.IDGenerator,
		now:         opts.Now,
		ttl:         opts.SessionTTL,
		logger:      opts.Logger,
	}
}

func (s *Service) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = s.logger
	}
	return logger.With(append([]any{"service", "IdentityService", "operation", operation}, attrs...)...)
}

// Register creates a new identity for email.
func (s *Service) Register(ctx context.Context, email, password string) (identity Identity, err error) {
	email = normalizeEmail(email)
	logger := s.loggerWith(ctx, "Register", "email", email)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "registration rejected", "error", err)
			return
		}
		logger.InfoContext(ctx, "identity registered", "user_id", identity.UserID)
	}()

	if _, parseErr := mail.ParseAddress(email); parseErr != nil || !strings.Contains(email, "@") {
		err = ErrInvalidEmail
		return
	}
	if len(password) < MinPasswordLength {
		err = ErrWeakPassword
		return
	}

	hash, err := CreatePasswordHash(password, s.hashParams)
	if err != nil {
		err = fmt.Errorf("identity: hash password: %w", err)
		return
	}

	userID := s.idGenerator()
	err = s.credentials.CreateCredential(ctx, persistence.Credential{
		UserID:       userID,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = ErrEmailTaken
		}
		return
	}

	identity = Identity{UserID: userID, Email: email}
	return
}

// Login checks credentials, opens a session and publishes a sign-in event.
func (s *Service) Login(ctx context.Context, email, password string) (identity Identity, token Token, err error) {
	email = normalizeEmail(email)
	logger := s.loggerWith(ctx, "Login", "email", email)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "sign-in failed", "error", err)
			return
		}
		logger.InfoContext(ctx, "signed in", "user_id", identity.UserID, "session_id", token.SessionID)
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	cred, err := s.credentials.GetCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}
	if verifyErr := VerifyPassword(cred.PasswordHash, password); verifyErr != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now()
	session := persistence.Session{
		ID:        s.idGenerator(),
		UserID:    cred.UserID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err = s.sessions.CreateSession(ctx, session); err != nil {
		return
	}

	value, err := s.signer.Sign(session.ID, cred.UserID, cred.Email, now, session.ExpiresAt)
	if err != nil {
		return
	}

	identity = Identity{UserID: cred.UserID, Email: cred.Email, SessionID: session.ID}
	token = Token{Value: value, SessionID: session.ID, ExpiresAt: session.ExpiresAt}
	s.hub.Publish(Event{Kind: EventSignedIn, UserID: cred.UserID, SessionID: session.ID, At: now})
	return
}

// Verify resolves a token to the identity holding it.
func (s *Service) Verify(ctx context.Context, raw string) (Identity, error) {
	claims, err := s.signer.Parse(raw)
	if err != nil {
		return Identity{}, err
	}

	session, err := s.sessions.GetSession(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Identity{}, ErrSessionRevoked
		}
		return Identity{}, err
	}
	if session.RevokedAt != nil {
		return Identity{}, ErrSessionRevoked
	}
	if !s.now().Before(session.ExpiresAt) {
		return Identity{}, ErrSessionExpired
	}

	return Identity{UserID: claims.Subject, Email: claims.Email, SessionID: claims.ID}, nil
}

// Logout revokes the session behind token and publishes a sign-out event.
// Expired tokens can still be signed out.
func (s *Service) Logout(ctx context.Context, raw string) (err error) {
	logger := s.loggerWith(ctx, "Logout")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "sign-out failed", "error", err)
		}
	}()

	claims, err := s.signer.Parse(raw)
	if err != nil && !errors.Is(err, ErrSessionExpired) {
		return err
	}

	now := s.now()
	if err = s.sessions.RevokeSession(ctx, claims.ID, now); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrSessionRevoked
		}
		return err
	}

	s.hub.Publish(Event{Kind: EventSignedOut, UserID: claims.Subject, SessionID: claims.ID, At: now})
	logger.InfoContext(ctx, "signed out", "user_id", claims.Subject, "session_id", claims.ID)
	return nil
}

// Subscribe opens a subscription to identity change events.
func (s *Service) Subscribe(buffer int) (<-chan Event, func()) {
	return s.hub.Subscribe(buffer)
}

// PurgeExpiredSessions deletes sessions past their expiry.
func (s *Service) PurgeExpiredSessions(ctx context.Context) error {
	return s.sessions.DeleteExpiredSessions(ctx, s.now())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
