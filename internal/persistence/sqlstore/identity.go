package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

type credentialRow struct {
	UserID       string `db:"user_id"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
}

type sessionRow struct {
	ID        string  `db:"id"`
	UserID    string  `db:"user_id"`
	CreatedAt string  `db:"created_at"`
	ExpiresAt string  `db:"expires_at"`
	RevokedAt *string `db:"revoked_at"`
}

// CredentialRepository implements persistence.CredentialRepository.
type CredentialRepository struct {
	db *DB
}

// NewCredentialRepository creates a credential repository on an open database.
func NewCredentialRepository(db *DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// CreateCredential stores login material for a new identity.
func (r *CredentialRepository) CreateCredential(ctx context.Context, credential persistence.Credential) error {
	email := strings.ToLower(strings.TrimSpace(credential.Email))
	if credential.UserID == "" || email == "" || credential.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	query := r.db.db.Rebind(`
		INSERT INTO credentials (user_id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`)
	if _, err := r.db.db.ExecContext(ctx, query, credential.UserID, email, credential.PasswordHash, formatTime(credential.CreatedAt)); err != nil {
		return mapError(err)
	}
	return nil
}

// GetCredentialByEmail looks up credentials case-insensitively.
func (r *CredentialRepository) GetCredentialByEmail(ctx context.Context, email string) (persistence.Credential, error) {
	query := r.db.db.Rebind(`
		SELECT user_id, email, password_hash, created_at
		FROM credentials
		WHERE email = ?
	`)

	var row credentialRow
	if err := r.db.db.GetContext(ctx, &row, query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return persistence.Credential{}, mapError(err)
	}
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return persistence.Credential{}, fmt.Errorf("sqlstore: parse created_at: %w", err)
	}
	return persistence.Credential{
		UserID:       row.UserID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    created,
	}, nil
}

// SessionRepository implements persistence.SessionRepository.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a session repository on an open database.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession stores a newly issued session.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) error {
	if session.ID == "" || session.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	query := r.db.db.Rebind(`
		INSERT INTO sessions (id, user_id, created_at, expires_at, revoked_at)
		VALUES (?, ?, ?, ?, NULL)
	`)
	if _, err := r.db.db.ExecContext(ctx, query, session.ID, session.UserID, formatTime(session.CreatedAt), formatTime(session.ExpiresAt)); err != nil {
		return mapError(err)
	}
	return nil
}

// GetSession retrieves a session by id.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	query := r.db.db.Rebind(`
		SELECT id, user_id, created_at, expires_at, revoked_at
		FROM sessions
		WHERE id = ?
	`)

	var row sessionRow
	if err := r.db.db.GetContext(ctx, &row, query, id); err != nil {
		return persistence.Session{}, mapError(err)
	}

	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return persistence.Session{}, fmt.Errorf("sqlstore: parse created_at: %w", err)
	}
	expires, err := parseTime(row.ExpiresAt)
	if err != nil {
		return persistence.Session{}, fmt.Errorf("sqlstore: parse expires_at: %w", err)
	}
	revoked, err := parseTimePtr(row.RevokedAt)
	if err != nil {
		return persistence.Session{}, fmt.Errorf("sqlstore: parse revoked_at: %w", err)
	}

	return persistence.Session{
		ID:        row.ID,
		UserID:    row.UserID,
		CreatedAt: created,
		ExpiresAt: expires,
		RevokedAt: revoked,
	}, nil
}

// RevokeSession marks a session as revoked. Revoking twice keeps the first
// revocation time.
func (r *SessionRepository) RevokeSession(ctx context.Context, id string, revokedAt time.Time) error {
	query := r.db.db.Rebind(`
		UPDATE sessions SET revoked_at = COALESCE(revoked_at, ?) WHERE id = ?
	`)
	result, err := r.db.db.ExecContext(ctx, query, formatTime(revokedAt), id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired before reference.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	query := r.db.db.Rebind(`DELETE FROM sessions WHERE expires_at < ?`)
	if _, err := r.db.db.ExecContext(ctx, query, formatTime(reference)); err != nil {
		return mapError(err)
	}
	return nil
}
