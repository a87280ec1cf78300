package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

func TestCredentialRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCredentialRepository(setupTestDB(t))
	created := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

	if err := repo.CreateCredential(ctx, persistence.Credential{UserID: "u1", Email: "Alice@Example.com ", PasswordHash: "hash", CreatedAt: created}); err != nil {
		t.Fatalf("CreateCredential returned error: %v", err)
	}

	t.Run("looks up by normalized email", func(t *testing.T) {
		cred, err := repo.GetCredentialByEmail(ctx, "ALICE@example.com")
		if err != nil {
			t.Fatalf("GetCredentialByEmail returned error: %v", err)
		}
		if cred.UserID != "u1" || cred.Email != "alice@example.com" {
			t.Fatalf("unexpected credential: %+v", cred)
		}
	})

	t.Run("rejects duplicate emails", func(t *testing.T) {
		err := repo.CreateCredential(ctx, persistence.Credential{UserID: "u2", Email: "alice@example.com", PasswordHash: "hash", CreatedAt: created})
		if !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("reports unknown emails", func(t *testing.T) {
		if _, err := repo.GetCredentialByEmail(ctx, "bob@example.com"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	created := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

	if err := NewCredentialRepository(db).CreateCredential(ctx, persistence.Credential{UserID: "u1", Email: "a@example.com", PasswordHash: "hash", CreatedAt: created}); err != nil {
		t.Fatalf("CreateCredential returned error: %v", err)
	}
	repo := NewSessionRepository(db)

	session := persistence.Session{ID: "s1", UserID: "u1", CreatedAt: created, ExpiresAt: created.Add(time.Hour)}
	if err := repo.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}

	t.Run("revokes once", func(t *testing.T) {
		first := created.Add(time.Minute)
		if err := repo.RevokeSession(ctx, "s1", first); err != nil {
			t.Fatalf("RevokeSession returned error: %v", err)
		}
		if err := repo.RevokeSession(ctx, "s1", first.Add(time.Minute)); err != nil {
			t.Fatalf("second RevokeSession returned error: %v", err)
		}
		stored, err := repo.GetSession(ctx, "s1")
		if err != nil {
			t.Fatalf("GetSession returned error: %v", err)
		}
		if stored.RevokedAt == nil || !stored.RevokedAt.Equal(first) {
			t.Fatalf("expected revoked at %v, got %v", first, stored.RevokedAt)
		}
		if !stored.ExpiresAt.Equal(session.ExpiresAt) {
			t.Fatalf("expected expiry %v, got %v", session.ExpiresAt, stored.ExpiresAt)
		}
	})

	t.Run("revoking unknown sessions fails", func(t *testing.T) {
		if err := repo.RevokeSession(ctx, "missing", created); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("deletes expired sessions", func(t *testing.T) {
		if err := repo.DeleteExpiredSessions(ctx, created.Add(2*time.Hour)); err != nil {
			t.Fatalf("DeleteExpiredSessions returned error: %v", err)
		}
		if _, err := repo.GetSession(ctx, "s1"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected expired session to be gone, got %v", err)
		}
	})
}
