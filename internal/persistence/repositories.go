package persistence

import (
	"context"
	"time"
)

// DocumentStore is the schemaless store behind the users, rooms and bookings
// collections.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	List(ctx context.Context, collection string, filter *Filter) ([]Document, error)
	// Create stores a new document. An empty id asks the store to assign one.
	Create(ctx context.Context, collection, id string, data []byte, at time.Time) (string, error)
	// Update merges the top level fields of partial into the stored document.
	Update(ctx context.Context, collection, id string, partial []byte, at time.Time) error
	Delete(ctx context.Context, collection, id string) error
}

// UserRepository stores user profiles.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// BookingRepository exposes CRUD operations for bookings.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) error
	UpdateBooking(ctx context.Context, id string, changes BookingChanges) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookingsForRoom(ctx context.Context, roomID string) ([]Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

// CredentialRepository stores identity credentials.
type CredentialRepository interface {
	CreateCredential(ctx context.Context, credential Credential) error
	GetCredentialByEmail(ctx context.Context, email string) (Credential, error)
}

// SessionRepository stores sign-in sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	RevokeSession(ctx context.Context, id string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
