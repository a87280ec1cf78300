package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

func TestRepository_Rooms(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

	repo := NewRepository(NewMemoryStore())
	room := persistence.Room{ID: "room-1", Name: "Blue", Description: "Projector", CreatedAt: created}
	if err := repo.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom returned error: %v", err)
	}

	updatedAt := created.Add(time.Hour)
	room.Name = "Blue Room"
	room.UpdatedAt = &updatedAt
	if err := repo.UpdateRoom(ctx, room); err != nil {
		t.Fatalf("UpdateRoom returned error: %v", err)
	}

	fetched, err := repo.GetRoom(ctx, "room-1")
	if err != nil {
		t.Fatalf("GetRoom returned error: %v", err)
	}
	if fetched.Name != "Blue Room" || fetched.Description != "Projector" {
		t.Fatalf("unexpected room: %+v", fetched)
	}
	if !fetched.CreatedAt.Equal(created) {
		t.Fatalf("expected created timestamp to survive update, got %v", fetched.CreatedAt)
	}
	if fetched.UpdatedAt == nil || !fetched.UpdatedAt.Equal(updatedAt) {
		t.Fatalf("expected updated timestamp %v, got %v", updatedAt, fetched.UpdatedAt)
	}

	if err := repo.DeleteRoom(ctx, "room-1"); err != nil {
		t.Fatalf("DeleteRoom returned error: %v", err)
	}
	if _, err := repo.GetRoom(ctx, "room-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRepository_CreateRoomKeepsUpdateTime(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.FixedZone("EET", 2*60*60))

	repo := NewRepository(NewMemoryStore())
	if err := repo.CreateRoom(ctx, persistence.Room{ID: "room-1", Name: "Blue", Description: "Projector", CreatedAt: created, UpdatedAt: &created}); err != nil {
		t.Fatalf("CreateRoom returned error: %v", err)
	}

	fetched, err := repo.GetRoom(ctx, "room-1")
	if err != nil {
		t.Fatalf("GetRoom returned error: %v", err)
	}
	if fetched.UpdatedAt == nil || !fetched.UpdatedAt.Equal(created) {
		t.Fatalf("expected update time %v after reload, got %v", created, fetched.UpdatedAt)
	}
	if fetched.UpdatedAt.Location() != time.UTC {
		t.Fatalf("expected update time stored in UTC, got %v", fetched.UpdatedAt.Location())
	}
}

func TestRepository_Bookings(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

	repo := NewRepository(NewMemoryStore())
	booking := persistence.Booking{
		ID:               "booking-1",
		RoomID:           "room-1",
		RoomName:         "Blue",
		BookedByUserID:   "user-1",
		BookedByUserName: "Alice",
		StartTime:        base.Add(time.Hour),
		EndTime:          base.Add(2 * time.Hour),
		Description:      "Standup",
		Participants:     []persistence.Participant{{ID: "user-1", Name: "Alice", Email: "alice@example.com"}},
		CreatedAt:        base,
	}
	if err := repo.CreateBooking(ctx, booking); err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}
	other := booking
	other.ID = "booking-2"
	other.RoomID = "room-2"
	if err := repo.CreateBooking(ctx, other); err != nil {
		t.Fatalf("CreateBooking returned error: %v", err)
	}

	t.Run("update leaves room and author untouched", func(t *testing.T) {
		changes := persistence.BookingChanges{
			StartTime:    base.Add(3 * time.Hour),
			EndTime:      base.Add(4 * time.Hour),
			Description:  "Retro",
			Participants: []persistence.Participant{{ID: "user-2", Name: "Bob"}, {ID: "user-1", Name: "Alice"}},
			UpdatedAt:    base.Add(time.Minute),
		}
		if err := repo.UpdateBooking(ctx, "booking-1", changes); err != nil {
			t.Fatalf("UpdateBooking returned error: %v", err)
		}
		fetched, err := repo.GetBooking(ctx, "booking-1")
		if err != nil {
			t.Fatalf("GetBooking returned error: %v", err)
		}
		if fetched.RoomID != "room-1" || fetched.BookedByUserID != "user-1" {
			t.Fatalf("room or author changed: %+v", fetched)
		}
		if fetched.Description != "Retro" || len(fetched.Participants) != 2 || fetched.Participants[0].ID != "user-2" {
			t.Fatalf("unexpected booking after update: %+v", fetched)
		}
		if fetched.UpdatedAt == nil {
			t.Fatalf("expected updatedAt to be stamped")
		}
	})

	t.Run("lists bookings of a single room", func(t *testing.T) {
		bookings, err := repo.ListBookingsForRoom(ctx, "room-1")
		if err != nil {
			t.Fatalf("ListBookingsForRoom returned error: %v", err)
		}
		if len(bookings) != 1 || bookings[0].ID != "booking-1" {
			t.Fatalf("unexpected bookings: %+v", bookings)
		}
	})

	t.Run("rejects bookings without room", func(t *testing.T) {
		invalid := booking
		invalid.ID = "booking-3"
		invalid.RoomID = ""
		if err := repo.CreateBooking(ctx, invalid); !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation, got %v", err)
		}
	})
}

func TestRepository_Users(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(NewMemoryStore())

	if err := repo.CreateUser(ctx, persistence.User{ID: "u1", Email: "a@example.com", Name: "Ann", Role: "admin"}); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if err := repo.CreateUser(ctx, persistence.User{ID: "u1", Email: "b@example.com"}); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for second profile, got %v", err)
	}

	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if len(users) != 1 || users[0].Role != "admin" {
		t.Fatalf("unexpected users: %+v", users)
	}
}
