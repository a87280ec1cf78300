package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

var bookingTestNow = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

func bookingNow() time.Time { return bookingTestNow }

func newBookingFixture(existing ...Booking) (*BookingService, *bookingRepoStub, *userRepoStub) {
	bookings := newBookingRepoStub(existing...)
	rooms := &roomRepoStub{getRoom: Room{ID: "room-1", Name: "Kyiv"}}
	users := newUserRepoStub(
		User{ID: "author", Name: "Olena", Email: "olena@example.com", Role: RoleUser},
		User{ID: "guest", Name: "Taras", Email: "taras@example.com", Role: RoleUser},
		User{ID: "admin", Email: "admin@example.com", Role: RoleAdmin},
	)
	svc := NewBookingService(bookings, rooms, users, func() string { return "booking-new" }, bookingNow)
	return svc, bookings, users
}

func TestBookingService_ListBookingsForRoom(t *testing.T) {
	t.Run("orders by start time regardless of store order", func(t *testing.T) {
		svc, _, _ := newBookingFixture(
			Booking{ID: "B1", RoomID: "room-1", StartTime: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)},
			Booking{ID: "B2", RoomID: "room-1", StartTime: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)},
		)

		got, err := svc.ListBookingsForRoom(context.Background(), Principal{UserID: "author"}, "room-1")
		if err != nil {
			t.Fatalf("ListBookingsForRoom returned error: %v", err)
		}
		if len(got) != 2 || got[0].ID != "B2" || got[1].ID != "B1" {
			t.Fatalf("expected [B2 B1], got %+v", got)
		}
	})

	t.Run("breaks start time ties by id", func(t *testing.T) {
		start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
		svc, _, _ := newBookingFixture(
			Booking{ID: "a", RoomID: "room-1", StartTime: start},
			Booking{ID: "c", RoomID: "room-1", StartTime: start},
			Booking{ID: "b", RoomID: "room-1", StartTime: start},
		)
		got, err := svc.ListBookingsForRoom(context.Background(), Principal{UserID: "author"}, "room-1")
		if err != nil {
			t.Fatalf("ListBookingsForRoom returned error: %v", err)
		}
		if got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
			t.Fatalf("expected id order, got %+v", got)
		}
	})
}

func TestBookingService_CreateBooking(t *testing.T) {
	input := BookingInput{
		StartTime:      bookingTestNow.Add(time.Hour),
		EndTime:        bookingTestNow.Add(2 * time.Hour),
		Description:    " Design review ",
		ParticipantIDs: []string{"guest"},
	}

	t.Run("denormalizes room and author and includes the author", func(t *testing.T) {
		svc, bookings, _ := newBookingFixture()

		booking, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "author"},
			RoomID:    "room-1",
			Input:     input,
		})
		if err != nil {
			t.Fatalf("CreateBooking returned error: %v", err)
		}
		if booking.RoomName != "Kyiv" || booking.BookedByUserName != "Olena" {
			t.Fatalf("expected denormalized names, got %+v", booking)
		}
		if booking.Description != "Design review" {
			t.Fatalf("expected trimmed description, got %q", booking.Description)
		}
		if len(booking.Participants) != 2 || booking.Participants[1].ID != "author" {
			t.Fatalf("expected guest then author, got %+v", booking.Participants)
		}
		if !booking.CreatedAt.Equal(bookingTestNow) || booking.UpdatedAt != nil {
			t.Fatalf("expected creation stamp only, got %+v", booking)
		}
		if bookings.created.ID != "booking-new" {
			t.Fatalf("expected booking to be persisted, got %+v", bookings.created)
		}
	})

	t.Run("falls back to email for authors without a name", func(t *testing.T) {
		svc, _, _ := newBookingFixture()
		booking, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "admin", IsAdmin: true},
			RoomID:    "room-1",
			Input:     input,
		})
		if err != nil {
			t.Fatalf("CreateBooking returned error: %v", err)
		}
		if booking.BookedByUserName != "admin@example.com" {
			t.Fatalf("expected email fallback, got %q", booking.BookedByUserName)
		}
	})

	t.Run("uses the placeholder for authors without a profile", func(t *testing.T) {
		svc, _, _ := newBookingFixture()
		booking, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "ghost"},
			RoomID:    "room-1",
			Input:     input,
		})
		if err != nil {
			t.Fatalf("CreateBooking returned error: %v", err)
		}
		if booking.BookedByUserName != UnknownUserName {
			t.Fatalf("expected placeholder name, got %q", booking.BookedByUserName)
		}
	})

	t.Run("rejects unknown rooms", func(t *testing.T) {
		svc, _, _ := newBookingFixture()
		_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "author"},
			RoomID:    "missing",
			Input:     input,
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("surfaces validator rejections", func(t *testing.T) {
		svc, _, _ := newBookingFixture()
		bad := input
		bad.StartTime = time.Date(2024, 6, 4, 14, 0, 0, 0, time.UTC)
		bad.EndTime = time.Date(2024, 6, 4, 13, 0, 0, 0, time.UTC)
		_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "author"},
			RoomID:    "room-1",
			Input:     bad,
		})
		var rejection *BookingRejection
		if !errors.As(err, &rejection) || rejection.Reason != ReasonInvalidOrder {
			t.Fatalf("expected invalid order rejection, got %v", err)
		}
	})

	t.Run("requires an authenticated principal", func(t *testing.T) {
		svc, _, _ := newBookingFixture()
		_, err := svc.CreateBooking(context.Background(), CreateBookingParams{RoomID: "room-1", Input: input})
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestBookingService_UpdateBooking(t *testing.T) {
	pastEnd := bookingTestNow.Add(-time.Hour)
	existing := Booking{
		ID:               "b1",
		RoomID:           "room-1",
		RoomName:         "Kyiv",
		BookedByUserID:   "author",
		BookedByUserName: "Olena",
		StartTime:        bookingTestNow.Add(-2 * time.Hour),
		EndTime:          pastEnd,
		Description:      "Retro",
		Participants:     []Participant{{ID: "author", Name: "Olena"}},
		CreatedAt:        bookingTestNow.Add(-48 * time.Hour),
	}

	t.Run("allows edits that keep a past end time", func(t *testing.T) {
		svc, bookings, _ := newBookingFixture(existing)

		updated, err := svc.UpdateBooking(context.Background(), UpdateBookingParams{
			Principal: Principal{UserID: "author"},
			BookingID: "b1",
			Input: BookingInput{
				StartTime:      existing.StartTime,
				EndTime:        pastEnd,
				Description:    "Retro notes",
				ParticipantIDs: []string{"guest"},
			},
		})
		if err != nil {
			t.Fatalf("UpdateBooking returned error: %v", err)
		}
		if updated.Description != "Retro notes" || updated.UpdatedAt == nil || !updated.UpdatedAt.Equal(bookingTestNow) {
			t.Fatalf("expected description and update stamp, got %+v", updated)
		}
		if updated.RoomID != "room-1" || updated.BookedByUserID != "author" {
			t.Fatalf("expected room and author to be unchanged, got %+v", updated)
		}
		if len(bookings.changes.Participants) != 2 {
			t.Fatalf("expected guest and author, got %+v", bookings.changes.Participants)
		}
	})

	t.Run("rejects moving the end into another past time", func(t *testing.T) {
		svc, _, _ := newBookingFixture(existing)
		_, err := svc.UpdateBooking(context.Background(), UpdateBookingParams{
			Principal: Principal{UserID: "author"},
			BookingID: "b1",
			Input: BookingInput{
				StartTime:      existing.StartTime,
				EndTime:        pastEnd.Add(30 * time.Minute),
				Description:    "Retro",
				ParticipantIDs: []string{"author"},
			},
		})
		var rejection *BookingRejection
		if !errors.As(err, &rejection) || rejection.Reason != ReasonEndInPast {
			t.Fatalf("expected end time rejection, got %v", err)
		}
	})

	t.Run("only the author may edit", func(t *testing.T) {
		svc, _, _ := newBookingFixture(existing)
		_, err := svc.UpdateBooking(context.Background(), UpdateBookingParams{
			Principal: Principal{UserID: "admin", IsAdmin: true},
			BookingID: "b1",
			Input:     BookingInput{Description: "x"},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestBookingService_DeleteBooking(t *testing.T) {
	existing := Booking{ID: "b1", RoomID: "room-1", BookedByUserID: "author"}

	t.Run("author may delete", func(t *testing.T) {
		svc, bookings, _ := newBookingFixture(existing)
		if err := svc.DeleteBooking(context.Background(), Principal{UserID: "author"}, "b1"); err != nil {
			t.Fatalf("DeleteBooking returned error: %v", err)
		}
		if bookings.remaining() != 0 {
			t.Fatalf("expected booking to be removed")
		}
	})

	t.Run("admin may delete", func(t *testing.T) {
		svc, _, _ := newBookingFixture(existing)
		if err := svc.DeleteBooking(context.Background(), Principal{UserID: "admin", IsAdmin: true}, "b1"); err != nil {
			t.Fatalf("DeleteBooking returned error: %v", err)
		}
	})

	t.Run("others may not", func(t *testing.T) {
		svc, _, _ := newBookingFixture(existing)
		if err := svc.DeleteBooking(context.Background(), Principal{UserID: "guest"}, "b1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestBookingService_DeleteAllForRoom(t *testing.T) {
	t.Run("counts failures without stopping other deletes", func(t *testing.T) {
		svc, bookings, _ := newBookingFixture(
			Booking{ID: "b1", RoomID: "room-1"},
			Booking{ID: "b2", RoomID: "room-1"},
			Booking{ID: "b3", RoomID: "room-1"},
			Booking{ID: "b4", RoomID: "room-1"},
		)
		bookings.deleteErrs["b1"] = errors.New("boom")
		bookings.deleteErrs["b3"] = errors.New("boom")

		deleted, err := svc.DeleteAllForRoom(context.Background(), "room-1")

		var batchErr *BatchDeleteError
		if !errors.As(err, &batchErr) {
			t.Fatalf("expected BatchDeleteError, got %v", err)
		}
		if batchErr.Total != 4 || batchErr.Failed != 2 || deleted != 2 {
			t.Fatalf("unexpected batch result deleted=%d err=%+v", deleted, batchErr)
		}
		if bookings.remaining() != 2 {
			t.Fatalf("expected failed bookings to remain, got %d", bookings.remaining())
		}
	})

	t.Run("propagates listing failures", func(t *testing.T) {
		svc, bookings, _ := newBookingFixture()
		bookings.listErr = errors.New("offline")
		if _, err := svc.DeleteAllForRoom(context.Background(), "room-1"); !errors.Is(err, ErrOperationFailed) {
			t.Fatalf("expected ErrOperationFailed, got %v", err)
		}
	})
}
