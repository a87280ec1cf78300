package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// BookingRepository captures the persistence operations needed by the booking service.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) error
	UpdateBooking(ctx context.Context, id string, changes BookingChanges) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookingsForRoom(ctx context.Context, roomID string) ([]Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

// RoomLookup resolves the room a booking belongs to.
type RoomLookup interface {
	GetRoom(ctx context.Context, id string) (Room, error)
}

// UserDirectory resolves profiles for participants and booking authors.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// BookingService orchestrates validation, authorization, and persistence for bookings.
type BookingService struct {
	bookings    BookingRepository
	rooms       RoomLookup
	users       UserDirectory
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService constructs a booking service with the provided dependencies.
func NewBookingService(bookings BookingRepository, rooms RoomLookup, users UserDirectory, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, rooms, users, idGenerator, now, nil)
}

// NewBookingServiceWithLogger constructs a booking service with a specified logger.
func NewBookingServiceWithLogger(bookings BookingRepository, rooms RoomLookup, users UserDirectory, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		rooms:       rooms,
		users:       users,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// GetBooking returns a single booking.
func (s *BookingService) GetBooking(ctx context.Context, principal Principal, bookingID string) (Booking, error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "GetBooking", "principal_id", principal.UserID, "booking_id", bookingID).
			WarnContext(ctx, "failed to load booking", "error", err, "error_kind", ErrorKind(err))
		return Booking{}, err
	}
	return booking, nil
}

// ListBookingsForRoom returns the bookings of a room ordered by start time.
// Bookings starting at the same instant are ordered by id.
func (s *BookingService) ListBookingsForRoom(ctx context.Context, principal Principal, roomID string) (bookings []Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListBookingsForRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(bookings)).DebugContext(ctx, "bookings listed")
	}()

	var raw []Booking
	raw, err = s.bookings.ListBookingsForRoom(ctx, roomID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	bookings = make([]Booking, len(raw))
	copy(bookings, raw)
	sortBookings(bookings)
	return
}

// CreateBooking validates the candidate and books the room for the principal.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateBooking",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID, "participant_count", len(booking.Participants)).InfoContext(ctx, "booking created")
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthenticated
		return
	}

	var room Room
	room, err = s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	actor, directory, err := s.resolveDirectory(ctx, params.Principal.UserID)
	if err != nil {
		return
	}

	var validated ValidatedBooking
	validated, err = ValidateBooking(BookingCandidate{
		Start:          params.Input.StartTime,
		End:            params.Input.EndTime,
		Description:    params.Input.Description,
		ParticipantIDs: params.Input.ParticipantIDs,
		Actor:          actor,
	}, directory, s.now())
	if err != nil {
		return
	}

	candidate := Booking{
		ID:               s.idGenerator(),
		RoomID:           room.ID,
		RoomName:         room.Name,
		BookedByUserID:   actor.ID,
		BookedByUserName: DisplayName(actor),
		StartTime:        validated.Start,
		EndTime:          validated.End,
		Description:      validated.Description,
		Participants:     validated.Participants,
		CreatedAt:        s.now(),
	}

	if err = s.bookings.CreateBooking(ctx, candidate); err != nil {
		err = mapRepoError(err)
		return
	}

	booking = candidate
	return
}

// UpdateBooking lets the author change times, description and participants.
// Room and author stay as they were created.
func (s *BookingService) UpdateBooking(ctx context.Context, params UpdateBookingParams) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateBooking",
		"principal_id", params.Principal.UserID,
		"booking_id", params.BookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking updated")
	}()

	var existing Booking
	existing, err = s.bookings.GetBooking(ctx, params.BookingID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if existing.BookedByUserID != params.Principal.UserID {
		err = ErrUnauthorized
		return
	}

	actor, directory, err := s.resolveDirectory(ctx, params.Principal.UserID)
	if err != nil {
		return
	}

	originalEnd := existing.EndTime
	var validated ValidatedBooking
	validated, err = ValidateBooking(BookingCandidate{
		Start:          params.Input.StartTime,
		End:            params.Input.EndTime,
		Description:    params.Input.Description,
		ParticipantIDs: params.Input.ParticipantIDs,
		Actor:          actor,
		OriginalEnd:    &originalEnd,
	}, directory, s.now())
	if err != nil {
		return
	}

	changes := BookingChanges{
		StartTime:    validated.Start,
		EndTime:      validated.End,
		Description:  validated.Description,
		Participants: validated.Participants,
		UpdatedAt:    s.now(),
	}
	if err = s.bookings.UpdateBooking(ctx, existing.ID, changes); err != nil {
		err = mapRepoError(err)
		return
	}

	booking = existing
	booking.StartTime = changes.StartTime
	booking.EndTime = changes.EndTime
	booking.Description = changes.Description
	booking.Participants = changes.Participants
	booking.UpdatedAt = &changes.UpdatedAt
	return
}

// DeleteBooking removes a booking on behalf of its author or an administrator.
func (s *BookingService) DeleteBooking(ctx context.Context, principal Principal, bookingID string) (err error) {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteBooking",
		"principal_id", principal.UserID,
		"booking_id", bookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking deleted")
	}()

	existing, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return mapRepoError(err)
	}
	if !principal.IsAdmin && existing.BookedByUserID != principal.UserID {
		return ErrUnauthorized
	}
	if err = s.bookings.DeleteBooking(ctx, bookingID); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// DeleteAllForRoom deletes every booking of a room concurrently and waits for
// all of them. A failing delete does not cancel the others; the first failure
// is reported in a *BatchDeleteError and nothing is rolled back.
func (s *BookingService) DeleteAllForRoom(ctx context.Context, roomID string) (deleted int, err error) {
	if s == nil {
		return 0, fmt.Errorf("BookingService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteAllForRoom", "room_id", roomID)

	bookings, err := s.bookings.ListBookingsForRoom(ctx, roomID)
	if err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to list bookings for cascade", "error", err, "error_kind", ErrorKind(err))
		return 0, err
	}

	var (
		g      errgroup.Group
		failed atomic.Int64
		mu     sync.Mutex
		first  error
	)
	for _, booking := range bookings {
		id := booking.ID
		g.Go(func() error {
			if delErr := s.bookings.DeleteBooking(ctx, id); delErr != nil {
				failed.Add(1)
				logger.WarnContext(ctx, "booking delete failed", "booking_id", id, "error", delErr)
				mu.Lock()
				if first == nil {
					first = delErr
				}
				mu.Unlock()
				return delErr
			}
			return nil
		})
	}
	_ = g.Wait()

	total := len(bookings)
	failures := int(failed.Load())
	if failures > 0 {
		err = &BatchDeleteError{RoomID: roomID, Total: total, Failed: failures, Err: mapRepoError(first)}
		logger.ErrorContext(ctx, "booking batch delete incomplete", "error", err, "error_kind", ErrorKind(err))
		return total - failures, err
	}

	logger.InfoContext(ctx, "booking batch deleted", "deleted_count", total)
	return total, nil
}

// resolveDirectory loads the acting user's profile and the participant
// directory. A missing profile yields a bare user carrying only the id.
func (s *BookingService) resolveDirectory(ctx context.Context, userID string) (User, []User, error) {
	if s.users == nil {
		return User{ID: userID}, nil, nil
	}

	actor, err := s.users.GetUser(ctx, userID)
	if err != nil {
		mapped := mapRepoError(err)
		if mapped != ErrNotFound {
			return User{}, nil, mapped
		}
		actor = User{ID: userID}
	}

	directory, err := s.users.ListUsers(ctx)
	if err != nil {
		return User{}, nil, mapRepoError(err)
	}
	return actor, directory, nil
}

func sortBookings(bookings []Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		if bookings[i].StartTime.Equal(bookings[j].StartTime) {
			return bookings[i].ID < bookings[j].ID
		}
		return bookings[i].StartTime.Before(bookings[j].StartTime)
	})
}
