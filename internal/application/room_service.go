package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/example/roombooking/internal/persistence"
)

// RoomRepository captures the persistence operations needed by the service.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	UpdateRoom(ctx context.Context, room Room) error
	DeleteRoom(ctx context.Context, id string) error
	ListRooms(ctx context.Context) ([]Room, error)
}

// BookingPurger removes every booking of a room and reports how many were deleted.
type BookingPurger interface {
	DeleteAllForRoom(ctx context.Context, roomID string) (int, error)
}

// Cascade outcomes reported to a CascadeObserver.
const (
	CascadeCompleted        = "completed"
	CascadeBatchFailed      = "batch_failed"
	CascadeRoomDeleteFailed = "room_delete_failed"
)

// CascadeObserver is notified once per room delete with its outcome.
type CascadeObserver interface {
	ObserveCascade(outcome string)
}

// RoomService orchestrates validation, authorization, and persistence for rooms.
type RoomService struct {
	rooms       RoomRepository
	bookings    BookingPurger
	observer    CascadeObserver
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomRepository, bookings BookingPurger, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, bookings, idGenerator, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomRepository, bookings BookingPurger, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, bookings: bookings, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// WithCascadeObserver registers an observer for room delete outcomes.
func (s *RoomService) WithCascadeObserver(observer CascadeObserver) *RoomService {
	if s != nil {
		s.observer = observer
	}
	return s
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom validates input and persists a new room for administrators.
// The update time starts out equal to the creation time.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if s == nil {
		return Room{}, fmt.Errorf("RoomService is nil")
	}

	logger := s.loggerWith(ctx, "CreateRoom", "principal_id", params.Principal.UserID)
	defer func() { s.logOutcome(ctx, logger, err, "room created", "room_id", room.ID) }()

	if !params.Principal.IsAdmin {
		return Room{}, ErrUnauthorized
	}
	if vErr := validateRoomInput(params.Input); vErr.HasErrors() {
		return Room{}, vErr
	}

	created := s.now()
	candidate := applyRoomInput(Room{ID: s.idGenerator(), CreatedAt: created}, params.Input, created)
	if s.rooms != nil {
		if err := s.rooms.CreateRoom(ctx, candidate); err != nil {
			return Room{}, mapRepoError(err)
		}
	}
	return candidate, nil
}

// UpdateRoom replaces name and description of an existing room.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room Room, err error) {
	if s == nil {
		return Room{}, fmt.Errorf("RoomService is nil")
	}
	logger := s.loggerWith(ctx, "UpdateRoom", "principal_id", params.Principal.UserID, "room_id", params.RoomID)
	defer func() { s.logOutcome(ctx, logger, err, "room updated") }()

	if !params.Principal.IsAdmin {
		return Room{}, ErrUnauthorized
	}
	if s.rooms == nil {
		return Room{}, fmt.Errorf("room repository not configured")
	}

	existing, err := s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		return Room{}, mapRepoError(err)
	}
	if vErr := validateRoomInput(params.Input); vErr.HasErrors() {
		return Room{}, vErr
	}

	updated := applyRoomInput(existing, params.Input, s.now())
	if err := s.rooms.UpdateRoom(ctx, updated); err != nil {
		return Room{}, mapRepoError(err)
	}
	return updated, nil
}

func (s *RoomService) logOutcome(ctx context.Context, logger *slog.Logger, err error, msg string, attrs ...any) {
	if err != nil {
		logger.ErrorContext(ctx, "room operation failed", "error", err, "error_kind", ErrorKind(err))
		return
	}
	logger.InfoContext(ctx, msg, attrs...)
}

func applyRoomInput(room Room, input RoomInput, at time.Time) Room {
	room.Name = strings.TrimSpace(input.Name)
	room.Description = strings.TrimSpace(input.Description)
	room.UpdatedAt = &at
	return room
}

// GetRoom returns a single room.
func (s *RoomService) GetRoom(ctx context.Context, principal Principal, roomID string) (Room, error) {
	if s == nil {
		return Room{}, fmt.Errorf("RoomService is nil")
	}
	if s.rooms == nil {
		return Room{}, ErrNotFound
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "GetRoom", "principal_id", principal.UserID, "room_id", roomID).
			WarnContext(ctx, "failed to load room", "error", err, "error_kind", ErrorKind(err))
		return Room{}, err
	}
	return room, nil
}

// DeleteRoom removes a room and, before it, every booking of the room.
//
// The bookings are deleted as one concurrent batch. When any of those deletes
// fails the room is kept and a *BatchDeleteError is returned. When the batch
// succeeds but the room delete fails, a *CascadeError is returned and the
// deleted bookings stay deleted.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, roomID string) (err error) {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if s.rooms == nil {
		return fmt.Errorf("room repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)

	outcome := CascadeCompleted
	defer func() {
		if s.observer != nil {
			s.observer.ObserveCascade(outcome)
		}
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err), "outcome", outcome)
			return
		}
		logger.InfoContext(ctx, "room deleted", "outcome", outcome)
	}()

	deleted := 0
	if s.bookings != nil {
		deleted, err = s.bookings.DeleteAllForRoom(ctx, roomID)
		if err != nil {
			outcome = CascadeBatchFailed
			return err
		}
		logger.InfoContext(ctx, "room bookings deleted", "deleted_count", deleted)
	}

	if err = s.rooms.DeleteRoom(ctx, roomID); err != nil {
		err = mapRepoError(err)
		outcome = CascadeRoomDeleteFailed
		if deleted > 0 {
			err = &CascadeError{RoomID: roomID, DeletedBookings: deleted, Err: err}
		}
		return err
	}
	return nil
}

// ListRooms returns every room ordered by name, case-insensitively.
func (s *RoomService) ListRooms(ctx context.Context, principal Principal) ([]Room, error) {
	if s == nil {
		return nil, fmt.Errorf("RoomService is nil")
	}
	if s.rooms == nil {
		return nil, nil
	}

	raw, err := s.rooms.ListRooms(ctx)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "ListRooms", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	rooms := slices.Clone(raw)
	slices.SortFunc(rooms, func(a, b Room) int { return compareByName(a.Name, a.ID, b.Name, b.ID) })
	return rooms, nil
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		vErr.add("description", "description is required")
	}

	return vErr
}

// mapRepoError translates store errors into service errors. Anything other
// than a known sentinel becomes ErrOperationFailed.
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) || errors.Is(err, ErrAlreadyExists) {
		return ErrAlreadyExists
	}
	if errors.Is(err, ErrOperationFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrOperationFailed, err)
}
