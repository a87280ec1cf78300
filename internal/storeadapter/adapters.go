// Package storeadapter exposes the persistence repositories through the
// application repository interfaces.
package storeadapter

import (
	"context"
	"time"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/persistence"
	"github.com/example/roombooking/internal/persistence/rediscache"
)

// UserRepository adapts a persistence.UserRepository.
type UserRepository struct {
	repo persistence.UserRepository
}

func NewUserRepository(repo persistence.UserRepository) *UserRepository {
	return &UserRepository{repo: repo}
}

func (a *UserRepository) CreateUser(ctx context.Context, user application.User) error {
	return a.repo.CreateUser(ctx, ToPersistenceUser(user))
}

func (a *UserRepository) GetUser(ctx context.Context, id string) (application.User, error) {
	user, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return ToApplicationUser(user), nil
}

func (a *UserRepository) ListUsers(ctx context.Context) ([]application.User, error) {
	users, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]application.User, 0, len(users))
	for _, user := range users {
		result = append(result, ToApplicationUser(user))
	}
	return result, nil
}

// RoomRepository adapts a persistence.RoomRepository.
type RoomRepository struct {
	repo persistence.RoomRepository
}

func NewRoomRepository(repo persistence.RoomRepository) *RoomRepository {
	return &RoomRepository{repo: repo}
}

func (a *RoomRepository) CreateRoom(ctx context.Context, room application.Room) error {
	return a.repo.CreateRoom(ctx, ToPersistenceRoom(room))
}

func (a *RoomRepository) UpdateRoom(ctx context.Context, room application.Room) error {
	return a.repo.UpdateRoom(ctx, ToPersistenceRoom(room))
}

func (a *RoomRepository) GetRoom(ctx context.Context, id string) (application.Room, error) {
	room, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return ToApplicationRoom(room), nil
}

func (a *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	return a.repo.DeleteRoom(ctx, id)
}

func (a *RoomRepository) ListRooms(ctx context.Context) ([]application.Room, error) {
	rooms, err := a.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]application.Room, 0, len(rooms))
	for _, room := range rooms {
		result = append(result, ToApplicationRoom(room))
	}
	return result, nil
}

// BookingRepository adapts a persistence.BookingRepository.
type BookingRepository struct {
	repo persistence.BookingRepository
}

func NewBookingRepository(repo persistence.BookingRepository) *BookingRepository {
	return &BookingRepository{repo: repo}
}

func (a *BookingRepository) CreateBooking(ctx context.Context, booking application.Booking) error {
	return a.repo.CreateBooking(ctx, ToPersistenceBooking(booking))
}

func (a *BookingRepository) UpdateBooking(ctx context.Context, id string, changes application.BookingChanges) error {
	return a.repo.UpdateBooking(ctx, id, persistence.BookingChanges{
		StartTime:    changes.StartTime,
		EndTime:      changes.EndTime,
		Description:  changes.Description,
		Participants: toPersistenceParticipants(changes.Participants),
		UpdatedAt:    changes.UpdatedAt,
	})
}

func (a *BookingRepository) GetBooking(ctx context.Context, id string) (application.Booking, error) {
	booking, err := a.repo.GetBooking(ctx, id)
	if err != nil {
		return application.Booking{}, err
	}
	return ToApplicationBooking(booking), nil
}

func (a *BookingRepository) ListBookingsForRoom(ctx context.Context, roomID string) ([]application.Booking, error) {
	bookings, err := a.repo.ListBookingsForRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	result := make([]application.Booking, 0, len(bookings))
	for _, booking := range bookings {
		result = append(result, ToApplicationBooking(booking))
	}
	return result, nil
}

func (a *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	return a.repo.DeleteBooking(ctx, id)
}

// ProfileCache exposes the Redis profile cache as an application.ProfileCache.
type ProfileCache struct {
	cache *rediscache.ProfileCache
}

func NewProfileCache(cache *rediscache.ProfileCache) *ProfileCache {
	return &ProfileCache{cache: cache}
}

func (a *ProfileCache) Get(ctx context.Context, userID string) (application.User, bool, error) {
	user, ok, err := a.cache.Get(ctx, userID)
	if err != nil || !ok {
		return application.User{}, ok, err
	}
	return ToApplicationUser(user), true, nil
}

func (a *ProfileCache) Set(ctx context.Context, user application.User) error {
	return a.cache.Set(ctx, ToPersistenceUser(user))
}

func (a *ProfileCache) Invalidate(ctx context.Context, userID string) error {
	return a.cache.Invalidate(ctx, userID)
}

// ToApplicationUser converts a stored profile.
func ToApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:        model.ID,
		Email:     model.Email,
		Name:      model.Name,
		Role:      model.Role,
		CreatedAt: model.CreatedAt,
	}
}

func ToPersistenceUser(user application.User) persistence.User {
	return persistence.User{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

func ToApplicationRoom(model persistence.Room) application.Room {
	return application.Room{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   cloneTimePtr(model.UpdatedAt),
	}
}

func ToPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.Description,
		CreatedAt:   room.CreatedAt,
		UpdatedAt:   cloneTimePtr(room.UpdatedAt),
	}
}

// ToApplicationBooking converts a stored booking. Participants are never nil.
func ToApplicationBooking(model persistence.Booking) application.Booking {
	participants := make([]application.Participant, 0, len(model.Participants))
	for _, p := range model.Participants {
		participants = append(participants, application.Participant{ID: p.ID, Name: p.Name, Email: p.Email})
	}
	return application.Booking{
		ID:               model.ID,
		RoomID:           model.RoomID,
		RoomName:         model.RoomName,
		BookedByUserID:   model.BookedByUserID,
		BookedByUserName: model.BookedByUserName,
		StartTime:        model.StartTime,
		EndTime:          model.EndTime,
		Description:      model.Description,
		Participants:     participants,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        cloneTimePtr(model.UpdatedAt),
	}
}

func ToPersistenceBooking(booking application.Booking) persistence.Booking {
	return persistence.Booking{
		ID:               booking.ID,
		RoomID:           booking.RoomID,
		RoomName:         booking.RoomName,
		BookedByUserID:   booking.BookedByUserID,
		BookedByUserName: booking.BookedByUserName,
		StartTime:        booking.StartTime,
		EndTime:          booking.EndTime,
		Description:      booking.Description,
		Participants:     toPersistenceParticipants(booking.Participants),
		CreatedAt:        booking.CreatedAt,
		UpdatedAt:        cloneTimePtr(booking.UpdatedAt),
	}
}

func toPersistenceParticipants(participants []application.Participant) []persistence.Participant {
	result := make([]persistence.Participant, 0, len(participants))
	for _, p := range participants {
		result = append(result, persistence.Participant{ID: p.ID, Name: p.Name, Email: p.Email})
	}
	return result
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}
