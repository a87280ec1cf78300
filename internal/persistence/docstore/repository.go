package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/roombooking/internal/persistence"
)

// Repository maps user, room and booking records onto a document store.
type Repository struct {
	store persistence.DocumentStore
}

// NewRepository wraps the provided document store.
func NewRepository(store persistence.DocumentStore) *Repository {
	return &Repository{store: store}
}

// --- UserRepository implementation ---

// CreateUser stores a profile keyed by the identity id.
func (r *Repository) CreateUser(ctx context.Context, user persistence.User) error {
	if strings.TrimSpace(user.ID) == "" {
		return persistence.ErrConstraintViolation
	}
	data, err := json.Marshal(userRecord{
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("docstore: encode user: %w", err)
	}
	_, err = r.store.Create(ctx, persistence.CollectionUsers, user.ID, data, user.CreatedAt)
	return err
}

// GetUser retrieves a profile by id.
func (r *Repository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	doc, err := r.store.Get(ctx, persistence.CollectionUsers, id)
	if err != nil {
		return persistence.User{}, err
	}
	return decodeUser(doc)
}

// ListUsers returns every stored profile in store order.
func (r *Repository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	docs, err := r.store.List(ctx, persistence.CollectionUsers, nil)
	if err != nil {
		return nil, err
	}
	users := make([]persistence.User, 0, len(docs))
	for _, doc := range docs {
		user, err := decodeUser(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// --- RoomRepository implementation ---

// CreateRoom stores a new room, including its initial update time.
func (r *Repository) CreateRoom(ctx context.Context, room persistence.Room) error {
	rec := roomRecord{
		Name:        room.Name,
		Description: room.Description,
		CreatedAt:   room.CreatedAt.UTC(),
	}
	if room.UpdatedAt != nil {
		updated := room.UpdatedAt.UTC()
		rec.UpdatedAt = &updated
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("docstore: encode room: %w", err)
	}
	_, err = r.store.Create(ctx, persistence.CollectionRooms, room.ID, data, room.CreatedAt)
	return err
}

// UpdateRoom overwrites name and description and stamps the update time.
func (r *Repository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.UpdatedAt == nil {
		return persistence.ErrConstraintViolation
	}
	data, err := json.Marshal(roomPatch{
		Name:        room.Name,
		Description: room.Description,
		UpdatedAt:   room.UpdatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("docstore: encode room: %w", err)
	}
	return r.store.Update(ctx, persistence.CollectionRooms, room.ID, data, *room.UpdatedAt)
}

// GetRoom retrieves a room by id.
func (r *Repository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	doc, err := r.store.Get(ctx, persistence.CollectionRooms, id)
	if err != nil {
		return persistence.Room{}, err
	}
	return decodeRoom(doc)
}

// ListRooms returns every room in store order.
func (r *Repository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	docs, err := r.store.List(ctx, persistence.CollectionRooms, nil)
	if err != nil {
		return nil, err
	}
	rooms := make([]persistence.Room, 0, len(docs))
	for _, doc := range docs {
		room, err := decodeRoom(doc)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// DeleteRoom removes the room document only; bookings are left untouched.
func (r *Repository) DeleteRoom(ctx context.Context, id string) error {
	return r.store.Delete(ctx, persistence.CollectionRooms, id)
}

// --- BookingRepository implementation ---

// CreateBooking stores a new booking.
func (r *Repository) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	if strings.TrimSpace(booking.RoomID) == "" || strings.TrimSpace(booking.BookedByUserID) == "" {
		return persistence.ErrConstraintViolation
	}
	data, err := json.Marshal(bookingRecord{
		RoomID:           booking.RoomID,
		RoomName:         booking.RoomName,
		BookedByUserID:   booking.BookedByUserID,
		BookedByUserName: booking.BookedByUserName,
		StartTime:        booking.StartTime.UTC(),
		EndTime:          booking.EndTime.UTC(),
		Description:      booking.Description,
		Participants:     toParticipantRecords(booking.Participants),
		CreatedAt:        booking.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("docstore: encode booking: %w", err)
	}
	_, err = r.store.Create(ctx, persistence.CollectionBookings, booking.ID, data, booking.CreatedAt)
	return err
}

// UpdateBooking writes the mutable booking fields.
func (r *Repository) UpdateBooking(ctx context.Context, id string, changes persistence.BookingChanges) error {
	data, err := json.Marshal(bookingPatch{
		StartTime:    changes.StartTime.UTC(),
		EndTime:      changes.EndTime.UTC(),
		Description:  changes.Description,
		Participants: toParticipantRecords(changes.Participants),
		UpdatedAt:    changes.UpdatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("docstore: encode booking changes: %w", err)
	}
	return r.store.Update(ctx, persistence.CollectionBookings, id, data, changes.UpdatedAt)
}

// GetBooking retrieves a booking by id.
func (r *Repository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	doc, err := r.store.Get(ctx, persistence.CollectionBookings, id)
	if err != nil {
		return persistence.Booking{}, err
	}
	return decodeBooking(doc)
}

// ListBookingsForRoom returns the bookings of a room in store order. Callers
// needing chronological order sort the result themselves.
func (r *Repository) ListBookingsForRoom(ctx context.Context, roomID string) ([]persistence.Booking, error) {
	docs, err := r.store.List(ctx, persistence.CollectionBookings, &persistence.Filter{Field: fieldRoomID, Value: roomID})
	if err != nil {
		return nil, err
	}
	bookings := make([]persistence.Booking, 0, len(docs))
	for _, doc := range docs {
		booking, err := decodeBooking(doc)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, nil
}

// DeleteBooking removes a booking.
func (r *Repository) DeleteBooking(ctx context.Context, id string) error {
	return r.store.Delete(ctx, persistence.CollectionBookings, id)
}

func decodeUser(doc persistence.Document) (persistence.User, error) {
	var rec userRecord
	if err := decode(doc, &rec); err != nil {
		return persistence.User{}, err
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = doc.CreatedAt
	}
	return persistence.User{
		ID:        doc.ID,
		Email:     rec.Email,
		Name:      rec.Name,
		Role:      rec.Role,
		CreatedAt: created,
	}, nil
}

func decodeRoom(doc persistence.Document) (persistence.Room, error) {
	var rec roomRecord
	if err := decode(doc, &rec); err != nil {
		return persistence.Room{}, err
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = doc.CreatedAt
	}
	return persistence.Room{
		ID:          doc.ID,
		Name:        rec.Name,
		Description: rec.Description,
		CreatedAt:   created,
		UpdatedAt:   rec.UpdatedAt,
	}, nil
}

func decodeBooking(doc persistence.Document) (persistence.Booking, error) {
	var rec bookingRecord
	if err := decode(doc, &rec); err != nil {
		return persistence.Booking{}, err
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = doc.CreatedAt
	}
	return persistence.Booking{
		ID:               doc.ID,
		RoomID:           rec.RoomID,
		RoomName:         rec.RoomName,
		BookedByUserID:   rec.BookedByUserID,
		BookedByUserName: rec.BookedByUserName,
		StartTime:        rec.StartTime,
		EndTime:          rec.EndTime,
		Description:      rec.Description,
		Participants:     fromParticipantRecords(rec.Participants),
		CreatedAt:        created,
		UpdatedAt:        rec.UpdatedAt,
	}, nil
}

func decode(doc persistence.Document, target any) error {
	if len(doc.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(doc.Data, target); err != nil {
		return fmt.Errorf("docstore: decode %s/%s: %w", doc.Collection, doc.ID, err)
	}
	return nil
}
