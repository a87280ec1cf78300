package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/persistence"
)

var (
	userCounter    uint64
	roomCounter    uint64
	bookingCounter uint64
)

var referenceTime = time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture is a deterministic user profile.
type UserFixture struct {
	ID        string
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	fixture := UserFixture{
		ID:        id,
		Email:     id + "@example.com",
		Name:      fmt.Sprintf("Користувач %03d", idx),
		Role:      application.RoleUser,
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) { f.ID = id }
}

// WithUserName overrides the generated display name.
func WithUserName(name string) UserOption {
	return func(f *UserFixture) { f.Name = name }
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

// AsAdmin gives the fixture the admin role.
func AsAdmin() UserOption {
	return func(f *UserFixture) { f.Role = application.RoleAdmin }
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{ID: f.ID, Email: f.Email, Name: f.Name, Role: f.Role, CreatedAt: f.CreatedAt}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{ID: f.ID, Email: f.Email, Name: f.Name, Role: f.Role, CreatedAt: f.CreatedAt}
}

// Principal returns the principal acting as the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, IsAdmin: f.Role == application.RoleAdmin}
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture is a deterministic meeting room.
type RoomFixture struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room fixture with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:          fmt.Sprintf("room-%03d", idx),
		Name:        fmt.Sprintf("Кімната %03d", idx),
		Description: "Проектор, *дошка* і кава",
		CreatedAt:   referenceTime.Add(time.Duration(idx) * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) { f.ID = id }
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) { f.Name = name }
}

// WithRoomDescription overrides the generated markdown description.
func WithRoomDescription(description string) RoomOption {
	return func(f *RoomFixture) { f.Description = description }
}

// WithRoomUpdatedAt marks the fixture as edited at t.
func WithRoomUpdatedAt(t time.Time) RoomOption {
	return func(f *RoomFixture) { f.UpdatedAt = &t }
}

// Application returns the fixture as an application.Room value.
func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   copyTimePtr(f.UpdatedAt),
	}
}

// Persistence returns the fixture as a persistence.Room value.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   copyTimePtr(f.UpdatedAt),
	}
}

// Input returns the fixture's caller editable fields.
func (f RoomFixture) Input() application.RoomInput {
	return application.RoomInput{Name: f.Name, Description: f.Description}
}

// --------------------------- Booking fixtures ----------------------------

// BookingFixture is a deterministic booking with denormalized room and
// author names.
type BookingFixture struct {
	ID           string
	Room         RoomFixture
	Author       UserFixture
	Start        time.Time
	End          time.Time
	Description  string
	Participants []UserFixture
	CreatedAt    time.Time
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a one hour booking of room by author starting a
// day after ReferenceTime. The author is the only participant unless
// overridden.
func NewBookingFixture(room RoomFixture, author UserFixture, opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	start := referenceTime.Add(24*time.Hour + time.Duration(idx)*time.Hour)
	fixture := BookingFixture{
		ID:           fmt.Sprintf("booking-%03d", idx),
		Room:         room,
		Author:       author,
		Start:        start,
		End:          start.Add(time.Hour),
		Description:  fmt.Sprintf("Зустріч %03d", idx),
		Participants: []UserFixture{author},
		CreatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) { f.ID = id }
}

// WithBookingWindow overrides the booked interval.
func WithBookingWindow(start, end time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.Start = start
		f.End = end
	}
}

// WithParticipants replaces the participant list.
func WithParticipants(users ...UserFixture) BookingOption {
	return func(f *BookingFixture) { f.Participants = users }
}

// Application returns the fixture as an application.Booking value.
func (f BookingFixture) Application() application.Booking {
	participants := make([]application.Participant, 0, len(f.Participants))
	for _, u := range f.Participants {
		participants = append(participants, application.Participant{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return application.Booking{
		ID:               f.ID,
		RoomID:           f.Room.ID,
		RoomName:         f.Room.Name,
		BookedByUserID:   f.Author.ID,
		BookedByUserName: f.Author.Name,
		StartTime:        f.Start,
		EndTime:          f.End,
		Description:      f.Description,
		Participants:     participants,
		CreatedAt:        f.CreatedAt,
	}
}

// Persistence returns the fixture as a persistence.Booking value.
func (f BookingFixture) Persistence() persistence.Booking {
	participants := make([]persistence.Participant, 0, len(f.Participants))
	for _, u := range f.Participants {
		participants = append(participants, persistence.Participant{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return persistence.Booking{
		ID:               f.ID,
		RoomID:           f.Room.ID,
		RoomName:         f.Room.Name,
		BookedByUserID:   f.Author.ID,
		BookedByUserName: f.Author.Name,
		StartTime:        f.Start,
		EndTime:          f.End,
		Description:      f.Description,
		Participants:     participants,
		CreatedAt:        f.CreatedAt,
	}
}

// Input returns the caller supplied fields that would produce the fixture.
func (f BookingFixture) Input() application.BookingInput {
	ids := make([]string, 0, len(f.Participants))
	for _, u := range f.Participants {
		ids = append(ids, u.ID)
	}
	return application.BookingInput{
		StartTime:      f.Start,
		EndTime:        f.End,
		Description:    f.Description,
		ParticipantIDs: ids,
	}
}

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}
