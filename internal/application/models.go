package application

import "time"

// Roles a user profile can hold. A role is fixed when the profile is created.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// User is a profile in the user directory.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
}

// IsAdmin reports whether the profile carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Principal returns the principal acting as u.
func (u User) Principal() Principal {
	return Principal{UserID: u.ID, IsAdmin: u.IsAdmin()}
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name        string
	Description string
}

// Room is a bookable space.
type Room struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// Participant is an attendee copied onto a booking.
type Participant struct {
	ID    string
	Name  string
	Email string
}

// Booking is a reservation of a room for a time interval.
type Booking struct {
	ID               string
	RoomID           string
	RoomName         string
	BookedByUserID   string
	BookedByUserName string
	StartTime        time.Time
	EndTime          time.Time
	Description      string
	Participants     []Participant
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}

// BookingChanges lists the fields an edit may change.
type BookingChanges struct {
	StartTime    time.Time
	EndTime      time.Time
	Description  string
	Participants []Participant
	UpdatedAt    time.Time
}

// BookingInput captures caller provided booking fields.
type BookingInput struct {
	StartTime      time.Time
	EndTime        time.Time
	Description    string
	ParticipantIDs []string
}

// CreateBookingParams wraps the data required to book a room.
type CreateBookingParams struct {
	Principal Principal
	RoomID    string
	Input     BookingInput
}

// UpdateBookingParams wraps the data required to edit a booking.
type UpdateBookingParams struct {
	Principal Principal
	BookingID string
	Input     BookingInput
}

// RegisterParams captures the data required to register an account.
type RegisterParams struct {
	Email    string
	Password string
	Name     string
	Role     string
}
