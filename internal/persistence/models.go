package persistence

import "time"

// Collections held by the document store.
const (
	CollectionUsers    = "users"
	CollectionRooms    = "rooms"
	CollectionBookings = "bookings"
)

// Document is a schemaless record stored in a collection. Data holds the JSON
// encoded fields; the store enforces no shape on it.
type Document struct {
	Collection string
	ID         string
	Data       []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Filter restricts a collection listing to documents whose top level Field
// equals Value.
type Filter struct {
	Field string
	Value string
}

// User is the profile record kept for every identity.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
}

// Room is a bookable space.
type Room struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// Participant is a denormalized attendee entry stored on a booking.
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

// BookingChanges lists the mutable booking fields. Room and author are
// immutable after creation and therefore absent.
type BookingChanges struct {
	StartTime    time.Time
	EndTime      time.Time
	Description  string
	Participants []Participant
	UpdatedAt    time.Time
}

// Credential holds the login material of an identity.
type Credential struct {
	UserID       string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is an issued sign-in session.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}
