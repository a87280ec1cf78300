package docstore

import (
	"time"

	"github.com/example/roombooking/internal/persistence"
)

// Field names mirror the documents written by earlier clients of the store.
const (
	fieldRoomID = "roomId"
)

type userRecord struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type roomRecord struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

type roomPatch struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type participantRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type bookingRecord struct {
	RoomID           string              `json:"roomId"`
	RoomName         string              `json:"roomName"`
	BookedByUserID   string              `json:"bookedByUserId"`
	BookedByUserName string              `json:"bookedByUserName"`
	StartTime        time.Time           `json:"startTime"`
	EndTime          time.Time           `json:"endTime"`
	Description      string              `json:"description"`
	Participants     []participantRecord `json:"participants"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        *time.Time          `json:"updatedAt,omitempty"`
}

// bookingPatch deliberately has no room or author fields.
type bookingPatch struct {
	StartTime    time.Time           `json:"startTime"`
	EndTime      time.Time           `json:"endTime"`
	Description  string              `json:"description"`
	Participants []participantRecord `json:"participants"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

func toParticipantRecords(participants []persistence.Participant) []participantRecord {
	out := make([]participantRecord, len(participants))
	for i, p := range participants {
		out[i] = participantRecord{ID: p.ID, Name: p.Name, Email: p.Email}
	}
	return out
}

func fromParticipantRecords(records []participantRecord) []persistence.Participant {
	if len(records) == 0 {
		return nil
	}
	out := make([]persistence.Participant, len(records))
	for i, r := range records {
		out[i] = persistence.Participant{ID: r.ID, Name: r.Name, Email: r.Email}
	}
	return out
}
