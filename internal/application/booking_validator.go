package application

import (
	"strings"
	"time"
)

// UnknownUserName is shown for users without a name or email.
const UnknownUserName = "Невідомий"

// BookingCandidate is a booking as submitted by a form or API call.
type BookingCandidate struct {
	Start          time.Time
	End            time.Time
	Description    string
	ParticipantIDs []string
	Actor          User
	// OriginalEnd is the stored end time when editing; nil when creating.
	OriginalEnd *time.Time
}

// ValidatedBooking is the normalized result of ValidateBooking.
type ValidatedBooking struct {
	Start        time.Time
	End          time.Time
	Description  string
	Participants []Participant
}

// ValidateBooking checks a candidate against the booking rules and resolves
// its participants against directory. It has no side effects.
//
// Unknown participant ids are dropped, duplicates collapse onto their first
// occurrence and the acting user is appended when not already selected.
func ValidateBooking(candidate BookingCandidate, directory []User, now time.Time) (ValidatedBooking, error) {
	description := strings.TrimSpace(candidate.Description)
	if description == "" || len(candidate.ParticipantIDs) == 0 || candidate.Start.IsZero() || candidate.End.IsZero() {
		return ValidatedBooking{}, &BookingRejection{Reason: ReasonMissingFields}
	}
	if !candidate.Start.Before(candidate.End) {
		return ValidatedBooking{}, &BookingRejection{Reason: ReasonInvalidOrder}
	}
	unchangedEnd := candidate.OriginalEnd != nil && candidate.End.Equal(*candidate.OriginalEnd)
	if !candidate.End.After(now) && !unchangedEnd {
		return ValidatedBooking{}, &BookingRejection{Reason: ReasonEndInPast}
	}

	known := make(map[string]User, len(directory))
	for _, user := range directory {
		known[user.ID] = user
	}

	seen := make(map[string]struct{}, len(candidate.ParticipantIDs))
	participants := make([]Participant, 0, len(candidate.ParticipantIDs)+1)
	for _, id := range candidate.ParticipantIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		user, ok := known[id]
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		participants = append(participants, Participant{ID: user.ID, Name: DisplayName(user), Email: user.Email})
	}

	if _, ok := seen[candidate.Actor.ID]; !ok {
		participants = append(participants, Participant{
			ID:    candidate.Actor.ID,
			Name:  DisplayName(candidate.Actor),
			Email: candidate.Actor.Email,
		})
	}

	return ValidatedBooking{
		Start:        candidate.Start,
		End:          candidate.End,
		Description:  description,
		Participants: participants,
	}, nil
}

// DisplayName returns the user's name, falling back to the email and then to
// UnknownUserName.
func DisplayName(user User) string {
	if name := strings.TrimSpace(user.Name); name != "" {
		return name
	}
	if email := strings.TrimSpace(user.Email); email != "" {
		return email
	}
	return UnknownUserName
}
