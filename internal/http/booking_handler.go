package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/roombooking/internal/application"
)

type bookingService interface {
	ListBookingsForRoom(ctx context.Context, principal application.Principal, roomID string) ([]application.Booking, error)
	GetBooking(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error)
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error)
	UpdateBooking(ctx context.Context, params application.UpdateBookingParams) (application.Booking, error)
	DeleteBooking(ctx context.Context, principal application.Principal, bookingID string) error
}

// BookingHandler serves /api/rooms/{id}/bookings and /api/bookings/{id}.
type BookingHandler struct {
	handlerBase
	service bookingService
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{handlerBase: newHandlerBase("BookingHandler", logger), service: service}
}

// ListForRoom returns the bookings of a room ordered by start time.
func (h *BookingHandler) ListForRoom(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	roomID, ok := h.pathID(w, r, RoomIDFromContext, errInvalidRoomID)
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListForRoom", "principal_id", principal.UserID, "room_id", roomID)
	bookings, err := h.service.ListBookingsForRoom(r.Context(), principal, roomID)
	if err != nil {
		h.fail(w, r, logger, "booking list failed", err)
		return
	}

	logger.DebugContext(r.Context(), "bookings listed", "result_count", len(bookings))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(bookings)})
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	roomID, ok := h.pathID(w, r, RoomIDFromContext, errInvalidRoomID)
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "room_id", roomID)

	var req bookingRequest
	if !h.decode(w, r, logger, &req) {
		return
	}
	booking, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		RoomID:    roomID,
		Input:     req.toInput(),
	})
	if err != nil {
		h.fail(w, r, logger, "booking creation failed", err)
		return
	}

	logger.InfoContext(r.Context(), "booking created", "booking_id", booking.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	bookingID, ok := h.pathID(w, r, BookingIDFromContext, errInvalidBookingID)
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	booking, err := h.service.GetBooking(r.Context(), principal, bookingID)
	if err != nil {
		h.fail(w, r, h.log(r.Context(), "Get", "principal_id", principal.UserID, "booking_id", bookingID), "booking lookup failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

// Update edits a booking. Room and author stay as created.
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	bookingID, ok := h.pathID(w, r, BookingIDFromContext, errInvalidBookingID)
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "booking_id", bookingID)

	var req bookingRequest
	if !h.decode(w, r, logger, &req) {
		return
	}
	booking, err := h.service.UpdateBooking(r.Context(), application.UpdateBookingParams{
		Principal: principal,
		BookingID: bookingID,
		Input:     req.toInput(),
	})
	if err != nil {
		h.fail(w, r, logger, "booking update failed", err)
		return
	}

	logger.InfoContext(r.Context(), "booking updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	bookingID, ok := h.pathID(w, r, BookingIDFromContext, errInvalidBookingID)
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "booking_id", bookingID)
	if err := h.service.DeleteBooking(r.Context(), principal, bookingID); err != nil {
		h.fail(w, r, logger, "booking delete failed", err)
		return
	}

	logger.InfoContext(r.Context(), "booking deleted")
	w.WriteHeader(http.StatusNoContent)
}

type bookingRequest struct {
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
	Description    string   `json:"description"`
	ParticipantIDs []string `json:"participant_ids"`
}

// toInput leaves unparsable times zero so validation reports them as missing.
func (r bookingRequest) toInput() application.BookingInput {
	return application.BookingInput{
		StartTime:      parseTime(r.StartTime),
		EndTime:        parseTime(r.EndTime),
		Description:    strings.TrimSpace(r.Description),
		ParticipantIDs: r.ParticipantIDs,
	}
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type participantDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type bookingDTO struct {
	ID               string           `json:"id"`
	RoomID           string           `json:"room_id"`
	RoomName         string           `json:"room_name"`
	BookedByUserID   string           `json:"booked_by_user_id"`
	BookedByUserName string           `json:"booked_by_user_name"`
	StartTime        string           `json:"start_time"`
	EndTime          string           `json:"end_time"`
	Description      string           `json:"description"`
	Participants     []participantDTO `json:"participants"`
	CreatedAt        string           `json:"created_at"`
	UpdatedAt        string           `json:"updated_at,omitempty"`
}

func toBookingDTO(booking application.Booking) bookingDTO {
	participants := make([]participantDTO, 0, len(booking.Participants))
	for _, p := range booking.Participants {
		participants = append(participants, participantDTO{ID: p.ID, Name: p.Name, Email: p.Email})
	}
	dto := bookingDTO{
		ID:               booking.ID,
		RoomID:           booking.RoomID,
		RoomName:         booking.RoomName,
		BookedByUserID:   booking.BookedByUserID,
		BookedByUserName: booking.BookedByUserName,
		StartTime:        booking.StartTime.UTC().Format(time.RFC3339Nano),
		EndTime:          booking.EndTime.UTC().Format(time.RFC3339Nano),
		Description:      booking.Description,
		Participants:     participants,
		CreatedAt:        booking.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if booking.UpdatedAt != nil {
		dto.UpdatedAt = booking.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}

func toBookingDTOs(bookings []application.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, toBookingDTO(booking))
	}
	return out
}
