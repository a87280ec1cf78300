package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/i18n"
)

const ownBookingsOnly = "Ви можете редагувати лише власні бронювання."

type participantOption struct {
	ID      string
	Label   string
	Checked bool
	Self    bool
}

type bookingFormContent struct {
	Room        application.Room
	BookingID   string
	Start       string
	End         string
	Description string
	Options     []participantOption
	Action      string
	Editable    bool
}

func (s *Server) newBookingForm(w http.ResponseWriter, r *http.Request, session *application.Session, roomID string) {
	room, err := s.rooms.GetRoom(r.Context(), session.Principal(), roomID)
	if err != nil {
		s.renderMessage(r.Context(), w, statusFor(err), session, "Бронювання", roomErrorMessage(err), "/rooms", "До кімнат")
		return
	}
	options, err := s.participantOptions(r.Context(), session, []string{session.User.ID})
	if err != nil {
		s.renderMessage(r.Context(), w, statusFor(err), session, "Бронювання", "Помилка завантаження даних.", "/rooms/"+roomID, "До кімнати")
		return
	}

	start := s.now().Truncate(time.Minute)
	data := s.page(session, "Забронювати")
	data.Content = bookingFormContent{
		Room:     room,
		Start:    formatFormTime(start, s.location),
		End:      formatFormTime(start.Add(time.Hour), s.location),
		Options:  options,
		Action:   "/rooms/" + room.ID + "/bookings/new",
		Editable: true,
	}
	s.render(r.Context(), w, http.StatusOK, "booking_form", data)
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request, session *application.Session, roomID string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	input := s.bookingInput(r)
	logger := s.log(r.Context(), "createBooking", "room_id", roomID)

	booking, err := s.bookings.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: session.Principal(),
		RoomID:    roomID,
		Input:     input,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "booking creation failed", "error", err, "error_kind", application.ErrorKind(err))
		room, roomErr := s.rooms.GetRoom(r.Context(), session.Principal(), roomID)
		if roomErr != nil {
			s.renderMessage(r.Context(), w, statusFor(roomErr), session, "Бронювання", roomErrorMessage(roomErr), "/rooms", "До кімнат")
			return
		}
		s.rerenderBookingForm(w, r, session, err, bookingFormContent{
			Room:   room,
			Action: "/rooms/" + roomID + "/bookings/new",
		}, input)
		return
	}

	logger.InfoContext(r.Context(), "booking created", "booking_id", booking.ID)
	s.renderSuccess(r.Context(), w, session, "Бронювання створено!", "/rooms/"+roomID)
}

func (s *Server) editBookingForm(w http.ResponseWriter, r *http.Request, session *application.Session, bookingID string) {
	booking, err := s.bookings.GetBooking(r.Context(), session.Principal(), bookingID)
	if err != nil {
		s.renderMessage(r.Context(), w, statusFor(err), session, "Бронювання", bookingErrorMessage(err), "/rooms", "До кімнат")
		return
	}

	form := bookingFormContent{
		Room:      application.Room{ID: booking.RoomID, Name: booking.RoomName},
		BookingID: booking.ID,
		Action:    "/bookings/" + booking.ID + "/edit",
	}
	data := s.page(session, "Редагувати бронювання")
	if booking.BookedByUserID != session.User.ID {
		data.Error = ownBookingsOnly
		data.Content = form
		s.render(r.Context(), w, http.StatusForbidden, "booking_form", data)
		return
	}

	selected := make([]string, 0, len(booking.Participants))
	for _, p := range booking.Participants {
		selected = append(selected, p.ID)
	}
	options, err := s.participantOptions(r.Context(), session, selected)
	if err != nil {
		s.renderMessage(r.Context(), w, statusFor(err), session, "Бронювання", "Помилка завантаження даних.", "/rooms/"+booking.RoomID, "До кімнати")
		return
	}

	form.Start = formatFormTime(booking.StartTime, s.location)
	form.End = formatFormTime(booking.EndTime, s.location)
	form.Description = booking.Description
	form.Options = options
	form.Editable = true
	data.Content = form
	s.render(r.Context(), w, http.StatusOK, "booking_form", data)
}

func (s *Server) updateBooking(w http.ResponseWriter, r *http.Request, session *application.Session, bookingID string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	logger := s.log(r.Context(), "updateBooking", "booking_id", bookingID)

	current, err := s.bookings.GetBooking(r.Context(), session.Principal(), bookingID)
	if err != nil {
		s.renderMessage(r.Context(), w, statusFor(err), session, "Бронювання", bookingErrorMessage(err), "/rooms", "До кімнат")
		return
	}

	input := s.bookingInput(r)
	input.StartTime = keepStoredTime(r.PostForm.Get("start_time"), current.StartTime, input.StartTime, s.location)
	input.EndTime = keepStoredTime(r.PostForm.Get("end_time"), current.EndTime, input.EndTime, s.location)
	_, err = s.bookings.UpdateBooking(r.Context(), application.UpdateBookingParams{
		Principal: session.Principal(),
		BookingID: bookingID,
		Input:     input,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "booking update failed", "error", err, "error_kind", application.ErrorKind(err))
		s.rerenderBookingForm(w, r, session, err, bookingFormContent{
			Room:      application.Room{ID: current.RoomID, Name: current.RoomName},
			BookingID: bookingID,
			Action:    "/bookings/" + bookingID + "/edit",
		}, input)
		return
	}

	logger.InfoContext(r.Context(), "booking updated")
	s.renderSuccess(r.Context(), w, session, "Бронювання оновлено!", "/rooms/"+current.RoomID)
}

func (s *Server) deleteBooking(w http.ResponseWriter, r *http.Request, session *application.Session, bookingID string) {
	logger := s.log(r.Context(), "deleteBooking", "booking_id", bookingID)

	booking, err := s.bookings.GetBooking(r.Context(), session.Principal(), bookingID)
	if err != nil {
		s.renderMessage(r.Context(), w, statusFor(err), session, "Бронювання", bookingErrorMessage(err), "/rooms", "До кімнат")
		return
	}
	if err := s.bookings.DeleteBooking(r.Context(), session.Principal(), bookingID); err != nil {
		logger.WarnContext(r.Context(), "booking delete failed", "error", err, "error_kind", application.ErrorKind(err))
		s.renderMessage(r.Context(), w, statusFor(err), session, "Бронювання", i18n.ErrorMessage(err), "/rooms/"+booking.RoomID, "До кімнати")
		return
	}
	logger.InfoContext(r.Context(), "booking deleted")
	http.Redirect(w, r, "/rooms/"+booking.RoomID, http.StatusSeeOther)
}

// rerenderBookingForm shows a rejected submission with the entered values kept.
func (s *Server) rerenderBookingForm(w http.ResponseWriter, r *http.Request, session *application.Session, cause error, form bookingFormContent, input application.BookingInput) {
	data := s.page(session, "Бронювання")
	data.Error = i18n.ErrorMessage(cause)
	if errors.Is(cause, application.ErrUnauthorized) && form.BookingID != "" {
		data.Error = ownBookingsOnly
		data.Content = form
		s.render(r.Context(), w, http.StatusForbidden, "booking_form", data)
		return
	}

	options, err := s.participantOptions(r.Context(), session, input.ParticipantIDs)
	if err != nil {
		s.log(r.Context(), "rerenderBookingForm").WarnContext(r.Context(), "user directory unavailable", "error", err)
	}
	form.Start = formatFormTime(input.StartTime, s.location)
	form.End = formatFormTime(input.EndTime, s.location)
	form.Description = input.Description
	form.Options = options
	form.Editable = true
	data.Content = form
	s.render(r.Context(), w, statusFor(cause), "booking_form", data)
}

func (s *Server) bookingInput(r *http.Request) application.BookingInput {
	return application.BookingInput{
		StartTime:      parseFormTime(strings.TrimSpace(r.PostForm.Get("start_time")), s.location),
		EndTime:        parseFormTime(strings.TrimSpace(r.PostForm.Get("end_time")), s.location),
		Description:    strings.TrimSpace(r.PostForm.Get("description")),
		ParticipantIDs: r.PostForm["participant_ids"],
	}
}

// participantOptions lists the directory as checkboxes with selected ids ticked.
func (s *Server) participantOptions(ctx context.Context, session *application.Session, selected []string) ([]participantOption, error) {
	users, err := s.users.ListUsers(ctx, session.Principal())
	if err != nil {
		return nil, err
	}
	checked := make(map[string]bool, len(selected))
	for _, id := range selected {
		checked[id] = true
	}
	options := make([]participantOption, 0, len(users))
	for _, user := range users {
		label := application.DisplayName(user)
		if user.Email != "" && label != user.Email {
			label += " (" + user.Email + ")"
		}
		options = append(options, participantOption{
			ID:      user.ID,
			Label:   label,
			Checked: checked[user.ID],
			Self:    user.ID == session.User.ID,
		})
	}
	return options, nil
}

func bookingErrorMessage(err error) string {
	if errors.Is(err, application.ErrNotFound) {
		return "Бронювання не знайдено."
	}
	return i18n.ErrorMessage(err)
}
