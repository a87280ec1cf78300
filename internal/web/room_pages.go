package web

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/i18n"
)

type roomsContent struct {
	Rooms  []application.Room
	Failed bool
}

type roomDetailContent struct {
	Room        application.Room
	Description template.HTML
	Bookings    []application.Booking
}

type roomFormContent struct {
	ID          string
	Name        string
	Description string
	Action      string
}

func (s *Server) roomList(w http.ResponseWriter, r *http.Request, session *application.Session) {
	data := s.page(session, "Кімнати")
	rooms, err := s.rooms.ListRooms(r.Context(), session.Principal())
	if err != nil {
		s.log(r.Context(), "roomList").ErrorContext(r.Context(), "room list failed", "error", err, "error_kind", application.ErrorKind(err))
		data.Error = i18n.ErrorMessage(err)
		data.Content = roomsContent{Failed: true}
		s.render(r.Context(), w, statusFor(err), "rooms", data)
		return
	}
	data.Content = roomsContent{Rooms: rooms}
	s.render(r.Context(), w, http.StatusOK, "rooms", data)
}

func (s *Server) roomDetail(w http.ResponseWriter, r *http.Request, session *application.Session, roomID string) {
	principal := session.Principal()
	logger := s.log(r.Context(), "roomDetail", "room_id", roomID)

	room, err := s.rooms.GetRoom(r.Context(), principal, roomID)
	if err != nil {
		logger.WarnContext(r.Context(), "room lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		s.renderMessage(r.Context(), w, statusFor(err), session, "Кімната", roomErrorMessage(err), "/rooms", "До кімнат")
		return
	}
	bookings, err := s.bookings.ListBookingsForRoom(r.Context(), principal, roomID)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		s.renderMessage(r.Context(), w, statusFor(err), session, room.Name, "Помилка завантаження даних.", "/rooms/"+roomID, "Спробувати ще раз")
		return
	}
	description, err := renderMarkdown(s.markdown, room.Description)
	if err != nil {
		logger.WarnContext(r.Context(), "markdown render failed", "error", err)
		description = template.HTML(template.HTMLEscapeString(room.Description))
	}

	data := s.page(session, room.Name)
	data.Content = roomDetailContent{Room: room, Description: description, Bookings: bookings}
	s.render(r.Context(), w, http.StatusOK, "room", data)
}

// roomForm renders the add form when roomID is empty and the edit form otherwise.
func (s *Server) roomForm(w http.ResponseWriter, r *http.Request, session *application.Session, roomID string) {
	if !session.User.IsAdmin() {
		s.renderMessage(r.Context(), w, http.StatusForbidden, session, "Кімнати", i18n.ErrorMessage(application.ErrUnauthorized), "/rooms", "До кімнат")
		return
	}

	form := roomFormContent{Action: "/rooms/new"}
	title := "Додати кімнату"
	if roomID != "" {
		room, err := s.rooms.GetRoom(r.Context(), session.Principal(), roomID)
		if err != nil {
			s.renderMessage(r.Context(), w, statusFor(err), session, "Кімната", roomErrorMessage(err), "/rooms", "До кімнат")
			return
		}
		form = roomFormContent{ID: room.ID, Name: room.Name, Description: room.Description, Action: "/rooms/" + room.ID + "/edit"}
		title = "Редагувати кімнату"
	}

	data := s.page(session, title)
	data.Content = form
	s.render(r.Context(), w, http.StatusOK, "room_form", data)
}

func (s *Server) saveRoom(w http.ResponseWriter, r *http.Request, session *application.Session, roomID string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	input := application.RoomInput{
		Name:        strings.TrimSpace(r.PostForm.Get("name")),
		Description: strings.TrimSpace(r.PostForm.Get("description")),
	}
	logger := s.log(r.Context(), "saveRoom", "room_id", roomID)

	var (
		room    application.Room
		err     error
		message string
	)
	if roomID == "" {
		room, err = s.rooms.CreateRoom(r.Context(), application.CreateRoomParams{Principal: session.Principal(), Input: input})
		message = "Кімнату додано!"
	} else {
		room, err = s.rooms.UpdateRoom(r.Context(), application.UpdateRoomParams{Principal: session.Principal(), RoomID: roomID, Input: input})
		message = "Кімнату оновлено!"
	}
	if err != nil {
		logger.WarnContext(r.Context(), "room save failed", "error", err, "error_kind", application.ErrorKind(err))
		data := s.page(session, "Кімната")
		data.Error = i18n.ErrorMessage(err)
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			data.FieldErrors = i18n.ValidationMessages(vErr)
		}
		action := "/rooms/new"
		if roomID != "" {
			action = "/rooms/" + roomID + "/edit"
		}
		data.Content = roomFormContent{ID: roomID, Name: input.Name, Description: input.Description, Action: action}
		s.render(r.Context(), w, statusFor(err), "room_form", data)
		return
	}

	logger.InfoContext(r.Context(), "room saved", "saved_room_id", room.ID)
	s.renderSuccess(r.Context(), w, session, message, "/rooms/"+room.ID)
}

func (s *Server) roomDeleteConfirm(w http.ResponseWriter, r *http.Request, session *application.Session, roomID string) {
	room, err := s.rooms.GetRoom(r.Context(), session.Principal(), roomID)
	if err != nil {
		s.renderMessage(r.Context(), w, statusFor(err), session, "Кімната", roomErrorMessage(err), "/rooms", "До кімнат")
		return
	}
	data := s.page(session, "Видалити кімнату")
	data.Content = room
	s.render(r.Context(), w, http.StatusOK, "room_delete", data)
}

func (s *Server) deleteRoom(w http.ResponseWriter, r *http.Request, session *application.Session, roomID string) {
	logger := s.log(r.Context(), "deleteRoom", "room_id", roomID)
	if err := s.rooms.DeleteRoom(r.Context(), session.Principal(), roomID); err != nil {
		logger.ErrorContext(r.Context(), "room delete failed", "error", err, "error_kind", application.ErrorKind(err))
		s.renderMessage(r.Context(), w, statusFor(err), session, "Видалити кімнату", i18n.ErrorMessage(err), "/rooms/"+roomID, "До кімнати")
		return
	}
	logger.InfoContext(r.Context(), "room deleted")
	http.Redirect(w, r, "/rooms", http.StatusSeeOther)
}

func roomErrorMessage(err error) string {
	if errors.Is(err, application.ErrNotFound) {
		return "Кімнату не знайдено."
	}
	return i18n.ErrorMessage(err)
}
