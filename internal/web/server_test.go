package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/example/roombooking/internal/application"
	httpapi "github.com/example/roombooking/internal/http"
)

var (
	adminUser  = application.User{ID: "user-admin", Email: "admin@example.com", Name: "Адміністратор", Role: application.RoleAdmin}
	memberUser = application.User{ID: "user-member", Email: "member@example.com", Name: "Олена", Role: application.RoleUser}
	fixedNow   = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
)

type gatewayStub struct {
	sessions  map[string]*application.Session
	loginErr  error
	regErr    error
	loggedOut []string
}

func (g *gatewayStub) Register(_ context.Context, params application.RegisterParams) (*application.Session, error) {
	if g.regErr != nil {
		return nil, g.regErr
	}
	user := application.User{ID: "user-new", Email: params.Email, Name: params.Name, Role: params.Role}
	return &application.Session{State: application.StateAuthenticated, Token: "new-token", User: user}, nil
}

func (g *gatewayStub) Login(_ context.Context, email, _ string) (*application.Session, error) {
	if g.loginErr != nil {
		return nil, g.loginErr
	}
	return &application.Session{State: application.StateAuthenticated, Token: "login-token", User: application.User{ID: "u", Email: email}}, nil
}

func (g *gatewayStub) Resume(_ context.Context, token string) (*application.Session, error) {
	if session, ok := g.sessions[token]; ok {
		return session, nil
	}
	return nil, application.ErrUnauthenticated
}

func (g *gatewayStub) Logout(_ context.Context, session *application.Session) error {
	g.loggedOut = append(g.loggedOut, session.Token)
	return nil
}

type roomServiceStub struct {
	rooms     map[string]application.Room
	listErr   error
	deleteErr error
	calls     int
	created   application.CreateRoomParams
}

func (s *roomServiceStub) CreateRoom(_ context.Context, params application.CreateRoomParams) (application.Room, error) {
	s.calls++
	s.created = params
	if !params.Principal.IsAdmin {
		return application.Room{}, application.ErrUnauthorized
	}
	if params.Input.Name == "" {
		return application.Room{}, &application.ValidationError{FieldErrors: map[string]string{"name": "name is required"}}
	}
	return application.Room{ID: "room-new", Name: params.Input.Name}, nil
}

func (s *roomServiceStub) UpdateRoom(_ context.Context, params application.UpdateRoomParams) (application.Room, error) {
	s.calls++
	return application.Room{ID: params.RoomID, Name: params.Input.Name}, nil
}

func (s *roomServiceStub) GetRoom(_ context.Context, _ application.Principal, roomID string) (application.Room, error) {
	s.calls++
	room, ok := s.rooms[roomID]
	if !ok {
		return application.Room{}, application.ErrNotFound
	}
	return room, nil
}

func (s *roomServiceStub) DeleteRoom(context.Context, application.Principal, string) error {
	s.calls++
	return s.deleteErr
}

func (s *roomServiceStub) ListRooms(context.Context, application.Principal) ([]application.Room, error) {
	s.calls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return []application.Room{s.rooms["room-1"]}, nil
}

type bookingServiceStub struct {
	bookings  map[string]application.Booking
	created   application.CreateBookingParams
	createErr error
	updated   application.UpdateBookingParams
	deleted   []string
}

func (s *bookingServiceStub) ListBookingsForRoom(context.Context, application.Principal, string) ([]application.Booking, error) {
	return []application.Booking{s.bookings["booking-early"], s.bookings["booking-late"]}, nil
}

func (s *bookingServiceStub) GetBooking(_ context.Context, _ application.Principal, id string) (application.Booking, error) {
	booking, ok := s.bookings[id]
	if !ok {
		return application.Booking{}, application.ErrNotFound
	}
	return booking, nil
}

func (s *bookingServiceStub) CreateBooking(_ context.Context, params application.CreateBookingParams) (application.Booking, error) {
	s.created = params
	if s.createErr != nil {
		return application.Booking{}, s.createErr
	}
	return application.Booking{ID: "booking-new", RoomID: params.RoomID}, nil
}

func (s *bookingServiceStub) UpdateBooking(_ context.Context, params application.UpdateBookingParams) (application.Booking, error) {
	s.updated = params
	return application.Booking{ID: params.BookingID}, nil
}

func (s *bookingServiceStub) DeleteBooking(_ context.Context, _ application.Principal, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type userDirectoryStub struct{}

func (userDirectoryStub) ListUsers(context.Context, application.Principal) ([]application.User, error) {
	return []application.User{adminUser, memberUser}, nil
}

type pagesFixture struct {
	gateway  *gatewayStub
	rooms    *roomServiceStub
	bookings *bookingServiceStub
	handler  http.Handler
}

func newPagesFixture(t *testing.T) *pagesFixture {
	t.Helper()

	f := &pagesFixture{
		gateway: &gatewayStub{sessions: map[string]*application.Session{
			"admin-token":  {State: application.StateAuthenticated, Token: "admin-token", User: adminUser},
			"member-token": {State: application.StateAuthenticated, Token: "member-token", User: memberUser},
		}},
		rooms: &roomServiceStub{rooms: map[string]application.Room{
			"room-1": {ID: "room-1", Name: "Зала А", Description: "**Проектор** <script>alert(1)</script>"},
		}},
		bookings: &bookingServiceStub{bookings: map[string]application.Booking{
			"booking-early": {
				ID: "booking-early", RoomID: "room-1", RoomName: "Зала А", BookedByUserID: memberUser.ID, BookedByUserName: "Олена",
				StartTime: time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC), EndTime: time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC),
				Description: "Стендап", Participants: []application.Participant{{ID: memberUser.ID, Name: "Олена", Email: memberUser.Email}},
			},
			"booking-late": {
				ID: "booking-late", RoomID: "room-1", RoomName: "Зала А", BookedByUserID: adminUser.ID, BookedByUserName: "Адміністратор",
				StartTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), EndTime: time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC),
				Description: "Ретро",
			},
		}},
	}

	kyiv, err := time.LoadLocation("Europe/Kyiv")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	server, err := NewServer(f.gateway, f.rooms, f.bookings, userDirectoryStub{}, Options{
		RedirectDelay: 1500 * time.Millisecond,
		Location:      kyiv,
		Now:           func() time.Time { return fixedNow },
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	f.handler = server.Handler()
	return f
}

func (f *pagesFixture) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: httpapi.SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *pagesFixture) post(t *testing.T, path, token string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: httpapi.SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func expectBodyContains(t *testing.T, rec *httptest.ResponseRecorder, fragments ...string) {
	t.Helper()
	body := rec.Body.String()
	for _, fragment := range fragments {
		if !strings.Contains(body, fragment) {
			t.Fatalf("expected body to contain %q, got:\n%s", fragment, body)
		}
	}
}

func TestUnauthenticatedPagesRedirectToLogin(t *testing.T) {
	t.Parallel()
	f := newPagesFixture(t)

	for _, path := range []string{"/dashboard", "/rooms", "/rooms/room-1", "/rooms/room-1/bookings/new", "/bookings/booking-early/edit"} {
		rec := f.get(t, path, "expired-token")
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
			t.Fatalf("%s: expected redirect to /login, got %d %q", path, rec.Code, rec.Header().Get("Location"))
		}
	}
	if f.rooms.calls != 0 {
		t.Fatalf("expected no service calls while unauthenticated, got %d", f.rooms.calls)
	}
}

func TestAuthPages(t *testing.T) {
	t.Parallel()

	t.Run("login sets the session cookie", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)

		rec := f.post(t, "/login", "", url.Values{"email": {"member@example.com"}, "password": {"secret1"}})
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
			t.Fatalf("expected redirect to dashboard, got %d %q", rec.Code, rec.Header().Get("Location"))
		}
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Value != "login-token" {
			t.Fatalf("expected session cookie, got %+v", cookies)
		}
	})

	t.Run("failed login shows a localized message", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)
		f.gateway.loginErr = application.ErrInvalidCredentials

		rec := f.post(t, "/login", "", url.Values{"email": {"member@example.com"}, "password": {"nope"}})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		expectBodyContains(t, rec, "Неправильна електронна пошта або пароль.", `value="member@example.com"`)
	})

	t.Run("registration shows field errors", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)
		f.gateway.regErr = &application.ValidationError{FieldErrors: map[string]string{"password": "password is too short"}}

		rec := f.post(t, "/register", "", url.Values{"email": {"new@example.com"}, "password": {"123"}, "name": {"Нова"}, "role": {"admin"}})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		expectBodyContains(t, rec, "Пароль має містити щонайменше 6 символів.", `<option value="admin" selected>`)
	})

	t.Run("logout revokes the session and clears the cookie", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)

		rec := f.post(t, "/logout", "member-token", url.Values{})
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
			t.Fatalf("expected redirect to login, got %d", rec.Code)
		}
		if len(f.gateway.loggedOut) != 1 || f.gateway.loggedOut[0] != "member-token" {
			t.Fatalf("expected member session to be revoked, got %v", f.gateway.loggedOut)
		}
	})
}

func TestRoomPages(t *testing.T) {
	t.Parallel()

	t.Run("dashboard shows role", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)

		rec := f.get(t, "/dashboard", "admin-token")
		expectBodyContains(t, rec, "Вітаємо, Адміністратор!", "Додати кімнату")
	})

	t.Run("list failure offers a retry", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)
		f.rooms.listErr = errors.New("store offline")

		rec := f.get(t, "/rooms", "member-token")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		expectBodyContains(t, rec, "Спробувати ще раз", "Сталася внутрішня помилка сервера.")
	})

	t.Run("detail renders markdown and bookings in order", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)

		rec := f.get(t, "/rooms/room-1", "member-token")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "<strong>Проектор</strong>") {
			t.Fatalf("expected markdown to be rendered, got:\n%s", body)
		}
		if strings.Contains(body, "<script>alert(1)</script>") {
			t.Fatalf("expected raw html to be dropped")
		}
		if strings.Index(body, "Стендап") > strings.Index(body, "Ретро") {
			t.Fatalf("expected bookings in service order")
		}
		// 06:00 UTC is 09:00 in Kyiv during summer time.
		expectBodyContains(t, rec, "Початок: 01.05.2024 09:00", "Олена (member@example.com)", "/bookings/booking-early/edit")
		if strings.Contains(body, "/rooms/room-1/delete") {
			t.Fatalf("expected delete link to be hidden from non-admins")
		}
	})

	t.Run("missing room shows message", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)

		rec := f.get(t, "/rooms/absent", "member-token")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		expectBodyContains(t, rec, "Кімнату не знайдено.")
	})

	t.Run("admin delete asks for confirmation then deletes", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)

		rec := f.get(t, "/rooms/room-1/delete", "admin-token")
		expectBodyContains(t, rec, "Усі бронювання теж видаляться!")

		rec = f.post(t, "/rooms/room-1/delete", "admin-token", url.Values{})
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/rooms" {
			t.Fatalf("expected redirect to rooms, got %d", rec.Code)
		}
	})

	t.Run("cascade failure is reported on the page", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)
		f.rooms.deleteErr = &application.BatchDeleteError{RoomID: "room-1", Total: 2, Failed: 1, Err: errors.New("boom")}

		rec := f.post(t, "/rooms/room-1/delete", "admin-token", url.Values{})
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		expectBodyContains(t, rec, "Не вдалося видалити всі бронювання кімнати")
	})

	t.Run("room creation shows success page with delayed redirect", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)

		rec := f.post(t, "/rooms/new", "admin-token", url.Values{"name": {" Зала Б "}, "description": {"Тиха"}})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		expectBodyContains(t, rec, "Кімнату додано!", `content="1.5;url=/rooms/room-new"`)
		if f.rooms.created.Input.Name != "Зала Б" {
			t.Fatalf("expected trimmed name, got %q", f.rooms.created.Input.Name)
		}
	})

	t.Run("room validation keeps input", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)

		rec := f.post(t, "/rooms/new", "admin-token", url.Values{"name": {""}, "description": {"Опис"}})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		expectBodyContains(t, rec, "Назва обов&#39;язкова.", "Опис")
	})

	t.Run("non-admin cannot open the room form", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)

		if rec := f.get(t, "/rooms/new", "member-token"); rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestBookingPages(t *testing.T) {
	t.Parallel()

	t.Run("new booking form preselects the author", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)

		rec := f.get(t, "/rooms/room-1/bookings/new", "member-token")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		expectBodyContains(t, rec,
			`value="user-member" checked`,
			"(Ви)",
			`value="2024-04-01T12:00"`,
			`value="2024-04-01T13:00"`,
		)
	})

	t.Run("create parses times in the configured zone", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)

		rec := f.post(t, "/rooms/room-1/bookings/new", "member-token", url.Values{
			"start_time":      {"2024-05-02T14:00"},
			"end_time":        {"2024-05-02T15:00"},
			"description":     {"Планування"},
			"participant_ids": {"user-admin", "user-member"},
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		expectBodyContains(t, rec, "Бронювання створено!", `url=/rooms/room-1`)

		params := f.bookings.created
		if !params.Input.StartTime.Equal(time.Date(2024, 5, 2, 11, 0, 0, 0, time.UTC)) {
			t.Fatalf("unexpected start time %s", params.Input.StartTime)
		}
		if len(params.Input.ParticipantIDs) != 2 || params.RoomID != "room-1" {
			t.Fatalf("unexpected create params: %+v", params)
		}
	})

	t.Run("rejection keeps the form and localizes the reason", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)
		f.bookings.createErr = &application.BookingRejection{Reason: application.ReasonInvalidOrder}

		rec := f.post(t, "/rooms/room-1/bookings/new", "member-token", url.Values{
			"start_time":      {"2024-05-02T14:00"},
			"end_time":        {"2024-05-02T13:00"},
			"description":     {"Планування"},
			"participant_ids": {"user-admin"},
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		expectBodyContains(t, rec, "Час початку має бути раніше за час завершення.", `value="2024-05-02T14:00"`, `value="user-admin" checked`)
	})

	t.Run("only the author may edit", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)

		rec := f.get(t, "/bookings/booking-late/edit", "member-token")
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		expectBodyContains(t, rec, "Ви можете редагувати лише власні бронювання.")
		if strings.Contains(rec.Body.String(), `name="start_time"`) {
			t.Fatalf("expected no form for non-authors")
		}
	})

	t.Run("author edits and is sent back to the room", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)

		rec := f.get(t, "/bookings/booking-early/edit", "member-token")
		expectBodyContains(t, rec, `value="2024-05-01T09:00"`, `value="user-member" checked`)

		rec = f.post(t, "/bookings/booking-early/edit", "member-token", url.Values{
			"start_time":      {"2024-05-01T09:00"},
			"end_time":        {"2024-05-01T10:30"},
			"description":     {"Стендап"},
			"participant_ids": {"user-member"},
		})
		expectBodyContains(t, rec, "Бронювання оновлено!", `url=/rooms/room-1`)
		if f.bookings.updated.BookingID != "booking-early" {
			t.Fatalf("unexpected update params: %+v", f.bookings.updated)
		}
	})

	t.Run("untouched times keep their seconds", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)
		booking := f.bookings.bookings["booking-early"]
		booking.StartTime = time.Date(2024, 5, 1, 6, 0, 15, 0, time.UTC)
		booking.EndTime = time.Date(2024, 5, 1, 7, 0, 30, 0, time.UTC)
		f.bookings.bookings["booking-early"] = booking

		rec := f.get(t, "/bookings/booking-early/edit", "member-token")
		expectBodyContains(t, rec, `value="2024-05-01T09:00"`, `value="2024-05-01T10:00"`)

		rec = f.post(t, "/bookings/booking-early/edit", "member-token", url.Values{
			"start_time":      {"2024-05-01T09:00"},
			"end_time":        {"2024-05-01T10:00"},
			"description":     {"Стендап"},
			"participant_ids": {"user-member"},
		})
		expectBodyContains(t, rec, "Бронювання оновлено!")
		input := f.bookings.updated.Input
		if !input.StartTime.Equal(booking.StartTime) || !input.EndTime.Equal(booking.EndTime) {
			t.Fatalf("expected stored times %v-%v, got %v-%v", booking.StartTime, booking.EndTime, input.StartTime, input.EndTime)
		}
	})

	t.Run("delete returns to the room", func(t *testing.T) {
		t.Parallel()
		f := newPagesFixture(t)

		rec := f.post(t, "/bookings/booking-early/delete", "member-token", url.Values{})
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/rooms/room-1" {
			t.Fatalf("expected redirect to room, got %d %q", rec.Code, rec.Header().Get("Location"))
		}
		if len(f.bookings.deleted) != 1 {
			t.Fatalf("expected one delete, got %v", f.bookings.deleted)
		}
	})
}

func TestKeepStoredTime(t *testing.T) {
	t.Parallel()

	stored := time.Date(2024, 5, 1, 11, 0, 30, 0, time.UTC)
	rendered := formatFormTime(stored, time.UTC)
	if parsed := parseFormTime(rendered, time.UTC); parsed.Equal(stored) {
		t.Fatalf("expected the form layout to drop seconds, got %v", parsed)
	}

	if got := keepStoredTime(rendered, stored, parseFormTime(rendered, time.UTC), time.UTC); !got.Equal(stored) {
		t.Fatalf("expected stored time for an untouched field, got %v", got)
	}
	changed := "2024-05-01T11:15"
	if got := keepStoredTime(changed, stored, parseFormTime(changed, time.UTC), time.UTC); !got.Equal(time.Date(2024, 5, 1, 11, 15, 0, 0, time.UTC)) {
		t.Fatalf("expected submitted time for an edited field, got %v", got)
	}
}
