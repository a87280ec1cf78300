// Package web serves the HTML pages of the room booking service.
//
// Pages keep the session token in the same cookie the JSON API reads. Every
// page except sign-in and registration resolves the session first; while it
// is not authenticated the visitor is redirected to /login and no service
// call is issued.
package web

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/example/roombooking/internal/application"
	httpapi "github.com/example/roombooking/internal/http"
	"github.com/example/roombooking/internal/logging"
)

type identityGateway interface {
	Register(ctx context.Context, params application.RegisterParams) (*application.Session, error)
	Login(ctx context.Context, email, password string) (*application.Session, error)
	Resume(ctx context.Context, token string) (*application.Session, error)
	Logout(ctx context.Context, session *application.Session) error
}

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error)
	UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error)
	GetRoom(ctx context.Context, principal application.Principal, roomID string) (application.Room, error)
	DeleteRoom(ctx context.Context, principal application.Principal, roomID string) error
	ListRooms(ctx context.Context, principal application.Principal) ([]application.Room, error)
}

type bookingService interface {
	ListBookingsForRoom(ctx context.Context, principal application.Principal, roomID string) ([]application.Booking, error)
	GetBooking(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error)
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error)
	UpdateBooking(ctx context.Context, params application.UpdateBookingParams) (application.Booking, error)
	DeleteBooking(ctx context.Context, principal application.Principal, bookingID string) error
}

type userDirectory interface {
	ListUsers(ctx context.Context, principal application.Principal) ([]application.User, error)
}

// Options tunes page rendering.
type Options struct {
	// RedirectDelay is how long a success page stays before navigating on.
	RedirectDelay time.Duration
	// Location interprets and displays booking times.
	Location *time.Location
	// Now prefills new booking forms. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Server renders the HTML pages.
type Server struct {
	gateway       identityGateway
	rooms         roomService
	bookings      bookingService
	users         userDirectory
	pages         map[string]*template.Template
	markdown      goldmark.Markdown
	location      *time.Location
	redirectDelay time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// NewServer parses the embedded templates and returns a page server.
func NewServer(gateway identityGateway, rooms roomService, bookings bookingService, users userDirectory, opts Options) (*Server, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	pages, err := parseTemplates(loc)
	if err != nil {
		return nil, err
	}
	return &Server{
		gateway:       gateway,
		rooms:         rooms,
		bookings:      bookings,
		users:         users,
		pages:         pages,
		markdown:      newMarkdown(),
		location:      loc,
		redirectDelay: opts.RedirectDelay,
		now:           now,
		logger:        logger,
	}, nil
}

func (s *Server) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = s.logger
	}
	pairs := append([]any{"handler", "web", "operation", operation}, attrs...)
	return logger.With(pairs...)
}

// Handler routes page requests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.loginPage(w, r)
		case http.MethodPost:
			s.login(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	})
	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.registerPage(w, r)
		case http.MethodPost:
			s.register(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	})
	mux.Handle("/logout", s.requireSession(func(w http.ResponseWriter, r *http.Request, session *application.Session) {
		switch r.Method {
		case http.MethodGet:
			s.render(r.Context(), w, http.StatusOK, "logout", s.page(session, "Вихід"))
		case http.MethodPost:
			s.logout(w, r, session)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	}))
	mux.Handle("/dashboard", s.requireSession(func(w http.ResponseWriter, r *http.Request, session *application.Session) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		s.render(r.Context(), w, http.StatusOK, "dashboard", s.page(session, "Головна"))
	}))
	mux.Handle("/rooms", s.requireSession(func(w http.ResponseWriter, r *http.Request, session *application.Session) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		s.roomList(w, r, session)
	}))
	mux.Handle("/rooms/", s.requireSession(s.routeRoom))
	mux.Handle("/bookings/", s.requireSession(s.routeBooking))

	return mux
}

// routeRoom dispatches /rooms/new, /rooms/{id}, /rooms/{id}/edit,
// /rooms/{id}/delete and /rooms/{id}/bookings/new.
func (s *Server) routeRoom(w http.ResponseWriter, r *http.Request, session *application.Session) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/rooms/"), "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "new":
		s.formMethods(w, r, func() { s.roomForm(w, r, session, "") }, func() { s.saveRoom(w, r, session, "") })
	case len(parts) == 1 && parts[0] != "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		s.roomDetail(w, r, session, parts[0])
	case len(parts) == 2 && parts[1] == "edit":
		s.formMethods(w, r, func() { s.roomForm(w, r, session, parts[0]) }, func() { s.saveRoom(w, r, session, parts[0]) })
	case len(parts) == 2 && parts[1] == "delete":
		s.formMethods(w, r, func() { s.roomDeleteConfirm(w, r, session, parts[0]) }, func() { s.deleteRoom(w, r, session, parts[0]) })
	case len(parts) == 3 && parts[1] == "bookings" && parts[2] == "new":
		s.formMethods(w, r, func() { s.newBookingForm(w, r, session, parts[0]) }, func() { s.createBooking(w, r, session, parts[0]) })
	default:
		http.NotFound(w, r)
	}
}

// routeBooking dispatches /bookings/{id}/edit and /bookings/{id}/delete.
func (s *Server) routeBooking(w http.ResponseWriter, r *http.Request, session *application.Session) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/bookings/"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	switch parts[1] {
	case "edit":
		s.formMethods(w, r, func() { s.editBookingForm(w, r, session, parts[0]) }, func() { s.updateBooking(w, r, session, parts[0]) })
	case "delete":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		s.deleteBooking(w, r, session, parts[0])
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) formMethods(w http.ResponseWriter, r *http.Request, get, post func()) {
	switch r.Method {
	case http.MethodGet:
		get()
	case http.MethodPost:
		post()
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, session *application.Session)

// requireSession resolves the cookie session and redirects to /login unless
// it is authenticated.
func (s *Server) requireSession(next sessionHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := s.currentSession(r)
		if !session.Authenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, session)
	})
}

// currentSession never returns nil; a missing or invalid token yields an
// unauthenticated session.
func (s *Server) currentSession(r *http.Request) *application.Session {
	token := httpapi.TokenFromRequest(r)
	if token == "" {
		return &application.Session{State: application.StateUnauthenticated}
	}
	session, err := s.gateway.Resume(r.Context(), token)
	if err != nil || session == nil {
		if err != nil {
			s.log(r.Context(), "currentSession").DebugContext(r.Context(), "session not resumed", "error", err, "error_kind", application.ErrorKind(err))
		}
		return &application.Session{State: application.StateUnauthenticated}
	}
	return session
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
