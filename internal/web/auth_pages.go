package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/example/roombooking/internal/application"
	httpapi "github.com/example/roombooking/internal/http"
	"github.com/example/roombooking/internal/i18n"
)

type loginContent struct {
	Email string
}

type registerContent struct {
	Email string
	Name  string
	Role  string
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	if s.currentSession(r).Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	data := s.page(nil, "Вхід")
	data.Content = loginContent{}
	s.render(r.Context(), w, http.StatusOK, "login", data)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	logger := s.log(r.Context(), "login")

	session, err := s.gateway.Login(r.Context(), email, r.PostForm.Get("password"))
	if err != nil {
		logger.WarnContext(r.Context(), "sign-in failed", "error", err, "error_kind", application.ErrorKind(err))
		data := s.page(nil, "Вхід")
		data.Error = i18n.ErrorMessage(err)
		data.Content = loginContent{Email: email}
		s.render(r.Context(), w, statusFor(err), "login", data)
		return
	}

	httpapi.SetSessionCookie(w, session.Token, session.ExpiresAt)
	logger.InfoContext(r.Context(), "signed in", "user_id", session.User.ID)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) registerPage(w http.ResponseWriter, r *http.Request) {
	if s.currentSession(r).Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	data := s.page(nil, "Реєстрація")
	data.Content = registerContent{Role: application.RoleUser}
	s.render(r.Context(), w, http.StatusOK, "register", data)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := registerContent{
		Email: strings.TrimSpace(r.PostForm.Get("email")),
		Name:  strings.TrimSpace(r.PostForm.Get("name")),
		Role:  strings.TrimSpace(r.PostForm.Get("role")),
	}
	logger := s.log(r.Context(), "register", "role", form.Role)

	session, err := s.gateway.Register(r.Context(), application.RegisterParams{
		Email:    form.Email,
		Password: r.PostForm.Get("password"),
		Name:     form.Name,
		Role:     form.Role,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "registration failed", "error", err, "error_kind", application.ErrorKind(err))
		data := s.page(nil, "Реєстрація")
		data.Error = i18n.ErrorMessage(err)
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			data.FieldErrors = i18n.ValidationMessages(vErr)
		}
		data.Content = form
		s.render(r.Context(), w, statusFor(err), "register", data)
		return
	}

	httpapi.SetSessionCookie(w, session.Token, session.ExpiresAt)
	logger.InfoContext(r.Context(), "account registered", "user_id", session.User.ID)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request, session *application.Session) {
	if err := s.gateway.Logout(r.Context(), session); err != nil {
		s.log(r.Context(), "logout", "user_id", session.User.ID).
			WarnContext(r.Context(), "sign-out failed", "error", err, "error_kind", application.ErrorKind(err))
	}
	httpapi.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// statusFor picks the response status of a page that re-renders after a
// failed service call.
func statusFor(err error) int {
	var (
		vErr      *application.ValidationError
		rejection *application.BookingRejection
	)
	switch {
	case errors.As(err, &vErr), errors.As(err, &rejection):
		return http.StatusUnprocessableEntity
	case errors.Is(err, application.ErrInvalidCredentials),
		errors.Is(err, application.ErrUnauthenticated),
		errors.Is(err, application.ErrSessionExpired),
		errors.Is(err, application.ErrSessionRevoked):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
