package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/roombooking/internal/application"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	displayTimeLayout = "02.01.2006 15:04"
	formTimeLayout    = "2006-01-02T15:04"
)

var pageFiles = []string{
	"login",
	"register",
	"logout",
	"dashboard",
	"rooms",
	"room",
	"room_form",
	"room_delete",
	"booking_form",
	"success",
	"message",
}

// pageData is the model handed to the layout template.
type pageData struct {
	Title         string
	User          application.User
	LoggedIn      bool
	Error         string
	FieldErrors   map[string]string
	RedirectTo    string
	RedirectAfter string
	Content       any
}

type messageContent struct {
	Back      string
	BackLabel string
}

type successContent struct {
	Message string
}

func parseTemplates(loc *time.Location) (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"datetime": func(t time.Time) string {
			return t.In(loc).Format(displayTimeLayout)
		},
		"displayName": application.DisplayName,
		"roleLabel": func(role string) string {
			if role == application.RoleAdmin {
				return "Адміністратор"
			}
			return "Користувач"
		},
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("web: parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// render executes a page into a buffer first so a template failure never
// leaves a half written response.
func (s *Server) render(ctx context.Context, w http.ResponseWriter, status int, page string, data pageData) {
	tmpl, ok := s.pages[page]
	if !ok {
		s.log(ctx, "render", "page", page).ErrorContext(ctx, "unknown page template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.log(ctx, "render", "page", page).ErrorContext(ctx, "failed to render page", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderSuccess shows a confirmation that navigates to target after the
// configured delay.
func (s *Server) renderSuccess(ctx context.Context, w http.ResponseWriter, session *application.Session, message, target string) {
	data := s.page(session, message)
	data.RedirectTo = target
	data.RedirectAfter = strconv.FormatFloat(s.redirectDelay.Seconds(), 'f', -1, 64)
	data.Content = successContent{Message: message}
	s.render(ctx, w, http.StatusOK, "success", data)
}

func (s *Server) renderMessage(ctx context.Context, w http.ResponseWriter, status int, session *application.Session, title, message, back, backLabel string) {
	data := s.page(session, title)
	data.Error = message
	data.Content = messageContent{Back: back, BackLabel: backLabel}
	s.render(ctx, w, status, "message", data)
}

func (s *Server) page(session *application.Session, title string) pageData {
	data := pageData{Title: title}
	if session.Authenticated() {
		data.User = session.User
		data.LoggedIn = true
	}
	return data
}

func formatFormTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(formTimeLayout)
}

// parseFormTime reads a datetime-local value in loc. Unparsable input yields
// the zero time, which booking validation reports as a missing field.
func parseFormTime(value string, loc *time.Location) time.Time {
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.ParseInLocation(formTimeLayout, value, loc); err == nil {
		return ts
	}
	if ts, err := time.ParseInLocation("2006-01-02T15:04:05", value, loc); err == nil {
		return ts
	}
	return time.Time{}
}

// keepStoredTime returns stored when the submitted value is exactly what the
// edit form rendered for it. The form drops seconds, so an untouched field
// must not move the booking.
func keepStoredTime(submitted string, stored, parsed time.Time, loc *time.Location) time.Time {
	if !stored.IsZero() && strings.TrimSpace(submitted) == formatFormTime(stored, loc) {
		return stored
	}
	return parsed
}
