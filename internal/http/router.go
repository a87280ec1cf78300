package http

import (
	"net/http"
	"sort"
	"strings"
)

type RouterConfig struct {
	Auth     *AuthHandler
	Events   *EventsHandler
	Users    *UserHandler
	Rooms    *RoomHandler
	Bookings *BookingHandler

	// RequireSession guards every route except registration, sign-in and probes.
	RequireSession func(http.Handler) http.Handler
	Metrics        http.Handler
	// Fallback serves every path outside /api, typically the HTML pages.
	Fallback   http.Handler
	Middleware []func(http.Handler) http.Handler
}

// methods dispatches on the request method and answers 405 with an Allow
// header for anything else.
type methods map[string]http.HandlerFunc

func (m methods) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := m[r.Method]; ok {
		h(w, r)
		return
	}
	allowed := make([]string, 0, len(m))
	for method := range m {
		allowed = append(allowed, method)
	}
	sort.Strings(allowed)
	methodNotAllowed(w, allowed...)
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := func(h http.Handler) http.Handler {
		if cfg.RequireSession == nil {
			return h
		}
		return cfg.RequireSession(h)
	}

	mux.Handle("/healthz", methods{http.MethodGet: func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}})
	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}

	if auth := cfg.Auth; auth != nil {
		mux.Handle("/api/register", methods{http.MethodPost: auth.Register})
		mux.Handle("/api/sessions", methods{http.MethodPost: auth.CreateSession})
		mux.Handle("/api/sessions/current", protect(methods{http.MethodDelete: auth.DeleteCurrentSession}))
		mux.Handle("/api/me", protect(methods{http.MethodGet: auth.Me}))
	}
	if cfg.Events != nil {
		mux.Handle("/api/identity/events", protect(methods{http.MethodGet: cfg.Events.Stream}))
	}
	if cfg.Users != nil {
		mux.Handle("/api/users", protect(methods{http.MethodGet: cfg.Users.List}))
	}

	if rooms := cfg.Rooms; rooms != nil {
		collection := methods{http.MethodGet: rooms.List, http.MethodPost: rooms.Create}
		item := methods{http.MethodGet: rooms.Get, http.MethodPut: rooms.Update, http.MethodDelete: rooms.Delete}
		var nested http.Handler
		if cfg.Bookings != nil {
			nested = methods{http.MethodGet: cfg.Bookings.ListForRoom, http.MethodPost: cfg.Bookings.Create}
		}

		mux.Handle("/api/rooms", protect(collection))
		mux.Handle("/api/rooms/", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := pathSegments(r.URL.Path, "/api/rooms/")
			if len(parts) == 0 || len(parts) > 2 {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithRoomID(r.Context(), parts[0]))
			switch {
			case len(parts) == 1:
				item.ServeHTTP(w, r)
			case parts[1] == "bookings" && nested != nil:
				nested.ServeHTTP(w, r)
			default:
				http.NotFound(w, r)
			}
		})))
	}

	if bookings := cfg.Bookings; bookings != nil {
		item := methods{http.MethodGet: bookings.Get, http.MethodPut: bookings.Update, http.MethodDelete: bookings.Delete}
		mux.Handle("/api/bookings/", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := pathSegments(r.URL.Path, "/api/bookings/")
			if len(parts) != 1 {
				http.NotFound(w, r)
				return
			}
			item.ServeHTTP(w, r.WithContext(ContextWithBookingID(r.Context(), parts[0])))
		})))
	}

	if cfg.Fallback != nil {
		mux.Handle("/", cfg.Fallback)
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}

// pathSegments splits what follows prefix. An empty first segment yields nil.
func pathSegments(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
