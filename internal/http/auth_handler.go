package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/roombooking/internal/application"
)

type identityGateway interface {
	Register(ctx context.Context, params application.RegisterParams) (*application.Session, error)
	Login(ctx context.Context, email, password string) (*application.Session, error)
	Logout(ctx context.Context, session *application.Session) error
}

type AuthHandler struct {
	handlerBase
	gateway identityGateway
}

func NewAuthHandler(gateway identityGateway, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{handlerBase: newHandlerBase("AuthHandler", logger), gateway: gateway}
}

// Register creates an account with profile and signs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.gateway == nil {
		unavailable(w)
		return
	}

	var req registerRequest
	if !h.decode(w, r, h.log(r.Context(), "Register"), &req) {
		return
	}
	logger := h.log(r.Context(), "Register", "role", req.Role)

	session, err := h.gateway.Register(r.Context(), application.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		h.fail(w, r, logger, "registration failed", err)
		return
	}

	h.issue(w, r, session)
	logger.InfoContext(r.Context(), "account registered", "user_id", session.User.ID)
}

// CreateSession signs in with email and password.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.gateway == nil {
		unavailable(w)
		return
	}

	var req loginRequest
	if !h.decode(w, r, h.log(r.Context(), "CreateSession"), &req) {
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	logger := h.log(r.Context(), "CreateSession", "email", email)

	session, err := h.gateway.Login(r.Context(), email, req.Password)
	if err != nil {
		h.fail(w, r, logger, "authentication failed", err)
		return
	}

	h.issue(w, r, session)
	logger.InfoContext(r.Context(), "user authenticated", "user_id", session.User.ID)
}

// issue hands the token out both as a cookie and a header.
func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, session *application.Session) {
	SetSessionCookie(w, session.Token, session.ExpiresAt)
	w.Header().Set("X-Session-Token", session.Token)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSessionResponse(session))
}

// DeleteCurrentSession signs the caller out.
func (h *AuthHandler) DeleteCurrentSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.gateway == nil {
		unavailable(w)
		return
	}

	session, ok := SessionFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	logger := h.log(r.Context(), "DeleteCurrentSession", "user_id", session.User.ID)
	if err := h.gateway.Logout(r.Context(), session); err != nil {
		h.fail(w, r, logger, "sign-out failed", err)
		return
	}

	ClearSessionCookie(w)
	logger.InfoContext(r.Context(), "signed out")
	w.WriteHeader(http.StatusNoContent)
}

// Me reports the current session and profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meResponse{
		State: session.State.String(),
		User:  toUserDTO(session.User),
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expires_at,omitempty"`
	User      userDTO `json:"user"`
}

type meResponse struct {
	State string  `json:"state"`
	User  userDTO `json:"user"`
}

func toSessionResponse(session *application.Session) sessionResponse {
	resp := sessionResponse{Token: session.Token, User: toUserDTO(session.User)}
	if !session.ExpiresAt.IsZero() {
		resp.ExpiresAt = session.ExpiresAt.UTC().Format(time.RFC3339Nano)
	}
	return resp
}

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session_token"

// SetSessionCookie stores token in the session cookie.
func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
	}
	http.SetCookie(w, cookie)
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest reads the session token from a bearer header or the session cookie.
func TokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
