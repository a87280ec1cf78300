package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/i18n"
)

var (
	errBadRequestBody      = errors.New("Некоректний формат запиту.")
	errInvalidRoomID       = errors.New("Некоректний ідентифікатор кімнати.")
	errInvalidBookingID    = errors.New("Некоректний ідентифікатор бронювання.")
	errMissingSessionToken = errors.New("Потрібен токен сеансу.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := i18n.StatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// sentinelStatuses maps plain sentinel errors to a status and error code.
// Order matters: the first match wins.
var sentinelStatuses = []struct {
	target error
	status int
	code   string
}{
	{application.ErrUnauthorized, http.StatusForbidden, "AUTH_FORBIDDEN"},
	{application.ErrInvalidCredentials, http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS"},
	{application.ErrSessionExpired, http.StatusUnauthorized, "AUTH_SESSION_EXPIRED"},
	{application.ErrSessionRevoked, http.StatusUnauthorized, "AUTH_SESSION_EXPIRED"},
	{application.ErrUnauthenticated, http.StatusUnauthorized, ""},
	{application.ErrNotFound, http.StatusNotFound, ""},
	{application.ErrAlreadyExists, http.StatusConflict, ""},
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var (
		vErr      *application.ValidationError
		rejection *application.BookingRejection
		batchErr  *application.BatchDeleteError
		cascade   *application.CascadeError
	)
	switch {
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   i18n.StatusMessage(http.StatusUnprocessableEntity),
			Errors:    i18n.ValidationMessages(vErr),
		})
		return
	case errors.As(err, &rejection):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "BOOKING_REJECTED",
			Message:   i18n.RejectionMessage(rejection.Reason),
			Reason:    rejection.Reason,
		})
		return
	case errors.As(err, &batchErr):
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{ErrorCode: "CASCADE_BATCH_FAILED", Message: i18n.ErrorMessage(err)})
		return
	case errors.As(err, &cascade):
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{ErrorCode: "CASCADE_INCOMPLETE", Message: i18n.ErrorMessage(err)})
		return
	}

	for _, entry := range sentinelStatuses {
		if errors.Is(err, entry.target) {
			r.writeJSON(ctx, w, entry.status, errorResponse{ErrorCode: entry.code, Message: i18n.ErrorMessage(err)})
			return
		}
	}
	r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: i18n.StatusMessage(http.StatusInternalServerError)})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Reason    string            `json:"reason,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}
