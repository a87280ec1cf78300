package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/roombooking/internal/application"
)

// handlerBase is embedded by every API handler. name shows up as the
// "handler" attribute on log entries.
type handlerBase struct {
	name      string
	logger    *slog.Logger
	responder responder
}

func newHandlerBase(name string, logger *slog.Logger) handlerBase {
	if logger == nil {
		logger = slog.Default()
	}
	return handlerBase{name: name, logger: logger, responder: newResponder(logger)}
}

// log prefers the request scoped logger installed by RequestLogger.
func (b handlerBase) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = b.logger
	}
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(append([]any{"handler", b.name, "operation", operation}, attrs...)...)
}

// decode reads the JSON body into dst and answers 400 when it is malformed.
func (b handlerBase) decode(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.WarnContext(r.Context(), "malformed request body", "error", err, "error_kind", "bad_request")
		b.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return false
	}
	return true
}

// pathID reads an identifier the router stored in the context.
func (b handlerBase) pathID(w http.ResponseWriter, r *http.Request, lookup func(context.Context) (string, bool), invalid error) (string, bool) {
	id, ok := lookup(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		b.responder.writeError(r.Context(), w, http.StatusBadRequest, invalid)
		return "", false
	}
	return id, true
}

// fail logs a service error and writes the mapped response. Store failures
// log at error level, caller mistakes at warn.
func (b handlerBase) fail(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	kind := application.ErrorKind(err)
	level := slog.LevelWarn
	if kind == "operation_failed" || kind == "unexpected" {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, msg, "error", err, "error_kind", kind)
	b.responder.handleServiceError(r.Context(), w, err)
}

func unavailable(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
