package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/roombooking/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	if operation != "" {
		attrs = append([]any{"operation", operation}, attrs...)
	}
	return logger.With(append([]any{"service", serviceName}, attrs...)...)
}

// sentinelKinds are checked in order after the typed errors.
var sentinelKinds = []struct {
	target error
	kind   string
}{
	{ErrUnauthorized, "unauthorized"},
	{ErrUnauthenticated, "unauthenticated"},
	{ErrNotFound, "not_found"},
	{ErrAlreadyExists, "already_exists"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrSessionExpired, "session_expired"},
	{ErrSessionRevoked, "session_revoked"},
	{ErrOperationFailed, "operation_failed"},
	{ErrInvalidTransition, "invalid_transition"},
}

// ErrorKind maps an error to the stable label logged as "error_kind".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var (
		rejection *BookingRejection
		batchErr  *BatchDeleteError
		cascade   *CascadeError
		vErr      *ValidationError
	)
	switch {
	case errors.As(err, &rejection):
		return "booking_rejected"
	case errors.As(err, &batchErr):
		return "batch_delete_failed"
	case errors.As(err, &cascade):
		return "cascade_incomplete"
	case errors.As(err, &vErr):
		return "validation"
	}
	for _, entry := range sentinelKinds {
		if errors.Is(err, entry.target) {
			return entry.kind
		}
	}
	return "unexpected"
}
