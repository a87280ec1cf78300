package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/metrics"
)

const (
	eventsWriteWait  = 10 * time.Second
	eventsPongWait   = 60 * time.Second
	eventsPingPeriod = 30 * time.Second
)

type identitySubscriber interface {
	Subscribe(userID string) (<-chan application.IdentityEvent, func())
}

// EventsHandler streams sign-in and sign-out events of the caller over a websocket.
type EventsHandler struct {
	handlerBase
	subscriber identitySubscriber
	upgrader   websocket.Upgrader
}

func NewEventsHandler(subscriber identitySubscriber, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		handlerBase: newHandlerBase("EventsHandler", logger),
		subscriber:  subscriber,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

type identityEventDTO struct {
	Kind      string `json:"kind"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	At        string `json:"at"`
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.subscriber == nil {
		unavailable(w)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok || principal.UserID == "" {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}
	logger := h.log(r.Context(), "Stream", "principal_id", principal.UserID)

	// Subscribe before upgrading so no event published right after the
	// handshake is missed.
	events, cancel := h.subscriber.Subscribe(principal.UserID)
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	metrics.IncrementWSActiveConnections()
	defer metrics.DecrementWSActiveConnections()
	logger.InfoContext(r.Context(), "identity event stream opened")

	_ = conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	})

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.WarnContext(r.Context(), "websocket read failed", "error", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(eventsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			logger.InfoContext(r.Context(), "identity event stream closed by client")
			return
		case <-r.Context().Done():
			return
		case evt, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(eventsWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteJSON(identityEventDTO{
				Kind:      evt.Kind,
				UserID:    evt.UserID,
				SessionID: evt.SessionID,
				At:        evt.At.UTC().Format(time.RFC3339Nano),
			}); err != nil {
				logger.WarnContext(r.Context(), "failed to write identity event", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(eventsWriteWait)); err != nil {
				logger.WarnContext(r.Context(), "ping failed", "error", err)
				return
			}
		}
	}
}
