package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"gofinances/internal/dashboard"
	applog "gofinances/internal/log"
	"gofinances/internal/middleware/trace"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamReadLimit  = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  4096,
	HandshakeTimeout: 5 * time.Second,
}

// handleStream pushes every published dashboard state over a websocket,
// starting with the current one. A "focus" text message from the client
// reloads the dashboard.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	logger := applog.FromContext(r.Context())

	// The upgrader writes only the headers passed here.
	respHeader := http.Header{}
	if id := w.Header().Get(trace.RequestIDHeader); id != "" {
		respHeader.Set(trace.RequestIDHeader, id)
	}
	conn, err := upgrader.Upgrade(w, r, respHeader)
	if err != nil {
		// Upgrade has already written the error response.
		logger.WarnContext(r.Context(), "Websocket upgrade failed", applog.FieldError, err)
		return
	}
	defer conn.Close()

	updates := make(chan dashboard.State, 1)
	unsubscribe := s.screen.Loader().Subscribe(func(st dashboard.State) {
		for {
			select {
			case updates <- st:
				return
			default:
			}
			// Only the newest state matters; drop the pending one.
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go s.readStream(ctx, cancel, conn, logger)

	if err := writeState(conn, s.screen.State()); err != nil {
		return
	}

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.closing:
			closeStream(conn, websocket.CloseGoingAway)
			return
		case <-ctx.Done():
			closeStream(conn, websocket.CloseNormalClosure)
			return
		case st := <-updates:
			if err := writeState(conn, st); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}

// readStream owns the read side of conn. It cancels ctx when the peer goes
// away or stops answering pings.
func (s *Server) readStream(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, logger *applog.Logger) {
	defer cancel()
	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.DebugContext(ctx, "Websocket closed", applog.FieldError, err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		if typ != websocket.TextMessage || strings.TrimSpace(string(msg)) != "focus" {
			continue
		}
		// The new state reaches the client through the subscription.
		if _, err := s.screen.Focus(ctx); err != nil && ctx.Err() == nil {
			logger.WarnContext(ctx, "Focus from stream failed",
				applog.FieldOperation, applog.OpFocus,
				applog.FieldError, err)
		}
	}
}

func writeState(conn *websocket.Conn, st dashboard.State) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(st)
}

func closeStream(conn *websocket.Conn, code int) {
	msg := websocket.FormatCloseMessage(code, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(streamWriteWait))
}
