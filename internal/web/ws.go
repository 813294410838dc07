package web

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait     = 10 * time.Second
	wsRefreshSignal = "refresh"
)

// handleTrackerWS answers each "refresh" message from the page with freshly
// rendered panels. The browser owns the timer; the server never pushes on
// its own.
func (s *Server) handleTrackerWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.WSConnections.Inc()
		defer s.metrics.WSConnections.Dec()
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("Websocket read error", zap.Error(err))
			}
			return
		}
		if string(bytes.TrimSpace(message)) != wsRefreshSignal {
			continue
		}

		html, err := s.renderPanels(r.Context())
		if err != nil {
			s.logger.Error("Template error", zap.String("template", "tracker_panels"), zap.Error(err))
			continue
		}

		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, html); err != nil {
			s.logger.Debug("Websocket write error", zap.Error(err))
			return
		}
	}
}

func (s *Server) renderPanels(ctx context.Context) ([]byte, error) {
	snap := s.tracker.Snapshot(ctx)
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "tracker_panels", s.buildPanels(snap)); err != nil {
		return nil, err
	}
	s.metrics.Rendered("tracker_panels")
	return buf.Bytes(), nil
}
