package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dakhnod/fpc2534-gateway/internal/coordinator"
	"github.com/dakhnod/fpc2534-gateway/internal/logging"
)

// upgrader is shared across all /sensor/identify connections. Origin
// checking is left permissive: this gateway is meant to sit behind a
// trusted reverse proxy, mirroring the teacher's own assumption that
// nothing but the intended client ever reaches the WS endpoint directly.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// identifyEventJSON is what each WebSocket message carries, matching the
// original gateway's convention of adding a synthesized
// "EVENT_FINGER_MATCHED" event name when a template id has been resolved.
type identifyEventJSON struct {
	Event      string  `json:"event"`
	TemplateID *uint16 `json:"template_id,omitempty"`
}

// handleIdentifyWS upgrades the connection and streams identify events
// until the client disconnects. It is exempt from the finite-operation
// gate: the coordinator's identify loop runs independently in the
// background and this handler only subscribes to its broadcasts.
func (s *Server) handleIdentifyWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	logging.LogConnection(r.RemoteAddr, "websocket_upgraded")
	defer logging.LogConnection(r.RemoteAddr, "websocket_closed")

	sub := s.coord.Subscribe()
	defer s.coord.Unsubscribe(sub)

	// Drain client-initiated frames (pings, close) on their own goroutine so
	// a client-side close is noticed promptly instead of only on the next
	// identify event's failed write.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if err := conn.WriteJSON(eventToJSON(ev)); err != nil {
				logging.Warn("identify websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

func eventToJSON(ev coordinator.IdentifyEvent) identifyEventJSON {
	return identifyEventJSON{
		Event:      ev.Kind.String(),
		TemplateID: ev.TemplateID,
	}
}
