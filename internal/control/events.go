package control

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/sadopc/apidoc-recorder/internal/recorder"
)

// EventStateChanged is the only event type sent on /api/events.
const EventStateChanged = "STATE_CHANGED"

// Event is one message on the events stream.
type Event struct {
	Type  string         `json:"type"`
	State recorder.State `json:"state"`
}

const writeTimeout = 5 * time.Second

// events streams every state change to a websocket client, starting with the
// current state.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originHosts(),
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	updates, cancel := s.store.Subscribe()
	defer cancel()

	ctx := conn.CloseRead(r.Context())
	if err := writeEvent(ctx, conn, s.store.Get()); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(ctx, conn, st); err != nil {
				s.log.Debug().Err(err).Msg("event write failed")
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, st recorder.State) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, Event{Type: EventStateChanged, State: st})
}
