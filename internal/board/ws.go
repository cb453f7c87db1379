package board

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fentz26/stageboard/internal/broadcast"
	"github.com/fentz26/stageboard/internal/models"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The board sits on a trusted stage network; auth is out of scope.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsEnvelope frames every server-to-client message.
type wsEnvelope struct {
	Type     string           `json:"type"`
	Snapshot *models.Snapshot `json:"snapshot,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// wsCommand is an inbound operator command. Commands without an explicit
// time are stamped with the clock's current time.
type wsCommand struct {
	Op   string     `json:"op"`
	Act  string     `json:"act,omitempty"`
	At   *time.Time `json:"at,omitempty"`
	Time *time.Time `json:"time,omitempty"`
}

// wsConn serializes writes: the snapshot pump and command error replies
// share one connection.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// handleWS upgrades the connection, joins the session to the broadcaster
// (delivering the current snapshot first), and then pumps snapshots out
// while reading operator commands in.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	mode := broadcast.ModeView
	if r.URL.Query().Get("mode") == "edit" {
		mode = broadcast.ModeEdit
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess := s.service.Join(mode)
	wc := &wsConn{conn: conn}

	go func() {
		for snap := range sess.Updates() {
			snapshot := snap
			if err := wc.writeJSON(wsEnvelope{Type: "snapshot", Snapshot: &snapshot}); err != nil {
				return
			}
		}
	}()

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			break
		}
		if err := s.dispatch(r.Context(), sess, cmd); err != nil {
			wc.writeJSON(wsEnvelope{Type: "error", Error: err.Error()})
		}
	}

	// Leave closes the session's update stream, which unwinds the pump.
	s.service.Leave(sess.ID)
}

// dispatch applies one inbound command. Every operator command requires an
// edit session; view sessions are rejected here, before the Recorder.
func (s *Server) dispatch(ctx context.Context, sess *broadcast.Session, cmd wsCommand) error {
	if sess.Mode != broadcast.ModeEdit {
		return ErrViewOnly
	}

	at := s.service.clk.Now()
	if cmd.At != nil {
		at = *cmd.At
	}

	switch cmd.Op {
	case "record_start":
		_, err := s.service.RecordStart(ctx, cmd.Act, at)
		return err
	case "record_end":
		_, err := s.service.RecordEnd(ctx, cmd.Act, at)
		return err
	case "clear":
		_, err := s.service.Clear(ctx, cmd.Act)
		return err
	case "reset_all":
		s.service.ResetAll(ctx)
		return nil
	case "set_clock":
		if cmd.Time == nil {
			return errors.New("set_clock requires a time")
		}
		s.service.SetClockOverride(*cmd.Time)
		return nil
	case "clear_clock":
		s.service.ClearClockOverride()
		return nil
	default:
		return fmt.Errorf("unknown op %q", cmd.Op)
	}
}
