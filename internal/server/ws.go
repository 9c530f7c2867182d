package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rickchristie/refine/session"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// handleWS upgrades the connection and relays every Hub message to the client. Clients launch
// tasks with {"type":"task_submit","content":"..."}.
//
// Only this goroutine writes to the connection. The reader goroutine hands replies over on a
// channel.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	msgs, unsubscribe := s.manager.Hub().Subscribe(s.wsBuffer)
	defer unsubscribe()

	if err := s.writeWS(conn, session.Message{Type: session.MessageSystem, Content: WelcomeMessage}); err != nil {
		return
	}

	replies := make(chan session.Message, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.readWS(conn, replies)
	}()

	for {
		var msg session.Message
		var ok bool
		select {
		case msg, ok = <-msgs:
			if !ok {
				return
			}
		case msg = <-replies:
		case <-done:
			return
		}
		if err := s.writeWS(conn, msg); err != nil {
			s.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

// readWS reads client messages until the connection fails. Malformed and unknown messages are
// ignored.
func (s *Server) readWS(conn *websocket.Conn, replies chan<- session.Message) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if !gjson.ValidBytes(data) {
			s.logger.Debug("websocket message is not JSON")
			continue
		}
		if gjson.GetBytes(data, "type").String() != MessageTaskSubmit {
			continue
		}

		content := gjson.GetBytes(data, "content").String()
		if _, err := s.manager.Launch(content, s.config); err != nil {
			select {
			case replies <- session.Message{
				Type:    session.MessageSystem,
				Content: "Task rejected: " + err.Error(),
			}:
			default:
			}
		}
	}
}

func (s *Server) writeWS(conn *websocket.Conn, msg session.Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
