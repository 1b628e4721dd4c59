package heartbeat

import (
	"encoding/json"

	ws "dirserve/websocket"
)

// HeartbeatService echoes every message back so clients can measure
// liveness. It is registered passively and does not keep a session alive.
type HeartbeatService struct {
	conn ws.JSONWriter
}

func NewService() ws.Service {
	return &HeartbeatService{}
}

func (s *HeartbeatService) Register(conn ws.JSONWriter) {
	s.conn = conn
}

func (s *HeartbeatService) Name() string {
	return "heartbeat"
}

func (s *HeartbeatService) HandleTextMessage(id, action string, data json.RawMessage) {
	s.conn.WriteJSON(&ws.ServiceMessage{Service: s.Name(), Action: action, Id: id})
}

func (s *HeartbeatService) Cleanup(err error) {}
