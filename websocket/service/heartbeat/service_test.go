package heartbeat

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ws "dirserve/websocket"
)

// MockConn records everything written to it
type MockConn struct {
	messages []any
	mutex    sync.Mutex
}

func (m *MockConn) WriteJSON(v any) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.messages = append(m.messages, v)
	return nil
}

func TestHeartbeatService_Name(t *testing.T) {
	assert.Equal(t, "heartbeat", NewService().Name())
}

func TestHeartbeatService_HandleTextMessage(t *testing.T) {
	service := NewService()
	conn := &MockConn{}
	service.Register(conn)

	testCases := []struct {
		name     string
		id       string
		action   string
		data     json.RawMessage
		expected ws.ServiceMessage
	}{
		{
			name:   "Simple heartbeat",
			id:     "test-id-1",
			action: "ping",
			data:   json.RawMessage(`{}`),
			expected: ws.ServiceMessage{
				Service: "heartbeat",
				Action:  "ping",
				Id:      "test-id-1",
			},
		},
		{
			name:   "Different action",
			id:     "test-id-2",
			action: "pong",
			data:   json.RawMessage(`{}`),
			expected: ws.ServiceMessage{
				Service: "heartbeat",
				Action:  "pong",
				Id:      "test-id-2",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service.HandleTextMessage(tc.id, tc.action, tc.data)

			conn.mutex.Lock()
			defer conn.mutex.Unlock()

			require.NotEmpty(t, conn.messages, "No message was recorded")
			msg, ok := conn.messages[len(conn.messages)-1].(*ws.ServiceMessage)
			require.True(t, ok)
			assert.Equal(t, tc.expected, *msg)
		})
	}
}

func TestHeartbeatService_Cleanup(t *testing.T) {
	service := NewService()
	assert.NotPanics(t, func() {
		service.Cleanup(nil)
		service.Cleanup(errors.New("test error"))
	})
}
