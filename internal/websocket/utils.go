package websocket

import (
	"time"

	"github.com/crackcu/portal-backend/internal/response"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// readWait outlasts the longest mock exam so an idle candidate is not dropped.
	readWait = 4 * time.Hour
	// maxMessageSize bounds a submit frame; a full paper of answers is a few KB.
	maxMessageSize = 64 << 10
)

// Prepare applies read limits to a freshly upgraded connection.
func Prepare(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
}

// WriteTyped sends a strongly-typed event over the WebSocket.
func WriteTyped(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends an ErrorEvent with the catalogue message for code.
func WriteError(conn *websocket.Conn, code response.ErrCode, fields map[string]string) error {
	return WriteTyped(conn, ErrorEvent{
		Event:   EventError,
		Code:    code,
		Message: response.GetMessage(code),
		Fields:  fields,
	})
}

// ReadJSON reads and decodes one client message, refreshing the read deadline.
func ReadJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	return conn.ReadJSON(v)
}

// Close sends a close frame with code and reason, then closes the socket.
func Close(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = conn.Close()
}
