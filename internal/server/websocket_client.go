package server

import (
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// PreviewClient wraps one preview feed connection.
type PreviewClient struct {
	conn     *websocket.Conn
	ip       string
	lastSeed int64

	readBuf []string   // pending requests from a multi-line message
	mu      sync.Mutex // protects readBuf
	writeMu sync.Mutex
}

// NewPreviewClient wraps conn. ip is used for limits and logging.
func NewPreviewClient(conn *websocket.Conn, ip string) *PreviewClient {
	return &PreviewClient{
		conn: conn,
		ip:   ip,
	}
}

// ReadRequest blocks until the client sends a request. Every line of a
// message is one request; a message with no text at all is one empty
// request.
func (c *PreviewClient) ReadRequest() (string, error) {
	c.mu.Lock()
	if len(c.readBuf) > 0 {
		line := c.readBuf[0]
		c.readBuf = c.readBuf[1:]
		c.mu.Unlock()
		return line, nil
	}
	c.mu.Unlock()

	_, message, err := c.conn.ReadMessage()
	if err != nil {
		return "", err
	}

	var lines []string
	for _, line := range strings.Split(string(message), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return "", nil
	}

	c.mu.Lock()
	c.readBuf = append(c.readBuf, lines[1:]...)
	c.mu.Unlock()

	return lines[0], nil
}

// WriteFrame sends v as one JSON text message.
func (c *PreviewClient) WriteFrame(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Close sends a close message with the given reason and closes the connection.
func (c *PreviewClient) Close(code int, reason string) error {
	c.writeMu.Lock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	c.writeMu.Unlock()
	return c.conn.Close()
}

// RemoteAddr returns the client address used for limits.
func (c *PreviewClient) RemoteAddr() string {
	return c.ip
}
