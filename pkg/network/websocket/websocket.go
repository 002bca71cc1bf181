// Package websocket pushes binary data to websocket clients.
package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/emuka/emuka/pkg/logger"
	"github.com/gorilla/websocket"
)

const (
	maxMessageSize = 1024
	pingTime       = pongTime * 9 / 10
	pongTime       = 60 * time.Second
	writeWait      = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	WriteBufferPool: &sync.Pool{},
	// the API is open to any origin
	CheckOrigin: func(*http.Request) bool { return true },
}

// Conn is a write-only websocket connection.
// The client messages are read and dropped
// only to notice the connection closing.
type Conn struct {
	conn *websocket.Conn
	wmu  sync.Mutex
	done chan struct{}
	once sync.Once
	log  *logger.Logger
}

func Upgrade(w http.ResponseWriter, r *http.Request, log *logger.Logger) (*Conn, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	c := &Conn{conn: conn, done: make(chan struct{}), log: log.Module("ws")}
	go c.reader()
	go c.pinger()
	return c, nil
}

// reader drains the client messages until the connection is closed.
// Blocking, must be called as goroutine. Serializes all websocket reads.
func (c *Conn) reader() {
	defer c.close()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTime))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongTime)) })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("read")
			}
			return
		}
	}
}

func (c *Conn) pinger() {
	t := time.NewTicker(pingTime)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// WriteBinary sends one binary message.
func (c *Conn) WriteBinary(data []byte) error { return c.write(websocket.BinaryMessage, data) }

func (c *Conn) write(kind int, data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(kind, data)
}

// Done is closed when the connection is gone.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Close says goodbye to the client and closes the connection.
func (c *Conn) Close() error {
	_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.close()
	return nil
}

func (c *Conn) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
