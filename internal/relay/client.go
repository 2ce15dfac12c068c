package relay

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teris-io/shortid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Client is one live push channel. Its identity and room/stream affiliation
// are announced over the channel after connect and recorded here; the fields
// below the relay pointer are guarded by the relay's mutex.
type Client struct {
	id       string
	conn     *websocket.Conn
	relay    *Relay
	log      *log.Logger
	send     chan *ServerMessage
	stop     chan struct{}
	stopOnce sync.Once

	// guarded by relay.mu
	userId   int
	rooms    map[string]struct{}
	streamId string
	isHost   bool
}

func NewClient(conn *websocket.Conn, r *Relay, l *log.Logger) *Client {
	id, err := shortid.Generate()
	if err != nil {
		id = "unknown"
	}

	return &Client{
		id:    id,
		conn:  conn,
		relay: r,
		log:   l,
		send:  make(chan *ServerMessage, 256),
		stop:  make(chan struct{}),
		rooms: make(map[string]struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Printf("write exiting for connection %q", c.id)
	}()

	for {
		select {
		case msg := <-c.send:
			bytes, err := serializeMessage(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Printf("read exiting for connection %q", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueMessage(errInvalidEvent("invalid message format"))
			continue
		}

		handler, ok := c.relay.handlers[msg.Event]
		if !ok {
			c.log.Printf("unknown event %q from connection %q", msg.Event, c.id)
			c.queueMessage(errInvalidEvent("unknown event"))
			continue
		}

		handler(c, &msg)
	}
}

// queueMessage enqueues msg for delivery without blocking. A full send
// buffer drops the message for this client only.
func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		return false
	}

	return true
}

func serializeMessage(msg *ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Client) cleanup() {
	c.relay.DisconnectClient(c)
	c.stopClient()
}
