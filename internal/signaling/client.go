package signaling

import (
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Outbound records buffered per connection before new ones are dropped.
	sendBuffer = 256

	DefaultMaxMessageBytes = 64 * 1024

	// DefaultMessagesPerSecond of zero leaves inbound records unthrottled. A
	// host trickles an offer and a burst of candidates to every viewer.
	DefaultMessagesPerSecond = 0
)

// ClientOptions bounds what a single connection may send to the relay.
type ClientOptions struct {
	// MaxMessageBytes caps one record. Larger records are drained and dropped;
	// the connection stays open.
	MaxMessageBytes int64
	// MessagesPerSecond throttles inbound records when positive. The burst
	// equals the rate.
	MessagesPerSecond int
}

// Client is a wrapper for a single websocket connection. It implements Conn
// for the router; Send and Close are only called from the hub goroutine.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	channel *Channel
	send    chan *Message
	open    atomic.Bool
	limiter *rate.Limiter
	log     *slog.Logger

	maxMessageBytes int64
}

// NewClient wraps an upgraded websocket connection for hub.
func NewClient(hub *Hub, conn *websocket.Conn, opts ClientOptions) *Client {
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = DefaultMaxMessageBytes
	}

	c := &Client{
		hub:             hub,
		conn:            conn,
		send:            make(chan *Message, sendBuffer),
		maxMessageBytes: opts.MaxMessageBytes,
	}
	if opts.MessagesPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.MessagesPerSecond), opts.MessagesPerSecond)
	}
	c.channel = NewChannel(NewChannelID(), c)
	c.log = hub.log.With("channel", c.channel.ID(), "remote", conn.RemoteAddr().String())
	c.open.Store(true)
	return c
}

// Channel returns the relay-side identity of this connection.
func (c *Client) Channel() *Channel {
	return c.channel
}

// Open reports whether records can still be queued for this connection.
func (c *Client) Open() bool {
	return c.open.Load()
}

// Send queues msg without blocking. A full buffer drops the record.
func (c *Client) Send(msg *Message) bool {
	if !c.open.Load() {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.log.Warn("send buffer full, dropping record", "type", msg.Type)
		return false
	}
}

// Close stops the write pump, which sends a close frame and closes the socket.
func (c *Client) Close() {
	if c.open.CompareAndSwap(true, false) {
		close(c.send)
	}
}

// ReadPump pumps messages from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		kind, r, err := c.conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("read failed", "err", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			// NextReader discards the unread frame on the next call.
			c.log.Debug("dropping non-text frame")
			continue
		}

		data, err := io.ReadAll(io.LimitReader(r, c.maxMessageBytes+1))
		if err != nil {
			return
		}
		if int64(len(data)) > c.maxMessageBytes {
			if _, err := io.Copy(io.Discard, r); err != nil {
				return
			}
			c.log.Debug("dropping oversized record", "limit", c.maxMessageBytes)
			continue
		}

		if c.limiter != nil && !c.limiter.Allow() {
			c.log.Debug("rate limited, dropping record")
			continue
		}
		if !c.hub.Inbound(c, data) {
			return
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
//
// A goroutine running WritePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Warn("write failed", "err", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
