package signaling

import (
	"context"
	"log/slog"
)

type eventKind uint8

const (
	eventRegister eventKind = iota
	eventUnregister
	eventMessage
)

type event struct {
	kind   eventKind
	client *Client
	data   []byte
}

// Hub is the central brain of the relay. Run is the single goroutine that
// applies every connect, message and disconnect to the router, so all room
// mutations are serialised and each connection's records are handled in the
// order they were read.
type Hub struct {
	router  *Router
	log     *slog.Logger
	events  chan event
	clients map[*Client]struct{}
	done    chan struct{}
}

// NewHub creates a Hub driving router. A nil logger means slog.Default().
func NewHub(router *Router, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		router:  router,
		log:     logger,
		events:  make(chan event, 64),
		clients: make(map[*Client]struct{}),
		done:    make(chan struct{}),
	}
}

// Rooms returns a snapshot of the live rooms.
func (h *Hub) Rooms() []RoomInfo {
	return h.router.Directory().Snapshot()
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Register hands a newly accepted connection to the hub.
func (h *Hub) Register(c *Client) bool {
	return h.post(event{kind: eventRegister, client: c})
}

// Unregister reports that a connection's read side has ended.
func (h *Hub) Unregister(c *Client) bool {
	return h.post(event{kind: eventUnregister, client: c})
}

// Inbound hands one raw record read from c to the hub.
func (h *Hub) Inbound(c *Client, data []byte) bool {
	return h.post(event{kind: eventMessage, client: c, data: data})
}

func (h *Hub) post(ev event) bool {
	select {
	case h.events <- ev:
		return true
	case <-h.done:
		return false
	}
}

// Run processes events until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.log.Info("hub stopping", "clients", len(h.clients))
			for c := range h.clients {
				c.Close()
			}
			return

		case ev := <-h.events:
			h.handle(ev)
		}
	}
}

func (h *Hub) handle(ev event) {
	c := ev.client
	switch ev.kind {
	case eventRegister:
		h.clients[c] = struct{}{}
		h.log.Info("client registered", "channel", c.channel.ID(), "remote", c.conn.RemoteAddr().String())
		h.router.Connect(c.channel)

	case eventUnregister:
		if _, ok := h.clients[c]; !ok {
			return
		}
		delete(h.clients, c)
		m := c.channel.Membership()
		h.log.Info("client unregistered", "channel", c.channel.ID(), "role", m.Role, "room", m.RoomID)
		Dispatch(h.router.Disconnect(c.channel))
		c.Close()

	case eventMessage:
		if _, ok := h.clients[c]; !ok {
			return
		}
		Dispatch(h.router.HandleMessage(c.channel, ev.data))
	}
}
