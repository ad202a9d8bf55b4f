package relayclient

import (
	"github.com/BioHazard786/screenrelay/internal/signaling"
)

// Handler routes records from the relay onto typed channels.
type Handler struct {
	client *Client

	RoomCreated  chan string
	JoinedRoom   chan *signaling.Message
	ViewerJoined chan string
	ViewerLeft   chan string
	HostLeft     chan struct{}
	Offer        chan *signaling.Message
	Answer       chan *signaling.Message
	ICE          chan *signaling.Message
	Error        chan string

	// Disconnected is closed once the relay connection has ended.
	Disconnected chan struct{}
}

// NewHandler creates a handler for client's incoming records.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:       client,
		RoomCreated:  make(chan string, 1),
		JoinedRoom:   make(chan *signaling.Message, 1),
		ViewerJoined: make(chan string, 8),
		ViewerLeft:   make(chan string, 8),
		HostLeft:     make(chan struct{}, 1),
		Offer:        make(chan *signaling.Message, 4),
		Answer:       make(chan *signaling.Message, 4),
		ICE:          make(chan *signaling.Message, 64),
		Error:        make(chan string, 1),
		Disconnected: make(chan struct{}),
	}
}

// Start reads until the connection ends. Run it in its own goroutine.
func (h *Handler) Start() {
	defer close(h.Disconnected)

	for msg := range h.client.Incoming() {
		switch msg.Type {
		case signaling.TypeRoomCreated:
			deliver(h, h.RoomCreated, msg.RoomID)
		case signaling.TypeJoinedRoom:
			deliver(h, h.JoinedRoom, msg)
		case signaling.TypeViewerJoined:
			deliver(h, h.ViewerJoined, msg.ViewerID)
		case signaling.TypeViewerLeft:
			deliver(h, h.ViewerLeft, msg.ViewerID)
		case signaling.TypeHostLeft:
			deliver(h, h.HostLeft, struct{}{})
		case signaling.TypeOffer:
			deliver(h, h.Offer, msg)
		case signaling.TypeAnswer:
			deliver(h, h.Answer, msg)
		case signaling.TypeICE:
			deliver(h, h.ICE, msg)
		case signaling.TypeError:
			deliver(h, h.Error, msg.Message)
		}
	}
}

func deliver[T any](h *Handler, ch chan T, v T) {
	select {
	case ch <- v:
	case <-h.client.done:
	}
}
