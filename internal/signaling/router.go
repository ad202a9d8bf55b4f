package signaling

import (
	"errors"
	"log/slog"
	"strings"
)

// Delivery is one outbound effect of routing: a record addressed to a single
// channel, optionally followed by closing that channel.
type Delivery struct {
	To    *Channel
	Msg   *Message
	Close bool
}

// Router interprets inbound records against the Directory and returns the
// deliveries they cause. It performs no I/O itself; see Dispatch.
type Router struct {
	dir *Directory
	log *slog.Logger
}

// NewRouter creates a Router over dir. A nil logger means slog.Default().
func NewRouter(dir *Directory, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{dir: dir, log: logger}
}

// Directory returns the room table the router works on.
func (r *Router) Directory() *Directory {
	return r.dir
}

// Connect registers a freshly accepted channel. Channels start unassigned and
// need no directory state until their first create-room or join-room.
func (r *Router) Connect(ch *Channel) {
	r.log.Debug("channel connected", "channel", ch.ID())
}

// HandleMessage routes one raw inbound record from ch. Malformed records,
// unknown types and unreachable targets produce no deliveries.
func (r *Router) HandleMessage(ch *Channel, raw []byte) []Delivery {
	if ch.gone {
		return nil
	}
	msg, err := DecodeMessage(raw)
	if err != nil {
		r.log.Debug("dropping record", "channel", ch.ID(), "err", err)
		return nil
	}

	switch msg.Type {
	case TypeCreateRoom:
		return r.createRoom(ch)
	case TypeJoinRoom:
		return r.joinRoom(ch, msg)
	case TypeOffer:
		return r.offer(ch, msg)
	case TypeAnswer:
		return r.answer(ch, msg)
	case TypeICE:
		return r.iceCandidate(ch, msg)
	case TypeViewerLeave:
		r.viewerLeave(ch, msg)
	}
	return nil
}

func (r *Router) createRoom(ch *Channel) []Delivery {
	if ch.member.Role != RoleUnassigned {
		r.log.Debug("ignoring create-room from assigned channel", "channel", ch.ID(), "role", ch.member.Role)
		return nil
	}

	roomID := r.dir.CreateRoom(ch)
	ch.assign(Membership{Role: RoleHost, RoomID: roomID})
	r.log.Info("room created", "room", roomID, "channel", ch.ID())

	return r.send(nil, ch, newRoomCreated(roomID))
}

func (r *Router) joinRoom(ch *Channel, msg *Message) []Delivery {
	if ch.member.Role != RoleUnassigned {
		r.log.Debug("ignoring join-room from assigned channel", "channel", ch.ID(), "role", ch.member.Role)
		return nil
	}

	roomID := strings.TrimSpace(msg.RoomID)
	viewerID, err := r.dir.JoinRoom(roomID, ch)
	switch {
	case errors.Is(err, ErrRoomNotFound):
		r.log.Info("join failed: room not found", "room", roomID, "channel", ch.ID())
		return r.send(nil, ch, newError(ErrTextRoomNotFound))
	case errors.Is(err, ErrRoomFull):
		r.log.Info("join failed: room is full", "room", roomID, "channel", ch.ID())
		return r.send(nil, ch, newError(ErrTextRoomFull))
	case err != nil:
		return nil
	}

	ch.assign(Membership{Role: RoleViewer, RoomID: roomID, ViewerID: viewerID})
	r.log.Info("viewer joined", "room", roomID, "viewer", viewerID, "channel", ch.ID())

	out := r.send(nil, ch, newJoinedRoom(roomID, viewerID))
	if host, ok := r.dir.LookupHost(roomID); ok {
		out = r.send(out, host, newViewerJoined(viewerID))
	}
	return out
}

// offer: host -> the named viewer of the host's own room.
func (r *Router) offer(ch *Channel, msg *Message) []Delivery {
	m := ch.member
	if m.Role != RoleHost {
		return nil
	}
	viewer, ok := r.dir.LookupViewer(m.RoomID, msg.ViewerID)
	if !ok {
		r.log.Debug("offer target unreachable", "room", m.RoomID, "viewer", msg.ViewerID)
		return nil
	}
	return r.send(nil, viewer, &Message{Type: TypeOffer, SDP: msg.SDP, ViewerID: msg.ViewerID})
}

// answer: viewer -> host of the viewer's room.
func (r *Router) answer(ch *Channel, msg *Message) []Delivery {
	m := ch.member
	if m.Role != RoleViewer || msg.ViewerID != m.ViewerID {
		return nil
	}
	host, ok := r.dir.LookupHost(m.RoomID)
	if !ok {
		r.log.Debug("answer target unreachable", "room", m.RoomID, "viewer", m.ViewerID)
		return nil
	}
	return r.send(nil, host, &Message{Type: TypeAnswer, SDP: msg.SDP, ViewerID: m.ViewerID})
}

func (r *Router) iceCandidate(ch *Channel, msg *Message) []Delivery {
	m := ch.member
	switch {
	case msg.Target == TargetHost && m.Role == RoleViewer:
		host, ok := r.dir.LookupHost(m.RoomID)
		if !ok {
			return nil
		}
		return r.send(nil, host, &Message{
			Type:      TypeICE,
			Candidate: msg.Candidate,
			From:      ch.ID(),
			ViewerID:  m.ViewerID,
		})

	case msg.Target == TargetViewer && m.Role == RoleHost:
		viewer, ok := r.dir.LookupViewer(m.RoomID, msg.ViewerID)
		if !ok {
			return nil
		}
		return r.send(nil, viewer, &Message{
			Type:      TypeICE,
			Candidate: msg.Candidate,
			From:      ch.ID(),
		})
	}
	return nil
}

// viewerLeave is a courtesy hint; the host is not notified.
func (r *Router) viewerLeave(ch *Channel, msg *Message) {
	m := ch.member
	if m.Role != RoleViewer || msg.ViewerID != m.ViewerID {
		return
	}
	r.dir.RemoveViewer(m.RoomID, m.ViewerID)
	r.log.Info("viewer left", "room", m.RoomID, "viewer", m.ViewerID)
}

// send appends a delivery if the recipient is currently open.
func (r *Router) send(out []Delivery, to *Channel, msg *Message) []Delivery {
	if to == nil || !to.open() {
		r.log.Debug("skipping send to closed channel", "type", msg.Type)
		return out
	}
	return append(out, Delivery{To: to, Msg: msg})
}

// Dispatch performs deliveries in order. Sends to channels that are no longer
// open are skipped; a requested close happens regardless.
func Dispatch(deliveries []Delivery) {
	for _, d := range deliveries {
		if d.To == nil {
			continue
		}
		if d.Msg != nil && d.To.open() {
			d.To.conn.Send(d.Msg)
		}
		if d.Close && d.To.conn != nil {
			d.To.conn.Close()
		}
	}
}
