package signaling

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Message is the single shape used for every record on the wire, inbound and
// outbound. Fields a given type does not use stay empty and are omitted.
type Message struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId,omitempty"`
	ViewerID string `json:"viewerId,omitempty"`

	// SDP and Candidate are opaque to the relay and forwarded verbatim.
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`

	Target  string `json:"target,omitempty"`
	From    string `json:"from,omitempty"`
	Message string `json:"message,omitempty"`
}

// Inbound message types.
const (
	TypeCreateRoom  = "create-room"
	TypeJoinRoom    = "join-room"
	TypeOffer       = "offer"
	TypeAnswer      = "answer"
	TypeICE         = "ice-candidate"
	TypeViewerLeave = "viewer-leave"
)

// Outbound message types. offer, answer and ice-candidate reuse the inbound names.
const (
	TypeRoomCreated  = "room-created"
	TypeJoinedRoom   = "joined-room"
	TypeError        = "error"
	TypeViewerJoined = "viewer-joined"
	TypeViewerLeft   = "viewer-left"
	TypeHostLeft     = "host-left"
)

// ICE candidate targets.
const (
	TargetHost   = "host"
	TargetViewer = "viewer"
)

// User-visible error texts.
const (
	ErrTextRoomNotFound = "Room not found"
	ErrTextRoomFull     = "Room is full"
)

var (
	ErrInvalidMessage     = errors.New("invalid message format")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrMissingField       = errors.New("missing required field")
)

// DecodeMessage parses one inbound record and checks the fields its type
// requires. Any error means the record must be dropped.
func DecodeMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, ErrInvalidMessage
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Validate checks that an inbound record carries what its type needs.
func (m *Message) Validate() error {
	switch m.Type {
	case TypeCreateRoom:
		return nil
	case TypeJoinRoom:
		if m.RoomID == "" {
			return ErrMissingField
		}
	case TypeOffer, TypeAnswer:
		if m.ViewerID == "" || !present(m.SDP) {
			return ErrMissingField
		}
	case TypeICE:
		if !present(m.Candidate) {
			return ErrMissingField
		}
		switch m.Target {
		case TargetHost:
		case TargetViewer:
			if m.ViewerID == "" {
				return ErrMissingField
			}
		default:
			return ErrInvalidMessage
		}
	case TypeViewerLeave:
		if m.ViewerID == "" {
			return ErrMissingField
		}
	case "":
		return ErrInvalidMessage
	default:
		return ErrUnknownMessageType
	}
	return nil
}

// present reports whether an opaque payload was actually supplied.
func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func newRoomCreated(roomID string) *Message {
	return &Message{Type: TypeRoomCreated, RoomID: roomID}
}

func newJoinedRoom(roomID, viewerID string) *Message {
	return &Message{Type: TypeJoinedRoom, RoomID: roomID, ViewerID: viewerID}
}

func newError(text string) *Message {
	return &Message{Type: TypeError, Message: text}
}

func newViewerJoined(viewerID string) *Message {
	return &Message{Type: TypeViewerJoined, ViewerID: viewerID}
}

func newViewerLeft(viewerID string) *Message {
	return &Message{Type: TypeViewerLeft, ViewerID: viewerID}
}

func newHostLeft() *Message {
	return &Message{Type: TypeHostLeft}
}
