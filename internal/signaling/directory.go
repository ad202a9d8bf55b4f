package signaling

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
)

// room is owned by the Directory; nothing outside it holds a *room.
type room struct {
	id        string
	host      *Channel
	viewers   map[string]*Channel
	createdAt time.Time
}

// RoomInfo is a read-only summary of one live room.
type RoomInfo struct {
	RoomID        string    `json:"roomId" msgpack:"roomId"`
	Viewers       int       `json:"viewers" msgpack:"viewers"`
	HostConnected bool      `json:"hostConnected" msgpack:"hostConnected"`
	CreatedAt     time.Time `json:"createdAt" msgpack:"createdAt"`
}

// MsgpackContentType is the media type a RoomList is served in on request.
const MsgpackContentType = "application/msgpack"

// RoomList is the body of the rooms listing endpoint.
type RoomList struct {
	Count int        `json:"count" msgpack:"count"`
	Rooms []RoomInfo `json:"rooms" msgpack:"rooms"`
}

// DirectoryOptions tunes a Directory. Zero values give uuid room IDs and
// unlimited viewers.
type DirectoryOptions struct {
	NewRoomID   func() string
	NewViewerID func() string
	MaxViewers  int
}

// Directory maps room IDs to room state. All mutations take the write lock, so
// every operation is atomic with respect to every other.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]*room

	newRoomID   func() string
	newViewerID func() string
	maxViewers  int
	now         func() time.Time
}

// NewDirectory creates an empty Directory.
func NewDirectory(opts DirectoryOptions) *Directory {
	d := &Directory{
		rooms:       make(map[string]*room),
		newRoomID:   opts.NewRoomID,
		newViewerID: opts.NewViewerID,
		maxViewers:  opts.MaxViewers,
		now:         time.Now,
	}
	if d.newRoomID == nil {
		d.newRoomID = uuid.NewString
	}
	if d.newViewerID == nil {
		d.newViewerID = uuid.NewString
	}
	return d
}

// CreateRoom inserts a new room owned by host and returns its ID.
func (d *Directory) CreateRoom(host *Channel) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Keep generating until we find one that's not in use.
	id := d.newRoomID()
	for _, taken := d.rooms[id]; taken; _, taken = d.rooms[id] {
		id = d.newRoomID()
	}

	d.rooms[id] = &room{
		id:        id,
		host:      host,
		viewers:   make(map[string]*Channel),
		createdAt: d.now(),
	}
	return id
}

// JoinRoom adds viewer to the room and returns its room-local viewer ID.
func (d *Directory) JoinRoom(roomID string, viewer *Channel) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.rooms[roomID]
	if !ok {
		return "", ErrRoomNotFound
	}
	if d.maxViewers > 0 && len(r.viewers) >= d.maxViewers {
		return "", ErrRoomFull
	}

	id := d.newViewerID()
	for _, taken := r.viewers[id]; taken; _, taken = r.viewers[id] {
		id = d.newViewerID()
	}
	r.viewers[id] = viewer
	return id, nil
}

// RemoveViewer drops a viewer. Missing rooms or viewers are not an error.
func (d *Directory) RemoveViewer(roomID, viewerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if r, ok := d.rooms[roomID]; ok {
		delete(r.viewers, viewerID)
	}
}

// RemoveRoom deletes the room and returns the viewers that were in it. It is
// the only way a room ever leaves the Directory.
func (d *Directory) RemoveRoom(roomID string) []*Channel {
	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.rooms[roomID]
	if !ok {
		return nil
	}
	delete(d.rooms, roomID)

	viewers := make([]*Channel, 0, len(r.viewers))
	for _, v := range r.viewers {
		viewers = append(viewers, v)
	}
	r.viewers = nil
	r.host = nil
	return viewers
}

// LookupHost returns the room's host channel.
func (d *Directory) LookupHost(roomID string) (*Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.rooms[roomID]
	if !ok || r.host == nil {
		return nil, false
	}
	return r.host, true
}

// LookupViewer returns the viewer channel registered under viewerID.
func (d *Directory) LookupViewer(roomID, viewerID string) (*Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.rooms[roomID]
	if !ok {
		return nil, false
	}
	v, ok := r.viewers[viewerID]
	return v, ok
}

// Len returns the number of live rooms.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}

// Snapshot lists every live room, oldest first.
func (d *Directory) Snapshot() []RoomInfo {
	d.mu.RLock()
	infos := make([]RoomInfo, 0, len(d.rooms))
	for _, r := range d.rooms {
		infos = append(infos, RoomInfo{
			RoomID:        r.id,
			Viewers:       len(r.viewers),
			HostConnected: r.host != nil && r.host.open(),
			CreatedAt:     r.createdAt,
		})
	}
	d.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].RoomID < infos[j].RoomID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}
