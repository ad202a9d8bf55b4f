package signaling

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"testing/quick"
)

func TestDirectory_RoomIDsAreDistinct(t *testing.T) {
	d := NewDirectory(DirectoryOptions{})
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		id := d.CreateRoom(NewChannel("H", &fakeConn{}))
		if seen[id] {
			t.Fatalf("room id %q issued twice", id)
		}
		seen[id] = true
	}
	if d.Len() != 10000 {
		t.Fatalf("Len=%d, want 10000", d.Len())
	}
}

// Property: with a generator that keeps colliding, every issued ID is still
// unique while its room is live.
func TestDirectory_CollidingGeneratorStillUnique(t *testing.T) {
	f := func(seq []uint8, rooms uint8) bool {
		if len(seq) == 0 {
			return true
		}
		n := int(rooms%32) + 1
		if n > 20 {
			n = 20
		}
		i := 0
		gen := func() string {
			// 20 distinct values, cycling through the random sequence first.
			var v uint8
			if i < len(seq) {
				v = seq[i] % 20
			} else {
				v = uint8(i % 20)
			}
			i++
			return string(rune('a' + v))
		}
		d := NewDirectory(DirectoryOptions{NewRoomID: gen})
		seen := make(map[string]bool)
		for k := 0; k < n; k++ {
			id := d.CreateRoom(NewChannel("H", &fakeConn{}))
			if seen[id] {
				return false
			}
			seen[id] = true
		}
		return d.Len() == n
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestDirectory_JoinUnknownRoom(t *testing.T) {
	d := NewDirectory(DirectoryOptions{})
	_, err := d.JoinRoom("nope", NewChannel("V", &fakeConn{}))
	if !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("err=%v, want ErrRoomNotFound", err)
	}
	if d.Len() != 0 {
		t.Fatalf("join of unknown room created a room")
	}
}

func TestDirectory_ViewersGetDistinctIDs(t *testing.T) {
	d := NewDirectory(DirectoryOptions{})
	roomID := d.CreateRoom(NewChannel("H", &fakeConn{}))

	a, b := NewChannel("A", &fakeConn{}), NewChannel("B", &fakeConn{})
	idA, err := d.JoinRoom(roomID, a)
	if err != nil {
		t.Fatal(err)
	}
	idB, err := d.JoinRoom(roomID, b)
	if err != nil {
		t.Fatal(err)
	}
	if idA == idB {
		t.Fatalf("viewers share id %q", idA)
	}

	if got, ok := d.LookupViewer(roomID, idA); !ok || got != a {
		t.Fatalf("LookupViewer(%q) = %v, %v", idA, got, ok)
	}
	if got, ok := d.LookupViewer(roomID, idB); !ok || got != b {
		t.Fatalf("LookupViewer(%q) = %v, %v", idB, got, ok)
	}
}

func TestDirectory_ViewerIDCollisionRetries(t *testing.T) {
	ids := []string{"same", "same", "same", "other"}
	i := 0
	d := NewDirectory(DirectoryOptions{NewViewerID: func() string {
		id := ids[i]
		i++
		return id
	}})
	roomID := d.CreateRoom(NewChannel("H", &fakeConn{}))

	first, _ := d.JoinRoom(roomID, NewChannel("A", &fakeConn{}))
	second, _ := d.JoinRoom(roomID, NewChannel("B", &fakeConn{}))
	if first != "same" || second != "other" {
		t.Fatalf("ids=%q,%q, want same,other", first, second)
	}
}

func TestDirectory_RemoveRoom(t *testing.T) {
	d := NewDirectory(DirectoryOptions{})
	host := NewChannel("H", &fakeConn{})
	roomID := d.CreateRoom(host)
	viewer := NewChannel("V", &fakeConn{})
	viewerID, _ := d.JoinRoom(roomID, viewer)

	viewers := d.RemoveRoom(roomID)
	if len(viewers) != 1 || viewers[0] != viewer {
		t.Fatalf("RemoveRoom returned %v", viewers)
	}
	if _, ok := d.LookupHost(roomID); ok {
		t.Fatalf("host still reachable after removal")
	}
	if _, ok := d.LookupViewer(roomID, viewerID); ok {
		t.Fatalf("viewer still reachable after removal")
	}
	if again := d.RemoveRoom(roomID); again != nil {
		t.Fatalf("second RemoveRoom returned %v, want nil", again)
	}
	if _, err := d.JoinRoom(roomID, NewChannel("W", &fakeConn{})); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("join after removal: err=%v", err)
	}
}

func TestDirectory_RemoveEmptyRoomReturnsEmptySlice(t *testing.T) {
	d := NewDirectory(DirectoryOptions{})
	roomID := d.CreateRoom(NewChannel("H", &fakeConn{}))
	viewers := d.RemoveRoom(roomID)
	if viewers == nil || len(viewers) != 0 {
		t.Fatalf("RemoveRoom = %#v, want empty non-nil slice", viewers)
	}
}

func TestDirectory_RemoveViewerIsIdempotent(t *testing.T) {
	d := NewDirectory(DirectoryOptions{})
	roomID := d.CreateRoom(NewChannel("H", &fakeConn{}))
	viewerID, _ := d.JoinRoom(roomID, NewChannel("V", &fakeConn{}))

	d.RemoveViewer(roomID, viewerID)
	d.RemoveViewer(roomID, viewerID)
	d.RemoveViewer("missing", viewerID)

	if _, ok := d.LookupViewer(roomID, viewerID); ok {
		t.Fatalf("viewer still present")
	}
	if _, ok := d.LookupHost(roomID); !ok {
		t.Fatalf("removing a viewer must not remove the room")
	}
}

func TestDirectory_MaxViewers(t *testing.T) {
	d := NewDirectory(DirectoryOptions{MaxViewers: 2})
	roomID := d.CreateRoom(NewChannel("H", &fakeConn{}))

	first, _ := d.JoinRoom(roomID, NewChannel("A", &fakeConn{}))
	if _, err := d.JoinRoom(roomID, NewChannel("B", &fakeConn{})); err != nil {
		t.Fatal(err)
	}
	if _, err := d.JoinRoom(roomID, NewChannel("C", &fakeConn{})); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("err=%v, want ErrRoomFull", err)
	}

	d.RemoveViewer(roomID, first)
	if _, err := d.JoinRoom(roomID, NewChannel("C", &fakeConn{})); err != nil {
		t.Fatalf("join after a viewer left: %v", err)
	}
}

func TestDirectory_Snapshot(t *testing.T) {
	d := NewDirectory(DirectoryOptions{})
	hostConn := &fakeConn{}
	first := d.CreateRoom(NewChannel("H1", hostConn))
	second := d.CreateRoom(NewChannel("H2", &fakeConn{}))
	d.JoinRoom(second, NewChannel("V", &fakeConn{}))
	hostConn.Close()

	rooms := d.Snapshot()
	if len(rooms) != 2 {
		t.Fatalf("got %d rooms, want 2", len(rooms))
	}
	byID := map[string]RoomInfo{rooms[0].RoomID: rooms[0], rooms[1].RoomID: rooms[1]}
	if byID[first].HostConnected {
		t.Fatalf("closed host reported connected")
	}
	if byID[second].Viewers != 1 || !byID[second].HostConnected {
		t.Fatalf("second room = %+v", byID[second])
	}
	if rooms[1].CreatedAt.Before(rooms[0].CreatedAt) {
		t.Fatalf("snapshot not ordered by creation time")
	}
}

func TestIDFormats(t *testing.T) {
	short := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	for i := 0; i < 100; i++ {
		if id := IDFormatShort.Generator()(); !short.MatchString(id) {
			t.Fatalf("short id %q", id)
		}
		words := strings.Split(IDFormatWords.Generator()(), "-")
		if len(words) != len(wordPools) {
			t.Fatalf("words id has %d parts, want %d", len(words), len(wordPools))
		}
	}
	if id := IDFormatUUID.Generator()(); len(id) != 36 {
		t.Fatalf("uuid id %q", id)
	}
}

func TestNewChannelID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20000; i++ {
		id := NewChannelID()
		if len(id) != 36 {
			t.Fatalf("channel id %q, want a full uuid", id)
		}
		if seen[id] {
			t.Fatalf("channel id %q issued twice", id)
		}
		seen[id] = true
	}
}

func TestParseIDFormat(t *testing.T) {
	for in, want := range map[string]IDFormat{
		"":        IDFormatUUID,
		"uuid":    IDFormatUUID,
		" Short ": IDFormatShort,
		"WORDS":   IDFormatWords,
	} {
		got, err := ParseIDFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseIDFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseIDFormat("emoji"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
