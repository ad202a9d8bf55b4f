package signaling

import (
	"io"
	"log/slog"
	"testing"
)

// fakeConn records everything the router sends to one channel.
type fakeConn struct {
	msgs   []*Message
	closed bool
}

func (f *fakeConn) Send(msg *Message) bool {
	if f.closed {
		return false
	}
	f.msgs = append(f.msgs, msg)
	return true
}

func (f *fakeConn) Close() { f.closed = true }

func (f *fakeConn) Open() bool { return !f.closed }

// take returns and clears the recorded messages.
func (f *fakeConn) take() []*Message {
	out := f.msgs
	f.msgs = nil
	return out
}

func (f *fakeConn) only(t *testing.T) *Message {
	t.Helper()
	msgs := f.take()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1: %+v", len(msgs), msgs)
	}
	return msgs[0]
}

func (f *fakeConn) none(t *testing.T) {
	t.Helper()
	if msgs := f.take(); len(msgs) != 0 {
		t.Fatalf("got %d unexpected messages: %+v", len(msgs), msgs)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testRelay struct {
	router *Router
	dir    *Directory
	next   int
}

func newTestRelay(opts DirectoryOptions) *testRelay {
	dir := NewDirectory(opts)
	return &testRelay{router: NewRouter(dir, discardLogger()), dir: dir}
}

func (r *testRelay) connect() (*Channel, *fakeConn) {
	r.next++
	conn := &fakeConn{}
	ch := NewChannel(string(rune('A'+r.next-1))+"CHAN", conn)
	r.router.Connect(ch)
	return ch, conn
}

func (r *testRelay) send(ch *Channel, raw string) {
	Dispatch(r.router.HandleMessage(ch, []byte(raw)))
}

func (r *testRelay) disconnect(ch *Channel) {
	ch.conn.Close()
	Dispatch(r.router.Disconnect(ch))
}
