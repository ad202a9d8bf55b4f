// Package probe checks a running relay end to end: a headless host and viewer
// negotiate a WebRTC data channel using only the relay for signaling, then the
// host departs and the viewer must be told.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pion "github.com/pion/webrtc/v4"

	"github.com/BioHazard786/screenrelay/internal/relayclient"
	"github.com/BioHazard786/screenrelay/internal/signaling"
)

const (
	DefaultTimeout = 20 * time.Second

	dataChannelLabel = "screenrelay-probe"
	pingPayload      = "ping"
	pongPayload      = "pong"
)

var ErrRelayError = errors.New("relay reported an error")

// Options configures a probe run.
type Options struct {
	// URL is the relay's websocket endpoint, e.g. ws://localhost:3000/ws.
	URL        string
	ICEServers []pion.ICEServer
	Timeout    time.Duration

	// IncludeLoopback lets the peers connect over 127.0.0.1, for probing a
	// relay on the same machine with no other interfaces.
	IncludeLoopback bool

	// OnStep, if set, is called after each completed step.
	OnStep func(Step)

	Logger *slog.Logger
}

// Step is one completed stage of the probe.
type Step struct {
	Name    string
	Elapsed time.Duration
}

// Report is the outcome of a successful probe.
type Report struct {
	RoomID   string
	ViewerID string
	Steps    []Step
	Total    time.Duration
}

type run struct {
	opts   Options
	log    *slog.Logger
	start  time.Time
	last   time.Time
	report *Report
}

func (r *run) step(name string) {
	now := time.Now()
	s := Step{Name: name, Elapsed: now.Sub(r.last)}
	r.last = now
	r.report.Steps = append(r.report.Steps, s)
	r.log.Debug("probe step", "step", name, "elapsed", s.Elapsed)
	if r.opts.OnStep != nil {
		r.opts.OnStep(s)
	}
}

// Run performs the probe against opts.URL.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	now := time.Now()
	r := &run{opts: opts, log: logger, start: now, last: now, report: &Report{}}
	if err := r.exec(ctx); err != nil {
		return r.report, err
	}
	r.report.Total = time.Since(r.start)
	return r.report, nil
}

func (r *run) exec(ctx context.Context) error {
	host, hostEvents, err := dial(ctx, r.opts.URL)
	if err != nil {
		return err
	}
	defer host.Close()

	viewer, viewerEvents, err := dial(ctx, r.opts.URL)
	if err != nil {
		return err
	}
	defer viewer.Close()
	r.step("connected")

	// Lobby: create-room, join-room, viewer-joined.
	if err := host.Send(&signaling.Message{Type: signaling.TypeCreateRoom}); err != nil {
		return relayclient.NewError("send create-room", err)
	}
	roomID, err := await(ctx, hostEvents.RoomCreated, hostEvents, "room-created")
	if err != nil {
		return err
	}
	r.report.RoomID = roomID
	r.step("room created")

	if err := viewer.Send(&signaling.Message{Type: signaling.TypeJoinRoom, RoomID: roomID}); err != nil {
		return relayclient.NewError("send join-room", err)
	}
	joined, err := await(ctx, viewerEvents.JoinedRoom, viewerEvents, "joined-room")
	if err != nil {
		return err
	}
	viewerID := joined.ViewerID
	r.report.ViewerID = viewerID
	r.step("viewer joined")

	announced, err := await(ctx, hostEvents.ViewerJoined, hostEvents, "viewer-joined")
	if err != nil {
		return err
	}
	if announced != viewerID {
		return relayclient.NewError("viewer-joined", fmt.Errorf("host was told about %q, viewer is %q", announced, viewerID))
	}
	r.step("host notified")

	// Negotiation.
	api := NewAPI(r.opts.IncludeLoopback)
	hostPeer, err := newPeer(api, r.opts.ICEServers, r.log.With("side", "host"))
	if err != nil {
		return err
	}
	defer hostPeer.close()
	viewerPeer, err := newPeer(api, r.opts.ICEServers, r.log.With("side", "viewer"))
	if err != nil {
		return err
	}
	defer viewerPeer.close()

	hostPeer.trickle(host, signaling.TargetViewer, viewerID)
	viewerPeer.trickle(viewer, signaling.TargetHost, viewerID)
	go pumpCandidates(ctx, hostEvents, hostPeer)
	go pumpCandidates(ctx, viewerEvents, viewerPeer)

	echoed := make(chan struct{})
	var echoOnce sync.Once
	viewerPeer.pc.OnDataChannel(func(dc *pion.DataChannel) {
		dc.OnMessage(func(msg pion.DataChannelMessage) {
			if string(msg.Data) == pingPayload {
				dc.SendText(pongPayload)
			}
		})
	})
	dc, err := hostPeer.pc.CreateDataChannel(dataChannelLabel, nil)
	if err != nil {
		return relayclient.NewError("create data channel", err)
	}
	opened := make(chan struct{})
	dc.OnOpen(func() {
		close(opened)
		dc.SendText(pingPayload)
	})
	dc.OnMessage(func(msg pion.DataChannelMessage) {
		if string(msg.Data) == pongPayload {
			echoOnce.Do(func() { close(echoed) })
		}
	})

	offer, err := hostPeer.pc.CreateOffer(nil)
	if err != nil {
		return relayclient.NewError("create offer", err)
	}
	if err := hostPeer.pc.SetLocalDescription(offer); err != nil {
		return relayclient.NewError("set local offer", err)
	}
	if err := host.Send(&signaling.Message{Type: signaling.TypeOffer, ViewerID: viewerID, SDP: encodeSDP(offer.SDP)}); err != nil {
		return relayclient.NewError("send offer", err)
	}

	relayedOffer, err := await(ctx, viewerEvents.Offer, viewerEvents, "offer")
	if err != nil {
		return err
	}
	offerSDP, err := decodeSDP(relayedOffer.SDP)
	if err != nil {
		return relayclient.NewError("decode offer", err)
	}
	if err := viewerPeer.setRemote(pion.SDPTypeOffer, offerSDP); err != nil {
		return relayclient.NewError("set remote offer", err)
	}
	r.step("offer relayed")

	answer, err := viewerPeer.pc.CreateAnswer(nil)
	if err != nil {
		return relayclient.NewError("create answer", err)
	}
	if err := viewerPeer.pc.SetLocalDescription(answer); err != nil {
		return relayclient.NewError("set local answer", err)
	}
	if err := viewer.Send(&signaling.Message{Type: signaling.TypeAnswer, ViewerID: viewerID, SDP: encodeSDP(answer.SDP)}); err != nil {
		return relayclient.NewError("send answer", err)
	}

	relayedAnswer, err := await(ctx, hostEvents.Answer, hostEvents, "answer")
	if err != nil {
		return err
	}
	answerSDP, err := decodeSDP(relayedAnswer.SDP)
	if err != nil {
		return relayclient.NewError("decode answer", err)
	}
	if err := hostPeer.setRemote(pion.SDPTypeAnswer, answerSDP); err != nil {
		return relayclient.NewError("set remote answer", err)
	}
	r.step("answer relayed")

	if err := waitClosed(ctx, opened, "data channel open"); err != nil {
		return err
	}
	r.step("data channel open")
	if err := waitClosed(ctx, echoed, "data channel echo"); err != nil {
		return err
	}
	r.step("data channel echo")

	// Departure: the host drops and the relay must tell the viewer, then close it.
	host.Close()
	if _, err := await(ctx, viewerEvents.HostLeft, nil, "host-left"); err != nil {
		return err
	}
	r.step("host-left delivered")

	if err := waitClosed(ctx, viewerEvents.Disconnected, "viewer close"); err != nil {
		return err
	}
	r.step("viewer closed by relay")
	return nil
}

func dial(ctx context.Context, url string) (*relayclient.Client, *relayclient.Handler, error) {
	client := relayclient.NewClient(url)
	if err := client.Connect(ctx); err != nil {
		return nil, nil, err
	}
	events := relayclient.NewHandler(client)
	go events.Start()
	return client, events, nil
}

func pumpCandidates(ctx context.Context, events *relayclient.Handler, p *peer) {
	for {
		select {
		case msg := <-events.ICE:
			p.addRemoteCandidate(msg.Candidate)
		case <-events.Disconnected:
			return
		case <-ctx.Done():
			return
		}
	}
}

// await waits for the next value on ch. A relay error, a dropped connection or
// the deadline end the wait early.
func await[T any](ctx context.Context, ch chan T, events *relayclient.Handler, what string) (T, error) {
	var zero T
	var relayErr <-chan string
	var disconnected <-chan struct{}
	if events != nil {
		relayErr = events.Error
		disconnected = events.Disconnected
	}

	select {
	case v, ok := <-ch:
		if !ok {
			return zero, relayclient.NewError(what, relayclient.ErrClosed)
		}
		return v, nil
	case text := <-relayErr:
		return zero, relayclient.NewError(what, fmt.Errorf("%w: %s", ErrRelayError, text))
	case <-disconnected:
		return zero, relayclient.NewError(what, relayclient.ErrClosed)
	case <-ctx.Done():
		return zero, relayclient.NewError(what, relayclient.ErrTimeout)
	}
}

// waitClosed waits for a signal channel to be closed.
func waitClosed(ctx context.Context, ch <-chan struct{}, what string) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return relayclient.NewError(what, relayclient.ErrTimeout)
	}
}
