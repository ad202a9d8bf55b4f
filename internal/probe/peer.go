package probe

import (
	"encoding/json"
	"log/slog"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/BioHazard786/screenrelay/internal/relayclient"
	"github.com/BioHazard786/screenrelay/internal/signaling"
)

// NewAPI builds the pion API used by both probe peers.
func NewAPI(includeLoopback bool) *pion.API {
	se := pion.SettingEngine{}
	if includeLoopback {
		se.SetIncludeLoopbackCandidate(true)
	}
	return pion.NewAPI(pion.WithSettingEngine(se))
}

// peer is one side of the probe's peer connection. Remote candidates that
// arrive before the remote description are held until it is set.
type peer struct {
	pc  *pion.PeerConnection
	log *slog.Logger

	mu        sync.Mutex
	remoteSet bool
	pending   []pion.ICECandidateInit
}

func newPeer(api *pion.API, iceServers []pion.ICEServer, logger *slog.Logger) (*peer, error) {
	pc, err := api.NewPeerConnection(pion.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, relayclient.NewError("create peer connection", err)
	}
	return &peer{pc: pc, log: logger}, nil
}

// trickle forwards every local candidate through the relay.
func (p *peer) trickle(client *relayclient.Client, target, viewerID string) {
	p.pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		raw, err := json.Marshal(c.ToJSON())
		if err != nil {
			return
		}
		client.Send(&signaling.Message{
			Type:      signaling.TypeICE,
			Target:    target,
			Candidate: raw,
			ViewerID:  viewerID,
		})
	})
}

// addRemoteCandidate applies a relayed candidate, or queues it.
func (p *peer) addRemoteCandidate(raw json.RawMessage) {
	var init pion.ICECandidateInit
	if err := json.Unmarshal(raw, &init); err != nil {
		p.log.Debug("ignoring malformed candidate", "err", err)
		return
	}

	p.mu.Lock()
	if !p.remoteSet {
		p.pending = append(p.pending, init)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if err := p.pc.AddICECandidate(init); err != nil {
		p.log.Debug("add candidate failed", "err", err)
	}
}

// setRemote applies the remote description and flushes queued candidates.
func (p *peer) setRemote(typ pion.SDPType, sdp string) error {
	if err := p.pc.SetRemoteDescription(pion.SessionDescription{Type: typ, SDP: sdp}); err != nil {
		return err
	}

	p.mu.Lock()
	p.remoteSet = true
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, c := range pending {
		if err := p.pc.AddICECandidate(c); err != nil {
			p.log.Debug("add queued candidate failed", "err", err)
		}
	}
	return nil
}

func (p *peer) close() {
	if err := p.pc.Close(); err != nil {
		p.log.Debug("close peer connection", "err", err)
	}
}

func encodeSDP(sdp string) json.RawMessage {
	raw, _ := json.Marshal(sdp)
	return raw
}

func decodeSDP(raw json.RawMessage) (string, error) {
	var sdp string
	err := json.Unmarshal(raw, &sdp)
	return sdp, err
}
