package media

import (
	"context"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"

	"github.com/pion/webrtc/v3"
)

// PeerToPeerGateway covers the raw WebRTC path. There is no external token
// authority to talk to; the credential just hands the creator the ICE server
// set so both sides can gather candidates.
type PeerToPeerGateway struct {
	iceServers []webrtc.ICEServer
}

func NewPeerToPeerGateway(iceServers []webrtc.ICEServer) *PeerToPeerGateway {
	return &PeerToPeerGateway{iceServers: iceServers}
}

func (g *PeerToPeerGateway) Kind() domain.TransportKind {
	return domain.TransportPeerToPeer
}

func (g *PeerToPeerGateway) Grant(ctx context.Context, streamID domain.StreamID, identity domain.IdentityID) (*domain.StreamCredential, error) {
	return &domain.StreamCredential{
		Transport:  domain.TransportPeerToPeer,
		Channel:    string(streamID),
		ICEServers: g.iceServers,
	}, nil
}

func (g *PeerToPeerGateway) Revoke(ctx context.Context, streamID domain.StreamID) error {
	return nil
}
