package domain

import "time"

type ConnectionID string
type StreamID string
type IdentityID string

type Role string

const (
	RoleCreator Role = "creator"
	RoleViewer  Role = "viewer"
)

// TransportKind selects how media actually flows once signaling completes.
// The coordinator never touches media; the kind only changes the credential
// exchange on start/stop.
type TransportKind string

const (
	TransportPeerToPeer  TransportKind = "p2p"
	TransportManagedSDK  TransportKind = "managed"
	TransportIngestRelay TransportKind = "ingest"
)

// Connection is the live handle for one participant socket. Owned exclusively
// by the connection registry; StreamID is a non-owning back-reference, empty
// until the connection starts or joins a stream.
type Connection struct {
	ID          ConnectionID
	Identity    IdentityID
	Role        Role
	StreamID    StreamID
	ConnectedAt time.Time
}
