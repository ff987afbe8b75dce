package domain

import (
	"encoding/json"
	"time"

	"github.com/pion/webrtc/v3"
)

type SignalKind string

const (
	SignalOffer        SignalKind = "offer"
	SignalAnswer       SignalKind = "answer"
	SignalICECandidate SignalKind = "ice-candidate"
)

// SignalEnvelope is a transient handshake message routed between exactly two
// connections. The payload is passed through unexamined and never persisted.
type SignalEnvelope struct {
	From    ConnectionID    `json:"from"`
	To      ConnectionID    `json:"to"`
	Kind    SignalKind      `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// StreamCredential is the opaque result of the per-transport credential
// exchange performed on start-stream. Which fields are populated depends on
// the transport kind.
type StreamCredential struct {
	Transport   TransportKind      `json:"transport"`
	Channel     string             `json:"channel"`
	Token       string             `json:"token,omitempty"`
	IngestURL   string             `json:"ingest_url,omitempty"`
	PlaybackURL string             `json:"playback_url,omitempty"`
	ICEServers  []webrtc.ICEServer `json:"ice_servers,omitempty"`
	ExpiresAt   time.Time          `json:"expires_at,omitempty"`
}

type EventType string

const (
	EventWelcome       EventType = "welcome"
	EventStreamStarted EventType = "stream-started"
	EventStreamEnded   EventType = "stream-ended"
	EventViewerJoined  EventType = "viewer-joined"
	EventViewerCount   EventType = "viewer-count-update"
	EventChatMessage   EventType = "chat-message"
	EventTipReceived   EventType = "tip-received"
	EventOffer         EventType = "offer"
	EventAnswer        EventType = "answer"
	EventICECandidate  EventType = "ice-candidate"
	EventError         EventType = "error"
)

// ServerEvent is the single outbound message shape the coordinator emits
// toward the transport layer.
type ServerEvent struct {
	Type       EventType         `json:"type"`
	StreamID   StreamID          `json:"stream_id,omitempty"`
	From       ConnectionID      `json:"from,omitempty"`
	Viewer     ConnectionID      `json:"viewer,omitempty"`
	Count      int               `json:"count"`
	Chat       *ChatEvent        `json:"chat,omitempty"`
	Credential *StreamCredential `json:"credential,omitempty"`
	Payload    json.RawMessage   `json:"payload,omitempty"`
	Message    string            `json:"message,omitempty"`
}
