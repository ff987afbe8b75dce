package signal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"
	"github.com/123hpcomsetup-j/streamvibe/internal/core/ports"
	"github.com/123hpcomsetup-j/streamvibe/internal/core/services"
	"github.com/123hpcomsetup-j/streamvibe/pkg/config"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "websocket-test-secret"

type loopbackGateway struct{}

func (loopbackGateway) Kind() domain.TransportKind { return domain.TransportPeerToPeer }

func (loopbackGateway) Grant(_ context.Context, streamID domain.StreamID, _ domain.IdentityID) (*domain.StreamCredential, error) {
	return &domain.StreamCredential{
		Transport: domain.TransportPeerToPeer,
		Channel:   string(streamID),
	}, nil
}

func (loopbackGateway) Revoke(context.Context, domain.StreamID) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *services.Coordinator) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Auth.JWTSecret = testSecret
	cfg.Signal.PingInterval = 50 * time.Millisecond
	cfg.Signal.PongTimeout = 2 * time.Second

	coordinator := services.NewCoordinator(nil, loopbackGateway{}, nil, ports.NopTelemetry{}, zap.NewNop().Sugar(), services.CoordinatorConfig{
		HistoryCapacity: cfg.Chat.HistoryCapacity,
		MaxMessageLen:   cfg.Chat.MaxMessageLength,
		MaxTipAmount:    cfg.Chat.MaxTipAmount,
	})

	ws := NewWebSocketServer(coordinator, NewTokenVerifier(testSecret), cfg, zap.NewNop().Sugar())
	srv := httptest.NewServer(http.HandlerFunc(ws.HandleWebSocket))
	t.Cleanup(srv.Close)
	return srv, coordinator
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEvent drains the socket until an event of the wanted type arrives.
// Interleaved broadcasts (counts, presence) make strict ordering assertions
// brittle here; the coordinator tests pin ordering.
func readEvent(t *testing.T, conn *websocket.Conn, want domain.EventType) domain.ServerEvent {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var ev domain.ServerEvent
		require.NoError(t, conn.ReadJSON(&ev), "waiting for %s", want)
		if ev.Type == want {
			return ev
		}
	}
}

func TestHandleWebSocket_GuestViewerWelcome(t *testing.T) {
	srv, _ := newTestServer(t)

	conn := dial(t, srv, "role=viewer")
	welcome := readEvent(t, conn, domain.EventWelcome)

	assert.NotEmpty(t, welcome.From, "welcome carries the assigned connection id")
}

func TestHandleWebSocket_CreatorRequiresToken(t *testing.T) {
	srv, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?role=creator"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleWebSocket_InvalidRoleRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?role=admin"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleWebSocket_StartStreamReturnsCredential(t *testing.T) {
	srv, coordinator := newTestServer(t)

	token := signToken(t, testSecret, "alice", time.Now().Add(time.Hour))
	conn := dial(t, srv, "role=creator&token="+token)
	readEvent(t, conn, domain.EventWelcome)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "start-stream", StreamID: "alice-show"}))
	started := readEvent(t, conn, domain.EventStreamStarted)

	assert.Equal(t, domain.StreamID("alice-show"), started.StreamID)
	require.NotNil(t, started.Credential)
	assert.Equal(t, domain.TransportPeerToPeer, started.Credential.Transport)

	_, ok := coordinator.Table().Get("alice-show")
	assert.True(t, ok)
}

func TestHandleWebSocket_InvalidStreamIDRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	token := signToken(t, testSecret, "alice", time.Now().Add(time.Hour))
	conn := dial(t, srv, "role=creator&token="+token)
	readEvent(t, conn, domain.EventWelcome)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "start-stream", StreamID: "no spaces allowed"}))
	errEv := readEvent(t, conn, domain.EventError)
	assert.NotEmpty(t, errEv.Message)
}

func TestHandleWebSocket_ViewerJoinAndChat(t *testing.T) {
	srv, _ := newTestServer(t)

	token := signToken(t, testSecret, "alice", time.Now().Add(time.Hour))
	creator := dial(t, srv, "role=creator&token="+token)
	readEvent(t, creator, domain.EventWelcome)
	require.NoError(t, creator.WriteJSON(ClientMessage{Type: "start-stream", StreamID: "alice-show"}))
	readEvent(t, creator, domain.EventStreamStarted)

	viewer := dial(t, srv, "role=viewer")
	readEvent(t, viewer, domain.EventWelcome)
	require.NoError(t, viewer.WriteJSON(ClientMessage{Type: "join-stream", StreamID: "alice-show"}))

	joined := readEvent(t, creator, domain.EventViewerJoined)
	assert.Equal(t, domain.StreamID("alice-show"), joined.StreamID)
	count := readEvent(t, viewer, domain.EventViewerCount)
	assert.Equal(t, 1, count.Count)

	require.NoError(t, viewer.WriteJSON(ClientMessage{
		Type:        "chat-message",
		DisplayName: "BobTheFan",
		Text:        "hello from the couch",
	}))

	chat := readEvent(t, creator, domain.EventChatMessage)
	require.NotNil(t, chat.Chat)
	assert.Equal(t, "BobTheFan", chat.Chat.DisplayName)
	assert.Equal(t, "hello from the couch", chat.Chat.Text)
}

func TestHandleWebSocket_JoinUnknownStreamReportsError(t *testing.T) {
	srv, _ := newTestServer(t)

	viewer := dial(t, srv, "role=viewer")
	readEvent(t, viewer, domain.EventWelcome)

	require.NoError(t, viewer.WriteJSON(ClientMessage{Type: "join-stream", StreamID: "ghost-show"}))
	errEv := readEvent(t, viewer, domain.EventError)
	assert.Contains(t, errEv.Message, "stream")
}

func TestHandleWebSocket_DisconnectCleansUp(t *testing.T) {
	srv, coordinator := newTestServer(t)

	token := signToken(t, testSecret, "alice", time.Now().Add(time.Hour))
	creator := dial(t, srv, "role=creator&token="+token)
	readEvent(t, creator, domain.EventWelcome)
	require.NoError(t, creator.WriteJSON(ClientMessage{Type: "start-stream", StreamID: "alice-show"}))
	readEvent(t, creator, domain.EventStreamStarted)

	viewer := dial(t, srv, "role=viewer")
	readEvent(t, viewer, domain.EventWelcome)
	require.NoError(t, viewer.WriteJSON(ClientMessage{Type: "join-stream", StreamID: "alice-show"}))
	readEvent(t, creator, domain.EventViewerJoined)

	// Abrupt close, no leave-stream message.
	viewer.Close()

	require.Eventually(t, func() bool {
		sess, ok := coordinator.Table().Get("alice-show")
		return ok && sess.ViewerCount() == 0
	}, 2*time.Second, 20*time.Millisecond)

	count := readEvent(t, creator, domain.EventViewerCount)
	assert.Equal(t, 0, count.Count, "disconnect restores the count")
}

// An abrupt close with a burst of messages still queued must not wedge the
// handler: the reader goroutine exits and disconnect cleanup runs.
func TestHandleWebSocket_AbruptCloseWithPendingMessages(t *testing.T) {
	srv, coordinator := newTestServer(t)

	token := signToken(t, testSecret, "alice", time.Now().Add(time.Hour))
	creator := dial(t, srv, "role=creator&token="+token)
	readEvent(t, creator, domain.EventWelcome)
	require.NoError(t, creator.WriteJSON(ClientMessage{Type: "start-stream", StreamID: "alice-show"}))
	readEvent(t, creator, domain.EventStreamStarted)

	viewer := dial(t, srv, "role=viewer")
	readEvent(t, viewer, domain.EventWelcome)
	require.NoError(t, viewer.WriteJSON(ClientMessage{Type: "join-stream", StreamID: "alice-show"}))

	for i := 0; i < 30; i++ {
		require.NoError(t, viewer.WriteJSON(ClientMessage{
			Type: "chat-message",
			Text: "rapid fire",
		}))
	}
	viewer.Close()
	creator.Close()

	require.Eventually(t, func() bool {
		return coordinator.Registry().Len() == 0
	}, 3*time.Second, 20*time.Millisecond)
}

func TestHandleWebSocket_UnknownMessageType(t *testing.T) {
	srv, _ := newTestServer(t)

	viewer := dial(t, srv, "role=viewer")
	readEvent(t, viewer, domain.EventWelcome)

	require.NoError(t, viewer.WriteJSON(ClientMessage{Type: "subscribe"}))
	errEv := readEvent(t, viewer, domain.EventError)
	assert.Contains(t, errEv.Message, "unknown message type")
}
