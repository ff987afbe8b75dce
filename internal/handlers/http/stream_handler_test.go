package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"
	"github.com/123hpcomsetup-j/streamvibe/internal/core/ports"
	"github.com/123hpcomsetup-j/streamvibe/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type nopSender struct{}

func (nopSender) Send(interface{}) error { return nil }

type staticGateway struct{}

func (staticGateway) Kind() domain.TransportKind { return domain.TransportPeerToPeer }

func (staticGateway) Grant(_ context.Context, streamID domain.StreamID, _ domain.IdentityID) (*domain.StreamCredential, error) {
	return &domain.StreamCredential{Transport: domain.TransportPeerToPeer, Channel: string(streamID)}, nil
}

func (staticGateway) Revoke(context.Context, domain.StreamID) error { return nil }

func setupRouter(t *testing.T) (*gin.Engine, *services.Coordinator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	coordinator := services.NewCoordinator(nil, staticGateway{}, nil, ports.NopTelemetry{}, zap.NewNop().Sugar(), services.CoordinatorConfig{
		HistoryCapacity: 50,
		MaxMessageLen:   500,
		MaxTipAmount:    100000,
	})

	router := gin.New()
	handler := NewStreamHandler(coordinator, []webrtc.ICEServer{
		{URLs: []string{"stun:stun.example.com:3478"}},
	})
	handler.SetupRoutes(router)
	return router, coordinator
}

func goLive(t *testing.T, c *services.Coordinator, streamID domain.StreamID) domain.ConnectionID {
	t.Helper()

	creator := c.Connect("alice", domain.RoleCreator, nopSender{})
	_, err := c.StartStream(context.Background(), creator, streamID)
	require.NoError(t, err)
	return creator
}

func doRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestListStreams(t *testing.T) {
	router, coordinator := setupRouter(t)
	goLive(t, coordinator, "alice-show")

	w := doRequest(router, http.MethodGet, "/api/v1/streams")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Streams []struct {
			StreamID    string `json:"stream_id"`
			Transport   string `json:"transport"`
			ViewerCount int    `json:"viewer_count"`
		} `json:"streams"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Streams, 1)
	assert.Equal(t, "alice-show", body.Streams[0].StreamID)
	assert.Equal(t, "p2p", body.Streams[0].Transport)
	assert.Equal(t, 0, body.Streams[0].ViewerCount)
}

func TestListStreams_EmptyIsArray(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/streams")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"streams":[]}`, w.Body.String())
}

func TestGetStream(t *testing.T) {
	router, coordinator := setupRouter(t)
	goLive(t, coordinator, "alice-show")

	viewer := coordinator.Connect("bob", domain.RoleViewer, nopSender{})
	require.NoError(t, coordinator.JoinStream(viewer, "alice-show"))

	w := doRequest(router, http.MethodGet, "/api/v1/streams/alice-show")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Stream struct {
			ViewerCount int `json:"viewer_count"`
		} `json:"stream"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Stream.ViewerCount)
}

func TestGetStream_NotFound(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/streams/ghost-show")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetChatHistory(t *testing.T) {
	router, coordinator := setupRouter(t)
	goLive(t, coordinator, "alice-show")

	viewer := coordinator.Connect("bob", domain.RoleViewer, nopSender{})
	require.NoError(t, coordinator.JoinStream(viewer, "alice-show"))
	_, err := coordinator.PostChat(viewer, "bob", "first!", 0)
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/api/v1/streams/alice-show/chat")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Events []struct {
			Text string `json:"text"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Events, 1)
	assert.Equal(t, "first!", body.Events[0].Text)
}

func TestGetICEServers(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/webrtc/ice-servers")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stun:stun.example.com:3478")
}

func TestHealth(t *testing.T) {
	router, coordinator := setupRouter(t)
	goLive(t, coordinator, "alice-show")

	w := doRequest(router, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status      string `json:"status"`
		Connections int    `json:"connections"`
		Streams     int    `json:"streams"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, 1, body.Connections)
	assert.Equal(t, 1, body.Streams)
}
