package http

import (
	"net/http"
	"time"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"
	"github.com/123hpcomsetup-j/streamvibe/internal/core/services"
	apperrors "github.com/123hpcomsetup-j/streamvibe/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v3"
)

// StreamHandler is the read-only REST surface over the live coordinator
// state: dashboards and viewer UIs poll it, all mutation happens over the
// websocket.
type StreamHandler struct {
	coordinator *services.Coordinator
	iceServers  []webrtc.ICEServer
}

func NewStreamHandler(coordinator *services.Coordinator, iceServers []webrtc.ICEServer) *StreamHandler {
	return &StreamHandler{
		coordinator: coordinator,
		iceServers:  iceServers,
	}
}

func (h *StreamHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/streams", h.ListStreams)
		api.GET("/streams/:id", h.GetStream)
		api.GET("/streams/:id/chat", h.GetChatHistory)
		api.GET("/webrtc/ice-servers", h.GetICEServers)
	}
	router.GET("/healthz", h.Health)
}

type streamSummary struct {
	StreamID    domain.StreamID      `json:"stream_id"`
	Transport   domain.TransportKind `json:"transport"`
	Channel     string               `json:"channel"`
	ViewerCount int                  `json:"viewer_count"`
	StartedAt   time.Time            `json:"started_at"`
}

func summarize(sess *domain.StreamSession) streamSummary {
	return streamSummary{
		StreamID:    sess.ID,
		Transport:   sess.Transport,
		Channel:     sess.Channel,
		ViewerCount: sess.ViewerCount(),
		StartedAt:   sess.StartedAt,
	}
}

func (h *StreamHandler) ListStreams(c *gin.Context) {
	live := h.coordinator.Table().Live()

	streams := make([]streamSummary, 0, len(live))
	for _, sess := range live {
		streams = append(streams, summarize(sess))
	}

	c.JSON(http.StatusOK, gin.H{
		"streams": streams,
	})
}

func (h *StreamHandler) GetStream(c *gin.Context) {
	streamID := domain.StreamID(c.Param("id"))

	sess, ok := h.coordinator.Table().Get(streamID)
	if !ok {
		appErr := apperrors.NewNotFoundError("stream")
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stream": summarize(sess),
	})
}

func (h *StreamHandler) GetChatHistory(c *gin.Context) {
	streamID := domain.StreamID(c.Param("id"))

	sess, ok := h.coordinator.Table().Get(streamID)
	if !ok {
		appErr := apperrors.NewNotFoundError("stream")
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stream_id": streamID,
		"events":    sess.History().Events(),
	})
}

func (h *StreamHandler) GetICEServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ice_servers": h.iceServers,
	})
}

func (h *StreamHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().Unix(),
		"connections": h.coordinator.Registry().Len(),
		"streams":     h.coordinator.Table().Len(),
	})
}
