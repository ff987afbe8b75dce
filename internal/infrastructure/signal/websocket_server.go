package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/123hpcomsetup-j/streamvibe/internal/core/domain"
	"github.com/123hpcomsetup-j/streamvibe/internal/core/services"
	"github.com/123hpcomsetup-j/streamvibe/pkg/config"
	"github.com/123hpcomsetup-j/streamvibe/pkg/validation"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ClientMessage is the single inbound message shape clients send over the
// socket. Type selects the handler; unused fields stay empty.
type ClientMessage struct {
	Type        string              `json:"type"`
	StreamID    domain.StreamID     `json:"stream_id,omitempty"`
	Target      domain.ConnectionID `json:"target,omitempty"`
	DisplayName string              `json:"display_name,omitempty"`
	Text        string              `json:"text,omitempty"`
	Amount      int64               `json:"amount,omitempty"`
	Payload     json.RawMessage     `json:"payload,omitempty"`
}

// WebSocketServer is the transport edge: it upgrades sockets, authenticates
// the participant, registers the connection with the coordinator and pumps
// inbound events into it. All session state lives in the coordinator.
type WebSocketServer struct {
	coordinator *services.Coordinator
	verifier    *TokenVerifier
	logger      *zap.SugaredLogger

	pingInterval      time.Duration
	pongTimeout       time.Duration
	writeTimeout      time.Duration
	messagesPerSecond float64
	burst             int
	maxMessageBytes   int64
	allowGuests       bool
}

func NewWebSocketServer(coordinator *services.Coordinator, verifier *TokenVerifier, cfg *config.Config, logger *zap.SugaredLogger) *WebSocketServer {
	return &WebSocketServer{
		coordinator:       coordinator,
		verifier:          verifier,
		logger:            logger,
		pingInterval:      cfg.Signal.PingInterval,
		pongTimeout:       cfg.Signal.PongTimeout,
		writeTimeout:      cfg.Signal.WriteTimeout,
		messagesPerSecond: cfg.Signal.MessagesPerSecond,
		burst:             cfg.Signal.Burst,
		maxMessageBytes:   cfg.Signal.MaxMessageBytes,
		allowGuests:       cfg.Auth.AllowGuestViewers,
	}
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	role := domain.Role(r.URL.Query().Get("role"))
	if role == "" {
		role = domain.RoleViewer
	}
	if role != domain.RoleCreator && role != domain.RoleViewer {
		http.Error(w, "invalid role", http.StatusBadRequest)
		return
	}

	identity, err := s.authenticate(r, role)
	if err != nil {
		s.logger.Infow("websocket auth rejected", "role", role, "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if s.maxMessageBytes > 0 {
		conn.SetReadLimit(s.maxMessageBytes)
	}

	sender := newWSSender(conn, s.writeTimeout)
	connID := s.coordinator.Connect(identity, role, sender)

	sender.Send(domain.ServerEvent{
		Type: domain.EventWelcome,
		From: connID,
	})

	conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
		return nil
	})

	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()

	messageChan := make(chan ClientMessage, 10)
	errorChan := make(chan error, 1)
	done := make(chan struct{})

	// The reader selects on done for every send, so it can never stay
	// blocked on a full channel once the event loop has exited.
	go func() {
		for {
			var msg ClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				select {
				case errorChan <- err:
				case <-done:
				}
				return
			}
			conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
			select {
			case messageChan <- msg:
			case <-done:
				return
			}
		}
	}()

	limiter := rate.NewLimiter(rate.Limit(s.messagesPerSecond), s.burst)

	for {
		select {
		case msg := <-messageChan:
			if !limiter.Allow() {
				s.sendError(sender, "rate limit exceeded")
				continue
			}
			if err := s.handleMessage(connID, msg); err != nil {
				s.logger.Infow("error handling message",
					"connection", connID,
					"type", msg.Type,
					"error", err,
				)
				s.sendError(sender, err.Error())
			}

		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Infow("error sending ping", "connection", connID, "error", err)
				goto cleanup
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Infow("error reading message", "connection", connID, "error", err)
			}
			goto cleanup
		}
	}

cleanup:
	close(done)
	s.coordinator.Disconnect(connID)
	s.logger.Infow("connection closed", "connection", connID)
}

// authenticate resolves the participant identity. Creators always present a
// platform session token; viewers may connect as guests when allowed.
func (s *WebSocketServer) authenticate(r *http.Request, role domain.Role) (domain.IdentityID, error) {
	token := r.URL.Query().Get("token")
	if token != "" {
		claims, err := s.verifier.Verify(token)
		if err != nil {
			return "", err
		}
		return domain.IdentityID(claims.UserID), nil
	}

	if role == domain.RoleCreator {
		return "", errors.New("creators must authenticate")
	}
	if !s.allowGuests {
		return "", errors.New("guest viewers are disabled")
	}
	return domain.IdentityID("guest-" + uuid.NewString()), nil
}

func (s *WebSocketServer) handleMessage(connID domain.ConnectionID, msg ClientMessage) error {
	switch msg.Type {
	case "start-stream":
		return s.handleStartStream(connID, msg)
	case "stop-stream":
		return s.coordinator.StopStream(connID, msg.StreamID)
	case "join-stream":
		if err := validation.ValidateStreamID(string(msg.StreamID)); err != nil {
			return err
		}
		return s.coordinator.JoinStream(connID, msg.StreamID)
	case "leave-stream":
		s.coordinator.LeaveStream(connID, msg.StreamID)
		return nil
	case "offer":
		return s.coordinator.Signal(domain.SignalOffer, connID, msg.Target, msg.Payload)
	case "answer":
		return s.coordinator.Signal(domain.SignalAnswer, connID, msg.Target, msg.Payload)
	case "ice-candidate":
		return s.coordinator.Signal(domain.SignalICECandidate, connID, msg.Target, msg.Payload)
	case "chat-message":
		_, err := s.coordinator.PostChat(connID, msg.DisplayName, msg.Text, 0)
		return err
	case "send-tip":
		_, err := s.coordinator.PostChat(connID, msg.DisplayName, msg.Text, msg.Amount)
		return err
	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

func (s *WebSocketServer) handleStartStream(connID domain.ConnectionID, msg ClientMessage) error {
	if err := validation.ValidateStreamID(string(msg.StreamID)); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cred, err := s.coordinator.StartStream(ctx, connID, msg.StreamID)
	if err != nil {
		return err
	}

	s.coordinator.Registry().Send(connID, domain.ServerEvent{
		Type:       domain.EventStreamStarted,
		StreamID:   msg.StreamID,
		Credential: cred,
	})
	return nil
}

func (s *WebSocketServer) sendError(sender *wsSender, message string) {
	sender.Send(domain.ServerEvent{
		Type:    domain.EventError,
		Message: message,
	})
}
