package signal

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsSender serializes writes on one websocket connection. gorilla allows a
// single concurrent writer, and fan-out paths may target the same socket from
// different events.
type wsSender struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

func newWSSender(conn *websocket.Conn, writeTimeout time.Duration) *wsSender {
	return &wsSender{
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (s *wsSender) Send(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.conn.WriteJSON(v)
}
