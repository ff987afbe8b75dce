package domain

import "time"

// StreamSession is the in-memory record of one currently-broadcasting stream.
// It exists iff the creator connection is live and has not issued a stop. The
// session exclusively owns its viewer set and chat history; callers mutate it
// only through the session table.
type StreamSession struct {
	ID          StreamID
	CreatorConn ConnectionID
	Transport   TransportKind
	Channel     string
	StartedAt   time.Time

	viewers map[ConnectionID]struct{}
	history *ChatHistory
}

func NewStreamSession(id StreamID, creator ConnectionID, transport TransportKind, channel string, historyCapacity int) *StreamSession {
	return &StreamSession{
		ID:          id,
		CreatorConn: creator,
		Transport:   transport,
		Channel:     channel,
		StartedAt:   time.Now(),
		viewers:     make(map[ConnectionID]struct{}),
		history:     NewChatHistory(historyCapacity),
	}
}

// AddViewer adds a viewer with set semantics: re-adding an existing member
// reports false and changes nothing.
func (s *StreamSession) AddViewer(id ConnectionID) bool {
	if _, ok := s.viewers[id]; ok {
		return false
	}
	s.viewers[id] = struct{}{}
	return true
}

// RemoveViewer reports whether the viewer was actually a member, so duplicate
// leave and disconnect events can never drive the count negative.
func (s *StreamSession) RemoveViewer(id ConnectionID) bool {
	if _, ok := s.viewers[id]; !ok {
		return false
	}
	delete(s.viewers, id)
	return true
}

func (s *StreamSession) HasViewer(id ConnectionID) bool {
	_, ok := s.viewers[id]
	return ok
}

// ViewerCount is derived from the viewer set, so it always equals the set's
// cardinality.
func (s *StreamSession) ViewerCount() int {
	return len(s.viewers)
}

func (s *StreamSession) Viewers() []ConnectionID {
	out := make([]ConnectionID, 0, len(s.viewers))
	for id := range s.viewers {
		out = append(out, id)
	}
	return out
}

func (s *StreamSession) History() *ChatHistory {
	return s.history
}
