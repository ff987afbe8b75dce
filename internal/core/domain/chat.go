package domain

import "time"

// ChatEvent is one chat line or tip notification. Immutable once appended to
// a session's history. TipAmount is in platform tokens, 0 means plain chat.
type ChatEvent struct {
	StreamID    StreamID  `json:"stream_id"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	Text        string    `json:"text"`
	TipAmount   int64     `json:"tip_amount"`
	SentAt      time.Time `json:"sent_at"`
}

// ChatHistory is a bounded, ordered buffer of chat events, newest last.
// Appending at capacity evicts the oldest entry.
type ChatHistory struct {
	events   []ChatEvent
	capacity int
}

func NewChatHistory(capacity int) *ChatHistory {
	if capacity < 1 {
		capacity = 1
	}
	return &ChatHistory{
		events:   make([]ChatEvent, 0, capacity),
		capacity: capacity,
	}
}

func (h *ChatHistory) Append(ev ChatEvent) {
	if len(h.events) == h.capacity {
		copy(h.events, h.events[1:])
		h.events[len(h.events)-1] = ev
		return
	}
	h.events = append(h.events, ev)
}

// Events returns a copy of the history, oldest first.
func (h *ChatHistory) Events() []ChatEvent {
	out := make([]ChatEvent, len(h.events))
	copy(out, h.events)
	return out
}

func (h *ChatHistory) Len() int {
	return len(h.events)
}

func (h *ChatHistory) Capacity() int {
	return h.capacity
}
