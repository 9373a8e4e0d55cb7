package assistant

import "sync"

// ConversationStore keeps the ordered message log for one session.
// Append-only: existing entries are never edited or removed, and
// sequence numbers restart from zero on reset.
type ConversationStore struct {
	mu   sync.Mutex
	msgs []ChatMessage
	next int
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{}
}

// Append adds a message to the end of the log and assigns it the next
// sequence number. It never fails.
func (s *ConversationStore) Append(role Role, content string) ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := ChatMessage{Role: role, Content: content, Sequence: s.next}
	s.next++
	s.msgs = append(s.msgs, msg)
	return msg
}

// Reset clears the log. A non-empty seed becomes a single assistant
// message with sequence 0.
func (s *ConversationStore) Reset(seed string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = nil
	s.next = 0
	if seed != "" {
		s.msgs = append(s.msgs, ChatMessage{Role: RoleAssistant, Content: seed, Sequence: 0})
		s.next = 1
	}
}

// Messages returns a copy of the log in append order.
func (s *ConversationStore) Messages() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatMessage, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func (s *ConversationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}
