package chat

import (
	"fmt"
	"log/slog"
	"sync"
)

// Sessions hands out the transcript of each conversation, loading it from
// the store on first use and writing every appended message through.
// With a nil store conversations live only in memory.
type Sessions struct {
	store  *Store
	logger *slog.Logger

	mu    sync.Mutex
	convs map[string]*Transcript
}

// NewSessions creates a session table backed by store, which may be nil.
func NewSessions(store *Store, logger *slog.Logger) *Sessions {
	return &Sessions{
		store:  store,
		logger: logger.With("area", "chat"),
		convs:  make(map[string]*Transcript),
	}
}

// Get returns the transcript for convID, creating it when needed.
func (s *Sessions) Get(convID string) (*Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.convs[convID]; ok {
		return t, nil
	}

	t := NewTranscript(convID)
	if s.store != nil {
		loaded, err := s.store.Load(convID)
		if err != nil {
			return nil, err
		}
		t = loaded
	}
	s.convs[convID] = t
	return t, nil
}

// Messages returns the history of convID without keeping it in the
// table. Unknown ids yield no messages.
func (s *Sessions) Messages(convID string) ([]Message, error) {
	s.mu.Lock()
	t, ok := s.convs[convID]
	s.mu.Unlock()
	if ok {
		return t.Messages(), nil
	}
	if s.store == nil {
		return nil, nil
	}
	loaded, err := s.store.Load(convID)
	if err != nil {
		return nil, err
	}
	return loaded.Messages(), nil
}

// Len reports how many conversations are held in memory.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

// Append adds m to conversation convID and persists it.
func (s *Sessions) Append(convID string, m Message) error {
	t, err := s.Get(convID)
	if err != nil {
		return err
	}
	t.Append(m)

	if s.store != nil {
		if err := s.store.Append(convID, m); err != nil {
			return fmt.Errorf("persisting message: %w", err)
		}
	}
	s.logger.Debug("message appended", "conversation", convID, "sender", m.Sender, "len", t.Len())
	return nil
}
