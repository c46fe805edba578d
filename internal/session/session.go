package session

import (
	"sync"
	"time"

	"docuchat/internal/models"
	"docuchat/internal/vecindex"
)

// Session binds one uploaded document's chunks, vector index and
// conversation history to an opaque identifier. Chunks and index are
// populated once at creation and never mutated afterwards; ordinal i of the
// index always maps to chunks[i].
type Session struct {
	id        string
	chunks    []models.Chunk
	index     *vecindex.Flat
	createdAt time.Time

	mu       sync.Mutex
	history  []models.ChatTurn
	lastUsed time.Time
}

func (s *Session) ID() string             { return s.id }
func (s *Session) Chunks() []models.Chunk { return s.chunks }
func (s *Session) Index() *vecindex.Flat  { return s.index }
func (s *Session) CreatedAt() time.Time   { return s.createdAt }

// History returns a copy of the conversation history in chronological order.
func (s *Session) History() []models.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatTurn, len(s.history))
	copy(out, s.history)
	return out
}

// AppendTurn adds a single turn to the history.
func (s *Session) AppendTurn(role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, models.ChatTurn{Role: role, Text: text})
}

// AppendExchange records a question and its answer as one unit, so
// concurrent exchanges on the same session cannot interleave and break the
// user/assistant alternation.
func (s *Session) AppendExchange(question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history,
		models.ChatTurn{Role: models.RoleUser, Text: question},
		models.ChatTurn{Role: models.RoleAssistant, Text: answer},
	)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = now
}

func (s *Session) lastUsedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}
