package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"docuchat/internal/models"
	"docuchat/internal/vecindex"
)

var (
	// ErrNotFound means an explicitly named session does not exist (it may
	// never have existed, or it was evicted).
	ErrNotFound = errors.New("session not found")

	// ErrNoSession means no session could be resolved at all: no explicit
	// identifier and no usable last-active fallback.
	ErrNoSession = errors.New("no session available")

	errEmptyDocument = errors.New("session requires at least one chunk")
	errCountMismatch = errors.New("chunk and embedding counts differ")
)

// Clock supplies the current time. Injected so lifecycle tests can control
// it.
type Clock func() time.Time

// IDGenerator returns a fresh opaque session identifier. Identifiers must
// be collision-resistant and unguessable; sessions hold private document
// content.
type IDGenerator func() string

// Options configure a Store. Zero values fall back to defaults.
type Options struct {
	// MaxSessions bounds the session population; the least recently used
	// session is evicted to make room. <= 0 means DefaultMaxSessions.
	MaxSessions int
	// TTL is the idle lifetime of a session, enforced by Sweep. <= 0 means
	// DefaultTTL.
	TTL time.Duration
	// FallbackLastActive resolves requests without an explicit session
	// identifier to the most recently created session. Only safe in
	// single-tenant deployments: with multiple users it attaches unrelated
	// clients to the same document.
	FallbackLastActive bool

	Clock Clock
	IDGen IDGenerator
}

const (
	DefaultMaxSessions = 100
	DefaultTTL         = time.Hour
)

// Store holds all live sessions. All state is process memory: a restart
// loses every session, by design.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	lastActive string
	opts       Options
}

func NewStore(opts Options) *Store {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.IDGen == nil {
		opts.IDGen = uuid.NewString
	}
	return &Store{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Create registers a new session holding the given chunks and one embedding
// per chunk, and points the last-active fallback at it. The session is
// fully populated before it becomes observable; on any error nothing is
// registered.
func (st *Store) Create(chunks []models.Chunk, embeddings [][]float32) (*Session, error) {
	if len(chunks) == 0 {
		return nil, errEmptyDocument
	}
	if len(chunks) != len(embeddings) {
		return nil, errCountMismatch
	}

	index := vecindex.NewFlat()
	if err := index.Add(embeddings); err != nil {
		return nil, err
	}

	now := st.opts.Clock()
	sess := &Session{
		chunks:    chunks,
		index:     index,
		createdAt: now,
		lastUsed:  now,
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	id := st.opts.IDGen()
	for _, exists := st.sessions[id]; exists; _, exists = st.sessions[id] {
		id = st.opts.IDGen()
	}
	sess.id = id
	st.evictOverCapLocked()
	st.sessions[id] = sess
	st.lastActive = id
	return sess, nil
}

// Get returns the session with the given identifier, refreshing its
// recency.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	sess.touch(st.opts.Clock())
	return sess, nil
}

// Resolve maps an optional explicit identifier to a session. An explicit
// identifier must match exactly (ErrNotFound otherwise, never a silent
// fallback). An absent identifier resolves to the most recently created
// session when the fallback policy is enabled; ErrNoSession when nothing is
// resolvable.
func (st *Store) Resolve(explicitID string) (*Session, error) {
	if explicitID != "" {
		return st.Get(explicitID)
	}
	if !st.opts.FallbackLastActive {
		return nil, ErrNoSession
	}

	st.mu.RLock()
	last := st.lastActive
	st.mu.RUnlock()
	if last == "" {
		return nil, ErrNoSession
	}
	sess, err := st.Get(last)
	if err != nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

// AppendTurn adds a turn to the named session's history.
func (st *Store) AppendTurn(id, role, text string) error {
	sess, err := st.Get(id)
	if err != nil {
		return err
	}
	sess.AppendTurn(role, text)
	return nil
}

// Count returns the current session population.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep evicts every session idle longer than the TTL and returns how many
// were removed. Chunks, index and history go together as one unit.
func (st *Store) Sweep() int {
	cutoff := st.opts.Clock().Add(-st.opts.TTL)

	st.mu.Lock()
	defer st.mu.Unlock()
	evicted := 0
	for id, sess := range st.sessions {
		if sess.lastUsedAt().Before(cutoff) {
			st.dropLocked(id)
			evicted++
		}
	}
	return evicted
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (st *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := st.Sweep(); n > 0 {
					log.Info().Int("evicted", n).Msg("Swept expired sessions")
				}
			}
		}
	}()
}

// evictOverCapLocked makes room for one more session by evicting the least
// recently used ones. Caller holds st.mu.
func (st *Store) evictOverCapLocked() {
	for len(st.sessions) >= st.opts.MaxSessions {
		var oldestID string
		var oldestAt time.Time
		for id, sess := range st.sessions {
			at := sess.lastUsedAt()
			if oldestID == "" || at.Before(oldestAt) {
				oldestID = id
				oldestAt = at
			}
		}
		if oldestID == "" {
			return
		}
		st.dropLocked(oldestID)
		log.Debug().Str("session_id", oldestID).Msg("Evicted least recently used session")
	}
}

func (st *Store) dropLocked(id string) {
	delete(st.sessions, id)
	if st.lastActive == id {
		st.lastActive = ""
	}
}
