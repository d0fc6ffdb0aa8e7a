package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/relay/internal/logging"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed session lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes the turns of each session so history is read and
// appended by one request at a time. It uses reference counting to garbage
// collect unused locks.
type Manager struct {
	memory ports.ChatMemory

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker       ports.DistributedLocker // Optional distributed locker
	lockTTL      time.Duration
	historyLimit int
	logger       *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithHistoryLimit caps the prior messages handed to a turn to the most
// recent n. Zero means no limit. Stored history is never truncated.
func WithHistoryLimit(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.historyLimit = n
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Session Manager over the given chat memory.
func NewManager(memory ports.ChatMemory, opts ...Option) *Manager {
	m := &Manager{
		memory:  memory,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// TurnFunc answers one turn given the session's prior messages. The messages
// it returns are appended to the session's history.
type TurnFunc func(ctx context.Context, history []domain.Message) ([]domain.Message, error)

// Turn runs fn under the session lock. The history is appended only when fn
// succeeds, so a failed turn leaves memory untouched.
func (m *Manager) Turn(ctx context.Context, sessionID string, fn TurnFunc) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		history, err := m.memory.Messages(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		if m.historyLimit > 0 && len(history) > m.historyLimit {
			history = history[len(history)-m.historyLimit:]
		}

		msgs, err := fn(ctx, history)
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			return nil
		}
		if err := m.memory.Append(ctx, sessionID, msgs...); err != nil {
			return fmt.Errorf("failed to persist turn: %w", err)
		}
		return nil
	})
}

// History returns the stored messages of a session.
func (m *Manager) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	var msgs []domain.Message
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		msgs, err = m.memory.Messages(ctx, sessionID)
		return err
	})
	return msgs, err
}

// Clear removes the history of a session.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.memory.Clear(ctx, sessionID)
	})
}

// List delegates to the memory.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.memory.List(ctx)
}

// Memory returns the underlying chat memory.
func (m *Manager) Memory() ports.ChatMemory {
	return m.memory
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The turn's ctx may be done by now; release on a fresh one.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
