// Package broadcast fans freshly computed snapshots out to connected
// sessions.
//
// Every push is a full snapshot; there is no per-session diffing. That
// makes dropped deliveries harmless, since a session that misses a push is
// made whole by the next one, so a stalled consumer never blocks the fan-out.
package broadcast

import (
	"log/slog"
	"sync"

	"github.com/fentz26/stageboard/internal/models"
	"github.com/google/uuid"
)

// Mode tags a session's capability. View sessions receive every broadcast
// but their commands are rejected at the command layer; the broadcaster
// itself does not filter by mode.
type Mode string

const (
	ModeView Mode = "view"
	ModeEdit Mode = "edit"
)

// Each session buffers a handful of snapshots; when the buffer is full the
// oldest is dropped in favour of the newest.
const sessionBuffer = 8

// Session is one connected client.
type Session struct {
	ID   uuid.UUID
	Mode Mode
	ch   chan models.Snapshot
}

// Updates is the stream of snapshots for this session. It is closed when
// the session leaves the broadcaster.
func (s *Session) Updates() <-chan models.Snapshot {
	return s.ch
}

// Broadcaster maintains the set of connected sessions and pushes snapshots
// to all of them.
type Broadcaster struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	logger   *slog.Logger
}

// New creates an empty broadcaster.
func New(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		sessions: make(map[uuid.UUID]*Session),
		logger:   logger,
	}
}

// Join registers a new session. The current snapshot is queued first, so a
// client connecting mid-run sees the live state before any broadcast.
func (b *Broadcaster) Join(mode Mode, current models.Snapshot) *Session {
	sess := &Session{
		ID:   uuid.New(),
		Mode: mode,
		ch:   make(chan models.Snapshot, sessionBuffer),
	}
	sess.ch <- current

	b.mu.Lock()
	b.sessions[sess.ID] = sess
	count := len(b.sessions)
	b.mu.Unlock()

	b.logger.Info("session joined", "session", sess.ID, "mode", string(mode), "sessions", count)
	return sess
}

// Leave removes a session and closes its update stream. Unknown IDs are a
// no-op, so transport teardown races are harmless.
func (b *Broadcaster) Leave(id uuid.UUID) {
	b.mu.Lock()
	sess, ok := b.sessions[id]
	if ok {
		delete(b.sessions, id)
		close(sess.ch)
	}
	count := len(b.sessions)
	b.mu.Unlock()

	if ok {
		b.logger.Info("session left", "session", id, "sessions", count)
	}
}

// Publish queues the snapshot for every connected session regardless of
// mode. Never blocks: a session with a full buffer has its oldest pending
// snapshot evicted.
func (b *Broadcaster) Publish(snap models.Snapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sess := range b.sessions {
		select {
		case sess.ch <- snap:
		default:
			select {
			case <-sess.ch:
			default:
			}
			select {
			case sess.ch <- snap:
			default:
			}
		}
	}
}

// Count reports the number of connected sessions.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}
