// Package progress implements the Progress Sink collaborator
// (spec.md 6): a small Publish(run_id, progress) capability the
// supervisor calls, decoupled from any specific transport. Two
// implementations are provided, matching spec.md's "WebSocket
// broadcaster and a REST-polling snapshot store are interchangeable":
// Broadcaster pushes over gorilla/websocket connections; SnapshotStore
// holds the latest progress per run for polling handlers. Grounded in
// the teacher's internal/data/ws connection-registry idiom and
// internal/log/progress.go's progress-reporting vocabulary.
package progress

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/jthadison/wyckvol/internal/supervisor"
)

// Broadcaster fans out progress updates to every WebSocket connection
// subscribed to a run_id. Sequence numbers are monotone per run
// (spec.md 6); Broadcaster itself does not enforce this — callers
// (the supervisor) are expected to increment once per Publish, as
// internal/backtest/wyckoff's Engine does.
type Broadcaster struct {
	mu      sync.RWMutex
	subs    map[string]map[*websocket.Conn]struct{}
}

// NewBroadcaster builds an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]map[*websocket.Conn]struct{})}
}

// Subscribe registers conn to receive progress for runID until
// Unsubscribe is called or the connection errors on write.
func (b *Broadcaster) Subscribe(runID string, conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[runID] == nil {
		b.subs[runID] = make(map[*websocket.Conn]struct{})
	}
	b.subs[runID][conn] = struct{}{}
}

// Unsubscribe removes conn from runID's subscriber set.
func (b *Broadcaster) Unsubscribe(runID string, conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs[runID], conn)
	if len(b.subs[runID]) == 0 {
		delete(b.subs, runID)
	}
}

// Publish implements supervisor.ProgressSink: write progress as JSON
// to every subscriber of runID, dropping (and unsubscribing) any
// connection whose write fails.
func (b *Broadcaster) Publish(runID string, p supervisor.Progress) {
	b.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(b.subs[runID]))
	for c := range b.subs[runID] {
		conns = append(conns, c)
	}
	b.mu.RUnlock()

	for _, c := range conns {
		if err := c.WriteJSON(p); err != nil {
			log.Warn().Str("run_id", runID).Err(err).Msg("progress broadcast failed, dropping subscriber")
			b.Unsubscribe(runID, c)
		}
	}
}

// SnapshotStore holds the latest Progress per run for REST-polling
// consumers: "a REST-polling snapshot store" of spec.md 6.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]supervisor.Progress
	updatedAt map[string]time.Time
}

// NewSnapshotStore builds an empty SnapshotStore.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string]supervisor.Progress),
		updatedAt: make(map[string]time.Time),
	}
}

// Publish implements supervisor.ProgressSink.
func (s *SnapshotStore) Publish(runID string, p supervisor.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[runID] = p
	s.updatedAt[runID] = time.Now()
}

// Snapshot returns the last published progress for runID.
func (s *SnapshotStore) Snapshot(runID string) (supervisor.Progress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.snapshots[runID]
	return p, ok
}

// Fanout publishes to every sink in order. Useful for wiring both a
// Broadcaster and a SnapshotStore to one supervisor, since
// supervisor.Supervisor takes a single ProgressSink.
type Fanout struct {
	Sinks []supervisor.ProgressSink
}

func (f Fanout) Publish(runID string, p supervisor.Progress) {
	for _, sink := range f.Sinks {
		sink.Publish(runID, p)
	}
}
