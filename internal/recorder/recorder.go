// Package recorder captures sequential game snapshots from engine
// notifications so finished games can be replayed step by step or saved
// to disk.
package recorder

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spellground/spellground-go/internal/game"
	"go.uber.org/zap"
)

// Replay is a recorded game: an ordered list of spectator-view snapshots
// plus a playback cursor.
type Replay struct {
	GameID string
	States []*game.GameView
	cursor int
	mu     sync.RWMutex
}

// NewReplay creates an empty replay for a game.
func NewReplay(gameID string) *Replay {
	return &Replay{GameID: gameID}
}

// Record appends a snapshot.
func (r *Replay) Record(view *game.GameView) {
	if view == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.States = append(r.States, view)
}

// Rewind resets playback to the first snapshot.
func (r *Replay) Rewind() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursor = 0
}

// Next returns the snapshot at the cursor and moves forward, or nil at
// the end.
func (r *Replay) Next() *game.GameView {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor >= len(r.States) {
		return nil
	}
	state := r.States[r.cursor]
	r.cursor++
	return state
}

// Previous steps the cursor back and returns that snapshot, or nil at
// the start.
func (r *Replay) Previous() *game.GameView {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor == 0 {
		return nil
	}
	r.cursor--
	return r.States[r.cursor]
}

// Size returns the number of recorded snapshots.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.States)
}

// At returns the snapshot at index, or nil when out of range.
func (r *Replay) At(index int) *game.GameView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.States) {
		return nil
	}
	return r.States[index]
}

type replayHeader struct {
	GameID     string
	Timestamp  time.Time
	Version    int
	StateCount int
}

// Save writes the replay to <directory>/<gameID>.replay as gzipped gob.
func (r *Replay) Save(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("create replay directory: %w", err)
	}
	filename := filepath.Join(directory, r.GameID+".replay")
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create replay file: %w", err)
	}
	defer file.Close()

	zw := gzip.NewWriter(file)
	defer zw.Close()
	enc := gob.NewEncoder(zw)

	header := replayHeader{
		GameID:     r.GameID,
		Timestamp:  time.Now(),
		Version:    1,
		StateCount: len(r.States),
	}
	if err := enc.Encode(&header); err != nil {
		return fmt.Errorf("encode replay header: %w", err)
	}
	for i, state := range r.States {
		if err := enc.Encode(state); err != nil {
			return fmt.Errorf("encode snapshot %d: %w", i, err)
		}
	}
	return nil
}

// Load reads a replay saved by Save.
func Load(directory, gameID string) (*Replay, error) {
	filename := filepath.Join(directory, gameID+".replay")
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()
	dec := gob.NewDecoder(zr)

	var header replayHeader
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("decode replay header: %w", err)
	}
	if header.Version != 1 {
		return nil, fmt.Errorf("unsupported replay version %d", header.Version)
	}

	replay := NewReplay(header.GameID)
	for i := 0; i < header.StateCount; i++ {
		var state game.GameView
		if err := dec.Decode(&state); err != nil {
			return nil, fmt.Errorf("decode snapshot %d: %w", i, err)
		}
		replay.States = append(replay.States, &state)
	}
	return replay, nil
}

// Recorder observes an engine and records one replay per game. Register
// its Handle method as the engine's notification handler (or chain it
// from another handler).
type Recorder struct {
	engine  *game.Engine
	logger  *zap.Logger
	mu      sync.Mutex
	replays map[string]*Replay
}

// NewRecorder creates a recorder for the given engine.
func NewRecorder(engine *game.Engine, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		engine:  engine,
		logger:  logger,
		replays: make(map[string]*Replay),
	}
}

// Handle records a snapshot for every state-changing notification.
func (rec *Recorder) Handle(n game.Notification) {
	if n.GameID == "" {
		return
	}
	view, err := rec.engine.View(n.GameID, "")
	if err != nil {
		rec.logger.Warn("recorder could not snapshot game",
			zap.String("game_id", n.GameID),
			zap.String("notification", n.Type),
			zap.Error(err),
		)
		return
	}

	rec.mu.Lock()
	replay, ok := rec.replays[n.GameID]
	if !ok {
		replay = NewReplay(n.GameID)
		rec.replays[n.GameID] = replay
	}
	rec.mu.Unlock()

	replay.Record(view)
}

// Replay returns the recording for a game, if any.
func (rec *Recorder) Replay(gameID string) (*Replay, bool) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	replay, ok := rec.replays[gameID]
	return replay, ok
}
