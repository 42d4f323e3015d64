package achievements

import (
	"encoding/json"
	"errors"

	"github.com/atinylittleshell/matchcolor/internal/storage"
	"go.uber.org/zap"
)

// StoreKey is the key achievement progress is persisted under
const StoreKey = "achievements"

// State is the persisted form of a tracker
type State struct {
	Unlocked []string           `json:"unlocked"`
	Progress map[string]float64 `json:"progress"`
}

// Snapshot copies the unlocked set and progress map
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := State{
		Unlocked: make([]string, len(t.unlockedOrder)),
		Progress: make(map[string]float64, len(t.progress)),
	}
	copy(state.Unlocked, t.unlockedOrder)
	for id, value := range t.progress {
		state.Progress[id] = value
	}
	return state
}

// Restore replaces in-memory progress with state. Ids missing from the
// catalog are dropped. No rewards or notifications are produced.
func (t *Tracker) Restore(state State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetLocked()
	for id, value := range state.Progress {
		if _, ok := t.catalog.Get(id); !ok {
			continue
		}
		if value > 0 {
			t.progress[id] = value
		}
	}
	for _, id := range state.Unlocked {
		if _, ok := t.catalog.Get(id); !ok || t.unlocked[id] {
			continue
		}
		t.unlocked[id] = true
		t.unlockedOrder = append(t.unlockedOrder, id)
	}
}

// Save writes the current state to the store. Failures are logged and
// otherwise ignored.
func (t *Tracker) Save() {
	if t.store == nil {
		return
	}

	data, err := json.Marshal(t.Snapshot())
	if err != nil {
		t.logger.Warn("failed to encode achievement progress", zap.Error(err))
		return
	}
	if err := t.store.Set(StoreKey, string(data)); err != nil {
		t.logger.Warn("failed to save achievement progress", zap.Error(err))
	}
}

// load restores persisted state. Missing or corrupt data leaves the tracker
// empty.
func (t *Tracker) load() {
	if t.store == nil {
		return
	}

	raw, err := t.store.Get(StoreKey)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		t.logger.Warn("failed to load achievement progress", zap.Error(err))
		return
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		t.logger.Warn("corrupt achievement progress, starting fresh", zap.Error(err))
		return
	}
	t.Restore(state)
}
