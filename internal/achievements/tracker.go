package achievements

import (
	"math"
	"sync"
	"time"

	"github.com/atinylittleshell/matchcolor/internal/scheduler"
	"github.com/atinylittleshell/matchcolor/internal/storage"
	"go.uber.org/zap"
)

const (
	DefaultSweepInterval   = 100 * time.Millisecond
	DefaultDisplayDuration = 3 * time.Second
)

// RewardSink receives the payout of every newly unlocked achievement
type RewardSink interface {
	IssueReward(def Definition)
}

// Presenter shows unlock notifications, one at a time
type Presenter interface {
	ShowUnlock(n Notification)
}

// GameState is a snapshot of a finished game
type GameState struct {
	Score  float64
	Streak float64
	Level  float64
	Mode   string
	Lives  int
}

// Totals summarizes catalog completion
type Totals struct {
	Unlocked int
	Total    int
	Percent  float64
}

// Options configures a Tracker. Only Catalog is required to be meaningful;
// everything else falls back to a no-op or default.
type Options struct {
	Catalog         *Catalog
	Store           storage.Store
	Rewards         RewardSink
	Presenter       Presenter
	Scheduler       *scheduler.Scheduler
	Clock           scheduler.Clock
	Logger          *zap.Logger
	SweepInterval   time.Duration
	DisplayDuration time.Duration
}

// Tracker records progress towards achievements and unlocks them
type Tracker struct {
	catalog         *Catalog
	store           storage.Store
	rewards         RewardSink
	presenter       Presenter
	clock           scheduler.Clock
	logger          *zap.Logger
	displayDuration time.Duration
	task            *scheduler.Task

	mu            sync.Mutex
	progress      map[string]float64
	unlocked      map[string]bool
	unlockedOrder []string

	// Notification delivery
	queue      []Notification
	processing bool
	busyUntil  time.Time
}

// NewTracker builds a tracker, restores persisted progress and, when a
// scheduler is given, registers the notification delivery sweep.
func NewTracker(opts Options) *Tracker {
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		if opts.Scheduler != nil {
			opts.Clock = opts.Scheduler.Clock()
		} else {
			opts.Clock = scheduler.SystemClock{}
		}
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.DisplayDuration <= 0 {
		opts.DisplayDuration = DefaultDisplayDuration
	}

	t := &Tracker{
		catalog:         opts.Catalog,
		store:           opts.Store,
		rewards:         opts.Rewards,
		presenter:       opts.Presenter,
		clock:           opts.Clock,
		logger:          opts.Logger,
		displayDuration: opts.DisplayDuration,
	}
	t.resetLocked()
	t.load()

	if opts.Scheduler != nil {
		t.task = opts.Scheduler.Every("achievement-notifications", opts.SweepInterval, t.DeliverNext)
	}

	return t
}

// Catalog returns the catalog the tracker was built with
func (t *Tracker) Catalog() *Catalog {
	return t.catalog
}

// RecordEvent feeds value to every achievement of a category using the
// category's progress rule.
func (t *Tracker) RecordEvent(category Category, value float64) {
	t.mu.Lock()
	var unlocked []Definition
	for _, def := range t.catalog.ByCategory(category) {
		t.applyLocked(def, value)
		unlocked = t.checkLocked(def, unlocked)
	}
	t.mu.Unlock()

	t.settle(unlocked)
}

// UpdateProgress feeds value to a single achievement. Unknown ids are ignored.
func (t *Tracker) UpdateProgress(id string, value float64) {
	def, ok := t.catalog.Get(id)
	if !ok {
		t.logger.Debug("ignoring progress for unknown achievement", zap.String("id", id))
		return
	}

	t.mu.Lock()
	t.applyLocked(def, value)
	unlocked := t.checkLocked(def, nil)
	t.mu.Unlock()

	t.settle(unlocked)
}

// EvaluateUnlock unlocks id if its progress has reached the target.
// Calling it again after the unlock does nothing.
func (t *Tracker) EvaluateUnlock(id string) {
	def, ok := t.catalog.Get(id)
	if !ok {
		return
	}

	t.mu.Lock()
	unlocked := t.checkLocked(def, nil)
	t.mu.Unlock()

	t.settle(unlocked)
}

// OnScoreUpdate records the current score
func (t *Tracker) OnScoreUpdate(score float64) {
	t.observeCategory(CategoryScore, score)
}

// OnStreakUpdate records the current streak
func (t *Tracker) OnStreakUpdate(streak float64) {
	t.observeCategory(CategoryStreak, streak)
}

// OnLevelUpdate records the current level
func (t *Tracker) OnLevelUpdate(level float64) {
	t.observeCategory(CategoryLevel, level)
}

func (t *Tracker) observeCategory(category Category, value float64) {
	t.mu.Lock()
	unlocked := t.observeCategoryLocked(category, value, nil)
	t.mu.Unlock()

	t.settle(unlocked)
}

// OnGameComplete counts a finished game in mode, credits a perfect game,
// checks the time-of-day achievements and re-evaluates the collection
// achievements, in that order.
func (t *Tracker) OnGameComplete(mode string, perfect bool) {
	t.mu.Lock()
	unlocked := t.gameCompleteLocked(mode, perfect, nil)
	t.mu.Unlock()

	t.settle(unlocked)
}

// OnRoundComplete credits the fastest speed tier whose limit elapsedSeconds
// meets. At most one tier is credited per call.
func (t *Tracker) OnRoundComplete(elapsedSeconds float64) {
	def, ok := matchSpeedTier(t.catalog.speedTiers(), elapsedSeconds)
	if !ok {
		return
	}

	t.mu.Lock()
	t.incrementLocked(def.ID, 1)
	unlocked := t.checkLocked(def, nil)
	t.mu.Unlock()

	t.settle(unlocked)
}

// CheckGameState evaluates a whole end-of-game snapshot. A game counts as
// perfect when it ended with lives remaining.
func (t *Tracker) CheckGameState(state GameState) {
	t.mu.Lock()
	var unlocked []Definition
	unlocked = t.observeCategoryLocked(CategoryScore, state.Score, unlocked)
	unlocked = t.observeCategoryLocked(CategoryStreak, state.Streak, unlocked)
	unlocked = t.observeCategoryLocked(CategoryLevel, state.Level, unlocked)
	unlocked = t.gameCompleteLocked(state.Mode, state.Lives > 0, unlocked)
	t.mu.Unlock()

	t.settle(unlocked)
}

func (t *Tracker) observeCategoryLocked(category Category, value float64, unlocked []Definition) []Definition {
	for _, def := range t.catalog.ByCategory(category) {
		t.observeLocked(def.ID, value)
		unlocked = t.checkLocked(def, unlocked)
	}
	return unlocked
}

func (t *Tracker) gameCompleteLocked(mode string, perfect bool, unlocked []Definition) []Definition {
	for _, def := range t.catalog.ByCategory(CategoryMode) {
		if def.Mode != mode {
			continue
		}
		t.incrementLocked(def.ID, 1)
		unlocked = t.checkLocked(def, unlocked)
	}

	if perfect {
		unlocked = t.creditLocked(IDPerfectGame, unlocked)
	}

	if id, ok := matchTimeOfDay(t.clock.Now().Hour()); ok {
		unlocked = t.creditLocked(id, unlocked)
	}

	count := float64(len(t.unlockedOrder))
	for _, def := range t.catalog.ByCategory(CategoryCollection) {
		t.observeLocked(def.ID, count)
		unlocked = t.checkLocked(def, unlocked)
	}

	return unlocked
}

// creditLocked adds one to a counter achievement, if it exists
func (t *Tracker) creditLocked(id string, unlocked []Definition) []Definition {
	def, ok := t.catalog.Get(id)
	if !ok {
		return unlocked
	}
	t.incrementLocked(id, 1)
	return t.checkLocked(def, unlocked)
}

func (t *Tracker) applyLocked(def Definition, value float64) {
	if def.Category.HighWaterMark() {
		t.observeLocked(def.ID, value)
	} else {
		t.incrementLocked(def.ID, value)
	}
}

// finite reports whether value can be stored as progress. Infinite values
// would make the persisted state unencodable.
func finite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

func (t *Tracker) observeLocked(id string, value float64) {
	if !finite(value) {
		return
	}
	if value > t.progress[id] {
		t.progress[id] = value
	}
}

func (t *Tracker) incrementLocked(id string, value float64) {
	// Progress never goes down
	if !finite(value) || value <= 0 {
		return
	}
	t.progress[id] = math.Min(t.progress[id]+value, math.MaxFloat64)
}

// checkLocked unlocks def if due and appends it to unlocked
func (t *Tracker) checkLocked(def Definition, unlocked []Definition) []Definition {
	if t.unlocked[def.ID] || t.progress[def.ID] < def.Target() {
		return unlocked
	}

	t.unlocked[def.ID] = true
	t.unlockedOrder = append(t.unlockedOrder, def.ID)
	t.enqueueLocked(def)
	return append(unlocked, def)
}

// settle pays rewards and persists after the lock has been released, so
// collaborators may call back into the tracker.
func (t *Tracker) settle(unlocked []Definition) {
	if len(unlocked) == 0 {
		return
	}

	for _, def := range unlocked {
		t.logger.Info("achievement unlocked",
			zap.String("id", def.ID),
			zap.Int64("coins", def.Reward.Coins),
			zap.Int("xp", def.Reward.XP))
		if t.rewards != nil {
			t.rewards.IssueReward(def)
		}
	}

	t.Save()
}

// Definitions returns the whole catalog
func (t *Tracker) Definitions() []Definition {
	return t.catalog.All()
}

// Definition returns a single definition
func (t *Tracker) Definition(id string) (Definition, bool) {
	return t.catalog.Get(id)
}

// ByCategory returns the definitions of a category
func (t *Tracker) ByCategory(category Category) []Definition {
	return t.catalog.ByCategory(category)
}

// Unlocked returns unlocked achievements in unlock order
func (t *Tracker) Unlocked() []Definition {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Definition, 0, len(t.unlockedOrder))
	for _, id := range t.unlockedOrder {
		if def, ok := t.catalog.Get(id); ok {
			out = append(out, def)
		}
	}
	return out
}

// IsUnlocked reports whether id has been unlocked
func (t *Tracker) IsUnlocked(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unlocked[id]
}

// Progress returns the current progress value of id
func (t *Tracker) Progress(id string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress[id]
}

// ProgressPercent returns progress towards the requirement, capped at 100
func (t *Tracker) ProgressPercent(id string) float64 {
	def, ok := t.catalog.Get(id)
	if !ok || def.Target() <= 0 {
		return 0
	}
	return math.Min(100, t.Progress(id)/def.Target()*100)
}

// Totals returns how much of the catalog has been unlocked
func (t *Tracker) Totals() Totals {
	t.mu.Lock()
	unlocked := len(t.unlockedOrder)
	t.mu.Unlock()

	total := t.catalog.Len()
	percent := 0.0
	if total > 0 {
		percent = float64(unlocked) / float64(total) * 100
	}
	return Totals{Unlocked: unlocked, Total: total, Percent: percent}
}

// Reset forgets all progress, pending notifications and the persisted record
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.resetLocked()
	t.mu.Unlock()

	if t.store == nil {
		return
	}
	if err := t.store.Delete(StoreKey); err != nil {
		t.logger.Warn("failed to delete achievement progress", zap.Error(err))
	}
}

func (t *Tracker) resetLocked() {
	t.progress = make(map[string]float64, t.catalog.Len())
	for _, def := range t.catalog.defs {
		t.progress[def.ID] = 0
	}
	t.unlocked = make(map[string]bool)
	t.unlockedOrder = nil
	t.queue = nil
	t.processing = false
	t.busyUntil = time.Time{}
}

// Close stops the delivery sweep and persists the current state
func (t *Tracker) Close() {
	if t.task != nil {
		t.task.Cancel()
		t.task = nil
	}
	t.Save()
}
