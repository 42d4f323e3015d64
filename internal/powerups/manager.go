package powerups

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/atinylittleshell/matchcolor/internal/scheduler"
	"github.com/atinylittleshell/matchcolor/internal/storage"
	"go.uber.org/zap"
)

const DefaultSweepInterval = 100 * time.Millisecond

var (
	ErrUnknownPowerUp    = errors.New("unknown power-up")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyActive     = errors.New("power-up already active")
)

// HintPresenter shows and clears the visual and automation effects
type HintPresenter interface {
	ShowHint(h Hint)
	ClearHint(h Hint)
}

// EventKind is a stage in the life of an activated power-up
type EventKind string

const (
	EventActivated EventKind = "activated"
	EventConsumed  EventKind = "consumed"
	EventExpired   EventKind = "expired"
)

// Event reports a power-up lifecycle change
type Event struct {
	Kind          EventKind
	PowerUp       Definition
	At            time.Time
	RemainingUses int
}

// EventSink receives power-up lifecycle events
type EventSink interface {
	PowerUpEvent(e Event)
}

// ActivePowerUp is a running power-up bound to the session it modifies
type ActivePowerUp struct {
	Definition
	ActivatedAt   time.Time
	ExpiresAt     time.Time // zero unless time-bounded
	RemainingUses int

	session *Session
}

func (a *ActivePowerUp) expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt)
}

type Options struct {
	Catalog       *Catalog
	Store         storage.Store
	Hints         HintPresenter
	Events        EventSink
	Scheduler     *scheduler.Scheduler
	Clock         scheduler.Clock
	Logger        *zap.Logger
	SweepInterval time.Duration
}

// Manager owns the coin balance and the set of active power-ups
type Manager struct {
	catalog *Catalog
	store   storage.Store
	hints   HintPresenter
	events  EventSink
	clock   scheduler.Clock
	logger  *zap.Logger
	task    *scheduler.Task

	mu     sync.Mutex
	coins  int64
	active map[string]*ActivePowerUp
}

// outcome collects collaborator calls to make once the lock is released
type outcome struct {
	shown   []Hint
	cleared []Hint
	events  []Event
}

func (o *outcome) expire(inst *ActivePowerUp, now time.Time) {
	if hint := reverseEffect(inst); hint != nil {
		o.cleared = append(o.cleared, *hint)
	}
	o.events = append(o.events, Event{Kind: EventExpired, PowerUp: inst.Definition, At: now})
}

func NewManager(opts Options) *Manager {
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

	m := &Manager{
		catalog: opts.Catalog,
		store:   opts.Store,
		hints:   opts.Hints,
		events:  opts.Events,
		clock:   opts.Clock,
		logger:  opts.Logger,
		active:  make(map[string]*ActivePowerUp),
	}
	m.coins = m.loadCoins()

	if opts.Scheduler != nil {
		m.task = opts.Scheduler.Every("powerup-expiry", opts.SweepInterval, m.Sweep)
	}

	return m
}

func (m *Manager) Catalog() *Catalog {
	return m.catalog
}

// Available lists the catalog, cheapest first
func (m *Manager) Available() []Definition {
	return m.catalog.ByCost()
}

func (m *Manager) Definition(id string) (Definition, bool) {
	return m.catalog.Get(id)
}

// CanAfford reports whether id exists and the balance covers its cost
func (m *Manager) CanAfford(id string) bool {
	def, ok := m.catalog.Get(id)
	if !ok {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coins >= def.Cost
}

// PurchaseAndActivate debits the cost of id and applies it to session.
// Nothing is debited when an error is returned.
func (m *Manager) PurchaseAndActivate(id string, session *Session) error {
	def, ok := m.catalog.Get(id)
	if !ok {
		return ErrUnknownPowerUp
	}

	now := m.clock.Now()
	var out outcome

	m.mu.Lock()
	if m.coins < def.Cost {
		m.mu.Unlock()
		return ErrInsufficientFunds
	}
	if err := m.checkActivatableLocked(def, now, &out); err != nil {
		m.mu.Unlock()
		m.flush(out)
		return err
	}
	m.coins -= def.Cost
	m.saveCoinsLocked()
	m.activateLocked(def, session, now, &out)
	balance := m.coins
	m.mu.Unlock()

	m.logger.Info("power-up purchased",
		zap.String("id", id),
		zap.Int64("cost", def.Cost),
		zap.Int64("balance", balance))
	m.flush(out)
	return nil
}

// Buy debits the cost of id without activating it
func (m *Manager) Buy(id string) error {
	def, ok := m.catalog.Get(id)
	if !ok {
		return ErrUnknownPowerUp
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.coins < def.Cost {
		return ErrInsufficientFunds
	}
	m.coins -= def.Cost
	m.saveCoinsLocked()
	return nil
}

// Activate applies id to session without charging for it
func (m *Manager) Activate(id string, session *Session) error {
	def, ok := m.catalog.Get(id)
	if !ok {
		return ErrUnknownPowerUp
	}

	now := m.clock.Now()
	var out outcome

	m.mu.Lock()
	if err := m.checkActivatableLocked(def, now, &out); err != nil {
		m.mu.Unlock()
		m.flush(out)
		return err
	}
	m.activateLocked(def, session, now, &out)
	m.mu.Unlock()

	m.flush(out)
	return nil
}

// checkActivatableLocked rejects a second activation. An instance that has
// expired but not yet been swept is retired here instead.
func (m *Manager) checkActivatableLocked(def Definition, now time.Time, out *outcome) error {
	inst, ok := m.active[def.ID]
	if !ok {
		return nil
	}
	if !inst.expired(now) {
		return ErrAlreadyActive
	}
	delete(m.active, def.ID)
	out.expire(inst, now)
	return nil
}

func (m *Manager) activateLocked(def Definition, session *Session, now time.Time, out *outcome) {
	var expiresAt time.Time
	if def.Duration > 0 {
		expiresAt = now.Add(def.Duration)
	}

	if session != nil {
		if hint := applyEffect(def, session, expiresAt); hint != nil {
			out.shown = append(out.shown, *hint)
		}
	}

	inst := &ActivePowerUp{
		Definition:    def,
		ActivatedAt:   now,
		ExpiresAt:     expiresAt,
		RemainingUses: def.Uses(),
		session:       session,
	}
	if !def.Effect.Instant() {
		m.active[def.ID] = inst
	}

	out.events = append(out.events, Event{
		Kind:          EventActivated,
		PowerUp:       def,
		At:            now,
		RemainingUses: inst.RemainingUses,
	})
}

// ConsumeUse spends one use of a consumable power-up. The last use removes
// and reverses it. It returns false when no such power-up is active.
func (m *Manager) ConsumeUse(id string) bool {
	now := m.clock.Now()
	var out outcome

	m.mu.Lock()
	inst, ok := m.active[id]
	if !ok || !inst.Effect.Consumable() || inst.RemainingUses <= 0 {
		m.mu.Unlock()
		return false
	}

	inst.RemainingUses--
	remaining := inst.RemainingUses
	if inst.session != nil {
		inst.session.Update(func(st *State) {
			_, count := consumableFields(st, inst.Effect)
			*count = remaining
		})
	}
	out.events = append(out.events, Event{
		Kind:          EventConsumed,
		PowerUp:       inst.Definition,
		At:            now,
		RemainingUses: remaining,
	})

	if remaining == 0 {
		delete(m.active, id)
		out.expire(inst, now)
	}
	m.mu.Unlock()

	m.logger.Debug("power-up use consumed", zap.String("id", id), zap.Int("remaining", remaining))
	m.flush(out)
	return true
}

// Sweep removes and reverses every power-up whose expiry is at or before
// now. It is the body of the expiry task.
func (m *Manager) Sweep(now time.Time) {
	var out outcome

	m.mu.Lock()
	var expired []*ActivePowerUp
	for id, inst := range m.active {
		if inst.expired(now) {
			delete(m.active, id)
			expired = append(expired, inst)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		if expired[i].ExpiresAt.Equal(expired[j].ExpiresAt) {
			return expired[i].ID < expired[j].ID
		}
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})
	for _, inst := range expired {
		out.expire(inst, now)
	}
	m.mu.Unlock()

	for _, inst := range expired {
		m.logger.Debug("power-up expired", zap.String("id", inst.ID))
	}
	m.flush(out)
}

// Active returns a copy of the running power-ups ordered by activation
func (m *Manager) Active() []ActivePowerUp {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ActivePowerUp, 0, len(m.active))
	for _, inst := range m.active {
		out = append(out, *inst)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ActivatedAt.Equal(out[j].ActivatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ActivatedAt.Before(out[j].ActivatedAt)
	})
	return out
}

func (m *Manager) IsActive(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[id]
	return ok
}

// Reset reverses every active power-up and zeroes the balance
func (m *Manager) Reset() {
	now := m.clock.Now()
	var out outcome

	m.mu.Lock()
	for id, inst := range m.active {
		delete(m.active, id)
		out.expire(inst, now)
	}
	m.coins = 0
	m.saveCoinsLocked()
	m.mu.Unlock()

	m.flush(out)
}

// Close stops the expiry sweep and persists the balance
func (m *Manager) Close() {
	if m.task != nil {
		m.task.Cancel()
		m.task = nil
	}

	m.mu.Lock()
	m.saveCoinsLocked()
	m.mu.Unlock()
}

func (m *Manager) flush(out outcome) {
	if m.hints != nil {
		for _, h := range out.cleared {
			m.hints.ClearHint(h)
		}
		for _, h := range out.shown {
			m.hints.ShowHint(h)
		}
	}
	if m.events != nil {
		for _, e := range out.events {
			m.events.PowerUpEvent(e)
		}
	}
}
