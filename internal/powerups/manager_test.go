package powerups

import (
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/atinylittleshell/matchcolor/internal/scheduler"
	"github.com/atinylittleshell/matchcolor/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHints struct {
	shown   []Hint
	cleared []Hint
}

func (r *recordingHints) ShowHint(h Hint)  { r.shown = append(r.shown, h) }
func (r *recordingHints) ClearHint(h Hint) { r.cleared = append(r.cleared, h) }

type recordingEvents struct {
	events []Event
}

func (r *recordingEvents) PowerUpEvent(e Event) { r.events = append(r.events, e) }

func (r *recordingEvents) kinds() []EventKind {
	out := make([]EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

type fixedBoard []Cell

func (b fixedBoard) Cells() []Cell { return b }

type fixture struct {
	manager *Manager
	store   *storage.MemoryStore
	clock   *scheduler.ManualClock
	hints   *recordingHints
	events  *recordingEvents
}

func newFixture(t *testing.T, coins int64) *fixture {
	t.Helper()
	f := &fixture{
		store:  storage.NewMemoryStore(),
		clock:  scheduler.NewManualClock(time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)),
		hints:  &recordingHints{},
		events: &recordingEvents{},
	}
	f.manager = NewManager(Options{
		Store:  f.store,
		Clock:  f.clock,
		Hints:  f.hints,
		Events: f.events,
	})
	f.manager.AddCoins(coins)
	return f
}

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	assert.Equal(t, 12, catalog.Len())

	freeze, ok := catalog.Get("time_freeze")
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, freeze.Duration)
	assert.Equal(t, RarityRare, freeze.Rarity)

	shield, ok := catalog.Get("shield")
	require.True(t, ok)
	assert.Equal(t, 3, shield.Uses())
	assert.Zero(t, shield.Duration)

	byCost := catalog.ByCost()
	assert.Equal(t, "time_boost", byCost[0].ID)
	assert.Equal(t, "shield", byCost[len(byCost)-1].ID)
}

func TestParseCatalogRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown effect", "powerups:\n  - {id: a, effect: teleport, value: 1}\n"},
		{"unknown rarity", "powerups:\n  - {id: a, effect: add_time, value: 1, rarity: mythic}\n"},
		{"timed without duration", "powerups:\n  - {id: a, effect: freeze_time, value: 1}\n"},
		{"instant with duration", "powerups:\n  - {id: a, effect: add_life, value: 1, duration: 5s}\n"},
		{"zero value", "powerups:\n  - {id: a, effect: shield}\n"},
		{"fractional uses", "powerups:\n  - {id: a, effect: shield, value: 0.5}\n"},
		{"partial use", "powerups:\n  - {id: a, effect: lucky_streak, value: 2.5}\n"},
		{"duplicate", "powerups:\n  - {id: a, effect: add_time, value: 1}\n  - {id: a, effect: add_time, value: 2}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestTimeBoostIsInstant(t *testing.T) {
	f := newFixture(t, 60)
	session := NewSession(30, 3)

	require.True(t, f.manager.CanAfford("time_boost"))
	require.NoError(t, f.manager.PurchaseAndActivate("time_boost", session))

	assert.Equal(t, int64(10), f.manager.Coins())
	assert.Equal(t, 45.0, session.Snapshot().TimeRemaining)
	assert.Empty(t, f.manager.Active())
	assert.False(t, f.manager.IsActive("time_boost"))
	assert.Equal(t, []EventKind{EventActivated}, f.events.kinds())

	raw, err := f.store.Get(CoinsKey)
	require.NoError(t, err)
	assert.Equal(t, "10", raw)
}

func TestExtraLife(t *testing.T) {
	f := newFixture(t, 200)
	session := NewSession(60, 3)

	require.NoError(t, f.manager.PurchaseAndActivate("extra_life", session))
	assert.Equal(t, 4, session.Snapshot().Lives)
	assert.Zero(t, f.manager.Coins())
}

func TestPurchaseErrors(t *testing.T) {
	f := newFixture(t, 40)
	session := NewSession(60, 3)

	assert.ErrorIs(t, f.manager.PurchaseAndActivate("warp_drive", session), ErrUnknownPowerUp)
	assert.False(t, f.manager.CanAfford("warp_drive"))

	assert.ErrorIs(t, f.manager.PurchaseAndActivate("time_boost", session), ErrInsufficientFunds)
	assert.Equal(t, int64(40), f.manager.Coins())
	assert.Equal(t, 60.0, session.Snapshot().TimeRemaining)
	assert.Empty(t, f.events.events)
}

func TestShieldConsumedUntilExhausted(t *testing.T) {
	f := newFixture(t, 300)
	session := NewSession(60, 3)

	require.NoError(t, f.manager.PurchaseAndActivate("shield", session))
	st := session.Snapshot()
	assert.True(t, st.ShieldActive)
	assert.Equal(t, 3, st.ShieldCount)

	for _, want := range []int{2, 1, 0} {
		require.True(t, f.manager.ConsumeUse("shield"))
		assert.Equal(t, want, session.Snapshot().ShieldCount)
	}

	assert.False(t, session.Snapshot().ShieldActive)
	assert.False(t, f.manager.IsActive("shield"))
	assert.False(t, f.manager.ConsumeUse("shield"))

	assert.Equal(t, []EventKind{
		EventActivated, EventConsumed, EventConsumed, EventConsumed, EventExpired,
	}, f.events.kinds())
}

func TestConsumeUseRejectsTimedPowerUps(t *testing.T) {
	f := newFixture(t, 500)
	session := NewSession(60, 3)

	require.NoError(t, f.manager.PurchaseAndActivate("time_freeze", session))
	assert.False(t, f.manager.ConsumeUse("time_freeze"))
	assert.False(t, f.manager.ConsumeUse("second_chance"))
}

func TestAlreadyActiveDoesNotDebit(t *testing.T) {
	f := newFixture(t, 400)
	session := NewSession(60, 3)

	require.NoError(t, f.manager.PurchaseAndActivate("score_multiplier", session))
	assert.Equal(t, int64(250), f.manager.Coins())

	err := f.manager.PurchaseAndActivate("score_multiplier", session)
	assert.ErrorIs(t, err, ErrAlreadyActive)
	assert.Equal(t, int64(250), f.manager.Coins())
	assert.Equal(t, 2.0, session.Snapshot().ScoreMultiplier)
}

func TestSweepReversesOnce(t *testing.T) {
	f := newFixture(t, 1000)
	session := NewSession(60, 3)

	require.NoError(t, f.manager.PurchaseAndActivate("score_multiplier", session))
	require.NoError(t, f.manager.PurchaseAndActivate("combo_boost", session))
	require.NoError(t, f.manager.PurchaseAndActivate("time_freeze", session))

	st := session.Snapshot()
	assert.Equal(t, 2.0, st.ScoreMultiplier)
	assert.Equal(t, 1.5, st.ComboMultiplier)
	assert.True(t, st.TimerFrozen)

	f.clock.Advance(10 * time.Second)
	f.manager.Sweep(f.clock.Now())
	assert.False(t, session.Snapshot().TimerFrozen)
	assert.True(t, f.manager.IsActive("score_multiplier"))

	f.clock.Advance(20 * time.Second)
	f.manager.Sweep(f.clock.Now())
	f.manager.Sweep(f.clock.Now())

	st = session.Snapshot()
	assert.Equal(t, 1.0, st.ScoreMultiplier)
	assert.Equal(t, 1.0, st.ComboMultiplier)
	assert.Empty(t, f.manager.Active())

	expired := 0
	for _, e := range f.events.events {
		if e.Kind == EventExpired {
			expired++
		}
	}
	assert.Equal(t, 3, expired)
}

func TestExpiredButUnsweptCanBeReactivated(t *testing.T) {
	f := newFixture(t, 300)
	session := NewSession(60, 3)

	require.NoError(t, f.manager.PurchaseAndActivate("score_multiplier", session))
	f.clock.Advance(31 * time.Second)

	require.NoError(t, f.manager.PurchaseAndActivate("score_multiplier", session))
	assert.Equal(t, 2.0, session.Snapshot().ScoreMultiplier)
	assert.Equal(t, int64(0), f.manager.Coins())
}

func TestSweepRunsFromScheduler(t *testing.T) {
	clock := scheduler.NewManualClock(time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC))
	sched := scheduler.New(clock, nil)
	manager := NewManager(Options{Scheduler: sched})
	manager.AddCoins(100)
	session := NewSession(60, 3)

	require.NoError(t, manager.PurchaseAndActivate("time_freeze", session))
	for i := 0; i < 99; i++ {
		clock.Advance(100 * time.Millisecond)
		sched.Tick()
	}
	assert.True(t, session.Snapshot().TimerFrozen)

	clock.Advance(100 * time.Millisecond)
	sched.Tick()
	assert.False(t, session.Snapshot().TimerFrozen)

	manager.Close()
	assert.Equal(t, 0, sched.Len())
}

func TestHintEffects(t *testing.T) {
	f := newFixture(t, 1000)
	session := NewSession(60, 3)
	board := fixedBoard{}
	for i := 0; i < 8; i++ {
		board = append(board, Cell{Index: i, Color: "#ff0000", Correct: i != 3})
	}
	session.Board = board

	require.NoError(t, f.manager.PurchaseAndActivate("auto_click", session))
	require.NoError(t, f.manager.PurchaseAndActivate("color_highlight", session))
	require.NoError(t, f.manager.PurchaseAndActivate("slow_motion", session))

	require.Len(t, f.hints.shown, 3)
	assert.Len(t, f.hints.shown[0].Cells, maxAutoClicks)
	assert.Len(t, f.hints.shown[1].Cells, 7)
	assert.Equal(t, 0.5, f.hints.shown[2].Speed)

	f.clock.Advance(20 * time.Second)
	f.manager.Sweep(f.clock.Now())
	require.Len(t, f.hints.cleared, 3)
	assert.Equal(t, "auto_click", f.hints.cleared[0].PowerUp.ID)
	assert.Equal(t, "slow_motion", f.hints.cleared[1].PowerUp.ID)
	assert.Equal(t, "color_highlight", f.hints.cleared[2].PowerUp.ID)
}

func TestBuyThenActivate(t *testing.T) {
	f := newFixture(t, 150)
	session := NewSession(60, 3)

	require.NoError(t, f.manager.Buy("second_chance"))
	assert.Zero(t, f.manager.Coins())
	assert.ErrorIs(t, f.manager.Buy("second_chance"), ErrInsufficientFunds)

	require.NoError(t, f.manager.Activate("second_chance", session))
	assert.ErrorIs(t, f.manager.Activate("second_chance", session), ErrAlreadyActive)
	assert.True(t, session.Snapshot().SecondChanceActive)
	assert.Equal(t, 1, session.Snapshot().SecondChanceCount)
}

func TestCoinsPersistence(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		want   int64
	}{
		{"valid", "275", 275},
		{"corrupt", "lots", 0},
		{"negative", "-20", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			require.NoError(t, store.Set(CoinsKey, tt.stored))

			manager := NewManager(Options{Store: store})
			assert.Equal(t, tt.want, manager.Coins())
		})
	}
}

func TestAddCoinsIgnoresNonPositive(t *testing.T) {
	f := newFixture(t, 10)
	f.manager.AddCoins(0)
	f.manager.AddCoins(-5)
	assert.Equal(t, int64(10), f.manager.Coins())
}

func TestAddCoinsSaturates(t *testing.T) {
	f := newFixture(t, math.MaxInt64)
	f.manager.AddCoins(10)
	assert.Equal(t, int64(math.MaxInt64), f.manager.Coins())

	stored, err := f.store.Get(CoinsKey)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(math.MaxInt64, 10), stored)

	reopened := NewManager(Options{Store: f.store})
	assert.Equal(t, int64(math.MaxInt64), reopened.Coins())
}

func TestResetReversesAndZeroes(t *testing.T) {
	f := newFixture(t, 500)
	session := NewSession(60, 3)

	require.NoError(t, f.manager.PurchaseAndActivate("shield", session))
	f.manager.Reset()

	assert.Zero(t, f.manager.Coins())
	assert.Empty(t, f.manager.Active())
	assert.False(t, session.Snapshot().ShieldActive)

	raw, err := f.store.Get(CoinsKey)
	require.NoError(t, err)
	assert.Equal(t, "0", raw)
}
