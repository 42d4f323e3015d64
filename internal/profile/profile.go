package profile

import (
	"encoding/json"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/atinylittleshell/matchcolor/internal/achievements"
	"github.com/atinylittleshell/matchcolor/internal/scheduler"
	"github.com/atinylittleshell/matchcolor/internal/storage"
	"go.uber.org/zap"
)

// StoreKey is the key the profile is persisted under
const StoreKey = "profile"

// CoinSink is credited with coin rewards
type CoinSink interface {
	AddCoins(amount int64)
}

// LevelUpSink is told about level changes
type LevelUpSink interface {
	LevelUp(info LevelUpInfo)
}

// Data is the persisted player record
type Data struct {
	TotalXP              int       `json:"total_xp"`
	CoinsEarned          int64     `json:"coins_earned"`
	AchievementsUnlocked int       `json:"achievements_unlocked"`
	GamesPlayed          int       `json:"games_played"`
	PlayStreak           int       `json:"play_streak"`
	LastPlayed           time.Time `json:"last_played"`
}

// Stats is Data plus the values derived from it
type Stats struct {
	Data
	Level         int
	Title         string
	LevelProgress float64
	XPToNext      int
}

type Options struct {
	Store    storage.Store
	Coins    CoinSink
	LevelUps LevelUpSink
	Clock    scheduler.Clock
	Logger   *zap.Logger
}

// Profile tracks XP and level and pays out achievement rewards
type Profile struct {
	store    storage.Store
	coins    CoinSink
	levelUps LevelUpSink
	clock    scheduler.Clock
	logger   *zap.Logger

	mu   sync.Mutex
	data Data
}

func New(opts Options) *Profile {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = scheduler.SystemClock{}
	}

	p := &Profile{
		store:    opts.Store,
		coins:    opts.Coins,
		levelUps: opts.LevelUps,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
	p.load()
	return p
}

// IssueReward credits the coins of def to the wallet and its XP to the
// profile.
func (p *Profile) IssueReward(def achievements.Definition) {
	if def.Reward.Coins > 0 && p.coins != nil {
		p.coins.AddCoins(def.Reward.Coins)
	}

	p.mu.Lock()
	p.data.AchievementsUnlocked++
	if c := def.Reward.Coins; c > 0 {
		if c > math.MaxInt64-p.data.CoinsEarned {
			p.data.CoinsEarned = math.MaxInt64
		} else {
			p.data.CoinsEarned += c
		}
	}
	info := p.addXPLocked(def.Reward.XP)
	p.saveLocked()
	p.mu.Unlock()

	p.announce(info)
}

// AddXP awards xp outside of achievements
func (p *Profile) AddXP(xp int) {
	p.mu.Lock()
	info := p.addXPLocked(xp)
	p.saveLocked()
	p.mu.Unlock()

	p.announce(info)
}

// RecordGame counts a finished game and advances the daily play streak
func (p *Profile) RecordGame() {
	now := p.clock.Now()

	p.mu.Lock()
	p.data.GamesPlayed++
	p.data.PlayStreak = NextPlayStreak(p.data.PlayStreak, p.data.LastPlayed, now)
	p.data.LastPlayed = now
	p.saveLocked()
	p.mu.Unlock()
}

func (p *Profile) addXPLocked(xp int) *LevelUpInfo {
	if xp <= 0 {
		return nil
	}
	old := p.data.TotalXP
	p.data.TotalXP += xp
	return CheckLevelUp(old, p.data.TotalXP)
}

func (p *Profile) announce(info *LevelUpInfo) {
	if info == nil {
		return
	}
	p.logger.Info("level up",
		zap.Int("level", info.NewLevel),
		zap.String("title", info.NewTitle))
	if p.levelUps != nil {
		p.levelUps.LevelUp(*info)
	}
}

// Stats returns the current record with level and title
func (p *Profile) Stats() Stats {
	p.mu.Lock()
	data := p.data
	p.mu.Unlock()

	level := LevelFromTotalXP(data.TotalXP)
	return Stats{
		Data:          data,
		Level:         level,
		Title:         TitleForLevel(level),
		LevelProgress: XPProgressInLevel(data.TotalXP, level),
		XPToNext:      XPForLevel(level+1) - data.TotalXP,
	}
}

func (p *Profile) Level() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return LevelFromTotalXP(p.data.TotalXP)
}

// Reset clears the record and its persisted copy
func (p *Profile) Reset() {
	p.mu.Lock()
	p.data = Data{}
	p.mu.Unlock()

	if p.store == nil {
		return
	}
	if err := p.store.Delete(StoreKey); err != nil {
		p.logger.Warn("failed to delete profile", zap.Error(err))
	}
}

func (p *Profile) Save() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saveLocked()
}

func (p *Profile) saveLocked() {
	if p.store == nil {
		return
	}

	data, err := json.Marshal(p.data)
	if err != nil {
		p.logger.Warn("failed to encode profile", zap.Error(err))
		return
	}
	if err := p.store.Set(StoreKey, string(data)); err != nil {
		p.logger.Warn("failed to save profile", zap.Error(err))
	}
}

func (p *Profile) load() {
	if p.store == nil {
		return
	}

	raw, err := p.store.Get(StoreKey)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		p.logger.Warn("failed to load profile", zap.Error(err))
		return
	}

	var data Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		p.logger.Warn("corrupt profile, starting fresh", zap.Error(err))
		return
	}
	if data.TotalXP < 0 {
		data.TotalXP = 0
	}
	p.data = data
}
