// Package game wires the achievement tracker, the power-up manager and the
// player profile together for one player.
package game

import (
	"github.com/atinylittleshell/matchcolor/internal/achievements"
	"github.com/atinylittleshell/matchcolor/internal/config"
	"github.com/atinylittleshell/matchcolor/internal/powerups"
	"github.com/atinylittleshell/matchcolor/internal/profile"
	"github.com/atinylittleshell/matchcolor/internal/scheduler"
	"github.com/atinylittleshell/matchcolor/internal/storage"
	"go.uber.org/zap"
)

// Presenter receives everything the engine wants to show the player
type Presenter interface {
	achievements.Presenter
	powerups.HintPresenter
	powerups.EventSink
	profile.LevelUpSink
}

type Options struct {
	Config    config.Config
	Store     storage.Store
	Presenter Presenter
	Clock     scheduler.Clock
	Logger    *zap.Logger
}

// Player owns all engine state for a single profile. The store is borrowed
// and must be closed by the caller after Close.
type Player struct {
	Achievements *achievements.Tracker
	PowerUps     *powerups.Manager
	Profile      *profile.Profile

	config    config.Config
	clock     scheduler.Clock
	scheduler *scheduler.Scheduler
	presenter Presenter
	logger    *zap.Logger
}

// GameResult is what the game reports once a game is over
type GameResult struct {
	Mode       string
	Score      float64
	Streak     float64
	Level      float64
	Lives      int
	RoundTimes []float64 // seconds per cleared round
}

func NewPlayer(opts Options) *Player {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = scheduler.SystemClock{}
	}
	cfg := opts.Config
	logger := opts.Logger

	sched := scheduler.New(opts.Clock, logger.Named("scheduler"))
	sched.SetResolution(cfg.SchedulerResolution)

	manager := powerups.NewManager(powerups.Options{
		Store:         opts.Store,
		Hints:         opts.Presenter,
		Events:        opts.Presenter,
		Scheduler:     sched,
		Logger:        logger.Named("powerups"),
		SweepInterval: cfg.PowerUps.SweepInterval,
	})

	prof := profile.New(profile.Options{
		Store:    opts.Store,
		Coins:    manager,
		LevelUps: opts.Presenter,
		Clock:    opts.Clock,
		Logger:   logger.Named("profile"),
	})

	tracker := achievements.NewTracker(achievements.Options{
		Store:           opts.Store,
		Rewards:         prof,
		Presenter:       opts.Presenter,
		Scheduler:       sched,
		Logger:          logger.Named("achievements"),
		SweepInterval:   cfg.Notifications.SweepInterval,
		DisplayDuration: cfg.Notifications.DisplayDuration,
	})

	return &Player{
		Achievements: tracker,
		PowerUps:     manager,
		Profile:      prof,
		config:       cfg,
		clock:        opts.Clock,
		scheduler:    sched,
		presenter:    opts.Presenter,
		logger:       logger,
	}
}

// Scheduler returns the scheduler driving the sweeps
func (p *Player) Scheduler() *scheduler.Scheduler {
	return p.scheduler
}

// Clock returns the player's clock
func (p *Player) Clock() scheduler.Clock {
	return p.clock
}

// Start runs the notification and expiry sweeps in the background
func (p *Player) Start() {
	p.scheduler.Start()
}

// NewSession returns a fresh game session using the configured timer and
// lives.
func (p *Player) NewSession(board powerups.Board) *powerups.Session {
	session := powerups.NewSession(p.config.Session.TimeLimit.Seconds(), p.config.Session.Lives)
	session.Board = board
	return session
}

// FinishGame feeds a finished game to the achievement tracker and the
// profile.
func (p *Player) FinishGame(result GameResult) {
	for _, elapsed := range result.RoundTimes {
		p.Achievements.OnRoundComplete(elapsed)
	}
	p.Achievements.CheckGameState(achievements.GameState{
		Score:  result.Score,
		Streak: result.Streak,
		Level:  result.Level,
		Mode:   result.Mode,
		Lives:  result.Lives,
	})
	p.Profile.RecordGame()

	p.logger.Debug("game finished",
		zap.String("mode", result.Mode),
		zap.Float64("score", result.Score),
		zap.Int("rounds", len(result.RoundTimes)))
}

// FlushNotifications presents every queued unlock at once. Used when the
// process is about to exit and cannot wait for the delivery sweep.
func (p *Player) FlushNotifications() int {
	pending := p.Achievements.Drain()
	if p.presenter != nil {
		for _, n := range pending {
			p.presenter.ShowUnlock(n)
		}
	}
	return len(pending)
}

// ResetAchievements forgets all achievement progress and the profile built
// from it.
func (p *Player) ResetAchievements() {
	p.Achievements.Reset()
	p.Profile.Reset()
}

// ResetCoins empties the wallet and ends every running power-up
func (p *Player) ResetCoins() {
	p.PowerUps.Reset()
}

// Close stops the sweeps and persists everything
func (p *Player) Close() {
	p.scheduler.Stop()
	p.Achievements.Close()
	p.PowerUps.Close()
	p.Profile.Save()
}
