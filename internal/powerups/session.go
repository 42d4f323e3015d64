package powerups

import "sync"

// Cell is one square of the game board
type Cell struct {
	Index   int
	Color   string
	Correct bool
}

// Board lets hint effects find the cells currently on screen
type Board interface {
	Cells() []Cell
}

// State holds the session fields power-ups read and modify
type State struct {
	TimeRemaining   float64 // seconds
	Lives           int
	ScoreMultiplier float64
	ComboMultiplier float64
	TimerFrozen     bool

	ShieldActive       bool
	ShieldCount        int
	SecondChanceActive bool
	SecondChanceCount  int
	LuckyStreakActive  bool
	LuckyStreakCount   int
}

// Session is the mutable state of one running game. The game owns it and
// must keep it alive for as long as a power-up references it.
type Session struct {
	mu sync.Mutex
	State
	Board Board
}

// NewSession returns a session with neutral multipliers
func NewSession(timeRemaining float64, lives int) *Session {
	return &Session{
		State: State{
			TimeRemaining:   timeRemaining,
			Lives:           lives,
			ScoreMultiplier: 1,
			ComboMultiplier: 1,
		},
	}
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.State
}

// Update runs fn with the session locked
func (s *Session) Update(fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.State)
}

func (s *Session) cells() []Cell {
	if s.Board == nil {
		return nil
	}
	return s.Board.Cells()
}
