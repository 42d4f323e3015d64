package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultResolution is how often the background loop checks for due tasks.
const DefaultResolution = 50 * time.Millisecond

// Task is a repeating job registered with a Scheduler
type Task struct {
	name      string
	period    time.Duration
	fn        func(now time.Time)
	lastRun   time.Time
	cancelled bool
	scheduler *Scheduler
}

// Name returns the name the task was registered under
func (t *Task) Name() string {
	return t.name
}

// Cancel removes the task from its scheduler. Safe to call more than once.
func (t *Task) Cancel() {
	s := t.scheduler
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.cancelled {
		return
	}
	t.cancelled = true
	for i, task := range s.tasks {
		if task == t {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
}

// Scheduler runs repeating tasks one after another on a single goroutine.
// Tasks never run concurrently with each other.
type Scheduler struct {
	clock      Clock
	logger     *zap.Logger
	resolution time.Duration

	mu    sync.Mutex
	tasks []*Task

	// tickMu serializes Tick calls coming from the loop and from callers
	tickMu sync.Mutex

	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// New creates a scheduler. A nil clock means the system clock.
func New(clock Clock, logger *zap.Logger) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		clock:      clock,
		logger:     logger,
		resolution: DefaultResolution,
	}
}

// SetResolution changes the polling interval of the background loop.
// It has no effect on a loop that is already running.
func (s *Scheduler) SetResolution(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.resolution = d
	s.mu.Unlock()
}

// Clock returns the clock the scheduler measures periods against
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Every registers fn to run every period. The first run happens on the
// first tick at least one period after registration.
func (s *Scheduler) Every(name string, period time.Duration, fn func(now time.Time)) *Task {
	task := &Task{
		name:      name,
		period:    period,
		fn:        fn,
		lastRun:   s.clock.Now(),
		scheduler: s,
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()

	s.logger.Debug("scheduled task", zap.String("task", name), zap.Duration("period", period))
	return task
}

// Len returns the number of registered tasks
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Tick runs every due task once, in registration order, on the calling
// goroutine. A task registered or cancelled by another task takes effect on
// the next tick.
func (s *Scheduler) Tick() {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	now := s.clock.Now()

	s.mu.Lock()
	due := make([]*Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if now.Sub(task.lastRun) >= task.period {
			task.lastRun = now
			due = append(due, task)
		}
	}
	s.mu.Unlock()

	for _, task := range due {
		s.mu.Lock()
		cancelled := task.cancelled
		s.mu.Unlock()
		if cancelled {
			continue
		}
		s.run(task, now)
	}
}

func (s *Scheduler) run(task *Task, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked", zap.String("task", task.name), zap.Any("panic", r))
		}
	}()
	task.fn(now)
}

// Start begins ticking in the background
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	resolution := s.resolution
	stopChan, doneChan := s.stopChan, s.doneChan
	s.mu.Unlock()

	go func() {
		defer close(doneChan)
		ticker := time.NewTicker(resolution)
		defer ticker.Stop()

		for {
			select {
			case <-stopChan:
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	}()
}

// Stop halts the background loop and waits for an in-flight tick to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stopChan, doneChan := s.stopChan, s.doneChan
	s.mu.Unlock()

	close(stopChan)
	<-doneChan
}
