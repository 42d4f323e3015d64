package achievements

import (
	"time"

	"github.com/google/uuid"
)

// Notification announces a single unlock
type Notification struct {
	ID          string
	Achievement Definition
	CreatedAt   time.Time
	Shown       bool
}

func (t *Tracker) enqueueLocked(def Definition) {
	t.queue = append(t.queue, Notification{
		ID:          uuid.NewString(),
		Achievement: def,
		CreatedAt:   t.clock.Now(),
	})
}

// DeliverNext hands the oldest queued notification to the presenter unless
// one is still on display. It is the body of the delivery sweep.
func (t *Tracker) DeliverNext(now time.Time) {
	t.mu.Lock()
	if t.processing {
		if now.Before(t.busyUntil) {
			t.mu.Unlock()
			return
		}
		t.processing = false
	}
	if len(t.queue) == 0 {
		t.mu.Unlock()
		return
	}

	n := t.queue[0]
	t.queue = t.queue[1:]
	n.Shown = true
	t.processing = true
	t.busyUntil = now.Add(t.displayDuration)
	t.mu.Unlock()

	if t.presenter != nil {
		t.presenter.ShowUnlock(n)
	}
}

// Pending returns the notifications still waiting for delivery
func (t *Tracker) Pending() []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Notification, len(t.queue))
	copy(out, t.queue)
	return out
}

// Drain returns and clears the queued notifications without presenting them
func (t *Tracker) Drain() []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := t.queue
	t.queue = nil
	for i := range out {
		out[i].Shown = true
	}
	return out
}
