package game

import (
	"sync"
	"time"
)

// Timer names. Phase timers are singletons; the per-player timers get the
// player name appended after a colon.
const (
	timerRoleDisplay = "role_display"
	timerRound       = "round"
	timerVote        = "vote"
	timerRevealDelay = "reveal_delay"
	timerScoring     = "scoring"

	timerDisconnectGrace = "disconnect_grace"
	timerReconnectWindow = "reconnect_window"
)

// phaseTimers lists the singleton phase countdowns, in display priority
// order. Player-scoped timers are not part of this set.
var phaseTimers = []string{timerRoleDisplay, timerRound, timerVote, timerRevealDelay, timerScoring}

// TimerEvent is the tagged expiry message a timerSet emits. The engine's run
// loop consumes these and decides what the expiry means; the timer subsystem
// itself knows nothing about game phases.
type TimerEvent struct {
	Name string
}

type timerEntry struct {
	timer    *time.Timer
	start    time.Time
	duration time.Duration
}

// timerSet manages named single-fire timers. Starting a timer under a name
// that already has one cancels the old timer first, so at most one live timer
// exists per name.
type timerSet struct {
	mu      sync.Mutex
	entries map[string]*timerEntry
	events  chan TimerEvent
}

func newTimerSet() *timerSet {
	return &timerSet{
		entries: make(map[string]*timerEntry),
		events:  make(chan TimerEvent, 64),
	}
}

// Events returns the channel expiries are delivered on.
func (ts *timerSet) Events() <-chan TimerEvent {
	return ts.events
}

// Start schedules a timer under name, replacing any existing timer with the
// same name.
func (ts *timerSet) Start(name string, d time.Duration) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if old, ok := ts.entries[name]; ok {
		old.timer.Stop()
	}

	entry := &timerEntry{start: time.Now(), duration: d}
	entry.timer = time.AfterFunc(d, func() { ts.fire(name, entry) })
	ts.entries[name] = entry
}

func (ts *timerSet) fire(name string, entry *timerEntry) {
	ts.mu.Lock()
	// A replaced or cancelled timer may still fire if the swap raced the
	// expiry; only the current entry gets to emit its event.
	if ts.entries[name] != entry {
		ts.mu.Unlock()
		return
	}
	delete(ts.entries, name)
	ts.mu.Unlock()

	ts.events <- TimerEvent{Name: name}
}

// Cancel stops the named timer. Cancelling a timer that does not exist is a
// no-op.
func (ts *timerSet) Cancel(name string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if entry, ok := ts.entries[name]; ok {
		entry.timer.Stop()
		delete(ts.entries, name)
	}
}

// CancelAll stops every active timer.
func (ts *timerSet) CancelAll() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for name, entry := range ts.entries {
		entry.timer.Stop()
		delete(ts.entries, name)
	}
}

// Remaining returns the time left on the named timer, computed from the
// recorded start and total duration so repeated polling never drifts.
// Returns 0, false if no such timer is active.
func (ts *timerSet) Remaining(name string) (time.Duration, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	entry, ok := ts.entries[name]
	if !ok {
		return 0, false
	}
	remaining := entry.duration - time.Since(entry.start)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Active reports whether a timer with the given name is running.
func (ts *timerSet) Active(name string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	_, ok := ts.entries[name]
	return ok
}

func playerTimer(kind, player string) string {
	return kind + ":" + player
}
