// Package today owns the process-wide notion of the current local calendar
// day. An Anchor publishes "YYYY-MM-DD" and re-derives it once at every
// local midnight.
package today

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// State is the lifecycle of an Anchor.
type State int

const (
	// StateScheduled: a rollover timer is armed for the next local midnight.
	StateScheduled State = iota
	// StateOverridden: a fixed day is pinned and no timer is armed.
	StateOverridden
	// StatePaused: the owner is inactive; no timer is armed until Resume.
	StatePaused
	// StateStopped: torn down; the day never changes again.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateScheduled:
		return "scheduled"
	case StateOverridden:
		return "overridden"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures an Anchor.
type Options struct {
	// Clock defaults to SystemClock.
	Clock Clock
	// Location is the zone whose calendar day is tracked; defaults to time.Local.
	Location *time.Location
	// Override pins the day (YYYY-MM-DD) and disables the timer. Callers
	// must only pass it in non-production builds.
	Override string
}

// Anchor is the single source of truth for "what day is it". Reads are
// lock-free; the only writer is the rollover path (timer fire or Resume).
type Anchor struct {
	clock Clock
	loc   *time.Location

	today atomic.Pointer[string]

	mu        sync.Mutex
	state     State
	timer     Timer
	gen       uint64
	observers map[uint64]func(string)
	nextObsID uint64
}

// New initializes the anchor from the clock (or the override) and, unless
// overridden, arms the first rollover timer.
func New(opts Options) (*Anchor, error) {
	a := &Anchor{
		clock:     opts.Clock,
		loc:       opts.Location,
		observers: make(map[uint64]func(string)),
	}
	if a.clock == nil {
		a.clock = SystemClock
	}
	if a.loc == nil {
		a.loc = time.Local
	}

	if opts.Override != "" {
		if _, err := time.Parse("2006-01-02", opts.Override); err != nil {
			return nil, fmt.Errorf("today: invalid override %q: want YYYY-MM-DD", opts.Override)
		}
		a.publish(opts.Override)
		a.state = StateOverridden
		return a, nil
	}

	a.publish(IsoDay(a.now()))
	a.mu.Lock()
	a.state = StateScheduled
	a.armLocked()
	a.mu.Unlock()
	return a, nil
}

// Today returns the latest published day.
func (a *Anchor) Today() string {
	return *a.today.Load()
}

// Date returns Today as midnight UTC, the civil-date form used by the
// calendar pipeline.
func (a *Anchor) Date() time.Time {
	t, _ := time.ParseInLocation("2006-01-02", a.Today(), time.UTC)
	return t
}

// State returns the current lifecycle state.
func (a *Anchor) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Subscribe registers fn to receive the new day after each rollover. fn runs
// on the rollover goroutine and must not block for long. The returned
// function removes the subscription.
func (a *Anchor) Subscribe(fn func(todayIso string)) (cancel func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextObsID
	a.nextObsID++
	if a.observers != nil {
		a.observers[id] = fn
	}
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.observers, id)
	}
}

// Pause cancels the armed timer while the owner is inactive.
func (a *Anchor) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateScheduled {
		return
	}
	a.disarmLocked()
	a.state = StatePaused
}

// Resume re-derives the day once, notifies at most once however many
// midnights passed while paused, and re-arms the timer.
func (a *Anchor) Resume() {
	a.mu.Lock()
	if a.state != StatePaused {
		a.mu.Unlock()
		return
	}
	a.state = StateScheduled
	iso, changed := a.refreshLocked()
	a.armLocked()
	obs := a.observersLocked(changed)
	a.mu.Unlock()

	notify(obs, iso)
}

// Stop tears the anchor down. It is safe to call more than once.
func (a *Anchor) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateStopped {
		return
	}
	a.disarmLocked()
	a.state = StateStopped
	a.observers = nil
}

func (a *Anchor) now() time.Time {
	return a.clock.Now().In(a.loc)
}

func (a *Anchor) publish(iso string) {
	a.today.Store(&iso)
}

// armLocked schedules the next rollover. The delay is recomputed from the
// clock every time; a fire from an older generation is ignored.
func (a *Anchor) armLocked() {
	a.gen++
	gen := a.gen
	delay := DelayUntilMidnight(a.now())
	a.timer = a.clock.AfterFunc(delay, func() { a.fire(gen) })
}

func (a *Anchor) disarmLocked() {
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Anchor) fire(gen uint64) {
	a.mu.Lock()
	if a.state != StateScheduled || gen != a.gen {
		a.mu.Unlock()
		return
	}
	iso, changed := a.refreshLocked()
	a.armLocked()
	obs := a.observersLocked(changed)
	a.mu.Unlock()

	notify(obs, iso)
}

// refreshLocked publishes the clock's current day. A fire that lands a
// little before midnight leaves the day unchanged and is not reported.
func (a *Anchor) refreshLocked() (string, bool) {
	iso := IsoDay(a.now())
	if iso == a.Today() {
		return iso, false
	}
	a.publish(iso)
	return iso, true
}

func (a *Anchor) observersLocked(changed bool) []func(string) {
	if !changed || len(a.observers) == 0 {
		return nil
	}
	out := make([]func(string), 0, len(a.observers))
	for _, fn := range a.observers {
		out = append(out, fn)
	}
	return out
}

func notify(obs []func(string), iso string) {
	for _, fn := range obs {
		fn(iso)
	}
}
