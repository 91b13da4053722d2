package host

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Handle identifies a scheduled frame callback or timer. Zero is never issued.
type Handle uint64

// FrameFunc receives the loop clock in milliseconds.
type FrameFunc func(timestamp float64)

// minInterval is the clamp applied to zero or negative interval periods.
const minInterval = time.Millisecond

// maxTimerFires bounds how many timer callbacks one Step may run, so a
// zero-delay timer that keeps rescheduling itself cannot starve frames.
const maxTimerFires = 10000

type timer struct {
	handle Handle
	due    time.Duration
	period time.Duration
	seq    uint64
	fn     func()
}

type frame struct {
	handle Handle
	fn     FrameFunc
}

// Loop is the single-threaded event loop of a page. It keeps a virtual clock
// that only moves on Step, which makes frame scheduling deterministic in tests;
// Run drives Step from a wall-clock ticker.
//
// Every method except Post, Do and Running must be called from the loop
// goroutine (or from the goroutine that owns the loop when it is not running).
type Loop struct {
	now     time.Duration
	nextID  Handle
	seq     uint64
	frames  []frame
	timers  map[Handle]*timer
	ticks   uint64
	running atomic.Bool

	mu     sync.Mutex
	posted []func()
	wake   chan struct{}
}

// NewLoop creates an idle loop at time zero.
func NewLoop() *Loop {
	return &Loop{
		timers: make(map[Handle]*timer),
		wake:   make(chan struct{}, 1),
	}
}

// Now returns the loop clock.
func (l *Loop) Now() time.Duration {
	return l.now
}

// Millis returns the loop clock in milliseconds.
func (l *Loop) Millis() float64 {
	return float64(l.now) / float64(time.Millisecond)
}

// Ticks returns the number of frame turns taken so far.
func (l *Loop) Ticks() uint64 {
	return l.ticks
}

// RequestAnimationFrame schedules fn for the next frame turn.
func (l *Loop) RequestAnimationFrame(fn FrameFunc) Handle {
	l.nextID++
	l.frames = append(l.frames, frame{handle: l.nextID, fn: fn})
	return l.nextID
}

// CancelAnimationFrame removes a pending frame callback.
func (l *Loop) CancelAnimationFrame(h Handle) bool {
	for i, f := range l.frames {
		if f.handle == h {
			l.frames = append(l.frames[:i:i], l.frames[i+1:]...)
			return true
		}
	}
	return false
}

// SetTimeout schedules fn once after delay.
func (l *Loop) SetTimeout(fn func(), delay time.Duration) Handle {
	return l.addTimer(fn, delay, 0)
}

// SetInterval schedules fn every period until cleared.
func (l *Loop) SetInterval(fn func(), period time.Duration) Handle {
	if period < minInterval {
		period = minInterval
	}
	return l.addTimer(fn, period, period)
}

// ClearTimer cancels a timeout or interval.
func (l *Loop) ClearTimer(h Handle) bool {
	if _, ok := l.timers[h]; !ok {
		return false
	}
	delete(l.timers, h)
	return true
}

// PendingFrames returns the number of queued frame callbacks.
func (l *Loop) PendingFrames() int {
	return len(l.frames)
}

// PendingTimers returns the number of armed timers and intervals.
func (l *Loop) PendingTimers() int {
	return len(l.timers)
}

func (l *Loop) addTimer(fn func(), delay, period time.Duration) Handle {
	if delay < 0 {
		delay = 0
	}
	l.nextID++
	l.seq++
	l.timers[l.nextID] = &timer{
		handle: l.nextID,
		due:    l.now + delay,
		period: period,
		seq:    l.seq,
		fn:     fn,
	}
	return l.nextID
}

// Step advances the clock by dt, then fires due timers in order and runs one
// frame turn. Frame callbacks requested during the turn wait for the next Step.
func (l *Loop) Step(dt time.Duration) {
	l.drainPosted()
	if dt > 0 {
		l.now += dt
	}
	l.fireTimers()

	pending := l.frames
	l.frames = nil
	l.ticks++
	ts := l.Millis()
	for _, f := range pending {
		f.fn(ts)
	}
}

// Advance steps the loop in frame-sized increments until d has elapsed.
func (l *Loop) Advance(d, frame time.Duration) {
	if frame <= 0 {
		frame = time.Second / 60
	}
	for elapsed := time.Duration(0); elapsed < d; elapsed += frame {
		step := frame
		if rest := d - elapsed; rest < step {
			step = rest
		}
		l.Step(step)
	}
}

func (l *Loop) fireTimers() {
	for fired := 0; fired < maxTimerFires; fired++ {
		next := l.nextDue()
		if next == nil {
			return
		}
		if next.period > 0 {
			l.seq++
			next.due += next.period
			next.seq = l.seq
		} else {
			delete(l.timers, next.handle)
		}
		next.fn()
	}
}

func (l *Loop) nextDue() *timer {
	due := make([]*timer, 0, len(l.timers))
	for _, t := range l.timers {
		if t.due <= l.now {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].seq < due[j].seq
	})
	return due[0]
}

// Post queues fn to run on the loop goroutine before the next turn.
// It is safe to call from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do runs fn on the loop goroutine and waits for it. When the loop is not
// running, fn runs on the calling goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	if !l.running.Load() {
		fn()
		return nil
	}
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether Run is driving the loop.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// Run drives the loop at fps frames per second until ctx is cancelled.
func (l *Loop) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		fps = 60
	}
	l.running.Store(true)
	defer l.running.Store(false)

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			l.drainPosted()
			return ctx.Err()
		case <-l.wake:
			l.drainPosted()
		case now := <-ticker.C:
			l.Step(now.Sub(last))
			last = now
		}
	}
}

func (l *Loop) drainPosted() {
	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	l.mu.Unlock()
	for _, fn := range posted {
		fn()
	}
}
