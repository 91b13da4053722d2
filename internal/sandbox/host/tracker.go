package host

import (
	"time"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox/dom"
)

type trackedListener struct {
	id      dom.ListenerID
	typ     string
	jsValue goja.Value
}

// Tracker records every frame, timer and window listener registered on behalf
// of one running instance, so teardown can release all of them at once.
type Tracker struct {
	loop   *Loop
	window *dom.Window

	frames    map[Handle]struct{}
	timers    map[Handle]struct{}
	listeners []trackedListener
	closed    bool

	onError func(error)
}

// NewTracker creates a tracker bound to the page loop and window.
func NewTracker(loop *Loop, window *dom.Window) *Tracker {
	return &Tracker{
		loop:   loop,
		window: window,
		frames: make(map[Handle]struct{}),
		timers: make(map[Handle]struct{}),
	}
}

// OnError sets the handler for errors raised by tracked callbacks.
func (t *Tracker) OnError(fn func(error)) {
	t.onError = fn
}

// Fail forwards a callback error to the error handler. Errors arriving after
// Close are dropped.
func (t *Tracker) Fail(err error) {
	if err == nil || t.closed || t.onError == nil {
		return
	}
	t.onError(err)
}

// Closed reports whether Close has been called.
func (t *Tracker) Closed() bool {
	return t.closed
}

// RequestFrame schedules fn for the next frame turn.
func (t *Tracker) RequestFrame(fn FrameFunc) Handle {
	if t.closed {
		return 0
	}
	var h Handle
	h = t.loop.RequestAnimationFrame(func(ts float64) {
		delete(t.frames, h)
		if !t.closed {
			fn(ts)
		}
	})
	t.frames[h] = struct{}{}
	return h
}

// CancelFrame cancels a frame scheduled through this tracker.
func (t *Tracker) CancelFrame(h Handle) {
	if _, ok := t.frames[h]; !ok {
		return
	}
	delete(t.frames, h)
	t.loop.CancelAnimationFrame(h)
}

// SetTimeout schedules fn once after delay.
func (t *Tracker) SetTimeout(fn func(), delay time.Duration) Handle {
	if t.closed {
		return 0
	}
	var h Handle
	h = t.loop.SetTimeout(func() {
		delete(t.timers, h)
		if !t.closed {
			fn()
		}
	}, delay)
	t.timers[h] = struct{}{}
	return h
}

// SetInterval schedules fn every period.
func (t *Tracker) SetInterval(fn func(), period time.Duration) Handle {
	if t.closed {
		return 0
	}
	h := t.loop.SetInterval(func() {
		if !t.closed {
			fn()
		}
	}, period)
	t.timers[h] = struct{}{}
	return h
}

// ClearTimer cancels a timeout or interval scheduled through this tracker.
func (t *Tracker) ClearTimer(h Handle) {
	if _, ok := t.timers[h]; !ok {
		return
	}
	delete(t.timers, h)
	t.loop.ClearTimer(h)
}

// Listen registers a window listener. jsValue, when set, is the script
// function that RemoveListenerValue matches against.
func (t *Tracker) Listen(eventType string, fn dom.Listener, jsValue goja.Value) dom.ListenerID {
	if t.closed {
		return 0
	}
	id := t.window.AddEventListener(eventType, func(ev dom.Event) {
		if !t.closed {
			fn(ev)
		}
	})
	t.listeners = append(t.listeners, trackedListener{id: id, typ: eventType, jsValue: jsValue})
	return id
}

// Unlisten removes a listener registered through this tracker.
func (t *Tracker) Unlisten(id dom.ListenerID) {
	for i, l := range t.listeners {
		if l.id == id {
			t.window.RemoveEventListener(id)
			t.listeners = append(t.listeners[:i:i], t.listeners[i+1:]...)
			return
		}
	}
}

// UnlistenValue removes the listener registered for the given script function.
func (t *Tracker) UnlistenValue(eventType string, jsValue goja.Value) {
	for _, l := range t.listeners {
		if l.typ == eventType && l.jsValue != nil && l.jsValue.SameAs(jsValue) {
			t.Unlisten(l.id)
			return
		}
	}
}

// ActiveFrames returns the number of pending frame callbacks.
func (t *Tracker) ActiveFrames() int { return len(t.frames) }

// ActiveTimers returns the number of armed timers.
func (t *Tracker) ActiveTimers() int { return len(t.timers) }

// ActiveListeners returns the number of registered window listeners.
func (t *Tracker) ActiveListeners() int { return len(t.listeners) }

// Close cancels everything the tracker registered. It is idempotent.
func (t *Tracker) Close() {
	if t.closed {
		return
	}
	t.closed = true
	for h := range t.frames {
		t.loop.CancelAnimationFrame(h)
	}
	for h := range t.timers {
		t.loop.ClearTimer(h)
	}
	for _, l := range t.listeners {
		t.window.RemoveEventListener(l.id)
	}
	t.frames = map[Handle]struct{}{}
	t.timers = map[Handle]struct{}{}
	t.listeners = nil
}
