package host

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox/dom"
)

func TestTrackerClose(t *testing.T) {
	loop := NewLoop()
	win := dom.NewWindow(800, 600)
	tr := NewTracker(loop, win)

	fired := 0
	tr.RequestFrame(func(float64) { fired++ })
	tr.SetTimeout(func() { fired++ }, 10*time.Millisecond)
	tr.SetInterval(func() { fired++ }, 10*time.Millisecond)
	tr.Listen(dom.EventResize, func(dom.Event) { fired++ }, nil)

	assert.Equal(t, 1, tr.ActiveFrames())
	assert.Equal(t, 2, tr.ActiveTimers())
	assert.Equal(t, 1, tr.ActiveListeners())

	tr.Close()
	tr.Close()

	loop.Step(50 * time.Millisecond)
	win.Resize(100, 100)

	assert.Zero(t, fired)
	assert.Zero(t, loop.PendingFrames())
	assert.Zero(t, loop.PendingTimers())
	assert.Zero(t, win.ListenerCount(dom.EventResize))
}

func TestTrackerRejectsAfterClose(t *testing.T) {
	tr := NewTracker(NewLoop(), dom.NewWindow(10, 10))
	tr.Close()

	assert.Zero(t, tr.RequestFrame(func(float64) {}))
	assert.Zero(t, tr.SetTimeout(func() {}, 0))
	assert.Zero(t, tr.Listen(dom.EventResize, func(dom.Event) {}, nil))
}

func TestTrackerFrameBookkeeping(t *testing.T) {
	loop := NewLoop()
	tr := NewTracker(loop, dom.NewWindow(10, 10))

	tr.RequestFrame(func(float64) {})
	loop.Step(time.Millisecond)
	assert.Zero(t, tr.ActiveFrames(), "fired frames are forgotten")

	h := tr.SetTimeout(func() {}, time.Second)
	tr.ClearTimer(h)
	assert.Zero(t, tr.ActiveTimers())
	assert.Zero(t, loop.PendingTimers())
}

func TestTrackerFail(t *testing.T) {
	tr := NewTracker(NewLoop(), dom.NewWindow(10, 10))
	var got []error
	tr.OnError(func(err error) { got = append(got, err) })

	tr.Fail(errors.New("boom"))
	tr.Fail(nil)
	tr.Close()
	tr.Fail(errors.New("after close"))

	assert.Len(t, got, 1)
}
