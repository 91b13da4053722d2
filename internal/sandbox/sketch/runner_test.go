package sketch

import (
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/dom"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/host"
)

const frame = time.Second / 60

type harness struct {
	page   *host.Page
	env    *sandbox.Env
	runner *Runner
	mount  *dom.Element
	errors []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newLoggedHarness(t, nil)
}

func newLoggedHarness(t *testing.T, log *logging.Logger) *harness {
	t.Helper()
	cfg := host.DefaultPageConfig()
	cfg.Realm.ExecTimeout = 500 * time.Millisecond
	page := host.NewPage(cfg, nil)
	env := sandbox.NewEnv(page, log, nil)
	return &harness{
		page:   page,
		env:    env,
		runner: New(env, Options{Seed: 1}),
		mount:  page.Document.CreateMount("", 640, 480),
	}
}

func (h *harness) run(src string) {
	h.runner.Run(src, h.mount, func(msg string) { h.errors = append(h.errors, msg) })
}

func (h *harness) eval(t *testing.T, src string) goja.Value {
	t.Helper()
	v, err := h.page.Realm.Exec("inspect.js", src)
	require.NoError(t, err)
	return v
}

const bouncingBall = `
let x = 50, y = 50, vx = 3, vy = 2;
function setup() {
  createCanvas(400, 300);
}
function draw() {
  background(20);
  fill(255, 0, 0);
  noStroke();
  ellipse(x, y, 30, 30);
  x += vx; y += vy;
  if (x < 15 || x > width - 15) vx = -vx;
  if (y < 15 || y > height - 15) vy = -vy;
}
`

func TestRunBouncingBall(t *testing.T) {
	h := newHarness(t)
	h.run(bouncingBall)

	assert.Equal(t, sandbox.StateLive, h.runner.State())
	h.page.Loop.Advance(time.Second, frame)

	assert.Empty(t, h.errors)
	require.True(t, h.mount.HasSurface())
	canvas := h.mount.Surfaces()[0]
	assert.Equal(t, 400, canvas.Canvas.Width)
	assert.Equal(t, "100%", canvas.Style["maxWidth"], "styles are applied once the canvas settles")

	inst := h.runner.Instance()
	assert.Greater(t, inst.Context().FrameCount(), 30)
	assert.Greater(t, canvas.Canvas.Frames(), 30)
	assert.Positive(t, canvas.Canvas.LastFrameCommands())
}

func TestRunWrappedProgram(t *testing.T) {
	h := newHarness(t)
	h.run(`new p5(function(p) {
  p.setup = function() { p.createCanvas(200, 100); };
  p.draw = function() { p.background(0); p.rect(10, 10, 20, 20); };
});`)

	h.page.Loop.Advance(600*time.Millisecond, frame)
	assert.Empty(t, h.errors)
	require.True(t, h.mount.HasSurface())
	assert.Equal(t, 200, h.mount.Surfaces()[0].Canvas.Width)
	assert.Positive(t, h.runner.Instance().Context().FrameCount())
}

func TestRunLeavesNoGlobalsBehind(t *testing.T) {
	h := newHarness(t)
	h.run(`leakedA = 1; window.leakedB = 2; function setup(){ createCanvas(50, 50); } function draw(){}`)
	require.Empty(t, h.errors)
	assert.Equal(t, "number", h.eval(t, "typeof leakedA").String())

	h.run(`function setup(){ createCanvas(60, 60); } function draw(){}`)
	require.Empty(t, h.errors)
	assert.Equal(t, "undefined", h.eval(t, "typeof leakedA").String())
	assert.Equal(t, "undefined", h.eval(t, "typeof leakedB").String())
	assert.Equal(t, "function", h.eval(t, "typeof background").String())

	h.runner.Dispose()
	assert.Equal(t, "undefined", h.eval(t, "typeof background").String())
	assert.Equal(t, "undefined", h.eval(t, "typeof width").String())
	assert.Equal(t, "undefined", h.eval(t, "typeof setup").String())
}

func TestRunRestoresShadowedGlobals(t *testing.T) {
	h := newHarness(t)
	h.eval(t, `window.print = "mine";`)

	h.run(`function setup(){ createCanvas(10, 10); }`)
	assert.Equal(t, "function", h.eval(t, "typeof print").String())

	h.runner.Dispose()
	assert.Equal(t, "mine", h.eval(t, "print").String())
}

func TestRunKeepsOneLoop(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 3; i++ {
		h.run(bouncingBall)
		h.page.Loop.Step(frame)
	}
	assert.Equal(t, 1, h.page.Loop.PendingFrames())
	assert.Len(t, h.mount.Surfaces(), 1)

	// redraw() and loop() while already looping do not add frames.
	h.eval(t, "loop(); redraw(); redraw();")
	assert.Equal(t, 1, h.page.Loop.PendingFrames())
}

func TestRunContainsFrameErrors(t *testing.T) {
	h := newHarness(t)
	h.run(`function setup(){} function draw(){ throw new Error('x'); }`)

	assert.Equal(t, sandbox.StateLive, h.runner.State())
	h.page.Loop.Step(frame)
	h.page.Loop.Step(frame)
	h.page.Loop.Step(frame)

	assert.Equal(t, sandbox.StateLive, h.runner.State())
	require.Len(t, h.errors, 3)
	assert.Equal(t, "Error in animation frame 1: x", h.errors[0])
	assert.Equal(t, "Error in animation frame 3: x", h.errors[2])
	assert.Equal(t, 3, h.runner.Instance().FrameErrors())
	assert.Equal(t, 1, h.page.Loop.PendingFrames(), "the loop keeps running")
}

func TestRunSyntaxError(t *testing.T) {
	h := newHarness(t)
	h.run(`function setup( { createCanvas(10, 10); }`)

	require.Len(t, h.errors, 1)
	assert.Contains(t, h.errors[0], "Error in animation code: SyntaxError")
	assert.Equal(t, sandbox.StateError, h.runner.State())
	assert.False(t, h.mount.HasSurface())
	assert.Zero(t, h.page.Loop.PendingFrames())

	h.page.Loop.Advance(time.Second, frame)
	assert.Len(t, h.errors, 1, "no surface check runs for a failed program")
}

func TestRunSetupError(t *testing.T) {
	h := newHarness(t)
	h.run(`function setup(){ createCanvas(10, 10); undefinedThing(); } function draw(){}`)

	require.Len(t, h.errors, 1)
	assert.Contains(t, h.errors[0], "Error in animation setup: ")
	assert.Equal(t, sandbox.StateError, h.runner.State())
	assert.False(t, h.mount.HasSurface())
	assert.Zero(t, h.page.Loop.PendingFrames())
}

func TestRunMalformedWrapper(t *testing.T) {
	h := newHarness(t)
	h.run(`new p5(function(p) { p.setup = function(){};`)

	require.Len(t, h.errors, 1)
	assert.Contains(t, h.errors[0], "Malformed animation code: ")
	assert.Equal(t, sandbox.StateError, h.runner.State())
}

func TestRunReportsMissingSurface(t *testing.T) {
	h := newHarness(t)
	h.run(`let n = 1 + 1;`)
	assert.Empty(t, h.errors)

	h.page.Loop.Advance(600*time.Millisecond, frame)
	require.Len(t, h.errors, 1)
	assert.Equal(t, "Animation failed to render. Please try regenerating the animation.", h.errors[0])
}

func TestRunCreatesDefaultCanvas(t *testing.T) {
	h := newHarness(t)
	h.run(`function draw(){ background(255); }`)

	require.True(t, h.mount.HasSurface())
	assert.Equal(t, DefaultCanvasSize, h.mount.Surfaces()[0].Canvas.Width)
}

func TestDisposeIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.run(bouncingBall)
	inst := h.runner.Instance()

	h.runner.Dispose()
	h.runner.Dispose()

	assert.Equal(t, sandbox.StateIdle, h.runner.State())
	assert.Equal(t, sandbox.StateIdle, h.env.Slot.State())
	assert.Equal(t, sandbox.StateTornDown, inst.State())
	assert.False(t, h.mount.HasSurface())
	assert.Zero(t, h.page.Loop.PendingFrames())
	assert.True(t, inst.Tracker().Closed())
}

func TestResizeAfterTeardownIsNoop(t *testing.T) {
	h := newHarness(t)
	h.run(`let calls = 0;
function setup(){ createCanvas(100, 100); }
function windowResized(){ window.resizedCalls = (window.resizedCalls || 0) + 1; }`)

	h.page.Resize(800, 600)
	assert.Equal(t, int64(1), h.eval(t, "window.resizedCalls").ToInteger())

	h.runner.Dispose()
	h.page.Resize(1024, 768)
	assert.Empty(t, h.errors)
	assert.Zero(t, h.page.Window.ListenerCount(dom.EventResize))
}

func TestResizeDefaultsToMountSize(t *testing.T) {
	h := newHarness(t)
	h.run(`function setup(){ createCanvas(100, 100); }`)

	h.mount.ClientWidth, h.mount.ClientHeight = 320, 240
	h.page.Resize(900, 700)

	canvas := h.mount.Surfaces()[0].Canvas
	assert.Equal(t, 320, canvas.Width)
	assert.Equal(t, 240, canvas.Height)
}

func TestInputHandlers(t *testing.T) {
	h := newHarness(t)
	h.run(`window.presses = [];
function setup(){ createCanvas(100, 100); }
function mousePressed(){ presses.push(mouseX + "," + mouseY); }
function keyPressed(){ presses.push(key); }`)

	h.page.Window.Dispatch(dom.Event{Type: dom.EventMouseDown, X: 12, Y: 34, Button: "left"})
	h.page.Window.Dispatch(dom.Event{Type: dom.EventKeyDown, Key: "a", KeyCode: 65})

	assert.Equal(t, "12,34|a", h.eval(t, `window.presses.join("|")`).String())
}

func TestTopLevelDeclarationsStayInProgram(t *testing.T) {
	h := newHarness(t)
	h.run(`var hits = 0;
function setup(){ createCanvas(10, 10); }
function mousePressed(){ hits++; window.seen = hits; }`)

	h.page.Window.Dispatch(dom.Event{Type: dom.EventMouseDown, X: 1, Y: 1, Button: "left"})
	h.page.Window.Dispatch(dom.Event{Type: dom.EventMouseDown, X: 1, Y: 1, Button: "left"})

	assert.Equal(t, int64(2), h.eval(t, `window.seen`).ToInteger())
	assert.Equal(t, "undefined", h.eval(t, `typeof hits`).String())
}

func TestNoLoopStopsFrames(t *testing.T) {
	h := newHarness(t)
	h.run(`function setup(){ createCanvas(10, 10); noLoop(); } function draw(){ background(0); }`)

	h.page.Loop.Advance(200*time.Millisecond, frame)
	assert.Zero(t, h.runner.Instance().Context().FrameCount())

	h.eval(t, "redraw();")
	h.page.Loop.Advance(200*time.Millisecond, frame)
	assert.Equal(t, 1, h.runner.Instance().Context().FrameCount())
}

func TestSwitchingRunnersVacatesSlot(t *testing.T) {
	h := newHarness(t)
	h.run(bouncingBall)
	first := h.runner.Instance()

	other := New(h.env, Options{Seed: 2})
	other.Run(bouncingBall, h.mount, func(string) {})

	assert.Equal(t, sandbox.StateTornDown, first.State())
	assert.Same(t, other.Instance(), h.env.Slot.Current())
}

// unrevertableTable returns a binding table whose Revert fails because the
// installed property was pinned after installation.
func unrevertableTable(t *testing.T, page *host.Page) *sandbox.BindingTable {
	t.Helper()
	vm := page.Realm.VM()
	target := vm.NewObject()
	table, err := sandbox.NewBindingTable(vm, target)
	require.NoError(t, err)
	require.NoError(t, table.Value("pinned", 1))
	require.NoError(t, target.DefineDataProperty("pinned", vm.ToValue(2), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE))
	return table
}

func TestRunLogsPreviousTeardownFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := newLoggedHarness(t, &logging.Logger{Logger: zap.New(core)})
	h.runner.current = &Instance{runner: h.runner, page: h.page, table: unrevertableTable(t, h.page)}

	h.run(bouncingBall)

	entries := logs.FilterMessage("Error while removing previous sketch instance").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "pinned")
	assert.Equal(t, sandbox.StateLive, h.runner.State())
	assert.Empty(t, h.errors)
}
