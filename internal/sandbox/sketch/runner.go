package sketch

import (
	"errors"
	"strings"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/dom"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/host"
)

// Options configures the sketch runner.
type Options struct {
	// SettleDelay is how long after Run the mount is checked for a canvas.
	SettleDelay time.Duration
	// Seed seeds random() and noise(). Zero picks a time-based seed.
	Seed int64
	// FrameLogEvery and FrameLogBurst sample frame error logging.
	FrameLogEvery time.Duration
	FrameLogBurst int
}

// DefaultOptions returns the runner defaults.
func DefaultOptions() Options {
	return Options{
		SettleDelay:   500 * time.Millisecond,
		FrameLogEvery: time.Second,
		FrameLogBurst: 3,
	}
}

// responsiveStyles fit the canvas to its container and centre it.
var responsiveStyles = map[string]string{
	"width":     "auto",
	"height":    "auto",
	"maxWidth":  "100%",
	"maxHeight": "100%",
	"margin":    "0 auto",
	"display":   "block",
}

// entryNames are the conventional callbacks a program may define.
var entryNames = []string{
	"preload", "setup", "draw", "windowResized",
	"mousePressed", "mouseReleased", "mouseMoved", "mouseDragged", "mouseClicked",
	"doubleClicked", "mouseWheel", "keyPressed", "keyReleased", "keyTyped",
}

// Runner executes p5-style programs.
type Runner struct {
	env     *sandbox.Env
	opts    Options
	log     *logging.Logger
	current *Instance
}

// New creates a sketch runner on env.
func New(env *sandbox.Env, opts Options) *Runner {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultOptions().SettleDelay
	}
	if opts.FrameLogEvery <= 0 {
		opts.FrameLogEvery = DefaultOptions().FrameLogEvery
	}
	if opts.FrameLogBurst <= 0 {
		opts.FrameLogBurst = DefaultOptions().FrameLogBurst
	}
	return &Runner{env: env, opts: opts, log: env.Log.Named("sketch")}
}

// Kind implements sandbox.Runner.
func (r *Runner) Kind() sandbox.Kind { return sandbox.KindSketch }

// State returns the state of the runner's latest instance.
func (r *Runner) State() sandbox.State {
	if r.current == nil {
		return sandbox.StateIdle
	}
	return r.current.State()
}

// Instance returns the latest instance, or nil.
func (r *Runner) Instance() *Instance { return r.current }

// Dispose tears down the runner's instance. It is idempotent.
func (r *Runner) Dispose() {
	inst := r.current
	if inst == nil {
		return
	}
	r.current = nil
	if r.env.Slot.Current() == sandbox.Instance(inst) {
		r.env.Slot.Vacate()
		return
	}
	if err := inst.Teardown(); err != nil {
		r.log.Warn("Error while removing sketch instance", zap.Error(err))
	}
}

// Run implements sandbox.Runner.
func (r *Runner) Run(source string, mount *dom.Element, onError sandbox.ErrorFunc) {
	page := r.env.Page
	seed := r.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	r.env.Metrics.RunStarted(sandbox.KindSketch)
	r.env.Slot.Vacate()
	if r.current != nil {
		if err := r.current.Teardown(); err != nil {
			r.log.Warn("Error while removing previous sketch instance", zap.Error(err))
		}
	}

	inst := &Instance{
		runner:  r,
		page:    page,
		mount:   mount,
		report:  sandbox.NewReporter(onError),
		limiter: rate.NewLimiter(rate.Every(r.opts.FrameLogEvery), r.opts.FrameLogBurst),
	}
	r.current = inst
	_ = inst.life.To(sandbox.StatePreparing)
	r.env.Slot.Claim(inst)

	r.log.Debug("Running sketch", zap.Int("code_length", len(source)))
	if err := inst.start(source, seed); err != nil {
		outcome := sandbox.OutcomeError
		var malformed *sandbox.MalformedSourceError
		if errors.As(err, &malformed) {
			outcome = sandbox.OutcomeMalformed
		}
		inst.abort(err)
		r.env.Metrics.RunFinished(sandbox.KindSketch, outcome)
		return
	}
	r.env.Metrics.RunFinished(sandbox.KindSketch, sandbox.OutcomeLive)
}

type entryPoints map[string]goja.Callable

func (e entryPoints) any() bool { return len(e) > 0 }

// Instance is one running sketch.
type Instance struct {
	runner  *Runner
	page    *host.Page
	mount   *dom.Element
	ctx     *Context
	tracker *host.Tracker
	table   *sandbox.BindingTable
	entries entryPoints
	life    sandbox.Lifecycle
	report  *sandbox.Reporter
	limiter *rate.Limiter

	frameScheduled bool
	frameErrors    int
	released       bool
}

// Kind implements sandbox.Instance.
func (i *Instance) Kind() sandbox.Kind { return sandbox.KindSketch }

// State implements sandbox.Instance.
func (i *Instance) State() sandbox.State { return i.life.State() }

// Context returns the drawing context.
func (i *Instance) Context() *Context { return i.ctx }

// Tracker returns the handle tracker of the instance.
func (i *Instance) Tracker() *host.Tracker { return i.tracker }

// Errors returns every error reported for this run.
func (i *Instance) Errors() []error { return i.report.Errors() }

// FrameErrors returns the number of failed frames.
func (i *Instance) FrameErrors() int { return i.frameErrors }

// Bindings returns the names installed on the global object.
func (i *Instance) Bindings() []string {
	if i.table == nil {
		return nil
	}
	return i.table.Names()
}

// HasEntry reports whether the program defined the named callback.
func (i *Instance) HasEntry(name string) bool {
	_, ok := i.entries[name]
	return ok
}

func (i *Instance) start(source string, seed int64) error {
	if _, err := sandbox.PrepareMount(i.mount); err != nil {
		return &sandbox.ExecutionError{Kind: sandbox.KindSketch, Phase: sandbox.PhaseScript, Message: err.Error(), Err: err}
	}
	if strings.TrimSpace(source) == "" {
		return &sandbox.MalformedSourceError{Reason: "empty program"}
	}
	prog, err := Unwrap(source)
	if err != nil {
		return err
	}

	realm := i.page.Realm
	i.tracker = i.page.NewTracker()
	i.tracker.OnError(i.callbackFailed)
	realm.Bind(i.tracker)

	i.ctx = newContext(i.page, i.mount, seed)
	i.ctx.onSchedule = i.ensureFrame

	table, err := sandbox.NewBindingTable(realm.VM(), realm.Global())
	if err != nil {
		return execError(sandbox.PhaseScript, err)
	}
	i.table = table
	table.Snapshot()
	if err := i.ctx.install(table); err != nil {
		return execError(sandbox.PhaseScript, err)
	}

	_ = i.life.To(sandbox.StateExecuting)
	entries, err := i.execute(prog)
	if err != nil {
		return err
	}
	i.entries = entries

	if fn, ok := entries["preload"]; ok {
		if f, failed := sandbox.Failed(sandbox.Invoke(realm, fn, i.ctx.Object())); failed {
			return execError(sandbox.PhasePreload, f.Err)
		}
	}
	if fn, ok := entries["setup"]; ok {
		if f, failed := sandbox.Failed(sandbox.Invoke(realm, fn, i.ctx.Object())); failed {
			return execError(sandbox.PhaseSetup, f.Err)
		}
	}
	if i.ctx.canvas == nil && entries.any() {
		i.ctx.createCanvas(DefaultCanvasSize, DefaultCanvasSize, "p2d")
	}

	i.listen()
	i.ensureFrame()
	i.tracker.SetTimeout(i.settle, i.runner.opts.SettleDelay)
	_ = i.life.To(sandbox.StateLive)
	return nil
}

func execError(phase string, err error) error {
	return &sandbox.ExecutionError{Kind: sandbox.KindSketch, Phase: phase, Message: host.Describe(err), Err: err}
}

// execute runs the program inside the instance function and collects its
// entry points from declarations, instance assignments or leaked globals.
func (i *Instance) execute(prog Program) (entryPoints, error) {
	realm := i.page.Realm
	var b strings.Builder
	b.WriteString("(function(")
	b.WriteString(prog.Param)
	b.WriteString("){\n")
	b.WriteString(prog.Body)
	b.WriteString("\n;return {")
	for n, name := range entryNames {
		if n > 0 {
			b.WriteString(",")
		}
		b.WriteString(name)
		b.WriteString(": typeof ")
		b.WriteString(name)
		b.WriteString(` === "function" ? `)
		b.WriteString(name)
		b.WriteString(" : undefined")
	}
	b.WriteString("};})")

	val, err := realm.Exec("sketch.js", b.String())
	if err != nil {
		return nil, execError(sandbox.PhaseScript, err)
	}
	fn, ok := goja.AssertFunction(val)
	if !ok {
		return nil, execError(sandbox.PhaseScript, errors.New("program did not evaluate to a function"))
	}
	ret, err := realm.Call(fn, goja.Undefined(), i.ctx.Object())
	if err != nil {
		return nil, execError(sandbox.PhaseScript, err)
	}

	entries := entryPoints{}
	sources := []*goja.Object{i.ctx.Object(), realm.Global()}
	if obj, ok := ret.(*goja.Object); ok {
		sources = append([]*goja.Object{obj}, sources...)
	}
	for _, name := range entryNames {
		for _, src := range sources {
			if fn, ok := goja.AssertFunction(src.Get(name)); ok {
				entries[name] = fn
				break
			}
		}
	}
	return entries, nil
}

func (i *Instance) listen() {
	t := i.tracker
	t.Listen(dom.EventResize, func(dom.Event) {
		if fn, ok := i.entries["windowResized"]; ok {
			i.callback(fn)
			return
		}
		if i.ctx.canvas != nil {
			w, h := sandbox.MountSize(i.mount, i.ctx.width, i.ctx.height)
			i.ctx.resizeCanvas(w, h)
		}
	}, nil)
	if !i.hasInputHandlers() {
		t.Listen(dom.EventMouseMove, i.ctx.pointerEvent, nil)
		t.Listen(dom.EventMouseDown, i.ctx.pointerEvent, nil)
		t.Listen(dom.EventMouseUp, i.ctx.pointerEvent, nil)
		t.Listen(dom.EventKeyDown, i.ctx.keyEvent, nil)
		t.Listen(dom.EventKeyUp, i.ctx.keyEvent, nil)
		return
	}

	t.Listen(dom.EventMouseMove, func(ev dom.Event) {
		i.ctx.pointerEvent(ev)
		if i.ctx.mouse.pressed {
			i.callEntry("mouseDragged")
		} else {
			i.callEntry("mouseMoved")
		}
	}, nil)
	t.Listen(dom.EventMouseDown, func(ev dom.Event) {
		i.ctx.pointerEvent(ev)
		i.callEntry("mousePressed")
	}, nil)
	t.Listen(dom.EventMouseUp, func(ev dom.Event) {
		i.ctx.pointerEvent(ev)
		i.callEntry("mouseReleased")
	}, nil)
	t.Listen(dom.EventClick, func(dom.Event) { i.callEntry("mouseClicked") }, nil)
	t.Listen(dom.EventDblClick, func(dom.Event) { i.callEntry("doubleClicked") }, nil)
	t.Listen(dom.EventWheel, func(ev dom.Event) {
		i.ctx.pointerEvent(ev)
		if fn, ok := i.entries["mouseWheel"]; ok {
			i.callback(fn, i.page.Realm.EventObject(ev))
		}
	}, nil)
	t.Listen(dom.EventKeyDown, func(ev dom.Event) {
		i.ctx.keyEvent(ev)
		i.callEntry("keyPressed")
	}, nil)
	t.Listen(dom.EventKeyUp, func(ev dom.Event) {
		i.ctx.keyEvent(ev)
		i.callEntry("keyReleased")
	}, nil)
	t.Listen(dom.EventKeyPress, func(ev dom.Event) {
		i.ctx.keys.key = ev.Key
		i.callEntry("keyTyped")
	}, nil)
}

func (i *Instance) hasInputHandlers() bool {
	for name := range i.entries {
		switch name {
		case "preload", "setup", "draw", "windowResized":
		default:
			return true
		}
	}
	return false
}

func (i *Instance) callEntry(name string) {
	if fn, ok := i.entries[name]; ok {
		i.callback(fn)
	}
}

func (i *Instance) callback(fn goja.Callable, args ...goja.Value) {
	if f, failed := sandbox.Failed(sandbox.Invoke(i.page.Realm, fn, i.ctx.Object(), args...)); failed {
		i.frameFailed(f)
	}
}

// ensureFrame requests the next frame unless one is pending. Only one frame
// is ever outstanding per instance.
func (i *Instance) ensureFrame() {
	if i.released || i.frameScheduled || i.entries["draw"] == nil || !i.ctx.wantsFrames() {
		return
	}
	if h := i.tracker.RequestFrame(i.tick); h != 0 {
		i.frameScheduled = true
	}
}

func (i *Instance) tick(ts float64) {
	i.frameScheduled = false
	if i.released {
		return
	}
	if i.ctx.due(ts) {
		i.ctx.beginFrame(ts)
		res := sandbox.Invoke(i.page.Realm, i.entries["draw"], i.ctx.Object())
		i.ctx.endFrame()
		if f, failed := sandbox.Failed(res); failed {
			i.frameFailed(f)
		}
	}
	i.ensureFrame()
}

func (i *Instance) frameFailed(f sandbox.FrameFailed) {
	i.frameErrors++
	i.runner.env.Metrics.FrameFailed(sandbox.KindSketch)
	if i.limiter.Allow() {
		i.runner.log.Warn("Error in animation frame",
			zap.Int("frame", i.ctx.frameCount),
			zap.String("reason", f.Reason))
	}
	i.report.Report(&sandbox.FrameError{Frame: uint64(i.ctx.frameCount), Message: f.Reason, Err: f.Err})
}

// callbackFailed handles throws from timers and listeners the program
// registered itself.
func (i *Instance) callbackFailed(err error) {
	i.frameFailed(sandbox.FrameFailed{Reason: host.Describe(err), Err: err})
}

func (i *Instance) settle() {
	if i.released {
		return
	}
	if !i.mount.HasSurface() {
		i.runner.log.Warn("No canvas or SVG found after running sketch")
		i.report.Report(&sandbox.RenderSurfaceMissingError{Kind: sandbox.KindSketch, After: i.runner.opts.SettleDelay})
		return
	}
	sandbox.ApplyStyles(i.mount, responsiveStyles)
}

func (i *Instance) abort(err error) {
	i.runner.log.Warn("Sketch failed", zap.Error(err))
	if rerr := i.release(); rerr != nil {
		i.runner.log.Warn("Error while releasing failed sketch", zap.Error(rerr))
	}
	_ = i.life.To(sandbox.StateError)
	i.report.Report(err)
}

// release frees every resource of the instance. It is idempotent.
func (i *Instance) release() error {
	if i.released {
		return nil
	}
	i.released = true

	var errs []error
	if i.tracker != nil {
		i.tracker.Close()
		i.page.Realm.Unbind(i.tracker)
	}
	if i.table != nil {
		errs = append(errs, i.table.Revert())
	}
	if i.ctx != nil {
		i.ctx.release()
	}
	if i.mount != nil {
		for _, s := range i.mount.Surfaces() {
			s.Remove()
			i.page.Realm.Forget(s)
		}
	}
	return errors.Join(errs...)
}

// Teardown implements sandbox.Instance.
func (i *Instance) Teardown() error {
	err := i.release()
	if i.life.State() != sandbox.StateTornDown {
		_ = i.life.To(sandbox.StateTornDown)
	}
	return err
}
