package scene

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

// Default triad.
const (
	DefaultFOV     = 75
	DefaultNear    = 0.1
	DefaultFar     = 1000
	DefaultCameraZ = 5
)

// Options configures the scene runner.
type Options struct {
	// SettleDelay is how long after Run the mount is checked for a canvas.
	SettleDelay time.Duration
	// FallbackWidth and FallbackHeight size the default renderer when the
	// mount reports no dimensions.
	FallbackWidth  int
	FallbackHeight int
	// Seed seeds THREE.MathUtils. Zero picks a time-based seed.
	Seed          int64
	FrameLogEvery time.Duration
	FrameLogBurst int
}

// DefaultOptions returns the runner defaults.
func DefaultOptions() Options {
	return Options{
		SettleDelay:    time.Second,
		FallbackWidth:  400,
		FallbackHeight: 300,
		FrameLogEvery:  time.Second,
		FrameLogBurst:  3,
	}
}

var responsiveStyles = map[string]string{
	"width":     "100%",
	"height":    "100%",
	"maxWidth":  "100%",
	"maxHeight": "100%",
	"display":   "block",
	"margin":    "0 auto",
}

// Runner executes three-style programs.
type Runner struct {
	env     *sandbox.Env
	opts    Options
	log     *logging.Logger
	current *Instance
}

// New creates a scene runner on env.
func New(env *sandbox.Env, opts Options) *Runner {
	def := DefaultOptions()
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = def.SettleDelay
	}
	if opts.FallbackWidth <= 0 || opts.FallbackHeight <= 0 {
		opts.FallbackWidth, opts.FallbackHeight = def.FallbackWidth, def.FallbackHeight
	}
	if opts.FrameLogEvery <= 0 {
		opts.FrameLogEvery = def.FrameLogEvery
	}
	if opts.FrameLogBurst <= 0 {
		opts.FrameLogBurst = def.FrameLogBurst
	}
	return &Runner{env: env, opts: opts, log: env.Log.Named("scene")}
}

// Kind implements sandbox.Runner.
func (r *Runner) Kind() sandbox.Kind { return sandbox.KindScene }

// State returns the state of the runner's latest instance.
func (r *Runner) State() sandbox.State {
	if r.current == nil {
		return sandbox.StateIdle
	}
	return r.current.State()
}

// Instance returns the latest instance, or nil.
func (r *Runner) Instance() *Instance { return r.current }

// HandleResize forwards to the live instance. It is a no-op without one.
func (r *Runner) HandleResize() {
	if r.current != nil {
		r.current.HandleResize()
	}
}

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
		r.log.Warn("Error while removing scene instance", zap.Error(err))
	}
}

// Run implements sandbox.Runner.
func (r *Runner) Run(source string, mount *dom.Element, onError sandbox.ErrorFunc) {
	seed := r.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	r.env.Metrics.RunStarted(sandbox.KindScene)
	r.env.Slot.Vacate()
	if r.current != nil {
		if err := r.current.Teardown(); err != nil {
			r.log.Warn("Error while removing previous scene instance", zap.Error(err))
		}
	}

	inst := &Instance{
		runner:  r,
		page:    r.env.Page,
		mount:   mount,
		report:  sandbox.NewReporter(onError),
		limiter: rate.NewLimiter(rate.Every(r.opts.FrameLogEvery), r.opts.FrameLogBurst),
	}
	r.current = inst
	_ = inst.life.To(sandbox.StatePreparing)
	r.env.Slot.Claim(inst)

	r.log.Debug("Running scene", zap.Int("code_length", len(source)))
	if err := inst.start(source, seed); err != nil {
		outcome := sandbox.OutcomeError
		var malformed *sandbox.MalformedSourceError
		if errors.As(err, &malformed) {
			outcome = sandbox.OutcomeMalformed
		}
		inst.abort(err)
		r.env.Metrics.RunFinished(sandbox.KindScene, outcome)
		return
	}
	r.env.Metrics.RunFinished(sandbox.KindScene, sandbox.OutcomeLive)
	r.env.Metrics.GPUResources(inst.ledger.Live())
}

// Instance is one running scene.
type Instance struct {
	runner  *Runner
	page    *host.Page
	mount   *dom.Element
	tracker *host.Tracker
	table   *sandbox.BindingTable
	ns      *Namespace
	ledger  *Ledger
	life    sandbox.Lifecycle
	report  *sandbox.Reporter
	limiter *rate.Limiter

	selfManaged bool
	ownLoop     bool

	scene    *goja.Object
	camera   *goja.Object
	renderer *Renderer

	startTick   uint64
	frameErrors int
	disposed    int
	leaked      int
	released    bool
}

// Kind implements sandbox.Instance.
func (i *Instance) Kind() sandbox.Kind { return sandbox.KindScene }

// State implements sandbox.Instance.
func (i *Instance) State() sandbox.State { return i.life.State() }

// Namespace returns the THREE namespace of the run.
func (i *Instance) Namespace() *Namespace { return i.ns }

// Ledger returns the GPU ledger of the run.
func (i *Instance) Ledger() *Ledger { return i.ledger }

// Tracker returns the handle tracker of the instance.
func (i *Instance) Tracker() *host.Tracker { return i.tracker }

// SelfManaged reports whether the program set up its own triad.
func (i *Instance) SelfManaged() bool { return i.selfManaged }

// Renderer returns the default renderer, or the first one the program built.
func (i *Instance) Renderer() *Renderer {
	if i.renderer != nil {
		return i.renderer
	}
	if i.ns != nil && len(i.ns.renderers) > 0 {
		return i.ns.renderers[0]
	}
	return nil
}

// Camera returns the default camera, or the one last rendered with.
func (i *Instance) Camera() *goja.Object {
	if i.camera != nil {
		return i.camera
	}
	if r := i.Renderer(); r != nil {
		return r.lastCamera
	}
	return nil
}

// Errors returns every error reported for this run.
func (i *Instance) Errors() []error { return i.report.Errors() }

// FrameErrors returns the number of failed frames.
func (i *Instance) FrameErrors() int { return i.frameErrors }

// Disposed returns how many reachable GPU resources teardown released.
func (i *Instance) Disposed() int { return i.disposed }

// Leaked returns how many GPU resources were unreachable at teardown.
func (i *Instance) Leaked() int { return i.leaked }

func (i *Instance) start(source string, seed int64) error {
	id, err := sandbox.PrepareMount(i.mount)
	if err != nil {
		return execError(err)
	}
	i.mount.SetAttribute("data-animation-container", "true")
	if strings.TrimSpace(source) == "" {
		return &sandbox.MalformedSourceError{Reason: "empty program"}
	}

	realm := i.page.Realm
	i.startTick = i.page.Loop.Ticks()
	i.tracker = i.page.NewTracker()
	i.tracker.OnError(i.callbackFailed)
	realm.Bind(i.tracker)

	i.ledger = NewLedger()
	i.ns = NewNamespace(i.page, i.ledger, seed)

	table, err := sandbox.NewBindingTable(realm.VM(), realm.Global())
	if err != nil {
		return execError(err)
	}
	i.table = table
	table.Snapshot()
	if err := table.Value("THREE", i.ns.Object()); err != nil {
		return execError(err)
	}

	document := realm.NewDocumentObject(func(ref string) *dom.Element {
		if ref == sandbox.DefaultMountID || ref == id || ref == "body" {
			return i.mount
		}
		return nil
	})

	i.selfManaged = SelfManaged(source)
	i.ownLoop = DrivesOwnLoop(source)
	params := []string{"THREE", "document", "window"}
	args := []goja.Value{i.ns.Object(), document, realm.Global()}
	if !i.selfManaged {
		if f, failed := sandbox.Failed(sandbox.Contain(i.buildTriad)); failed {
			return execError(f.Err)
		}
		params = []string{"THREE", "scene", "camera", "renderer", "document", "window"}
		args = []goja.Value{i.ns.Object(), i.scene, i.camera, i.renderer.obj, document, realm.Global()}
	}

	_ = i.life.To(sandbox.StateExecuting)
	wrapper := "(function(" + strings.Join(params, ", ") + ") {\n" + source + "\n})"
	val, err := realm.Exec("scene.js", wrapper)
	if err != nil {
		return execError(err)
	}
	fn, ok := goja.AssertFunction(val)
	if !ok {
		return execError(errors.New("program did not evaluate to a function"))
	}
	if _, err := realm.Call(fn, goja.Undefined(), args...); err != nil {
		return execError(err)
	}

	if !i.selfManaged && !i.ownLoop {
		i.requestFrame()
	}
	i.tracker.Listen(dom.EventResize, func(dom.Event) { i.HandleResize() }, nil)
	i.tracker.SetTimeout(i.settle, i.runner.opts.SettleDelay)
	_ = i.life.To(sandbox.StateLive)
	return nil
}

func execError(err error) error {
	return &sandbox.ExecutionError{Kind: sandbox.KindScene, Phase: sandbox.PhaseScript, Message: host.Describe(err), Err: err}
}

func (i *Instance) buildTriad() error {
	vm := i.ns.vm
	w, h := sandbox.MountSize(i.mount, i.runner.opts.FallbackWidth, i.runner.opts.FallbackHeight)

	i.scene = i.ns.construct("Scene")
	i.camera = i.ns.construct("PerspectiveCamera",
		vm.ToValue(DefaultFOV), vm.ToValue(float64(w)/float64(h)), vm.ToValue(DefaultNear), vm.ToValue(DefaultFar))
	params := vm.NewObject()
	_ = params.Set("antialias", true)
	_ = params.Set("alpha", true)
	i.renderer = i.ns.rendererOf(i.ns.construct("WebGLRenderer", params))
	if i.renderer == nil {
		return errors.New("renderer was not created")
	}
	i.renderer.SetSize(w, h, true)
	i.renderer.clearColor, i.renderer.clearAlpha = rgb{}, 0
	i.mount.AppendChild(i.renderer.el)
	_ = getObj(i.camera, "position").Set("z", DefaultCameraZ)
	return nil
}

// requestFrame schedules the default render loop. One frame is pending at a
// time; each frame schedules the next.
func (i *Instance) requestFrame() {
	if i.released {
		return
	}
	i.tracker.RequestFrame(func(float64) {
		if i.released {
			return
		}
		res := sandbox.Contain(func() error {
			return i.renderer.Render(i.scene, i.camera)
		})
		if f, failed := sandbox.Failed(res); failed {
			i.frameFailed(f)
		}
		i.requestFrame()
	})
}

// HandleResize fits the camera and renderer to the mount. It is idempotent
// and a no-op until a camera and renderer exist.
func (i *Instance) HandleResize() {
	if i.released {
		return
	}
	camera, renderer := i.Camera(), i.Renderer()
	if camera == nil || renderer == nil || renderer.disposed {
		return
	}
	w, h := i.mount.ClientWidth, i.mount.ClientHeight
	if w <= 0 || h <= 0 {
		return
	}
	res := sandbox.Contain(func() error {
		if i.ns.is(camera, "PerspectiveCamera") {
			if err := camera.Set("aspect", float64(w)/float64(h)); err != nil {
				return err
			}
			update, ok := goja.AssertFunction(camera.Get("updateProjectionMatrix"))
			if ok {
				if _, err := i.page.Realm.Call(update, camera); err != nil {
					return err
				}
			}
		}
		renderer.SetSize(w, h, true)
		return nil
	})
	if f, failed := sandbox.Failed(res); failed {
		i.frameFailed(f)
	}
}

func (i *Instance) frame() uint64 {
	return i.page.Loop.Ticks() - i.startTick
}

func (i *Instance) frameFailed(f sandbox.FrameFailed) {
	i.frameErrors++
	i.runner.env.Metrics.FrameFailed(sandbox.KindScene)
	if i.limiter.Allow() {
		i.runner.log.Warn("Error in animation loop",
			zap.Uint64("frame", i.frame()),
			zap.String("reason", f.Reason))
	}
	i.report.Report(&sandbox.FrameError{Frame: i.frame(), Message: f.Reason, Err: f.Err})
}

func (i *Instance) callbackFailed(err error) {
	i.frameFailed(sandbox.FrameFailed{Reason: host.Describe(err), Err: err})
}

func (i *Instance) settle() {
	if i.released {
		return
	}
	canvases := i.mount.Query("canvas")
	if len(canvases) == 0 {
		i.runner.log.Warn("No canvas found after running scene")
		i.report.Report(&sandbox.RenderSurfaceMissingError{Kind: sandbox.KindScene, After: i.runner.opts.SettleDelay})
		return
	}
	for _, c := range canvases {
		for k, v := range responsiveStyles {
			c.Style[k] = v
		}
	}
}

func (i *Instance) abort(err error) {
	i.runner.log.Warn("Scene failed", zap.Error(err))
	if rerr := i.release(); rerr != nil {
		i.runner.log.Warn("Error while releasing failed scene", zap.Error(rerr))
	}
	_ = i.life.To(sandbox.StateError)
	i.report.Report(err)
}

// release cancels every handle, disposes the GPU resources reachable from
// each scene and the renderers, and reverts the global bindings. It is
// idempotent.
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
	if i.ns != nil {
		res := sandbox.Contain(func() error {
			i.disposeScenes()
			return nil
		})
		if f, failed := sandbox.Failed(res); failed {
			errs = append(errs, f.Err)
		}
		for _, r := range i.ns.renderers {
			r.Dispose()
			r.el.Remove()
			i.page.Realm.Forget(r.el)
		}
		if n := i.ledger.Live(); n > 0 {
			i.leaked = n
			i.runner.log.Debug("Releasing unreachable GPU resources", zap.Int("count", n))
			i.ledger.Drain()
		}
		i.runner.env.Metrics.GPUResources(0)
	}
	if i.table != nil {
		errs = append(errs, i.table.Revert())
	}
	if i.mount != nil {
		for _, s := range i.mount.Surfaces() {
			s.Remove()
			i.page.Realm.Forget(s)
		}
	}
	i.scene, i.camera, i.renderer = nil, nil, nil
	return errors.Join(errs...)
}

func (i *Instance) disposeScenes() {
	seen := map[*goja.Object]bool{}
	roots := []*goja.Object{i.scene}
	for _, r := range i.ns.renderers {
		roots = append(roots, r.lastScene)
	}
	for _, root := range roots {
		if root == nil || seen[root] {
			continue
		}
		seen[root] = true
		i.disposed += i.ns.disposeGraph(root)
		if children := getObj(root, "children"); children != nil {
			for _, c := range items(children) {
				if child, ok := c.(*goja.Object); ok {
					_ = child.Set("parent", goja.Null())
				}
			}
			i.ns.replace(children, nil)
		}
	}
}

// Teardown implements sandbox.Instance.
func (i *Instance) Teardown() error {
	err := i.release()
	if i.life.State() != sandbox.StateTornDown {
		_ = i.life.To(sandbox.StateTornDown)
	}
	return err
}
