package scene

import (
	"strconv"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox/dom"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/host"
)

// Renderer is the Go side of a WebGLRenderer script object. It owns a webgl
// canvas and one ledger entry.
type Renderer struct {
	ns     *Namespace
	obj    *goja.Object
	el     *dom.Element
	id     string
	width  int
	height int

	pixelRatio float64
	clearColor rgb
	clearAlpha float64

	loop       goja.Callable
	loopHandle host.Handle
	loopOwner  *host.Tracker

	renders  int
	disposed bool

	lastScene  *goja.Object
	lastCamera *goja.Object
}

// Object returns the script object of the renderer.
func (r *Renderer) Object() *goja.Object { return r.obj }

// Element returns the canvas element, the renderer's domElement.
func (r *Renderer) Element() *dom.Element { return r.el }

// Renders returns how many times render was called.
func (r *Renderer) Renders() int { return r.renders }

// Disposed reports whether dispose has run.
func (r *Renderer) Disposed() bool { return r.disposed }

// ClearColor returns the clear color and alpha.
func (r *Renderer) ClearColor() (int, float64) { return r.clearColor.hex(), r.clearAlpha }

// SetSize resizes the drawing buffer and, when updateStyle is set, the
// element's css size.
func (r *Renderer) SetSize(width, height int, updateStyle bool) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	r.width, r.height = width, height
	bw, bh := int(float64(width)*r.pixelRatio), int(float64(height)*r.pixelRatio)
	r.el.Canvas.Resize(bw, bh)
	r.el.ClientWidth, r.el.ClientHeight = width, height
	r.el.SetAttribute("width", strconv.Itoa(bw))
	r.el.SetAttribute("height", strconv.Itoa(bh))
	if updateStyle {
		r.el.Style["width"] = strconv.Itoa(width) + "px"
		r.el.Style["height"] = strconv.Itoa(height) + "px"
	}
}

// Render draws scene from camera. Each visible drawable is recorded as one
// command and the frame is presented.
func (r *Renderer) Render(scene, camera *goja.Object) error {
	if r.disposed || r.el.Canvas.ContextLost() {
		return nil
	}
	if scene == nil || !r.ns.is(scene, "Object3D") {
		return errNotObject3D
	}
	if camera == nil || !r.ns.is(camera, "Camera") {
		return errNotCamera
	}
	r.lastScene, r.lastCamera = scene, camera
	calls := 0
	r.el.Canvas.Record(dom.Command{Op: "clear", Args: []float64{r.clearColor.r, r.clearColor.g, r.clearColor.b, r.clearAlpha}})
	r.visit(scene, func(o *goja.Object) {
		op := drawOp(r.ns, o)
		if op == "" {
			return
		}
		p := readXYZ(getObj(o, "position"))
		r.el.Canvas.Record(dom.Command{Op: op, Args: []float64{p.x, p.y, p.z}})
		calls++
	})
	r.el.Canvas.Present()
	r.renders++

	info := getObj(getObj(r.obj, "info"), "render")
	_ = info.Set("calls", calls)
	_ = info.Set("frame", r.renders)
	return nil
}

// visit walks visible objects only.
func (r *Renderer) visit(obj *goja.Object, fn func(*goja.Object)) {
	if v := obj.Get("visible"); v != nil && !v.ToBoolean() {
		return
	}
	fn(obj)
	for _, c := range items(obj.Get("children")) {
		if child, ok := c.(*goja.Object); ok {
			r.visit(child, fn)
		}
	}
}

func drawOp(ns *Namespace, o *goja.Object) string {
	switch {
	case ns.is(o, "Mesh"):
		return "drawMesh"
	case ns.is(o, "Points"):
		return "drawPoints"
	case ns.is(o, "Line"), ns.is(o, "LineSegments"), ns.is(o, "LineLoop"):
		return "drawLine"
	}
	return ""
}

// SetAnimationLoop replaces the per-frame callback. A nil fn stops the loop.
func (r *Renderer) SetAnimationLoop(fn goja.Callable) {
	r.stopLoop()
	if fn == nil || r.disposed {
		return
	}
	owner := r.ns.page.Realm.Owner()
	if owner == nil {
		return
	}
	r.loop, r.loopOwner = fn, owner
	r.scheduleLoop()
}

func (r *Renderer) scheduleLoop() {
	r.loopHandle = r.loopOwner.RequestFrame(func(ts float64) {
		r.loopHandle = 0
		if r.loop == nil || r.disposed {
			return
		}
		if _, err := r.ns.page.Realm.Call(r.loop, goja.Undefined(), r.ns.vm.ToValue(ts)); err != nil {
			r.loopOwner.Fail(err)
		}
		if r.loop != nil && !r.disposed {
			r.scheduleLoop()
		}
	})
}

func (r *Renderer) stopLoop() {
	if r.loopHandle != 0 && r.loopOwner != nil {
		r.loopOwner.CancelFrame(r.loopHandle)
	}
	r.loop, r.loopHandle = nil, 0
}

// Dispose frees the renderer context. It is idempotent.
func (r *Renderer) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	r.stopLoop()
	r.ns.ledger.Release(r.id)
	r.el.Canvas.LoseContext()
}

type scriptError string

func (e scriptError) Error() string { return string(e) }

const (
	errNotObject3D = scriptError("THREE.WebGLRenderer.render: scene is not an Object3D")
	errNotCamera   = scriptError("THREE.WebGLRenderer.render: camera is not an instance of THREE.Camera")
)

func (ns *Namespace) rendererOf(this *goja.Object) *Renderer {
	for _, r := range ns.renderers {
		if r.obj == this {
			return r
		}
	}
	return nil
}

func (ns *Namespace) rendererType() {
	vm := ns.vm
	realm := ns.page.Realm

	renderer := ns.define("WebGLRenderer", nil, func(this *goja.Object, args []goja.Value) {
		params, _ := arg(args, 0).(*goja.Object)
		var el *dom.Element
		if params != nil {
			el = realm.UnwrapElement(params.Get("canvas"))
		}
		if el == nil || el.Canvas == nil {
			el = ns.page.Document.NewCanvasElement(300, 150, "webgl")
		}
		el.Canvas.Context = "webgl"
		r := &Renderer{ns: ns, obj: this, el: el, pixelRatio: 1, width: el.Canvas.Width, height: el.Canvas.Height}
		r.id = ns.ledger.Alloc(ResourceRenderer)

		alpha := params != nil && params.Get("alpha") != nil && params.Get("alpha").ToBoolean()
		if alpha {
			r.clearAlpha = 0
		} else {
			r.clearAlpha = 1
		}
		_ = this.Set("domElement", realm.WrapElement(el))
		shadow := vm.NewObject()
		_ = shadow.Set("enabled", false)
		_ = shadow.Set("type", 1)
		_ = this.Set("shadowMap", shadow)
		_ = this.Set("outputColorSpace", "srgb")
		_ = this.Set("toneMapping", 0)
		_ = this.Set("toneMappingExposure", 1)
		info := vm.NewObject()
		render := vm.NewObject()
		_ = render.Set("calls", 0)
		_ = render.Set("frame", 0)
		_ = info.Set("render", render)
		_ = this.Set("info", info)

		ns.renderers = append(ns.renderers, r)
		if ns.onRenderer != nil {
			ns.onRenderer(r)
		}
	})
	with := func(fn func(r *Renderer, this *goja.Object, args []goja.Value) goja.Value) method {
		return func(this *goja.Object, args []goja.Value) goja.Value {
			r := ns.rendererOf(this)
			if r == nil {
				panic(vm.NewTypeError("WebGLRenderer method called on an incompatible receiver"))
			}
			return fn(r, this, args)
		}
	}
	renderer.method("setSize", with(func(r *Renderer, _ *goja.Object, args []goja.Value) goja.Value {
		update := true
		if v := arg(args, 2); present(v) {
			update = v.ToBoolean()
		}
		r.SetSize(int(numOr(args, 0, 0)), int(numOr(args, 1, 0)), update)
		return goja.Undefined()
	}))
	renderer.method("getSize", with(func(r *Renderer, _ *goja.Object, args []goja.Value) goja.Value {
		target, ok := arg(args, 0).(*goja.Object)
		if !ok {
			target = ns.construct("Vector2")
		}
		_ = target.Set("x", r.width)
		_ = target.Set("y", r.height)
		return target
	}))
	renderer.method("setPixelRatio", with(func(r *Renderer, _ *goja.Object, args []goja.Value) goja.Value {
		if pr := numOr(args, 0, 1); pr > 0 {
			r.pixelRatio = pr
			r.SetSize(r.width, r.height, false)
		}
		return goja.Undefined()
	}))
	renderer.method("getPixelRatio", with(func(r *Renderer, _ *goja.Object, _ []goja.Value) goja.Value {
		return vm.ToValue(r.pixelRatio)
	}))
	renderer.method("setClearColor", with(func(r *Renderer, _ *goja.Object, args []goja.Value) goja.Value {
		if c, ok := parseColor(arg(args, 0)); ok {
			r.clearColor = c
		}
		if v := arg(args, 1); present(v) {
			r.clearAlpha = v.ToFloat()
		}
		return goja.Undefined()
	}))
	renderer.method("getClearAlpha", with(func(r *Renderer, _ *goja.Object, _ []goja.Value) goja.Value {
		return vm.ToValue(r.clearAlpha)
	}))
	renderer.method("setClearAlpha", with(func(r *Renderer, _ *goja.Object, args []goja.Value) goja.Value {
		r.clearAlpha = numOr(args, 0, 1)
		return goja.Undefined()
	}))
	renderer.method("render", with(func(r *Renderer, _ *goja.Object, args []goja.Value) goja.Value {
		scene, _ := arg(args, 0).(*goja.Object)
		camera, _ := arg(args, 1).(*goja.Object)
		if err := r.Render(scene, camera); err != nil {
			panic(vm.NewTypeError(err.Error()))
		}
		return goja.Undefined()
	}))
	renderer.method("setAnimationLoop", with(func(r *Renderer, _ *goja.Object, args []goja.Value) goja.Value {
		fn, _ := goja.AssertFunction(arg(args, 0))
		r.SetAnimationLoop(fn)
		return goja.Undefined()
	}))
	renderer.method("dispose", with(func(r *Renderer, _ *goja.Object, _ []goja.Value) goja.Value {
		r.Dispose()
		return goja.Undefined()
	}))
	renderer.method("forceContextLoss", with(func(r *Renderer, _ *goja.Object, _ []goja.Value) goja.Value {
		r.el.Canvas.LoseContext()
		return goja.Undefined()
	}))
	inert := func(*Renderer, *goja.Object, []goja.Value) goja.Value { return goja.Undefined() }
	for _, name := range []string{"setViewport", "setScissor", "setScissorTest", "clear", "compile", "setRenderTarget"} {
		renderer.method(name, with(inert))
	}
}
