package sketch

import (
	"math"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox/dom"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/host"
)

// Defaults applied by the drawing context.
const (
	DefaultCanvasSize = 100
	DefaultFrameRate  = 60.0

	// frameSlack lets a frame run slightly early, as browsers deliver
	// animation frames with jitter.
	frameSlack = 5.0
)

type funcMap map[string]func(goja.FunctionCall) goja.Value

// binder installs names somewhere: the global object through a
// BindingTable, or the instance object.
type binder interface {
	Func(name string, fn func(goja.FunctionCall) goja.Value) error
	Value(name string, v interface{}) error
	Accessor(name string, get func() goja.Value, set func(goja.Value)) error
}

type style struct {
	fill, stroke     dom.Color
	doFill, doStroke bool
	strokeWeight     float64
	matrix           affine
	rectMode         string
	ellipseMode      string
	imageMode        string
	colorMode        string
	colorMax         [4]float64
	textSize         float64
	textAlignH       string
	textAlignV       string
	tint             *dom.Color
	erasing          bool
}

func defaultStyle() style {
	return style{
		fill:         dom.Color{R: 255, G: 255, B: 255, A: 255},
		stroke:       dom.Color{A: 255},
		doFill:       true,
		doStroke:     true,
		strokeWeight: 1,
		matrix:       identity,
		rectMode:     "corner",
		ellipseMode:  "center",
		imageMode:    "corner",
		colorMode:    modeRGB,
		colorMax:     defaultMaxes(modeRGB),
		textSize:     12,
		textAlignH:   "left",
		textAlignV:   "alphabetic",
	}
}

type pointer struct {
	x, y, px, py   float64
	movedX, movedY float64
	pressed        bool
	button         string
	wheel          float64
}

type keyboard struct {
	pressed bool
	key     string
	code    int
	down    map[int]bool
}

// Context is a headless p5-style drawing context. It exposes the drawing API
// to script and records drawing commands on its canvas.
type Context struct {
	vm   *goja.Runtime
	page *host.Page

	// mount is nil for offscreen graphics.
	mount    *dom.Element
	canvas   *dom.Element
	renderer string
	width    int
	height   int

	st        style
	stack     []style
	angleMode string
	shape     []float64
	shapeKind string

	frameCount int
	deltaTime  float64
	lastDraw   float64
	targetFPS  float64
	looping    bool
	redraws    int
	start      float64

	mouse pointer
	keys  keyboard

	pixels    *goja.Object
	rng       *rand.Rand
	gaussNext *float64
	noise     *perlin
	vectors   *vectors

	obj      *goja.Object
	graphics []*Context

	// onSchedule is called when loop() or redraw() needs a frame.
	onSchedule func()
}

func newContext(page *host.Page, mount *dom.Element, seed int64) *Context {
	c := &Context{
		vm:        page.Realm.VM(),
		page:      page,
		mount:     mount,
		st:        defaultStyle(),
		angleMode: "radians",
		targetFPS: DefaultFrameRate,
		looping:   true,
		start:     page.Loop.Millis(),
		keys:      keyboard{down: make(map[int]bool)},
		rng:       rand.New(rand.NewSource(seed)),
	}
	c.noise = newPerlin(c.rng)
	c.vectors = newVectors(c.vm, c)
	c.obj = c.vm.NewObject()
	if err := c.install(&objectBinder{vm: c.vm, obj: c.obj}); err != nil {
		// Plain objects accept every name; nothing to recover from here.
		panic(err)
	}
	return c
}

// Object returns the instance object handed to wrapped programs.
func (c *Context) Object() *goja.Object { return c.obj }

// Canvas returns the canvas element, or nil before createCanvas.
func (c *Context) Canvas() *dom.Element { return c.canvas }

// FrameCount returns the number of frames drawn.
func (c *Context) FrameCount() int { return c.frameCount }

// Looping reports whether the draw loop is enabled.
func (c *Context) Looping() bool { return c.looping }

// install binds every function, constant and live property through b.
func (c *Context) install(b binder) error {
	funcs := c.functions()
	names := make([]string, 0, len(funcs))
	for name := range funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := b.Func(name, funcs[name]); err != nil {
			return err
		}
	}

	consts := constants()
	names = names[:0]
	for name := range consts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := b.Value(name, consts[name]); err != nil {
			return err
		}
	}

	for _, p := range c.properties() {
		if err := b.Accessor(p.name, p.get, p.set); err != nil {
			return err
		}
	}
	return b.Value("p5", c.namespace())
}

func (c *Context) functions() funcMap {
	m := funcMap{}
	c.canvasFuncs(m)
	c.timingFuncs(m)
	c.colorFuncs(m)
	c.styleFuncs(m)
	c.shapeFuncs(m)
	c.transformFuncs(m)
	c.textFuncs(m)
	c.imageFuncs(m)
	c.webglFuncs(m)
	c.calcFuncs(m)
	return m
}

type property struct {
	name string
	get  func() goja.Value
	set  func(goja.Value)
}

// properties are exposed as live accessors because they change every frame.
func (c *Context) properties() []property {
	val := func(f func() interface{}) func() goja.Value {
		return func() goja.Value { return c.vm.ToValue(f()) }
	}
	return []property{
		{"width", val(func() interface{} { return c.width }), nil},
		{"height", val(func() interface{} { return c.height }), nil},
		{"mouseX", val(func() interface{} { return c.mouse.x }), nil},
		{"mouseY", val(func() interface{} { return c.mouse.y }), nil},
		{"pmouseX", val(func() interface{} { return c.mouse.px }), nil},
		{"pmouseY", val(func() interface{} { return c.mouse.py }), nil},
		{"winMouseX", val(func() interface{} { return c.mouse.x }), nil},
		{"winMouseY", val(func() interface{} { return c.mouse.y }), nil},
		{"movedX", val(func() interface{} { return c.mouse.movedX }), nil},
		{"movedY", val(func() interface{} { return c.mouse.movedY }), nil},
		{"mouseIsPressed", val(func() interface{} { return c.mouse.pressed }), nil},
		{"mouseButton", val(func() interface{} { return c.mouse.button }), nil},
		{"keyIsPressed", val(func() interface{} { return c.keys.pressed }), nil},
		{"key", val(func() interface{} { return c.keys.key }), nil},
		{"keyCode", val(func() interface{} { return c.keys.code }), nil},
		{"frameCount", val(func() interface{} { return c.frameCount }), nil},
		{"deltaTime", val(func() interface{} { return c.deltaTime }), nil},
		{"focused", val(func() interface{} { return true }), nil},
		{"windowWidth", val(func() interface{} { return c.page.Window.InnerWidth }), nil},
		{"windowHeight", val(func() interface{} { return c.page.Window.InnerHeight }), nil},
		{"displayWidth", val(func() interface{} { return c.page.Window.InnerWidth }), nil},
		{"displayHeight", val(func() interface{} { return c.page.Window.InnerHeight }), nil},
		{"pixels", func() goja.Value {
			if c.pixels == nil {
				return c.vm.NewArray()
			}
			return c.pixels
		}, func(v goja.Value) {
			if obj, ok := v.(*goja.Object); ok {
				c.pixels = obj
			}
		}},
		{"drawingContext", c.drawingContext, nil},
	}
}

// namespace builds the p5 constructor. `new p5(fn)` runs fn against this
// context's instance object, which covers programs that build their sketch
// function separately.
func (c *Context) namespace() goja.Value {
	ctor := c.vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		if fn, ok := goja.AssertFunction(call.Argument(0)); ok {
			if _, err := fn(goja.Undefined(), c.obj); err != nil {
				panic(err)
			}
		}
		return c.obj
	}).ToObject(c.vm)
	_ = ctor.Set("Vector", c.vectors.ctor)
	return ctor
}

func (c *Context) canvasFuncs(m funcMap) {
	m["createCanvas"] = func(call goja.FunctionCall) goja.Value {
		w := int(argOr(call.Arguments, 0, DefaultCanvasSize))
		h := int(argOr(call.Arguments, 1, DefaultCanvasSize))
		renderer := "p2d"
		if r := call.Argument(2); !goja.IsUndefined(r) && r.String() == "webgl" {
			renderer = "webgl"
		}
		return c.rendererObject(c.createCanvas(w, h, renderer))
	}
	m["resizeCanvas"] = func(call goja.FunctionCall) goja.Value {
		c.resizeCanvas(int(argOr(call.Arguments, 0, float64(c.width))), int(argOr(call.Arguments, 1, float64(c.height))))
		return goja.Undefined()
	}
	m["noCanvas"] = func(goja.FunctionCall) goja.Value {
		c.removeCanvas()
		return goja.Undefined()
	}
	m["createGraphics"] = func(call goja.FunctionCall) goja.Value {
		g := newContext(c.page, nil, c.rng.Int63())
		g.createCanvas(int(argOr(call.Arguments, 0, DefaultCanvasSize)), int(argOr(call.Arguments, 1, DefaultCanvasSize)), "p2d")
		c.graphics = append(c.graphics, g)
		_ = g.obj.Set("remove", func(goja.FunctionCall) goja.Value {
			g.removeCanvas()
			return goja.Undefined()
		})
		return g.obj
	}
	m["pixelDensity"] = func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return c.vm.ToValue(1)
		}
		return goja.Undefined()
	}
	m["displayDensity"] = func(goja.FunctionCall) goja.Value { return c.vm.ToValue(1) }
	m["loadPixels"] = func(goja.FunctionCall) goja.Value {
		c.loadPixels()
		return goja.Undefined()
	}
	m["updatePixels"] = func(goja.FunctionCall) goja.Value {
		c.record("updatePixels")
		return goja.Undefined()
	}
	m["get"] = func(call goja.FunctionCall) goja.Value {
		return c.vm.NewArray(0, 0, 0, 0)
	}
	m["set"] = func(call goja.FunctionCall) goja.Value {
		c.record("set", argOr(call.Arguments, 0, 0), argOr(call.Arguments, 1, 0))
		return goja.Undefined()
	}
	for _, name := range []string{"cursor", "noCursor", "smooth", "noSmooth", "saveCanvas", "save", "fullscreen", "describe"} {
		m[name] = noop
	}
	m["print"] = func(call goja.FunctionCall) goja.Value {
		if console, ok := c.vm.Get("console").(*goja.Object); ok {
			if log, ok := goja.AssertFunction(console.Get("log")); ok {
				_, _ = log(console, call.Arguments...)
			}
		}
		return goja.Undefined()
	}
}

func (c *Context) createCanvas(w, h int, renderer string) *dom.Element {
	if w <= 0 {
		w = DefaultCanvasSize
	}
	if h <= 0 {
		h = DefaultCanvasSize
	}
	c.renderer = renderer
	if c.canvas != nil {
		c.resizeCanvas(w, h)
		c.canvas.Canvas.Context = contextName(renderer)
		return c.canvas
	}
	doc := c.page.Document
	el := doc.NewCanvasElement(w, h, contextName(renderer))
	el.ID = doc.NextID("defaultCanvas")
	el.ClassName = "p5Canvas"
	if c.mount != nil {
		c.mount.AppendChild(el)
	}
	c.canvas = el
	c.width, c.height = w, h
	return el
}

func contextName(renderer string) string {
	if renderer == "webgl" {
		return "webgl"
	}
	return "2d"
}

func (c *Context) resizeCanvas(w, h int) {
	c.width, c.height = w, h
	if c.canvas == nil {
		return
	}
	c.canvas.Canvas.Resize(w, h)
	c.canvas.ClientWidth, c.canvas.ClientHeight = w, h
	c.canvas.SetAttribute("width", strconv.Itoa(w))
	c.canvas.SetAttribute("height", strconv.Itoa(h))
	c.pixels = nil
}

func (c *Context) removeCanvas() {
	if c.canvas == nil {
		return
	}
	c.canvas.Canvas.LoseContext()
	c.canvas.Remove()
	c.page.Realm.Forget(c.canvas)
	c.canvas = nil
}

// release drops every canvas this context and its graphics created.
func (c *Context) release() {
	c.looping = false
	c.removeCanvas()
	for _, g := range c.graphics {
		g.release()
	}
	c.graphics = nil
	c.pixels = nil
}

// drawingContext returns the canvas 2d context, or an inert object for
// webgl canvases so property writes like shadowBlur do not throw.
func (c *Context) drawingContext() goja.Value {
	if c.canvas == nil {
		return goja.Null()
	}
	if c.renderer != "webgl" {
		proxy := c.page.Realm.WrapElement(c.canvas).ToObject(c.vm)
		if getContext, ok := goja.AssertFunction(proxy.Get("getContext")); ok {
			if ctx, err := getContext(proxy, c.vm.ToValue("2d")); err == nil {
				return ctx
			}
		}
	}
	return c.vm.NewObject()
}

func (c *Context) loadPixels() {
	n := c.width * c.height * 4
	if c.pixels != nil {
		if l := c.pixels.Get("length"); l != nil && int(l.ToInteger()) == n {
			return
		}
	}
	ctor, ok := c.vm.Get("Uint8ClampedArray").(*goja.Object)
	if !ok {
		return
	}
	arr, err := c.vm.New(ctor, c.vm.ToValue(n))
	if err != nil {
		return
	}
	c.pixels = arr
}

// rendererObject wraps the canvas like p5.Renderer.
func (c *Context) rendererObject(el *dom.Element) goja.Value {
	obj := c.vm.NewObject()
	elt := c.page.Realm.WrapElement(el)
	_ = obj.Set("elt", elt)
	_ = obj.Set("canvas", elt)
	_ = obj.Set("width", el.Canvas.Width)
	_ = obj.Set("height", el.Canvas.Height)
	chain := func(fn func(goja.FunctionCall)) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			fn(call)
			return obj
		}
	}
	_ = obj.Set("parent", chain(func(call goja.FunctionCall) {
		target := c.page.Realm.UnwrapElement(call.Argument(0))
		if target == nil {
			if v := call.Argument(0); !goja.IsUndefined(v) {
				target = c.page.Document.GetElementByID(v.String())
			}
		}
		if target != nil && target.Attached() {
			target.AppendChild(el)
		}
	}))
	_ = obj.Set("style", chain(func(call goja.FunctionCall) {
		el.Style[call.Argument(0).String()] = call.Argument(1).String()
	}))
	_ = obj.Set("id", chain(func(call goja.FunctionCall) {
		if v := call.Argument(0); !goja.IsUndefined(v) {
			el.ID = v.String()
		}
	}))
	_ = obj.Set("class", chain(func(call goja.FunctionCall) { el.ClassName = call.Argument(0).String() }))
	for _, name := range []string{"position", "center", "show", "hide", "mousePressed", "mouseClicked", "mouseOver", "mouseOut"} {
		_ = obj.Set(name, chain(func(goja.FunctionCall) {}))
	}
	return obj
}

func (c *Context) timingFuncs(m funcMap) {
	m["frameRate"] = func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			if c.deltaTime <= 0 {
				return c.vm.ToValue(c.targetFPS)
			}
			return c.vm.ToValue(1000 / c.deltaTime)
		}
		if fps := call.Arguments[0].ToFloat(); fps >= 0 && !math.IsNaN(fps) {
			c.targetFPS = fps
		}
		return goja.Undefined()
	}
	m["getTargetFrameRate"] = func(goja.FunctionCall) goja.Value { return c.vm.ToValue(c.targetFPS) }
	m["loop"] = func(goja.FunctionCall) goja.Value {
		c.looping = true
		c.schedule()
		return goja.Undefined()
	}
	m["noLoop"] = func(goja.FunctionCall) goja.Value {
		c.looping = false
		return goja.Undefined()
	}
	m["isLooping"] = func(goja.FunctionCall) goja.Value { return c.vm.ToValue(c.looping) }
	m["redraw"] = func(call goja.FunctionCall) goja.Value {
		n := int(argOr(call.Arguments, 0, 1))
		if n < 1 {
			n = 1
		}
		c.redraws += n
		c.schedule()
		return goja.Undefined()
	}
	m["millis"] = func(goja.FunctionCall) goja.Value {
		return c.vm.ToValue(c.page.Loop.Millis() - c.start)
	}
	clock := func(fn func(time.Time) int) func(goja.FunctionCall) goja.Value {
		return func(goja.FunctionCall) goja.Value { return c.vm.ToValue(fn(time.Now())) }
	}
	m["second"] = clock(func(t time.Time) int { return t.Second() })
	m["minute"] = clock(func(t time.Time) int { return t.Minute() })
	m["hour"] = clock(func(t time.Time) int { return t.Hour() })
	m["day"] = clock(func(t time.Time) int { return t.Day() })
	m["month"] = clock(func(t time.Time) int { return int(t.Month()) })
	m["year"] = clock(func(t time.Time) int { return t.Year() })
}

func (c *Context) schedule() {
	if c.onSchedule != nil {
		c.onSchedule()
	}
}

// due reports whether a draw should run at ts given the frame rate, the loop
// flag and pending redraw requests.
func (c *Context) due(ts float64) bool {
	if c.redraws > 0 {
		return true
	}
	if !c.looping || c.targetFPS <= 0 {
		return false
	}
	if c.frameCount == 0 {
		return true
	}
	return ts-c.lastDraw >= 1000/c.targetFPS-frameSlack
}

// wantsFrames reports whether the loop should keep requesting frames.
func (c *Context) wantsFrames() bool {
	return c.redraws > 0 || c.looping && c.targetFPS > 0
}

func (c *Context) beginFrame(ts float64) {
	if c.redraws > 0 {
		c.redraws--
	}
	last := c.lastDraw
	if c.frameCount == 0 {
		last = c.start
	}
	c.deltaTime = ts - last
	c.lastDraw = ts
	c.frameCount++
	c.st.matrix = identity
	c.stack = c.stack[:0]
}

func (c *Context) endFrame() {
	c.mouse.px, c.mouse.py = c.mouse.x, c.mouse.y
	c.mouse.movedX, c.mouse.movedY = 0, 0
	if c.canvas != nil {
		c.canvas.Canvas.Present()
	}
}

// pointerEvent updates mouse state from a window event.
func (c *Context) pointerEvent(ev dom.Event) {
	switch ev.Type {
	case dom.EventMouseMove:
		c.mouse.movedX, c.mouse.movedY = ev.X-c.mouse.x, ev.Y-c.mouse.y
		c.mouse.x, c.mouse.y = ev.X, ev.Y
	case dom.EventMouseDown:
		c.mouse.x, c.mouse.y = ev.X, ev.Y
		c.mouse.pressed = true
		c.mouse.button = mouseButton(ev.Button)
	case dom.EventMouseUp:
		c.mouse.pressed = false
	case dom.EventWheel:
		c.mouse.wheel = ev.DeltaY
	}
}

func mouseButton(b string) string {
	switch b {
	case "right", "center":
		return b
	default:
		return "left"
	}
}

// keyEvent updates keyboard state from a window event.
func (c *Context) keyEvent(ev dom.Event) {
	switch ev.Type {
	case dom.EventKeyDown:
		c.keys.pressed = true
		c.keys.key = ev.Key
		c.keys.code = ev.KeyCode
		c.keys.down[ev.KeyCode] = true
	case dom.EventKeyUp:
		delete(c.keys.down, ev.KeyCode)
		c.keys.pressed = len(c.keys.down) > 0
	}
}

func (c *Context) record(op string, xs ...float64) {
	if c.canvas == nil || c.canvas.Canvas == nil {
		return
	}
	cmd := dom.Command{Op: op, Args: xs, Matrix: c.st.matrix}
	if c.st.doFill {
		cmd.Fill = c.st.fill
	}
	if c.st.doStroke {
		cmd.Stroke = c.st.stroke
	}
	c.canvas.Canvas.Record(cmd)
}

type objectBinder struct {
	vm  *goja.Runtime
	obj *goja.Object
}

func (o *objectBinder) Func(name string, fn func(goja.FunctionCall) goja.Value) error {
	return o.obj.Set(name, fn)
}

func (o *objectBinder) Value(name string, v interface{}) error {
	return o.obj.Set(name, v)
}

func (o *objectBinder) Accessor(name string, get func() goja.Value, set func(goja.Value)) error {
	getter := o.vm.ToValue(func(goja.FunctionCall) goja.Value { return get() })
	var setter goja.Value
	if set != nil {
		setter = o.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			set(call.Argument(0))
			return goja.Undefined()
		})
	}
	return o.obj.DefineAccessorProperty(name, getter, setter, goja.FLAG_TRUE, goja.FLAG_TRUE)
}

func noop(goja.FunctionCall) goja.Value { return goja.Undefined() }

func num(v goja.Value) float64 {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return 0
	}
	return v.ToFloat()
}

func argOr(args []goja.Value, i int, def float64) float64 {
	if i >= len(args) || goja.IsUndefined(args[i]) || goja.IsNull(args[i]) {
		return def
	}
	return args[i].ToFloat()
}

func argSlice(args []goja.Value, from, to int) []goja.Value {
	if from >= len(args) {
		return nil
	}
	if to > len(args) {
		to = len(args)
	}
	return args[from:to]
}

func floats(args []goja.Value) []float64 {
	out := make([]float64, len(args))
	for i, a := range args {
		out[i] = a.ToFloat()
	}
	return out
}

