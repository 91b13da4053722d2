package scene

import (
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/dop251/goja"
	"github.com/google/uuid"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox/dom"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/host"
)

// Revision is reported as THREE.REVISION.
const Revision = "160"

type method func(this *goja.Object, args []goja.Value) goja.Value

// class is a script constructor with a prototype chained to its parent.
type class struct {
	name  string
	ctor  *goja.Object
	proto *goja.Object
	ns    *Namespace
}

func (c *class) method(name string, fn method) {
	_ = c.proto.Set(name, func(call goja.FunctionCall) goja.Value {
		return fn(call.This.ToObject(c.ns.vm), call.Arguments)
	})
}

// chain returns this from a method, for the library's fluent style.
func chain(fn func(this *goja.Object, args []goja.Value)) method {
	return func(this *goja.Object, args []goja.Value) goja.Value {
		fn(this, args)
		return this
	}
}

// Namespace is the THREE object of one scene run. It owns the ledger every
// geometry, material, texture and renderer is counted in.
type Namespace struct {
	vm     *goja.Runtime
	page   *host.Page
	ledger *Ledger
	rng    *rand.Rand
	obj    *goja.Object

	classes   map[string]*class
	resources map[*goja.Object]string
	renderers []*Renderer

	// onRenderer is told about every renderer script constructs.
	onRenderer func(*Renderer)
}

// NewNamespace builds THREE on the page realm.
func NewNamespace(page *host.Page, ledger *Ledger, seed int64) *Namespace {
	ns := &Namespace{
		vm:        page.Realm.VM(),
		page:      page,
		ledger:    ledger,
		rng:       rand.New(rand.NewSource(seed)),
		classes:   make(map[string]*class),
		resources: make(map[*goja.Object]string),
	}
	ns.obj = ns.vm.NewObject()
	ns.mathTypes()
	ns.objects()
	ns.resourceTypes()
	ns.rendererType()
	ns.utilities()
	ns.constants()
	return ns
}

// Object returns the THREE namespace object.
func (ns *Namespace) Object() *goja.Object { return ns.obj }

// Ledger returns the GPU ledger of the namespace.
func (ns *Namespace) Ledger() *Ledger { return ns.ledger }

// Renderers returns every renderer constructed so far.
func (ns *Namespace) Renderers() []*Renderer { return ns.renderers }

// define registers a constructor named name. init runs on `this` for every
// construction, including subclasses declared by script.
func (ns *Namespace) define(name string, parent *class, init func(this *goja.Object, args []goja.Value)) *class {
	c := &class{name: name, ns: ns}
	ctor := ns.vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		this := call.This
		if !inherits(this, c.proto) {
			_ = this.SetPrototype(c.proto)
		}
		if init != nil {
			init(this, call.Arguments)
		}
		return this
	}).ToObject(ns.vm)
	c.ctor = ctor
	if p, ok := ctor.Get("prototype").(*goja.Object); ok {
		c.proto = p
	} else {
		c.proto = ns.vm.NewObject()
		_ = ctor.Set("prototype", c.proto)
		_ = c.proto.Set("constructor", ctor)
	}
	if parent != nil {
		_ = c.proto.SetPrototype(parent.proto)
	}
	_ = c.proto.Set("is"+name, true)
	ns.classes[name] = c
	_ = ns.obj.Set(name, ctor)
	return c
}

// construct creates an instance of a registered class from Go.
func (ns *Namespace) construct(name string, args ...goja.Value) *goja.Object {
	c := ns.classes[name]
	obj, err := ns.vm.New(c.ctor, args...)
	if err != nil {
		panic(err)
	}
	return obj
}

// is reports whether v is an instance of the named class.
func (ns *Namespace) is(v goja.Value, name string) bool {
	obj, ok := v.(*goja.Object)
	if !ok {
		return false
	}
	c, ok := ns.classes[name]
	return ok && inherits(obj, c.proto)
}

func inherits(obj, proto *goja.Object) bool {
	for p := obj.Prototype(); p != nil; p = p.Prototype() {
		if p == proto {
			return true
		}
	}
	return false
}

// track allocates a ledger entry for obj and stamps its uuid.
func (ns *Namespace) track(obj *goja.Object, kind Resource) {
	id := ns.ledger.Alloc(kind)
	ns.resources[obj] = id
	_ = obj.Set("uuid", id)
}

// dispose releases the ledger entry of obj. It is idempotent.
func (ns *Namespace) dispose(obj *goja.Object) bool {
	id, ok := ns.resources[obj]
	if !ok {
		return false
	}
	delete(ns.resources, obj)
	return ns.ledger.Release(id)
}

func (ns *Namespace) disposeMethod(this *goja.Object, _ []goja.Value) goja.Value {
	ns.dispose(this)
	return goja.Undefined()
}

func newUUID() string {
	return strings.ToUpper(uuid.NewString())
}

func arg(args []goja.Value, i int) goja.Value {
	if i < len(args) {
		return args[i]
	}
	return goja.Undefined()
}

func present(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}

func numOr(args []goja.Value, i int, def float64) float64 {
	if v := arg(args, i); present(v) {
		return v.ToFloat()
	}
	return def
}

func getNum(obj *goja.Object, name string) float64 {
	v := obj.Get(name)
	if !present(v) {
		return 0
	}
	return v.ToFloat()
}

func getObj(obj *goja.Object, name string) *goja.Object {
	if o, ok := obj.Get(name).(*goja.Object); ok {
		return o
	}
	return nil
}

// items returns the elements of a script array.
func items(v goja.Value) []goja.Value {
	arr, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	n := int(arr.Get("length").ToInteger())
	out := make([]goja.Value, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, arr.Get(strconv.Itoa(i)))
	}
	return out
}

// xyz is the value of a Vector3 or Euler.
type xyz struct{ x, y, z float64 }

func readXYZ(obj *goja.Object) xyz {
	if obj == nil {
		return xyz{}
	}
	return xyz{getNum(obj, "x"), getNum(obj, "y"), getNum(obj, "z")}
}

func writeXYZ(obj *goja.Object, v xyz) {
	_ = obj.Set("x", v.x)
	_ = obj.Set("y", v.y)
	_ = obj.Set("z", v.z)
}

func (v xyz) length() float64 { return math.Sqrt(v.x*v.x + v.y*v.y + v.z*v.z) }

func (ns *Namespace) vector3(x, y, z float64) *goja.Object {
	return ns.construct("Vector3", ns.vm.ToValue(x), ns.vm.ToValue(y), ns.vm.ToValue(z))
}

func (ns *Namespace) mathTypes() {
	vm := ns.vm

	v2 := ns.define("Vector2", nil, func(this *goja.Object, args []goja.Value) {
		_ = this.Set("x", numOr(args, 0, 0))
		_ = this.Set("y", numOr(args, 1, 0))
	})
	v2.method("set", chain(func(this *goja.Object, args []goja.Value) {
		_ = this.Set("x", numOr(args, 0, 0))
		_ = this.Set("y", numOr(args, 1, 0))
	}))
	v2.method("copy", chain(func(this *goja.Object, args []goja.Value) {
		if o, ok := arg(args, 0).(*goja.Object); ok {
			_ = this.Set("x", getNum(o, "x"))
			_ = this.Set("y", getNum(o, "y"))
		}
	}))
	v2.method("clone", func(this *goja.Object, _ []goja.Value) goja.Value {
		return ns.construct("Vector2", vm.ToValue(getNum(this, "x")), vm.ToValue(getNum(this, "y")))
	})
	v2.method("add", chain(func(this *goja.Object, args []goja.Value) {
		if o, ok := arg(args, 0).(*goja.Object); ok {
			_ = this.Set("x", getNum(this, "x")+getNum(o, "x"))
			_ = this.Set("y", getNum(this, "y")+getNum(o, "y"))
		}
	}))
	v2.method("multiplyScalar", chain(func(this *goja.Object, args []goja.Value) {
		s := numOr(args, 0, 1)
		_ = this.Set("x", getNum(this, "x")*s)
		_ = this.Set("y", getNum(this, "y")*s)
	}))
	v2.method("length", func(this *goja.Object, _ []goja.Value) goja.Value {
		return vm.ToValue(math.Hypot(getNum(this, "x"), getNum(this, "y")))
	})

	v3 := ns.define("Vector3", nil, func(this *goja.Object, args []goja.Value) {
		writeXYZ(this, xyz{numOr(args, 0, 0), numOr(args, 1, 0), numOr(args, 2, 0)})
	})
	other := func(args []goja.Value) xyz {
		o, _ := arg(args, 0).(*goja.Object)
		return readXYZ(o)
	}
	update := func(fn func(v xyz, args []goja.Value) xyz) method {
		return chain(func(this *goja.Object, args []goja.Value) {
			writeXYZ(this, fn(readXYZ(this), args))
		})
	}
	v3.method("set", update(func(_ xyz, args []goja.Value) xyz {
		return xyz{numOr(args, 0, 0), numOr(args, 1, 0), numOr(args, 2, 0)}
	}))
	v3.method("setScalar", update(func(_ xyz, args []goja.Value) xyz {
		s := numOr(args, 0, 0)
		return xyz{s, s, s}
	}))
	v3.method("copy", update(func(_ xyz, args []goja.Value) xyz { return other(args) }))
	v3.method("add", update(func(v xyz, args []goja.Value) xyz {
		o := other(args)
		return xyz{v.x + o.x, v.y + o.y, v.z + o.z}
	}))
	v3.method("addScalar", update(func(v xyz, args []goja.Value) xyz {
		s := numOr(args, 0, 0)
		return xyz{v.x + s, v.y + s, v.z + s}
	}))
	v3.method("sub", update(func(v xyz, args []goja.Value) xyz {
		o := other(args)
		return xyz{v.x - o.x, v.y - o.y, v.z - o.z}
	}))
	v3.method("addVectors", update(func(_ xyz, args []goja.Value) xyz {
		a, b := other(args), other(args[min(1, len(args)):])
		return xyz{a.x + b.x, a.y + b.y, a.z + b.z}
	}))
	v3.method("subVectors", update(func(_ xyz, args []goja.Value) xyz {
		a, b := other(args), other(args[min(1, len(args)):])
		return xyz{a.x - b.x, a.y - b.y, a.z - b.z}
	}))
	v3.method("multiplyScalar", update(func(v xyz, args []goja.Value) xyz {
		s := numOr(args, 0, 1)
		return xyz{v.x * s, v.y * s, v.z * s}
	}))
	v3.method("divideScalar", update(func(v xyz, args []goja.Value) xyz {
		s := numOr(args, 0, 1)
		return xyz{v.x / s, v.y / s, v.z / s}
	}))
	v3.method("negate", update(func(v xyz, _ []goja.Value) xyz { return xyz{-v.x, -v.y, -v.z} }))
	v3.method("normalize", update(func(v xyz, _ []goja.Value) xyz {
		l := v.length()
		if l == 0 {
			return v
		}
		return xyz{v.x / l, v.y / l, v.z / l}
	}))
	v3.method("lerp", update(func(v xyz, args []goja.Value) xyz {
		o, t := other(args), numOr(args, 1, 0)
		return xyz{v.x + (o.x-v.x)*t, v.y + (o.y-v.y)*t, v.z + (o.z-v.z)*t}
	}))
	v3.method("cross", update(func(v xyz, args []goja.Value) xyz {
		o := other(args)
		return xyz{v.y*o.z - v.z*o.y, v.z*o.x - v.x*o.z, v.x*o.y - v.y*o.x}
	}))
	v3.method("setLength", update(func(v xyz, args []goja.Value) xyz {
		l := v.length()
		if l == 0 {
			return v
		}
		s := numOr(args, 0, 0) / l
		return xyz{v.x * s, v.y * s, v.z * s}
	}))
	v3.method("dot", func(this *goja.Object, args []goja.Value) goja.Value {
		v, o := readXYZ(this), other(args)
		return vm.ToValue(v.x*o.x + v.y*o.y + v.z*o.z)
	})
	v3.method("length", func(this *goja.Object, _ []goja.Value) goja.Value {
		return vm.ToValue(readXYZ(this).length())
	})
	v3.method("lengthSq", func(this *goja.Object, _ []goja.Value) goja.Value {
		l := readXYZ(this).length()
		return vm.ToValue(l * l)
	})
	v3.method("distanceTo", func(this *goja.Object, args []goja.Value) goja.Value {
		v, o := readXYZ(this), other(args)
		return vm.ToValue(xyz{v.x - o.x, v.y - o.y, v.z - o.z}.length())
	})
	v3.method("clone", func(this *goja.Object, _ []goja.Value) goja.Value {
		v := readXYZ(this)
		return ns.vector3(v.x, v.y, v.z)
	})
	v3.method("equals", func(this *goja.Object, args []goja.Value) goja.Value {
		return vm.ToValue(readXYZ(this) == other(args))
	})
	v3.method("toArray", func(this *goja.Object, _ []goja.Value) goja.Value {
		v := readXYZ(this)
		return vm.NewArray(v.x, v.y, v.z)
	})

	euler := ns.define("Euler", nil, func(this *goja.Object, args []goja.Value) {
		writeXYZ(this, xyz{numOr(args, 0, 0), numOr(args, 1, 0), numOr(args, 2, 0)})
		order := "XYZ"
		if v := arg(args, 3); present(v) {
			order = v.String()
		}
		_ = this.Set("order", order)
	})
	euler.method("set", chain(func(this *goja.Object, args []goja.Value) {
		writeXYZ(this, xyz{numOr(args, 0, 0), numOr(args, 1, 0), numOr(args, 2, 0)})
		if v := arg(args, 3); present(v) {
			_ = this.Set("order", v.String())
		}
	}))
	euler.method("copy", chain(func(this *goja.Object, args []goja.Value) {
		if o, ok := arg(args, 0).(*goja.Object); ok {
			writeXYZ(this, readXYZ(o))
		}
	}))
	euler.method("clone", func(this *goja.Object, _ []goja.Value) goja.Value {
		v := readXYZ(this)
		return ns.construct("Euler", vm.ToValue(v.x), vm.ToValue(v.y), vm.ToValue(v.z), this.Get("order"))
	})

	ns.colorType()
}

// rgb holds color channels in [0,1].
type rgb struct{ r, g, b float64 }

func fromDOM(c dom.Color) rgb {
	return rgb{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
}

func (c rgb) hex() int {
	return dom.RGBA(c.r*255, c.g*255, c.b*255, 255).Hex()
}

func (c rgb) hsl() (h, s, l float64) {
	hi := math.Max(c.r, math.Max(c.g, c.b))
	lo := math.Min(c.r, math.Min(c.g, c.b))
	l = (hi + lo) / 2
	if hi == lo {
		return 0, 0, l
	}
	d := hi - lo
	if l <= 0.5 {
		s = d / (hi + lo)
	} else {
		s = d / (2 - hi - lo)
	}
	switch hi {
	case c.r:
		h = (c.g - c.b) / d
		if c.g < c.b {
			h += 6
		}
	case c.g:
		h = (c.b-c.r)/d + 2
	default:
		h = (c.r-c.g)/d + 4
	}
	return h / 6, s, l
}

func hslColor(h, s, l float64) rgb {
	h = math.Mod(h, 1)
	if h < 0 {
		h++
	}
	return fromDOM(dom.HSLA(h*360, s*100, l*100, 100))
}

func readRGB(obj *goja.Object) rgb {
	return rgb{getNum(obj, "r"), getNum(obj, "g"), getNum(obj, "b")}
}

func writeRGB(obj *goja.Object, c rgb) {
	_ = obj.Set("r", c.r)
	_ = obj.Set("g", c.g)
	_ = obj.Set("b", c.b)
}

// parseColor accepts hex numbers, CSS strings and Color objects.
func parseColor(v goja.Value) (rgb, bool) {
	if !present(v) {
		return rgb{}, false
	}
	if obj, ok := v.(*goja.Object); ok && obj.Get("r") != nil {
		return readRGB(obj), true
	}
	if s, ok := v.Export().(string); ok {
		c, ok := dom.ParseColor(strings.TrimSpace(s))
		if !ok {
			return rgb{}, false
		}
		return fromDOM(c), true
	}
	return fromDOM(dom.FromHex(int(v.ToInteger()))), true
}

func (ns *Namespace) color(v goja.Value) *goja.Object {
	return ns.construct("Color", v)
}

func (ns *Namespace) colorType() {
	vm := ns.vm
	color := ns.define("Color", nil, func(this *goja.Object, args []goja.Value) {
		if len(args) >= 3 {
			writeRGB(this, rgb{numOr(args, 0, 0), numOr(args, 1, 0), numOr(args, 2, 0)})
			return
		}
		c, ok := parseColor(arg(args, 0))
		if !ok {
			c = rgb{1, 1, 1}
		}
		writeRGB(this, c)
	})
	color.method("set", chain(func(this *goja.Object, args []goja.Value) {
		if c, ok := parseColor(arg(args, 0)); ok {
			writeRGB(this, c)
		}
	}))
	color.method("setHex", chain(func(this *goja.Object, args []goja.Value) {
		writeRGB(this, fromDOM(dom.FromHex(int(numOr(args, 0, 0)))))
	}))
	color.method("setRGB", chain(func(this *goja.Object, args []goja.Value) {
		writeRGB(this, rgb{numOr(args, 0, 0), numOr(args, 1, 0), numOr(args, 2, 0)})
	}))
	color.method("setHSL", chain(func(this *goja.Object, args []goja.Value) {
		writeRGB(this, hslColor(numOr(args, 0, 0), numOr(args, 1, 0), numOr(args, 2, 0)))
	}))
	color.method("setStyle", chain(func(this *goja.Object, args []goja.Value) {
		if c, ok := parseColor(vm.ToValue(arg(args, 0).String())); ok {
			writeRGB(this, c)
		}
	}))
	color.method("offsetHSL", chain(func(this *goja.Object, args []goja.Value) {
		h, s, l := readRGB(this).hsl()
		writeRGB(this, hslColor(h+numOr(args, 0, 0), s+numOr(args, 1, 0), l+numOr(args, 2, 0)))
	}))
	color.method("getHSL", func(this *goja.Object, args []goja.Value) goja.Value {
		target, ok := arg(args, 0).(*goja.Object)
		if !ok {
			target = vm.NewObject()
		}
		h, s, l := readRGB(this).hsl()
		_ = target.Set("h", h)
		_ = target.Set("s", s)
		_ = target.Set("l", l)
		return target
	})
	color.method("getHex", func(this *goja.Object, _ []goja.Value) goja.Value {
		return vm.ToValue(readRGB(this).hex())
	})
	color.method("getHexString", func(this *goja.Object, _ []goja.Value) goja.Value {
		s := strconv.FormatInt(int64(readRGB(this).hex()), 16)
		return vm.ToValue(strings.Repeat("0", 6-len(s)) + s)
	})
	color.method("getStyle", func(this *goja.Object, _ []goja.Value) goja.Value {
		c := readRGB(this)
		return vm.ToValue("rgb(" + strconv.Itoa(int(c.r*255+0.5)) + "," + strconv.Itoa(int(c.g*255+0.5)) + "," + strconv.Itoa(int(c.b*255+0.5)) + ")")
	})
	color.method("copy", chain(func(this *goja.Object, args []goja.Value) {
		if o, ok := arg(args, 0).(*goja.Object); ok {
			writeRGB(this, readRGB(o))
		}
	}))
	color.method("clone", func(this *goja.Object, _ []goja.Value) goja.Value {
		return ns.color(this)
	})
	color.method("lerp", chain(func(this *goja.Object, args []goja.Value) {
		o, ok := arg(args, 0).(*goja.Object)
		if !ok {
			return
		}
		a, b, t := readRGB(this), readRGB(o), numOr(args, 1, 0)
		writeRGB(this, rgb{a.r + (b.r-a.r)*t, a.g + (b.g-a.g)*t, a.b + (b.b-a.b)*t})
	}))
	color.method("multiplyScalar", chain(func(this *goja.Object, args []goja.Value) {
		c, s := readRGB(this), numOr(args, 0, 1)
		writeRGB(this, rgb{c.r * s, c.g * s, c.b * s})
	}))
}

func (ns *Namespace) utilities() {
	vm := ns.vm
	loop := ns.page.Loop

	clock := ns.define("Clock", nil, func(this *goja.Object, args []goja.Value) {
		auto := true
		if v := arg(args, 0); present(v) {
			auto = v.ToBoolean()
		}
		_ = this.Set("autoStart", auto)
		_ = this.Set("startTime", 0)
		_ = this.Set("oldTime", 0)
		_ = this.Set("elapsedTime", 0)
		_ = this.Set("running", false)
	})
	start := func(this *goja.Object) {
		now := loop.Millis()
		_ = this.Set("startTime", now)
		_ = this.Set("oldTime", now)
		_ = this.Set("elapsedTime", 0)
		_ = this.Set("running", true)
	}
	delta := func(this *goja.Object) float64 {
		if this.Get("autoStart").ToBoolean() && !this.Get("running").ToBoolean() {
			start(this)
			return 0
		}
		if !this.Get("running").ToBoolean() {
			return 0
		}
		now := loop.Millis()
		d := (now - getNum(this, "oldTime")) / 1000
		_ = this.Set("oldTime", now)
		_ = this.Set("elapsedTime", getNum(this, "elapsedTime")+d)
		return d
	}
	clock.method("start", func(this *goja.Object, _ []goja.Value) goja.Value {
		start(this)
		return goja.Undefined()
	})
	clock.method("stop", func(this *goja.Object, _ []goja.Value) goja.Value {
		delta(this)
		_ = this.Set("running", false)
		_ = this.Set("autoStart", false)
		return goja.Undefined()
	})
	clock.method("getDelta", func(this *goja.Object, _ []goja.Value) goja.Value {
		return vm.ToValue(delta(this))
	})
	clock.method("getElapsedTime", func(this *goja.Object, _ []goja.Value) goja.Value {
		delta(this)
		return this.Get("elapsedTime")
	})

	mu := vm.NewObject()
	_ = mu.Set("DEG2RAD", math.Pi/180)
	_ = mu.Set("RAD2DEG", 180/math.Pi)
	fn := func(name string, f func(args []goja.Value) float64) {
		_ = mu.Set(name, func(call goja.FunctionCall) goja.Value { return vm.ToValue(f(call.Arguments)) })
	}
	fn("degToRad", func(a []goja.Value) float64 { return numOr(a, 0, 0) * math.Pi / 180 })
	fn("radToDeg", func(a []goja.Value) float64 { return numOr(a, 0, 0) * 180 / math.Pi })
	fn("clamp", func(a []goja.Value) float64 {
		return math.Max(numOr(a, 1, 0), math.Min(numOr(a, 2, 0), numOr(a, 0, 0)))
	})
	fn("lerp", func(a []goja.Value) float64 {
		x, y, t := numOr(a, 0, 0), numOr(a, 1, 0), numOr(a, 2, 0)
		return (1-t)*x + t*y
	})
	fn("inverseLerp", func(a []goja.Value) float64 {
		x, y, v := numOr(a, 0, 0), numOr(a, 1, 0), numOr(a, 2, 0)
		if x == y {
			return 0
		}
		return (v - x) / (y - x)
	})
	fn("mapLinear", func(a []goja.Value) float64 {
		x, a1, a2, b1, b2 := numOr(a, 0, 0), numOr(a, 1, 0), numOr(a, 2, 0), numOr(a, 3, 0), numOr(a, 4, 0)
		return b1 + (x-a1)*(b2-b1)/(a2-a1)
	})
	fn("smoothstep", func(a []goja.Value) float64 {
		x, lo, hi := numOr(a, 0, 0), numOr(a, 1, 0), numOr(a, 2, 0)
		if x <= lo {
			return 0
		}
		if x >= hi {
			return 1
		}
		x = (x - lo) / (hi - lo)
		return x * x * (3 - 2*x)
	})
	fn("euclideanModulo", func(a []goja.Value) float64 {
		n, m := numOr(a, 0, 0), numOr(a, 1, 1)
		return math.Mod(math.Mod(n, m)+m, m)
	})
	fn("randFloat", func(a []goja.Value) float64 {
		lo, hi := numOr(a, 0, 0), numOr(a, 1, 1)
		return lo + ns.rng.Float64()*(hi-lo)
	})
	fn("randFloatSpread", func(a []goja.Value) float64 {
		r := numOr(a, 0, 1)
		return r * (0.5 - ns.rng.Float64())
	})
	fn("randInt", func(a []goja.Value) float64 {
		lo, hi := numOr(a, 0, 0), numOr(a, 1, 0)
		return lo + math.Floor(ns.rng.Float64()*(hi-lo+1))
	})
	_ = mu.Set("generateUUID", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(newUUID())
	})
	_ = ns.obj.Set("MathUtils", mu)
}

func (ns *Namespace) constants() {
	for name, v := range map[string]interface{}{
		"REVISION":               Revision,
		"FrontSide":              0,
		"BackSide":               1,
		"DoubleSide":             2,
		"NoBlending":             0,
		"NormalBlending":         1,
		"AdditiveBlending":       2,
		"SubtractiveBlending":    3,
		"MultiplyBlending":       4,
		"BasicShadowMap":         0,
		"PCFShadowMap":           1,
		"PCFSoftShadowMap":       2,
		"VSMShadowMap":           3,
		"NoToneMapping":          0,
		"LinearToneMapping":      1,
		"ReinhardToneMapping":    2,
		"CineonToneMapping":      3,
		"ACESFilmicToneMapping":  4,
		"RepeatWrapping":         1000,
		"ClampToEdgeWrapping":    1001,
		"MirroredRepeatWrapping": 1002,
		"NearestFilter":          1003,
		"LinearFilter":           1006,
		"SRGBColorSpace":         "srgb",
		"LinearSRGBColorSpace":   "srgb-linear",
		"sRGBEncoding":           3001,
		"LinearEncoding":         3000,
	} {
		_ = ns.obj.Set(name, v)
	}
}
