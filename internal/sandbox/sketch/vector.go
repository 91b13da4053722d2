package sketch

import (
	"fmt"
	"math"

	"github.com/dop251/goja"
)

type vec struct{ x, y, z float64 }

func (v vec) add(o vec) vec        { return vec{v.x + o.x, v.y + o.y, v.z + o.z} }
func (v vec) sub(o vec) vec        { return vec{v.x - o.x, v.y - o.y, v.z - o.z} }
func (v vec) scale(s float64) vec  { return vec{v.x * s, v.y * s, v.z * s} }
func (v vec) dot(o vec) float64    { return v.x*o.x + v.y*o.y + v.z*o.z }
func (v vec) mag() float64         { return math.Sqrt(v.dot(v)) }
func (v vec) dist(o vec) float64   { return v.sub(o).mag() }
func (v vec) heading() float64     { return math.Atan2(v.y, v.x) }
func (v vec) cross(o vec) vec {
	return vec{v.y*o.z - v.z*o.y, v.z*o.x - v.x*o.z, v.x*o.y - v.y*o.x}
}

func (v vec) normalize() vec {
	if m := v.mag(); m > 0 {
		return v.scale(1 / m)
	}
	return v
}

func (v vec) limit(max float64) vec {
	if m := v.mag(); m > max && m > 0 {
		return v.scale(max / m)
	}
	return v
}

func (v vec) lerp(o vec, t float64) vec {
	return vec{v.x + (o.x-v.x)*t, v.y + (o.y-v.y)*t, v.z + (o.z-v.z)*t}
}

// vectors implements p5.Vector over plain script objects sharing one prototype.
type vectors struct {
	vm    *goja.Runtime
	proto *goja.Object
	ctor  *goja.Object
	ctx   *Context
}

func newVectors(vm *goja.Runtime, ctx *Context) *vectors {
	v := &vectors{vm: vm, proto: vm.NewObject(), ctx: ctx}
	v.ctor = vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		return v.make(vec{
			argOr(call.Arguments, 0, 0),
			argOr(call.Arguments, 1, 0),
			argOr(call.Arguments, 2, 0),
		})
	}).ToObject(vm)
	_ = v.ctor.Set("prototype", v.proto)
	_ = v.proto.Set("constructor", v.ctor)
	v.methods()
	v.statics()
	return v
}

func (v *vectors) make(p vec) *goja.Object {
	obj := v.vm.NewObject()
	obj.SetPrototype(v.proto)
	v.store(obj, p)
	return obj
}

func (v *vectors) store(obj *goja.Object, p vec) {
	_ = obj.Set("x", p.x)
	_ = obj.Set("y", p.y)
	_ = obj.Set("z", p.z)
}

func (v *vectors) load(val goja.Value) vec {
	obj, ok := val.(*goja.Object)
	if !ok {
		return vec{}
	}
	return vec{num(obj.Get("x")), num(obj.Get("y")), num(obj.Get("z"))}
}

// operand reads either a vector argument or x, y, z numbers.
func (v *vectors) operand(args []goja.Value) vec {
	if len(args) > 0 {
		if obj, ok := args[0].(*goja.Object); ok {
			if arr, ok := obj.Export().([]interface{}); ok {
				var p [3]float64
				for i := 0; i < len(arr) && i < 3; i++ {
					p[i] = v.vm.ToValue(arr[i]).ToFloat()
				}
				return vec{p[0], p[1], p[2]}
			}
			return v.load(obj)
		}
	}
	return vec{argOr(args, 0, 0), argOr(args, 1, 0), argOr(args, 2, 0)}
}

func (v *vectors) method(name string, fn func(this *goja.Object, p vec, args []goja.Value) goja.Value) {
	_ = v.proto.Set(name, func(call goja.FunctionCall) goja.Value {
		this := call.This.ToObject(v.vm)
		return fn(this, v.load(this), call.Arguments)
	})
}

// mutator applies fn to this and returns this for chaining.
func (v *vectors) mutator(name string, fn func(p vec, args []goja.Value) vec) {
	v.method(name, func(this *goja.Object, p vec, args []goja.Value) goja.Value {
		v.store(this, fn(p, args))
		return this
	})
}

func (v *vectors) methods() {
	v.mutator("set", func(p vec, args []goja.Value) vec { return v.operand(args) })
	v.mutator("add", func(p vec, args []goja.Value) vec { return p.add(v.operand(args)) })
	v.mutator("sub", func(p vec, args []goja.Value) vec { return p.sub(v.operand(args)) })
	v.mutator("mult", func(p vec, args []goja.Value) vec {
		if len(args) == 1 {
			if _, isObj := args[0].(*goja.Object); !isObj {
				return p.scale(args[0].ToFloat())
			}
		}
		o := v.operand(args)
		return vec{p.x * o.x, p.y * o.y, p.z * o.z}
	})
	v.mutator("div", func(p vec, args []goja.Value) vec {
		s := argOr(args, 0, 1)
		if s == 0 {
			return p
		}
		return p.scale(1 / s)
	})
	v.mutator("normalize", func(p vec, _ []goja.Value) vec { return p.normalize() })
	v.mutator("limit", func(p vec, args []goja.Value) vec { return p.limit(argOr(args, 0, math.Inf(1))) })
	v.mutator("setMag", func(p vec, args []goja.Value) vec { return p.normalize().scale(argOr(args, 0, 0)) })
	v.mutator("setHeading", func(p vec, args []goja.Value) vec {
		m, a := p.mag(), v.ctx.toRadians(argOr(args, 0, 0))
		return vec{m * math.Cos(a), m * math.Sin(a), p.z}
	})
	v.mutator("rotate", func(p vec, args []goja.Value) vec {
		a := v.ctx.toRadians(argOr(args, 0, 0))
		s, c := math.Sin(a), math.Cos(a)
		return vec{p.x*c - p.y*s, p.x*s + p.y*c, p.z}
	})
	v.mutator("lerp", func(p vec, args []goja.Value) vec {
		if len(args) >= 2 {
			if _, isObj := args[0].(*goja.Object); isObj {
				return p.lerp(v.load(args[0]), args[1].ToFloat())
			}
		}
		return p.lerp(vec{argOr(args, 0, 0), argOr(args, 1, 0), argOr(args, 2, 0)}, argOr(args, 3, 0))
	})

	v.method("mag", func(_ *goja.Object, p vec, _ []goja.Value) goja.Value { return v.vm.ToValue(p.mag()) })
	v.method("magSq", func(_ *goja.Object, p vec, _ []goja.Value) goja.Value { return v.vm.ToValue(p.dot(p)) })
	v.method("heading", func(_ *goja.Object, p vec, _ []goja.Value) goja.Value {
		return v.vm.ToValue(v.ctx.fromRadians(p.heading()))
	})
	v.method("dot", func(_ *goja.Object, p vec, args []goja.Value) goja.Value {
		return v.vm.ToValue(p.dot(v.operand(args)))
	})
	v.method("dist", func(_ *goja.Object, p vec, args []goja.Value) goja.Value {
		return v.vm.ToValue(p.dist(v.operand(args)))
	})
	v.method("cross", func(_ *goja.Object, p vec, args []goja.Value) goja.Value {
		return v.make(p.cross(v.operand(args)))
	})
	v.method("copy", func(_ *goja.Object, p vec, _ []goja.Value) goja.Value { return v.make(p) })
	v.method("angleBetween", func(_ *goja.Object, p vec, args []goja.Value) goja.Value {
		o := v.operand(args)
		denom := p.mag() * o.mag()
		if denom == 0 {
			return v.vm.ToValue(0)
		}
		cos := math.Max(-1, math.Min(1, p.dot(o)/denom))
		angle := math.Acos(cos)
		if p.x*o.y-p.y*o.x < 0 {
			angle = -angle
		}
		return v.vm.ToValue(v.ctx.fromRadians(angle))
	})
	v.method("array", func(_ *goja.Object, p vec, _ []goja.Value) goja.Value {
		return v.vm.NewArray(p.x, p.y, p.z)
	})
	v.method("equals", func(_ *goja.Object, p vec, args []goja.Value) goja.Value {
		return v.vm.ToValue(p == v.operand(args))
	})
	v.method("toString", func(_ *goja.Object, p vec, _ []goja.Value) goja.Value {
		return v.vm.ToValue(fmt.Sprintf("p5.Vector Object : [%g, %g, %g]", p.x, p.y, p.z))
	})
}

func (v *vectors) static(name string, fn func(args []goja.Value) goja.Value) {
	_ = v.ctor.Set(name, func(call goja.FunctionCall) goja.Value { return fn(call.Arguments) })
}

func (v *vectors) statics() {
	pair := func(args []goja.Value) (vec, vec) {
		var a, b vec
		if len(args) > 0 {
			a = v.load(args[0])
		}
		if len(args) > 1 {
			b = v.load(args[1])
		}
		return a, b
	}
	v.static("add", func(args []goja.Value) goja.Value { a, b := pair(args); return v.make(a.add(b)) })
	v.static("sub", func(args []goja.Value) goja.Value { a, b := pair(args); return v.make(a.sub(b)) })
	v.static("mult", func(args []goja.Value) goja.Value {
		var a vec
		if len(args) > 0 {
			a = v.load(args[0])
		}
		return v.make(a.scale(argOr(args, 1, 1)))
	})
	v.static("div", func(args []goja.Value) goja.Value {
		var a vec
		if len(args) > 0 {
			a = v.load(args[0])
		}
		s := argOr(args, 1, 1)
		if s == 0 {
			return v.make(a)
		}
		return v.make(a.scale(1 / s))
	})
	v.static("dist", func(args []goja.Value) goja.Value { a, b := pair(args); return v.vm.ToValue(a.dist(b)) })
	v.static("dot", func(args []goja.Value) goja.Value { a, b := pair(args); return v.vm.ToValue(a.dot(b)) })
	v.static("cross", func(args []goja.Value) goja.Value { a, b := pair(args); return v.make(a.cross(b)) })
	v.static("mag", func(args []goja.Value) goja.Value { a, _ := pair(args); return v.vm.ToValue(a.mag()) })
	v.static("normalize", func(args []goja.Value) goja.Value { a, _ := pair(args); return v.make(a.normalize()) })
	v.static("lerp", func(args []goja.Value) goja.Value {
		a, b := pair(args)
		return v.make(a.lerp(b, argOr(args, 2, 0)))
	})
	v.static("fromAngle", func(args []goja.Value) goja.Value {
		a := v.ctx.toRadians(argOr(args, 0, 0))
		l := argOr(args, 1, 1)
		return v.make(vec{l * math.Cos(a), l * math.Sin(a), 0})
	})
	v.static("random2D", func([]goja.Value) goja.Value {
		a := v.ctx.rng.Float64() * 2 * math.Pi
		return v.make(vec{math.Cos(a), math.Sin(a), 0})
	})
	v.static("random3D", func([]goja.Value) goja.Value {
		a := v.ctx.rng.Float64() * 2 * math.Pi
		z := v.ctx.rng.Float64()*2 - 1
		r := math.Sqrt(1 - z*z)
		return v.make(vec{r * math.Cos(a), r * math.Sin(a), z})
	})
}
