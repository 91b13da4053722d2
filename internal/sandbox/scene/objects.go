package scene

import (
	"math"
	"strconv"

	"github.com/dop251/goja"
)

func (ns *Namespace) initObject3D(this *goja.Object, kind string) {
	vm := ns.vm
	_ = this.Set("uuid", newUUID())
	_ = this.Set("name", "")
	_ = this.Set("type", kind)
	_ = this.Set("parent", goja.Null())
	_ = this.Set("children", vm.NewArray())
	_ = this.Set("position", ns.vector3(0, 0, 0))
	_ = this.Set("rotation", ns.construct("Euler"))
	_ = this.Set("scale", ns.vector3(1, 1, 1))
	_ = this.Set("up", ns.vector3(0, 1, 0))
	_ = this.Set("visible", true)
	_ = this.Set("castShadow", false)
	_ = this.Set("receiveShadow", false)
	_ = this.Set("frustumCulled", true)
	_ = this.Set("renderOrder", 0)
	_ = this.Set("userData", vm.NewObject())
}

// attach appends child to parent.children, detaching it from its old parent.
func (ns *Namespace) attach(parent, child *goja.Object) {
	if child == parent || !ns.is(child, "Object3D") {
		return
	}
	if old := getObj(child, "parent"); old != nil {
		ns.detach(old, child)
	}
	_ = child.Set("parent", parent)
	children := getObj(parent, "children")
	_ = children.Set(strconv.Itoa(len(items(children))), child)
}

func (ns *Namespace) detach(parent, child *goja.Object) {
	children := getObj(parent, "children")
	if children == nil {
		return
	}
	kept := make([]interface{}, 0)
	for _, c := range items(children) {
		if o, ok := c.(*goja.Object); ok && o == child {
			_ = child.Set("parent", goja.Null())
			continue
		}
		kept = append(kept, c)
	}
	ns.replace(children, kept)
}

func (ns *Namespace) replace(arr *goja.Object, values []interface{}) {
	_ = arr.Set("length", 0)
	for i, v := range values {
		_ = arr.Set(strconv.Itoa(i), v)
	}
}

// walk visits obj and its descendants depth first.
func (ns *Namespace) walk(obj *goja.Object, fn func(*goja.Object)) {
	fn(obj)
	for _, c := range items(obj.Get("children")) {
		if child, ok := c.(*goja.Object); ok {
			ns.walk(child, fn)
		}
	}
}

func (ns *Namespace) objects() {
	object3D := ns.define("Object3D", nil, func(this *goja.Object, _ []goja.Value) {
		ns.initObject3D(this, "Object3D")
	})
	object3D.method("add", chain(func(this *goja.Object, args []goja.Value) {
		for _, a := range args {
			if child, ok := a.(*goja.Object); ok {
				ns.attach(this, child)
			}
		}
	}))
	object3D.method("remove", chain(func(this *goja.Object, args []goja.Value) {
		for _, a := range args {
			if child, ok := a.(*goja.Object); ok {
				ns.detach(this, child)
			}
		}
	}))
	object3D.method("removeFromParent", chain(func(this *goja.Object, _ []goja.Value) {
		if parent := getObj(this, "parent"); parent != nil {
			ns.detach(parent, this)
		}
	}))
	object3D.method("clear", chain(func(this *goja.Object, _ []goja.Value) {
		children := getObj(this, "children")
		for _, c := range items(children) {
			if child, ok := c.(*goja.Object); ok {
				_ = child.Set("parent", goja.Null())
			}
		}
		ns.replace(children, nil)
	}))
	object3D.method("traverse", func(this *goja.Object, args []goja.Value) goja.Value {
		fn, ok := goja.AssertFunction(arg(args, 0))
		if !ok {
			return goja.Undefined()
		}
		ns.walk(this, func(o *goja.Object) {
			if _, err := fn(goja.Undefined(), o); err != nil {
				panic(err)
			}
		})
		return goja.Undefined()
	})
	object3D.method("getObjectByName", func(this *goja.Object, args []goja.Value) goja.Value {
		name := arg(args, 0).String()
		var found goja.Value = goja.Undefined()
		ns.walk(this, func(o *goja.Object) {
			if goja.IsUndefined(found) && o.Get("name").String() == name {
				found = o
			}
		})
		return found
	})
	rotate := func(axis string) method {
		return chain(func(this *goja.Object, args []goja.Value) {
			r := getObj(this, "rotation")
			_ = r.Set(axis, getNum(r, axis)+numOr(args, 0, 0))
		})
	}
	translate := func(axis string) method {
		return chain(func(this *goja.Object, args []goja.Value) {
			p := getObj(this, "position")
			_ = p.Set(axis, getNum(p, axis)+numOr(args, 0, 0))
		})
	}
	for _, axis := range []string{"X", "Y", "Z"} {
		lower := string(rune(axis[0] + 'a' - 'A'))
		object3D.method("rotate"+axis, rotate(lower))
		object3D.method("translate"+axis, translate(lower))
	}
	object3D.method("lookAt", chain(func(this *goja.Object, args []goja.Value) {
		target := xyz{numOr(args, 0, 0), numOr(args, 1, 0), numOr(args, 2, 0)}
		if o, ok := arg(args, 0).(*goja.Object); ok {
			target = readXYZ(o)
		}
		p := readXYZ(getObj(this, "position"))
		d := xyz{target.x - p.x, target.y - p.y, target.z - p.z}
		r := getObj(this, "rotation")
		_ = r.Set("y", math.Atan2(-d.x, -d.z))
		_ = r.Set("x", math.Atan2(d.y, math.Hypot(d.x, d.z)))
	}))
	object3D.method("getWorldPosition", func(this *goja.Object, args []goja.Value) goja.Value {
		target, ok := arg(args, 0).(*goja.Object)
		if !ok {
			target = ns.vector3(0, 0, 0)
		}
		sum := xyz{}
		for o := this; o != nil; o = getObj(o, "parent") {
			p := readXYZ(getObj(o, "position"))
			sum = xyz{sum.x + p.x, sum.y + p.y, sum.z + p.z}
		}
		writeXYZ(target, sum)
		return target
	})
	noop := func(this *goja.Object, _ []goja.Value) goja.Value { return goja.Undefined() }
	object3D.method("updateMatrix", noop)
	object3D.method("updateMatrixWorld", noop)

	ns.define("Scene", object3D, func(this *goja.Object, _ []goja.Value) {
		ns.initObject3D(this, "Scene")
		_ = this.Set("background", goja.Null())
		_ = this.Set("environment", goja.Null())
		_ = this.Set("fog", goja.Null())
	})
	ns.define("Group", object3D, func(this *goja.Object, _ []goja.Value) {
		ns.initObject3D(this, "Group")
	})

	drawable := func(name, defaultMaterial string) {
		ns.define(name, object3D, func(this *goja.Object, args []goja.Value) {
			ns.initObject3D(this, name)
			geometry := arg(args, 0)
			if !present(geometry) {
				geometry = ns.construct("BufferGeometry")
			}
			material := arg(args, 1)
			if !present(material) {
				material = ns.construct(defaultMaterial)
			}
			_ = this.Set("geometry", geometry)
			_ = this.Set("material", material)
		})
	}
	drawable("Mesh", "MeshBasicMaterial")
	drawable("Points", "PointsMaterial")
	drawable("Line", "LineBasicMaterial")
	drawable("LineSegments", "LineBasicMaterial")
	drawable("LineLoop", "LineBasicMaterial")

	camera := ns.define("Camera", object3D, func(this *goja.Object, _ []goja.Value) {
		ns.initObject3D(this, "Camera")
	})
	camera.method("updateProjectionMatrix", func(this *goja.Object, _ []goja.Value) goja.Value {
		_ = this.Set("projectionVersion", getNum(this, "projectionVersion")+1)
		return goja.Undefined()
	})
	ns.define("PerspectiveCamera", camera, func(this *goja.Object, args []goja.Value) {
		ns.initObject3D(this, "PerspectiveCamera")
		_ = this.Set("fov", numOr(args, 0, 50))
		_ = this.Set("aspect", numOr(args, 1, 1))
		_ = this.Set("near", numOr(args, 2, 0.1))
		_ = this.Set("far", numOr(args, 3, 2000))
		_ = this.Set("zoom", 1)
		_ = this.Set("projectionVersion", 0)
	})
	ns.define("OrthographicCamera", camera, func(this *goja.Object, args []goja.Value) {
		ns.initObject3D(this, "OrthographicCamera")
		_ = this.Set("left", numOr(args, 0, -1))
		_ = this.Set("right", numOr(args, 1, 1))
		_ = this.Set("top", numOr(args, 2, 1))
		_ = this.Set("bottom", numOr(args, 3, -1))
		_ = this.Set("near", numOr(args, 4, 0.1))
		_ = this.Set("far", numOr(args, 5, 2000))
		_ = this.Set("zoom", 1)
		_ = this.Set("projectionVersion", 0)
	})

	light := ns.define("Light", object3D, func(this *goja.Object, args []goja.Value) {
		ns.initLight(this, "Light", args)
	})
	ns.define("AmbientLight", light, func(this *goja.Object, args []goja.Value) {
		ns.initLight(this, "AmbientLight", args)
	})
	ns.define("DirectionalLight", light, func(this *goja.Object, args []goja.Value) {
		ns.initLight(this, "DirectionalLight", args)
		writeXYZ(getObj(this, "position"), xyz{0, 1, 0})
		_ = this.Set("target", ns.construct("Object3D"))
	})
	ns.define("PointLight", light, func(this *goja.Object, args []goja.Value) {
		ns.initLight(this, "PointLight", args)
		_ = this.Set("distance", numOr(args, 2, 0))
		_ = this.Set("decay", numOr(args, 3, 2))
	})
	ns.define("SpotLight", light, func(this *goja.Object, args []goja.Value) {
		ns.initLight(this, "SpotLight", args)
		writeXYZ(getObj(this, "position"), xyz{0, 1, 0})
		_ = this.Set("distance", numOr(args, 2, 0))
		_ = this.Set("angle", numOr(args, 3, math.Pi/3))
		_ = this.Set("penumbra", numOr(args, 4, 0))
		_ = this.Set("decay", numOr(args, 5, 2))
		_ = this.Set("target", ns.construct("Object3D"))
	})
	ns.define("HemisphereLight", light, func(this *goja.Object, args []goja.Value) {
		ns.initObject3D(this, "HemisphereLight")
		_ = this.Set("color", ns.color(arg(args, 0)))
		_ = this.Set("groundColor", ns.color(arg(args, 1)))
		_ = this.Set("intensity", numOr(args, 2, 1))
	})

	fog := func(this *goja.Object, args []goja.Value) {
		_ = this.Set("color", ns.color(arg(args, 0)))
	}
	ns.define("Fog", nil, func(this *goja.Object, args []goja.Value) {
		fog(this, args)
		_ = this.Set("near", numOr(args, 1, 1))
		_ = this.Set("far", numOr(args, 2, 1000))
	})
	ns.define("FogExp2", nil, func(this *goja.Object, args []goja.Value) {
		fog(this, args)
		_ = this.Set("density", numOr(args, 1, 0.00025))
	})
}

func (ns *Namespace) initLight(this *goja.Object, kind string, args []goja.Value) {
	ns.initObject3D(this, kind)
	_ = this.Set("color", ns.color(arg(args, 0)))
	_ = this.Set("intensity", numOr(args, 1, 1))
}
