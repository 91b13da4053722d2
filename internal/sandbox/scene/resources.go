package scene

import (
	"math"
	"strconv"

	"github.com/dop251/goja"
)

// geometryParams lists each primitive geometry with its constructor
// parameters and defaults.
var geometryParams = []struct {
	name     string
	params   []string
	defaults []float64
}{
	{"BoxGeometry", []string{"width", "height", "depth", "widthSegments", "heightSegments", "depthSegments"}, []float64{1, 1, 1, 1, 1, 1}},
	{"SphereGeometry", []string{"radius", "widthSegments", "heightSegments", "phiStart", "phiLength", "thetaStart", "thetaLength"}, []float64{1, 32, 16, 0, 2 * math.Pi, 0, math.Pi}},
	{"PlaneGeometry", []string{"width", "height", "widthSegments", "heightSegments"}, []float64{1, 1, 1, 1}},
	{"CircleGeometry", []string{"radius", "segments", "thetaStart", "thetaLength"}, []float64{1, 32, 0, 2 * math.Pi}},
	{"CylinderGeometry", []string{"radiusTop", "radiusBottom", "height", "radialSegments", "heightSegments"}, []float64{1, 1, 1, 32, 1}},
	{"ConeGeometry", []string{"radius", "height", "radialSegments", "heightSegments"}, []float64{1, 1, 32, 1}},
	{"TorusGeometry", []string{"radius", "tube", "radialSegments", "tubularSegments", "arc"}, []float64{1, 0.4, 12, 48, 2 * math.Pi}},
	{"TorusKnotGeometry", []string{"radius", "tube", "tubularSegments", "radialSegments", "p", "q"}, []float64{1, 0.4, 64, 8, 2, 3}},
	{"RingGeometry", []string{"innerRadius", "outerRadius", "thetaSegments", "phiSegments"}, []float64{0.5, 1, 32, 1}},
	{"IcosahedronGeometry", []string{"radius", "detail"}, []float64{1, 0}},
	{"OctahedronGeometry", []string{"radius", "detail"}, []float64{1, 0}},
	{"TetrahedronGeometry", []string{"radius", "detail"}, []float64{1, 0}},
	{"DodecahedronGeometry", []string{"radius", "detail"}, []float64{1, 0}},
}

var materialNames = []string{
	"MeshBasicMaterial", "MeshStandardMaterial", "MeshPhongMaterial", "MeshLambertMaterial",
	"MeshPhysicalMaterial", "MeshNormalMaterial", "MeshToonMaterial", "LineBasicMaterial",
	"LineDashedMaterial", "PointsMaterial", "SpriteMaterial",
}

// colorProps are material parameters holding a Color.
var colorProps = map[string]bool{"color": true, "emissive": true, "specular": true}

// textureProps are material parameters that may reference a texture.
var textureProps = []string{
	"map", "normalMap", "bumpMap", "roughnessMap", "metalnessMap", "alphaMap",
	"emissiveMap", "envMap", "aoMap", "lightMap", "displacementMap", "specularMap",
}

func (ns *Namespace) resourceTypes() {
	vm := ns.vm

	geometry := ns.define("BufferGeometry", nil, func(this *goja.Object, _ []goja.Value) {
		ns.initGeometry(this, "BufferGeometry")
	})
	geometry.method("setAttribute", chain(func(this *goja.Object, args []goja.Value) {
		_ = getObj(this, "attributes").Set(arg(args, 0).String(), arg(args, 1))
	}))
	geometry.method("getAttribute", func(this *goja.Object, args []goja.Value) goja.Value {
		return getObj(this, "attributes").Get(arg(args, 0).String())
	})
	geometry.method("deleteAttribute", chain(func(this *goja.Object, args []goja.Value) {
		_ = getObj(this, "attributes").Delete(arg(args, 0).String())
	}))
	geometry.method("setIndex", chain(func(this *goja.Object, args []goja.Value) {
		_ = this.Set("index", arg(args, 0))
	}))
	geometry.method("setFromPoints", chain(func(this *goja.Object, args []goja.Value) {
		points := items(arg(args, 0))
		flat := make([]interface{}, 0, len(points)*3)
		for _, p := range points {
			o, _ := p.(*goja.Object)
			v := readXYZ(o)
			flat = append(flat, v.x, v.y, v.z)
		}
		attr := ns.construct("Float32BufferAttribute", vm.NewArray(flat...), vm.ToValue(3))
		_ = getObj(this, "attributes").Set("position", attr)
	}))
	fluent := chain(func(*goja.Object, []goja.Value) {})
	for _, name := range []string{
		"computeVertexNormals", "computeBoundingBox", "computeBoundingSphere",
		"center", "translate", "rotateX", "rotateY", "rotateZ", "scale",
	} {
		geometry.method(name, fluent)
	}
	geometry.method("clone", func(this *goja.Object, _ []goja.Value) goja.Value {
		clone := ns.construct("BufferGeometry")
		_ = clone.Set("type", this.Get("type"))
		_ = clone.Set("parameters", this.Get("parameters"))
		for _, k := range getObj(this, "attributes").Keys() {
			_ = getObj(clone, "attributes").Set(k, getObj(this, "attributes").Get(k))
		}
		return clone
	})
	geometry.method("dispose", ns.disposeMethod)

	for _, g := range geometryParams {
		g := g
		ns.define(g.name, geometry, func(this *goja.Object, args []goja.Value) {
			ns.initGeometry(this, g.name)
			params := vm.NewObject()
			for i, p := range g.params {
				_ = params.Set(p, numOr(args, i, g.defaults[i]))
			}
			_ = this.Set("parameters", params)
		})
	}

	attribute := ns.define("BufferAttribute", nil, func(this *goja.Object, args []goja.Value) {
		ns.initAttribute(this, arg(args, 0), numOr(args, 1, 1), arg(args, 2).ToBoolean())
	})
	ns.define("Float32BufferAttribute", attribute, func(this *goja.Object, args []goja.Value) {
		array := arg(args, 0)
		if obj, ok := array.(*goja.Object); ok && obj.ClassName() == "Array" {
			if typed, err := vm.New(vm.Get("Float32Array"), array); err == nil {
				array = typed
			}
		}
		ns.initAttribute(this, array, numOr(args, 1, 1), arg(args, 2).ToBoolean())
	})
	component := func(offset int) (method, method) {
		get := func(this *goja.Object, args []goja.Value) goja.Value {
			i := int(numOr(args, 0, 0))*int(getNum(this, "itemSize")) + offset
			return getObj(this, "array").Get(strconv.Itoa(i))
		}
		set := chain(func(this *goja.Object, args []goja.Value) {
			i := int(numOr(args, 0, 0))*int(getNum(this, "itemSize")) + offset
			_ = getObj(this, "array").Set(strconv.Itoa(i), numOr(args, 1, 0))
		})
		return get, set
	}
	for i, axis := range []string{"X", "Y", "Z", "W"} {
		get, set := component(i)
		attribute.method("get"+axis, get)
		attribute.method("set"+axis, set)
	}
	attribute.method("setXYZ", chain(func(this *goja.Object, args []goja.Value) {
		size := int(getNum(this, "itemSize"))
		base := int(numOr(args, 0, 0)) * size
		arr := getObj(this, "array")
		for k := 0; k < 3 && k < size; k++ {
			_ = arr.Set(strconv.Itoa(base+k), numOr(args, k+1, 0))
		}
	}))

	material := ns.define("Material", nil, func(this *goja.Object, args []goja.Value) {
		ns.initMaterial(this, "Material", arg(args, 0))
	})
	material.method("setValues", chain(func(this *goja.Object, args []goja.Value) {
		ns.setValues(this, arg(args, 0))
	}))
	material.method("clone", func(this *goja.Object, _ []goja.Value) goja.Value {
		clone := ns.construct(this.Get("type").String())
		for _, k := range this.Keys() {
			if k == "uuid" {
				continue
			}
			v := this.Get(k)
			if ns.is(v, "Color") {
				v = ns.color(v)
			}
			_ = clone.Set(k, v)
		}
		return clone
	})
	material.method("dispose", ns.disposeMethod)
	for _, name := range materialNames {
		name := name
		ns.define(name, material, func(this *goja.Object, args []goja.Value) {
			ns.initMaterial(this, name, arg(args, 0))
		})
	}

	texture := ns.define("Texture", nil, func(this *goja.Object, args []goja.Value) {
		ns.initTexture(this, "Texture", arg(args, 0))
	})
	texture.method("dispose", ns.disposeMethod)
	ns.define("CanvasTexture", texture, func(this *goja.Object, args []goja.Value) {
		ns.initTexture(this, "CanvasTexture", arg(args, 0))
		_ = this.Set("needsUpdate", true)
	})
	ns.define("DataTexture", texture, func(this *goja.Object, args []goja.Value) {
		image := vm.NewObject()
		_ = image.Set("data", arg(args, 0))
		_ = image.Set("width", numOr(args, 1, 1))
		_ = image.Set("height", numOr(args, 2, 1))
		ns.initTexture(this, "DataTexture", image)
	})

	loader := ns.define("TextureLoader", nil, nil)
	loader.method("load", func(_ *goja.Object, args []goja.Value) goja.Value {
		image := vm.NewObject()
		_ = image.Set("src", arg(args, 0).String())
		tex := ns.construct("Texture", image)
		if onLoad, ok := goja.AssertFunction(arg(args, 1)); ok {
			if t := ns.page.Realm.Owner(); t != nil {
				t.SetTimeout(func() {
					if _, err := ns.page.Realm.Call(onLoad, goja.Undefined(), tex); err != nil {
						t.Fail(err)
					}
				}, 0)
			}
		}
		return tex
	})
}

func (ns *Namespace) initGeometry(this *goja.Object, kind string) {
	_ = this.Set("type", kind)
	_ = this.Set("name", "")
	_ = this.Set("attributes", ns.vm.NewObject())
	_ = this.Set("index", goja.Null())
	_ = this.Set("parameters", ns.vm.NewObject())
	_ = this.Set("userData", ns.vm.NewObject())
	ns.track(this, ResourceGeometry)
}

func (ns *Namespace) initAttribute(this *goja.Object, array goja.Value, itemSize float64, normalized bool) {
	if itemSize <= 0 {
		itemSize = 1
	}
	_ = this.Set("array", array)
	_ = this.Set("itemSize", itemSize)
	count := 0.0
	if obj, ok := array.(*goja.Object); ok {
		count = math.Floor(getNum(obj, "length") / itemSize)
	}
	_ = this.Set("count", count)
	_ = this.Set("normalized", normalized)
	_ = this.Set("needsUpdate", false)
}

func (ns *Namespace) initMaterial(this *goja.Object, kind string, params goja.Value) {
	_ = this.Set("type", kind)
	_ = this.Set("name", "")
	_ = this.Set("color", ns.color(ns.vm.ToValue(0xffffff)))
	_ = this.Set("opacity", 1)
	_ = this.Set("transparent", false)
	_ = this.Set("side", 0)
	_ = this.Set("visible", true)
	_ = this.Set("wireframe", false)
	_ = this.Set("depthTest", true)
	_ = this.Set("depthWrite", true)
	_ = this.Set("needsUpdate", false)
	_ = this.Set("userData", ns.vm.NewObject())
	switch kind {
	case "MeshStandardMaterial", "MeshPhysicalMaterial":
		_ = this.Set("roughness", 1)
		_ = this.Set("metalness", 0)
		_ = this.Set("emissive", ns.color(ns.vm.ToValue(0)))
	case "MeshPhongMaterial":
		_ = this.Set("shininess", 30)
		_ = this.Set("specular", ns.color(ns.vm.ToValue(0x111111)))
		_ = this.Set("emissive", ns.color(ns.vm.ToValue(0)))
	case "MeshLambertMaterial":
		_ = this.Set("emissive", ns.color(ns.vm.ToValue(0)))
	case "PointsMaterial":
		_ = this.Set("size", 1)
		_ = this.Set("sizeAttenuation", true)
	case "LineBasicMaterial", "LineDashedMaterial":
		_ = this.Set("linewidth", 1)
	}
	ns.setValues(this, params)
	ns.track(this, ResourceMaterial)
}

func (ns *Namespace) setValues(this *goja.Object, params goja.Value) {
	obj, ok := params.(*goja.Object)
	if !ok {
		return
	}
	for _, k := range obj.Keys() {
		v := obj.Get(k)
		if colorProps[k] {
			if c := getObj(this, k); c != nil && ns.is(c, "Color") {
				if parsed, ok := parseColor(v); ok {
					writeRGB(c, parsed)
				}
				continue
			}
			v = ns.color(v)
		}
		_ = this.Set(k, v)
	}
}

func (ns *Namespace) initTexture(this *goja.Object, kind string, image goja.Value) {
	if !present(image) {
		image = goja.Null()
	}
	_ = this.Set("type", kind)
	_ = this.Set("image", image)
	_ = this.Set("needsUpdate", false)
	_ = this.Set("wrapS", 1001)
	_ = this.Set("wrapT", 1001)
	_ = this.Set("repeat", ns.construct("Vector2", ns.vm.ToValue(1), ns.vm.ToValue(1)))
	_ = this.Set("offset", ns.construct("Vector2"))
	ns.track(this, ResourceTexture)
}

// disposeGraph disposes every geometry, material and texture reachable from
// root and returns how many ledger entries it released.
func (ns *Namespace) disposeGraph(root *goja.Object) int {
	released := 0
	release := func(v goja.Value) {
		if obj, ok := v.(*goja.Object); ok && ns.dispose(obj) {
			released++
		}
	}
	disposeMaterial := func(v goja.Value) {
		m, ok := v.(*goja.Object)
		if !ok {
			return
		}
		for _, p := range textureProps {
			release(m.Get(p))
		}
		release(m)
	}
	ns.walk(root, func(o *goja.Object) {
		release(o.Get("geometry"))
		mat := o.Get("material")
		if obj, ok := mat.(*goja.Object); ok && obj.ClassName() == "Array" {
			for _, m := range items(obj) {
				disposeMaterial(m)
			}
		} else {
			disposeMaterial(mat)
		}
		release(o.Get("background"))
		release(o.Get("environment"))
	})
	return released
}
