package sketch

import (
	"fmt"
	"math"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox/dom"
)

// Color modes.
const (
	modeRGB = "rgb"
	modeHSB = "hsb"
	modeHSL = "hsl"
)

func defaultMaxes(mode string) [4]float64 {
	switch mode {
	case modeHSB, modeHSL:
		return [4]float64{360, 100, 100, 1}
	default:
		return [4]float64{255, 255, 255, 255}
	}
}

// colorMode sets the mode and optional channel maxima.
func (c *Context) colorMode(call goja.FunctionCall) goja.Value {
	mode := call.Argument(0).String()
	switch mode {
	case modeRGB, modeHSB, modeHSL:
	default:
		return goja.Undefined()
	}
	c.st.colorMode = mode
	c.st.colorMax = defaultMaxes(mode)
	switch len(call.Arguments) {
	case 2:
		m := call.Arguments[1].ToFloat()
		c.st.colorMax = [4]float64{m, m, m, m}
	case 4:
		for i := 0; i < 3; i++ {
			c.st.colorMax[i] = call.Arguments[i+1].ToFloat()
		}
	case 5:
		for i := 0; i < 4; i++ {
			c.st.colorMax[i] = call.Arguments[i+1].ToFloat()
		}
	}
	return goja.Undefined()
}

// parseColor interprets color arguments the way fill, stroke and background do.
func (c *Context) parseColor(args []goja.Value) (dom.Color, bool) {
	if len(args) == 0 {
		return dom.Color{}, false
	}
	first := args[0]
	if obj, ok := first.(*goja.Object); ok {
		if levels := obj.Get("levels"); levels != nil && !goja.IsUndefined(levels) {
			return levelsColor(c.vm, levels), true
		}
		if arr, ok := obj.Export().([]interface{}); ok {
			vals := make([]goja.Value, len(arr))
			for i, v := range arr {
				vals[i] = c.vm.ToValue(v)
			}
			return c.parseColor(vals)
		}
		return dom.Color{}, false
	}
	if _, isString := first.Export().(string); isString {
		col, ok := dom.ParseColor(first.String())
		if ok && len(args) > 1 {
			col.A = clamp255(args[1].ToFloat() / c.st.colorMax[3] * 255)
		}
		return col, ok
	}

	max := c.st.colorMax
	n := make([]float64, 0, 4)
	for _, a := range args {
		f := a.ToFloat()
		if math.IsNaN(f) {
			return dom.Color{}, false
		}
		n = append(n, f)
	}
	switch len(n) {
	case 1, 2:
		gray := n[0] / max[2] * 255
		if c.st.colorMode == modeRGB {
			gray = n[0] / max[0] * 255
		}
		alpha := 255.0
		if len(n) == 2 {
			alpha = n[1] / max[3] * 255
		}
		return dom.RGBA(gray, gray, gray, alpha), true
	default:
		alpha := max[3]
		if len(n) >= 4 {
			alpha = n[3]
		}
		switch c.st.colorMode {
		case modeHSB:
			return dom.HSBA(n[0]/max[0]*360, n[1]/max[1]*100, n[2]/max[2]*100, alpha/max[3]*100), true
		case modeHSL:
			return dom.HSLA(n[0]/max[0]*360, n[1]/max[1]*100, n[2]/max[2]*100, alpha/max[3]*100), true
		default:
			return dom.RGBA(n[0]/max[0]*255, n[1]/max[1]*255, n[2]/max[2]*255, alpha/max[3]*255), true
		}
	}
}

func clamp255(v float64) uint8 {
	return dom.RGBA(v, 0, 0, 0).R
}

func levelsColor(vm *goja.Runtime, levels goja.Value) dom.Color {
	obj := levels.ToObject(vm)
	ch := func(i int) float64 {
		v := obj.Get(fmt.Sprint(i))
		if v == nil || goja.IsUndefined(v) {
			return 255
		}
		return v.ToFloat()
	}
	return dom.RGBA(ch(0), ch(1), ch(2), ch(3))
}

// colorObject builds the script value returned by color() and lerpColor().
func (c *Context) colorObject(col dom.Color) *goja.Object {
	obj := c.vm.NewObject()
	_ = obj.Set("levels", c.vm.NewArray(int(col.R), int(col.G), int(col.B), int(col.A)))
	_ = obj.Set("toString", func(goja.FunctionCall) goja.Value {
		return c.vm.ToValue(fmt.Sprintf("rgba(%d,%d,%d,%.2f)", col.R, col.G, col.B, float64(col.A)/255))
	})
	setter := func(idx int) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			levels := obj.Get("levels").ToObject(c.vm)
			max := c.st.colorMax[idx]
			if idx == 3 && c.st.colorMode != modeRGB {
				max = c.st.colorMax[3]
			}
			_ = levels.Set(fmt.Sprint(idx), int(clamp255(call.Argument(0).ToFloat()/max*255)))
			return goja.Undefined()
		}
	}
	_ = obj.Set("setRed", setter(0))
	_ = obj.Set("setGreen", setter(1))
	_ = obj.Set("setBlue", setter(2))
	_ = obj.Set("setAlpha", setter(3))
	return obj
}

func (c *Context) colorFuncs(m funcMap) {
	m["colorMode"] = c.colorMode
	m["color"] = func(call goja.FunctionCall) goja.Value {
		col, ok := c.parseColor(call.Arguments)
		if !ok {
			panic(c.vm.NewTypeError("color: unsupported arguments"))
		}
		return c.colorObject(col)
	}
	m["lerpColor"] = func(call goja.FunctionCall) goja.Value {
		from, _ := c.parseColor(argSlice(call.Arguments, 0, 1))
		to, _ := c.parseColor(argSlice(call.Arguments, 1, 2))
		return c.colorObject(dom.Lerp(from, to, call.Argument(2).ToFloat()))
	}
	channel := func(fn func(dom.Color) float64) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			col, _ := c.parseColor(call.Arguments)
			return c.vm.ToValue(fn(col))
		}
	}
	m["red"] = channel(func(col dom.Color) float64 { return float64(col.R) })
	m["green"] = channel(func(col dom.Color) float64 { return float64(col.G) })
	m["blue"] = channel(func(col dom.Color) float64 { return float64(col.B) })
	m["alpha"] = channel(func(col dom.Color) float64 { return float64(col.A) })
	m["brightness"] = channel(func(col dom.Color) float64 {
		return float64(maxByte(col.R, col.G, col.B)) / 255 * 100
	})
	m["lightness"] = channel(func(col dom.Color) float64 {
		hi, lo := float64(maxByte(col.R, col.G, col.B)), float64(minByte(col.R, col.G, col.B))
		return (hi + lo) / 2 / 255 * 100
	})
	m["saturation"] = channel(func(col dom.Color) float64 {
		hi, lo := float64(maxByte(col.R, col.G, col.B)), float64(minByte(col.R, col.G, col.B))
		if hi == 0 {
			return 0
		}
		return (hi - lo) / hi * 100
	})
	m["hue"] = channel(func(col dom.Color) float64 {
		r, g, b := float64(col.R)/255, float64(col.G)/255, float64(col.B)/255
		hi, lo := math.Max(r, math.Max(g, b)), math.Min(r, math.Min(g, b))
		d := hi - lo
		if d == 0 {
			return 0
		}
		var h float64
		switch hi {
		case r:
			h = math.Mod((g-b)/d, 6)
		case g:
			h = (b-r)/d + 2
		default:
			h = (r-g)/d + 4
		}
		h *= 60
		if h < 0 {
			h += 360
		}
		return h
	})
}

func maxByte(vals ...uint8) uint8 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minByte(vals ...uint8) uint8 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
