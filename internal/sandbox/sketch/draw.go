package sketch

import (
	"math"

	"github.com/dop251/goja"
)

// affine is a 2D transform (a, b, c, d, e, f) mapping (x, y) to
// (a*x + c*y + e, b*x + d*y + f).
type affine [6]float64

var identity = affine{1, 0, 0, 1, 0, 0}

func (m affine) mul(n affine) affine {
	return affine{
		m[0]*n[0] + m[2]*n[1],
		m[1]*n[0] + m[3]*n[1],
		m[0]*n[2] + m[2]*n[3],
		m[1]*n[2] + m[3]*n[3],
		m[0]*n[4] + m[2]*n[5] + m[4],
		m[1]*n[4] + m[3]*n[5] + m[5],
	}
}

func (m affine) translate(x, y float64) affine { return m.mul(affine{1, 0, 0, 1, x, y}) }
func (m affine) scale(x, y float64) affine     { return m.mul(affine{x, 0, 0, y, 0, 0}) }

func (m affine) rotate(a float64) affine {
	s, c := math.Sin(a), math.Cos(a)
	return m.mul(affine{c, s, -s, c, 0, 0})
}

func (m affine) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

func (c *Context) styleFuncs(m funcMap) {
	m["background"] = func(call goja.FunctionCall) goja.Value {
		if col, ok := c.parseColor(call.Arguments); ok {
			saved := c.st
			c.st.fill, c.st.doFill, c.st.doStroke = col, true, false
			c.st.matrix = identity
			c.record("background", 0, 0, float64(c.width), float64(c.height))
			c.st = saved
		}
		return goja.Undefined()
	}
	m["clear"] = func(goja.FunctionCall) goja.Value {
		c.record("clear", 0, 0, float64(c.width), float64(c.height))
		return goja.Undefined()
	}
	m["fill"] = func(call goja.FunctionCall) goja.Value {
		if col, ok := c.parseColor(call.Arguments); ok {
			c.st.fill, c.st.doFill = col, true
		}
		return goja.Undefined()
	}
	m["noFill"] = func(goja.FunctionCall) goja.Value {
		c.st.doFill = false
		return goja.Undefined()
	}
	m["stroke"] = func(call goja.FunctionCall) goja.Value {
		if col, ok := c.parseColor(call.Arguments); ok {
			c.st.stroke, c.st.doStroke = col, true
		}
		return goja.Undefined()
	}
	m["noStroke"] = func(goja.FunctionCall) goja.Value {
		c.st.doStroke = false
		return goja.Undefined()
	}
	m["strokeWeight"] = func(call goja.FunctionCall) goja.Value {
		c.st.strokeWeight = argOr(call.Arguments, 0, 1)
		return goja.Undefined()
	}
	m["tint"] = func(call goja.FunctionCall) goja.Value {
		if col, ok := c.parseColor(call.Arguments); ok {
			c.st.tint = &col
		}
		return goja.Undefined()
	}
	m["noTint"] = func(goja.FunctionCall) goja.Value {
		c.st.tint = nil
		return goja.Undefined()
	}
	m["erase"] = func(goja.FunctionCall) goja.Value {
		c.st.erasing = true
		return goja.Undefined()
	}
	m["noErase"] = func(goja.FunctionCall) goja.Value {
		c.st.erasing = false
		return goja.Undefined()
	}
	mode := func(set func(string)) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			set(call.Argument(0).String())
			return goja.Undefined()
		}
	}
	m["rectMode"] = mode(func(s string) { c.st.rectMode = s })
	m["ellipseMode"] = mode(func(s string) { c.st.ellipseMode = s })
	m["imageMode"] = mode(func(s string) { c.st.imageMode = s })
	m["angleMode"] = func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return c.vm.ToValue(c.angleMode)
		}
		if s := call.Arguments[0].String(); s == "degrees" || s == "radians" {
			c.angleMode = s
		}
		return goja.Undefined()
	}
	for _, name := range []string{"strokeCap", "strokeJoin", "blendMode", "filter", "drawingContextReset"} {
		m[name] = noop
	}
	m["push"] = func(goja.FunctionCall) goja.Value {
		c.stack = append(c.stack, c.st)
		return goja.Undefined()
	}
	m["pop"] = func(goja.FunctionCall) goja.Value {
		if n := len(c.stack); n > 0 {
			c.st = c.stack[n-1]
			c.stack = c.stack[:n-1]
		}
		return goja.Undefined()
	}
}

// box normalises x, y, w, h for the given mode to a top-left corner box.
func box(mode string, x, y, w, h float64) (float64, float64, float64, float64) {
	switch mode {
	case "center":
		return x - w/2, y - h/2, w, h
	case "radius":
		return x - w, y - h, 2 * w, 2 * h
	case "corners":
		return math.Min(x, w), math.Min(y, h), math.Abs(w - x), math.Abs(h - y)
	default:
		return x, y, w, h
	}
}

func (c *Context) shapeFuncs(m funcMap) {
	m["point"] = func(call goja.FunctionCall) goja.Value {
		if obj, ok := call.Argument(0).(*goja.Object); ok {
			p := c.vectors.load(obj)
			c.record("point", p.x, p.y)
			return goja.Undefined()
		}
		c.record("point", floats(call.Arguments)...)
		return goja.Undefined()
	}
	m["line"] = func(call goja.FunctionCall) goja.Value {
		c.record("line", floats(call.Arguments)...)
		return goja.Undefined()
	}
	m["ellipse"] = func(call goja.FunctionCall) goja.Value {
		w := argOr(call.Arguments, 2, 0)
		h := argOr(call.Arguments, 3, w)
		x, y, w, h := box(c.st.ellipseMode, argOr(call.Arguments, 0, 0), argOr(call.Arguments, 1, 0), w, h)
		c.record("ellipse", x, y, w, h)
		return goja.Undefined()
	}
	m["circle"] = func(call goja.FunctionCall) goja.Value {
		d := argOr(call.Arguments, 2, 0)
		x, y, w, h := box(c.st.ellipseMode, argOr(call.Arguments, 0, 0), argOr(call.Arguments, 1, 0), d, d)
		c.record("ellipse", x, y, w, h)
		return goja.Undefined()
	}
	m["arc"] = func(call goja.FunctionCall) goja.Value {
		x, y, w, h := box(c.st.ellipseMode, argOr(call.Arguments, 0, 0), argOr(call.Arguments, 1, 0), argOr(call.Arguments, 2, 0), argOr(call.Arguments, 3, 0))
		c.record("arc", x, y, w, h, c.toRadians(argOr(call.Arguments, 4, 0)), c.toRadians(argOr(call.Arguments, 5, 0)))
		return goja.Undefined()
	}
	m["rect"] = func(call goja.FunctionCall) goja.Value {
		w := argOr(call.Arguments, 2, 0)
		h := argOr(call.Arguments, 3, w)
		x, y, w, h := box(c.st.rectMode, argOr(call.Arguments, 0, 0), argOr(call.Arguments, 1, 0), w, h)
		c.record("rect", x, y, w, h)
		return goja.Undefined()
	}
	m["square"] = func(call goja.FunctionCall) goja.Value {
		s := argOr(call.Arguments, 2, 0)
		x, y, w, h := box(c.st.rectMode, argOr(call.Arguments, 0, 0), argOr(call.Arguments, 1, 0), s, s)
		c.record("rect", x, y, w, h)
		return goja.Undefined()
	}
	m["triangle"] = func(call goja.FunctionCall) goja.Value {
		c.record("triangle", floats(call.Arguments)...)
		return goja.Undefined()
	}
	m["quad"] = func(call goja.FunctionCall) goja.Value {
		c.record("quad", floats(call.Arguments)...)
		return goja.Undefined()
	}
	m["bezier"] = func(call goja.FunctionCall) goja.Value {
		c.record("bezier", floats(call.Arguments)...)
		return goja.Undefined()
	}
	m["curve"] = func(call goja.FunctionCall) goja.Value {
		c.record("curve", floats(call.Arguments)...)
		return goja.Undefined()
	}
	m["beginShape"] = func(call goja.FunctionCall) goja.Value {
		c.shape = c.shape[:0]
		c.shapeKind = call.Argument(0).String()
		return goja.Undefined()
	}
	vertex := func(call goja.FunctionCall) goja.Value {
		c.shape = append(c.shape, argOr(call.Arguments, 0, 0), argOr(call.Arguments, 1, 0))
		return goja.Undefined()
	}
	m["vertex"] = vertex
	m["curveVertex"] = vertex
	m["bezierVertex"] = func(call goja.FunctionCall) goja.Value {
		c.shape = append(c.shape, argOr(call.Arguments, 4, 0), argOr(call.Arguments, 5, 0))
		return goja.Undefined()
	}
	m["quadraticVertex"] = func(call goja.FunctionCall) goja.Value {
		c.shape = append(c.shape, argOr(call.Arguments, 2, 0), argOr(call.Arguments, 3, 0))
		return goja.Undefined()
	}
	m["beginContour"] = noop
	m["endContour"] = noop
	m["endShape"] = func(call goja.FunctionCall) goja.Value {
		op := "shape"
		if call.Argument(0).String() == "close" {
			op = "closedShape"
		}
		c.record(op, append([]float64(nil), c.shape...)...)
		c.shape = c.shape[:0]
		return goja.Undefined()
	}
}

func (c *Context) transformFuncs(m funcMap) {
	m["translate"] = func(call goja.FunctionCall) goja.Value {
		c.st.matrix = c.st.matrix.translate(argOr(call.Arguments, 0, 0), argOr(call.Arguments, 1, 0))
		return goja.Undefined()
	}
	m["rotate"] = func(call goja.FunctionCall) goja.Value {
		c.st.matrix = c.st.matrix.rotate(c.toRadians(argOr(call.Arguments, 0, 0)))
		return goja.Undefined()
	}
	m["scale"] = func(call goja.FunctionCall) goja.Value {
		sx := argOr(call.Arguments, 0, 1)
		c.st.matrix = c.st.matrix.scale(sx, argOr(call.Arguments, 1, sx))
		return goja.Undefined()
	}
	m["shearX"] = func(call goja.FunctionCall) goja.Value {
		c.st.matrix = c.st.matrix.mul(affine{1, 0, math.Tan(c.toRadians(argOr(call.Arguments, 0, 0))), 1, 0, 0})
		return goja.Undefined()
	}
	m["shearY"] = func(call goja.FunctionCall) goja.Value {
		c.st.matrix = c.st.matrix.mul(affine{1, math.Tan(c.toRadians(argOr(call.Arguments, 0, 0))), 0, 1, 0, 0})
		return goja.Undefined()
	}
	m["applyMatrix"] = func(call goja.FunctionCall) goja.Value {
		var n affine
		for i := range n {
			n[i] = argOr(call.Arguments, i, identity[i])
		}
		c.st.matrix = c.st.matrix.mul(n)
		return goja.Undefined()
	}
	m["resetMatrix"] = func(goja.FunctionCall) goja.Value {
		c.st.matrix = identity
		return goja.Undefined()
	}
}

func (c *Context) textFuncs(m funcMap) {
	m["text"] = func(call goja.FunctionCall) goja.Value {
		if c.canvas == nil {
			return goja.Undefined()
		}
		c.record("text", floats(argSlice(call.Arguments, 1, 5))...)
		return goja.Undefined()
	}
	m["textSize"] = func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return c.vm.ToValue(c.st.textSize)
		}
		c.st.textSize = call.Arguments[0].ToFloat()
		return goja.Undefined()
	}
	m["textAlign"] = func(call goja.FunctionCall) goja.Value {
		c.st.textAlignH = call.Argument(0).String()
		if v := call.Argument(1); !goja.IsUndefined(v) {
			c.st.textAlignV = v.String()
		}
		return goja.Undefined()
	}
	m["textWidth"] = func(call goja.FunctionCall) goja.Value {
		return c.vm.ToValue(float64(len([]rune(call.Argument(0).String()))) * c.st.textSize * 0.5)
	}
	m["textAscent"] = func(goja.FunctionCall) goja.Value { return c.vm.ToValue(c.st.textSize * 0.8) }
	m["textDescent"] = func(goja.FunctionCall) goja.Value { return c.vm.ToValue(c.st.textSize * 0.2) }
	for _, name := range []string{"textFont", "textStyle", "textLeading", "textWrap"} {
		m[name] = noop
	}
	m["loadFont"] = func(goja.FunctionCall) goja.Value { return c.vm.NewObject() }
}

func (c *Context) imageFuncs(m funcMap) {
	m["loadImage"] = func(call goja.FunctionCall) goja.Value {
		img := c.vm.NewObject()
		_ = img.Set("width", 1)
		_ = img.Set("height", 1)
		_ = img.Set("resize", noop)
		_ = img.Set("loadPixels", noop)
		_ = img.Set("updatePixels", noop)
		if cb, ok := goja.AssertFunction(call.Argument(1)); ok {
			_, _ = cb(goja.Undefined(), img)
		}
		return img
	}
	m["image"] = func(call goja.FunctionCall) goja.Value {
		c.record("image", floats(argSlice(call.Arguments, 1, 5))...)
		return goja.Undefined()
	}
	m["createImage"] = func(call goja.FunctionCall) goja.Value {
		img := c.vm.NewObject()
		_ = img.Set("width", argOr(call.Arguments, 0, 1))
		_ = img.Set("height", argOr(call.Arguments, 1, 1))
		_ = img.Set("loadPixels", noop)
		_ = img.Set("updatePixels", noop)
		_ = img.Set("pixels", c.vm.NewArray())
		return img
	}
}

// webglFuncs records 3D primitives drawn on a WEBGL canvas.
func (c *Context) webglFuncs(m funcMap) {
	for _, name := range []string{"box", "sphere", "torus", "cylinder", "cone", "plane", "ellipsoid"} {
		op := name
		m[name] = func(call goja.FunctionCall) goja.Value {
			c.record(op, floats(call.Arguments)...)
			return goja.Undefined()
		}
	}
	axis := func(op string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			c.record(op, c.toRadians(argOr(call.Arguments, 0, 0)))
			return goja.Undefined()
		}
	}
	m["rotateX"] = axis("rotateX")
	m["rotateY"] = axis("rotateY")
	m["rotateZ"] = func(call goja.FunctionCall) goja.Value {
		c.st.matrix = c.st.matrix.rotate(c.toRadians(argOr(call.Arguments, 0, 0)))
		return goja.Undefined()
	}
	for _, name := range []string{
		"orbitControl", "ambientLight", "directionalLight", "pointLight", "spotLight", "lights", "noLights",
		"normalMaterial", "ambientMaterial", "specularMaterial", "emissiveMaterial", "shininess",
		"camera", "perspective", "ortho", "texture", "debugMode", "noDebugMode",
	} {
		m[name] = noop
	}
}

func constants() map[string]interface{} {
	return map[string]interface{}{
		"PI": math.Pi, "TWO_PI": 2 * math.Pi, "HALF_PI": math.Pi / 2, "QUARTER_PI": math.Pi / 4, "TAU": 2 * math.Pi,
		"DEG_TO_RAD": math.Pi / 180, "RAD_TO_DEG": 180 / math.Pi,
		"CENTER": "center", "CORNER": "corner", "CORNERS": "corners", "RADIUS": "radius",
		"LEFT": "left", "RIGHT": "right", "TOP": "top", "BOTTOM": "bottom", "BASELINE": "alphabetic",
		"RGB": modeRGB, "HSB": modeHSB, "HSL": modeHSL,
		"DEGREES": "degrees", "RADIANS": "radians",
		"BLEND": "source-over", "REMOVE": "destination-out", "ADD": "lighter", "DARKEST": "darken",
		"LIGHTEST": "lighten", "DIFFERENCE": "difference", "SUBTRACT": "subtract", "EXCLUSION": "exclusion",
		"MULTIPLY": "multiply", "SCREEN": "screen", "REPLACE": "copy", "OVERLAY": "overlay",
		"HARD_LIGHT": "hard-light", "SOFT_LIGHT": "soft-light", "DODGE": "color-dodge", "BURN": "color-burn",
		"THRESHOLD": "threshold", "GRAY": "gray", "OPAQUE": "opaque", "INVERT": "invert",
		"POSTERIZE": "posterize", "DILATE": "dilate", "ERODE": "erode", "BLUR": "blur",
		"ARROW": "default", "CROSS": "crosshair", "HAND": "pointer", "MOVE": "move", "TEXT": "text", "WAIT": "wait",
		"CLOSE": "close", "OPEN": "open", "CHORD": "chord", "PIE": "pie",
		"PROJECT": "square", "SQUARE": "butt", "ROUND": "round", "MITER": "miter", "BEVEL": "bevel",
		"POINTS": 0x0000, "LINES": 0x0001, "LINE_STRIP": 0x0003, "LINE_LOOP": 0x0002,
		"TRIANGLES": 0x0004, "TRIANGLE_FAN": 0x0006, "TRIANGLE_STRIP": 0x0005,
		"QUADS": "quads", "QUAD_STRIP": "quad_strip", "TESS": "tess",
		"IMMEDIATE": "immediate", "IMAGE": "image", "TEXTURE": "texture",
		"CLAMP": "clamp", "REPEAT": "repeat", "MIRROR": "mirror", "NEAREST": "nearest", "LINEAR": "linear",
		"LANDSCAPE": "landscape", "PORTRAIT": "portrait", "GRID": "grid", "AXES": "axes",
		"NORMAL": "normal", "ITALIC": "italic", "BOLD": "bold", "BOLDITALIC": "bold italic",
		"WORD": "WORD", "CHAR": "CHAR",
		"P2D": "p2d", "WEBGL": "webgl",
		"BACKSPACE": 8, "DELETE": 46, "ENTER": 13, "RETURN": 13, "TAB": 9, "ESCAPE": 27,
		"SHIFT": 16, "CONTROL": 17, "OPTION": 18, "ALT": 18,
		"UP_ARROW": 38, "DOWN_ARROW": 40, "LEFT_ARROW": 37, "RIGHT_ARROW": 39,
	}
}
