package sketch

import (
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/dop251/goja"
)

func (c *Context) toRadians(a float64) float64 {
	if c.angleMode == "degrees" {
		return a * math.Pi / 180
	}
	return a
}

func (c *Context) fromRadians(a float64) float64 {
	if c.angleMode == "degrees" {
		return a * 180 / math.Pi
	}
	return a
}

func (c *Context) calcFuncs(m funcMap) {
	unary := func(fn func(float64) float64) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			return c.vm.ToValue(fn(argOr(call.Arguments, 0, math.NaN())))
		}
	}
	m["abs"] = unary(math.Abs)
	m["ceil"] = unary(math.Ceil)
	m["floor"] = unary(math.Floor)
	m["sqrt"] = unary(math.Sqrt)
	m["exp"] = unary(math.Exp)
	m["log"] = unary(math.Log)
	m["sq"] = unary(func(v float64) float64 { return v * v })
	m["fract"] = unary(func(v float64) float64 { return v - math.Floor(v) })
	m["radians"] = unary(func(v float64) float64 { return v * math.Pi / 180 })
	m["degrees"] = unary(func(v float64) float64 { return v * 180 / math.Pi })
	m["sin"] = unary(func(v float64) float64 { return math.Sin(c.toRadians(v)) })
	m["cos"] = unary(func(v float64) float64 { return math.Cos(c.toRadians(v)) })
	m["tan"] = unary(func(v float64) float64 { return math.Tan(c.toRadians(v)) })
	m["asin"] = unary(func(v float64) float64 { return c.fromRadians(math.Asin(v)) })
	m["acos"] = unary(func(v float64) float64 { return c.fromRadians(math.Acos(v)) })
	m["atan"] = unary(func(v float64) float64 { return c.fromRadians(math.Atan(v)) })
	m["atan2"] = func(call goja.FunctionCall) goja.Value {
		return c.vm.ToValue(c.fromRadians(math.Atan2(argOr(call.Arguments, 0, 0), argOr(call.Arguments, 1, 0))))
	}
	m["pow"] = func(call goja.FunctionCall) goja.Value {
		return c.vm.ToValue(math.Pow(argOr(call.Arguments, 0, 0), argOr(call.Arguments, 1, 1)))
	}
	m["round"] = func(call goja.FunctionCall) goja.Value {
		v := argOr(call.Arguments, 0, 0)
		digits := argOr(call.Arguments, 1, 0)
		p := math.Pow(10, digits)
		return c.vm.ToValue(math.Floor(v*p+0.5) / p)
	}
	m["min"] = func(call goja.FunctionCall) goja.Value { return c.vm.ToValue(extreme(c.numbers(call), math.Min, math.Inf(1))) }
	m["max"] = func(call goja.FunctionCall) goja.Value { return c.vm.ToValue(extreme(c.numbers(call), math.Max, math.Inf(-1))) }
	m["constrain"] = func(call goja.FunctionCall) goja.Value {
		return c.vm.ToValue(constrain(argOr(call.Arguments, 0, 0), argOr(call.Arguments, 1, 0), argOr(call.Arguments, 2, 0)))
	}
	m["map"] = func(call goja.FunctionCall) goja.Value {
		v := argOr(call.Arguments, 0, 0)
		s1, e1 := argOr(call.Arguments, 1, 0), argOr(call.Arguments, 2, 1)
		s2, e2 := argOr(call.Arguments, 3, 0), argOr(call.Arguments, 4, 1)
		out := s2 + (v-s1)/(e1-s1)*(e2-s2)
		if call.Argument(5).ToBoolean() {
			if s2 < e2 {
				out = constrain(out, s2, e2)
			} else {
				out = constrain(out, e2, s2)
			}
		}
		return c.vm.ToValue(out)
	}
	m["lerp"] = func(call goja.FunctionCall) goja.Value {
		a, b := argOr(call.Arguments, 0, 0), argOr(call.Arguments, 1, 0)
		return c.vm.ToValue(a + (b-a)*argOr(call.Arguments, 2, 0))
	}
	m["norm"] = func(call goja.FunctionCall) goja.Value {
		v, lo, hi := argOr(call.Arguments, 0, 0), argOr(call.Arguments, 1, 0), argOr(call.Arguments, 2, 1)
		return c.vm.ToValue((v - lo) / (hi - lo))
	}
	m["dist"] = func(call goja.FunctionCall) goja.Value {
		n := floats(call.Arguments)
		switch {
		case len(n) >= 6:
			return c.vm.ToValue(math.Sqrt(sq(n[3]-n[0]) + sq(n[4]-n[1]) + sq(n[5]-n[2])))
		case len(n) >= 4:
			return c.vm.ToValue(math.Hypot(n[2]-n[0], n[3]-n[1]))
		}
		return c.vm.ToValue(math.NaN())
	}
	m["mag"] = func(call goja.FunctionCall) goja.Value {
		n := floats(call.Arguments)
		var sum float64
		for _, v := range n {
			sum += v * v
		}
		return c.vm.ToValue(math.Sqrt(sum))
	}

	m["random"] = c.random
	m["randomSeed"] = func(call goja.FunctionCall) goja.Value {
		c.rng.Seed(int64(argOr(call.Arguments, 0, 0)))
		c.gaussNext = nil
		return goja.Undefined()
	}
	m["randomGaussian"] = func(call goja.FunctionCall) goja.Value {
		mean, sd := argOr(call.Arguments, 0, 0), argOr(call.Arguments, 1, 1)
		return c.vm.ToValue(mean + c.rng.NormFloat64()*sd)
	}
	m["noise"] = func(call goja.FunctionCall) goja.Value {
		return c.vm.ToValue(c.noise.at(argOr(call.Arguments, 0, 0), argOr(call.Arguments, 1, 0), argOr(call.Arguments, 2, 0)))
	}
	m["noiseSeed"] = func(call goja.FunctionCall) goja.Value {
		c.noise = newPerlin(rand.New(rand.NewSource(int64(argOr(call.Arguments, 0, 0)))))
		return goja.Undefined()
	}
	m["noiseDetail"] = func(call goja.FunctionCall) goja.Value {
		if lod := int(argOr(call.Arguments, 0, 0)); lod > 0 {
			c.noise.octaves = lod
		}
		if f := argOr(call.Arguments, 1, 0); f > 0 {
			c.noise.falloff = f
		}
		return goja.Undefined()
	}
	m["createVector"] = func(call goja.FunctionCall) goja.Value {
		return c.vectors.make(vec{argOr(call.Arguments, 0, 0), argOr(call.Arguments, 1, 0), argOr(call.Arguments, 2, 0)})
	}

	m["int"] = func(call goja.FunctionCall) goja.Value {
		v := call.Argument(0)
		if s, ok := v.Export().(string); ok {
			n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return c.vm.ToValue(math.NaN())
			}
			return c.vm.ToValue(math.Trunc(n))
		}
		if b, ok := v.Export().(bool); ok {
			if b {
				return c.vm.ToValue(1)
			}
			return c.vm.ToValue(0)
		}
		return c.vm.ToValue(math.Trunc(v.ToFloat()))
	}
	m["float"] = func(call goja.FunctionCall) goja.Value { return c.vm.ToValue(call.Argument(0).ToFloat()) }
	m["str"] = func(call goja.FunctionCall) goja.Value { return c.vm.ToValue(call.Argument(0).String()) }
	m["boolean"] = func(call goja.FunctionCall) goja.Value { return c.vm.ToValue(call.Argument(0).ToBoolean()) }
	m["nf"] = func(call goja.FunctionCall) goja.Value {
		return c.vm.ToValue(nf(argOr(call.Arguments, 0, 0), int(argOr(call.Arguments, 1, 0)), int(argOr(call.Arguments, 2, -1))))
	}
	m["shuffle"] = func(call goja.FunctionCall) goja.Value {
		arr, ok := call.Argument(0).Export().([]interface{})
		if !ok {
			return call.Argument(0)
		}
		out := append([]interface{}(nil), arr...)
		c.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return c.vm.NewArray(out...)
	}
}

// random implements random(), random(max), random(min, max) and random(array).
func (c *Context) random(call goja.FunctionCall) goja.Value {
	r := c.rng.Float64()
	if len(call.Arguments) == 0 {
		return c.vm.ToValue(r)
	}
	if obj, ok := call.Arguments[0].(*goja.Object); ok {
		if arr, ok := obj.Export().([]interface{}); ok {
			if len(arr) == 0 {
				return goja.Undefined()
			}
			return c.vm.ToValue(arr[int(r*float64(len(arr)))])
		}
	}
	lo, hi := 0.0, call.Arguments[0].ToFloat()
	if len(call.Arguments) > 1 {
		lo, hi = hi, call.Arguments[1].ToFloat()
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return c.vm.ToValue(lo + r*(hi-lo))
}

func (c *Context) numbers(call goja.FunctionCall) []float64 {
	if len(call.Arguments) == 1 {
		if arr, ok := call.Arguments[0].Export().([]interface{}); ok {
			out := make([]float64, len(arr))
			for i, v := range arr {
				out[i] = c.vm.ToValue(v).ToFloat()
			}
			return out
		}
	}
	return floats(call.Arguments)
}

func extreme(vals []float64, pick func(a, b float64) float64, start float64) float64 {
	out := start
	for _, v := range vals {
		out = pick(out, v)
	}
	return out
}

func constrain(v, lo, hi float64) float64 {
	return math.Max(math.Min(v, hi), lo)
}

func sq(v float64) float64 { return v * v }

func nf(v float64, left, right int) string {
	var s string
	if right >= 0 {
		s = strconv.FormatFloat(math.Abs(v), 'f', right, 64)
	} else {
		s = strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
	}
	intPart := s
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart = s[:dot]
	}
	if pad := left - len(intPart); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	if v < 0 {
		s = "-" + s
	}
	return s
}

const (
	perlinYWrapB = 4
	perlinYWrap  = 1 << perlinYWrapB
	perlinZWrapB = 8
	perlinZWrap  = 1 << perlinZWrapB
	perlinSize   = 4095
)

// perlin is the value-noise generator p5 exposes as noise(): a lattice of
// random values blended with a cosine curve over several octaves.
type perlin struct {
	table   []float64
	octaves int
	falloff float64
}

func newPerlin(r *rand.Rand) *perlin {
	p := &perlin{table: make([]float64, perlinSize+1), octaves: 4, falloff: 0.5}
	for i := range p.table {
		p.table[i] = r.Float64()
	}
	return p
}

func scaledCosine(i float64) float64 {
	return 0.5 * (1 - math.Cos(i*math.Pi))
}

func (p *perlin) at(x, y, z float64) float64 {
	x, y, z = math.Abs(x), math.Abs(y), math.Abs(z)
	xi, yi, zi := int(x), int(y), int(z)
	xf, yf, zf := x-float64(xi), y-float64(yi), z-float64(zi)

	var r float64
	ampl := 0.5
	for o := 0; o < p.octaves; o++ {
		of := xi + (yi << perlinYWrapB) + (zi << perlinZWrapB)
		rxf, ryf := scaledCosine(xf), scaledCosine(yf)

		n1 := p.table[of&perlinSize]
		n1 += rxf * (p.table[(of+1)&perlinSize] - n1)
		n2 := p.table[(of+perlinYWrap)&perlinSize]
		n2 += rxf * (p.table[(of+perlinYWrap+1)&perlinSize] - n2)
		n1 += ryf * (n2 - n1)

		of += perlinZWrap
		n2 = p.table[of&perlinSize]
		n2 += rxf * (p.table[(of+1)&perlinSize] - n2)
		n3 := p.table[(of+perlinYWrap)&perlinSize]
		n3 += rxf * (p.table[(of+perlinYWrap+1)&perlinSize] - n3)
		n2 += ryf * (n3 - n2)

		n1 += scaledCosine(zf) * (n2 - n1)
		r += n1 * ampl
		ampl *= p.falloff

		xi <<= 1
		xf *= 2
		yi <<= 1
		yf *= 2
		zi <<= 1
		zf *= 2
		if xf >= 1 {
			xi++
			xf--
		}
		if yf >= 1 {
			yi++
			yf--
		}
		if zf >= 1 {
			zi++
			zf--
		}
	}
	return r
}

