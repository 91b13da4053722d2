package dom

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// Transparent is the zero-alpha color.
var Transparent = Color{}

// String returns the color as #rrggbbaa.
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// Hex returns the 24-bit RGB value.
func (c Color) Hex() int {
	return int(c.R)<<16 | int(c.G)<<8 | int(c.B)
}

// FromHex builds an opaque color from a 24-bit RGB value.
func FromHex(hex int) Color {
	return Color{R: uint8(hex >> 16 & 0xff), G: uint8(hex >> 8 & 0xff), B: uint8(hex & 0xff), A: 255}
}

// RGBA builds a color from float channels in [0,255], clamping out-of-range values.
func RGBA(r, g, b, a float64) Color {
	return Color{R: clampByte(r), G: clampByte(g), B: clampByte(b), A: clampByte(a)}
}

// HSBA converts hue [0,360), saturation, brightness and alpha in [0,100] to RGBA.
func HSBA(h, s, v, a float64) Color {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s = clampUnit(s / 100)
	v = clampUnit(v / 100)
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return RGBA((r+m)*255, (g+m)*255, (b+m)*255, clampUnit(a/100)*255)
}

// HSLA converts hue [0,360), saturation, lightness and alpha in [0,100] to RGBA.
func HSLA(h, s, l, a float64) Color {
	s = clampUnit(s / 100)
	l = clampUnit(l / 100)
	v := l + s*math.Min(l, 1-l)
	sv := 0.0
	if v > 0 {
		sv = 2 * (1 - l/v)
	}
	return HSBA(h, sv*100, v*100, a)
}

// Lerp interpolates between two colors.
func Lerp(from, to Color, t float64) Color {
	t = clampUnit(t)
	mix := func(a, b uint8) float64 { return float64(a) + (float64(b)-float64(a))*t }
	return RGBA(mix(from.R, to.R), mix(from.G, to.G), mix(from.B, to.B), mix(from.A, to.A))
}

var namedColors = map[string]int{
	"black":   0x000000,
	"white":   0xffffff,
	"red":     0xff0000,
	"green":   0x008000,
	"lime":    0x00ff00,
	"blue":    0x0000ff,
	"yellow":  0xffff00,
	"orange":  0xffa500,
	"purple":  0x800080,
	"pink":    0xffc0cb,
	"gray":    0x808080,
	"grey":    0x808080,
	"cyan":    0x00ffff,
	"magenta": 0xff00ff,
	"brown":   0xa52a2a,
	"navy":    0x000080,
	"teal":    0x008080,
	"gold":    0xffd700,
	"skyblue": 0x87ceeb,
	"violet":  0xee82ee,
	"indigo":  0x4b0082,
	"coral":   0xff7f50,
	"salmon":  0xfa8072,
	"silver":  0xc0c0c0,
	"maroon":  0x800000,
	"olive":   0x808000,
}

// ParseColor parses CSS-style color strings: names, #rgb, #rrggbb, #rrggbbaa,
// rgb()/rgba() and hsl()/hsla().
func ParseColor(s string) (Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "transparent" {
		return Transparent, true
	}
	if hex, ok := namedColors[s]; ok {
		return FromHex(hex), true
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	if strings.HasPrefix(s, "0x") {
		v, err := strconv.ParseInt(s[2:], 16, 64)
		if err != nil {
			return Color{}, false
		}
		return FromHex(int(v)), true
	}
	if open := strings.IndexByte(s, '('); open > 0 && strings.HasSuffix(s, ")") {
		fn := s[:open]
		parts := strings.FieldsFunc(s[open+1:len(s)-1], func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
		if len(parts) < 3 {
			return Color{}, false
		}
		vals := make([]float64, 4)
		vals[3] = 1
		for i := 0; i < len(parts) && i < 4; i++ {
			p := parts[i]
			pct := strings.HasSuffix(p, "%")
			v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSuffix(p, "%"), "deg"), 64)
			if err != nil {
				return Color{}, false
			}
			if pct && i < 3 && (fn == "rgb" || fn == "rgba") {
				v = v * 255 / 100
			}
			if pct && i == 3 {
				v /= 100
			}
			vals[i] = v
		}
		switch fn {
		case "rgb", "rgba":
			return RGBA(vals[0], vals[1], vals[2], vals[3]*255), true
		case "hsl", "hsla":
			return HSLA(vals[0], vals[1], vals[2], vals[3]*100), true
		case "hsb", "hsba":
			return HSBA(vals[0], vals[1], vals[2], vals[3]*100), true
		}
	}
	return Color{}, false
}

func parseHex(h string) (Color, bool) {
	switch len(h) {
	case 3, 4:
		var b strings.Builder
		for _, r := range h {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		h = b.String()
	case 6, 8:
	default:
		return Color{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, false
	}
	if len(h) == 6 {
		return FromHex(int(v)), true
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}

func clampByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
