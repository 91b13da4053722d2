package dom

import "strconv"

// maxRecentCommands bounds the per-frame command history kept for inspection.
const maxRecentCommands = 64

// Command is one recorded drawing operation.
type Command struct {
	Op     string
	Args   []float64
	Text   string
	Fill   Color
	Stroke Color
	// Matrix is the affine transform (a, b, c, d, e, f) in effect.
	Matrix [6]float64
}

// Canvas is a headless render surface. It records drawing commands instead of
// rasterising them, so callers can assert that something was drawn.
type Canvas struct {
	Width  int
	Height int
	// Context is the rendering context name ("2d" or "webgl").
	Context string

	frames       int
	commands     int
	frameCmds    int
	lastFrameCmd int
	recent       []Command
	contextLost  bool
}

// NewCanvas creates a render surface of the given size.
func NewCanvas(width, height int, context string) *Canvas {
	if context == "" {
		context = "2d"
	}
	return &Canvas{Width: width, Height: height, Context: context}
}

// Record appends a drawing command to the current frame.
func (c *Canvas) Record(cmd Command) {
	if c.contextLost {
		return
	}
	c.commands++
	c.frameCmds++
	if len(c.recent) == maxRecentCommands {
		copy(c.recent, c.recent[1:])
		c.recent = c.recent[:maxRecentCommands-1]
	}
	c.recent = append(c.recent, cmd)
}

// Present closes the current frame.
func (c *Canvas) Present() {
	if c.contextLost {
		return
	}
	c.frames++
	c.lastFrameCmd = c.frameCmds
	c.frameCmds = 0
}

// Resize changes the backing store dimensions.
func (c *Canvas) Resize(width, height int) {
	c.Width = width
	c.Height = height
}

// Frames returns the number of presented frames.
func (c *Canvas) Frames() int { return c.frames }

// Commands returns the total number of recorded commands.
func (c *Canvas) Commands() int { return c.commands }

// LastFrameCommands returns the command count of the last presented frame.
func (c *Canvas) LastFrameCommands() int { return c.lastFrameCmd }

// Recent returns a copy of the most recent commands.
func (c *Canvas) Recent() []Command {
	return append([]Command(nil), c.recent...)
}

// LoseContext marks the surface as released. Later drawing is ignored.
func (c *Canvas) LoseContext() {
	c.contextLost = true
	c.recent = nil
}

// ContextLost reports whether LoseContext was called.
func (c *Canvas) ContextLost() bool { return c.contextLost }

// NewCanvasElement creates a detached canvas element carrying a render surface.
func (d *Document) NewCanvasElement(width, height int, context string) *Element {
	el := d.CreateElement("canvas")
	el.Canvas = NewCanvas(width, height, context)
	el.ClientWidth = width
	el.ClientHeight = height
	el.SetAttribute("width", strconv.Itoa(width))
	el.SetAttribute("height", strconv.Itoa(height))
	return el
}

// Surfaces returns every canvas or svg element below e.
func (e *Element) Surfaces() []*Element {
	var out []*Element
	var walk func(*Element)
	walk = func(n *Element) {
		for _, c := range n.Children {
			if c.TagName == "canvas" || c.TagName == "svg" {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(e)
	return out
}

// HasSurface reports whether a canvas or svg element exists below e.
func (e *Element) HasSurface() bool {
	return len(e.Surfaces()) > 0
}
