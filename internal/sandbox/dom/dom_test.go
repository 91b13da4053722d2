package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentQuery(t *testing.T) {
	doc := NewDocument()
	mount := doc.CreateMount("stage", 400, 300)
	child := doc.CreateElement("div")
	child.ClassName = "panel wide"
	mount.AppendChild(child)
	canvas := doc.NewCanvasElement(100, 100, "")
	child.AppendChild(canvas)

	tests := []struct {
		name     string
		selector string
		want     []*Element
	}{
		{"by id", "#stage", []*Element{mount}},
		{"by class", ".wide", []*Element{child}},
		{"by tag", "canvas", []*Element{canvas}},
		{"missing id", "#nope", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, doc.Query(tt.selector))
		})
	}

	assert.Same(t, mount, doc.GetElementByID("stage"))
	assert.Same(t, canvas, mount.QuerySelector("canvas"))
}

func TestElementTree(t *testing.T) {
	doc := NewDocument()
	a := doc.CreateMount("a", 10, 10)
	b := doc.CreateMount("b", 10, 10)
	el := doc.CreateElement("canvas")

	a.AppendChild(el)
	assert.True(t, el.Attached())
	assert.True(t, a.Contains(el))

	b.AppendChild(el)
	assert.Empty(t, a.Children, "append moves the element")
	assert.Same(t, b, el.Parent)

	b.Clear()
	assert.False(t, el.Attached())
	assert.Nil(t, el.Parent)

	detached := doc.CreateElement("div")
	assert.False(t, detached.Attached())
}

func TestSurfaces(t *testing.T) {
	doc := NewDocument()
	mount := doc.CreateMount("m", 10, 10)
	assert.False(t, mount.HasSurface())

	wrapper := doc.CreateElement("div")
	wrapper.AppendChild(doc.CreateElement("svg"))
	mount.AppendChild(wrapper)
	assert.True(t, mount.HasSurface())
	assert.Len(t, mount.Surfaces(), 1)
}

func TestNextID(t *testing.T) {
	doc := NewDocument()
	assert.Equal(t, "sketch-1", doc.NextID("sketch"))
	assert.Equal(t, "sketch-2", doc.NextID("sketch"))
}

func TestCanvasRecording(t *testing.T) {
	c := NewCanvas(50, 50, "")
	assert.Equal(t, "2d", c.Context)

	for i := 0; i < maxRecentCommands+10; i++ {
		c.Record(Command{Op: "rect"})
	}
	c.Present()

	assert.Equal(t, 1, c.Frames())
	assert.Equal(t, maxRecentCommands+10, c.Commands())
	assert.Equal(t, maxRecentCommands+10, c.LastFrameCommands())
	assert.Len(t, c.Recent(), maxRecentCommands)

	c.LoseContext()
	c.Record(Command{Op: "rect"})
	c.Present()
	assert.True(t, c.ContextLost())
	assert.Equal(t, 1, c.Frames())
}

func TestWindowListeners(t *testing.T) {
	w := NewWindow(800, 600)
	var got []string

	first := w.AddEventListener(EventResize, func(Event) { got = append(got, "first") })
	w.AddEventListener(EventResize, func(Event) {
		got = append(got, "second")
		w.RemoveEventListener(first)
	})

	w.Resize(640, 480)
	w.Resize(320, 240)

	assert.Equal(t, []string{"first", "second", "second"}, got)
	assert.Equal(t, 320, w.InnerWidth)
	assert.Equal(t, 1, w.ListenerCount(EventResize))
	assert.False(t, w.RemoveEventListener(first))
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
		ok   bool
	}{
		{"red", Color{255, 0, 0, 255}, true},
		{"#0f0", Color{0, 255, 0, 255}, true},
		{"#0000ff", Color{0, 0, 255, 255}, true},
		{"#ff000080", Color{255, 0, 0, 128}, true},
		{"rgb(10, 20, 30)", Color{10, 20, 30, 255}, true},
		{"rgba(10,20,30,0.5)", Color{10, 20, 30, 128}, true},
		{"hsl(0, 100%, 50%)", Color{255, 0, 0, 255}, true},
		{"transparent", Transparent, true},
		{"0xffffff", Color{255, 255, 255, 255}, true},
		{"#12", Color{}, false},
		{"nope", Color{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseColor(tt.in)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColorConversions(t *testing.T) {
	assert.Equal(t, Color{0, 0, 255, 255}, HSBA(240, 100, 100, 100))
	assert.Equal(t, 0x336699, FromHex(0x336699).Hex())
	assert.Equal(t, Color{128, 128, 128, 255}, Lerp(Color{0, 0, 0, 255}, Color{255, 255, 255, 255}, 0.5))
	assert.Equal(t, "#ff000080", Color{255, 0, 0, 128}.String())
}
