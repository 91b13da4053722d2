package sketch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox"
)

func TestUnwrapRawProgram(t *testing.T) {
	src := "function setup(){ createCanvas(100, 100); }\nfunction draw(){ background(0); }"
	prog, err := Unwrap(src)
	require.NoError(t, err)
	assert.False(t, prog.Wrapped)
	assert.Equal(t, rawParam, prog.Param)
	assert.Equal(t, src, prog.Body)
}

func TestUnwrapWrappedProgram(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		param    string
		contains []string
		excludes []string
	}{
		{
			name:     "function expression",
			src:      "new p5(function(p) { p.setup = function() { p.createCanvas(10, 10); }; });",
			param:    "p",
			contains: []string{"p.setup = function()"},
			excludes: []string{"new p5"},
		},
		{
			name:     "arrow function",
			src:      "new p5((s) => { s.draw = () => {}; });",
			param:    "s",
			contains: []string{"s.draw = () => {}"},
		},
		{
			name:     "assigned with container argument",
			src:      "const sketch = new p5(function(p) { p.setup = function(){}; }, 'app');",
			param:    "p",
			contains: []string{"p.setup = function(){}"},
			excludes: []string{"const sketch", "'app'"},
		},
		{
			name:     "braces inside strings and comments",
			src:      "new p5(function(p) { const s = '}'; /* } */ p.draw = function(){ p.text(`}${1}`, 0, 0); }; });",
			param:    "p",
			contains: []string{"p.draw = function(){ p.text(`}${1}`, 0, 0); }"},
		},
		{
			name:     "code around the constructor is kept",
			src:      "let speed = 2;\nnew p5(function(p) { p.draw = function(){}; });\nconsole.log('after');",
			param:    "p",
			contains: []string{"let speed = 2;", "console.log('after');"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Unwrap(tt.src)
			require.NoError(t, err)
			assert.True(t, prog.Wrapped)
			assert.Equal(t, tt.param, prog.Param)
			for _, s := range tt.contains {
				assert.Contains(t, prog.Body, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, prog.Body, s)
			}
		})
	}
}

func TestUnwrapIgnoresConstructorInStrings(t *testing.T) {
	src := "// new p5(function(p) {\nconst s = 'new p5(';\nfunction draw(){}"
	prog, err := Unwrap(src)
	require.NoError(t, err)
	assert.False(t, prog.Wrapped)
}

func TestUnwrapNamedSketchRunsNatively(t *testing.T) {
	src := "const sketch = (p) => { p.setup = () => {}; };\nnew p5(sketch);"
	prog, err := Unwrap(src)
	require.NoError(t, err)
	assert.False(t, prog.Wrapped)
	assert.Equal(t, src, prog.Body)
}

func TestUnwrapMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unterminated body", "new p5(function(p) { p.setup = function() {};"},
		{"missing parenthesis", "new p5(function(p) { p.setup = function() {}; };"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unwrap(tt.src)
			require.Error(t, err)
			var malformed *sandbox.MalformedSourceError
			assert.ErrorAs(t, err, &malformed)
			assert.Contains(t, err.Error(), "Malformed animation code: ")
		})
	}
}
