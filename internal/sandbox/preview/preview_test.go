package preview

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox"
)

func testConfig() Config {
	return Config{ExecTimeout: 500 * time.Millisecond, Seed: 1, Width: 400, Height: 300}
}

const circles = `
function setup() { createCanvas(200, 200); }
function draw() {
  background(0);
  ellipse(frameCount % 200, 100, 20, 20);
}
`

const cube = `
const scene = new THREE.Scene();
const camera = new THREE.PerspectiveCamera(75, 1, 0.1, 1000);
const renderer = new THREE.WebGLRenderer();
renderer.setSize(300, 300);
document.getElementById('animation-container').appendChild(renderer.domElement);
const cube = new THREE.Mesh(new THREE.BoxGeometry(1, 1, 1), new THREE.MeshBasicMaterial({ color: 0x00ff00 }));
scene.add(cube);
camera.position.z = 5;
function animate() {
  requestAnimationFrame(animate);
  cube.rotation.x += 0.01;
  renderer.render(scene, camera);
}
animate();
`

func TestHarnessRun(t *testing.T) {
	tests := []struct {
		name      string
		req       Request
		kind      string
		outcome   string
		errPrefix string
	}{
		{
			name:    "sketch",
			req:     Request{Source: circles, Frames: 90},
			kind:    "sketch",
			outcome: sandbox.OutcomeLive,
		},
		{
			name:    "self managed scene",
			req:     Request{Source: cube, Frames: 90},
			kind:    "scene",
			outcome: sandbox.OutcomeLive,
		},
		{
			name:      "throwing draw",
			req:       Request{Source: `function setup(){createCanvas(10,10)} function draw(){ undefinedFn() }`, Frames: 5},
			kind:      "sketch",
			outcome:   sandbox.OutcomeError,
			errPrefix: "Error in animation frame",
		},
		{
			name:      "syntax error",
			req:       Request{Source: `function setup( {`, Kind: "sketch", Frames: 5},
			kind:      "sketch",
			outcome:   sandbox.OutcomeError,
			errPrefix: "Error in animation code:",
		},
		{
			name:      "malformed wrapper",
			req:       Request{Source: `new p5(function(p) { p.setup = function() {`, Frames: 5},
			kind:      "sketch",
			outcome:   sandbox.OutcomeMalformed,
			errPrefix: "Malformed animation code:",
		},
	}

	h := NewHarness(testConfig(), nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.Run(context.Background(), tt.req)
			require.NoError(t, err)
			assert.NotEmpty(t, res.ID)
			assert.Equal(t, tt.kind, res.Kind)
			assert.Equal(t, tt.outcome, res.Outcome)
			if tt.errPrefix == "" {
				assert.Empty(t, res.Errors)
				require.NotNil(t, res.Surface)
				assert.Positive(t, res.Surface.Frames)
				assert.Equal(t, tt.req.Frames, res.Frames)
				assert.Equal(t, res.Frames, res.FrameTime.Count)
				return
			}
			require.NotEmpty(t, res.Errors)
			assert.Contains(t, res.Errors[0], tt.errPrefix)
		})
	}
}

func TestHarnessRejectsTooManyFrames(t *testing.T) {
	h := NewHarness(testConfig(), nil, nil)
	_, err := h.Run(context.Background(), Request{Source: circles, Frames: MaxFrames + 1})
	assert.ErrorContains(t, err, "frames must be at most")
}

func TestHarnessCanceledContextTruncates(t *testing.T) {
	h := NewHarness(testConfig(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := h.Run(ctx, Request{Source: circles, Frames: 30})
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Zero(t, res.Frames)
}

func TestHarnessCapturesConsole(t *testing.T) {
	h := NewHarness(testConfig(), nil, nil)
	res, err := h.Run(context.Background(), Request{
		Source: `console.log("hello"); function setup(){ createCanvas(10,10) }`,
		Frames: 2,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Console)
	assert.Equal(t, "hello", res.Console[0].Message)
}

func TestSessionReplacesPrograms(t *testing.T) {
	s := NewSession(testConfig(), 0, 0, nil, nil)
	defer s.Close()

	kind, errs := s.Load("", cube)
	assert.Equal(t, sandbox.KindScene, kind)
	assert.Empty(t, errs)
	for range 3 {
		s.Step()
	}
	assert.Positive(t, s.GPUResources())

	kind, errs = s.Load("sketch", circles)
	assert.Equal(t, sandbox.KindSketch, kind)
	assert.Empty(t, errs)
	assert.Zero(t, s.GPUResources(), "the scene is torn down when a sketch replaces it")

	var last Tick
	for range 40 {
		last = s.Step()
	}
	assert.Equal(t, sandbox.StateLive, s.State())
	assert.Positive(t, last.Presented)
	assert.Positive(t, last.Commands)
}

func TestSessionStepReportsNewErrorsOnce(t *testing.T) {
	s := NewSession(testConfig(), 0, 0, nil, nil)
	defer s.Close()

	s.Load("", `let n = 0; function setup(){ createCanvas(10,10) } function draw(){ n++; if (n == 2) throw new Error("two") }`)
	var withErrors int
	for range 5 {
		if tick := s.Step(); len(tick.Errors) > 0 {
			withErrors++
			assert.Contains(t, tick.Errors[0], "two")
		}
	}
	assert.Equal(t, 1, withErrors)
	assert.Len(t, s.Errors(), 1)
}

func TestSessionClosed(t *testing.T) {
	s := NewSession(testConfig(), 0, 0, nil, nil)
	s.Close()
	s.Close()

	_, errs := s.Load("", circles)
	assert.Equal(t, []string{ErrSessionClosed.Error()}, errs)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, FrameStats{}, Summarize(nil))

	fs := Summarize([]float64{4, 1, 3, 2})
	assert.Equal(t, 4, fs.Count)
	assert.InDelta(t, 2.5, fs.Mean, 1e-9)
	assert.Equal(t, 4.0, fs.Max)
	assert.Equal(t, 2.0, fs.P50)
	assert.Equal(t, 4.0, fs.P95)
	assert.Positive(t, fs.StdDev)

	one := Summarize([]float64{7})
	assert.Zero(t, one.StdDev)
	assert.Equal(t, 7.0, one.P50)
}
