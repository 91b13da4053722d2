package preview

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox"
)

// Request is one batch preview.
type Request struct {
	Source string
	// Kind is "sketch", "scene" or empty to detect.
	Kind   string
	Frames int
	Width  int
	Height int
}

// Surface describes the render surface a program created.
type Surface struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Context  string `json:"context"`
	Frames   int    `json:"frames"`
	Commands int    `json:"commands"`
}

// ConsoleLine is one captured console call.
type ConsoleLine struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Result is the outcome of a batch preview.
type Result struct {
	ID           string        `json:"id"`
	Kind         string        `json:"kind"`
	Outcome      string        `json:"outcome"`
	State        string        `json:"state"`
	Errors       []string      `json:"errors"`
	Frames       int           `json:"frames"`
	Surface      *Surface      `json:"surface,omitempty"`
	GPUResources int           `json:"gpu_resources"`
	Console      []ConsoleLine `json:"console,omitempty"`
	FrameTime    FrameStats    `json:"frame_time"`
	Truncated    bool          `json:"truncated,omitempty"`
	Elapsed      time.Duration `json:"-"`
}

// Harness runs programs for a fixed number of frames on a fresh page each
// time, so concurrent previews never share a realm. At most MaxParallel run
// at once.
type Harness struct {
	cfg     Config
	pool    *Pool
	log     *logging.Logger
	metrics sandbox.Recorder
}

// NewHarness creates a harness.
func NewHarness(cfg Config, log *logging.Logger, metrics sandbox.Recorder) *Harness {
	cfg = cfg.withDefaults()
	return &Harness{
		cfg:     cfg,
		pool:    NewPool(cfg.MaxParallel, cfg.QueueTimeout),
		log:     logging.OrNop(log),
		metrics: metrics,
	}
}

// Stats reports slot usage.
func (h *Harness) Stats() PoolStats {
	return h.pool.Stats()
}

// Close stops accepting previews.
func (h *Harness) Close() {
	h.pool.Close()
}

// Run executes req and steps it frame by frame. Cancelling ctx or reaching
// MaxDuration stops stepping early and marks the result truncated.
func (h *Harness) Run(ctx context.Context, req Request) (*Result, error) {
	frames := req.Frames
	if frames <= 0 {
		frames = DefaultFrames
	}
	if frames > MaxFrames {
		return nil, fmt.Errorf("frames must be at most %d, got %d", MaxFrames, frames)
	}

	release, err := h.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, h.cfg.MaxDuration)
	defer cancel()

	start := time.Now()
	s := NewSession(h.cfg, req.Width, req.Height, h.log, h.metrics)
	defer s.Close()

	kind, _ := s.Load(req.Kind, req.Source)
	res := &Result{ID: s.ID, Kind: kind.String()}

	costs := make([]float64, 0, frames)
	if s.State() != sandbox.StateError {
		for i := 0; i < frames; i++ {
			if ctx.Err() != nil {
				res.Truncated = true
				break
			}
			t := s.Step()
			costs = append(costs, float64(t.Cost)/float64(time.Millisecond))
			res.Frames++
		}
	}

	res.Outcome = s.Outcome()
	res.State = s.State().String()
	res.Errors = s.Errors()
	res.GPUResources = s.GPUResources()
	res.FrameTime = Summarize(costs)
	if c := s.Surface(); c != nil {
		res.Surface = &Surface{
			Width:    c.Width,
			Height:   c.Height,
			Context:  c.Context,
			Frames:   c.Frames(),
			Commands: c.Commands(),
		}
	}
	for _, e := range s.Console() {
		res.Console = append(res.Console, ConsoleLine{Level: e.Level, Message: e.Message})
	}
	res.Elapsed = time.Since(start)

	h.log.Info("Preview finished",
		zap.String("preview_id", res.ID),
		zap.String("kind", res.Kind),
		zap.String("outcome", res.Outcome),
		zap.Int("frames", res.Frames),
		zap.Int("errors", len(res.Errors)),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}
