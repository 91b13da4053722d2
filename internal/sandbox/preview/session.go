package preview

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/dom"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/host"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/scene"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/sketch"
)

// Tick describes one stepped frame of a session.
type Tick struct {
	Frame     uint64   `json:"frame"`
	Millis    float64  `json:"millis"`
	Presented int      `json:"presented"`
	Commands  int      `json:"commands"`
	Errors    []string `json:"errors,omitempty"`
	// Cost is the wall time the step took on the host.
	Cost time.Duration `json:"-"`
}

// Session is one headless page with both runners installed. Programs loaded
// into a session replace each other the same way they would in a browser tab.
// A session is not safe for concurrent use.
type Session struct {
	ID string

	cfg    Config
	log    *logging.Logger
	page   *host.Page
	env    *sandbox.Env
	sketch *sketch.Runner
	scene  *scene.Runner
	sw     *sandbox.Switch
	mount  *dom.Element

	kind    sandbox.Kind
	errors  []string
	pending []string
	closed  bool
}

// NewSession creates a page sized width by height. Zero dimensions use the
// configured mount size.
func NewSession(cfg Config, width, height int, log *logging.Logger, metrics sandbox.Recorder) *Session {
	cfg = cfg.withDefaults()
	if width <= 0 || height <= 0 {
		width, height = cfg.Width, cfg.Height
	}
	log = logging.OrNop(log)

	pageCfg := host.DefaultPageConfig()
	pageCfg.Realm.ExecTimeout = cfg.ExecTimeout
	page := host.NewPage(pageCfg, log)
	env := sandbox.NewEnv(page, log, metrics)

	sk := sketch.New(env, sketch.Options{SettleDelay: cfg.Settle2D, Seed: cfg.Seed})
	sc := scene.New(env, scene.Options{
		SettleDelay:    cfg.Settle3D,
		FallbackWidth:  width,
		FallbackHeight: height,
		Seed:           cfg.Seed,
	})

	s := &Session{
		ID:     uuid.NewString(),
		cfg:    cfg,
		log:    log,
		page:   page,
		env:    env,
		sketch: sk,
		scene:  sc,
		sw:     sandbox.NewSwitch(env, sk, sc),
		mount:  page.Document.CreateMount("", width, height),
	}
	s.log.Debug("Preview session created", zap.String("session_id", s.ID),
		zap.Int("width", width), zap.Int("height", height))
	return s
}

// Load runs source in the session. An empty kind detects it from the source.
// It returns the kind that ran and the errors reported while starting.
func (s *Session) Load(kind, source string) (sandbox.Kind, []string) {
	if s.closed {
		return sandbox.KindSketch, []string{ErrSessionClosed.Error()}
	}
	k, ok := sandbox.ParseKind(kind)
	if !ok {
		k = sandbox.DetectKind(source)
	}

	s.kind = k
	s.errors = nil
	s.pending = nil
	s.page.Realm.ResetConsole()
	s.sw.Run(k, source, s.mount, s.collect)

	return k, s.drain()
}

func (s *Session) collect(message string) {
	s.errors = append(s.errors, message)
	s.pending = append(s.pending, message)
}

func (s *Session) drain() []string {
	out := s.pending
	s.pending = nil
	return out
}

// Step advances the page by one frame interval.
func (s *Session) Step() Tick {
	start := time.Now()
	s.page.Loop.Step(time.Second / time.Duration(s.cfg.FPS))
	cost := time.Since(start)

	t := Tick{
		Frame:  s.page.Loop.Ticks(),
		Millis: s.page.Loop.Millis(),
		Errors: s.drain(),
		Cost:   cost,
	}
	if c := s.canvas(); c != nil {
		t.Presented = c.Frames()
		t.Commands = c.LastFrameCommands()
	}
	return t
}

// Resize changes the viewport and the mount point dimensions.
func (s *Session) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.mount.ClientWidth, s.mount.ClientHeight = width, height
	s.page.Resize(width, height)
	if s.kind == sandbox.KindScene {
		s.scene.HandleResize()
	}
}

// Kind returns the kind of the loaded program.
func (s *Session) Kind() sandbox.Kind { return s.kind }

// State returns the state of the loaded program.
func (s *Session) State() sandbox.State { return s.sw.State() }

// Errors returns every message reported since the last Load.
func (s *Session) Errors() []string { return append([]string(nil), s.errors...) }

// Outcome classifies the loaded program.
func (s *Session) Outcome() string {
	var errs []error
	switch s.kind {
	case sandbox.KindScene:
		if inst := s.scene.Instance(); inst != nil {
			errs = inst.Errors()
		}
	default:
		if inst := s.sketch.Instance(); inst != nil {
			errs = inst.Errors()
		}
	}
	return classify(errs, len(s.errors))
}

func classify(errs []error, reported int) string {
	var malformed *sandbox.MalformedSourceError
	for _, err := range errs {
		if errors.As(err, &malformed) {
			return sandbox.OutcomeMalformed
		}
	}
	if len(errs) > 0 || reported > 0 {
		return sandbox.OutcomeError
	}
	return sandbox.OutcomeLive
}

// GPUResources returns the live resources of the loaded scene.
func (s *Session) GPUResources() int {
	if inst := s.scene.Instance(); inst != nil && s.kind == sandbox.KindScene {
		return inst.Ledger().Live()
	}
	return 0
}

// Console returns the console output of the loaded program.
func (s *Session) Console() []host.LogEntry { return s.page.Realm.Console() }

// Surface returns the render surface of the loaded program, or nil.
func (s *Session) Surface() *dom.Canvas { return s.canvas() }

func (s *Session) canvas() *dom.Canvas {
	for _, el := range s.mount.Surfaces() {
		if el.Canvas != nil {
			return el.Canvas
		}
	}
	return nil
}

// Stop tears down the loaded program and keeps the session usable.
func (s *Session) Stop() {
	s.sketch.Dispose()
	s.scene.Dispose()
}

// Close tears down the loaded program. It is idempotent.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.Stop()
	s.log.Debug("Preview session closed", zap.String("session_id", s.ID))
}
