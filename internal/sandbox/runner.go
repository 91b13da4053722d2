package sandbox

import (
	"regexp"
	"time"

	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/dom"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/host"
)

// Kind selects which runner executes a program.
type Kind int

const (
	KindSketch Kind = iota
	KindScene
)

func (k Kind) String() string {
	if k == KindScene {
		return "scene"
	}
	return "sketch"
}

// ParseKind maps "sketch"/"p5" and "scene"/"three" to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "sketch", "p5", "2d":
		return KindSketch, true
	case "scene", "three", "3d":
		return KindScene, true
	}
	return KindSketch, false
}

var sceneHint = regexp.MustCompile(`\bTHREE\s*\.|from\s+['"]three['"]`)

// DetectKind guesses the program flavour from its text: programs referencing
// the THREE namespace are scenes, everything else is a sketch.
func DetectKind(source string) Kind {
	if sceneHint.MatchString(source) {
		return KindScene
	}
	return KindSketch
}

// Runner executes programs of one kind into a mount point.
type Runner interface {
	Kind() Kind
	// Run tears down the previous instance, executes source into mount and
	// reports every failure through onError. It never panics on bad input.
	Run(source string, mount *dom.Element, onError ErrorFunc)
	// Dispose tears down the current instance. It is idempotent.
	Dispose()
	State() State
}

// Recorder receives sandbox metrics.
type Recorder interface {
	RunStarted(kind Kind)
	RunFinished(kind Kind, outcome string)
	FrameFailed(kind Kind)
	InstanceLive(kind Kind, live bool)
	TeardownFinished(kind Kind, d time.Duration, err error)
	GPUResources(n int)
}

// Run outcomes.
const (
	OutcomeLive      = "live"
	OutcomeError     = "error"
	OutcomeMalformed = "malformed"
)

// NopRecorder discards metrics.
type NopRecorder struct{}

func (NopRecorder) RunStarted(Kind)                             {}
func (NopRecorder) RunFinished(Kind, string)                    {}
func (NopRecorder) FrameFailed(Kind)                            {}
func (NopRecorder) InstanceLive(Kind, bool)                     {}
func (NopRecorder) TeardownFinished(Kind, time.Duration, error) {}
func (NopRecorder) GPUResources(int)                            {}

// Env is what runners on one page share.
type Env struct {
	Page    *host.Page
	Slot    *Slot
	Log     *logging.Logger
	Metrics Recorder
}

// NewEnv creates the shared environment for runners on page.
func NewEnv(page *host.Page, log *logging.Logger, metrics Recorder) *Env {
	if metrics == nil {
		metrics = NopRecorder{}
	}
	log = logging.OrNop(log)
	return &Env{
		Page:    page,
		Slot:    NewSlot(log, metrics),
		Log:     log,
		Metrics: metrics,
	}
}

// Switch holds one runner per kind and routes programs to them.
type Switch struct {
	runners map[Kind]Runner
	slot    *Slot
}

// NewSwitch registers runners by kind.
func NewSwitch(env *Env, runners ...Runner) *Switch {
	s := &Switch{runners: make(map[Kind]Runner), slot: env.Slot}
	for _, r := range runners {
		s.runners[r.Kind()] = r
	}
	return s
}

// Runner returns the runner for kind.
func (s *Switch) Runner(kind Kind) (Runner, bool) {
	r, ok := s.runners[kind]
	return r, ok
}

// Run executes source with the runner for kind.
func (s *Switch) Run(kind Kind, source string, mount *dom.Element, onError ErrorFunc) {
	r, ok := s.runners[kind]
	if !ok {
		if onError != nil {
			onError("Error running the animation code: no runner for " + kind.String())
		}
		return
	}
	r.Run(source, mount, onError)
}

// RunDetected executes source with the runner DetectKind selects.
func (s *Switch) RunDetected(source string, mount *dom.Element, onError ErrorFunc) Kind {
	kind := DetectKind(source)
	s.Run(kind, source, mount, onError)
	return kind
}

// Dispose tears down whatever instance is live.
func (s *Switch) Dispose() {
	s.slot.Vacate()
}

// State returns the state of the live instance.
func (s *Switch) State() State {
	return s.slot.State()
}
