package sandbox

import (
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/logging"
)

// Instance is a running program that can be torn down.
type Instance interface {
	Kind() Kind
	State() State
	// Teardown releases every resource the instance holds. It must be
	// idempotent.
	Teardown() error
}

// Slot is the page-wide "current instance" slot. At most one instance of any
// kind holds it at a time.
type Slot struct {
	current Instance
	log     *logging.Logger
	metrics Recorder
}

// NewSlot creates an empty slot.
func NewSlot(log *logging.Logger, metrics Recorder) *Slot {
	if metrics == nil {
		metrics = NopRecorder{}
	}
	return &Slot{log: logging.OrNop(log), metrics: metrics}
}

// Current returns the instance holding the slot, or nil.
func (s *Slot) Current() Instance {
	return s.current
}

// State returns the current instance state, or Idle.
func (s *Slot) State() State {
	if s.current == nil {
		return StateIdle
	}
	return s.current.State()
}

// Vacate tears down the current instance, if any. Teardown errors are logged
// and never returned.
func (s *Slot) Vacate() {
	prev := s.current
	if prev == nil {
		return
	}
	s.current = nil

	start := time.Now()
	err := prev.Teardown()
	s.metrics.TeardownFinished(prev.Kind(), time.Since(start), err)
	s.metrics.InstanceLive(prev.Kind(), false)
	if err != nil {
		s.log.Warn("Error while removing previous instance",
			zap.String("kind", prev.Kind().String()),
			zap.Error(err))
	}
}

// Claim vacates the slot and hands it to next.
func (s *Slot) Claim(next Instance) {
	if s.current == next {
		return
	}
	s.Vacate()
	s.current = next
	if next != nil {
		s.metrics.InstanceLive(next.Kind(), true)
	}
}

// Release clears the slot if inst holds it, without tearing it down.
func (s *Slot) Release(inst Instance) {
	if s.current == inst && inst != nil {
		s.current = nil
		s.metrics.InstanceLive(inst.Kind(), false)
	}
}
