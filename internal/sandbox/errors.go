package sandbox

import (
	"fmt"
	"time"
)

// MalformedSourceError reports a wrapped program that could not be unwrapped.
type MalformedSourceError struct {
	Reason string
}

func (e *MalformedSourceError) Error() string {
	return "Malformed animation code: " + e.Reason
}

// ExecutionError reports a program that threw while running top-level code or
// an initialization callback.
type ExecutionError struct {
	Kind    Kind
	Phase   string
	Message string
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Kind == KindScene {
		return "Error running Three.js animation: " + e.Message
	}
	if e.Phase != "" && e.Phase != PhaseScript {
		return fmt.Sprintf("Error in animation %s: %s", e.Phase, e.Message)
	}
	return "Error in animation code: " + e.Message
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Execution phases.
const (
	PhaseScript  = "script"
	PhasePreload = "preload"
	PhaseSetup   = "setup"
)

// FrameError reports a single failed frame. The loop keeps running.
type FrameError struct {
	Frame   uint64
	Message string
	Err     error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("Error in animation frame %d: %s", e.Frame, e.Message)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// RenderSurfaceMissingError reports that no canvas or svg appeared in the
// mount point within the settle delay.
type RenderSurfaceMissingError struct {
	Kind  Kind
	After time.Duration
}

func (e *RenderSurfaceMissingError) Error() string {
	if e.Kind == KindScene {
		return "No canvas was created. The animation might not be working correctly."
	}
	return "Animation failed to render. Please try regenerating the animation."
}

// ErrorFunc receives failures of a run.
type ErrorFunc func(message string)

// Reporter delivers typed errors to an ErrorFunc and remembers them.
type Reporter struct {
	onError ErrorFunc
	errs    []error
}

// NewReporter wraps onError. A nil onError only records.
func NewReporter(onError ErrorFunc) *Reporter {
	return &Reporter{onError: onError}
}

// Report records err and forwards its message.
func (r *Reporter) Report(err error) {
	if err == nil {
		return
	}
	r.errs = append(r.errs, err)
	if r.onError != nil {
		r.onError(err.Error())
	}
}

// Errors returns every reported error in order.
func (r *Reporter) Errors() []error {
	return append([]error(nil), r.errs...)
}
