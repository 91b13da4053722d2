package sandbox

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox/host"
)

// FrameResult is the outcome of one contained callback invocation:
// either FrameOk or FrameFailed.
type FrameResult interface {
	frameResult()
}

// FrameOk marks a callback that returned normally.
type FrameOk struct{}

// FrameFailed marks a callback that threw.
type FrameFailed struct {
	Reason string
	Err    error
}

func (FrameOk) frameResult()     {}
func (FrameFailed) frameResult() {}

// Invoke calls a script function on the realm and captures any throw.
func Invoke(realm *host.Realm, fn goja.Callable, this goja.Value, args ...goja.Value) FrameResult {
	if fn == nil {
		return FrameOk{}
	}
	if _, err := realm.Call(fn, this, args...); err != nil {
		return FrameFailed{Reason: host.Describe(err), Err: err}
	}
	return FrameOk{}
}

// Contain runs a Go step and captures returned errors and panics.
func Contain(step func() error) (res FrameResult) {
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic: %v", p)
			res = FrameFailed{Reason: err.Error(), Err: err}
		}
	}()
	if err := step(); err != nil {
		return FrameFailed{Reason: host.Describe(err), Err: err}
	}
	return FrameOk{}
}

// Failed returns the failure carried by r, if any.
func Failed(r FrameResult) (FrameFailed, bool) {
	f, ok := r.(FrameFailed)
	return f, ok
}
