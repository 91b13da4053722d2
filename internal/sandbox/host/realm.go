package host

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/dom"
)

// Config defines realm configuration
type Config struct {
	ExecTimeout   time.Duration // Per-call execution budget
	MaxCallStack  int           // Maximum JS call stack depth
	EnableConsole bool          // Capture console.log/warn/error
	MaxConsole    int           // Console entries kept before the oldest are dropped
}

// DefaultConfig returns the default realm configuration.
func DefaultConfig() Config {
	return Config{
		ExecTimeout:   5 * time.Second,
		MaxCallStack:  1024,
		EnableConsole: true,
		MaxConsole:    500,
	}
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    // log, warn, error, info, debug
	Message string    // Log message
	Time    time.Time // Timestamp
}

// ErrTimeout is wrapped by errors returned when a script exceeds ExecTimeout.
var ErrTimeout = errors.New("script exceeded execution time limit")

// Realm is the single JavaScript namespace of a page. Every running instance
// shares its global object, which is why ownership is handed over through a
// Tracker and bindings are reverted on teardown.
type Realm struct {
	vm     *goja.Runtime
	config Config
	loop   *Loop
	window *dom.Window
	doc    *dom.Document
	log    *logging.Logger

	tracker *Tracker
	depth   int

	elements map[*dom.Element]*goja.Object
	proxies  map[*goja.Object]*dom.Element

	consoleMu sync.Mutex
	console   []LogEntry
}

// NewRealm creates a realm wired to the page loop, window and document.
func NewRealm(config Config, loop *Loop, window *dom.Window, doc *dom.Document, log *logging.Logger) *Realm {
	if config.ExecTimeout <= 0 {
		config.ExecTimeout = DefaultConfig().ExecTimeout
	}
	r := &Realm{
		vm:       goja.New(),
		config:   config,
		loop:     loop,
		window:   window,
		doc:      doc,
		log:      logging.OrNop(log).Named("realm"),
		elements: make(map[*dom.Element]*goja.Object),
		proxies:  make(map[*goja.Object]*dom.Element),
	}
	if config.MaxCallStack > 0 {
		r.vm.SetMaxCallStackSize(config.MaxCallStack)
	}
	r.setupGlobals()
	return r
}

// VM exposes the underlying runtime.
func (r *Realm) VM() *goja.Runtime {
	return r.vm
}

// Global returns the global object, which doubles as window.
func (r *Realm) Global() *goja.Object {
	return r.vm.GlobalObject()
}

// Bind makes t the owner of callbacks registered from script.
func (r *Realm) Bind(t *Tracker) {
	r.tracker = t
}

// Unbind releases ownership if t is the current owner.
func (r *Realm) Unbind(t *Tracker) {
	if r.tracker == t {
		r.tracker = nil
	}
}

// Owner returns the tracker currently bound, or nil.
func (r *Realm) Owner() *Tracker {
	return r.tracker
}

// Compile checks src for syntax errors without running it.
func (r *Realm) Compile(name, src string) (*goja.Program, error) {
	return goja.Compile(name, src, false)
}

// Exec runs src under the execution budget.
func (r *Realm) Exec(name, src string) (val goja.Value, err error) {
	err = r.guard(func() error {
		var runErr error
		val, runErr = r.vm.RunScript(name, src)
		return runErr
	})
	return val, err
}

// Call invokes fn under the execution budget.
func (r *Realm) Call(fn goja.Callable, this goja.Value, args ...goja.Value) (val goja.Value, err error) {
	if this == nil {
		this = goja.Undefined()
	}
	err = r.guard(func() error {
		var callErr error
		val, callErr = fn(this, args...)
		return callErr
	})
	return val, err
}

// guard arms the interrupt timer for the outermost call and converts Go
// panics raised by host bindings into errors.
func (r *Realm) guard(run func() error) (err error) {
	if r.depth == 0 {
		timeout := r.config.ExecTimeout
		timer := time.AfterFunc(timeout, func() {
			r.vm.Interrupt(fmt.Errorf("%w (%s)", ErrTimeout, timeout))
		})
		defer func() {
			timer.Stop()
			r.vm.ClearInterrupt()
		}()
	}
	r.depth++
	defer func() {
		r.depth--
		if p := recover(); p != nil {
			if perr, ok := p.(error); ok {
				err = fmt.Errorf("host binding panic: %w", perr)
			} else {
				err = fmt.Errorf("host binding panic: %v", p)
			}
		}
	}()

	if err := run(); err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if cause, ok := interrupted.Value().(error); ok {
				return cause
			}
		}
		return err
	}
	return nil
}

// Describe renders err as the message shown to the user. Thrown Error
// objects yield their message, like err.message in the browser.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var ex *goja.Exception
	if errors.As(err, &ex) {
		v := ex.Value()
		if obj, ok := v.(*goja.Object); ok {
			if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
				return msg.String()
			}
		}
		if v != nil {
			return v.String()
		}
	}
	var syntax *goja.CompilerSyntaxError
	if errors.As(err, &syntax) {
		return "SyntaxError: " + syntax.Message
	}
	return err.Error()
}

// Console returns the captured console output.
func (r *Realm) Console() []LogEntry {
	r.consoleMu.Lock()
	defer r.consoleMu.Unlock()
	return append([]LogEntry(nil), r.console...)
}

// ResetConsole drops captured console output.
func (r *Realm) ResetConsole() {
	r.consoleMu.Lock()
	r.console = nil
	r.consoleMu.Unlock()
}

// setupGlobals configures global objects and security
func (r *Realm) setupGlobals() {
	global := r.vm.GlobalObject()

	// Remove dangerous globals
	for _, name := range []string{"require", "process", "module", "exports"} {
		_ = global.Delete(name)
	}

	if r.config.EnableConsole {
		console := r.vm.NewObject()
		for _, level := range []string{"log", "warn", "error", "info", "debug"} {
			_ = console.Set(level, r.makeConsoleFunc(level))
		}
		_ = global.Set("console", console)
	}

	_ = global.Set("window", global)
	_ = global.Set("self", global)
	_ = global.Set("devicePixelRatio", 1)
	r.accessor(global, "innerWidth", func() goja.Value { return r.vm.ToValue(r.window.InnerWidth) })
	r.accessor(global, "innerHeight", func() goja.Value { return r.vm.ToValue(r.window.InnerHeight) })

	perf := r.vm.NewObject()
	_ = perf.Set("now", func(goja.FunctionCall) goja.Value { return r.vm.ToValue(r.loop.Millis()) })
	_ = global.Set("performance", perf)

	_ = global.Set("requestAnimationFrame", r.requestAnimationFrame)
	_ = global.Set("cancelAnimationFrame", r.cancelTimer)
	_ = global.Set("setTimeout", r.makeTimerFunc(false))
	_ = global.Set("setInterval", r.makeTimerFunc(true))
	_ = global.Set("clearTimeout", r.cancelTimer)
	_ = global.Set("clearInterval", r.cancelTimer)
	_ = global.Set("addEventListener", r.addEventListener)
	_ = global.Set("removeEventListener", r.removeEventListener)

	_ = global.Set("document", r.NewDocumentObject(nil))
}

func (r *Realm) accessor(obj *goja.Object, name string, get func() goja.Value) {
	getter := r.vm.ToValue(func(goja.FunctionCall) goja.Value { return get() })
	_ = obj.DefineAccessorProperty(name, getter, nil, goja.FLAG_TRUE, goja.FLAG_TRUE)
}

// makeConsoleFunc creates a console function
func (r *Realm) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")

		r.consoleMu.Lock()
		if max := r.config.MaxConsole; max > 0 && len(r.console) >= max {
			r.console = r.console[1:]
		}
		r.console = append(r.console, LogEntry{Level: level, Message: msg, Time: time.Now()})
		r.consoleMu.Unlock()

		r.log.Debug("console", zap.String("level", level), zap.String("message", msg))
		return goja.Undefined()
	}
}

func (r *Realm) requestAnimationFrame(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	t := r.tracker
	if !ok || t == nil {
		return r.vm.ToValue(0)
	}
	h := t.RequestFrame(func(ts float64) {
		if _, err := r.Call(fn, goja.Undefined(), r.vm.ToValue(ts)); err != nil {
			t.Fail(err)
		}
	})
	return r.vm.ToValue(uint64(h))
}

func (r *Realm) makeTimerFunc(repeat bool) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		// String callbacks would need eval; they are ignored.
		fn, ok := goja.AssertFunction(call.Argument(0))
		t := r.tracker
		if !ok || t == nil {
			return r.vm.ToValue(0)
		}
		delay := time.Duration(call.Argument(1).ToFloat() * float64(time.Millisecond))
		var extra []goja.Value
		if len(call.Arguments) > 2 {
			extra = append(extra, call.Arguments[2:]...)
		}
		cb := func() {
			if _, err := r.Call(fn, goja.Undefined(), extra...); err != nil {
				t.Fail(err)
			}
		}
		var h Handle
		if repeat {
			h = t.SetInterval(cb, delay)
		} else {
			h = t.SetTimeout(cb, delay)
		}
		return r.vm.ToValue(uint64(h))
	}
}

// cancelTimer serves cancelAnimationFrame, clearTimeout and clearInterval,
// which share one handle space.
func (r *Realm) cancelTimer(call goja.FunctionCall) goja.Value {
	t := r.tracker
	if t == nil {
		return goja.Undefined()
	}
	h := Handle(call.Argument(0).ToInteger())
	t.CancelFrame(h)
	t.ClearTimer(h)
	return goja.Undefined()
}

func (r *Realm) addEventListener(call goja.FunctionCall) goja.Value {
	eventType := call.Argument(0).String()
	fnVal := call.Argument(1)
	fn, ok := goja.AssertFunction(fnVal)
	t := r.tracker
	if !ok || t == nil {
		return goja.Undefined()
	}
	t.Listen(eventType, func(ev dom.Event) {
		if _, err := r.Call(fn, r.vm.GlobalObject(), r.EventObject(ev)); err != nil {
			t.Fail(err)
		}
	}, fnVal)
	return goja.Undefined()
}

func (r *Realm) removeEventListener(call goja.FunctionCall) goja.Value {
	if t := r.tracker; t != nil {
		t.UnlistenValue(call.Argument(0).String(), call.Argument(1))
	}
	return goja.Undefined()
}

// EventObject converts a window event into its script representation.
func (r *Realm) EventObject(ev dom.Event) *goja.Object {
	obj := r.vm.NewObject()
	_ = obj.Set("type", ev.Type)
	_ = obj.Set("clientX", ev.X)
	_ = obj.Set("clientY", ev.Y)
	_ = obj.Set("offsetX", ev.X)
	_ = obj.Set("offsetY", ev.Y)
	_ = obj.Set("button", buttonIndex(ev.Button))
	_ = obj.Set("key", ev.Key)
	_ = obj.Set("keyCode", ev.KeyCode)
	_ = obj.Set("deltaY", ev.DeltaY)
	_ = obj.Set("preventDefault", func(goja.FunctionCall) goja.Value { return goja.Undefined() })
	_ = obj.Set("stopPropagation", func(goja.FunctionCall) goja.Value { return goja.Undefined() })
	return obj
}

func buttonIndex(button string) int {
	switch button {
	case "center":
		return 1
	case "right":
		return 2
	default:
		return 0
	}
}
