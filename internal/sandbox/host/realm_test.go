package host

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox/dom"
)

func newTestPage(t *testing.T) *Page {
	t.Helper()
	cfg := DefaultPageConfig()
	cfg.Realm.ExecTimeout = 200 * time.Millisecond
	return NewPage(cfg, nil)
}

func TestRealmExec(t *testing.T) {
	page := newTestPage(t)

	tests := []struct {
		name   string
		script string
		want   interface{}
	}{
		{"simple return", "42", int64(42)},
		{"math operations", "Math.sqrt(16)", int64(4)},
		{"string operations", "'hello'.toUpperCase()", "HELLO"},
		{"window is global", "window === this", true},
		{"viewport", "innerWidth + 'x' + window.innerHeight", "1280x800"},
		{"performance clock", "performance.now()", int64(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, err := page.Realm.Exec("test.js", tt.script)
			require.NoError(t, err)
			assert.Equal(t, tt.want, val.Export())
		})
	}
}

func TestRealmSecurity(t *testing.T) {
	page := newTestPage(t)

	for _, name := range []string{"require", "process", "module", "exports"} {
		t.Run(name, func(t *testing.T) {
			val, err := page.Realm.Exec("test.js", "typeof "+name)
			require.NoError(t, err)
			assert.Equal(t, "undefined", val.String())
		})
	}
}

func TestRealmTimeout(t *testing.T) {
	page := newTestPage(t)

	_, err := page.Realm.Exec("loop.js", "while (true) {}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))

	val, err := page.Realm.Exec("after.js", "1 + 1")
	require.NoError(t, err, "realm is usable after an interrupt")
	assert.Equal(t, int64(2), val.Export())
}

func TestRealmConsole(t *testing.T) {
	page := newTestPage(t)

	_, err := page.Realm.Exec("test.js", "console.log('hello', 1); console.error('bad')")
	require.NoError(t, err)

	entries := page.Realm.Console()
	require.Len(t, entries, 2)
	assert.Equal(t, "log", entries[0].Level)
	assert.Equal(t, "hello 1", entries[0].Message)
	assert.Equal(t, "error", entries[1].Level)

	page.Realm.ResetConsole()
	assert.Empty(t, page.Realm.Console())
}

func TestRealmDescribe(t *testing.T) {
	page := newTestPage(t)

	_, err := page.Realm.Exec("test.js", "throw new Error('x')")
	assert.Equal(t, "x", Describe(err))

	_, err = page.Realm.Exec("test.js", "throw 'plain'")
	assert.Equal(t, "plain", Describe(err))

	_, err = page.Realm.Exec("test.js", "function (")
	assert.Contains(t, Describe(err), "SyntaxError")

	assert.Empty(t, Describe(nil))
}

func TestRealmTimersNeedOwner(t *testing.T) {
	page := newTestPage(t)

	val, err := page.Realm.Exec("test.js", "setTimeout(function(){}, 10)")
	require.NoError(t, err)
	assert.Equal(t, int64(0), val.Export())
	assert.Zero(t, page.Loop.PendingTimers())
}

func TestRealmBridgesTimersToTracker(t *testing.T) {
	page := newTestPage(t)
	tr := page.NewTracker()
	page.Realm.Bind(tr)
	defer page.Realm.Unbind(tr)

	_, err := page.Realm.Exec("test.js", `
		var ticks = 0, frames = 0, resized = 0;
		setTimeout(function () { ticks++; }, 10);
		requestAnimationFrame(function step() { frames++; requestAnimationFrame(step); });
		window.addEventListener('resize', function () { resized++; });
	`)
	require.NoError(t, err)

	page.Loop.Step(10 * time.Millisecond)
	page.Loop.Step(10 * time.Millisecond)
	page.Resize(640, 480)

	val, err := page.Realm.Exec("read.js", "[ticks, frames, resized, innerWidth]")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1), int64(2), int64(1), int64(640)}, val.Export())

	tr.Close()
	page.Loop.Step(10 * time.Millisecond)
	page.Resize(100, 100)
	val, err = page.Realm.Exec("read.js", "[frames, resized]")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(2), int64(1)}, val.Export())
}

func TestRealmCallbackErrorsReachTracker(t *testing.T) {
	page := newTestPage(t)
	tr := page.NewTracker()
	var errs []error
	tr.OnError(func(err error) { errs = append(errs, err) })
	page.Realm.Bind(tr)

	_, err := page.Realm.Exec("test.js", "requestAnimationFrame(function(){ throw new Error('frame') })")
	require.NoError(t, err)
	page.Loop.Step(time.Millisecond)

	require.Len(t, errs, 1)
	assert.Equal(t, "frame", Describe(errs[0]))
}

func TestRealmRemoveEventListener(t *testing.T) {
	page := newTestPage(t)
	tr := page.NewTracker()
	page.Realm.Bind(tr)

	_, err := page.Realm.Exec("test.js", `
		var hits = 0;
		function onResize() { hits++; }
		addEventListener('resize', onResize);
		removeEventListener('resize', onResize);
	`)
	require.NoError(t, err)
	assert.Zero(t, tr.ActiveListeners())
	assert.Zero(t, page.Window.ListenerCount(dom.EventResize))
}

func TestRealmDocument(t *testing.T) {
	page := newTestPage(t)
	mount := page.Document.CreateMount("stage", 320, 240)

	_, err := page.Realm.Exec("test.js", `
		var stage = document.getElementById('stage');
		var c = document.createElement('canvas');
		c.width = 64;
		stage.appendChild(c);
		stage.style.background = 'black';
		c.getContext('2d').fillRect(0, 0, 10, 10);
	`)
	require.NoError(t, err)

	require.Len(t, mount.Children, 1)
	canvas := mount.Children[0]
	assert.Equal(t, "canvas", canvas.TagName)
	assert.Equal(t, 64, canvas.Canvas.Width)
	assert.Equal(t, 1, canvas.Canvas.Commands())
	assert.Equal(t, "black", mount.Style["background"])

	val, err := page.Realm.Exec("test.js", "document.getElementById('stage').clientWidth")
	require.NoError(t, err)
	assert.Equal(t, int64(320), val.Export())
	assert.Same(t, mount, page.Realm.UnwrapElement(page.Realm.WrapElement(mount)))
}

func TestRealmDocumentRedirect(t *testing.T) {
	page := newTestPage(t)
	mount := page.Document.CreateMount("real", 100, 100)
	shim := page.Realm.NewDocumentObject(func(id string) *dom.Element {
		if id == "animation-container" || id == "body" {
			return mount
		}
		return nil
	})
	require.NoError(t, page.Realm.Global().Set("shim", shim))

	_, err := page.Realm.Exec("test.js", `
		shim.getElementById('animation-container').appendChild(shim.createElement('canvas'));
		shim.body.appendChild(shim.createElement('div'));
	`)
	require.NoError(t, err)
	assert.Len(t, mount.Children, 2)
	assert.True(t, mount.HasSurface())
}
