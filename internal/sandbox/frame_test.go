package sandbox

import (
	"errors"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox/host"
)

func TestInvoke(t *testing.T) {
	page := host.NewPage(host.DefaultPageConfig(), nil)
	vm := page.Realm.VM()

	fns, err := page.Realm.Exec("fns.js", `[function(){ return 1 }, function(){ throw new Error('x') }]`)
	require.NoError(t, err)
	arr := fns.ToObject(vm)
	ok, _ := goja.AssertFunction(arr.Get("0"))
	bad, _ := goja.AssertFunction(arr.Get("1"))

	assert.Equal(t, FrameOk{}, Invoke(page.Realm, ok, nil))
	assert.Equal(t, FrameOk{}, Invoke(page.Realm, nil, nil))

	failed, isFailed := Failed(Invoke(page.Realm, bad, nil))
	require.True(t, isFailed)
	assert.Equal(t, "x", failed.Reason)
}

func TestContain(t *testing.T) {
	_, failed := Failed(Contain(func() error { return nil }))
	assert.False(t, failed)

	f, failed := Failed(Contain(func() error { return errors.New("nope") }))
	assert.True(t, failed)
	assert.Equal(t, "nope", f.Reason)

	f, failed = Failed(Contain(func() error { panic("boom") }))
	assert.True(t, failed)
	assert.Contains(t, f.Reason, "boom")
}
