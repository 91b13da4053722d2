package sandbox

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(t *testing.T) (*goja.Runtime, *BindingTable) {
	t.Helper()
	vm := goja.New()
	table, err := NewBindingTable(vm, vm.GlobalObject())
	require.NoError(t, err)
	return vm, table
}

func eval(t *testing.T, vm *goja.Runtime, src string) goja.Value {
	t.Helper()
	v, err := vm.RunString(src)
	require.NoError(t, err)
	return v
}

func TestBindingTableInstallAndRevert(t *testing.T) {
	vm, table := newTable(t)
	table.Snapshot()

	counter := 0
	require.NoError(t, table.Value("PI2", 6.28))
	require.NoError(t, table.Func("ellipse", func(goja.FunctionCall) goja.Value { return vm.ToValue("drawn") }))
	require.NoError(t, table.Accessor("frameCount", func() goja.Value { return vm.ToValue(counter) }, nil))

	assert.Equal(t, "drawn", eval(t, vm, "ellipse()").String())
	counter = 7
	assert.Equal(t, int64(7), eval(t, vm, "frameCount").Export(), "accessors are live")
	assert.Equal(t, []string{"PI2", "ellipse", "frameCount"}, table.Names())

	require.NoError(t, table.Revert())
	for _, name := range []string{"PI2", "ellipse", "frameCount"} {
		assert.Equal(t, "undefined", eval(t, vm, "typeof "+name).String(), name)
	}
}

func TestBindingTableRestoresShadowedNames(t *testing.T) {
	vm, table := newTable(t)
	eval(t, vm, "var original = 1; globalThis.print = function(){ return 'console'; };")

	require.NoError(t, table.Func("print", func(goja.FunctionCall) goja.Value { return vm.ToValue("p5") }))
	assert.Equal(t, "p5", eval(t, vm, "print()").String())

	require.NoError(t, table.Revert())
	assert.Equal(t, "console", eval(t, vm, "print()").String())
	assert.Equal(t, int64(1), eval(t, vm, "original").Export())
}

func TestBindingTableRemovesLeakedGlobals(t *testing.T) {
	vm, table := newTable(t)
	eval(t, vm, "globalThis.kept = true")
	table.Snapshot()

	eval(t, vm, "leaked = 42; (function(){ alsoLeaked = 'x'; })()")
	require.NoError(t, table.Revert())

	assert.Equal(t, "undefined", eval(t, vm, "typeof leaked").String())
	assert.Equal(t, "undefined", eval(t, vm, "typeof alsoLeaked").String())
	assert.True(t, eval(t, vm, "kept").ToBoolean())
}

func TestBindingTableRevertIsIdempotent(t *testing.T) {
	_, table := newTable(t)
	require.NoError(t, table.Value("x", 1))
	require.NoError(t, table.Revert())
	require.NoError(t, table.Revert())
	assert.Error(t, table.Value("y", 2), "installing after revert is rejected")
}

func TestBindingTableRejectsNonConfigurable(t *testing.T) {
	_, table := newTable(t)
	assert.Error(t, table.Value("undefined", 1))
	assert.False(t, table.Has("undefined"))
}
