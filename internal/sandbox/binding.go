package sandbox

import (
	"fmt"

	"github.com/dop251/goja"
)

type savedBinding struct {
	name       string
	existed    bool
	descriptor goja.Value
}

// BindingTable installs names on a shared object (normally the realm's global
// object) and restores the object exactly on Revert. It also removes names
// that appeared on the object after Snapshot, which catches globals leaked by
// assignments to undeclared variables.
type BindingTable struct {
	vm     *goja.Runtime
	target *goja.Object

	getDescriptor goja.Callable
	define        goja.Callable

	saved    []savedBinding
	names    map[string]struct{}
	snapshot map[string]struct{}
	reverted bool
}

// NewBindingTable creates a table over target.
func NewBindingTable(vm *goja.Runtime, target *goja.Object) (*BindingTable, error) {
	object := vm.Get("Object")
	if object == nil {
		return nil, fmt.Errorf("binding table: Object constructor unavailable")
	}
	objectObj := object.ToObject(vm)
	getDescriptor, ok := goja.AssertFunction(objectObj.Get("getOwnPropertyDescriptor"))
	if !ok {
		return nil, fmt.Errorf("binding table: Object.getOwnPropertyDescriptor unavailable")
	}
	define, ok := goja.AssertFunction(objectObj.Get("defineProperty"))
	if !ok {
		return nil, fmt.Errorf("binding table: Object.defineProperty unavailable")
	}
	return &BindingTable{
		vm:            vm,
		target:        target,
		getDescriptor: getDescriptor,
		define:        define,
		names:         make(map[string]struct{}),
	}, nil
}

// Snapshot records the current own property names of the target.
func (b *BindingTable) Snapshot() {
	b.snapshot = make(map[string]struct{})
	for _, name := range b.target.GetOwnPropertyNames() {
		b.snapshot[name] = struct{}{}
	}
}

// Value installs a data property.
func (b *BindingTable) Value(name string, v interface{}) error {
	if err := b.save(name); err != nil {
		return err
	}
	return b.target.DefineDataProperty(name, b.vm.ToValue(v), goja.FLAG_TRUE, goja.FLAG_TRUE, goja.FLAG_TRUE)
}

// Func installs a host function.
func (b *BindingTable) Func(name string, fn func(goja.FunctionCall) goja.Value) error {
	return b.Value(name, fn)
}

// Accessor installs a live read view. set may be nil.
func (b *BindingTable) Accessor(name string, get func() goja.Value, set func(goja.Value)) error {
	if err := b.save(name); err != nil {
		return err
	}
	getter := b.vm.ToValue(func(goja.FunctionCall) goja.Value { return get() })
	var setter goja.Value
	if set != nil {
		setter = b.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			set(call.Argument(0))
			return goja.Undefined()
		})
	}
	return b.target.DefineAccessorProperty(name, getter, setter, goja.FLAG_TRUE, goja.FLAG_TRUE)
}

func (b *BindingTable) save(name string) error {
	if b.reverted {
		return fmt.Errorf("binding table: install %q after revert", name)
	}
	if _, ok := b.names[name]; ok {
		return nil
	}
	desc, err := b.getDescriptor(goja.Undefined(), b.target, b.vm.ToValue(name))
	if err != nil {
		return fmt.Errorf("binding table: inspect %q: %w", name, err)
	}
	existed := desc != nil && !goja.IsUndefined(desc)
	if existed {
		if c := desc.ToObject(b.vm).Get("configurable"); c != nil && !c.ToBoolean() {
			return fmt.Errorf("binding table: %q is not configurable", name)
		}
	}
	b.names[name] = struct{}{}
	b.saved = append(b.saved, savedBinding{name: name, existed: existed, descriptor: desc})
	return nil
}

// Names returns the installed names in installation order.
func (b *BindingTable) Names() []string {
	names := make([]string, len(b.saved))
	for i, s := range b.saved {
		names[i] = s.name
	}
	return names
}

// Len returns the number of installed names.
func (b *BindingTable) Len() int {
	return len(b.saved)
}

// Has reports whether name was installed by this table.
func (b *BindingTable) Has(name string) bool {
	_, ok := b.names[name]
	return ok
}

// Revert restores every installed name to its previous state and deletes
// names leaked since Snapshot. Calling it again is a no-op.
func (b *BindingTable) Revert() error {
	if b.reverted {
		return nil
	}
	b.reverted = true

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for i := len(b.saved) - 1; i >= 0; i-- {
		s := b.saved[i]
		if !s.existed {
			keep(b.target.Delete(s.name))
			continue
		}
		_, err := b.define(goja.Undefined(), b.target, b.vm.ToValue(s.name), s.descriptor)
		keep(err)
	}

	if b.snapshot != nil {
		for _, name := range b.target.GetOwnPropertyNames() {
			if _, ok := b.snapshot[name]; ok {
				continue
			}
			if _, ok := b.names[name]; ok {
				continue
			}
			keep(b.target.Delete(name))
		}
	}

	b.saved = nil
	return firstErr
}
