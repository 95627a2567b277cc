package ecs

import (
	"bytes"
	"reflect"
	"unsafe"

	"github.com/rotisserie/eris"
)

// ComponentRegistry hands out kinds to component types so every part of a
// program agrees on them. Each Storage may be paired with its own registry.
type ComponentRegistry struct {
	maxKinds int
	maxSize  int
	names    []string
	types    []reflect.Type
	byType   map[reflect.Type]Kind
}

// NewComponentRegistry creates a registry for storages built with cfg.
func NewComponentRegistry(cfg Config) *ComponentRegistry {
	return &ComponentRegistry{
		maxKinds: cfg.MaxComponentKinds,
		maxSize:  cfg.MaxComponentSize,
		byType:   make(map[reflect.Type]Kind),
	}
}

// Component is a typed handle on a component kind. T is stored by value in
// the kind's slots, so it must not contain pointers.
type Component[T any] struct {
	Kind Kind
}

// RegisterComponent assigns the next free kind to T. Registering the same
// type twice returns the original kind.
func RegisterComponent[T any](r *ComponentRegistry, name string) (Component[T], error) {
	t := reflect.TypeFor[T]()
	if k, ok := r.byType[t]; ok {
		return Component[T]{Kind: k}, nil
	}

	if len(r.types) >= r.maxKinds {
		return Component[T]{}, eris.Wrapf(ErrCapacity, "register %s: all %d kinds in use", t, r.maxKinds)
	}
	if int(t.Size()) > r.maxSize {
		return Component[T]{}, eris.Wrapf(ErrOutOfRange, "register %s: size %d exceeds slot size %d", t, t.Size(), r.maxSize)
	}
	if hasPointers(t) {
		return Component[T]{}, eris.Wrapf(ErrOutOfRange, "register %s: components cannot contain pointers", t)
	}
	if align := t.Align(); r.maxSize%align != 0 || align > 8 {
		return Component[T]{}, eris.Wrapf(ErrOutOfRange, "register %s: slot size %d not aligned to %d", t, r.maxSize, align)
	}

	if name == "" {
		name = t.String()
	}
	k := Kind(len(r.types))
	r.types = append(r.types, t)
	r.names = append(r.names, name)
	r.byType[t] = k
	return Component[T]{Kind: k}, nil
}

// MustRegisterComponent is like RegisterComponent but panics on error.
func MustRegisterComponent[T any](r *ComponentRegistry, name string) Component[T] {
	c, err := RegisterComponent[T](r, name)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the registered name of k, or "" if k is unassigned.
func (r *ComponentRegistry) Name(k Kind) string {
	if int(k) >= len(r.names) {
		return ""
	}
	return r.names[k]
}

// Type returns the Go type registered for k.
func (r *ComponentRegistry) Type(k Kind) reflect.Type {
	if int(k) >= len(r.types) {
		return nil
	}
	return r.types[k]
}

// Size returns the byte size of the type registered for k.
func (r *ComponentRegistry) Size(k Kind) int {
	if int(k) >= len(r.types) {
		return 0
	}
	return int(r.types[k].Size())
}

// Kinds returns every assigned kind in registration order.
func (r *ComponentRegistry) Kinds() []Kind {
	kinds := make([]Kind, len(r.types))
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}

// Mask returns a mask with the component's kind set.
func (c Component[T]) Mask() Mask {
	return BuildMask(c.Kind)
}

// Add attaches v to e.
func (c Component[T]) Add(s *Storage, e Entity, v T) error {
	return s.AddComponent(e, c.Kind, c.bytes(&v))
}

// Data returns v's bytes for use with Commands or Spawn.
func (c Component[T]) Data(v T) ComponentData {
	return ComponentData{Kind: c.Kind, Data: bytes.Clone(c.bytes(&v))}
}

// Get returns a pointer aliasing e's slot. Like GetComponent it does not
// check presence.
func (c Component[T]) Get(s *Storage, e Entity) *T {
	return (*T)(unsafe.Pointer(unsafe.SliceData(s.GetComponent(e, c.Kind))))
}

// Remove detaches the component from e.
func (c Component[T]) Remove(s *Storage, e Entity) error {
	return s.RemoveComponent(e, c.Kind)
}

// Has reports whether e holds the component.
func (c Component[T]) Has(s *Storage, e Entity) bool {
	return s.HasComponent(e, c.Kind)
}

func (c Component[T]) bytes(v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Slice, reflect.Map,
		reflect.Chan, reflect.Func, reflect.Interface, reflect.String:
		return true
	case reflect.Array:
		return hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}
