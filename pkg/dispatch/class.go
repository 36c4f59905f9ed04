// Package dispatch models classes whose methods are resolved at call time
// through per-class slots, with single inheritance. Messages sent with Send
// always go through the slots, so replacing a slot changes the behavior of
// every caller.
package dispatch

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Kind selects the slot table a method lives in.
type Kind uint8

const (
	// InstanceMethod slots answer messages sent to instances of a class.
	InstanceMethod Kind = iota
	// ClassMethod slots answer messages sent to the class itself.
	ClassMethod
)

func (k Kind) valid() bool {
	return k == InstanceMethod || k == ClassMethod
}

func (k Kind) String() string {
	switch k {
	case InstanceMethod:
		return "instance"
	case ClassMethod:
		return "class"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind accepts "instance" or "class".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "instance", "":
		return InstanceMethod, nil
	case "class":
		return ClassMethod, nil
	default:
		return 0, fmt.Errorf("dispatch: unknown method kind %q", s)
	}
}

// Object is anything a message can be sent to. It is implemented by
// *Instance, by *Class, and by any type embedding *Instance.
type Object interface {
	dispatchTarget() (*Class, Kind)
}

var objectType = reflect.TypeOf((*Object)(nil)).Elem()

// Class holds the instance and class method slots of one class.
type Class struct {
	name  string
	super *Class

	mu    sync.RWMutex
	slots [2]map[string]*Implementation
}

// NewClass creates a class. super may be nil for a root class.
func NewClass(name string, super *Class) *Class {
	return &Class{
		name:  name,
		super: super,
		slots: [2]map[string]*Implementation{
			InstanceMethod: make(map[string]*Implementation),
			ClassMethod:    make(map[string]*Implementation),
		},
	}
}

// Name returns the class name.
func (c *Class) Name() string {
	return c.name
}

// Superclass returns the parent class, or nil.
func (c *Class) Superclass() *Class {
	return c.super
}

func (c *Class) String() string {
	return c.name
}

func (c *Class) dispatchTarget() (*Class, Kind) {
	return c, ClassMethod
}

// IsSubclassOf reports whether c is other or inherits from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	for k := c; k != nil; k = k.super {
		if k == other {
			return true
		}
	}
	return false
}

// New creates an instance of c.
func (c *Class) New() *Instance {
	return &Instance{class: c}
}

// AddMethod defines selector as a local slot of c. fn must be a func whose
// first parameter receives the message receiver.
func (c *Class) AddMethod(kind Kind, selector string, fn any) error {
	if selector == "" {
		return fmt.Errorf("%w: empty selector", ErrBadImplementation)
	}
	if !kind.valid() {
		return fmt.Errorf("%w: invalid %s", ErrBadImplementation, kind)
	}
	impl, err := NewImplementation(fn)
	if err != nil {
		return fmt.Errorf("%s %s: %w", c.name, selector, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[kind][selector] = impl
	return nil
}

// MustAddMethod is like AddMethod but panics on error. It returns c so class
// definitions can be chained.
func (c *Class) MustAddMethod(kind Kind, selector string, fn any) *Class {
	if err := c.AddMethod(kind, selector, fn); err != nil {
		panic(err)
	}
	return c
}

// Selectors returns the locally defined selectors of the given kind.
func (c *Class) Selectors(kind Kind) []string {
	if !kind.valid() {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.slots[kind]))
	for sel := range c.slots[kind] {
		out = append(out, sel)
	}
	return out
}

// Lookup resolves selector on c, following the superclass chain.
func (c *Class) Lookup(kind Kind, selector string) (*Implementation, error) {
	for k := c; k != nil; k = k.super {
		if impl, ok := k.LookupLocal(kind, selector); ok {
			return impl, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, Triple{Class: c, Selector: selector, Kind: kind})
}

// LookupLocal returns the slot defined directly on c, ignoring inheritance.
func (c *Class) LookupLocal(kind Kind, selector string) (*Implementation, bool) {
	if !kind.valid() {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	impl, ok := c.slots[kind][selector]
	return impl, ok
}

// Install writes impl into the local slot for selector and returns what the
// slot held before. hadLocal is false when the method was only inherited.
func (c *Class) Install(kind Kind, selector string, impl *Implementation) (prev *Implementation, hadLocal bool, err error) {
	if impl == nil {
		return nil, false, fmt.Errorf("%w: nil implementation", ErrBadImplementation)
	}
	if _, err := c.Lookup(kind, selector); err != nil {
		return nil, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, hadLocal = c.slots[kind][selector]
	c.slots[kind][selector] = impl
	return prev, hadLocal, nil
}

// Restore undoes an Install: the local slot is rewritten to prev when
// hadLocal is true, and removed otherwise so the inherited method applies
// again.
func (c *Class) Restore(kind Kind, selector string, prev *Implementation, hadLocal bool) error {
	if _, err := c.Lookup(kind, selector); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if hadLocal {
		c.slots[kind][selector] = prev
	} else {
		delete(c.slots[kind], selector)
	}
	return nil
}

// Instance is a plain object of some class with a bag of named fields.
type Instance struct {
	class *Class

	mu     sync.RWMutex
	fields map[string]any
}

// Class returns the class the instance was created from.
func (i *Instance) Class() *Class {
	return i.class
}

func (i *Instance) dispatchTarget() (*Class, Kind) {
	return i.class, InstanceMethod
}

// Get returns a field value, or nil.
func (i *Instance) Get(key string) any {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.fields[key]
}

// Set stores a field value.
func (i *Instance) Set(key string, value any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.fields == nil {
		i.fields = make(map[string]any)
	}
	i.fields[key] = value
}

func (i *Instance) String() string {
	return fmt.Sprintf("<%s %p>", i.class.name, i)
}
