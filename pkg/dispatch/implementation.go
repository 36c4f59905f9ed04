package dispatch

import (
	"fmt"
	"reflect"
)

// Implementation is the value stored in a method slot. Two slots hold the
// same implementation only if they hold the same pointer.
type Implementation struct {
	fn reflect.Value
}

// NewImplementation wraps fn, which must be a non-nil func whose first
// parameter can receive an Object: either an interface Object satisfies, or
// a type that itself satisfies Object.
func NewImplementation(fn any) (*Implementation, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%w: %T is not a func", ErrBadImplementation, fn)
	}
	t := v.Type()
	if t.NumIn() == 0 {
		return nil, fmt.Errorf("%w: %s has no receiver parameter", ErrBadImplementation, t)
	}
	recv := t.In(0)
	if !(recv.Kind() == reflect.Interface && objectType.Implements(recv)) && !recv.Implements(objectType) {
		return nil, fmt.Errorf("%w: receiver type %s does not accept dispatch.Object", ErrBadImplementation, recv)
	}
	return &Implementation{fn: v}, nil
}

// Func returns the underlying func value.
func (i *Implementation) Func() reflect.Value {
	return i.fn
}

// Type returns the func type of the implementation.
func (i *Implementation) Type() reflect.Type {
	return i.fn.Type()
}

// Invoke calls the implementation with recv and already converted
// arguments.
func (i *Implementation) Invoke(recv Object, args []reflect.Value) ([]reflect.Value, error) {
	t := i.fn.Type()
	rv := reflect.ValueOf(recv)
	if !rv.IsValid() || !rv.Type().AssignableTo(t.In(0)) {
		return nil, fmt.Errorf("%w: receiver %T is not assignable to %s", ErrBadArgument, recv, t.In(0))
	}
	in := make([]reflect.Value, 0, len(args)+1)
	in = append(in, rv)
	in = append(in, args...)
	return i.fn.Call(in), nil
}

func (i *Implementation) String() string {
	return fmt.Sprintf("impl(%s)@%p", i.fn.Type(), i)
}
