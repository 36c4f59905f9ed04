package dispatch

import (
	"fmt"
	"math"
	"reflect"
)

// Resolve returns the implementation a message to recv would run right now.
func Resolve(recv Object, selector string) (*Implementation, error) {
	if recv == nil {
		return nil, fmt.Errorf("%w: nil receiver for %s", ErrBadArgument, selector)
	}
	class, kind := recv.dispatchTarget()
	return class.Lookup(kind, selector)
}

// RespondsTo reports whether recv can handle selector.
func RespondsTo(recv Object, selector string) bool {
	_, err := Resolve(recv, selector)
	return err == nil
}

// Send resolves selector on recv through its class slots and calls the
// implementation. Arguments are assigned to the declared parameter types;
// untyped numeric literals are converted between numeric kinds, and nil
// becomes the zero value. Panics raised by the implementation propagate to
// the caller.
func Send(recv Object, selector string, args ...any) ([]any, error) {
	impl, err := Resolve(recv, selector)
	if err != nil {
		return nil, err
	}
	in, err := convertArgs(impl.Type(), selector, args)
	if err != nil {
		return nil, err
	}
	out, err := impl.Invoke(recv, in)
	if err != nil {
		return nil, err
	}
	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, nil
}

// SendAs sends a message and returns its single result as T. A method
// returning nothing yields the zero T.
func SendAs[T any](recv Object, selector string, args ...any) (T, error) {
	var zero T
	out, err := Send(recv, selector, args...)
	if err != nil {
		return zero, err
	}
	if len(out) == 0 || out[0] == nil {
		return zero, nil
	}
	v, ok := out[0].(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T, not %T", ErrBadArgument, selector, out[0], zero)
	}
	return v, nil
}

func convertArgs(fn reflect.Type, selector string, args []any) ([]reflect.Value, error) {
	if want := fn.NumIn() - 1; len(args) != want {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrBadArgument, selector, want, len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		param := fn.In(i + 1)
		if arg == nil {
			switch param.Kind() {
			case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Chan,
				reflect.Func, reflect.Slice, reflect.UnsafePointer:
				in[i] = reflect.Zero(param)
				continue
			}
			return nil, fmt.Errorf("%w: %s argument %d: nil is not a %s", ErrBadArgument, selector, i, param)
		}
		v := reflect.ValueOf(arg)
		switch {
		case v.Type().AssignableTo(param):
			in[i] = v.Convert(param)
		case isNumeric(v.Kind()) && isNumeric(param.Kind()):
			if !fitsNumeric(v, param) {
				return nil, fmt.Errorf("%w: %s argument %d: %v does not fit in %s", ErrBadArgument, selector, i, arg, param)
			}
			in[i] = v.Convert(param)
		default:
			return nil, fmt.Errorf("%w: %s argument %d: %T is not a %s", ErrBadArgument, selector, i, arg, param)
		}
	}
	return in, nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// fitsNumeric reports whether v converts to the numeric type t without
// losing its value. Floats only convert to integers when they are whole.
func fitsNumeric(v reflect.Value, t reflect.Type) bool {
	dst := reflect.New(t).Elem()
	switch {
	case v.CanInt():
		n := v.Int()
		switch {
		case dst.CanInt():
			return !dst.OverflowInt(n)
		case dst.CanUint():
			return n >= 0 && !dst.OverflowUint(uint64(n))
		default:
			return !dst.OverflowFloat(float64(n))
		}
	case v.CanUint():
		n := v.Uint()
		switch {
		case dst.CanInt():
			return n <= math.MaxInt64 && !dst.OverflowInt(int64(n))
		case dst.CanUint():
			return !dst.OverflowUint(n)
		default:
			return !dst.OverflowFloat(float64(n))
		}
	default:
		f := v.Float()
		if dst.CanFloat() {
			return math.IsNaN(f) || math.IsInf(f, 0) || !dst.OverflowFloat(f)
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return false
		}
		if dst.CanInt() {
			return f >= math.MinInt64 && f < math.MaxInt64 && !dst.OverflowInt(int64(f))
		}
		return f >= 0 && f < math.MaxUint64 && !dst.OverflowUint(uint64(f))
	}
}
