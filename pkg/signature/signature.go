// Package signature decides which method shapes can be forwarded by a
// trampoline and marshals forwarded arguments into a fixed, tagged array.
package signature

import (
	"errors"
	"fmt"
	"math/bits"
	"reflect"
	"strings"
)

// MaxArgs is the largest number of arguments (receiver excluded) a wrapped
// method may take.
const MaxArgs = 6

// ErrUnsupportedSignature is returned for methods whose parameters or result
// cannot be forwarded generically.
var ErrUnsupportedSignature = errors.New("signature: unsupported signature")

// registerBits is the width of a general purpose register slot. Values wider
// than this are rejected.
var registerBits = bits.UintSize

// Type tags a forwarded value. Only the types listed here are supported.
type Type uint8

const (
	Invalid Type = iota
	Bool
	Int
	Int8
	Int16
	Int32
	Int64
	Uint
	Uint8
	Uint16
	Uint32
	Uint64
	Uintptr
	Float32
	Float64
	Pointer
	UnsafePointer
	Map
	Chan
	Func
	Object // any interface value, including dispatch.Object and error
)

var typeNames = [...]string{
	Invalid:       "invalid",
	Bool:          "bool",
	Int:           "int",
	Int8:          "int8",
	Int16:         "int16",
	Int32:         "int32",
	Int64:         "int64",
	Uint:          "uint",
	Uint8:         "uint8",
	Uint16:        "uint16",
	Uint32:        "uint32",
	Uint64:        "uint64",
	Uintptr:       "uintptr",
	Float32:       "float32",
	Float64:       "float64",
	Pointer:       "pointer",
	UnsafePointer: "unsafe.Pointer",
	Map:           "map",
	Chan:          "chan",
	Func:          "func",
	Object:        "object",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// kindTypes maps reflect kinds onto the capability list. Kinds missing here
// (struct, array, slice, string, complex) are aggregates or span more than one
// register slot.
var kindTypes = map[reflect.Kind]Type{
	reflect.Bool:          Bool,
	reflect.Int:           Int,
	reflect.Int8:          Int8,
	reflect.Int16:         Int16,
	reflect.Int32:         Int32,
	reflect.Int64:         Int64,
	reflect.Uint:          Uint,
	reflect.Uint8:         Uint8,
	reflect.Uint16:        Uint16,
	reflect.Uint32:        Uint32,
	reflect.Uint64:        Uint64,
	reflect.Uintptr:       Uintptr,
	reflect.Float32:       Float32,
	reflect.Float64:       Float64,
	reflect.Pointer:       Pointer,
	reflect.UnsafePointer: UnsafePointer,
	reflect.Map:           Map,
	reflect.Chan:          Chan,
	reflect.Func:          Func,
	reflect.Interface:     Object,
}

// TypeOf returns the tag for t, or an error wrapping ErrUnsupportedSignature.
func TypeOf(t reflect.Type) (Type, error) {
	tag, ok := kindTypes[t.Kind()]
	if !ok {
		return Invalid, fmt.Errorf("%w: %s is not a supported argument type", ErrUnsupportedSignature, t)
	}
	if int(t.Size())*8 > registerBits && tag != Object {
		return Invalid, fmt.Errorf("%w: %s is wider than a %d-bit register", ErrUnsupportedSignature, t, registerBits)
	}
	return tag, nil
}

// Signature describes a method implementation: a func whose first parameter
// is the receiver, followed by up to MaxArgs arguments, returning zero or one
// value.
type Signature struct {
	Func     reflect.Type
	Receiver reflect.Type
	Params   []Type
	Result   Type // Invalid when the method returns nothing
}

// NumArgs returns the number of forwarded arguments, receiver excluded.
func (s Signature) NumArgs() int {
	return len(s.Params)
}

// HasResult reports whether the method returns a value.
func (s Signature) HasResult() bool {
	return s.Result != Invalid
}

func (s Signature) String() string {
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.String()
	}
	out := "(" + strings.Join(params, ", ") + ")"
	if s.HasResult() {
		out += " " + s.Result.String()
	}
	return out
}

// Inspect checks fn against the capability list and returns its signature.
func Inspect(fn reflect.Type) (Signature, error) {
	if fn == nil || fn.Kind() != reflect.Func {
		return Signature{}, fmt.Errorf("%w: %v is not a func", ErrUnsupportedSignature, fn)
	}
	if fn.NumIn() == 0 {
		return Signature{}, fmt.Errorf("%w: %s has no receiver parameter", ErrUnsupportedSignature, fn)
	}
	if fn.IsVariadic() {
		return Signature{}, fmt.Errorf("%w: %s is variadic", ErrUnsupportedSignature, fn)
	}
	if n := fn.NumIn() - 1; n > MaxArgs {
		return Signature{}, fmt.Errorf("%w: %s takes %d arguments, at most %d are supported",
			ErrUnsupportedSignature, fn, n, MaxArgs)
	}
	if fn.NumOut() > 1 {
		return Signature{}, fmt.Errorf("%w: %s returns %d values, at most 1 is supported",
			ErrUnsupportedSignature, fn, fn.NumOut())
	}

	sig := Signature{
		Func:     fn,
		Receiver: fn.In(0),
		Params:   make([]Type, 0, fn.NumIn()-1),
	}
	for i := 1; i < fn.NumIn(); i++ {
		tag, err := TypeOf(fn.In(i))
		if err != nil {
			return Signature{}, fmt.Errorf("argument %d: %w", i-1, err)
		}
		sig.Params = append(sig.Params, tag)
	}
	if fn.NumOut() == 1 {
		tag, err := TypeOf(fn.Out(0))
		if err != nil {
			return Signature{}, fmt.Errorf("result: %w", err)
		}
		sig.Result = tag
	}
	return sig, nil
}
