package signature

import (
	"fmt"
	"reflect"
)

// Arg is one forwarded argument together with its type tag.
type Arg struct {
	Type  Type
	value reflect.Value
}

// Value returns the argument as an interface value. Nil interface arguments
// are returned as nil.
func (a Arg) Value() any {
	if !a.value.IsValid() {
		return nil
	}
	return a.value.Interface()
}

// Reflect returns the argument exactly as it was passed, with its declared type.
func (a Arg) Reflect() reflect.Value {
	return a.value
}

// Int returns signed integer arguments widened to int64.
func (a Arg) Int() int64 {
	return a.value.Int()
}

// Uint returns unsigned integer arguments widened to uint64.
func (a Arg) Uint() uint64 {
	return a.value.Uint()
}

// Float returns float arguments widened to float64.
func (a Arg) Float() float64 {
	return a.value.Float()
}

// Bool returns the value of a bool argument.
func (a Arg) Bool() bool {
	return a.value.Bool()
}

func (a Arg) String() string {
	return fmt.Sprintf("%s(%v)", a.Type, a.Value())
}

// Args is the fixed-size argument array handed to hooks and thunks. The zero
// value holds no arguments.
type Args struct {
	n    int
	vals [MaxArgs]Arg
}

// Len returns the number of arguments.
func (a Args) Len() int {
	return a.n
}

// At returns argument i. It panics if i is out of range.
func (a Args) At(i int) Arg {
	if i < 0 || i >= a.n {
		panic(fmt.Sprintf("signature: argument index %d out of range [0:%d]", i, a.n))
	}
	return a.vals[i]
}

// Values returns the arguments as interface values.
func (a Args) Values() []any {
	out := make([]any, a.n)
	for i := 0; i < a.n; i++ {
		out[i] = a.vals[i].Value()
	}
	return out
}

// Marshal tags in according to sig. in holds the arguments without the
// receiver and must match sig.NumArgs.
func Marshal(sig Signature, in []reflect.Value) Args {
	if len(in) != len(sig.Params) {
		panic(fmt.Sprintf("signature: %d arguments passed to %s", len(in), sig))
	}
	var args Args
	for i, v := range in {
		args.vals[i] = Arg{Type: sig.Params[i], value: v}
	}
	args.n = len(in)
	return args
}
