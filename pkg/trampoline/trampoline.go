// Package trampoline generates replacement method implementations that run
// a before hook, the original implementation and an after hook, in that
// order, and return the original's result unchanged.
package trampoline

import (
	"fmt"
	"reflect"

	"github.com/codysoyland/methodhooks/pkg/dispatch"
	"github.com/codysoyland/methodhooks/pkg/hook"
	"github.com/codysoyland/methodhooks/pkg/signature"
)

// thunk invokes fn with the receiver and exactly one arity's worth of
// arguments taken from args.
type thunk func(fn, self reflect.Value, args *signature.Args) []reflect.Value

var thunks = [signature.MaxArgs + 1]thunk{
	func(fn, self reflect.Value, _ *signature.Args) []reflect.Value {
		return fn.Call([]reflect.Value{self})
	},
	func(fn, self reflect.Value, a *signature.Args) []reflect.Value {
		return fn.Call([]reflect.Value{self, a.At(0).Reflect()})
	},
	func(fn, self reflect.Value, a *signature.Args) []reflect.Value {
		return fn.Call([]reflect.Value{self, a.At(0).Reflect(), a.At(1).Reflect()})
	},
	func(fn, self reflect.Value, a *signature.Args) []reflect.Value {
		return fn.Call([]reflect.Value{self, a.At(0).Reflect(), a.At(1).Reflect(), a.At(2).Reflect()})
	},
	func(fn, self reflect.Value, a *signature.Args) []reflect.Value {
		return fn.Call([]reflect.Value{self, a.At(0).Reflect(), a.At(1).Reflect(), a.At(2).Reflect(),
			a.At(3).Reflect()})
	},
	func(fn, self reflect.Value, a *signature.Args) []reflect.Value {
		return fn.Call([]reflect.Value{self, a.At(0).Reflect(), a.At(1).Reflect(), a.At(2).Reflect(),
			a.At(3).Reflect(), a.At(4).Reflect()})
	},
	func(fn, self reflect.Value, a *signature.Args) []reflect.Value {
		return fn.Call([]reflect.Value{self, a.At(0).Reflect(), a.At(1).Reflect(), a.At(2).Reflect(),
			a.At(3).Reflect(), a.At(4).Reflect(), a.At(5).Reflect()})
	},
}

// Build returns an implementation with the same func type as original that
// reads its hooks from cell on every call. Unsupported signatures are
// rejected here, so callers can build before touching any slot.
func Build(original *dispatch.Implementation, cell *hook.Cell) (*dispatch.Implementation, error) {
	if original == nil {
		return nil, fmt.Errorf("trampoline: nil original implementation")
	}
	if cell == nil {
		return nil, fmt.Errorf("trampoline: nil hook cell")
	}
	sig, err := signature.Inspect(original.Type())
	if err != nil {
		return nil, err
	}

	fn := original.Func()
	call := thunks[sig.NumArgs()]

	body := func(in []reflect.Value) []reflect.Value {
		hooks := cell.Load()
		args := signature.Marshal(sig, in[1:])
		self := receiver(in[0])

		if hooks.Before != nil {
			hooks.Before(self, args)
		}
		out := call(fn, in[0], &args)
		if hooks.After != nil {
			hooks.After(self, args)
		}
		return out
	}

	return dispatch.NewImplementation(reflect.MakeFunc(sig.Func, body).Interface())
}

func receiver(v reflect.Value) dispatch.Object {
	if v.Kind() == reflect.Interface && v.IsNil() {
		return nil
	}
	self, _ := v.Interface().(dispatch.Object)
	return self
}
