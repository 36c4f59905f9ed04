package trampoline

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codysoyland/methodhooks/pkg/dispatch"
	"github.com/codysoyland/methodhooks/pkg/hook"
	"github.com/codysoyland/methodhooks/pkg/signature"
)

// callLog records events in order; hooks and bodies may run on many goroutines.
type callLog struct {
	mu     sync.Mutex
	events []string
}

func (l *callLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *callLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func mustImpl(t *testing.T, fn any) *dispatch.Implementation {
	t.Helper()
	impl, err := dispatch.NewImplementation(fn)
	require.NoError(t, err)
	return impl
}

func invoke(t *testing.T, impl *dispatch.Implementation, self dispatch.Object, args ...any) []any {
	t.Helper()
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		in[i] = reflect.ValueOf(a)
	}
	out, err := impl.Invoke(self, in)
	require.NoError(t, err)
	res := make([]any, len(out))
	for i, v := range out {
		res[i] = v.Interface()
	}
	return res
}

func TestBuildOrdering(t *testing.T) {
	log := &callLog{}
	class := dispatch.NewClass("Dummy", nil)
	self := class.New()
	ref := class.New()

	original := mustImpl(t, func(recv dispatch.Object, x int, obj any) any {
		log.add("original")
		return x * 2
	})

	var cell hook.Cell
	cell.Store(hook.Pair{
		Before: func(recv dispatch.Object, args signature.Args) {
			assert.Same(t, self, recv)
			assert.Equal(t, []any{3, ref}, args.Values())
			log.add("before")
		},
		After: func(recv dispatch.Object, args signature.Args) {
			assert.Same(t, self, recv)
			assert.Equal(t, 2, args.Len())
			log.add("after")
		},
	})

	tramp, err := Build(original, &cell)
	require.NoError(t, err)
	assert.NotSame(t, original, tramp)
	assert.Equal(t, original.Type(), tramp.Type())

	out := invoke(t, tramp, self, 3, any(ref))
	assert.Equal(t, []any{6}, out)
	assert.Equal(t, []string{"before", "original", "after"}, log.get())
}

func TestBuildWithoutHooks(t *testing.T) {
	var cell hook.Cell
	original := mustImpl(t, func(recv dispatch.Object, x int) int { return x + 1 })

	tramp, err := Build(original, &cell)
	require.NoError(t, err)
	assert.Equal(t, []any{42}, invoke(t, tramp, dispatch.NewClass("C", nil).New(), 41))
}

func TestBuildHookReturnValuesCannotAlterResult(t *testing.T) {
	var cell hook.Cell
	cell.SetAfter(func(recv dispatch.Object, args signature.Args) {
		// hooks only observe; there is nothing to return
	})
	original := mustImpl(t, func(recv dispatch.Object) any { return "original" })

	tramp, err := Build(original, &cell)
	require.NoError(t, err)
	assert.Equal(t, []any{"original"}, invoke(t, tramp, dispatch.NewClass("C", nil)))
}

func TestBuildEveryArity(t *testing.T) {
	fns := []any{
		func(dispatch.Object) int { return 0 },
		func(_ dispatch.Object, a int) int { return a },
		func(_ dispatch.Object, a, b int) int { return a + b },
		func(_ dispatch.Object, a, b, c int) int { return a + b + c },
		func(_ dispatch.Object, a, b, c, d int) int { return a + b + c + d },
		func(_ dispatch.Object, a, b, c, d, e int) int { return a + b + c + d + e },
		func(_ dispatch.Object, a, b, c, d, e, f int) int { return a + b + c + d + e + f },
	}
	self := dispatch.NewClass("C", nil).New()

	for n, fn := range fns {
		var seen int
		var cell hook.Cell
		cell.SetBefore(func(_ dispatch.Object, args signature.Args) { seen = args.Len() })

		tramp, err := Build(mustImpl(t, fn), &cell)
		require.NoError(t, err)

		args := make([]any, n)
		want := 0
		for i := range args {
			args[i] = i + 1
			want += i + 1
		}
		assert.Equal(t, []any{want}, invoke(t, tramp, self, args...), "arity %d", n)
		assert.Equal(t, n, seen, "arity %d", n)
	}
}

func TestBuildRejectsUnsupportedSignatures(t *testing.T) {
	type big struct{ x [4]int64 }

	tests := []struct {
		name string
		fn   any
	}{
		{name: "seven arguments", fn: func(_ dispatch.Object, a, b, c, d, e, f, g any) {}},
		{name: "struct argument", fn: func(_ dispatch.Object, s big) big { return s }},
		{name: "string argument", fn: func(_ dispatch.Object, s string) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cell hook.Cell
			_, err := Build(mustImpl(t, tt.fn), &cell)
			assert.ErrorIs(t, err, signature.ErrUnsupportedSignature)
		})
	}

	var cell hook.Cell
	_, err := Build(nil, &cell)
	assert.Error(t, err)
	_, err = Build(mustImpl(t, func(dispatch.Object) {}), nil)
	assert.Error(t, err)
}

func TestBuildPropagatesPanics(t *testing.T) {
	self := dispatch.NewClass("C", nil).New()

	t.Run("original", func(t *testing.T) {
		after := false
		var cell hook.Cell
		cell.SetAfter(func(dispatch.Object, signature.Args) { after = true })
		tramp, err := Build(mustImpl(t, func(dispatch.Object) { panic("original failed") }), &cell)
		require.NoError(t, err)

		assert.PanicsWithValue(t, "original failed", func() { invoke(t, tramp, self) })
		assert.False(t, after)
	})

	t.Run("before hook", func(t *testing.T) {
		called := false
		var cell hook.Cell
		cell.SetBefore(func(dispatch.Object, signature.Args) { panic("hook failed") })
		tramp, err := Build(mustImpl(t, func(dispatch.Object) { called = true }), &cell)
		require.NoError(t, err)

		assert.PanicsWithValue(t, "hook failed", func() { invoke(t, tramp, self) })
		assert.False(t, called)
	})
}

func TestBuildReadsHooksPerCall(t *testing.T) {
	log := &callLog{}
	var cell hook.Cell
	tramp, err := Build(mustImpl(t, func(dispatch.Object) {}), &cell)
	require.NoError(t, err)
	self := dispatch.NewClass("C", nil).New()

	invoke(t, tramp, self)
	cell.SetBefore(func(dispatch.Object, signature.Args) { log.add("first") })
	invoke(t, tramp, self)
	cell.SetBefore(func(dispatch.Object, signature.Args) { log.add("second") })
	invoke(t, tramp, self)

	assert.Equal(t, []string{"first", "second"}, log.get())
}

func TestBuildIsReentrant(t *testing.T) {
	var count sync.WaitGroup
	var mu sync.Mutex
	calls := 0

	var cell hook.Cell
	cell.SetBefore(func(dispatch.Object, signature.Args) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	tramp, err := Build(mustImpl(t, func(_ dispatch.Object, x int) int { return x }), &cell)
	require.NoError(t, err)
	self := dispatch.NewClass("C", nil).New()

	for i := 0; i < 32; i++ {
		count.Add(1)
		go func(i int) {
			defer count.Done()
			out, err := tramp.Invoke(self, []reflect.Value{reflect.ValueOf(i)})
			if assert.NoError(t, err) {
				assert.Equal(t, i, int(out[0].Int()))
			}
		}(i)
	}
	count.Wait()
	assert.Equal(t, 32, calls)
}
