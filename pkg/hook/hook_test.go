package hook

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codysoyland/methodhooks/pkg/dispatch"
	"github.com/codysoyland/methodhooks/pkg/signature"
)

func TestCellZeroValue(t *testing.T) {
	var c Cell
	p := c.Load()
	assert.True(t, p.Empty())
	assert.Nil(t, p.Before)
	assert.Nil(t, p.After)
}

func TestCellSetKeepsOtherHook(t *testing.T) {
	var c Cell
	var calls []string

	c.SetBefore(func(dispatch.Object, signature.Args) { calls = append(calls, "before") })
	c.SetAfter(func(dispatch.Object, signature.Args) { calls = append(calls, "after") })

	p := c.Load()
	require.NotNil(t, p.Before)
	require.NotNil(t, p.After)
	p.Before(nil, signature.Args{})
	p.After(nil, signature.Args{})
	assert.Equal(t, []string{"before", "after"}, calls)

	c.SetBefore(nil)
	p = c.Load()
	assert.Nil(t, p.Before)
	assert.NotNil(t, p.After)
	assert.False(t, p.Empty())

	c.Store(Pair{})
	assert.True(t, c.Load().Empty())
}

func TestCellConcurrentSetters(t *testing.T) {
	var c Cell
	noop := func(dispatch.Object, signature.Args) {}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.SetBefore(noop)
		}()
		go func() {
			defer wg.Done()
			c.SetAfter(noop)
		}()
	}
	wg.Wait()

	// neither setter may drop the other's hook
	p := c.Load()
	assert.NotNil(t, p.Before)
	assert.NotNil(t, p.After)
}

func TestCellSnapshotIsConsistent(t *testing.T) {
	var c Cell
	var seenBefore, seenAfter int
	mark := func(id int) Pair {
		return Pair{
			Before: func(dispatch.Object, signature.Args) { seenBefore = id },
			After:  func(dispatch.Object, signature.Args) { seenAfter = id },
		}
	}
	pairs := []Pair{mark(1), mark(2)}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
				c.Store(pairs[i%2])
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		p := c.Load()
		if p.Empty() {
			continue
		}
		p.Before(nil, signature.Args{})
		p.After(nil, signature.Args{})
		// both hooks come from the same Store
		require.Equal(t, seenBefore, seenAfter)
	}
	close(stop)
	wg.Wait()
}

func TestHandlerFunc(t *testing.T) {
	var got *Request
	h := HandlerFunc(func(req *Request) { got = req })

	req := &Request{Method: "foo:bar:", Hook: HookBefore}
	h.Handle(req)
	assert.Same(t, req, got)
	assert.Equal(t, "func", h.Name())
}
