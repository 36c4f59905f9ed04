// Package hook defines the callbacks run around a wrapped method and the
// atomic cell trampolines read them from.
package hook

import (
	"sync/atomic"

	"github.com/codysoyland/methodhooks/pkg/dispatch"
	"github.com/codysoyland/methodhooks/pkg/signature"
)

// Hook is called with the receiver and the forwarded arguments of a wrapped
// call. It runs for its side effects only and cannot change the call.
type Hook func(self dispatch.Object, args signature.Args)

// Pair is the before and after hook of one wrapper. Either may be nil.
type Pair struct {
	Before Hook
	After  Hook
}

// Empty reports whether neither hook is set.
func (p Pair) Empty() bool {
	return p.Before == nil && p.After == nil
}

// Cell publishes a Pair atomically. Readers always see both hooks from the
// same publish. The zero value holds an empty pair.
type Cell struct {
	p atomic.Pointer[Pair]
}

// Load returns the current pair.
func (c *Cell) Load() Pair {
	if p := c.p.Load(); p != nil {
		return *p
	}
	return Pair{}
}

// Store replaces both hooks in one publish.
func (c *Cell) Store(p Pair) {
	c.p.Store(&p)
}

// SetBefore replaces the before hook and keeps the after hook.
func (c *Cell) SetBefore(h Hook) {
	c.update(func(p *Pair) { p.Before = h })
}

// SetAfter replaces the after hook and keeps the before hook.
func (c *Cell) SetAfter(h Hook) {
	c.update(func(p *Pair) { p.After = h })
}

func (c *Cell) update(mutate func(*Pair)) {
	for {
		old := c.p.Load()
		next := Pair{}
		if old != nil {
			next = *old
		}
		mutate(&next)
		if c.p.CompareAndSwap(old, &next) {
			return
		}
	}
}
