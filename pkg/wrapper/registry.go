package wrapper

import (
	"sync"

	"github.com/codysoyland/methodhooks/pkg/dispatch"
)

// owners records which wrapper currently has its trampoline installed for a
// triple. Entries are only touched while the triple's lock is held.
var (
	ownersMu sync.RWMutex
	owners   = make(map[dispatch.Triple]*MethodWrapper)
)

// tripleLocks serializes Activate and Deactivate per triple. An entry lives
// only while some goroutine holds or waits for it.
var (
	tripleLocksMu sync.Mutex
	tripleLocks   = make(map[dispatch.Triple]*tripleLock)
)

type tripleLock struct {
	mu   sync.Mutex
	refs int
}

func lockTriple(t dispatch.Triple) func() {
	tripleLocksMu.Lock()
	l, ok := tripleLocks[t]
	if !ok {
		l = &tripleLock{}
		tripleLocks[t] = l
	}
	l.refs++
	tripleLocksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		tripleLocksMu.Lock()
		defer tripleLocksMu.Unlock()
		if l.refs--; l.refs == 0 {
			delete(tripleLocks, t)
		}
	}
}

func lockedTriples() int {
	tripleLocksMu.Lock()
	defer tripleLocksMu.Unlock()
	return len(tripleLocks)
}

func ownerOf(t dispatch.Triple) *MethodWrapper {
	ownersMu.RLock()
	defer ownersMu.RUnlock()
	return owners[t]
}

func claim(t dispatch.Triple, w *MethodWrapper) {
	ownersMu.Lock()
	defer ownersMu.Unlock()
	owners[t] = w
}

func release(t dispatch.Triple, w *MethodWrapper) {
	ownersMu.Lock()
	defer ownersMu.Unlock()
	if owners[t] == w {
		delete(owners, t)
	}
}

// IsWrapped reports whether an active wrapper owns t.
func IsWrapped(t dispatch.Triple) bool {
	return ownerOf(t) != nil
}

// Owner returns the active wrapper for t, if any.
func Owner(t dispatch.Triple) (*MethodWrapper, bool) {
	w := ownerOf(t)
	return w, w != nil
}

// Active returns the triples currently owned by active wrappers.
func Active() []dispatch.Triple {
	ownersMu.RLock()
	defer ownersMu.RUnlock()
	out := make([]dispatch.Triple, 0, len(owners))
	for t := range owners {
		out = append(out, t)
	}
	return out
}
