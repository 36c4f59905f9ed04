package hook

import (
	"time"

	"github.com/codysoyland/methodhooks/pkg/dispatch"
)

// Type says which side of the original call a hook ran on.
type Type string

const (
	HookBefore Type = "before" // Before the original implementation
	HookAfter  Type = "after"  // After the original implementation
)

// Request describes one hook invocation, for handlers that prefer a record
// over raw arguments.
type Request struct {
	// Call site
	Triple   dispatch.Triple `json:"-"`
	Method   string          `json:"method"`
	Receiver dispatch.Object `json:"-"`
	Args     []any           `json:"args,omitempty"`

	// Hook context
	Hook Type      `json:"hook"`
	Seq  uint64    `json:"seq"` // increases with every request of one interceptor
	Time time.Time `json:"time"`

	// Additional metadata
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Handler receives a Request for every hook invocation of the wrappers it is
// attached to.
type Handler interface {
	// Name returns a human-readable name for this handler
	Name() string

	// Handle observes one hook invocation
	Handle(req *Request)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(req *Request)

// Name returns "func".
func (f HandlerFunc) Name() string { return "func" }

// Handle calls f(req).
func (f HandlerFunc) Handle(req *Request) { f(req) }
