// Package plan loads YAML descriptions of which methods to wrap and applies
// them to the classes of a dispatch registry.
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codysoyland/methodhooks/pkg/dispatch"
	"github.com/codysoyland/methodhooks/pkg/methodhooks"
	"github.com/codysoyland/methodhooks/pkg/wrapper"
)

// ErrInvalidPlan indicates a plan that fails validation.
var ErrInvalidPlan = errors.New("plan: invalid plan")

// Plan lists the methods to wrap.
type Plan struct {
	Wraps []Entry `yaml:"wraps"`
}

// Entry names one method. With Trace set, the method's calls are routed to
// the session handler; otherwise the method is wrapped without hooks.
type Entry struct {
	Class    string `yaml:"class"`
	Selector string `yaml:"selector"`
	Kind     string `yaml:"kind,omitempty"`
	Trace    bool   `yaml:"trace,omitempty"`
}

func (e Entry) String() string {
	kind := e.Kind
	if kind == "" {
		kind = dispatch.InstanceMethod.String()
	}
	return fmt.Sprintf("%s.%s (%s)", e.Class, e.Selector, kind)
}

// Load reads and validates a plan file.
func Load(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Parse decodes and validates a plan from data.
func Parse(data []byte) (*Plan, error) {
	return Decode(bytes.NewReader(data))
}

// Decode decodes and validates a plan from r. Unknown fields are rejected.
func Decode(r io.Reader) (*Plan, error) {
	var p Plan
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks required fields, kinds and duplicates. It does not look
// at any registry.
func (p *Plan) Validate() error {
	seen := make(map[string]int)
	var errs []error
	for i, e := range p.Wraps {
		if strings.TrimSpace(e.Class) == "" {
			errs = append(errs, fmt.Errorf("wraps[%d]: class is required", i))
		}
		if strings.TrimSpace(e.Selector) == "" {
			errs = append(errs, fmt.Errorf("wraps[%d]: selector is required", i))
		}
		if _, err := dispatch.ParseKind(e.Kind); err != nil {
			errs = append(errs, fmt.Errorf("wraps[%d]: %v", i, err))
			continue
		}
		key := e.String()
		if j, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("wraps[%d]: %s already listed at wraps[%d]", i, key, j))
			continue
		}
		seen[key] = i
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPlan, errors.Join(errs...))
	}
	return nil
}

// Marshal encodes the plan as YAML.
func (p *Plan) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Apply wraps every entry through mh, resolving classes in reg. Entries are
// applied in order; if one fails, the wrappers created so far are closed and
// the error is returned.
func (p *Plan) Apply(reg *dispatch.Registry, mh *methodhooks.MethodHooks) ([]*wrapper.MethodWrapper, error) {
	applied := make([]*wrapper.MethodWrapper, 0, len(p.Wraps))
	rollback := func() {
		for i := len(applied) - 1; i >= 0; i-- {
			_ = applied[i].Close()
		}
	}

	for i, e := range p.Wraps {
		kind, err := dispatch.ParseKind(e.Kind)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("wraps[%d]: %w", i, err)
		}
		class, err := reg.Get(e.Class)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("wraps[%d]: %w", i, err)
		}

		var w *wrapper.MethodWrapper
		if e.Trace {
			w, err = mh.Intercept(class, e.Selector, kind)
		} else {
			w, err = mh.Wrap(class, e.Selector, kind, nil, nil)
		}
		if err != nil {
			rollback()
			return nil, fmt.Errorf("wraps[%d] %s: %w", i, e, err)
		}
		applied = append(applied, w)
	}
	return applied, nil
}
