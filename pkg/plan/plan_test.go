package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codysoyland/methodhooks/pkg/dispatch"
	"github.com/codysoyland/methodhooks/pkg/interceptor"
	"github.com/codysoyland/methodhooks/pkg/methodhooks"
	"github.com/codysoyland/methodhooks/pkg/wrapper"
)

const samplePlan = `
wraps:
  - class: Dummy
    selector: "foo:bar:"
    trace: true
  - class: Dummy
    selector: make
    kind: class
`

func newRegistry(t *testing.T) *dispatch.Registry {
	t.Helper()
	reg := dispatch.NewRegistry()
	dummy, err := reg.Define("Dummy", "")
	require.NoError(t, err)
	dummy.MustAddMethod(dispatch.InstanceMethod, "foo:bar:", func(self dispatch.Object, x int, obj any) any { return x }).
		MustAddMethod(dispatch.ClassMethod, "make", func(self dispatch.Object) any { return self.(*dispatch.Class).New() }).
		MustAddMethod(dispatch.InstanceMethod, "name:", func(self dispatch.Object, s string) {})
	return reg
}

func TestParse(t *testing.T) {
	p, err := Parse([]byte(samplePlan))
	require.NoError(t, err)
	require.Len(t, p.Wraps, 2)
	assert.Equal(t, Entry{Class: "Dummy", Selector: "foo:bar:", Trace: true}, p.Wraps[0])
	assert.Equal(t, "Dummy.foo:bar: (instance)", p.Wraps[0].String())
	assert.Equal(t, "Dummy.make (class)", p.Wraps[1].String())

	empty, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Wraps)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		errorMsg string
	}{
		{
			name:     "malformed yaml",
			data:     "wraps: [",
			errorMsg: "invalid plan",
		},
		{
			name:     "unknown field",
			data:     "wraps:\n  - class: A\n    selector: b\n    colour: red\n",
			errorMsg: "colour",
		},
		{
			name:     "missing class",
			data:     "wraps:\n  - selector: b\n",
			errorMsg: "class is required",
		},
		{
			name:     "missing selector",
			data:     "wraps:\n  - class: A\n",
			errorMsg: "selector is required",
		},
		{
			name:     "bad kind",
			data:     "wraps:\n  - class: A\n    selector: b\n    kind: static\n",
			errorMsg: "unknown method kind",
		},
		{
			name:     "duplicate",
			data:     "wraps:\n  - class: A\n    selector: b\n  - class: A\n    selector: b\n    kind: instance\n",
			errorMsg: "already listed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidPlan)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePlan), 0600))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, p.Wraps, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	p, err := Parse([]byte(samplePlan))
	require.NoError(t, err)

	data, err := p.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind: class")

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, p, again)
}

func TestApply(t *testing.T) {
	reg := newRegistry(t)
	rec := interceptor.NewRecorder("rec")
	mh, err := methodhooks.New(methodhooks.WithHandler(rec))
	require.NoError(t, err)
	defer mh.Close()

	p, err := Parse([]byte(samplePlan))
	require.NoError(t, err)

	applied, err := p.Apply(reg, mh)
	require.NoError(t, err)
	require.Len(t, applied, 2)
	for _, w := range applied {
		assert.True(t, w.IsActive())
	}

	dummy, err := reg.Get("Dummy")
	require.NoError(t, err)
	_, err = dispatch.Send(dummy.New(), "foo:bar:", 1, nil)
	require.NoError(t, err)
	_, err = dispatch.Send(dummy, "make")
	require.NoError(t, err)

	// only the traced entry reaches the handler
	assert.Equal(t, []string{
		"before Dummy.foo:bar: (instance)",
		"after Dummy.foo:bar: (instance)",
	}, rec.Events())

	require.NoError(t, mh.Close())
	for _, w := range applied {
		assert.False(t, w.IsActive())
	}
}

func TestApplyRollsBack(t *testing.T) {
	reg := newRegistry(t)
	dummy, err := reg.Get("Dummy")
	require.NoError(t, err)
	original, _ := dummy.LookupLocal(dispatch.InstanceMethod, "foo:bar:")

	tests := []struct {
		name string
		plan string
	}{
		{
			name: "unknown class",
			plan: "wraps:\n  - class: Dummy\n    selector: \"foo:bar:\"\n  - class: Ghost\n    selector: x\n",
		},
		{
			name: "unsupported signature",
			plan: "wraps:\n  - class: Dummy\n    selector: \"foo:bar:\"\n  - class: Dummy\n    selector: \"name:\"\n",
		},
		{
			name: "missing method",
			plan: "wraps:\n  - class: Dummy\n    selector: \"foo:bar:\"\n  - class: Dummy\n    selector: gone\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mh, err := methodhooks.New()
			require.NoError(t, err)
			defer mh.Close()

			p, err := Parse([]byte(tt.plan))
			require.NoError(t, err)

			applied, err := p.Apply(reg, mh)
			assert.Error(t, err)
			assert.Nil(t, applied)

			current, _ := dummy.LookupLocal(dispatch.InstanceMethod, "foo:bar:")
			assert.Same(t, original, current)
			assert.False(t, wrapper.IsWrapped(dispatch.Triple{Class: dummy, Selector: "foo:bar:", Kind: dispatch.InstanceMethod}))
		})
	}
}
