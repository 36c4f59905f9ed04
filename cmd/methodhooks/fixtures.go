package main

import (
	"fmt"

	"github.com/codysoyland/methodhooks/pkg/dispatch"
)

// payload is too wide to forward, so takesStruct: can never be wrapped.
type payload struct {
	x [4]int64
}

// defaultPlan wraps everything the fixture classes allow.
const defaultPlan = `
wraps:
  - class: Dummy
    selector: bar
    trace: true
  - class: Dummy
    selector: "foo:bar:"
    trace: true
  - class: Dummy
    selector: "foo:foo:"
    trace: true
  - class: Dummy
    selector: "all:kinds:of:different:types:"
    trace: true
  - class: Dummy
    selector: describe
    trace: true
  - class: Dummy
    selector: sharedDummy
    kind: class
    trace: true
`

// newFixtures registers Base and Dummy.
func newFixtures() (*dispatch.Registry, error) {
	reg := dispatch.NewRegistry()

	base, err := reg.Define("Base", "")
	if err != nil {
		return nil, err
	}
	base.MustAddMethod(dispatch.InstanceMethod, "describe", func(self dispatch.Object) any {
		if obj, ok := self.(*dispatch.Instance); ok {
			return "a " + obj.Class().Name()
		}
		return "something"
	})

	dummy, err := reg.Define("Dummy", "Base")
	if err != nil {
		return nil, err
	}
	dummy.
		MustAddMethod(dispatch.InstanceMethod, "bar", func(self dispatch.Object) {}).
		MustAddMethod(dispatch.InstanceMethod, "foo:bar:", func(self dispatch.Object, x int, obj any) any {
			return fmt.Sprintf("foo %d %v", x, obj)
		}).
		MustAddMethod(dispatch.InstanceMethod, "foo:foo:", func(self dispatch.Object, x, y int) int {
			return x + y
		}).
		MustAddMethod(dispatch.InstanceMethod, "all:kinds:of:different:types:",
			func(self dispatch.Object, chr uint8, obj any, yes bool, ptr *any, ll int64) any {
				return fmt.Sprintf("%c %v %t %v %d", chr, obj, yes, ptr != nil, ll)
			}).
		MustAddMethod(dispatch.InstanceMethod, "to:m:n:ar:u:e:t:",
			func(self dispatch.Object, o, m, n, ar, u, e, t any) {}).
		MustAddMethod(dispatch.InstanceMethod, "takesStruct:", func(self dispatch.Object, s payload) payload {
			return s
		}).
		MustAddMethod(dispatch.ClassMethod, "sharedDummy", func(self dispatch.Object) any {
			return self.(*dispatch.Class).New()
		})

	return reg, nil
}

// demoCall is one message the demo sends.
type demoCall struct {
	class    string
	instance bool
	selector string
	args     []any
}

func demoCalls() []demoCall {
	var ref any = "ref"
	return []demoCall{
		{class: "Dummy", instance: true, selector: "bar"},
		{class: "Dummy", instance: true, selector: "foo:bar:", args: []any{3, "someRef"}},
		{class: "Dummy", instance: true, selector: "foo:foo:", args: []any{2, 5}},
		{class: "Dummy", instance: true, selector: "all:kinds:of:different:types:",
			args: []any{uint8('z'), "obj", true, &ref, int64(1) << 33}},
		{class: "Dummy", instance: true, selector: "describe"},
		{class: "Dummy", selector: "sharedDummy"},
	}
}
