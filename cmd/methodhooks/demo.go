package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/codysoyland/methodhooks/pkg/dispatch"
	"github.com/codysoyland/methodhooks/pkg/interceptor"
	"github.com/codysoyland/methodhooks/pkg/methodhooks"
	"github.com/codysoyland/methodhooks/pkg/plan"
)

// runDemo sends the demo calls three times: unwrapped, with p applied, and
// after the session is closed. Results must match across all three runs and
// hooks must fire only in the second.
func runDemo(out io.Writer, p *plan.Plan, logger zerolog.Logger, verbose bool) error {
	reg, err := newFixtures()
	if err != nil {
		return fmt.Errorf("failed to build fixtures: %w", err)
	}

	rec := interceptor.NewRecorder("demo")
	handler := interceptor.Multi{rec, interceptor.NewLogHandler(logger, zerolog.DebugLevel)}
	mh, err := methodhooks.New(
		methodhooks.WithHandler(handler),
		methodhooks.WithLogger(logger),
		methodhooks.WithVerbose(verbose),
	)
	if err != nil {
		return err
	}
	defer mh.Close()

	fmt.Fprintln(out, "== original")
	baseline, err := sendAll(out, reg, rec)
	if err != nil {
		return err
	}

	applied, err := p.Apply(reg, mh)
	if err != nil {
		return fmt.Errorf("failed to apply plan: %w", err)
	}
	fmt.Fprintf(out, "== wrapped (%d methods)\n", len(applied))
	wrapped, err := sendAll(out, reg, rec)
	if err != nil {
		return err
	}
	if !slices.Equal(baseline, wrapped) {
		return fmt.Errorf("wrapped results differ from the originals")
	}

	if err := mh.Close(); err != nil {
		return fmt.Errorf("failed to restore methods: %w", err)
	}
	rec.Reset()
	fmt.Fprintln(out, "== restored")
	restored, err := sendAll(out, reg, rec)
	if err != nil {
		return err
	}
	if !slices.Equal(baseline, restored) {
		return fmt.Errorf("restored results differ from the originals")
	}
	if n := len(rec.Requests()); n != 0 {
		return fmt.Errorf("%d hooks ran after restore", n)
	}
	return nil
}

// sendAll sends each demo call, printing its result and the hook events it
// produced.
func sendAll(out io.Writer, reg *dispatch.Registry, rec *interceptor.Recorder) ([]string, error) {
	results := make([]string, 0, len(demoCalls()))
	for _, call := range demoCalls() {
		class, err := reg.Get(call.class)
		if err != nil {
			return nil, err
		}
		var recv dispatch.Object = class
		if call.instance {
			recv = class.New()
		}

		seen := len(rec.Requests())
		res, err := dispatch.Send(recv, call.selector, call.args...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", call.selector, err)
		}

		line := fmt.Sprintf("%s %s(%s) -> %s", call.class, call.selector, formatValues(call.args), formatValues(res))
		fmt.Fprintf(out, "  %s\n", line)
		for _, req := range rec.Requests()[seen:] {
			fmt.Fprintf(out, "    %s hook\n", req.Hook)
		}
		results = append(results, line)
	}
	return results, nil
}

func formatValues(vals []any) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		switch v := v.(type) {
		case *dispatch.Instance:
			parts[i] = "<" + v.Class().Name() + ">"
		case *any:
			parts[i] = "&" + fmt.Sprint(*v)
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(parts, ", ")
}
