package harness

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as stable text for golden comparison:
// a header with the scenario name, firing order and step count, then one
// line per collected row.
func Snapshot(name string, res *Result) []byte {
	var buf strings.Builder
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	fmt.Fprintf(&buf, "order: %s\n", strings.Join(res.Order, " "))
	fmt.Fprintf(&buf, "steps: %d\n", res.Steps)
	for _, e := range res.Trace {
		value := "null"
		if e.Value != nil {
			value = strconv.FormatFloat(*e.Value, 'g', -1, 64)
		}
		fmt.Fprintf(&buf, "%d %d %s %s %s %s\n", e.Iteration, e.Period, e.Path, e.Field, e.Collector, value)
	}
	return []byte(buf.String())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	res, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, res)
	return res, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, res *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(name, res))
}
