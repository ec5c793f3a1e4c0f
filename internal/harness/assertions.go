package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// evaluate runs every assertion against res, recording failures on it.
func evaluate(res *Result, assertions []Assertion) {
	for _, a := range assertions {
		if err := check(res, a); err != nil {
			res.AddError(err.Error())
		}
	}
}

func check(res *Result, a Assertion) error {
	switch a.Type {
	case AssertRowCount:
		return assertRowCount(res, a)
	case AssertFieldCount:
		return assertFieldCount(res, a)
	case AssertFieldSum:
		return assertFieldSum(res, a)
	case AssertFieldRange:
		return assertFieldRange(res, a)
	case AssertFieldValues:
		return assertFieldValues(res, a)
	case AssertFiringOrder:
		return assertFiringOrder(res, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertRowCount(res *Result, a Assertion) error {
	if len(res.Trace) != *a.Count {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows", *a.Count),
			Actual:   fmt.Sprintf("%d rows", len(res.Trace)),
		}
	}
	return nil
}

// assertFieldCount counts rows of path/field, null values included.
func assertFieldCount(res *Result, a Assertion) error {
	n := 0
	for _, e := range res.Trace {
		if e.Path == a.Path && e.Field == a.Field {
			n++
		}
	}
	if n != *a.Count {
		return &AssertionError{
			Type:     AssertFieldCount,
			Expected: fmt.Sprintf("%d rows of %s/%s", *a.Count, a.Path, a.Field),
			Actual:   fmt.Sprintf("%d rows", n),
		}
	}
	return nil
}

func assertFieldSum(res *Result, a Assertion) error {
	sum := 0.0
	for _, v := range res.Select(a.Path, a.Field) {
		sum += v
	}
	if math.Abs(sum-*a.Sum) > a.Tolerance {
		return &AssertionError{
			Type:     AssertFieldSum,
			Expected: fmt.Sprintf("sum of %s/%s = %g ± %g", a.Path, a.Field, *a.Sum, a.Tolerance),
			Actual:   fmt.Sprintf("%g", sum),
		}
	}
	return nil
}

func assertFieldRange(res *Result, a Assertion) error {
	values := res.Select(a.Path, a.Field)
	if len(values) == 0 {
		return &AssertionError{
			Type:     AssertFieldRange,
			Expected: fmt.Sprintf("values of %s/%s", a.Path, a.Field),
			Actual:   "no values collected",
		}
	}
	lo, hi := slices.Min(values), slices.Max(values)
	if (a.Min != nil && lo < *a.Min) || (a.Max != nil && hi > *a.Max) {
		return &AssertionError{
			Type:     AssertFieldRange,
			Expected: fmt.Sprintf("%s/%s within [%s, %s]", a.Path, a.Field, bound(a.Min, "-inf"), bound(a.Max, "+inf")),
			Actual:   fmt.Sprintf("[%g, %g]", lo, hi),
		}
	}
	return nil
}

func assertFieldValues(res *Result, a Assertion) error {
	values := res.Select(a.Path, a.Field)
	if !slices.Equal(values, a.Values) {
		return &AssertionError{
			Type:     AssertFieldValues,
			Expected: fmt.Sprintf("%s/%s = %v", a.Path, a.Field, a.Values),
			Actual:   fmt.Sprintf("%v", values),
		}
	}
	return nil
}

func assertFiringOrder(res *Result, a Assertion) error {
	if !slices.Equal(res.Order, a.Order) {
		return &AssertionError{
			Type:     AssertFiringOrder,
			Expected: strings.Join(a.Order, " → "),
			Actual:   strings.Join(res.Order, " → "),
		}
	}
	return nil
}

func bound(v *float64, open string) string {
	if v == nil {
		return open
	}
	return fmt.Sprintf("%g", *v)
}
