package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/coedit/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the history to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	History  []ir.AuditEntry
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.History) > 0 {
		fmt.Fprintf(&buf, "\nHistory:\n")
		for _, entry := range e.History {
			status := "ok"
			if !entry.Result.Success {
				status = entry.Result.Error
			}
			fmt.Fprintf(&buf, "  [%s] %s %d op(s): %s\n", entry.ID, entry.Source, len(entry.Patch), status)
		}
	}

	return buf.String()
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertHistoryCount:
		return assertHistoryCount(result.History, a)
	case AssertHistoryContains:
		return assertHistoryContains(result.History, a)
	case AssertHistoryOrder:
		return assertHistoryOrder(result.History, a)
	case AssertFieldEquals:
		return assertFieldEquals(result.State, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertHistoryCount(history []ir.AuditEntry, a Assertion) error {
	if len(history) != a.Count {
		return &AssertionError{
			Type:     AssertHistoryCount,
			Expected: fmt.Sprintf("%d entries", a.Count),
			Actual:   fmt.Sprintf("%d entries", len(history)),
			History:  history,
		}
	}
	return nil
}

// assertHistoryContains passes when at least one entry matches every
// given selector.
func assertHistoryContains(history []ir.AuditEntry, a Assertion) error {
	for _, e := range history {
		if a.Source != "" && string(e.Source) != a.Source {
			continue
		}
		if a.Success != nil && e.Result.Success != *a.Success {
			continue
		}
		if a.Code != "" && string(e.Result.Code) != a.Code {
			continue
		}
		return nil
	}

	var want []string
	if a.Source != "" {
		want = append(want, "source="+a.Source)
	}
	if a.Success != nil {
		want = append(want, fmt.Sprintf("success=%t", *a.Success))
	}
	if a.Code != "" {
		want = append(want, "code="+a.Code)
	}
	return &AssertionError{
		Type:     AssertHistoryContains,
		Expected: "entry with " + strings.Join(want, " "),
		Actual:   "not found in history",
		History:  history,
	}
}

// assertHistoryOrder checks the exact source sequence of the history.
func assertHistoryOrder(history []ir.AuditEntry, a Assertion) error {
	actual := make([]string, len(history))
	for i, e := range history {
		actual[i] = string(e.Source)
	}
	if strings.Join(actual, ",") != strings.Join(a.Sources, ",") {
		return &AssertionError{
			Type:     AssertHistoryOrder,
			Expected: fmt.Sprintf("sources %v", a.Sources),
			Actual:   fmt.Sprintf("sources %v", actual),
			History:  history,
		}
	}
	return nil
}

func assertFieldEquals(snap ir.Snapshot, a Assertion) error {
	got, ok := snap[a.Field]
	if !ok {
		return &AssertionError{
			Type:     AssertFieldEquals,
			Expected: fmt.Sprintf("field %s", a.Field),
			Actual:   "field not in snapshot",
		}
	}
	want, err := ir.FromAny(a.Value)
	if err != nil {
		return fmt.Errorf("field_equals %s: %w", a.Field, err)
	}
	if !ir.Equal(got, want) {
		return &AssertionError{
			Type:     AssertFieldEquals,
			Expected: fmt.Sprintf("%s = %s", a.Field, render(want)),
			Actual:   fmt.Sprintf("%s = %s", a.Field, render(got)),
		}
	}
	return nil
}

// checkFinalState subset-matches top-level fields of the final snapshot.
// Failures are reported in field-name order.
func checkFinalState(result *Result, expected map[string]any) {
	names := make([]string, 0, len(expected))
	for name := range expected {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		err := assertFieldEquals(result.State, Assertion{Type: AssertFieldEquals, Field: name, Value: expected[name]})
		if err != nil {
			result.AddError("final_state: " + err.Error())
		}
	}
}

func render(v ir.Value) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
