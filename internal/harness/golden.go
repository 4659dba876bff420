package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/coedit/internal/ir"
)

// TraceSnapshot is the golden form of a scenario run: every step outcome,
// the audit history and the final state.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	History      []ir.AuditEntry
	State        ir.Snapshot
}

// NewTraceSnapshot captures result under scenarioName.
func NewTraceSnapshot(scenarioName string, result *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		History:      result.History,
		State:        result.State,
	}
}

// Marshal renders the snapshot as canonical JSON for byte comparison.
func (s TraceSnapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// toCanonicalMap converts the snapshot to plain maps, since
// ir.MarshalCanonical only handles Value types and Go primitives.
func (s TraceSnapshot) toCanonicalMap() map[string]any {
	steps := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		m := map[string]any{
			"step": event.Step,
			"kind": event.Kind,
		}
		if event.Source != "" {
			m["source"] = string(event.Source)
		}
		if event.Result != nil {
			m["result"] = resultMap(*event.Result)
		}
		steps[i] = m
	}

	history := make([]any, len(s.History))
	for i, e := range s.History {
		ops := make([]any, len(e.Patch))
		for j, op := range e.Patch {
			m := map[string]any{
				"op":   string(op.Op),
				"path": op.Path,
			}
			if op.Value != nil {
				m["value"] = op.Value
			}
			ops[j] = m
		}
		history[i] = map[string]any{
			"id":        e.ID,
			"timestamp": e.Timestamp,
			"source":    string(e.Source),
			"patch":     ops,
			"result":    resultMap(e.Result),
		}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"steps":         steps,
		"history":       history,
		"final_state":   ir.Object(s.State),
	}
}

func resultMap(r ir.EditResult) map[string]any {
	m := map[string]any{"success": r.Success}
	if r.Success {
		m["applied"] = r.Applied
	} else {
		m["error"] = r.Error
	}
	if r.Code != "" {
		m["code"] = string(r.Code)
	}
	return m
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario could not be executed. A trace mismatch
// fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewTraceSnapshot(scenarioName, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
