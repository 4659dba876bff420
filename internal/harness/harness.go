package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/coedit/internal/audit"
	"github.com/roach88/coedit/internal/compiler"
	"github.com/roach88/coedit/internal/engine"
	"github.com/roach88/coedit/internal/ir"
	"github.com/roach88/coedit/internal/schema"
	"github.com/roach88/coedit/internal/state"
	"github.com/roach88/coedit/internal/testutil"
)

// Harness drives one scenario against one store.
type Harness struct {
	store *engine.Store
}

// Run executes a scenario against a fresh in-memory store and returns the
// result.
//
// Execution flow:
//  1. Compile the scenario's schema into a registry
//  2. Build a store whose audit log uses a deterministic clock
//  3. Execute steps in order, checking each expect clause
//  4. Check final_state and assertions
//
// The returned error covers setup problems only; expectation failures are
// reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	reg, err := loadRegistry(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	// Suppress logs in scenario runs
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &Harness{
		store: engine.NewStore(reg,
			engine.WithStateOptions(state.WithLogger(logger)),
			engine.WithAuditOptions(audit.WithClock(testutil.NewDeterministicClock()), audit.WithLogger(logger)),
			engine.WithEngineOptions(engine.WithLogger(logger)),
		),
	}

	result := NewResult()
	ctx := context.Background()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	result.State = h.store.Current()
	result.History = h.store.History()

	checkFinalState(result, scenario.FinalState)
	for _, a := range scenario.Assertions {
		if err := evaluateAssertion(result, a); err != nil {
			result.AddError(err.Error())
		}
	}

	return result, nil
}

func loadRegistry(scenario *Scenario) (*schema.Registry, error) {
	if scenario.SchemaSource != "" {
		s, err := compiler.CompileString(scenario.SchemaSource, scenario.Name+".cue")
		if err != nil {
			return nil, err
		}
		return schema.NewRegistry(*s)
	}
	return compiler.LoadRegistry(scenario.Schema)
}

func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) {
	event := TraceEvent{Step: i, Kind: step.Kind()}

	switch event.Kind {
	case StepPatch:
		source := ir.SourceLLM
		if step.Source != "" {
			source = ir.Source(step.Source)
		}
		res := h.store.ApplyFromText(ctx, step.Patch, source)
		event.Source = source
		event.Result = &res

	case StepSet:
		res := h.applySet(step.Set)
		event.Source = ir.SourceUser
		event.Result = &res

	case StepReset:
		h.store.Reset()

	case StepClearHistory:
		h.store.ClearHistory()
	}

	result.Trace = append(result.Trace, event)

	if step.Expect != nil && event.Result != nil {
		for _, msg := range checkExpect(*step.Expect, *event.Result) {
			result.AddError(fmt.Sprintf("steps[%d]: %s", i, msg))
		}
	}
}

// applySet writes fields directly, the way a form does. The outcome is
// reported as an EditResult so set and patch steps share expectations.
func (h *Harness) applySet(values map[string]any) ir.EditResult {
	updates := make(map[string]ir.Value, len(values))
	for name, raw := range values {
		v, err := ir.FromAny(raw)
		if err != nil {
			return ir.Failed(ir.ErrMalformedInput, fmt.Sprintf("%s: %v", name, err))
		}
		updates[name] = v
	}
	if err := h.store.Container().SetManyResult(updates); err != nil {
		var unknown *schema.UnknownFieldError
		if errors.As(err, &unknown) {
			return ir.Failed(ir.ErrUnknownField, unknown.Error())
		}
		return ir.Failed(ir.ErrValidationFailure, err.Error())
	}
	return ir.Succeeded(len(updates))
}

func checkExpect(want ExpectClause, got ir.EditResult) []string {
	var errs []string
	if *want.Success != got.Success {
		errs = append(errs, fmt.Sprintf("expected success=%t, got success=%t (error: %q)", *want.Success, got.Success, got.Error))
	}
	if want.Applied != nil && *want.Applied != got.Applied {
		errs = append(errs, fmt.Sprintf("expected applied=%d, got %d", *want.Applied, got.Applied))
	}
	if want.ErrorContains != "" && !strings.Contains(got.Error, want.ErrorContains) {
		errs = append(errs, fmt.Sprintf("expected error containing %q, got %q", want.ErrorContains, got.Error))
	}
	if want.Code != "" && want.Code != string(got.Code) {
		errs = append(errs, fmt.Sprintf("expected code %s, got %q", want.Code, got.Code))
	}
	return errs
}
