package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/coedit/internal/audit"
	"github.com/roach88/coedit/internal/ir"
	"github.com/roach88/coedit/internal/schema"
	"github.com/roach88/coedit/internal/state"
)

// TracerName is the instrumentation scope of engine spans.
const TracerName = "coedit.engine"

// SpanApplyPatch names the span wrapping one batch.
const SpanApplyPatch = "coedit.engine/ApplyPatch"

// Recorder observes patch outcomes. Implemented by metrics.Metrics.
type Recorder interface {
	// ObservePatch is called once per ApplyPatch call.
	ObservePatch(source ir.Source, ops int, result ir.EditResult, elapsed time.Duration)

	// ObserveRejectedText is called when ApplyFromText rejects its input
	// before the engine is entered.
	ObserveRejectedText(source ir.Source)
}

type noopRecorder struct{}

func (noopRecorder) ObservePatch(ir.Source, int, ir.EditResult, time.Duration) {}
func (noopRecorder) ObserveRejectedText(ir.Source)                             {}

// opValidate checks operation shape using the struct tags on ir.Operation.
var opValidate = validator.New(validator.WithRequiredStructEnabled())

// Engine applies patches to one state container and records every attempt.
//
// Thread-safety: ApplyPatch and ApplyFromText are safe from any goroutine.
// Serialization of concurrent batches is delegated to state.Container.Update.
//
// INVARIANTS:
//   - A batch either commits every modified root field or none
//   - The live snapshot is never mutated before the batch is known to succeed
//   - Every ApplyPatch call appends exactly one audit entry
type Engine struct {
	registry  *schema.Registry
	container *state.Container
	log       *audit.Log

	tracer   trace.Tracer
	recorder Recorder
	logger   *slog.Logger
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithTracer sets the tracer used for batch spans.
// Default: the global otel tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithMetrics sets the recorder notified after every batch.
func WithMetrics(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithLogger sets the logger for per-batch debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine bound to a registry, container and audit log.
//
// The container must have been built from the same registry.
func New(reg *schema.Registry, container *state.Container, log *audit.Log, opts ...Option) *Engine {
	e := &Engine{
		registry:  reg,
		container: container,
		log:       log,
		tracer:    otel.Tracer(TracerName),
		recorder:  noopRecorder{},
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ApplyPatch applies a batch atomically and returns its outcome.
//
// Operations are evaluated in order and the first failure aborts the whole
// batch. Regardless of outcome one audit entry is appended holding the
// original batch, the source and the result. Never panics.
func (e *Engine) ApplyPatch(ctx context.Context, patch ir.Patch, source ir.Source) ir.EditResult {
	start := time.Now()
	_, span := e.tracer.Start(ctx, SpanApplyPatch,
		trace.WithAttributes(
			attribute.String("source", string(source)),
			attribute.Int("ops", len(patch)),
		),
	)
	defer span.End()

	result := e.apply(patch)
	e.log.Record(patch, source, result)

	span.SetAttributes(attribute.Bool("success", result.Success))
	if result.Success {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, result.Error)
	}

	elapsed := time.Since(start)
	e.recorder.ObservePatch(source, len(patch), result, elapsed)
	e.logger.Debug("patch applied",
		"source", source,
		"ops", len(patch),
		"success", result.Success,
		"code", result.Code,
		"error", result.Error,
		"elapsed", elapsed,
	)

	return result
}

// ApplyFromText parses raw as either a bare array of operations or an
// object with a "patch" array, then applies it.
//
// Unparseable text and other shapes fail without entering the engine, so
// they leave no audit entry.
func (e *Engine) ApplyFromText(ctx context.Context, raw string, source ir.Source) ir.EditResult {
	patch, err := ParsePatchText(raw)
	if err != nil {
		var pe *PatchError
		if !errors.As(err, &pe) {
			pe = shapeError(err)
		}
		e.recorder.ObserveRejectedText(source)
		e.logger.Debug("patch text rejected", "source", source, "error", pe.Message)
		return pe.Result()
	}
	return e.ApplyPatch(ctx, patch, source)
}

// apply runs the batch against the container. Total: panics become
// failures.
func (e *Engine) apply(patch ir.Patch) (result ir.EditResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("patch panicked", "panic", r)
			result = commitFailure(fmt.Errorf("panic: %v", r)).Result()
		}
	}()

	err := e.container.Update(func(current ir.Snapshot) (map[string]ir.Value, error) {
		return e.resolve(patch, current)
	})
	if err != nil {
		var pe *PatchError
		if errors.As(err, &pe) {
			return pe.Result()
		}
		return commitFailure(err).Result()
	}
	return ir.Succeeded(len(patch))
}

// resolve evaluates every operation against working copies of the touched
// root fields and returns the candidates to commit.
//
// current is already a private copy owned by this call.
func (e *Engine) resolve(patch ir.Patch, current ir.Snapshot) (map[string]ir.Value, error) {
	candidates := make(map[string]ir.Value)

	for i, op := range patch {
		if err := checkShape(i, op); err != nil {
			return nil, err
		}

		root, nested := splitPath(op.Path)
		if !e.registry.Has(root) {
			return nil, unknownField(i, root)
		}

		working, ok := candidates[root]
		if !ok {
			working = current[root]
		}

		next, err := e.applyOp(i, op, root, nested, working)
		if err != nil {
			return nil, err
		}
		candidates[root] = next
	}

	return candidates, nil
}

// applyOp computes the new value of one root field after op.
func (e *Engine) applyOp(i int, op ir.Operation, root string, nested []string, working ir.Value) (ir.Value, error) {
	switch op.Op {
	case ir.OpRemove:
		if len(nested) == 0 {
			def, err := e.registry.Default(root)
			if err != nil {
				return nil, unknownField(i, root)
			}
			return def, nil
		}
		return e.validateField(i, root, removeAt(ir.Clone(working), nested))

	default:
		if len(nested) == 0 {
			return e.validateField(i, root, ir.Clone(op.Value))
		}
		updated, err := writeAt(ir.Clone(working), nested, op.Op, ir.Clone(op.Value))
		if err != nil {
			return nil, invalidValue(i, root, err)
		}
		// Whole-object re-validation: cross-field checks see the full value.
		return e.validateField(i, root, updated)
	}
}

// validateField runs the root field's validator, converting a rejection or
// a validator panic into a validation failure.
func (e *Engine) validateField(i int, root string, v ir.Value) (accepted ir.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			accepted = nil
			err = invalidValue(i, root, fmt.Errorf("validator panicked: %v", r))
		}
	}()

	accepted, verr := e.registry.Validate(root, v)
	if verr != nil {
		return nil, invalidValue(i, root, verr)
	}
	return accepted, nil
}

// checkShape rejects structurally invalid operations.
func checkShape(i int, op ir.Operation) error {
	if err := opValidate.Struct(op); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return malformedOperation(i, describeFieldError(op, verrs[0]))
		}
		return malformedOperation(i, err.Error())
	}
	if op.Op != ir.OpRemove && op.Value == nil {
		return malformedOperation(i, fmt.Sprintf("%s requires a value", op.Op))
	}
	return nil
}

func describeFieldError(op ir.Operation, fe validator.FieldError) string {
	switch {
	case fe.Field() == "Op" && fe.Tag() == "oneof":
		return fmt.Sprintf("unsupported op %q (must be replace, add or remove)", op.Op)
	case fe.Field() == "Op":
		return "op is required"
	case fe.Field() == "Path":
		return "path is required"
	default:
		return fe.Error()
	}
}
