package harness

import "github.com/roach88/coedit/internal/ir"

// TraceEvent records one executed step.
type TraceEvent struct {
	Step   int            `json:"step"`
	Kind   string         `json:"kind"`
	Source ir.Source      `json:"source,omitempty"`
	Result *ir.EditResult `json:"result,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per executed step.
	Trace []TraceEvent `json:"trace"`

	// History is the audit log after the last step.
	History []ir.AuditEntry `json:"history"`

	// State is the final snapshot.
	State ir.Snapshot `json:"state"`

	// Errors holds expectation and assertion failures. Empty if Pass.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
