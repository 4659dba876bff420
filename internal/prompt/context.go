// Package prompt renders the registry and current state for an LLM: a
// context text block for the prompt and a function-calling schema for the
// tool-invocation plumbing.
//
// Both renderers are pure. Caller-supplied transforms run last and never
// see engine internals.
package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/coedit/internal/ir"
	"github.com/roach88/coedit/internal/schema"
)

// Option configures a renderer.
type Option func(*config)

type config struct {
	text   func(string) string
	object func(map[string]any) map[string]any
}

// WithTransform post-processes the context text. Applied last.
func WithTransform(fn func(string) string) Option {
	return func(c *config) {
		c.text = fn
	}
}

// WithSchemaTransform post-processes the tool schema. Applied last.
func WithSchemaTransform(fn func(map[string]any) map[string]any) Option {
	return func(c *config) {
		c.object = fn
	}
}

func newConfig(opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Context renders a deterministic, human-readable description of the
// schema and the snapshot, followed by instructions for the JSON-Patch
// request format.
func Context(reg *schema.Registry, snap ir.Snapshot, opts ...Option) string {
	cfg := newConfig(opts)
	fields := reg.Fields()

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", reg.Name())

	b.WriteString("## Fields\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "- /%s (%s): %s\n", f.Name, Describe(f.Validator.Classify()), f.Label)
	}

	b.WriteString("\n## Current Values\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "%s: %s\n", f.Name, encode(snap[f.Name]))
	}

	b.WriteString("\n## Editing\n")
	b.WriteString("To change values, respond with a JSON Patch array. Each operation has:\n")
	b.WriteString(`- "op": "replace", "add" or "remove"` + "\n")
	b.WriteString(`- "path": "/<field>" for a whole field, or "/<field>/<key>" for a nested key` + "\n")
	b.WriteString(`- "value": the new value (required for replace and add)` + "\n")
	b.WriteString("\nThe whole batch is validated before anything changes. If any operation is invalid, nothing is applied.\n")
	b.WriteString("\nExample:\n")
	if len(fields) > 0 {
		first := fields[0]
		fmt.Fprintf(&b, `[{"op": "replace", "path": "/%s", "value": %s}]`+"\n", first.Name, encode(snap[first.Name]))
	}

	out := b.String()
	if cfg.text != nil {
		out = cfg.text(out)
	}
	return out
}

// encode renders a value as canonical JSON. A missing value renders as null.
func encode(v ir.Value) string {
	if v == nil {
		return "null"
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

var whitespace = regexp.MustCompile(`\s+`)

// ToolName derives the function name for a schema: "patch_" followed by
// the lowercased schema name with whitespace runs replaced by underscores.
func ToolName(schemaName string) string {
	return "patch_" + whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(schemaName)), "_")
}

// ToolSchema returns a JSON-Schema-like function definition accepting a
// "patch" array whose items require "op" and "path".
func ToolSchema(reg *schema.Registry, opts ...Option) map[string]any {
	cfg := newConfig(opts)

	names := reg.Names()
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = "/" + n
	}

	out := map[string]any{
		"name":        ToolName(reg.Name()),
		"description": fmt.Sprintf("Apply a batch of edits to %s. The batch is validated as a whole and applied atomically; if any operation is invalid, nothing changes.", reg.Name()),
		"parameters": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"patch": map[string]any{
					"type":        "array",
					"description": "Edit operations, applied in order.",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"op": map[string]any{
								"type":        "string",
								"enum":        []string{string(ir.OpReplace), string(ir.OpAdd), string(ir.OpRemove)},
								"description": "replace or add sets a value; remove restores a field's default or deletes a nested key.",
							},
							"path": map[string]any{
								"type":        "string",
								"description": "Slash path to the target, e.g. /field or /field/nested. Valid fields: " + strings.Join(paths, ", "),
							},
							"value": map[string]any{
								"description": "New value. Required for replace and add.",
							},
						},
						"required": []string{"op", "path"},
					},
				},
			},
			"required": []string{"patch"},
		},
	}

	if cfg.object != nil {
		out = cfg.object(out)
	}
	return out
}
