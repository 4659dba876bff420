package schema

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roach88/coedit/internal/ir"
)

// Validator checks a value and returns its normalized form.
// Sealed - only the variants in this file implement it.
type Validator interface {
	// Validate returns the accepted (normalized) value or a *ValidationError.
	Validate(v ir.Value) (ir.Value, error)

	// Classify reports the variant kind and its declared constraints.
	Classify() Classification

	validator()
}

// String accepts string values.
type String struct {
	MinLength *int
	MaxLength *int

	// Pattern, when set, must match the value (unanchored regexp semantics).
	Pattern *regexp.Regexp
}

func (*String) validator() {}

// Validate implements Validator.
func (s *String) Validate(v ir.Value) (ir.Value, error) {
	str, ok := v.(ir.String)
	if !ok {
		return nil, expected("string", v)
	}
	n := utf8.RuneCountInString(string(str))
	if s.MinLength != nil && n < *s.MinLength {
		return nil, failf("must be at least %d characters", *s.MinLength)
	}
	if s.MaxLength != nil && n > *s.MaxLength {
		return nil, failf("must be at most %d characters", *s.MaxLength)
	}
	if s.Pattern != nil && !s.Pattern.MatchString(string(str)) {
		return nil, failf("must match pattern %s", s.Pattern.String())
	}
	return str, nil
}

// Number accepts numeric values.
type Number struct {
	Min     *float64
	Max     *float64
	Integer bool
}

func (*Number) validator() {}

// Validate implements Validator.
func (n *Number) Validate(v ir.Value) (ir.Value, error) {
	num, ok := v.(ir.Number)
	if !ok {
		return nil, expected("number", v)
	}
	f := float64(num)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, failf("must be a finite number")
	}
	if n.Integer && f != math.Trunc(f) {
		return nil, failf("must be an integer")
	}
	if n.Min != nil && f < *n.Min {
		return nil, failf("must be greater than or equal to %s", formatFloat(*n.Min))
	}
	if n.Max != nil && f > *n.Max {
		return nil, failf("must be less than or equal to %s", formatFloat(*n.Max))
	}
	return num, nil
}

// Boolean accepts true or false.
type Boolean struct{}

func (*Boolean) validator() {}

// Validate implements Validator.
func (*Boolean) Validate(v ir.Value) (ir.Value, error) {
	b, ok := v.(ir.Bool)
	if !ok {
		return nil, expected("boolean", v)
	}
	return b, nil
}

// Enum accepts one of a fixed set of strings.
type Enum struct {
	Values []string
}

func (*Enum) validator() {}

// Validate implements Validator.
func (e *Enum) Validate(v ir.Value) (ir.Value, error) {
	str, ok := v.(ir.String)
	if ok {
		for _, allowed := range e.Values {
			if string(str) == allowed {
				return str, nil
			}
		}
	}
	return nil, failf("must be one of %s", quoteList(e.Values))
}

// Array accepts lists whose items all satisfy Items.
type Array struct {
	Items    Validator
	MinItems *int
	MaxItems *int
}

func (*Array) validator() {}

// Validate implements Validator.
func (a *Array) Validate(v ir.Value) (ir.Value, error) {
	arr, ok := v.(ir.Array)
	if !ok {
		return nil, expected("array", v)
	}
	if a.MinItems != nil && len(arr) < *a.MinItems {
		return nil, failf("must contain at least %d items", *a.MinItems)
	}
	if a.MaxItems != nil && len(arr) > *a.MaxItems {
		return nil, failf("must contain at most %d items", *a.MaxItems)
	}
	out := make(ir.Array, len(arr))
	for i, elem := range arr {
		if a.Items == nil {
			out[i] = ir.Clone(elem)
			continue
		}
		accepted, err := a.Items.Validate(elem)
		if err != nil {
			return nil, nest(strconv.Itoa(i), err)
		}
		out[i] = accepted
	}
	return out, nil
}

// Property is one named member of an Object.
type Property struct {
	Name      string
	Validator Validator
}

// Check is a whole-object constraint evaluated after every property has
// validated, e.g. "at most 5 stars". Fn returns a human-readable reason.
type Check struct {
	Description string
	Fn          func(ir.Object) error
}

// Object accepts structured values with a declared, ordered set of
// properties. Unknown keys are dropped unless Strict is set.
type Object struct {
	Properties []Property
	Strict     bool
	Checks     []Check
}

func (*Object) validator() {}

// Validate implements Validator.
func (o *Object) Validate(v ir.Value) (ir.Value, error) {
	obj, ok := v.(ir.Object)
	if !ok {
		return nil, expected("object", v)
	}

	out := make(ir.Object, len(o.Properties))
	known := make(map[string]bool, len(o.Properties))
	for _, prop := range o.Properties {
		known[prop.Name] = true
		val, present := obj[prop.Name]
		if !present {
			if _, optional := prop.Validator.(*Optional); optional {
				continue
			}
			return nil, nest(prop.Name, failf("required"))
		}
		accepted, err := prop.Validator.Validate(val)
		if err != nil {
			return nil, nest(prop.Name, err)
		}
		if accepted != nil {
			out[prop.Name] = accepted
		}
	}

	if o.Strict {
		for _, k := range obj.SortedKeys() {
			if !known[k] {
				return nil, nest(k, failf("unrecognized key"))
			}
		}
	}

	for _, check := range o.Checks {
		if err := check.Fn(out); err != nil {
			return nil, failf("%s", err.Error())
		}
	}
	return out, nil
}

// Optional accepts null or an absent value, otherwise delegates to Inner.
type Optional struct {
	Inner Validator
}

func (*Optional) validator() {}

// Validate implements Validator. An absent value (nil) stays absent.
func (o *Optional) Validate(v ir.Value) (ir.Value, error) {
	switch v.(type) {
	case nil:
		return nil, nil
	case ir.Null:
		return ir.Null{}, nil
	}
	return o.Inner.Validate(v)
}

// MaxTrue returns a Check allowing at most limit boolean properties set to true.
func MaxTrue(limit int) Check {
	return Check{
		Description: fmt.Sprintf("at most %d selected", limit),
		Fn: func(obj ir.Object) error {
			count := 0
			for _, v := range obj {
				if b, ok := v.(ir.Bool); ok && bool(b) {
					count++
				}
			}
			if count > limit {
				return fmt.Errorf("at most %d may be selected, got %d", limit, count)
			}
			return nil
		},
	}
}

// SumMax returns a Check bounding the sum of the named numeric properties.
func SumMax(fields []string, limit float64) Check {
	return Check{
		Description: fmt.Sprintf("%s sum to at most %s", strings.Join(fields, " + "), formatFloat(limit)),
		Fn: func(obj ir.Object) error {
			var sum float64
			for _, name := range fields {
				if n, ok := obj[name].(ir.Number); ok {
					sum += float64(n)
				}
			}
			if sum > limit {
				return fmt.Errorf("%s must sum to at most %s, got %s",
					strings.Join(fields, " + "), formatFloat(limit), formatFloat(sum))
			}
			return nil
		},
	}
}

// Int returns a pointer to n, for optional constraint fields.
func Int(n int) *int {
	return &n
}

// Float returns a pointer to f, for optional constraint fields.
func Float(f float64) *float64 {
	return &f
}

func expected(want string, got ir.Value) *ValidationError {
	return failf("expected %s, received %s", want, ir.TypeName(got))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return strings.Join(quoted, ", ")
}
