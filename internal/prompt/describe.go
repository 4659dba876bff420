package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/coedit/internal/schema"
)

// Describe renders a classification as a short type description, e.g.
// "string (3-80 chars)" or "object { name: string, phone?: string }".
func Describe(c schema.Classification) string {
	if c.Kind == schema.KindOptional && c.Inner != nil {
		return Describe(*c.Inner) + ", optional"
	}

	k := c.Constraints
	switch c.Kind {
	case schema.KindString:
		var parts []string
		if r := intRange(k.MinLength, k.MaxLength, " chars"); r != "" {
			parts = append(parts, r)
		}
		if k.Pattern != "" {
			parts = append(parts, "pattern "+k.Pattern)
		}
		return withDetails("string", parts)

	case schema.KindNumber:
		base := "number"
		if k.Integer {
			base = "integer"
		}
		return withDetails(base, nonEmpty(floatRange(k.Min, k.Max)))

	case schema.KindBoolean:
		return "boolean"

	case schema.KindEnum:
		quoted := make([]string, len(k.Enum))
		for i, v := range k.Enum {
			quoted[i] = strconv.Quote(v)
		}
		return "one of: " + strings.Join(quoted, ", ")

	case schema.KindArray:
		base := "array"
		if c.Inner != nil {
			base = "array of " + Describe(*c.Inner)
		}
		return withDetails(base, nonEmpty(intRange(k.MinItems, k.MaxItems, " items")))

	case schema.KindObject:
		if len(c.Properties) == 0 {
			return withDetails("object {}", k.Rules)
		}
		props := make([]string, len(c.Properties))
		for i, p := range c.Properties {
			inner, optional := p.Classification.Unwrap()
			name := p.Name
			if optional {
				name += "?"
			}
			props[i] = name + ": " + Describe(inner)
		}
		return withDetails("object { "+strings.Join(props, ", ")+" }", k.Rules)

	default:
		return string(c.Kind)
	}
}

func withDetails(base string, details []string) string {
	if len(details) == 0 {
		return base
	}
	return base + " (" + strings.Join(details, ", ") + ")"
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func intRange(lo, hi *int, unit string) string {
	switch {
	case lo != nil && hi != nil:
		return fmt.Sprintf("%d-%d%s", *lo, *hi, unit)
	case lo != nil:
		return fmt.Sprintf("min %d%s", *lo, unit)
	case hi != nil:
		return fmt.Sprintf("max %d%s", *hi, unit)
	}
	return ""
}

func floatRange(lo, hi *float64) string {
	switch {
	case lo != nil && hi != nil:
		return formatFloat(*lo) + "-" + formatFloat(*hi)
	case lo != nil:
		return "min " + formatFloat(*lo)
	case hi != nil:
		return "max " + formatFloat(*hi)
	}
	return ""
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
