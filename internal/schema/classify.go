package schema

import "slices"

// Kind names a validator variant.
type Kind string

const (
	KindString   Kind = "string"
	KindNumber   Kind = "number"
	KindBoolean  Kind = "boolean"
	KindEnum     Kind = "enum"
	KindArray    Kind = "array"
	KindObject   Kind = "object"
	KindOptional Kind = "optional"
)

// Classification is the introspectable description of a validator: its kind
// plus the constraints it declares. Formatters consume this instead of
// looking inside validators.
type Classification struct {
	Kind        Kind
	Constraints Constraints

	// Inner describes the wrapped validator (optional) or item validator
	// (array). Nil for other kinds.
	Inner *Classification

	// Properties describes object members in declaration order.
	Properties []PropertyClass
}

// PropertyClass describes one object member.
type PropertyClass struct {
	Name           string
	Classification Classification
}

// Constraints holds every constraint a variant can declare. Only the
// fields relevant to the classified kind are set.
type Constraints struct {
	Min       *float64
	Max       *float64
	Integer   bool
	MinLength *int
	MaxLength *int
	Pattern   string
	Enum      []string
	MinItems  *int
	MaxItems  *int
	Strict    bool

	// Rules lists descriptions of whole-object checks.
	Rules []string
}

// Classify implements Validator.
func (s *String) Classify() Classification {
	c := Classification{Kind: KindString}
	c.Constraints.MinLength = s.MinLength
	c.Constraints.MaxLength = s.MaxLength
	if s.Pattern != nil {
		c.Constraints.Pattern = s.Pattern.String()
	}
	return c
}

// Classify implements Validator.
func (n *Number) Classify() Classification {
	c := Classification{Kind: KindNumber}
	c.Constraints.Min = n.Min
	c.Constraints.Max = n.Max
	c.Constraints.Integer = n.Integer
	return c
}

// Classify implements Validator.
func (*Boolean) Classify() Classification {
	return Classification{Kind: KindBoolean}
}

// Classify implements Validator.
func (e *Enum) Classify() Classification {
	c := Classification{Kind: KindEnum}
	c.Constraints.Enum = slices.Clone(e.Values)
	return c
}

// Classify implements Validator.
func (a *Array) Classify() Classification {
	c := Classification{Kind: KindArray}
	c.Constraints.MinItems = a.MinItems
	c.Constraints.MaxItems = a.MaxItems
	if a.Items != nil {
		inner := a.Items.Classify()
		c.Inner = &inner
	}
	return c
}

// Classify implements Validator.
func (o *Object) Classify() Classification {
	c := Classification{Kind: KindObject}
	c.Constraints.Strict = o.Strict
	for _, prop := range o.Properties {
		c.Properties = append(c.Properties, PropertyClass{
			Name:           prop.Name,
			Classification: prop.Validator.Classify(),
		})
	}
	for _, check := range o.Checks {
		c.Constraints.Rules = append(c.Constraints.Rules, check.Description)
	}
	return c
}

// Classify implements Validator.
func (o *Optional) Classify() Classification {
	inner := o.Inner.Classify()
	return Classification{Kind: KindOptional, Inner: &inner}
}

// Unwrap strips any Optional wrappers, reporting whether one was present.
func (c Classification) Unwrap() (Classification, bool) {
	optional := false
	for c.Kind == KindOptional && c.Inner != nil {
		optional = true
		c = *c.Inner
	}
	return c, optional
}
