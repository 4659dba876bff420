package compiler

import (
	"fmt"
	"os"
	"regexp"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/coedit/internal/ir"
	"github.com/roach88/coedit/internal/schema"
)

// Supported field type names.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeEnum    = "enum"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Supported object check kinds.
const (
	CheckMaxTrue = "maxTrue"
	CheckSumMax  = "sumMax"
)

// LoadFile reads a CUE file and compiles its top-level "schema" struct.
func LoadFile(path string) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return CompileBytes(data, path)
}

// LoadRegistry compiles the schema at path and builds its Registry.
func LoadRegistry(path string) (*schema.Registry, error) {
	s, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	reg, err := schema.NewRegistry(*s)
	if err != nil {
		return nil, &CompileError{Code: ErrCodeRegistryFailure, Field: "schema", Message: "invalid schema", Err: err}
	}
	return reg, nil
}

// CompileString compiles CUE source text. filename is used in error positions.
func CompileString(src, filename string) (*schema.Schema, error) {
	return CompileBytes([]byte(src), filename)
}

// CompileBytes compiles CUE source and extracts the top-level "schema" struct.
func CompileBytes(src []byte, filename string) (*schema.Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError("cue", err)
	}

	schemaVal := v.LookupPath(cue.ParsePath("schema"))
	if !schemaVal.Exists() {
		return nil, &CompileError{
			Code:    ErrCodeMissingName,
			Field:   "schema",
			Message: "top-level schema struct is required",
			Pos:     v.Pos(),
		}
	}
	return CompileSchema(schemaVal)
}

// CompileSchema parses a CUE value into a Schema.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the schema struct itself:
//
//	schema: {
//		name: "Contact Form"
//		fields: {
//			count: {label: "Count", type: "integer", min: 0, max: 100, default: 0}
//		}
//	}
//
// Field order in the fields struct becomes the schema's insertion order.
// Every field's default is validated against its own validator.
func CompileSchema(v cue.Value) (*schema.Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError("schema", err)
	}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{
			Code:    ErrCodeMissingName,
			Field:   "name",
			Message: "schema name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError("name", err)
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Code:    ErrCodeNoFields,
			Field:   "fields",
			Message: "at least one field is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError("fields", err)
	}

	s := &schema.Schema{Name: name}
	for iter.Next() {
		def, err := compileField(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		s.Fields = append(s.Fields, def)
	}

	if len(s.Fields) == 0 {
		return nil, &CompileError{
			Code:    ErrCodeNoFields,
			Field:   "fields",
			Message: "at least one field is required",
			Pos:     fieldsVal.Pos(),
		}
	}

	return s, nil
}

// compileField parses one top-level field definition.
func compileField(name string, v cue.Value) (schema.FieldDefinition, error) {
	path := "fields." + name
	def := schema.FieldDefinition{Name: name}

	label, _, err := optionalString(v, "label")
	if err != nil {
		return def, err
	}
	def.Label = label

	def.Validator, err = compileValidator(path, v)
	if err != nil {
		return def, err
	}

	defaultVal := v.LookupPath(cue.ParsePath("default"))
	if !defaultVal.Exists() {
		return def, &CompileError{
			Code:    ErrCodeInvalidDefault,
			Field:   path + ".default",
			Message: "default value is required",
			Pos:     v.Pos(),
		}
	}
	data, err := defaultVal.MarshalJSON()
	if err != nil {
		return def, &CompileError{
			Code:    ErrCodeInvalidDefault,
			Field:   path + ".default",
			Message: "default value must be concrete",
			Pos:     defaultVal.Pos(),
			Err:     err,
		}
	}
	def.Default, err = ir.UnmarshalValue(data)
	if err != nil {
		return def, &CompileError{Code: ErrCodeInvalidDefault, Field: path + ".default", Message: "decode default", Pos: defaultVal.Pos(), Err: err}
	}

	if _, err := def.Validator.Validate(ir.Clone(def.Default)); err != nil {
		return def, &CompileError{
			Code:    ErrCodeInvalidDefault,
			Field:   path + ".default",
			Message: "default value does not satisfy the field type",
			Pos:     defaultVal.Pos(),
			Err:     err,
		}
	}

	return def, nil
}

// compileValidator builds the validator variant described by v.
// An "optional: true" flag wraps the result in schema.Optional.
func compileValidator(path string, v cue.Value) (schema.Validator, error) {
	typeName, ok, err := optionalString(v, "type")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &CompileError{
			Code:    ErrCodeInvalidType,
			Field:   path + ".type",
			Message: "type is required",
			Pos:     v.Pos(),
		}
	}

	var val schema.Validator
	switch typeName {
	case TypeString:
		val, err = compileString(path, v)
	case TypeNumber, TypeInteger:
		val, err = compileNumber(path, v, typeName == TypeInteger)
	case TypeBoolean:
		val = &schema.Boolean{}
	case TypeEnum:
		val, err = compileEnum(path, v)
	case TypeArray:
		val, err = compileArray(path, v)
	case TypeObject:
		val, err = compileObject(path, v)
	default:
		return nil, &CompileError{
			Code:    ErrCodeInvalidType,
			Field:   path + ".type",
			Message: fmt.Sprintf("unsupported type %q", typeName),
			Pos:     v.LookupPath(cue.ParsePath("type")).Pos(),
		}
	}
	if err != nil {
		return nil, err
	}

	optional, _, err := optionalBool(v, "optional")
	if err != nil {
		return nil, err
	}
	if optional {
		val = &schema.Optional{Inner: val}
	}
	return val, nil
}

func compileString(path string, v cue.Value) (schema.Validator, error) {
	s := &schema.String{}
	var err error
	if s.MinLength, err = optionalInt(v, "minLength"); err != nil {
		return nil, err
	}
	if s.MaxLength, err = optionalInt(v, "maxLength"); err != nil {
		return nil, err
	}
	pattern, ok, err := optionalString(v, "pattern")
	if err != nil {
		return nil, err
	}
	if ok {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &CompileError{
				Code:    ErrCodeInvalidPattern,
				Field:   path + ".pattern",
				Message: "invalid pattern",
				Pos:     v.LookupPath(cue.ParsePath("pattern")).Pos(),
				Err:     err,
			}
		}
		s.Pattern = re
	}
	return s, nil
}

func compileNumber(_ string, v cue.Value, integer bool) (schema.Validator, error) {
	n := &schema.Number{Integer: integer}
	var err error
	if n.Min, err = optionalFloat(v, "min"); err != nil {
		return nil, err
	}
	if n.Max, err = optionalFloat(v, "max"); err != nil {
		return nil, err
	}
	if !integer {
		if n.Integer, _, err = optionalBool(v, "integer"); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func compileEnum(path string, v cue.Value) (schema.Validator, error) {
	values, err := stringList(v, "values")
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, &CompileError{
			Code:    ErrCodeInvalidOption,
			Field:   path + ".values",
			Message: "enum requires at least one value",
			Pos:     v.Pos(),
		}
	}
	return &schema.Enum{Values: values}, nil
}

func compileArray(path string, v cue.Value) (schema.Validator, error) {
	a := &schema.Array{}
	var err error
	if a.MinItems, err = optionalInt(v, "minItems"); err != nil {
		return nil, err
	}
	if a.MaxItems, err = optionalInt(v, "maxItems"); err != nil {
		return nil, err
	}
	itemsVal := v.LookupPath(cue.ParsePath("items"))
	if itemsVal.Exists() {
		if a.Items, err = compileValidator(path+".items", itemsVal); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func compileObject(path string, v cue.Value) (schema.Validator, error) {
	o := &schema.Object{}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if fieldsVal.Exists() {
		iter, err := fieldsVal.Fields()
		if err != nil {
			return nil, formatCUEError(path+".fields", err)
		}
		for iter.Next() {
			prop, err := compileValidator(path+".fields."+iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			o.Properties = append(o.Properties, schema.Property{Name: iter.Label(), Validator: prop})
		}
	}

	strict, _, err := optionalBool(v, "strict")
	if err != nil {
		return nil, err
	}
	o.Strict = strict

	checksVal := v.LookupPath(cue.ParsePath("checks"))
	if checksVal.Exists() {
		list, err := checksVal.List()
		if err != nil {
			return nil, formatCUEError(path+".checks", err)
		}
		for i := 0; list.Next(); i++ {
			check, err := compileCheck(fmt.Sprintf("%s.checks[%d]", path, i), list.Value(), o)
			if err != nil {
				return nil, err
			}
			o.Checks = append(o.Checks, check)
		}
	}

	return o, nil
}

// compileCheck parses a declarative whole-object constraint.
func compileCheck(path string, v cue.Value, o *schema.Object) (schema.Check, error) {
	kind, _, err := optionalString(v, "kind")
	if err != nil {
		return schema.Check{}, err
	}

	switch kind {
	case CheckMaxTrue:
		limit, err := optionalInt(v, "max")
		if err != nil {
			return schema.Check{}, err
		}
		if limit == nil {
			return schema.Check{}, &CompileError{Code: ErrCodeInvalidCheck, Field: path + ".max", Message: "max is required", Pos: v.Pos()}
		}
		return schema.MaxTrue(*limit), nil

	case CheckSumMax:
		fields, err := stringList(v, "fields")
		if err != nil {
			return schema.Check{}, err
		}
		limit, err := optionalFloat(v, "max")
		if err != nil {
			return schema.Check{}, err
		}
		if limit == nil || len(fields) == 0 {
			return schema.Check{}, &CompileError{Code: ErrCodeInvalidCheck, Field: path, Message: "sumMax requires fields and max", Pos: v.Pos()}
		}
		for _, name := range fields {
			if !hasProperty(o, name) {
				return schema.Check{}, &CompileError{
					Code:    ErrCodeInvalidCheck,
					Field:   path + ".fields",
					Message: fmt.Sprintf("sumMax references unknown property %q", name),
					Pos:     v.Pos(),
				}
			}
		}
		return schema.SumMax(fields, *limit), nil

	default:
		return schema.Check{}, &CompileError{
			Code:    ErrCodeInvalidCheck,
			Field:   path + ".kind",
			Message: fmt.Sprintf("unsupported check kind %q", kind),
			Pos:     v.Pos(),
		}
	}
}

func hasProperty(o *schema.Object, name string) bool {
	for _, prop := range o.Properties {
		if prop.Name == name {
			return true
		}
	}
	return false
}

// optionalString reads a string property, reporting whether it was present.
func optionalString(v cue.Value, key string) (string, bool, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return "", false, nil
	}
	s, err := val.String()
	if err != nil {
		return "", false, optionError(key, val, "must be a string", err)
	}
	return s, true, nil
}

func optionalBool(v cue.Value, key string) (bool, bool, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return false, false, nil
	}
	b, err := val.Bool()
	if err != nil {
		return false, false, optionError(key, val, "must be a boolean", err)
	}
	return b, true, nil
}

func optionalInt(v cue.Value, key string) (*int, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return nil, nil
	}
	n, err := val.Int64()
	if err != nil {
		return nil, optionError(key, val, "must be an integer", err)
	}
	return schema.Int(int(n)), nil
}

func optionalFloat(v cue.Value, key string) (*float64, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return nil, nil
	}
	f, err := val.Float64()
	if err != nil {
		return nil, optionError(key, val, "must be a number", err)
	}
	return schema.Float(f), nil
}

func stringList(v cue.Value, key string) ([]string, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return nil, nil
	}
	iter, err := val.List()
	if err != nil {
		return nil, optionError(key, val, "must be a list of strings", err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, optionError(key, iter.Value(), "must be a list of strings", err)
		}
		out = append(out, s)
	}
	return out, nil
}

func optionError(key string, v cue.Value, message string, err error) error {
	return &CompileError{
		Code:    ErrCodeInvalidOption,
		Field:   key,
		Message: message,
		Pos:     v.Pos(),
		Err:     err,
	}
}
