package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/coedit/internal/ir"
	"github.com/roach88/coedit/internal/schema"
)

func TestValidateSchemaValid(t *testing.T) {
	s := &schema.Schema{
		Name: "Form",
		Fields: []schema.FieldDefinition{
			{Name: "title", Validator: &schema.String{MaxLength: schema.Int(10)}, Default: ir.String("")},
			{Name: "count", Validator: &schema.Number{Min: schema.Float(0), Max: schema.Float(10)}, Default: ir.Number(0)},
		},
	}

	errs := Validate(s)
	assert.Empty(t, errs, "valid schema should have no errors")
}

func TestValidateSchemaInvertedRange(t *testing.T) {
	s := &schema.Schema{
		Name: "Form",
		Fields: []schema.FieldDefinition{
			{Name: "count", Validator: &schema.Number{Min: schema.Float(10), Max: schema.Float(1)}, Default: ir.Number(5)},
		},
	}

	errs := Validate(s)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrInvertedRange, errs[0].Code)
	assert.Equal(t, "fields.count", errs[0].Field)
}

func TestValidateSchemaInvertedLengthAndItems(t *testing.T) {
	s := &schema.Schema{
		Name: "Form",
		Fields: []schema.FieldDefinition{
			{Name: "title", Validator: &schema.String{MinLength: schema.Int(5), MaxLength: schema.Int(2)}, Default: ir.String("")},
			{Name: "tags", Validator: &schema.Array{MinItems: schema.Int(3), MaxItems: schema.Int(1)}, Default: ir.Array{}},
		},
	}

	errs := Validate(s)
	require.Len(t, errs, 2)
	assert.Equal(t, ErrInvertedLength, errs[0].Code)
	assert.Equal(t, ErrInvertedItems, errs[1].Code)
}

func TestValidateSchemaNegativeBound(t *testing.T) {
	s := &schema.Schema{
		Name: "Form",
		Fields: []schema.FieldDefinition{
			{Name: "title", Validator: &schema.String{MaxLength: schema.Int(-1)}, Default: ir.String("")},
		},
	}

	errs := Validate(s)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrNegativeBound, errs[0].Code)
}

func TestValidateSchemaEnumProblems(t *testing.T) {
	s := &schema.Schema{
		Name: "Form",
		Fields: []schema.FieldDefinition{
			{Name: "empty", Validator: &schema.Enum{}, Default: ir.String("")},
			{Name: "dup", Validator: &schema.Enum{Values: []string{"a", "b", "a"}}, Default: ir.String("a")},
		},
	}

	errs := Validate(s)
	require.Len(t, errs, 2)
	assert.Equal(t, ErrEmptyEnum, errs[0].Code)
	assert.Equal(t, ErrDuplicateEnum, errs[1].Code)
	assert.Contains(t, errs[1].Message, `"a"`)
}

func TestValidateSchemaDuplicateAndInvalidNames(t *testing.T) {
	s := &schema.Schema{
		Name: "Form",
		Fields: []schema.FieldDefinition{
			{Name: "a", Validator: &schema.Boolean{}, Default: ir.Bool(false)},
			{Name: "a", Validator: &schema.Boolean{}, Default: ir.Bool(false)},
			{Name: "b/c", Validator: &schema.Boolean{}, Default: ir.Bool(false)},
		},
	}

	errs := Validate(s)
	require.Len(t, errs, 2)
	assert.Equal(t, ErrDuplicateField, errs[0].Code)
	assert.Equal(t, ErrInvalidFieldName, errs[1].Code)
}

func TestValidateSchemaNestedPaths(t *testing.T) {
	s := &schema.Schema{
		Name: "Form",
		Fields: []schema.FieldDefinition{
			{
				Name: "contact",
				Validator: &schema.Object{Properties: []schema.Property{
					{Name: "age", Validator: &schema.Optional{Inner: &schema.Number{Min: schema.Float(5), Max: schema.Float(1)}}},
					{Name: "age", Validator: &schema.Boolean{}},
				}},
				Default: ir.Object{},
			},
			{
				Name:      "scores",
				Validator: &schema.Array{Items: &schema.Number{Min: schema.Float(2), Max: schema.Float(1)}},
				Default:   ir.Array{},
			},
		},
	}

	errs := Validate(s)
	require.Len(t, errs, 3)
	assert.Equal(t, "fields.contact.fields.age", errs[0].Field)
	assert.Equal(t, ErrInvertedRange, errs[0].Code)
	assert.Equal(t, ErrDuplicateProp, errs[1].Code)
	assert.Equal(t, "fields.scores.items", errs[2].Field)
}

func TestValidationErrorString(t *testing.T) {
	err := ValidationError{Field: "fields.count", Message: "min 10 is greater than max 1", Code: ErrInvertedRange}
	assert.Equal(t, "[E203] fields.count: min 10 is greater than max 1", err.Error())
}
