package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/coedit/internal/ir"
)

func testSchema() Schema {
	return Schema{
		Name: "Contact Form",
		Fields: []FieldDefinition{
			{Name: "name", Label: "Full name", Validator: &String{}, Default: ir.String("")},
			{Name: "count", Label: "Count", Validator: &Number{Min: Float(0), Max: Float(100)}, Default: ir.Number(0)},
			{Name: "contact", Label: "Contact", Validator: contactValidator(), Default: ir.Object{
				"name": ir.String(""), "email": ir.String(""), "phone": ir.String(""),
			}},
		},
	}
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(testSchema())
	require.NoError(t, err)

	assert.Equal(t, "Contact Form", r.Name())
	assert.Equal(t, []string{"name", "count", "contact"}, r.Names())
	assert.True(t, r.Has("count"))
	assert.False(t, r.Has("missing"))

	def, ok := r.Field("name")
	require.True(t, ok)
	assert.Equal(t, "Full name", def.Label)
}

func TestNewRegistryRejectsBadSchemas(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Schema)
		message string
	}{
		{"empty name", func(s *Schema) { s.Fields[0].Name = "" }, "field name is required"},
		{"slash in name", func(s *Schema) { s.Fields[0].Name = "a/b" }, "must not contain '/'"},
		{"duplicate", func(s *Schema) { s.Fields[1].Name = "name" }, "duplicate field name"},
		{"no validator", func(s *Schema) { s.Fields[0].Validator = nil }, "validator is required"},
		{"no default", func(s *Schema) { s.Fields[0].Default = nil }, "default value is required"},
		{"invalid default", func(s *Schema) { s.Fields[1].Default = ir.Number(500) }, "default value is invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSchema()
			tt.mutate(&s)
			_, err := NewRegistry(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)

			var re *RegistryError
			assert.ErrorAs(t, err, &re)
		})
	}
}

func TestRegistryValidate(t *testing.T) {
	r, err := NewRegistry(testSchema())
	require.NoError(t, err)

	got, err := r.Validate("count", ir.Number(5))
	require.NoError(t, err)
	assert.Equal(t, ir.Number(5), got)

	_, err = r.Validate("count", ir.Number(999))
	require.Error(t, err)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = r.Validate("nope", ir.Number(1))
	require.Error(t, err)
	var ue *UnknownFieldError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Unknown field: nope", err.Error())
}

func TestRegistryDescribe(t *testing.T) {
	r, err := NewRegistry(testSchema())
	require.NoError(t, err)

	c, err := r.Describe("count")
	require.NoError(t, err)
	assert.Equal(t, KindNumber, c.Kind)
	assert.Equal(t, 100.0, *c.Constraints.Max)

	_, err = r.Describe("nope")
	require.Error(t, err)
}

func TestRegistryDefaultsAreIndependent(t *testing.T) {
	r, err := NewRegistry(testSchema())
	require.NoError(t, err)

	first := r.Defaults()
	first["contact"].(ir.Object)["name"] = ir.String("mutated")
	first["name"] = ir.String("mutated")

	second := r.Defaults()
	assert.Equal(t, ir.String(""), second["name"])
	assert.Equal(t, ir.String(""), second["contact"].(ir.Object)["name"])

	def, err := r.Default("contact")
	require.NoError(t, err)
	assert.True(t, ir.Equal(second["contact"], def))
}
