package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/coedit/internal/compiler"
)

func runValidateCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidSchema(t *testing.T) {
	output, err := runValidateCommand(t, "text", testSchema)
	require.NoError(t, err)

	assert.Contains(t, output, "✓ Schema valid: Order Form (3 fields)")
	assert.Contains(t, output, "integer (0-10)")
	assert.Contains(t, output, `one of: "small", "large"`)
}

func TestValidateValidSchemaJSON(t *testing.T) {
	output, err := runValidateCommand(t, "json", testSchema)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Valid  bool   `json:"valid"`
			Schema string `json:"schema"`
			Fields []struct {
				Name    string `json:"name"`
				Label   string `json:"label"`
				Default any    `json:"default"`
			} `json:"fields"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, "Order Form", resp.Data.Schema)
	require.Len(t, resp.Data.Fields, 3)
	assert.Equal(t, "name", resp.Data.Fields[0].Name)
	assert.Equal(t, "Count", resp.Data.Fields[1].Label)
	assert.Equal(t, float64(1), resp.Data.Fields[1].Default)
}

func TestValidateNonExistentFile(t *testing.T) {
	output, err := runValidateCommand(t, "text", filepath.Join("testdata", "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, ErrCodeNotFound)
}

func TestValidateCompileError(t *testing.T) {
	output, err := runValidateCommand(t, "text", filepath.Join("testdata", "bad-default.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, output, "✗ Validation failed")
	assert.Contains(t, output, compiler.ErrCodeInvalidDefault)
	assert.Contains(t, output, "fields.count.default")
}

func TestValidateLintErrorJSON(t *testing.T) {
	output, err := runValidateCommand(t, "json", filepath.Join("testdata", "duplicate-enum.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, compiler.ErrDuplicateEnum, resp.Data.Errors[0].Code)
	assert.Equal(t, "fields.size", resp.Data.Errors[0].Field)
	require.NotNil(t, resp.Error)
	assert.Equal(t, compiler.ErrDuplicateEnum, resp.Error.Code)
}

func TestValidateRequiresOneArg(t *testing.T) {
	_, err := runValidateCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
