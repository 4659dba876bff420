package cli

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = filepath.Join("testdata", "form.cue")

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "coedit", cmd.Use)
	assert.Contains(t, cmd.Long, "audit log")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"validate", "apply", "state", "history", "reset", "context", "tool-schema", "serve", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	assert.NotNil(t, cmd.PersistentFlags().Lookup("schema"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("db"))
}

func TestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	tests := []struct {
		command string
		flag    string
		def     string
	}{
		{"apply", "source", "llm"},
		{"apply", "file", ""},
		{"history", "clear", "false"},
		{"serve", "addr", ":8080"},
		{"serve", "no-metrics", "false"},
		{"test", "update", "false"},
		{"test", "filter", ""},
	}

	for _, tt := range tests {
		t.Run(tt.command+"/"+tt.flag, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{tt.command})
			require.NoError(t, err)
			f := sub.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := runCLI(t, "state", "--schema", testSchema, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestSchemaFromEnvironment(t *testing.T) {
	t.Setenv(EnvSchema, testSchema)

	out, err := runCLI(t, "state")
	require.NoError(t, err)
	assert.Contains(t, out, "size")
	assert.Contains(t, out, `"small"`)
}

func TestFlagOverridesEnvironment(t *testing.T) {
	t.Setenv(EnvSchema, filepath.Join("testdata", "missing.cue"))

	_, err := runCLI(t, "state", "--schema", testSchema)
	assert.NoError(t, err)
}

func TestMissingSchema(t *testing.T) {
	t.Setenv(EnvSchema, "")

	out, err := runCLI(t, "state")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNoSchema)
}
