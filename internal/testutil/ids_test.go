package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDGenerator_Sequence(t *testing.T) {
	gen := NewFixedIDGenerator("a", "b")

	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
	assert.Equal(t, "test-session-3", gen.Generate())
}

func TestFixedIDGenerator_Empty(t *testing.T) {
	gen := NewFixedIDGenerator()
	assert.Equal(t, "test-session-1", gen.Generate())
}
