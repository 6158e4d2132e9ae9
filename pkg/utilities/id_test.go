package utilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGenerator_Unique(t *testing.T) {
	g := NewIDGenerator(3)
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := g.Next()
		require.NotEmpty(t, id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestIDGenerator_InvalidNodeFallsBackToKSUID(t *testing.T) {
	g := NewIDGenerator(-1)
	id := g.Next()
	// KSUIDs are 27 characters of base62.
	assert.Len(t, id, 27)
}

func TestNodeFromEnv(t *testing.T) {
	t.Setenv("SNOWFLAKE_NODE", "")
	assert.Equal(t, int64(1), NodeFromEnv())

	t.Setenv("SNOWFLAKE_NODE", "42")
	assert.Equal(t, int64(42), NodeFromEnv())

	t.Setenv("SNOWFLAKE_NODE", "abc")
	assert.Equal(t, int64(1), NodeFromEnv())
}
