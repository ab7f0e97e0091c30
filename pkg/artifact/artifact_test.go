package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewComputesHashes(t *testing.T) {
	a := New("answer", "mock", "mock-1", "prompt")
	require.NotEmpty(t, a.ID)
	assert.Len(t, a.Hash, 16)
	assert.Equal(t, HashString("prompt"), a.PromptHash)

	b := New("answer", "mock", "mock-1", "other prompt")
	assert.Equal(t, a.Hash, b.Hash, "content hash ignores the prompt")
	assert.NotEqual(t, a.ID, b.ID)
}
