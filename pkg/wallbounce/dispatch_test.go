package wallbounce

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zen-systems/wallbounce/pkg/registry"
)

func TestTailorPrompt(t *testing.T) {
	known := tailorPrompt("base", registry.KindGPTCodex)
	lines := strings.Split(strings.TrimPrefix(known, "base\n\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "implementer")
	assert.Equal(t, confidenceInstruction, lines[1])

	generic := tailorPrompt("base", registry.KindClaudeHaiku)
	lines = strings.Split(strings.TrimPrefix(generic, "base\n\n"), "\n")
	assert.Equal(t, genericInstructions, lines)
	assert.True(t, strings.HasPrefix(generic, "base\n\n"))
}

func TestChainTransitions(t *testing.T) {
	descs := []registry.Descriptor{{Kind: registry.KindClaudeSonnet}, {Kind: registry.KindGPTCodex}}
	c := newChain(3, descs)
	assert.Equal(t, chainIdle, c.state)

	assert.True(t, c.next())
	assert.Equal(t, chainStep, c.state)
	assert.False(t, c.next(), "a step must settle before the next one starts")

	c.recorded(c.backend(), "first\nsecond line")
	assert.Equal(t, []string{"[Depth 1/3 - claude-sonnet] first"}, c.summary)

	assert.True(t, c.next())
	assert.Equal(t, registry.KindGPTCodex, c.backend().Kind)
	c.failed(c.backend(), errString("down"))

	assert.True(t, c.next())
	assert.Equal(t, registry.KindClaudeSonnet, c.backend().Kind)
	prompt := c.prompt("question")
	assert.Contains(t, prompt, "[Step 1 - claude-sonnet]")
	assert.Contains(t, prompt, "[Depth 2/3 - gpt-codex] failed: down")
	assert.Contains(t, prompt, "This is the final step")
	c.recorded(c.backend(), "third")

	assert.False(t, c.next())
	assert.Equal(t, chainComplete, c.state)
}

func TestChainDigestIsBounded(t *testing.T) {
	c := newChain(3, []registry.Descriptor{{Kind: registry.KindClaudeSonnet}})
	c.next()
	c.recorded(c.backend(), strings.Repeat("y", 5000))
	c.next()
	prompt := c.prompt("q")
	assert.Less(t, len(prompt), 1500)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	assert.NoError(t, err)
	assert.Equal(t, ModeParallel, m)
	m, err = ParseMode("Sequential")
	assert.NoError(t, err)
	assert.Equal(t, ModeSequential, m)
	_, err = ParseMode("fanout")
	assert.Error(t, err)
}
