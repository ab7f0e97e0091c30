package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/wallbounce/pkg/wallbounce"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
	for _, key := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GOOGLE_API_KEY", "DEEPSEEK_API_KEY"} {
		t.Setenv(key, "")
	}

	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestAskOfflineJSON(t *testing.T) {
	out, _, err := execute(t, "ask", "--offline", "--json", "Explain how TCP congestion control works")
	require.NoError(t, err)

	var result wallbounce.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Len(t, result.Votes, 2)
	assert.True(t, result.Debug.Verified)
	assert.Equal(t, wallbounce.TaskBasic, result.Debug.TaskType)
	assert.Equal(t, wallbounce.ModeParallel, result.Debug.Mode)
	assert.Equal(t, "claude-sonnet", result.Debug.Synthesizer)
	assert.NotEmpty(t, result.Consensus.Content)
}

func TestAskSequential(t *testing.T) {
	out, _, err := execute(t, "ask", "--offline", "--json", "--mode", "sequential", "--depth", "4", "Explain how TCP congestion control works")
	require.NoError(t, err)

	var result wallbounce.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotNil(t, result.Debug.DepthExecuted)
	assert.Equal(t, 4, *result.Debug.DepthExecuted)
	assert.Len(t, result.Votes, 4)
	assert.Len(t, result.Debug.ChainSummary, 4)
}

func TestAskCriticalRequiresApproval(t *testing.T) {
	_, _, err := execute(t, "ask", "--offline", "We have a production outage in the payments cluster")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires approval")

	out, _, err := execute(t, "ask", "--offline", "--yes", "--json", "We have a production outage in the payments cluster")
	require.NoError(t, err)
	var result wallbounce.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, wallbounce.TaskCritical, result.Debug.TaskType)
	assert.Equal(t, "claude-opus", result.Debug.Synthesizer)
}

func TestAskRejectsBadFlags(t *testing.T) {
	_, _, err := execute(t, "ask", "--offline", "--mode", "sideways", "hello world")
	assert.Error(t, err)

	_, _, err = execute(t, "ask", "--offline", "--task", "urgent", "hello world")
	assert.Error(t, err)
}

func TestAskReadsPromptFromStdin(t *testing.T) {
	prompt, err := readPrompt(strings.NewReader("  what is a mutex?\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "what is a mutex?", prompt)

	_, err = readPrompt(strings.NewReader("   "), nil)
	assert.Error(t, err)
}

func TestClassifyCommand(t *testing.T) {
	out, _, err := execute(t, "classify", "--offline", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "task type:   simple")
	assert.Contains(t, out, "simple:      true")
	assert.Contains(t, out, "selected:    claude-haiku, gpt-instant")
}

func TestBackendsCommand(t *testing.T) {
	out, _, err := execute(t, "backends", "--aliases")
	require.NoError(t, err)
	assert.Contains(t, out, "KIND")
	assert.Contains(t, out, "claude-opus")
	assert.Contains(t, out, "synthesis")
	assert.Contains(t, out, "no key")
	assert.Contains(t, out, "ALIAS")
}

func TestBackendsCommandOffline(t *testing.T) {
	out, _, err := execute(t, "backends", "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, "Claude Sonnet")
	assert.Contains(t, out, "claude-sonnet-4-20250514")
	assert.Contains(t, out, "ready")
	assert.NotContains(t, out, "no key")
}

func TestPrintDebugTrail(t *testing.T) {
	var buf bytes.Buffer
	printDebugTrail(&buf, wallbounce.Debug{
		BackendsUsed:     []string{"claude-sonnet", "gpt-codex", "deepseek-chat"},
		FallbackUsed:     true,
		FallbackBackends: []string{"deepseek-chat"},
		Errors:           []string{"gpt-codex: x", "deepseek-chat: y"},
	})
	out := buf.String()
	assert.Contains(t, out, "backends used: claude-sonnet, gpt-codex, deepseek-chat")
	assert.Contains(t, out, "fallback used: deepseek-chat")
	assert.Contains(t, out, "  error: gpt-codex: x")
}

func TestAskRecordsSession(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}

	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs([]string{"ask", "--offline", "--session", "team-1", "Explain how TCP congestion control works"})
	require.NoError(t, root.Execute())

	stdout.Reset()
	root = newRootCmd(&stdout, &stderr)
	root.SetArgs([]string{"history", "team-1"})
	require.NoError(t, root.Execute())
	assert.Contains(t, stdout.String(), "Explain how TCP congestion control works")
	assert.FileExists(t, filepath.Join(home, ".wallbounce", "sessions", "team-1.json"))
}
