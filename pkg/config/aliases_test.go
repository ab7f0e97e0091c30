package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	aliases := &ModelAliases{
		Aliases: map[string]string{
			"fast":    "gpt-5.2-instant",
			"quality": "claude-sonnet-4-20250514",
		},
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "resolve known alias", input: "fast", expected: "gpt-5.2-instant"},
		{name: "resolve another alias", input: "quality", expected: "claude-sonnet-4-20250514"},
		{name: "unknown alias returns input unchanged", input: "unknown-model", expected: "unknown-model"},
		{name: "canonical model returns unchanged", input: "gpt-5.2-instant", expected: "gpt-5.2-instant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := aliases.Resolve(tt.input)
			if result != tt.expected {
				t.Errorf("Resolve(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestResolve_NilAliases(t *testing.T) {
	var aliases *ModelAliases
	if result := aliases.Resolve("fast"); result != "fast" {
		t.Errorf("Resolve on nil should return input, got %q", result)
	}
	if aliases.IsAlias("fast") {
		t.Error("IsAlias on nil should be false")
	}
}

func TestValidateModel(t *testing.T) {
	aliases := &ModelAliases{
		Providers: map[string][]string{
			"openai":    {"gpt-5.2-instant", "gpt-5.2-pro"},
			"anthropic": {"claude-sonnet-4-20250514"},
		},
	}

	tests := []struct {
		name      string
		adapter   string
		model     string
		wantError bool
	}{
		{name: "valid model for provider", adapter: "openai", model: "gpt-5.2-instant"},
		{name: "another valid model", adapter: "anthropic", model: "claude-sonnet-4-20250514"},
		{name: "invalid model for provider", adapter: "openai", model: "claude-sonnet-4-20250514", wantError: true},
		{name: "unknown adapter", adapter: "unknown", model: "some-model", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := aliases.ValidateModel(tt.adapter, tt.model)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateModel(%q, %q) error = %v, wantError %v",
					tt.adapter, tt.model, err, tt.wantError)
			}
		})
	}
}

func TestValidateBackends(t *testing.T) {
	aliases := DefaultAliases()
	if errs := aliases.ValidateBackends(DefaultWallBounceConfig()); len(errs) != 0 {
		t.Fatalf("default roster should validate, got %v", errs)
	}

	cfg := &WallBounceConfig{Backends: []BackendConfig{
		{Kind: "gpt-codex", Adapter: "openai", Model: "not-a-model"},
		{Kind: "claude-haiku", Adapter: "cli", Command: []string{"claude"}},
	}}
	errs := aliases.ValidateBackends(cfg)
	if len(errs) != 1 {
		t.Fatalf("expected 1 validation error, got %d: %v", len(errs), errs)
	}
}

func TestLoadAliases(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "models.yaml")

	content := `aliases:
  fast: gpt-5.2-instant
  quality: claude-sonnet-4-20250514

providers:
  openai:
    - gpt-5.2-instant
  anthropic:
    - claude-sonnet-4-20250514
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	aliases, err := LoadAliases(configPath)
	if err != nil {
		t.Fatalf("LoadAliases() error = %v", err)
	}
	if aliases.Resolve("fast") != "gpt-5.2-instant" {
		t.Error("alias 'fast' should resolve to 'gpt-5.2-instant'")
	}
	if err := aliases.ValidateModel("openai", "gpt-5.2-instant"); err != nil {
		t.Errorf("gpt-5.2-instant should be in openai provider: %v", err)
	}
}

func TestLoadAliases_FileNotFound(t *testing.T) {
	if _, err := LoadAliases("/nonexistent/path/models.yaml"); err == nil {
		t.Error("LoadAliases should error for nonexistent file")
	}
}

func TestLoadAliasesWithFallback(t *testing.T) {
	home := t.TempDir()
	setHomeEnv(t, home)

	aliases, err := LoadAliasesWithFallback()
	if err != nil {
		t.Fatalf("LoadAliasesWithFallback() error = %v", err)
	}
	if aliases.Resolve("quality") != "claude-sonnet-4-20250514" {
		t.Error("defaults should be used when no user file exists")
	}

	dir := filepath.Join(home, ".wallbounce")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "models.yaml"), []byte("aliases:\n  test-alias: test-model\n"), 0600); err != nil {
		t.Fatal(err)
	}

	aliases, err = LoadAliasesWithFallback()
	if err != nil {
		t.Fatalf("LoadAliasesWithFallback() error = %v", err)
	}
	if aliases.Resolve("test-alias") != "test-model" {
		t.Error("user config should be loaded")
	}
}
