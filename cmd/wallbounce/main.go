package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zen-systems/wallbounce/pkg/adapter"
	"github.com/zen-systems/wallbounce/pkg/config"
	"github.com/zen-systems/wallbounce/pkg/registry"
	"github.com/zen-systems/wallbounce/pkg/router"
	"github.com/zen-systems/wallbounce/pkg/wallbounce"
)

var (
	configFile  string
	offlineFlag bool
	verboseFlag bool
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wallbounce",
		Short: "Ask several LLM backends and synthesize one consensus answer",
		Long: `Wallbounce sends a prompt to several independent model backends, enforces a
	minimum number of answers (falling back to reserve backends when needed) and has a
	synthesis backend merge them into one response.`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to orchestration config file")
	rootCmd.PersistentFlags().BoolVar(&offlineFlag, "offline", false, "route every backend to the mock adapter")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log orchestration events")

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(backendsCmd())
	rootCmd.AddCommand(historyCmd())

	return rootCmd
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadWithFile(configFile)
	}
	return config.Load()
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	if verboseFlag {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func createAdapters(cfg *config.Config) (map[string]adapter.Adapter, error) {
	adapters := make(map[string]adapter.Adapter)

	if offlineFlag {
		for _, name := range []string{"anthropic", "openai", "google", "deepseek", "mock"} {
			adapters[name] = adapter.NewNamedMockAdapter("offline-" + name)
		}
		for _, b := range cfg.WallBounce.Backends {
			if b.Adapter == "cli" {
				adapters[registry.CLIAdapterKey(b.Kind)] = adapter.NewNamedMockAdapter("offline-cli")
			}
		}
		return adapters, nil
	}

	if cfg.AnthropicAPIKey != "" {
		a, err := adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic adapter: %w", err)
		}
		adapters["anthropic"] = a
	}

	if cfg.OpenAIAPIKey != "" {
		a, err := adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai adapter: %w", err)
		}
		adapters["openai"] = a
	}

	if cfg.GoogleAPIKey != "" {
		a, err := adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create google adapter: %w", err)
		}
		adapters["google"] = a
	}

	if cfg.DeepSeekAPIKey != "" {
		a, err := adapter.NewDeepSeekAdapter(cfg.DeepSeekAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create deepseek adapter: %w", err)
		}
		adapters["deepseek"] = a
	}

	for _, b := range cfg.WallBounce.Backends {
		if b.Adapter != "cli" {
			continue
		}
		key := registry.CLIAdapterKey(b.Kind)
		a, err := adapter.NewCLIAdapter(key, b.Command, "")
		if err != nil {
			return nil, fmt.Errorf("failed to create cli adapter for %s: %w", b.Kind, err)
		}
		adapters[key] = a
	}

	adapters["mock"] = adapter.NewMockAdapter()

	return adapters, nil
}

// app bundles everything a command needs to run an analysis.
type app struct {
	cfg          *config.Config
	logger       *slog.Logger
	registry     *registry.Registry
	classifier   *router.Classifier
	selector     *router.SynthesizerSelector
	orchestrator *wallbounce.Orchestrator
}

func buildApp(stderr io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(stderr, cfg)

	aliases, err := config.LoadAliasesWithFallback()
	if err != nil {
		return nil, fmt.Errorf("failed to load model aliases: %w", err)
	}
	if !offlineFlag {
		for _, verr := range aliases.ValidateBackends(cfg.WallBounce) {
			logger.Warn("backend model check failed", "error", verr)
		}
	}

	adapters, err := createAdapters(cfg)
	if err != nil {
		return nil, err
	}
	reg, err := registry.FromConfig(cfg.WallBounce, adapters, aliases, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build backend registry: %w", err)
	}
	classifier, err := router.NewClassifier(cfg.WallBounce.Classifier)
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier: %w", err)
	}
	selector, err := router.NewSynthesizerSelector(cfg.WallBounce.Synthesis)
	if err != nil {
		return nil, fmt.Errorf("failed to build synthesizer selector: %w", err)
	}

	defaults := cfg.WallBounce.Defaults
	opts := []wallbounce.Option{
		wallbounce.WithLogger(logger),
		wallbounce.WithFallback(cfg.WallBounce.FallbackEnabled()),
		wallbounce.WithForceDiversity(cfg.WallBounce.Sequential.ForceDiversity),
		wallbounce.WithDefaults(wallbounce.ExecutionOptions{
			Mode:        wallbounce.Mode(defaults.Mode),
			Depth:       defaults.Depth,
			MinBackends: defaults.MinBackends,
			MaxBackends: defaults.MaxBackends,
		}),
	}
	if verboseFlag {
		opts = append(opts, wallbounce.WithEventSink(wallbounce.NewLogSink(logger)))
	}

	return &app{
		cfg:          cfg,
		logger:       logger,
		registry:     reg,
		classifier:   classifier,
		selector:     selector,
		orchestrator: wallbounce.New(reg, classifier, selector, opts...),
	}, nil
}
