package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zen-systems/wallbounce/pkg/approval"
	"github.com/zen-systems/wallbounce/pkg/registry"
	"github.com/zen-systems/wallbounce/pkg/session"
	"github.com/zen-systems/wallbounce/pkg/wallbounce"
)

var (
	askMode       string
	askDepth      int
	askTask       string
	askMin        int
	askMax        int
	askNoFallback bool
	askJSON       bool
	askSession    string
	askYes        bool
)

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Run a prompt through the backends and print the consensus",
		Long: `Ask classifies the prompt, dispatches it to the selected backends in parallel
(or as a sequential refinement chain with --mode sequential), enforces the minimum
number of answers and prints the synthesized consensus.

The prompt is read from the arguments, or from stdin when no arguments are given.`,
		RunE: runAsk,
	}

	cmd.Flags().StringVar(&askMode, "mode", "", "dispatch mode: parallel or sequential")
	cmd.Flags().IntVar(&askDepth, "depth", 0, "sequential chain depth (3-5)")
	cmd.Flags().StringVar(&askTask, "task", "", "force the task type: basic, premium, critical or simple")
	cmd.Flags().IntVar(&askMin, "min", 0, "minimum successful backends")
	cmd.Flags().IntVar(&askMax, "max", 0, "maximum primary backends")
	cmd.Flags().BoolVar(&askNoFallback, "no-fallback", false, "do not consult reserve backends")
	cmd.Flags().BoolVar(&askJSON, "json", false, "print the full result as JSON")
	cmd.Flags().StringVar(&askSession, "session", "", "append the exchange to this session")
	cmd.Flags().BoolVarP(&askYes, "yes", "y", false, "approve critical analyses without prompting")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	prompt, err := readPrompt(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	a, err := buildApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := a.orchestrator.Validate(); err != nil {
		return err
	}

	opts, err := askOptions()
	if err != nil {
		return err
	}

	taskType := opts.TaskType
	if taskType == "" {
		taskType = a.classifier.Classify(prompt).TaskType
	}
	decision := approval.NewGate().RequestApproval(approval.Request{
		Name:      "ask",
		Operation: "analyze",
		TaskType:  string(taskType),
		Args:      map[string]string{"mode": string(opts.Mode)},
	})
	if !decision.Approved() && !askYes {
		return fmt.Errorf("%s analysis requires approval (policy %s): rerun with --yes", taskType, decision.PolicyID)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, err := a.orchestrator.ExecuteAnalysis(ctx, prompt, opts)
	if err != nil {
		if debug, ok := wallbounce.DebugOf(err); ok {
			printDebugTrail(cmd.ErrOrStderr(), debug)
		}
		return err
	}

	if askSession != "" {
		if err := recordSession(a.cfg.SessionDir, a.cfg.WallBounce.SessionTTL(), prompt, result); err != nil {
			a.logger.Warn("failed to record session", "session", askSession, "error", err)
		}
	}

	out := cmd.OutOrStdout()
	if askJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	printResult(out, result)
	return nil
}

func askOptions() (wallbounce.ExecutionOptions, error) {
	opts := wallbounce.ExecutionOptions{
		Depth:           askDepth,
		MinBackends:     askMin,
		MaxBackends:     askMax,
		DisableFallback: askNoFallback,
	}
	if askTask != "" {
		tt, err := registry.ParseTaskType(askTask)
		if err != nil {
			return opts, err
		}
		opts.TaskType = tt
	}
	if askMode != "" {
		mode, err := wallbounce.ParseMode(askMode)
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}
	return opts, nil
}

func readPrompt(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", errors.New("prompt is required")
	}
	return prompt, nil
}

func recordSession(dir string, ttl time.Duration, prompt string, result *wallbounce.AnalysisResult) error {
	store, err := session.NewStore(dir, ttl)
	if err != nil {
		return err
	}
	return store.Append(askSession, session.Entry{
		RunID:      result.RunID,
		Timestamp:  time.Now().UTC(),
		Prompt:     prompt,
		Consensus:  result.Consensus.Content,
		Confidence: result.Consensus.Confidence,
		TaskType:   string(result.Debug.TaskType),
		Mode:       string(result.Debug.Mode),
		Backends:   result.Debug.BackendsUsed,
		Cost:       result.TotalCost,
	})
}

func printResult(w io.Writer, result *wallbounce.AnalysisResult) {
	fmt.Fprintln(w, strings.TrimSpace(result.Consensus.Content))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "confidence: %.2f  task: %s  mode: %s  synthesizer: %s\n",
		result.Consensus.Confidence, result.Debug.TaskType, result.Debug.Mode, result.Debug.Synthesizer)
	for _, v := range result.Votes {
		marker := ""
		if v.Fallback {
			marker = " (fallback)"
		}
		fmt.Fprintf(w, "  %-24s confidence %.2f  cost $%s%s\n", v.ID(), v.Confidence, v.Cost.StringFixed(4), marker)
	}
	fmt.Fprintf(w, "total cost: $%s  time: %dms  verified: %t\n",
		result.TotalCost.StringFixed(4), result.ProcessingTimeMs, result.Debug.Verified)
	for _, e := range result.Debug.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
}

func printDebugTrail(w io.Writer, debug wallbounce.Debug) {
	if len(debug.BackendsUsed) > 0 {
		fmt.Fprintf(w, "backends used: %s\n", strings.Join(debug.BackendsUsed, ", "))
	}
	if debug.FallbackUsed {
		fmt.Fprintf(w, "fallback used: %s\n", strings.Join(debug.FallbackBackends, ", "))
	}
	for _, e := range debug.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
}

