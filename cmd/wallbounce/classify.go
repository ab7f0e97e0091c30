package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zen-systems/wallbounce/pkg/registry"
	"github.com/zen-systems/wallbounce/pkg/router"
)

var classifyJSON bool

type classifyOutput struct {
	Classification router.Classification   `json:"classification"`
	Synthesizer    router.SynthesizerChoice `json:"synthesizer"`
	Selected       []string                 `json:"selected"`
	Reserve        []string                 `json:"reserve"`
}

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [prompt]",
		Short: "Show how a prompt would be routed without calling any backend",
		RunE:  runClassify,
	}
	cmd.Flags().BoolVar(&classifyJSON, "json", false, "print the routing decision as JSON")
	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	prompt, err := readPrompt(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	a, err := buildApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	cls := a.classifier.Classify(prompt)
	selectionTask := cls.TaskType
	if cls.IsSimple {
		selectionTask = registry.TaskSimple
	}
	out := classifyOutput{
		Classification: cls,
		Synthesizer:    a.selector.Select(prompt, cls.TaskType),
		Selected:       kindNames(a.registry.SelectOrder(selectionTask)),
		Reserve:        kindNames(a.registry.Reserve()),
	}

	w := cmd.OutOrStdout()
	if classifyJSON {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode classification: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	fmt.Fprintf(w, "task type:   %s\n", cls.TaskType)
	fmt.Fprintf(w, "simple:      %t\n", cls.IsSimple)
	for _, r := range cls.Reasons {
		fmt.Fprintf(w, "  - %s\n", r)
	}
	fmt.Fprintf(w, "synthesizer: %s", out.Synthesizer.Kind)
	switch {
	case out.Synthesizer.Override:
		fmt.Fprint(w, " (override)")
	case out.Synthesizer.Score != nil:
		s := out.Synthesizer.Score
		fmt.Fprintf(w, " (complexity %d: structural %d, cognitive %d, domain %d)", s.Total(), s.Structural, s.Cognitive, s.Domain)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "selected:    %s\n", strings.Join(out.Selected, ", "))
	fmt.Fprintf(w, "reserve:     %s\n", strings.Join(out.Reserve, ", "))
	return nil
}

func kindNames(kinds []registry.Kind) []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}
