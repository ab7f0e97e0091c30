package router

import (
	"sort"
	"strings"
)

// TriggerSet matches lowercase trigger phrases against prompts.
type TriggerSet struct {
	// Longer triggers first so the most specific phrase is reported.
	triggers []string
}

// NewTriggerSet compiles triggers, dropping blanks and duplicates.
func NewTriggerSet(triggers []string) *TriggerSet {
	seen := make(map[string]bool, len(triggers))
	ts := &TriggerSet{}
	for _, trig := range triggers {
		t := strings.ToLower(strings.TrimSpace(trig))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		ts.triggers = append(ts.triggers, t)
	}
	sort.SliceStable(ts.triggers, func(i, j int) bool {
		return len(ts.triggers[i]) > len(ts.triggers[j])
	})
	return ts
}

// Matches returns every trigger found in the prompt.
func (ts *TriggerSet) Matches(prompt string) []string {
	if ts == nil {
		return nil
	}
	promptLower := strings.ToLower(prompt)
	var matched []string
	for _, trigger := range ts.triggers {
		if containsTrigger(promptLower, trigger) {
			matched = append(matched, trigger)
		}
	}
	return matched
}

// Any reports whether at least one trigger is present.
func (ts *TriggerSet) Any(prompt string) bool {
	if ts == nil {
		return false
	}
	promptLower := strings.ToLower(prompt)
	for _, trigger := range ts.triggers {
		if containsTrigger(promptLower, trigger) {
			return true
		}
	}
	return false
}

// Len returns the number of compiled triggers.
func (ts *TriggerSet) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.triggers)
}

// containsTrigger checks if the prompt contains the trigger phrase.
// It looks for the trigger as a word or phrase boundary match.
func containsTrigger(prompt, trigger string) bool {
	if trigger == "" {
		return false
	}
	offset := 0
	for {
		idx := strings.Index(prompt[offset:], trigger)
		if idx == -1 {
			return false
		}
		idx += offset

		before := idx == 0 || !isWordChar(prompt[idx-1])
		endIdx := idx + len(trigger)
		after := endIdx >= len(prompt) || !isWordChar(prompt[endIdx])
		if before && after {
			return true
		}
		offset = idx + 1
	}
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
