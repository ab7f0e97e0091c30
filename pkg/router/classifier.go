package router

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/zen-systems/wallbounce/pkg/config"
	"github.com/zen-systems/wallbounce/pkg/registry"
)

const minSimpleLength = 3

// Classifier decides the task type of a prompt and whether it qualifies
// for the lightweight fast path.
type Classifier struct {
	technical *TriggerSet
	critical  *TriggerSet
	premium   *TriggerSet
	patterns  []*regexp.Regexp
	maxLength int
}

// NewClassifier compiles the classifier configuration.
func NewClassifier(cfg config.ClassifierConfig) (*Classifier, error) {
	c := &Classifier{
		technical: NewTriggerSet(cfg.TechnicalKeywords),
		critical:  NewTriggerSet(cfg.CriticalTriggers),
		premium:   NewTriggerSet(cfg.PremiumTriggers),
		maxLength: cfg.SimpleMaxLength,
	}
	for _, p := range cfg.SimplePatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("simple pattern %q: %w", p, err)
		}
		c.patterns = append(c.patterns, re)
	}
	return c, nil
}

// Classify never fails; ambiguous input is basic and not simple.
func (c *Classifier) Classify(prompt string) Classification {
	if c == nil {
		return Classification{TaskType: registry.TaskBasic}
	}
	trimmed := strings.TrimSpace(prompt)

	if simple, reason := c.isSimple(trimmed); simple {
		return Classification{
			TaskType: registry.TaskSimple,
			IsSimple: true,
			Reasons:  []string{reason},
		}
	}

	var candidates []Candidate
	if matched := c.critical.Matches(trimmed); len(matched) > 0 {
		candidates = append(candidates, Candidate{TaskType: registry.TaskCritical, Score: len(matched), Triggers: matched})
	}
	if matched := c.premium.Matches(trimmed); len(matched) > 0 {
		candidates = append(candidates, Candidate{TaskType: registry.TaskPremium, Score: len(matched), Triggers: matched})
	}

	if len(candidates) == 0 {
		return Classification{
			TaskType: registry.TaskBasic,
			Reasons:  []string{"no triggers matched; using basic"},
		}
	}

	// Critical outranks premium regardless of score.
	top := candidates[0]
	return Classification{
		TaskType:   top.TaskType,
		Reasons:    []string{fmt.Sprintf("%s triggers: %s", top.TaskType, strings.Join(top.Triggers, ", "))},
		Candidates: candidates,
	}
}

func (c *Classifier) isSimple(trimmed string) (bool, string) {
	length := utf8.RuneCountInString(trimmed)
	if length < minSimpleLength {
		return false, ""
	}
	if c.maxLength > 0 && length > c.maxLength {
		return false, ""
	}
	if c.technical.Any(trimmed) {
		return false, ""
	}
	for _, re := range c.patterns {
		if re.MatchString(trimmed) {
			return true, fmt.Sprintf("matched simple pattern %s", re.String())
		}
	}
	return false, ""
}
