package router

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const subScoreCap = 3

var listMarker = regexp.MustCompile(`(?m)^\s*(?:[-*•]|\d+[.)])\s+`)

var (
	causalTerms = NewTriggerSet([]string{
		"why", "because", "cause", "causes", "caused", "root cause", "explain", "explanation",
		"reason", "due to", "leads to", "result in", "results in", "how does", "how do",
	})
	comparisonTerms = NewTriggerSet([]string{
		"compare", "comparison", "versus", "vs", "trade-off", "trade-offs", "tradeoff",
		"tradeoffs", "pros and cons", "evaluate", "evaluation", "assess", "difference between",
		"better than", "which is better", "alternatives",
	})
	designTerms = NewTriggerSet([]string{
		"design", "architecture", "architectural", "architect", "system design", "blueprint",
		"pattern", "patterns", "topology", "scalable", "modular",
	})
)

type domainBucket struct {
	name  string
	terms *TriggerSet
}

var domainBuckets = []domainBucket{
	{"technical", NewTriggerSet([]string{
		"code", "api", "database", "kubernetes", "docker", "server", "function", "algorithm",
		"sql", "cache", "service", "microservice", "library", "framework",
	})},
	{"business", NewTriggerSet([]string{
		"revenue", "cost", "costs", "budget", "customer", "customers", "stakeholder", "roi",
		"market", "business", "contract", "pricing", "sla",
	})},
	{"security", NewTriggerSet([]string{
		"security", "vulnerability", "vulnerabilities", "authentication", "authorization",
		"encryption", "compliance", "breach", "attack", "permissions", "secrets", "cve",
	})},
	{"performance", NewTriggerSet([]string{
		"performance", "latency", "throughput", "optimize", "optimization", "bottleneck",
		"scalability", "load", "memory", "cpu", "benchmark",
	})},
	{"operations", NewTriggerSet([]string{
		"monitoring", "incident", "on-call", "alert", "alerts", "runbook", "deployment",
		"rollback", "backup", "outage", "observability", "maintenance",
	})},
}

// ScoreComplexity scores prompt structure, reasoning depth and domain
// breadth. Each sub-score is capped at 3.
func ScoreComplexity(prompt string) ComplexityScore {
	score := ComplexityScore{
		Structural: structuralScore(prompt),
		Cognitive:  cognitiveScore(prompt),
	}
	score.Domain, score.Buckets = domainScore(prompt)
	return score
}

func structuralScore(prompt string) int {
	score := 0
	switch length := utf8.RuneCountInString(prompt); {
	case length > 800:
		score += 2
	case length > 400:
		score++
	}
	switch markers := len(listMarker.FindAllStringIndex(prompt, -1)); {
	case markers > 5:
		score += 2
	case markers > 2:
		score++
	}
	switch questions := strings.Count(prompt, "?"); {
	case questions > 4:
		score += 2
	case questions > 2:
		score++
	}
	return capScore(score)
}

func cognitiveScore(prompt string) int {
	score := 0
	if causalTerms.Any(prompt) {
		score++
	}
	if comparisonTerms.Any(prompt) {
		score += 2
	}
	if designTerms.Any(prompt) {
		score++
	}
	return capScore(score)
}

func domainScore(prompt string) (int, []string) {
	var matched []string
	for _, bucket := range domainBuckets {
		if bucket.terms.Any(prompt) {
			matched = append(matched, bucket.name)
		}
	}
	switch {
	case len(matched) >= 3:
		return 3, matched
	case len(matched) == 2:
		return 2, matched
	default:
		return 0, matched
	}
}

func capScore(score int) int {
	if score > subScoreCap {
		return subScoreCap
	}
	return score
}
