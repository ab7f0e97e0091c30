package registry

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	confidenceLine = regexp.MustCompile(`(?im)^\s*\**confidence\**\s*[:=]\s*([0-9]*\.?[0-9]+)\s*(%?)`)
	reasoningLine  = regexp.MustCompile(`(?im)^\s*\**reasoning\**\s*[:=]\s*(.+)$`)
)

// ExtractConfidence reads the confidence a backend reported about its own
// answer. JSON bodies are read via their "confidence" and "reasoning"
// fields; plain text via "CONFIDENCE: x" and "REASONING: ..." lines.
// Percentages are scaled to [0,1]. fallback is used when nothing parses.
func ExtractConfidence(content string, fallback float64) (float64, string) {
	body := stripFence(content)
	if gjson.Valid(body) {
		parsed := gjson.Parse(body)
		reasoning := parsed.Get("reasoning").String()
		if c := parsed.Get("confidence"); c.Exists() && c.Type == gjson.Number {
			if v, ok := normalizeConfidence(c.Float(), false); ok {
				return v, reasoning
			}
		}
		return clamp01(fallback), reasoning
	}

	var reasoning string
	if m := reasoningLine.FindStringSubmatch(content); m != nil {
		reasoning = strings.TrimSpace(m[1])
	}
	if m := confidenceLine.FindStringSubmatch(content); m != nil {
		if raw, err := strconv.ParseFloat(m[1], 64); err == nil {
			if v, ok := normalizeConfidence(raw, m[2] == "%"); ok {
				return v, reasoning
			}
		}
	}
	return clamp01(fallback), reasoning
}

// normalizeConfidence scales percentages to [0,1]. A bare value counts as a
// percentage only from 2 upward; values in (1,2) are rejected.
func normalizeConfidence(v float64, percent bool) (float64, bool) {
	if percent || (v >= 2 && v <= 100) {
		v /= 100
	}
	if v < 0 || v > 1 {
		return 0, false
	}
	return v, true
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func stripFence(content string) string {
	body := strings.TrimSpace(content)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}
