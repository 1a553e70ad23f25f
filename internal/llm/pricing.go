package llm

import (
	"regexp"
	"strings"
)

// ModelCost is USD per million tokens.
type ModelCost struct {
	Input  float64
	Output float64
}

// Cost is the USD cost of the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*c.Input + float64(outputTokens)*c.Output) / 1_000_000
}

// prices covers the models the defaults and aliases resolve to, keyed by
// canonical ID. Published list prices, October 2026.
var prices = map[string]ModelCost{
	"gemini-2.5-flash":      {0.30, 2.50},
	"gemini-2.5-flash-lite": {0.10, 0.40},
	"gemini-2.5-pro":        {1.25, 10},
	"gemini-2.0-flash":      {0.10, 0.40},
	"gpt-4o-mini":           {0.15, 0.60},
	"gpt-4o":                {2.50, 10},
	"gpt-4.1-mini":          {0.40, 1.60},
	"claude-haiku-4-5":      {1, 5},
	"claude-sonnet-4":       {3, 15},
	"mock":                  {0, 0},
}

var dateStamp = regexp.MustCompile(`-(\d{8}|\d{4}-\d{2}-\d{2})$`)

// canonicalModel strips what providers add to a model ID when they report
// it back: a vendor or "models/" prefix, a date stamp, and -exp/-latest.
func canonicalModel(model string) string {
	id := strings.ToLower(strings.TrimSpace(model))
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	id = dateStamp.ReplaceAllString(id, "")
	for _, suffix := range []string{"-exp", "-latest", "-001"} {
		id = strings.TrimSuffix(id, suffix)
	}
	return id
}

// LookupCost returns pricing for a model as recorded in the request log.
func LookupCost(model string) (ModelCost, bool) {
	c, ok := prices[canonicalModel(model)]
	return c, ok
}
