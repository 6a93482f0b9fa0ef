package pricing

import (
	"fmt"
	"strings"
)

// TokenUsage tracks token consumption for cost calculation.
// This mirrors llm.TokenUsage to avoid a circular import.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CostAccuracy indicates reliability of cost value.
type CostAccuracy string

const (
	CostMeasured    CostAccuracy = "measured"
	CostEstimated   CostAccuracy = "estimated"
	CostUnavailable CostAccuracy = "unavailable"
)

// CostInfo contains cost details with accuracy tracking.
type CostInfo struct {
	Amount   float64
	Currency string
	Accuracy CostAccuracy
}

// CalculateCost computes the cost for a request using pricing configuration.
func CalculateCost(mp *ModelPricing, usage TokenUsage) *CostInfo {
	if mp == nil {
		return &CostInfo{
			Amount:   0,
			Currency: "USD",
			Accuracy: CostUnavailable,
		}
	}

	// Free models (local or stub) have no per-token cost
	if mp.Free {
		return &CostInfo{
			Amount:   0,
			Currency: "USD",
			Accuracy: CostMeasured,
		}
	}

	inputCost := float64(usage.PromptTokens) / 1_000_000.0 * mp.InputPricePerMillion
	outputCost := float64(usage.CompletionTokens) / 1_000_000.0 * mp.OutputPricePerMillion

	return &CostInfo{
		Amount:   inputCost + outputCost,
		Currency: "USD",
		Accuracy: usageAccuracy(usage),
	}
}

// usageAccuracy determines cost accuracy based on token usage data.
func usageAccuracy(usage TokenUsage) CostAccuracy {
	if usage.PromptTokens > 0 || usage.CompletionTokens > 0 {
		return CostMeasured
	}
	if usage.TotalTokens > 0 {
		return CostEstimated
	}
	return CostUnavailable
}

// EstimateTokensFromText estimates token count from text using character-based
// approximation. This is a fallback when the provider doesn't report token
// counts. Uses the common approximation of ~4 characters per token for
// English text; this tends to overestimate, which is the safe direction for
// budget accounting.
func EstimateTokensFromText(text string) int {
	estimatedTokens := len(text) / 4

	// Minimum 1 token for non-empty text
	if estimatedTokens == 0 && len(text) > 0 {
		estimatedTokens = 1
	}

	return estimatedTokens
}

// FormatCost formats a cost value with accuracy indicator for display.
// Returns strings like "$0.0045", "~$0.0045", or "--" for unavailable.
func FormatCost(cost *CostInfo) string {
	if cost == nil || cost.Accuracy == CostUnavailable {
		return "--"
	}

	formatted := fmt.Sprintf("$%.4f", cost.Amount)
	if cost.Accuracy == CostEstimated {
		formatted = "~" + formatted
	}

	return formatted
}

// FormatTokens formats token count for display with units.
func FormatTokens(tokens int) string {
	if tokens >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(tokens)/1_000_000.0)
	}
	if tokens >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(tokens)/1_000.0)
	}
	return fmt.Sprintf("%d", tokens)
}

// ParseModel extracts provider and model from a model string.
// Supports formats like "openai:gpt-4o-mini" or just "gpt-4o-mini".
func ParseModel(modelStr string) (provider, model string) {
	parts := strings.SplitN(modelStr, ":", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}

	if strings.HasPrefix(modelStr, "gpt-") || strings.HasPrefix(modelStr, "o1-") {
		return "openai", modelStr
	}
	if strings.HasPrefix(modelStr, "gemini-") {
		return "gemini", modelStr
	}

	return "unknown", modelStr
}
