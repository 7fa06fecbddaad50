package types

// ModelPricing is the per-1M-token price table for one base model.
type ModelPricing struct {
	Input       float64
	CachedInput float64
	Output      float64
}

// PriceOverride lets a model charge different rates once total prompt
// tokens exceed a threshold (e.g. long-context surcharges).
type PriceOverride struct {
	PromptTokenThreshold int
	Pricing              ModelPricing
}

// PricingTable is the price list for one base model: a base price plus
// zero or more threshold-triggered overrides, evaluated in order.
type PricingTable struct {
	Base      ModelPricing
	Overrides []PriceOverride
}

// For resolves the effective pricing for a call with the given total
// prompt token count.
func (t PricingTable) For(promptTokens int) ModelPricing {
	effective := t.Base
	for _, o := range t.Overrides {
		if promptTokens > o.PromptTokenThreshold {
			effective = o.Pricing
		}
	}
	return effective
}

// DefaultPricing mirrors original_source/src/models.py:PRICING_PER_1M_TOKENS,
// the production price list at the time this module was built.
var DefaultPricing = map[string]PricingTable{
	BaseGPT51: {Base: ModelPricing{Input: 1.25, CachedInput: 0.125, Output: 10.00}},
	BaseClaudeSonnet: {Base: ModelPricing{Input: 3.00, CachedInput: 0.30, Output: 15.00}},
	BaseClaudeOpus:   {Base: ModelPricing{Input: 5.00, CachedInput: 0.50, Output: 25.00}},
	BaseGemini3:      {Base: ModelPricing{Input: 2.00, CachedInput: 0.0, Output: 12.00}},
}

// CalculateCost computes Σ cost over non-cached input, cached input,
// and output tokens at the applicable per-1M rates.
func CalculateCost(table PricingTable, promptTokens, cachedTokens, completionTokens int) float64 {
	pricing := table.For(promptTokens)
	nonCached := promptTokens - cachedTokens
	if nonCached < 0 {
		nonCached = 0
	}
	cost := float64(nonCached) / 1_000_000 * pricing.Input
	cost += float64(cachedTokens) / 1_000_000 * pricing.CachedInput
	cost += float64(completionTokens) / 1_000_000 * pricing.Output
	return cost
}
