package cost

import (
	"fmt"
	"strings"
)

// Currency of every amount in this package.
const Currency = "USD"

// ModelCost represents the pricing structure for a language model.
// Costs are expressed in USD per million tokens.
//
// Example usage:
//
//	modelCost := cost.ModelCost{
//	    InputCostPerMillion:  3.00,
//	    OutputCostPerMillion: 15.00,
//	}
type ModelCost struct {
	// InputCostPerMillion is the cost in USD per 1 million input tokens
	InputCostPerMillion float64 `json:"input_cost_per_million"`

	// OutputCostPerMillion is the cost in USD per 1 million output tokens
	OutputCostPerMillion float64 `json:"output_cost_per_million"`
}

// knownModels maps model id prefixes to list prices. Dated ids such as
// "claude-sonnet-4-5-20250929" match their prefix.
var knownModels = []struct {
	prefix string
	cost   ModelCost
}{
	{"claude-opus-4", ModelCost{InputCostPerMillion: 15, OutputCostPerMillion: 75}},
	{"claude-sonnet-4", ModelCost{InputCostPerMillion: 3, OutputCostPerMillion: 15}},
	{"claude-haiku-4", ModelCost{InputCostPerMillion: 1, OutputCostPerMillion: 5}},
	{"claude-3-5-sonnet", ModelCost{InputCostPerMillion: 3, OutputCostPerMillion: 15}},
	{"claude-3-5-haiku", ModelCost{InputCostPerMillion: 0.8, OutputCostPerMillion: 4}},
}

// ForModel returns the list price of model, or false when it is unknown.
func ForModel(model string) (ModelCost, bool) {
	for _, known := range knownModels {
		if strings.HasPrefix(model, known.prefix) {
			return known.cost, true
		}
	}
	return ModelCost{}, false
}

// CalculateInputCost calculates the cost for the given number of input tokens.
func (mc ModelCost) CalculateInputCost(tokens int) float64 {
	return (float64(tokens) / 1_000_000.0) * mc.InputCostPerMillion
}

// CalculateOutputCost calculates the cost for the given number of output tokens.
func (mc ModelCost) CalculateOutputCost(tokens int) float64 {
	return (float64(tokens) / 1_000_000.0) * mc.OutputCostPerMillion
}

// Summarize prices a token count.
func (mc ModelCost) Summarize(inputTokens, outputTokens int) Summary {
	summary := Summary{
		InputCost:  mc.CalculateInputCost(inputTokens),
		OutputCost: mc.CalculateOutputCost(outputTokens),
		Currency:   Currency,
	}
	summary.TotalCost = summary.InputCost + summary.OutputCost
	return summary
}

// String returns a formatted string representation of the model costs.
func (mc ModelCost) String() string {
	return fmt.Sprintf("Input: $%.6f/M, Output: $%.6f/M",
		mc.InputCostPerMillion, mc.OutputCostPerMillion)
}

// Summary is the priced breakdown of a token count.
type Summary struct {
	// InputCost is the cost from input tokens
	InputCost float64 `json:"input_cost"`

	// OutputCost is the cost from output tokens
	OutputCost float64 `json:"output_cost"`

	// TotalCost is InputCost plus OutputCost
	TotalCost float64 `json:"total_cost"`

	// Currency is always "USD"
	Currency string `json:"currency"`
}
