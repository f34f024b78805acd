// Package cost prices language-model token usage.
//
// [ModelCost] holds per-million-token rates, [ForModel] looks up the rates of
// known Anthropic models, and [Summary] is the priced breakdown of a run's
// total usage.
package cost
