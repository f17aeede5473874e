// Package vision analyzes product photos directly with a vision LLM,
// standing in for the hosted analysis service.
package vision

// Usage contains token usage and cost information for one analysis call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}
