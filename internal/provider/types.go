package provider

import "github.com/sednafx/memwell/pkg/turn"

// FinishReason describes why the model stopped generating.
type FinishReason string

// FinishReason constants for model completion termination.
const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonLength    FinishReason = "length"
	FinishReasonFiltering FinishReason = "filtering"
)

// CompletionRequest is the input to a Provider.Complete call. Messages is
// the full ordered prompt history; no windowing happens at this layer.
type CompletionRequest struct {
	Messages    []turn.Turn
	MaxTokens   int
	Temperature *float64
}

// CompletionResponse is the output of a Provider.Complete call.
type CompletionResponse struct {
	Content      string
	FinishReason FinishReason
	Usage        TokenUsage
}

// TokenUsage reports token consumption as returned by the provider.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
