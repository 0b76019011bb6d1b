// Package provider defines the interface for communicating with an LLM.
// Concrete implementations live in separate packages (e.g., modules/provider/openai).
package provider

import "context"

// Provider is a synchronous text-in/text-out LLM capability. The core
// treats it as blocking-until-complete: no retries, no partial results.
type Provider interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// ModelName returns the identifier of the underlying model.
	ModelName() string
}
