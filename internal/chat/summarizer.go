package chat

import (
	"context"

	"github.com/sednafx/memwell/internal/compactor"
	"github.com/sednafx/memwell/internal/provider"
	"github.com/sednafx/memwell/pkg/turn"
)

// summarizeInstruction is the fixed prompt prepended to rendered
// conversation text when requesting a summary.
const summarizeInstruction = "Summarize the following conversation concisely, preserving key information and context:"

// ProviderSummarizer adapts an LLM provider into the compaction engine's
// Summarizer. A cheaper or faster model than the main chat model can be
// used here.
type ProviderSummarizer struct {
	Provider provider.Provider
}

// Compile-time interface check.
var _ compactor.Summarizer = (*ProviderSummarizer)(nil)

// Summarize asks the provider for a condensed summary of the rendered
// conversation text. Errors propagate unchanged; the engine leaves the
// store untouched on failure.
func (p *ProviderSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := p.Provider.Complete(ctx, provider.CompletionRequest{
		Messages: []turn.Turn{
			turn.User(summarizeInstruction + "\n\n" + text),
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
