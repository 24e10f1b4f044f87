package summarizer

import (
	"context"
	"fmt"

	"learnquick/internal/domain"
)

// SummaryMaxTokens is the generation budget for a corpus summary.
const SummaryMaxTokens = 300

// LLMSummarizer asks the generation service for an abstractive summary.
type LLMSummarizer struct {
	gen domain.Generator
}

func NewLLMSummarizer(gen domain.Generator) *LLMSummarizer {
	return &LLMSummarizer{gen: gen}
}

// Summarize returns the generation service's summary of text.
func (s *LLMSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`
Summarize the following clearly and concisely:

TEXT:
%s

SUMMARY:
`, text)
	out, err := s.gen.Complete(ctx, prompt, SummaryMaxTokens)
	if err != nil {
		return "", fmt.Errorf("summarizer: %w", err)
	}
	return out, nil
}
