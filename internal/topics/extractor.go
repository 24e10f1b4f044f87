// Package topics extracts flat topic lists and topic hierarchies from study
// material. Generation failures are returned as errors; malformed replies
// degrade to a single sentinel record and a warning log.
package topics

import (
	"context"
	"fmt"
	"log/slog"

	"learnquick/internal/domain"
)

// Token budgets for the two extraction prompts.
const (
	TopicsMaxTokens    = 600
	HierarchyMaxTokens = 800
)

// Extractor prompts a generator for topics and parses the replies.
type Extractor struct {
	gen       domain.Generator
	maxTopics int
	logger    *slog.Logger
}

// NewExtractor creates an extractor asking for at most maxTopics topics.
func NewExtractor(gen domain.Generator, maxTopics int, logger *slog.Logger) *Extractor {
	if maxTopics <= 0 {
		maxTopics = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{gen: gen, maxTopics: maxTopics, logger: logger}
}

// Topics returns the main topics of text with their keywords.
func (e *Extractor) Topics(ctx context.Context, text string) ([]domain.Topic, error) {
	reply, err := e.gen.Complete(ctx, TopicsPrompt(text, e.maxTopics), TopicsMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("topics: %w", err)
	}
	res := ParseTopics(reply)
	if !res.OK {
		e.logger.Warn("topics: degraded to sentinel", "reason", res.Reason, "reply_len", len(res.Raw), "reply", res.Raw)
	}
	return TopicsOrSentinel(res), nil
}

// Hierarchy returns the topic -> subtopic -> keyword structure of text.
func (e *Extractor) Hierarchy(ctx context.Context, text string) ([]domain.TopicHierarchy, error) {
	reply, err := e.gen.Complete(ctx, HierarchyPrompt(text, e.maxTopics), HierarchyMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("topics: hierarchy: %w", err)
	}
	res := ParseHierarchy(reply)
	if !res.OK {
		e.logger.Warn("topics: hierarchy degraded to sentinel", "reason", res.Reason, "reply_len", len(res.Raw), "reply", res.Raw)
	}
	return HierarchyOrSentinel(res), nil
}
