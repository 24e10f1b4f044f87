package topics

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"learnquick/internal/domain"
)

// Sentinel topic names shown instead of real topics.
const (
	NameNoTopics      = "No topics found"
	NameParsingFailed = "Parsing failed"
)

// Result is the tagged outcome of parsing a generation reply.
// When OK is false, Reason says why and Raw holds the reply as received.
type Result[T any] struct {
	Value  []T
	OK     bool
	Empty  bool
	Reason string
	Raw    string
}

func parsed[T any](v []T, raw string) Result[T] {
	if v == nil {
		v = []T{}
	}
	return Result[T]{Value: v, OK: true, Raw: raw}
}

func failed[T any](raw, reason string) Result[T] {
	return Result[T]{Reason: reason, Raw: raw}
}

func empty[T any](raw string) Result[T] {
	return Result[T]{Empty: true, Reason: "empty reply", Raw: raw}
}

// ParseTopics decodes the substring between the first '[' and the last ']'
// as a JSON array of topics. Prose around the array is ignored.
func ParseTopics(reply string) Result[domain.Topic] {
	text := strings.TrimSpace(reply)
	if text == "" {
		return empty[domain.Topic](reply)
	}
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return failed[domain.Topic](reply, "no JSON array found")
	}
	var out []domain.Topic
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return failed[domain.Topic](reply, fmt.Sprintf("decode topics: %v", err))
	}
	return parsed(out, reply)
}

var arraySpanRe = regexp.MustCompile(`(?s)\[.*\]`)

// ParseHierarchy decodes the greedy bracket span of the reply as a JSON array
// of topic hierarchies.
func ParseHierarchy(reply string) Result[domain.TopicHierarchy] {
	text := strings.TrimSpace(reply)
	if text == "" {
		return empty[domain.TopicHierarchy](reply)
	}
	span := arraySpanRe.FindString(text)
	if span == "" {
		return failed[domain.TopicHierarchy](reply, "no JSON array found")
	}
	var out []domain.TopicHierarchy
	if err := json.Unmarshal([]byte(span), &out); err != nil {
		return failed[domain.TopicHierarchy](reply, fmt.Sprintf("decode hierarchy: %v", err))
	}
	return parsed(out, reply)
}

// TopicsOrSentinel returns the parsed topics, or a single sentinel topic
// naming the failure.
func TopicsOrSentinel(r Result[domain.Topic]) []domain.Topic {
	switch {
	case r.OK:
		return r.Value
	case r.Empty:
		return []domain.Topic{{Name: NameNoTopics, Keywords: []string{}}}
	default:
		return []domain.Topic{{Name: NameParsingFailed, Keywords: []string{}}}
	}
}

// HierarchyOrSentinel is TopicsOrSentinel for hierarchies.
func HierarchyOrSentinel(r Result[domain.TopicHierarchy]) []domain.TopicHierarchy {
	switch {
	case r.OK:
		return r.Value
	case r.Empty:
		return []domain.TopicHierarchy{{Topic: NameNoTopics, Subtopics: []domain.Subtopic{}}}
	default:
		return []domain.TopicHierarchy{{Topic: NameParsingFailed, Subtopics: []domain.Subtopic{}}}
	}
}
