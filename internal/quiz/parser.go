// Package quiz builds quiz prompts, parses the semi-structured replies and
// checks answers against the raw reply text.
package quiz

import (
	"strconv"
	"strings"
	"unicode"

	"learnquick/internal/domain"
)

var optionLabels = [...]string{"A)", "B)", "C)", "D)"}

// ParseQuiz splits a reply into question blocks and parses each block
// independently. A block starts at a line labelled "Q<digits>" or
// "Question <digits>"; anything before the first label is ignored. Each item
// keeps the number from its label. Blocks without a usable "Correct Answer"
// line are still returned with a nil CorrectIndex. Only the first four
// options of a block are kept.
func ParseQuiz(reply string) []domain.QuizItem {
	var (
		items []domain.QuizItem
		block []string
	)
	flush := func() {
		if block != nil {
			items = append(items, parseBlock(block))
		}
	}
	for _, line := range strings.Split(reply, "\n") {
		if _, _, ok := questionLabel(line); ok {
			flush()
			block = []string{line}
			continue
		}
		if block != nil {
			block = append(block, line)
		}
	}
	flush()
	return items
}

// questionLabel splits a "Q3: text" or "Question 3. text" line into its
// number and the remaining text. Markdown emphasis around the label is ignored.
func questionLabel(line string) (int, string, bool) {
	line = strings.TrimLeft(strings.TrimSpace(line), "*# ")
	rest, ok := cutPrefixFold(line, "question")
	if ok {
		rest = strings.TrimLeft(rest, " ")
	} else if rest, ok = strings.CutPrefix(line, "Q"); !ok {
		return 0, "", false
	}
	digits := len(rest) - len(strings.TrimLeftFunc(rest, unicode.IsDigit))
	if digits == 0 {
		return 0, "", false
	}
	n, err := strconv.Atoi(rest[:digits])
	if err != nil {
		return 0, "", false
	}
	text := strings.TrimLeft(rest[digits:], "*")
	if strings.HasPrefix(text, ":") || strings.HasPrefix(text, ".") {
		text = text[1:]
	}
	return n, strings.TrimSpace(strings.Trim(strings.TrimSpace(text), "*")), true
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

func parseBlock(lines []string) domain.QuizItem {
	n, question, _ := questionLabel(lines[0])
	item := domain.QuizItem{Number: n, Question: question}
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		for _, label := range optionLabels {
			if strings.HasPrefix(line, label) && len(item.Options) < len(optionLabels) {
				item.Options = append(item.Options, strings.TrimSpace(line[len(label):]))
				break
			}
		}
		if strings.Contains(line, "Correct Answer") && item.CorrectIndex == nil {
			item.CorrectIndex = answerIndex(line)
		}
		if rest, ok := strings.CutPrefix(line, "Explanation:"); ok && item.Explanation == "" {
			item.Explanation = strings.TrimSpace(rest)
		}
	}
	return item
}

// answerIndex maps the letter after the colon that follows "Correct Answer" to 0..3.
func answerIndex(line string) *int {
	_, after, _ := strings.Cut(line, "Correct Answer")
	_, letter, ok := strings.Cut(after, ":")
	if !ok {
		return nil
	}
	letter = strings.TrimSpace(strings.Trim(strings.TrimSpace(letter), "*"))
	if letter == "" {
		return nil
	}
	idx := strings.IndexByte("ABCD", byte(unicode.ToUpper(rune(letter[0]))))
	if idx < 0 {
		return nil
	}
	return &idx
}
