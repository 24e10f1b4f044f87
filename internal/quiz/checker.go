package quiz

import (
	"fmt"
	"regexp"
	"strings"

	"learnquick/internal/domain"
)

// Check finds the block labelled Q<questionNumber> (or "Question <n>") in the raw quiz reply and
// compares the letter after its nearest "Correct Answer" marker with
// userAnswer, case-insensitively. It reads the raw text rather than parsed
// items so that question numbers stay aligned with the labels the student saw.
func Check(rawQuizText string, questionNumber int, userAnswer string) domain.AnswerCheckResult {
	if questionNumber < 1 {
		return domain.AnswerCheckResult{Verdict: domain.VerdictNotFound}
	}
	m := answerPattern(questionNumber).FindStringSubmatch(rawQuizText)
	if m == nil {
		return domain.AnswerCheckResult{Verdict: domain.VerdictNotFound}
	}
	correct := strings.ToUpper(strings.TrimSpace(m[1]))
	if strings.ToUpper(strings.TrimSpace(userAnswer)) == correct {
		return domain.AnswerCheckResult{Verdict: domain.VerdictCorrect, CorrectLetter: correct}
	}
	return domain.AnswerCheckResult{Verdict: domain.VerdictIncorrect, CorrectLetter: correct}
}

// answerPattern matches "Q<n>" or "Question <n>", optional ':' or '.', then
// lazily everything up to the first "Correct Answer" and captures the letter
// after it. The label must not continue with another digit, so Q1 never
// matches Q10.
func answerPattern(n int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?is)\b(?:Question\s*|Q)%d[:.]?(?:\D.*?)?Correct Answer[:\s*]*([A-D])`, n))
}
