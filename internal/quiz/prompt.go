package quiz

import "fmt"

// RetrievalQuery is the fixed query used to pick study material for a quiz.
const RetrievalQuery = "Generate exam questions"

// MaxTokens sizes the generation budget for n questions.
func MaxTokens(n int) int {
	if t := 160 * n; t > 800 {
		return t
	}
	return 800
}

// BuildPrompt asks for exactly n questions in the template ParseQuiz understands.
func BuildPrompt(context string, n int) string {
	return fmt.Sprintf(`
Generate %d multiple-choice questions from the study material below.

Format:
Q1: <question>
A) option
B) option
C) option
D) option
Correct Answer: <A/B/C/D>
Explanation: <why>

STUDY MATERIAL:
%s
`, n, context)
}
