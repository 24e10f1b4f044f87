package domain

import "context"

// Chunk is an overlapping window of the cleaned corpus text used as the unit of retrieval.
// Offsets are rune offsets into the cleaned text; EndOffset is exclusive.
type Chunk struct {
	ID          int
	Text        string
	StartOffset int
	EndOffset   int
}

// QuizItem is one multiple-choice question parsed from a generation reply.
// Number is the label the reply gave the question (Q3 -> 3), which is what
// answer checking looks up. CorrectIndex is nil when the reply carried no
// usable answer line.
type QuizItem struct {
	Number       int      `json:"number"`
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"answer"`
	Explanation  string   `json:"explanation,omitempty"`
}

// Topic is one entry of a flat topic list.
type Topic struct {
	Name     string   `json:"topic"`
	Keywords []string `json:"keywords"`
}

// Subtopic is a leaf of a TopicHierarchy.
type Subtopic struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// TopicHierarchy is a main topic with its subtopics.
type TopicHierarchy struct {
	Topic     string     `json:"topic"`
	Subtopics []Subtopic `json:"subtopics"`
}

// Verdict is the outcome of checking a quiz answer.
type Verdict int

const (
	VerdictNotFound Verdict = iota
	VerdictCorrect
	VerdictIncorrect
)

func (v Verdict) String() string {
	switch v {
	case VerdictCorrect:
		return "correct"
	case VerdictIncorrect:
		return "incorrect"
	default:
		return "not_found"
	}
}

// AnswerCheckResult reports a verdict and, for incorrect answers, the expected letter.
type AnswerCheckResult struct {
	Verdict       Verdict
	CorrectLetter string
}

// Message renders the result the way it is shown to a student.
func (r AnswerCheckResult) Message() string {
	switch r.Verdict {
	case VerdictCorrect:
		return "Correct!"
	case VerdictIncorrect:
		return "Wrong, the correct answer is " + r.CorrectLetter
	default:
		return "Correct answer not found."
	}
}

// Embedder converts a batch of texts into vectors of one fixed dimension.
// The output is 1:1 and order-preserving with the input.
type Embedder interface {
	Name() string
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// FittableEmbedder is an Embedder whose vector space depends on the corpus.
// Fit returns a new embedder bound to the corpus; the receiver is left untouched.
type FittableEmbedder interface {
	Embedder
	Fit(corpus []string) (Embedder, error)
}

// Generator produces free-text completions from a language model service.
type Generator interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Extractor turns one uploaded file into plain text.
type Extractor interface {
	Extract(path string) (string, error)
}

// Summarizer produces a brief extractive summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
