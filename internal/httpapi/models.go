package httpapi

import "learnquick/internal/domain"

// AskRequest is the form body of POST /ask.
type AskRequest struct {
	Question string `form:"question" binding:"required"`
}

// QuizRequest is the form body of POST /mcq. Zero NumQuestions selects the default size.
type QuizRequest struct {
	NumQuestions int `form:"num_questions"`
}

// CheckRequest is the form body of POST /check. QuizText is the raw reply returned by /mcq.
type CheckRequest struct {
	QuizText   string `form:"mcq_text" binding:"required"`
	Question   int    `form:"q_no" binding:"required"`
	UserAnswer string `form:"user_answer" binding:"required"`
}

// UploadResponse describes the corpus built from an upload.
type UploadResponse struct {
	Message    string `json:"message"`
	CharCount  int    `json:"total_characters"`
	ChunkCount int    `json:"total_chunks"`
	SnapshotID string `json:"snapshot_id"`
	Preview    string `json:"preview,omitempty"`
}

// AskResponse echoes the question with its grounded answer.
type AskResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuizResponse carries the parsed questions and the raw reply to send back to /check.
// Each item's number is the label /check expects.
type QuizResponse struct {
	Items      []domain.QuizItem `json:"mcqs"`
	Raw        string            `json:"raw"`
	SnapshotID string            `json:"snapshot_id"`
}

// CheckResponse is the verdict for one answer.
type CheckResponse struct {
	Result        string `json:"result"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
}

// SummaryResponse holds a generated summary of the corpus.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// TopicsResponse lists the main topics of the corpus.
type TopicsResponse struct {
	Topics []domain.Topic `json:"topics"`
}

// MindMapResponse is the topic hierarchy rendered by the mind map view.
type MindMapResponse struct {
	Tree []domain.TopicHierarchy `json:"tree_data"`
}
