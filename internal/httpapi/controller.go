// Package httpapi serves the study operations over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"learnquick/internal/domain"
	"learnquick/internal/extract"
	"learnquick/internal/service"
)

// StudyAPI is the subset of the study service the HTTP layer needs.
type StudyAPI interface {
	IngestFiles(ctx context.Context, paths []string) (service.BuildStats, error)
	Ask(ctx context.Context, question string) (string, error)
	GenerateQuiz(ctx context.Context, n int) (service.Quiz, error)
	CheckQuizAnswer(rawQuizText string, questionNumber int, userAnswer string) domain.AnswerCheckResult
	CorpusTopics(ctx context.Context) ([]domain.Topic, error)
	CorpusHierarchy(ctx context.Context) ([]domain.TopicHierarchy, error)
	Summarize(ctx context.Context) (string, error)
}

// Controller handles the HTTP requests. Business logic lives in the study service.
type Controller struct {
	study     StudyAPI
	uploadDir string
	logger    *slog.Logger
}

// NewController creates a Controller that stores uploads under uploadDir.
func NewController(study StudyAPI, uploadDir string, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{study: study, uploadDir: uploadDir, logger: logger}
}

// Upload saves the multipart "files" and rebuilds the corpus from them.
func (c *Controller) Upload(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid upload: " + err.Error()})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}
	if err := os.MkdirAll(c.uploadDir, 0o755); err != nil {
		c.fail(ctx, "upload", err)
		return
	}
	paths := make([]string, 0, len(files))
	for _, fh := range files {
		name := filepath.Base(fh.Filename)
		if !extract.Supported(name) {
			c.logger.Warn("rejecting unsupported upload", "file", name)
			continue
		}
		dst := filepath.Join(c.uploadDir, name)
		if err := ctx.SaveUploadedFile(fh, dst); err != nil {
			c.fail(ctx, "upload", fmt.Errorf("save %s: %w", name, err))
			return
		}
		paths = append(paths, dst)
	}
	if len(paths) == 0 {
		ctx.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Only .pdf, .docx, .pptx, .txt and .md files are supported"})
		return
	}
	stats, err := c.study.IngestFiles(ctx.Request.Context(), paths)
	if err != nil {
		c.fail(ctx, "upload", err)
		return
	}
	ctx.JSON(http.StatusOK, UploadResponse{
		Message:    "Files processed successfully",
		CharCount:  stats.CharCount,
		ChunkCount: stats.ChunkCount,
		SnapshotID: stats.SnapshotID,
		Preview:    stats.Preview,
	})
}

// Ask answers the form field "question" from the corpus.
func (c *Controller) Ask(ctx *gin.Context) {
	var req AskRequest
	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	answer, err := c.study.Ask(ctx.Request.Context(), req.Question)
	if err != nil {
		c.fail(ctx, "ask", err)
		return
	}
	ctx.JSON(http.StatusOK, AskResponse{Question: req.Question, Answer: answer})
}

// Quiz generates "num_questions" multiple-choice questions.
func (c *Controller) Quiz(ctx *gin.Context) {
	var req QuizRequest
	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	q, err := c.study.GenerateQuiz(ctx.Request.Context(), req.NumQuestions)
	if err != nil {
		c.fail(ctx, "mcq", err)
		return
	}
	ctx.JSON(http.StatusOK, QuizResponse{Items: q.Items, Raw: q.Raw, SnapshotID: q.SnapshotID})
}

// Check grades one answer against a raw quiz text.
func (c *Controller) Check(ctx *gin.Context) {
	var req CheckRequest
	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	res := c.study.CheckQuizAnswer(req.QuizText, req.Question, req.UserAnswer)
	ctx.JSON(http.StatusOK, CheckResponse{
		Result:        res.Message(),
		Correct:       res.Verdict == domain.VerdictCorrect,
		CorrectAnswer: res.CorrectLetter,
	})
}

// Summary summarizes the corpus text.
func (c *Controller) Summary(ctx *gin.Context) {
	s, err := c.study.Summarize(ctx.Request.Context())
	if err != nil {
		c.fail(ctx, "summary", err)
		return
	}
	ctx.JSON(http.StatusOK, SummaryResponse{Summary: s})
}

// Topics lists the main topics of the corpus.
func (c *Controller) Topics(ctx *gin.Context) {
	ts, err := c.study.CorpusTopics(ctx.Request.Context())
	if err != nil {
		c.fail(ctx, "topics", err)
		return
	}
	ctx.JSON(http.StatusOK, TopicsResponse{Topics: ts})
}

// MindMap returns the topic hierarchy of the corpus.
func (c *Controller) MindMap(ctx *gin.Context) {
	h, err := c.study.CorpusHierarchy(ctx.Request.Context())
	if err != nil {
		c.fail(ctx, "mindmap", err)
		return
	}
	ctx.JSON(http.StatusOK, MindMapResponse{Tree: h})
}

// fail maps service errors to status codes and logs the ones that are not the caller's fault.
func (c *Controller) fail(ctx *gin.Context, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		c.logger.Error("request failed", "op", op, "status", status, "err", err)
	} else {
		c.logger.Info("request rejected", "op", op, "status", status, "err", err)
	}
	ctx.JSON(status, gin.H{"error": msg})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNoCorpus):
		return http.StatusConflict, "Upload files first!"
	case errors.Is(err, domain.ErrEmptyCorpus):
		return http.StatusUnprocessableEntity, "No text could be extracted from the upload"
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "Unsupported file format"
	case errors.Is(err, domain.ErrGenerationTimeout):
		return http.StatusGatewayTimeout, "The generation service timed out"
	case errors.Is(err, domain.ErrGenerationService):
		return http.StatusBadGateway, "The generation service failed"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}
