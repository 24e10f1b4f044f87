package tui

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"learnquick/internal/domain"
	"learnquick/internal/service"
)

// StudyPort is the TUI-facing subset of the study service.
type StudyPort interface {
	Ask(ctx context.Context, question string) (string, error)
	GenerateQuiz(ctx context.Context, n int) (service.Quiz, error)
	CheckQuizAnswer(rawQuizText string, questionNumber int, userAnswer string) domain.AnswerCheckResult
	CorpusTopics(ctx context.Context) ([]domain.Topic, error)
	CorpusHierarchy(ctx context.Context) ([]domain.TopicHierarchy, error)
	Summarize(ctx context.Context) (string, error)
}

const helpText = `Type a question and press Enter to ask about your material.

/quiz [n]          generate n multiple-choice questions
/check <q> <A-D>   check your answer to question q
/topics            list the main topics
/tree              show the topic hierarchy
/summary           summarize the material
/help              show this help
/quit              exit`

// resultMsg carries the outcome of a service call back into Update.
type resultMsg struct {
	title string
	body  string
	query string
	quiz  *service.Quiz
	err   error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctx      context.Context
	service  StudyPort
	input    textinput.Model
	viewport viewport.Model
	summary  string
	status   string
	body     string
	query    string
	quizRaw  string
	busy     bool
	ready    bool
}

// New creates a new TUI model instance. summary is shown under the header.
func New(ctx context.Context, svc StudyPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question or type /help"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		service:  svc,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Material loaded. Ask away.",
		body:     helpText,
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and result events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + summary
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderBody())
		return m, nil
	case resultMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + errorText(msg.err)
			return m, nil
		}
		if msg.quiz != nil {
			m.quizRaw = msg.quiz.Raw
		}
		m.status = msg.title
		m.body = msg.body
		m.query = msg.query
		m.viewport.SetContent(m.renderBody())
		m.viewport.GotoTop()
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line == "" || m.busy {
				return m, nil
			}
			m.input.SetValue("")
			return m.dispatch(line)
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) dispatch(line string) (tea.Model, tea.Cmd) {
	if !strings.HasPrefix(line, "/") {
		m.busy = true
		m.status = "Thinking..."
		return m, m.askCmd(line)
	}
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/help":
		m.status = "Commands"
		m.body = helpText
		m.query = ""
	case "/quiz":
		n := 0
		if len(fields) > 1 {
			v, err := strconv.Atoi(fields[1])
			if err != nil || v <= 0 {
				m.status = "Usage: /quiz [n]"
				return m, nil
			}
			n = v
		}
		m.busy = true
		m.status = "Generating quiz..."
		return m, m.quizCmd(n)
	case "/check":
		if len(fields) != 3 {
			m.status = "Usage: /check <question number> <A-D>"
			return m, nil
		}
		if m.quizRaw == "" {
			m.status = "Generate a quiz first with /quiz"
			return m, nil
		}
		q, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(fields[1]), "Q"))
		if err != nil {
			m.status = "Usage: /check <question number> <A-D>"
			return m, nil
		}
		res := m.service.CheckQuizAnswer(m.quizRaw, q, fields[2])
		m.status = fmt.Sprintf("Q%d: %s", q, res.Message())
	case "/topics":
		m.busy = true
		m.status = "Extracting topics..."
		return m, m.topicsCmd()
	case "/tree":
		m.busy = true
		m.status = "Building topic tree..."
		return m, m.treeCmd()
	case "/summary":
		m.busy = true
		m.status = "Summarizing..."
		return m, m.summaryCmd()
	default:
		m.status = fmt.Sprintf("Unknown command %s, try /help", fields[0])
	}
	m.viewport.SetContent(m.renderBody())
	return m, nil
}

func (m Model) askCmd(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.service.Ask(m.ctx, question)
		return resultMsg{title: fmt.Sprintf("Answer to %q", question), body: answer, query: question, err: err}
	}
}

func (m Model) quizCmd(n int) tea.Cmd {
	return func() tea.Msg {
		q, err := m.service.GenerateQuiz(m.ctx, n)
		if err != nil {
			return resultMsg{err: err}
		}
		title := fmt.Sprintf("Quiz with %d questions. Answer with /check <q> <A-D>", len(q.Items))
		return resultMsg{title: title, body: renderQuiz(q.Items), quiz: &q}
	}
}

func (m Model) topicsCmd() tea.Cmd {
	return func() tea.Msg {
		ts, err := m.service.CorpusTopics(m.ctx)
		return resultMsg{title: "Topics", body: renderTopics(ts), err: err}
	}
}

func (m Model) treeCmd() tea.Cmd {
	return func() tea.Msg {
		h, err := m.service.CorpusHierarchy(m.ctx)
		return resultMsg{title: "Topic tree", body: renderHierarchy(h), err: err}
	}
}

func (m Model) summaryCmd() tea.Cmd {
	return func() tea.Msg {
		s, err := m.service.Summarize(m.ctx)
		return resultMsg{title: "Summary", body: s, err: err}
	}
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("LearnQuick")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderBody() string {
	if strings.TrimSpace(m.body) == "" {
		return "No results yet."
	}
	if m.query == "" {
		return m.body
	}
	return highlightBestSentence(m.body, m.query)
}

func errorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoCorpus):
		return "Upload files first!"
	case errors.Is(err, domain.ErrGenerationTimeout):
		return "the generation service timed out, try again"
	default:
		return err.Error()
	}
}

func renderQuiz(items []domain.QuizItem) string {
	if len(items) == 0 {
		return "The quiz could not be read. Try /quiz again."
	}
	var sb strings.Builder
	for _, it := range items {
		fmt.Fprintf(&sb, "Q%d. %s\n", it.Number, it.Question)
		for j, opt := range it.Options {
			fmt.Fprintf(&sb, "   %c) %s\n", 'A'+j, opt)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderTopics(ts []domain.Topic) string {
	var sb strings.Builder
	for _, t := range ts {
		sb.WriteString(topicStyle.Render("• " + t.Name))
		if len(t.Keywords) > 0 {
			sb.WriteString("  " + strings.Join(t.Keywords, ", "))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderHierarchy(h []domain.TopicHierarchy) string {
	var sb strings.Builder
	for _, t := range h {
		sb.WriteString(topicStyle.Render(t.Topic))
		sb.WriteString("\n")
		for i, s := range t.Subtopics {
			branch := "├─"
			if i == len(t.Subtopics)-1 {
				branch = "└─"
			}
			line := fmt.Sprintf("  %s %s", branch, s.Name)
			if len(s.Keywords) > 0 {
				line += " (" + strings.Join(s.Keywords, ", ") + ")"
			}
			sb.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	topicStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence emphasises the sentence of text sharing the most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if locs := sentenceRe.FindAllStringIndex(text, -1); len(locs) > 0 {
		if tail := strings.TrimSpace(text[locs[len(locs)-1][1]:]); tail != "" {
			sentences = append(sentences, tail)
		}
	}
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
