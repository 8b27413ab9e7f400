// Package tui is the interactive question loop: pick a subject, pick a grade, then ask away.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"textbook-rag/internal/models"
	"textbook-rag/internal/render"
	"textbook-rag/internal/vectorstore"
)

// Asker is the TUI-facing subset of the answer assembler.
type Asker interface {
	AnswerQuestion(ctx context.Context, query, subject string, grade, n int, verbose bool) (*models.AnswerResult, error)
}

type stage int

const (
	stageSubject stage = iota
	stageGrade
	stageQuestion
)

var exitWords = map[string]bool{"exit": true, "quit": true, "выход": true}

// IsExitCommand reports whether the input ends the session.
func IsExitCommand(s string) bool {
	return exitWords[strings.ToLower(strings.TrimSpace(s))]
}

type answerMsg struct {
	query  string
	result *models.AnswerResult
	err    error
}

// Model is the Bubble Tea model of the chat session.
type Model struct {
	ctx        context.Context
	asker      Asker
	nResults   int
	stage      stage
	subject    string
	grade      int
	input      textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	transcript []string
	status     string
	busy       bool
	ready      bool
}

// New creates the chat model. A non-empty subject or positive grade skips the matching prompt.
func New(ctx context.Context, asker Asker, nResults int, subject string, grade int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		asker:    asker,
		nResults: nResults,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
	}
	if subject != "" {
		m.subject = models.ParseSubject(subject).String()
		m.stage = stageGrade
	}
	if m.stage == stageGrade && grade > 0 {
		m.grade = grade
		m.stage = stageQuestion
	}
	m.updatePrompt()
	return m
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header, status, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			if m.busy {
				return m, nil
			}
			return m.submit(strings.TrimSpace(m.input.Value()))
		}

	case answerMsg:
		m.busy = false
		m.appendAnswer(msg)
		m.updatePrompt()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submit(value string) (tea.Model, tea.Cmd) {
	if value == "" {
		return m, nil
	}
	if IsExitCommand(value) {
		return m, tea.Quit
	}
	m.input.SetValue("")

	switch m.stage {
	case stageSubject:
		subject := models.ParseSubject(value)
		if subject != models.SubjectMathematics && subject != models.SubjectHistory {
			m.status = fmt.Sprintf("Unknown subject %q. Available: mathematics, history", value)
			return m, nil
		}
		m.subject = subject.String()
		m.stage = stageGrade

	case stageGrade:
		grade, err := strconv.Atoi(value)
		if err != nil || grade < 1 {
			m.status = fmt.Sprintf("Grade must be a positive number, got %q", value)
			return m, nil
		}
		m.grade = grade
		m.stage = stageQuestion
		m.transcript = append(m.transcript, dimStyle.Render(fmt.Sprintf("Working with %s, grade %d", m.subject, m.grade)))
		m.refresh()

	case stageQuestion:
		m.busy = true
		m.transcript = append(m.transcript, questionStyle.Render("Q: "+value))
		m.refresh()
		m.status = "Searching the textbook and generating an answer"
		return m, tea.Batch(m.ask(value), m.spinner.Tick)
	}
	m.updatePrompt()
	return m, nil
}

func (m Model) ask(query string) tea.Cmd {
	ctx, asker, subject, grade, n := m.ctx, m.asker, m.subject, m.grade, m.nResults
	return func() tea.Msg {
		res, err := asker.AnswerQuestion(ctx, query, subject, grade, n, false)
		return answerMsg{query: query, result: res, err: err}
	}
}

func (m *Model) appendAnswer(msg answerMsg) {
	switch {
	case errors.Is(msg.err, vectorstore.ErrCollectionNotFound):
		m.transcript = append(m.transcript, errorStyle.Render(fmt.Sprintf(
			"No indexed textbook for %s, grade %d. Run the embed command first.", m.subject, m.grade)))
	case msg.err != nil:
		m.transcript = append(m.transcript, errorStyle.Render("Unexpected error: "+msg.err.Error()))
	default:
		var sb strings.Builder
		sb.WriteString(msg.result.Answer)
		if len(msg.result.Sources) > 0 {
			sb.WriteString("\n\nSources:")
			for i, s := range msg.result.Sources {
				fmt.Fprintf(&sb, "\n  %d. %s", i+1, render.SourceLine(s))
			}
		}
		m.transcript = append(m.transcript, sb.String())
	}
	m.refresh()
}

func (m *Model) updatePrompt() {
	switch m.stage {
	case stageSubject:
		m.input.Placeholder = "Subject (mathematics, history)"
		m.status = "Type exit, quit or выход to leave"
	case stageGrade:
		m.input.Placeholder = "Grade (5, 6, 7...)"
		m.status = "Subject: " + m.subject
	case stageQuestion:
		m.input.Placeholder = "Ask a question about the textbook"
		m.status = fmt.Sprintf("%s, grade %d", m.subject, m.grade)
	}
}

func (m *Model) refresh() {
	content := strings.Join(m.transcript, "\n\n")
	if m.viewport.Width > 0 {
		content = lipgloss.NewStyle().Width(m.viewport.Width).Render(content)
	}
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Textbook assistant")
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" +
		transcriptBoxStyle.Render(m.viewport.View()) + "\n" +
		inputBoxStyle.Render(m.input.View()) + "\n" +
		status
}

var (
	headerStyle        = lipgloss.NewStyle().Bold(true)
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
