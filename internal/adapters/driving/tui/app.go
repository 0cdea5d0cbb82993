// Package tui provides an interactive question-and-answer terminal
// interface following the Elm architecture.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/mailrag-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

// exchange is one question together with its outcome.
type exchange struct {
	question string
	answer   string
	sources  []domain.ScoredChunk
	err      error
}

// answerReceived carries a completed query back into the update loop.
type answerReceived struct {
	answer  string
	sources []domain.ScoredChunk
}

// queryFailed carries a failed query back into the update loop.
type queryFailed struct {
	err error
}

// App is the interactive Q&A application. It implements tea.Model.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	history []exchange
	waiting bool

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()

	input := textinput.New()
	input.Placeholder = "Ask a question about your mail and documents..."
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &App{
		ports:   ports,
		ctx:     context.Background(),
		styles:  s,
		input:   input,
		spinner: sp,
		width:   80,
		height:  24,
	}, nil
}

// WithContext sets the context used for queries.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init initialises the application.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.viewport = viewport.New(msg.Width, msg.Height-6)
		a.viewport.SetContent(a.renderHistory())
		a.ready = true
		return a, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return a, tea.Quit
		case tea.KeyEnter:
			return a, a.submit()
		}

	case answerReceived:
		a.waiting = false
		last := len(a.history) - 1
		a.history[last].answer = msg.answer
		a.history[last].sources = msg.sources
		a.refreshViewport()
		return a, nil

	case queryFailed:
		a.waiting = false
		last := len(a.history) - 1
		a.history[last].err = msg.err
		a.refreshViewport()
		return a, nil

	case spinner.TickMsg:
		if !a.waiting {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	var cmds []tea.Cmd
	var inputCmd tea.Cmd
	a.input, inputCmd = a.input.Update(msg)
	if inputCmd != nil {
		cmds = append(cmds, inputCmd)
	}

	var vpCmd tea.Cmd
	a.viewport, vpCmd = a.viewport.Update(msg)
	if vpCmd != nil {
		cmds = append(cmds, vpCmd)
	}

	return a, tea.Batch(cmds...)
}

// submit starts a query for the current input value.
func (a *App) submit() tea.Cmd {
	question := strings.TrimSpace(a.input.Value())
	if question == "" || a.waiting {
		return nil
	}

	a.history = append(a.history, exchange{question: question})
	a.input.Reset()
	a.waiting = true
	a.refreshViewport()

	query := func() tea.Msg {
		qc := domain.QueryContext{
			UserID: a.ports.UserID,
			Query:  question,
		}
		answer, sources, err := a.ports.Assistant.Query(a.ctx, qc)
		if err != nil {
			return queryFailed{err: err}
		}
		return answerReceived{answer: answer, sources: sources}
	}

	return tea.Batch(query, a.spinner.Tick)
}

// refreshViewport re-renders the conversation and scrolls to the bottom.
func (a *App) refreshViewport() {
	a.viewport.SetContent(a.renderHistory())
	a.viewport.GotoBottom()
}

// renderHistory renders all exchanges.
func (a *App) renderHistory() string {
	var b strings.Builder
	for i := range a.history {
		ex := &a.history[i]
		b.WriteString(a.styles.Question.Render("> "+ex.question) + "\n\n")

		switch {
		case ex.err != nil:
			b.WriteString(a.styles.Error.Render(ex.err.Error()) + "\n")
		case ex.answer != "":
			b.WriteString(a.styles.Answer.Render(ex.answer) + "\n")
			for j := range ex.sources {
				chunk := &ex.sources[j].Chunk
				line := fmt.Sprintf("  [%d] %s %s", j+1, chunk.Source, chunk.SourceID)
				if subject, ok := chunk.Metadata["subject"].(string); ok && subject != "" {
					line += ": " + subject
				}
				b.WriteString(a.styles.Source.Render(line) + "\n")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// View renders the application.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("mailrag") + "\n\n")
	b.WriteString(a.viewport.View() + "\n")

	if a.waiting {
		b.WriteString(a.spinner.View() + " Thinking...\n")
	} else {
		b.WriteString(a.styles.InputField.Render(a.input.View()) + "\n")
	}

	b.WriteString(a.styles.Help.Render("enter: ask • esc: quit"))
	return b.String()
}

// Run starts the TUI and blocks until it exits.
func Run(ctx context.Context, ports *Ports) error {
	app, err := NewApp(ports)
	if err != nil {
		return err
	}

	program := tea.NewProgram(app.WithContext(ctx), tea.WithAltScreen())
	_, err = program.Run()
	return err
}
