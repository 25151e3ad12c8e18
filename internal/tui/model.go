// Package tui is the interactive ask client: a question box over a viewport
// that fills with answer tokens as they stream in from the proxy.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MissionSquad/missionsquad-docs/internal/domain"
	"github.com/MissionSquad/missionsquad-docs/internal/stream"
)

// Asker is the TUI-facing subset of the streaming client.
type Asker interface {
	Ask(ctx context.Context, opts domain.AskOptions, h stream.Handlers)
}

const systemPrompt = "You are the documentation assistant. Answer using the MissionSquad docs; be concise."

type tokenMsg string
type doneMsg struct{}
type errMsg struct{ err error }

// Model is the Bubble Tea model for the ask session.
type Model struct {
	client    Asker
	chatModel string

	input    textinput.Model
	viewport viewport.Model

	messages  []domain.Message
	answer    string
	status    string
	streaming bool
	ready     bool

	events chan tea.Msg
	cancel context.CancelFunc
}

// New creates an ask session against the given client and chat model name.
func New(client Asker, chatModel string) Model {
	ti := textinput.New()
	ti.Prompt = "? "
	ti.Placeholder = "Ask the docs and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		client:    client,
		chatModel: chatModel,
		input:     ti,
		viewport:  vp,
		messages:  []domain.Message{{Role: "system", Content: systemPrompt}},
		status:    "Ready.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and stream events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header + status + query box + spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ah)
		m.viewport.SetContent(m.answer)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.streaming {
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				return m.ask(q)
			}
		}

	case tokenMsg:
		m.answer += string(msg)
		m.viewport.SetContent(m.answer)
		m.viewport.GotoBottom()
		return m, m.listen()

	case doneMsg:
		m.streaming = false
		m.messages = append(m.messages, domain.Message{Role: "assistant", Content: m.answer})
		m.status = "Done. Ask a follow-up."
		return m, nil

	case errMsg:
		m.streaming = false
		m.status = "Error: " + msg.err.Error()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask starts one streaming exchange. Stream callbacks run on the client
// goroutine and are relayed into the update loop through the events channel.
func (m Model) ask(question string) (tea.Model, tea.Cmd) {
	m.messages = append(m.messages, domain.Message{Role: "user", Content: question})
	m.answer = ""
	m.viewport.SetContent("")
	m.input.SetValue("")
	m.status = "Asking..."
	m.streaming = true
	m.events = make(chan tea.Msg, 32)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	opts := domain.AskOptions{Model: m.chatModel, Messages: append([]domain.Message(nil), m.messages...)}
	events := m.events
	go m.client.Ask(ctx, opts, stream.Handlers{
		OnToken: func(text string) { events <- tokenMsg(text) },
		OnError: func(err error) { events <- errMsg{err} },
		OnDone:  func() { events <- doneMsg{} },
	})

	return m, m.listen()
}

func (m Model) listen() tea.Cmd {
	events := m.events
	return func() tea.Msg { return <-events }
}

// View renders the layout: header, streaming answer, question box, status.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("MissionSquad Docs: Ask")
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + answer + "\n" + input + "\n" + status
}

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
