package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/taxpilot-ai/taxpilot/internal/common"
	"github.com/taxpilot-ai/taxpilot/internal/model"
	"github.com/taxpilot-ai/taxpilot/internal/server"
)

// Sender posts one turn to the service. Satisfied by AgentClient.
type Sender interface {
	Send(ctx context.Context, sessionID, message string) (server.ChatResponse, error)
}

// chatMessage is one entry in the transcript.
type chatMessage struct {
	role  string // "you" or "taxpilot"
	text  string
	cards []model.Card
}

// agentReplyMsg is sent when the service answers a turn.
type agentReplyMsg struct {
	resp server.ChatResponse
	err  error
}

// ChatModel is the bubbletea model for the interview chat.
type ChatModel struct {
	client    Sender
	sessionID string
	messages  []chatMessage
	input     textinput.Model
	spinner   spinner.Model
	waiting   bool
	width     int
	statusBar string
	err       error
	quitting  bool
}

// NewChatModel creates the chat interface for a session. An empty session
// id gets a generated one.
func NewChatModel(client Sender, sessionID string) ChatModel {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	input := textinput.New()
	input.Placeholder = "Tell me about your taxes..."
	input.CharLimit = 500
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	return ChatModel{
		client:    client,
		sessionID: sessionID,
		input:     input,
		spinner:   s,
		width:     80,
	}
}

// Init returns initial commands.
func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages.
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEnter:
			if m.waiting {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.messages = append(m.messages, chatMessage{role: "you", text: text})
			m.input.Reset()
			m.waiting = true
			m.err = nil
			return m, tea.Batch(m.sendTurn(text), m.spinner.Tick)
		}

	case agentReplyMsg:
		m.waiting = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.messages = append(m.messages, chatMessage{
			role:  "taxpilot",
			text:  msg.resp.Message,
			cards: msg.resp.Cards,
		})
		m.statusBar = statusLine(msg.resp.State)
		return m, nil

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// sendTurn posts the message to the service off the UI loop.
func (m ChatModel) sendTurn(text string) tea.Cmd {
	client := m.client
	sessionID := m.sessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()

		resp, err := client.Send(ctx, sessionID, text)
		return agentReplyMsg{resp: resp, err: err}
	}
}

// View renders the transcript, any cards, and the input line.
func (m ChatModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("TaxPilot • 2025 federal tax interview"))
	b.WriteString("\n\n")

	for _, msg := range m.messages {
		switch msg.role {
		case "you":
			b.WriteString(userStyle.Render("You: "))
			b.WriteString(msg.text)
		default:
			b.WriteString(agentStyle.Render("TaxPilot: " + msg.text))
			for _, card := range msg.cards {
				b.WriteString("\n")
				b.WriteString(renderCard(card))
			}
		}
		b.WriteString("\n\n")
	}

	if m.waiting {
		b.WriteString(m.spinner.View())
		b.WriteString(" thinking...\n\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n\n")
	}
	if m.statusBar != "" {
		b.WriteString(helpStyle.Render(m.statusBar))
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: send • esc: quit"))
	return b.String()
}

func statusLine(state server.StateSummary) string {
	line := fmt.Sprintf("stage: %s", state.CurrentNode)
	if state.ConfidenceScore > 0 {
		line += fmt.Sprintf(" • confidence: %.0f%%", state.ConfidenceScore*100)
	}
	if state.NeedsReview {
		line += " • " + reviewStyle.Render("flagged for review")
	}
	return line
}

// renderCard formats a display card as a bordered block.
func renderCard(card model.Card) string {
	var b strings.Builder
	b.WriteString(cardTitleStyle.Render(card.Title))

	switch card.Type {
	case model.CardProgress:
		b.WriteString(fmt.Sprintf("\nStep %v of %v: %v",
			card.Data["step"], card.Data["total"], card.Data["label"]))
	case model.CardReview:
		b.WriteString(reviewStyle.Render(fmt.Sprintf("\n%v", card.Data["field"])))
		b.WriteString(fmt.Sprintf("\n%v", card.Data["reason"]))
	default:
		keys := make([]string, 0, len(card.Data))
		for k := range card.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("\n%s: %s", k, formatCardValue(card.Data[k])))
		}
	}

	return cardStyle.Render(b.String())
}

func formatCardValue(v any) string {
	switch n := v.(type) {
	case float64:
		return common.Dollars(n, 2)
	default:
		return fmt.Sprintf("%v", v)
	}
}
