// Package terminal renders the quote chat in a terminal so the flow and
// its copy can be checked without Telegram or the website.
package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cos71n/pipe-relining-pros/internal/domain"
	"github.com/cos71n/pipe-relining-pros/internal/usecase"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	stageDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	stageActive  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	stageTodo    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	systemBubble = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	userBubble   = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("208"))
	callStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("208")).Padding(0, 1)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

// Model is the bubbletea model around one Panel.
type Model struct {
	panel  *usecase.Panel
	input  textinput.Model
	cursor int
	width  int
}

func New(profile usecase.Profile) Model {
	ti := textinput.New()
	ti.CharLimit = 1000
	ti.Focus()
	m := Model{panel: usecase.NewPanel(profile), input: ti}
	m.panel.Open()
	m.syncInput()
	return m
}

func (m Model) Panel() *usecase.Panel { return m.panel }

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlR:
			m.panel.Open()
			m.cursor = 0
			m.input.SetValue("")
			m.syncInput()
			return m, nil
		case tea.KeyCtrlS:
			if r, err := m.panel.Skip(); err == nil && r.Accepted {
				m.input.SetValue("")
				m.syncInput()
			}
			return m, nil
		}
		if m.panel.Chat().Step() == usecase.StepService {
			return m.updateServicePicker(msg), nil
		}
		if msg.Type == tea.KeyEnter {
			if r, err := m.panel.SubmitText(m.input.Value()); err == nil && r.Accepted {
				m.input.SetValue("")
				m.syncInput()
			}
			return m, nil
		}
	}
	if !m.panel.Chat().InputEnabled() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateServicePicker(msg tea.KeyMsg) Model {
	opts := m.panel.Chat().Options()
	switch msg.Type {
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < len(opts)-1 {
			m.cursor++
		}
	case tea.KeyEnter:
		if m.cursor < len(opts) {
			if r, err := m.panel.SelectService(opts[m.cursor]); err == nil && r.Accepted {
				m.cursor = 0
				m.syncInput()
			}
		}
	}
	return m
}

func (m *Model) syncInput() {
	m.input.Placeholder = m.panel.Chat().Placeholder()
}

func (m Model) View() string {
	chat := m.panel.Chat()
	var b strings.Builder

	b.WriteString(titleStyle.Render("Get A Quick Quote"))
	b.WriteString("  ")
	b.WriteString(hintStyle.Render(chat.Profile().BusinessName))
	b.WriteString("\n")
	b.WriteString(renderStages(chat))
	b.WriteString("\n\n")

	for _, msg := range chat.Messages() {
		b.WriteString(renderMessage(msg, chat.Profile(), m.bubbleWidth()))
		b.WriteString("\n")
	}

	switch chat.Step() {
	case usecase.StepService:
		for i, opt := range chat.Options() {
			marker := "  "
			if i == m.cursor {
				marker = cursorStyle.Render("> ")
			}
			b.WriteString(marker + opt + "\n")
		}
		b.WriteString(hintStyle.Render("↑/↓ choose, enter select"))
	case usecase.StepComplete:
		b.WriteString(hintStyle.Render("ctrl+r start over, esc quit"))
	default:
		b.WriteString(m.input.View())
		b.WriteString("\n")
		hint := "enter send, ctrl+r start over, esc quit"
		if chat.CanSkip() {
			hint = "enter send, ctrl+s skip, esc quit"
		}
		b.WriteString(hintStyle.Render(hint))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) bubbleWidth() int {
	if m.width <= 0 {
		return 60
	}
	return m.width
}

func renderStages(chat *usecase.QuoteChat) string {
	current, stages := chat.Progress()
	parts := make([]string, 0, len(stages))
	for _, s := range stages {
		label := fmt.Sprintf("%d %s", s.Number, s.Title)
		switch {
		case s.Completed:
			parts = append(parts, stageDone.Render("✓ "+label))
		case s.Number == current:
			parts = append(parts, stageActive.Render("● "+label))
		default:
			parts = append(parts, stageTodo.Render("○ "+label))
		}
	}
	return strings.Join(parts, stageTodo.Render(" ─ "))
}

func renderMessage(msg domain.ChatMessage, profile usecase.Profile, width int) string {
	if msg.Kind == domain.KindCallAction {
		return systemBubble.Render(msg.Text + "\n" + callStyle.Render("📞 "+profile.Phone) + " " + hintStyle.Render(profile.CallURI()))
	}
	if msg.Sender == domain.SenderUser {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, userBubble.Render(msg.Text))
	}
	return systemBubble.Render(msg.Text)
}
