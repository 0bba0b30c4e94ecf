package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/openquest/dungeonmind/pkg/chat"
	"github.com/openquest/dungeonmind/pkg/dice"
	"github.com/openquest/dungeonmind/pkg/dm"
	"github.com/openquest/dungeonmind/pkg/state"
)

const (
	AgentName       = "DM"
	PlaceHolderText = "What do you do?"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	gameState    *state.GameState
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Streaming state for the in-flight action
	events       chan SSEEvent
	streaming    bool
	streamBuf    string
	statusLine   string
	lastResponse string

	showQuitModal bool
}

type actionEventMsg struct {
	event SSEEvent
	ok    bool // false once the stream is closed
}

type actionErrMsg struct {
	err error
}

type gameStateMsg struct {
	gameState *state.GameState
	err       error
}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	checkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // yellow
			Bold(true)

	rejectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")) // orange

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, gs *state.GameState) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		client:       client,
		gameState:    gs,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
	}
}

func writeMetadata(gs *state.GameState) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("CHARACTER") + "\n\n")

	content.WriteString("Game ID:\n")
	content.WriteString(gs.ID.String()[:8] + "...\n\n")

	content.WriteString(fmt.Sprintf("Health:     %d/100\n", gs.Stats.Health))
	content.WriteString(fmt.Sprintf("Mana:       %d/100\n", gs.Stats.Mana))
	content.WriteString(fmt.Sprintf("Experience: %d\n\n", gs.Stats.Experience))

	content.WriteString(fmt.Sprintf("STR %d  DEX %d\n", gs.Stats.Strength, gs.Stats.Dexterity))
	content.WriteString(fmt.Sprintf("INT %d  LCK %d\n\n", gs.Stats.Intelligence, gs.Stats.Luck))

	content.WriteString("Inventory:\n")
	if len(gs.Inventory) == 0 {
		content.WriteString("  (empty)\n")
	} else {
		for _, item := range gs.Inventory {
			if item.Quantity > 1 {
				content.WriteString(fmt.Sprintf("  %s x%d\n", item.Name, item.Quantity))
			} else {
				content.WriteString("  " + item.Name + "\n")
			}
		}
	}

	content.WriteString("\nCommands:\n")
	content.WriteString("- Ctrl+C: Quit\n")
	content.WriteString("- Enter: Act\n")
	content.WriteString("- /copy: Copy last reply\n")

	return content.String()
}

// writeChatContent rebuilds the chat panel from the message log plus any
// in-flight streamed narration.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6
	if chatWidth < 10 {
		chatWidth = 10
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("DUNGEONMIND") + "\n\n")
	content.WriteString(wordwrap.String("Scenario: "+m.gameState.Scenario, chatWidth) + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth)) + "\n\n")

	for _, msg := range m.gameState.Messages {
		content.WriteString(formatMessage(msg, chatWidth) + "\n\n")
	}

	if m.statusLine != "" {
		content.WriteString(checkStyle.Render(m.statusLine) + "\n\n")
	}
	if m.streaming && m.streamBuf != "" {
		formatted := narratorStyle.Render(AgentName+": ") + wordwrap.String(m.streamBuf, chatWidth-len(AgentName)-2)
		content.WriteString(formatted + "\n\n")
	}
	if m.err != nil {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func formatMessage(msg chat.GameMessage, width int) string {
	switch {
	case msg.Role == chat.RoleUser:
		return userStyle.Render("You: ") + wordwrap.String(msg.Content, width-5)
	case msg.Type == chat.TypeSkillCheck:
		return checkStyle.Render(wordwrap.String(msg.Content, width))
	case msg.Type == chat.TypeActionRejected:
		return rejectStyle.Render(wordwrap.String(msg.Content, width))
	case msg.Type == chat.TypeError:
		return errorStyle.Render(wordwrap.String(msg.Content, width))
	default:
		return narratorStyle.Render(AgentName+": ") + wordwrap.String(msg.Content, width-len(AgentName)-2)
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.gameState))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.err = nil
			m.statusLine = ""
			m.streamBuf = ""

			m.gameState.AppendMessage(chat.RoleUser, input, "")
			m.writeChatContent()

			m.events = make(chan SSEEvent, 32)
			return m, tea.Batch(m.startAction(input), m.listenEvents())
		}

	case actionEventMsg:
		if !msg.ok {
			// Stream closed; final state arrives via the result event,
			// but refresh defensively if it never did.
			m.loading = false
			m.streaming = false
			m.writeChatContent()
			return m, m.refreshGameState()
		}
		m.handleEvent(msg.event)
		m.writeChatContent()
		return m, m.listenEvents()

	case actionErrMsg:
		m.loading = false
		m.streaming = false
		m.err = msg.err
		m.writeChatContent()
		return m, nil

	case gameStateMsg:
		if msg.err == nil && msg.gameState != nil {
			m.gameState = msg.gameState
			m.writeChatContent()
			m.metaViewport.SetContent(writeMetadata(m.gameState))
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// handleEvent folds one pipeline event into the UI state.
func (m *ConsoleUI) handleEvent(ev SSEEvent) {
	switch ev.Type {
	case "action_validity":
		var v dm.ActionValidity
		if err := json.Unmarshal(ev.Data, &v); err == nil && !v.Valid {
			m.statusLine = ""
		}

	case "skill_check":
		var c dice.CheckRequest
		if err := json.Unmarshal(ev.Data, &c); err == nil && c.Required {
			m.statusLine = fmt.Sprintf("Skill check: %s (%s)...", c.Stat, c.Difficulty)
		}

	case "skill_check_result":
		var r dice.CheckResult
		if err := json.Unmarshal(ev.Data, &r); err == nil && r.Performed {
			outcome := "Failure"
			if r.Success {
				outcome = "Success"
			}
			m.statusLine = fmt.Sprintf("Skill check: %s rolled %d + %d = %d vs %d. %s!",
				r.Stat, r.Roll, r.StatValue, r.Total, r.Difficulty, outcome)
		}

	case "chunk":
		var chunk struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal(ev.Data, &chunk); err != nil {
			return
		}
		switch chunk.Content {
		case dm.StreamStart:
			m.streaming = true
			m.streamBuf = ""
		case dm.StreamEnd:
			m.streaming = false
			m.lastResponse = m.streamBuf
		default:
			m.streamBuf += chunk.Content
		}

	case "error":
		var e struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(ev.Data, &e); err == nil {
			m.err = fmt.Errorf("%s", e.Message)
		}

	case "result":
		var result struct {
			UpdatedGame *state.GameState `json:"updated_game"`
		}
		if err := json.Unmarshal(ev.Data, &result); err == nil && result.UpdatedGame != nil {
			m.gameState = result.UpdatedGame
			m.metaViewport.SetContent(writeMetadata(m.gameState))
		}
		m.loading = false
		m.streaming = false
		m.statusLine = ""
	}
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/copy":
		if m.lastResponse != "" {
			if err := clipboard.WriteAll(m.lastResponse); err != nil {
				m.err = fmt.Errorf("failed to copy: %w", err)
				m.writeChatContent()
			}
		}
	case "/help":
		helpText := `
Commands:
- /copy - Copy the last narration to the clipboard
- /help - Show this help
- Ctrl+C - Quit game

How to play:
- Type your actions and press Enter
- Risky actions trigger a d12 skill check
- The side panel tracks your stats and inventory
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()
	}

	m.textarea.Reset()
	return m, nil
}

// startAction fires the streaming request on a background goroutine. Events
// arrive through m.events; a transport failure surfaces as actionErrMsg.
func (m ConsoleUI) startAction(action string) tea.Cmd {
	events := m.events
	client := m.client
	baseURL := m.config.APIBaseURL
	gameID := m.gameState.ID

	return func() tea.Msg {
		if err := sendAction(context.Background(), client, baseURL, gameID, action, events); err != nil {
			return actionErrMsg{err}
		}
		return nil
	}
}

// listenEvents waits for the next event from the in-flight action.
func (m ConsoleUI) listenEvents() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		return actionEventMsg{event: ev, ok: ok}
	}
}

func (m ConsoleUI) refreshGameState() tea.Cmd {
	return func() tea.Msg {
		gs, err := getGame(m.client, m.config.APIBaseURL, m.gameState.ID)
		return gameStateMsg{gs, err}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to abandon your adventure?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}
