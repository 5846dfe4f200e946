// Command userchat is the participant-facing terminal client. It
// resumes or opens a support chat, renders the merged conversation and
// relays typing and presence signals over the push channel.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"supportchat/internal/client"
	"supportchat/internal/domain/entity"
	"supportchat/pkg/config"
	"supportchat/pkg/errors"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	agentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	guestStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("150")).Bold(true)
	typingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
)

type mode int

const (
	modePickCategory mode = iota
	modeChat
	modeFeedback
	modeDone
)

// syncMsg tells the model to re-read engine state. Engine callbacks
// coalesce into one outstanding notification.
type syncMsg struct{}

type errMsg struct{ err error }

type actionDoneMsg struct{}

type model struct {
	engine     *client.Engine
	events     chan struct{}
	mode       mode
	categories []entity.Category
	cursor     int
	input      textinput.Model
	view       viewport.Model
	width      int
	height     int
	lastErr    string
	typing     bool
}

func newModel(engine *client.Engine, events chan struct{}, categories []entity.Category, resumed bool) model {
	input := textinput.New()
	input.Placeholder = "Tulis pesan..."
	input.CharLimit = 2000
	input.Focus()

	m := model{
		engine:     engine,
		events:     events,
		mode:       modePickCategory,
		categories: categories,
		input:      input,
		view:       viewport.New(80, 20),
	}
	if resumed {
		m.mode = modeChat
	}
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForSync())
}

func (m model) waitForSync() tea.Cmd {
	return func() tea.Msg {
		<-m.events
		return syncMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view.Width = msg.Width
		m.view.Height = msg.Height - 6
		m.input.Width = msg.Width - 4
		m.refreshTranscript()
		return m, nil

	case syncMsg:
		m.applySync()
		return m, m.waitForSync()

	case actionDoneMsg:
		m.lastErr = ""
		if m.mode == modePickCategory {
			m.mode = modeChat
		}
		m.applySync()
		return m, nil

	case errMsg:
		m.lastErr = msg.err.Error()
		return m, nil

	case feedbackDoneMsg:
		m.mode = modeDone
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.engine.Close()
		return m, tea.Quit
	}

	switch m.mode {
	case modePickCategory:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.categories)-1 {
				m.cursor++
			}
		case "enter":
			category := m.categories[m.cursor].Name
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if _, err := m.engine.CreateChat(ctx, category); err != nil {
					return errMsg{err}
				}
				return actionDoneMsg{}
			}
		case "q", "esc":
			m.engine.Close()
			return m, tea.Quit
		}
		return m, nil

	case modeChat:
		if msg.Type == tea.KeyEnter {
			content := strings.TrimSpace(m.input.Value())
			if content == "" {
				return m, nil
			}
			m.input.SetValue("")
			m.setTyping(false)

			attachment := ""
			if strings.HasPrefix(content, "/file ") {
				attachment = strings.TrimSpace(strings.TrimPrefix(content, "/file "))
				content = filepath.Base(attachment)
			}
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if _, err := m.engine.SendMessage(ctx, content, attachment); err != nil {
					return errMsg{err}
				}
				return actionDoneMsg{}
			}
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.setTyping(strings.TrimSpace(m.input.Value()) != "")
		return m, cmd

	case modeFeedback:
		if msg.Type == tea.KeyEnter {
			raw := strings.TrimSpace(m.input.Value())
			rating := 0
			fmt.Sscanf(raw, "%d", &rating)
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := m.engine.SubmitFeedback(ctx, rating, ""); err != nil {
					return errMsg{err}
				}
				return feedbackDoneMsg{}
			}
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case modeDone:
		m.engine.Close()
		return m, tea.Quit
	}
	return m, nil
}

type feedbackDoneMsg struct{}

func (m *model) applySync() {
	m.refreshTranscript()
	if m.mode == modeChat {
		if chat := m.sessionChat(); chat != nil && chat.IsTerminal() {
			m.mode = modeFeedback
			m.input.Placeholder = "Rating 1-5, lalu Enter"
			m.input.SetValue("")
		}
	}
}

func (m *model) setTyping(active bool) {
	if active == m.typing {
		return
	}
	m.typing = active
	m.engine.SendTyping(active)
}

func (m *model) sessionChat() *entity.Chat {
	session := m.engine.Session()
	if session == nil {
		return nil
	}
	chat := session.Chat()
	return &chat
}

func (m *model) refreshTranscript() {
	session := m.engine.Session()
	if session == nil {
		return
	}

	var b strings.Builder
	for _, msg := range session.Messages() {
		style := guestStyle
		if msg.SenderType == entity.SenderAdmin {
			style = agentStyle
		}
		name := msg.SenderName
		if name == "" {
			name = string(msg.SenderType)
		}
		b.WriteString(style.Render(name) + " " + statusStyle.Render(msg.CreatedAt.Local().Format("15:04")) + "\n")
		if msg.Content != "" {
			b.WriteString(msg.Content + "\n")
		}
		if msg.HasAttachment() {
			b.WriteString(statusStyle.Render("📎 "+msg.FileName) + "\n")
		}
		b.WriteString("\n")
	}
	m.view.SetContent(b.String())
	m.view.GotoBottom()
}

func (m model) View() string {
	switch m.mode {
	case modePickCategory:
		var b strings.Builder
		b.WriteString(titleStyle.Render("Pilih kategori bantuan") + "\n\n")
		for i, c := range m.categories {
			line := "  " + c.DisplayName
			if i == m.cursor {
				line = selectedStyle.Render("> " + c.DisplayName)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n" + statusStyle.Render("enter: pilih  q: keluar"))
		return b.String()

	case modeFeedback:
		header := titleStyle.Render("Chat selesai") + "\n"
		return header + "Beri rating layanan (1-5):\n\n" + m.input.View() + "\n" + m.errLine()

	case modeDone:
		return titleStyle.Render("Terima kasih!") + "\n" + statusStyle.Render("tekan tombol apa saja untuk keluar") + "\n"
	}

	chat := m.sessionChat()
	header := titleStyle.Render("Runtera Support")
	if chat != nil {
		header += statusStyle.Render(fmt.Sprintf("  #%d · %s · %s", chat.ID, chat.Category, chat.Status))
	}

	presence := m.engine.Presence()
	status := ""
	if presence.AgentOnline {
		status = agentStyle.Render("● " + presence.AgentName + " online")
	} else {
		status = statusStyle.Render("○ menunggu admin")
	}
	if presence.Typing {
		status += "  " + typingStyle.Render(presence.TypingName+" sedang mengetik...")
	}

	return header + "\n" + status + "\n\n" + m.view.View() + "\n" + m.input.View() + "\n" + m.errLine()
}

func (m model) errLine() string {
	if m.lastErr == "" {
		return statusStyle.Render("/file <path> untuk lampiran · ctrl+c keluar")
	}
	return errStyle.Render(m.lastErr)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	server := flag.String("server", cfg.BaseURL, "backend base URL")
	token := flag.String("token", os.Getenv("SUPPORTCHAT_TOKEN"), "bearer token (empty for guest)")
	stateDir := flag.String("state", defaultStateDir(), "directory for the durable guest session token")
	flag.Parse()

	events := make(chan struct{}, 1)
	notify := func() {
		select {
		case events <- struct{}{}:
		default:
		}
	}

	engine, err := client.NewEngine(client.Config{
		BaseURL:      *server,
		Token:        *token,
		StateDir:     *stateDir,
		TypingExpiry: cfg.TypingExpiry,
	}, client.EngineEvents{
		MessageReceived: func(entity.Message) { notify() },
		ChatChanged:     func(entity.Chat) { notify() },
		PresenceChanged: func(client.PresenceState) { notify() },
		Error:           func(error) { notify() },
	})
	if err != nil {
		log.Fatalf("Failed to build client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := engine.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	resumed := true
	if _, err := engine.ResumeChat(ctx); err != nil {
		if errors.Code(err) != "NOT_FOUND" {
			log.Fatalf("Failed to resume chat: %v", err)
		}
		resumed = false
	}

	categories, err := engine.Fetcher().ActiveCategories(ctx)
	if err != nil {
		log.Fatalf("Failed to load categories: %v", err)
	}

	p := tea.NewProgram(newModel(engine, events, categories, resumed), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("UI error: %v", err)
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".supportchat"
	}
	return filepath.Join(home, ".supportchat")
}
