// Command admindash is the agent-facing terminal dashboard: the
// filtered chat roster on the left, the active conversation on the
// right, with claim/solve/close actions and live roster previews.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"supportchat/internal/client"
	"supportchat/internal/domain/entity"
	"supportchat/internal/infrastructure/auth"
	"supportchat/pkg/config"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	openStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	claimedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	terminalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	adminStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("150")).Bold(true)
	typingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	paneStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type pane int

const (
	paneRoster pane = iota
	paneChat
)

type syncMsg struct{}

type errMsg struct{ err error }

type actionDoneMsg struct{}

type statsMsg struct{ stats []entity.AdminStats }

type model struct {
	engine  *client.Engine
	events  chan struct{}
	focus   pane
	cursor  int
	input   textinput.Model
	view    viewport.Model
	width   int
	height  int
	lastErr string
	typing  bool
	filter  string // cycles all -> open -> claimed
	stats   []entity.AdminStats
}

func newModel(engine *client.Engine, events chan struct{}) model {
	input := textinput.New()
	input.Placeholder = "Balas sebagai admin..."
	input.CharLimit = 2000

	return model{
		engine: engine,
		events: events,
		input:  input,
		view:   viewport.New(60, 20),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.waitForSync(), m.refreshRoster())
}

func (m model) waitForSync() tea.Cmd {
	return func() tea.Msg {
		<-m.events
		return syncMsg{}
	}
}

func (m model) refreshRoster() tea.Cmd {
	filter := client.ChatListFilter{Status: m.filter}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.engine.RefreshRoster(ctx, filter); err != nil {
			return errMsg{err}
		}
		stats, err := m.engine.Fetcher().AdminStats(ctx)
		if err != nil {
			return errMsg{err}
		}
		return statsMsg{stats}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view.Width = msg.Width - 40
		m.view.Height = msg.Height - 8
		m.input.Width = msg.Width - 44
		m.refreshTranscript()
		return m, nil

	case syncMsg:
		m.refreshTranscript()
		return m, m.waitForSync()

	case actionDoneMsg:
		m.lastErr = ""
		m.refreshTranscript()
		return m, m.refreshRoster()

	case statsMsg:
		m.stats = msg.stats
		m.refreshTranscript()
		return m, nil

	case errMsg:
		m.lastErr = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.engine.Close()
		return m, tea.Quit
	case tea.KeyTab:
		if m.focus == paneRoster {
			m.focus = paneChat
			m.input.Focus()
		} else {
			m.focus = paneRoster
			m.input.Blur()
		}
		return m, nil
	}

	if m.focus == paneRoster {
		chats := m.engine.Roster().Chats()
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(chats)-1 {
				m.cursor++
			}
		case "r":
			return m, m.refreshRoster()
		case "c":
			return m, m.runAction(m.engine.Claim)
		case "s":
			return m, m.runAction(m.engine.MarkSolved)
		case "x":
			return m, m.runAction(m.engine.MarkClosed)
		case "f":
			switch m.filter {
			case "":
				m.filter = entity.StatusOpen
			case entity.StatusOpen:
				m.filter = entity.StatusClaimed
			default:
				m.filter = ""
			}
			m.cursor = 0
			return m, m.refreshRoster()
		case "enter":
			if m.cursor >= len(chats) {
				return m, nil
			}
			chatID := chats[m.cursor].ID
			m.focus = paneChat
			m.input.Focus()
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if _, err := m.engine.OpenChat(ctx, chatID); err != nil {
					return errMsg{err}
				}
				return actionDoneMsg{}
			}
		case "q":
			m.engine.Close()
			return m, tea.Quit
		}
		return m, nil
	}

	// Chat pane: the composer owns the keys, esc hands focus back.
	if msg.Type == tea.KeyEsc {
		m.focus = paneRoster
		m.input.Blur()
		return m, nil
	}

	if msg.Type == tea.KeyEnter {
		content := strings.TrimSpace(m.input.Value())
		if content == "" {
			return m, nil
		}
		m.input.SetValue("")
		m.setTyping(false)
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := m.engine.SendMessage(ctx, content, ""); err != nil {
				return errMsg{err}
			}
			return actionDoneMsg{}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.setTyping(strings.TrimSpace(m.input.Value()) != "")
	return m, cmd
}

func (m model) runAction(action func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := action(ctx); err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{}
	}
}

func (m *model) setTyping(active bool) {
	if active == m.typing {
		return
	}
	m.typing = active
	m.engine.SendTyping(active)
}

func (m *model) refreshTranscript() {
	session := m.engine.Session()
	if session == nil {
		m.view.SetContent(statusStyle.Render("Pilih chat dari daftar, lalu Enter."))
		return
	}

	var b strings.Builder
	for _, msg := range session.Messages() {
		style := userStyle
		if msg.SenderType == entity.SenderAdmin {
			style = adminStyle
		}
		b.WriteString(style.Render(msg.SenderName) + " " + statusStyle.Render(msg.CreatedAt.Local().Format("15:04")) + "\n")
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

func (m model) rosterView() string {
	chats := m.engine.Roster().Chats()
	var b strings.Builder
	label := m.filter
	if label == "" {
		label = "semua"
	}
	b.WriteString(titleStyle.Render("Antrian") + statusStyle.Render(" · "+label) + "\n\n")

	for i, chat := range chats {
		style := openStyle
		switch chat.Status {
		case entity.StatusClaimed:
			style = claimedStyle
		case entity.StatusSolved, entity.StatusClosed:
			style = terminalStyle
		}
		line := fmt.Sprintf("#%d %s [%s]", chat.ID, chat.Category, chat.Status)
		if chat.LastMessage != "" {
			preview := chat.LastMessage
			if len(preview) > 24 {
				preview = preview[:24] + "…"
			}
			line += " " + preview
		}
		if i == m.cursor && m.focus == paneRoster {
			b.WriteString(selectedStyle.Render("> ") + style.Render(line) + "\n")
		} else {
			b.WriteString("  " + style.Render(line) + "\n")
		}
	}
	if len(chats) == 0 {
		b.WriteString(statusStyle.Render("kosong") + "\n")
	}
	me := m.engine.Principal().ID
	for _, s := range m.stats {
		if s.AdminID == me {
			b.WriteString("\n" + statusStyle.Render(fmt.Sprintf("aktif %d · solved %d · closed %d",
				s.ActiveCount, s.SolvedCount, s.ClosedCount)) + "\n")
			break
		}
	}

	b.WriteString("\n" + statusStyle.Render("r: segarkan  f: filter  enter: buka\nc: claim  s: solve  x: close  tab: fokus"))
	return b.String()
}

func (m model) chatView() string {
	session := m.engine.Session()
	header := titleStyle.Render("Percakapan")
	if session != nil {
		chat := session.Chat()
		header += statusStyle.Render(fmt.Sprintf("  #%d · %s · %s", chat.ID, chat.Category, chat.Status))
		if chat.ClaimedBy != "" {
			header += claimedStyle.Render("  ⚑ " + chat.AdminName)
		}
	}

	presence := m.engine.Presence()
	typing := ""
	if presence.Typing {
		typing = typingStyle.Render(presence.TypingName + " sedang mengetik...")
	}

	errLine := statusStyle.Render("enter: kirim  esc: kembali ke daftar")
	if m.lastErr != "" {
		errLine = errStyle.Render(m.lastErr)
	}

	return header + "\n" + typing + "\n" + m.view.View() + "\n" + m.input.View() + "\n" + errLine
}

func (m model) View() string {
	roster := paneStyle.Width(34).Height(m.height - 2).Render(m.rosterView())
	chat := paneStyle.Width(m.width - 38).Height(m.height - 2).Render(m.chatView())
	return lipgloss.JoinHorizontal(lipgloss.Top, roster, chat)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	server := flag.String("server", cfg.BaseURL, "backend base URL")
	token := flag.String("token", os.Getenv("SUPPORTCHAT_TOKEN"), "admin bearer token")
	devUID := flag.String("dev-uid", "", "mint a local dev token for this admin id")
	devName := flag.String("dev-name", "Admin Runtera", "display name for the dev token")
	flag.Parse()

	// Local development shortcut: mint an admin token against the
	// configured secret instead of pasting one in.
	if *token == "" && *devUID != "" {
		issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)
		minted, err := issuer.Issue(*devUID, *devName, auth.RoleAdmin)
		if err != nil {
			log.Fatalf("Failed to mint dev token: %v", err)
		}
		*token = minted
	}
	if *token == "" {
		log.Fatal("An admin token is required (-token or -dev-uid)")
	}

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
		TypingExpiry: cfg.TypingExpiry,
	}, client.EngineEvents{
		MessageReceived: func(entity.Message) { notify() },
		ChatChanged:     func(entity.Chat) { notify() },
		PresenceChanged: func(client.PresenceState) { notify() },
		RosterChanged:   func() { notify() },
		Error:           func(error) { notify() },
	})
	if err != nil {
		log.Fatalf("Failed to build client: %v", err)
	}
	if !engine.Principal().IsAdmin() {
		log.Fatal("The supplied token does not carry an admin role")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := engine.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	p := tea.NewProgram(newModel(engine, events), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("UI error: %v", err)
	}
}
