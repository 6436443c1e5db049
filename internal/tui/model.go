package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/trito/internal/auth"
	"github.com/diogo/trito/internal/chat"
	"github.com/diogo/trito/internal/history"
	"github.com/diogo/trito/internal/render"
	"github.com/diogo/trito/internal/session"
)

// Commands typed into the chat input
const (
	cmdRetry  = "/retry"
	cmdCopy   = "/copy"
	cmdExport = "/export"
)

// Commands that end the session. Bare words like "exit" are chat text.
const (
	CmdExit = "/exit"
	CmdQuit = "/quit"
)

const replyCancelled = "Resposta cancelada"

const passwordIncorrect = "😕 Password incorrect"

// Animation tick message
type animationTickMsg time.Time

// replyMsg carries the outcome of a Handle or Retry call back to Update.
type replyMsg struct {
	err error
}

// ChatSession is the slice of session.Session the TUI drives.
type ChatSession interface {
	ID() string
	Handle(ctx context.Context, input string) (session.Outcome, error)
	Retry(ctx context.Context) (session.Outcome, error)
	History() []chat.Message
	Conversation() *chat.Conversation
}

var _ ChatSession = (*session.Session)(nil)

// Options configures the chat screen.
type Options struct {
	Provider        string
	Model           string
	CopyToClipboard bool
	TranscriptDir   string
	Render          render.Options
}

type screen int

const (
	screenLogin screen = iota
	screenChat
)

// Model represents the TUI state
type Model struct {
	ctx     context.Context
	session ChatSession
	opts    Options

	// UI components
	password textinput.Model
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	screen         screen
	authState      auth.State
	loading        bool
	cancelling     bool
	ready          bool
	err            error
	notice         string
	cancel         context.CancelFunc
	animationFrame int

	width  int
	height int

	copyFn func(string) error
}

// NewModel creates a TUI bound to one operator session. The first screen
// asks for the access password.
func NewModel(ctx context.Context, s ChatSession, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}

	pw := textinput.New()
	pw.Placeholder = "Password"
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'
	pw.CharLimit = 256
	pw.Width = 32
	pw.Focus()

	ta := textarea.New()
	ta.Placeholder = "Descreva o cliente..."
	ta.CharLimit = 4000
	ta.SetWidth(60)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = loadingStyle

	return Model{
		ctx:       ctx,
		session:   s,
		opts:      opts,
		password:  pw,
		textarea:  ta,
		spinner:   sp,
		screen:    screenLogin,
		authState: auth.Unauthenticated,
		copyFn:    clipboard.WriteAll,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// animationTick returns a command that sends animation tick messages
func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.resize(size)
		return m, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		m.stop()
		return m, tea.Quit
	}

	if m.screen == screenLogin {
		return m.updateLogin(msg)
	}
	return m.updateChat(msg)
}

func (m *Model) resize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 4
	inputHeight := 6
	statusHeight := 1
	padding := 2

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
	if vpHeight < 5 {
		vpHeight = 5
	}

	contentWidth := m.width - 4

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)
	m.updateViewport()
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return m, tea.Quit
		case "enter":
			value := m.password.Value()
			m.password.Reset()

			out, err := m.session.Handle(m.ctx, value)
			m.authState = out.Auth
			m.err = err
			if out.Auth == auth.Authenticated {
				m.screen = screenChat
				m.password.Blur()
				m.updateViewport()
				cmd = m.textarea.Focus()
				return m, cmd
			}
			return m, nil
		}
	}

	m.password, cmd = m.password.Update(msg)
	return m, cmd
}

func (m Model) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.loading {
				// The call stays loading until its replyMsg drains; the
				// salesperson turn stays pending and can be retried.
				m.cancelCall()
				return m, nil
			}
			return m, tea.Quit

		case "enter":
			if m.loading {
				return m, nil
			}
			return m.submit()
		}

	case replyMsg:
		cancelled := m.cancelling
		m.loading = false
		m.cancelling = false
		m.cancel = nil
		if cancelled && errors.Is(msg.err, context.Canceled) {
			m.notice = replyCancelled
		} else {
			m.err = msg.err
		}
		m.updateViewport()
		m.viewport.GotoBottom()
		if msg.err == nil && m.opts.CopyToClipboard {
			m.copyLastReply()
		}
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			// The salesperson turn is appended once the call starts.
			m.updateViewport()
			m.viewport.GotoBottom()
			cmds = append(cmds, animationTick())
		}
	}

	// Only pass KeyMsg to textarea to prevent escape sequence leaks
	if !m.loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit handles Enter on the chat screen.
func (m Model) submit() (tea.Model, tea.Cmd) {
	raw := m.textarea.Value()
	input := strings.TrimSpace(raw)
	m.notice = ""

	// Reset matches the exact command only; anything else is chat text.
	if raw == chat.ResetCommand {
		m.textarea.Reset()
		_, m.err = m.session.Handle(m.ctx, raw)
		if m.err == nil {
			m.notice = "Conversa reiniciada"
		}
		m.updateViewport()
		m.viewport.GotoTop()
		return m, nil
	}

	switch input {
	case "":
		return m, nil
	case CmdExit, CmdQuit:
		return m, tea.Quit
	case cmdCopy:
		m.textarea.Reset()
		m.copyLastReply()
		return m, nil
	case cmdExport:
		m.textarea.Reset()
		m.exportTranscript()
		return m, nil
	case cmdRetry:
		m.textarea.Reset()
		return m.start(func(ctx context.Context) error {
			_, err := m.session.Retry(ctx)
			return err
		})
	}

	m.textarea.Reset()
	return m.start(func(ctx context.Context) error {
		_, err := m.session.Handle(ctx, raw)
		return err
	})
}

// start runs call off the UI goroutine and shows the loading animation
// until its replyMsg arrives.
func (m Model) start(call func(ctx context.Context) error) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.loading = true
	m.cancelling = false
	m.err = nil
	m.animationFrame = 0

	send := func() tea.Msg {
		defer cancel()
		return replyMsg{err: call(ctx)}
	}

	return m, tea.Batch(send, m.spinner.Tick, animationTick())
}

// cancelCall aborts the in-flight call. loading stays set until the
// call's replyMsg arrives, so no second call can race it.
func (m *Model) cancelCall() {
	if m.cancelling {
		return
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.cancelling = true
}

func (m *Model) stop() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.loading = false
	m.cancelling = false
}

func (m *Model) copyLastReply() {
	msgs := m.session.History()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != chat.RoleAssistant {
			continue
		}
		if err := m.copyFn(msgs[i].Content); err != nil {
			m.err = fmt.Errorf("copy to clipboard: %w", err)
			return
		}
		m.notice = "Resposta copiada"
		return
	}
}

func (m *Model) exportTranscript() {
	conv := m.session.Conversation()
	if conv == nil {
		return
	}
	t := history.NewTranscript(m.session.ID(), m.opts.Provider, m.opts.Model, conv)
	path, err := history.WriteTranscript(m.opts.TranscriptDir, t, history.DefaultExportOptions())
	if err != nil {
		m.err = err
		return
	}
	m.notice = "Transcrição salva em " + path
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}
	if m.screen == screenLogin {
		return m.renderLogin()
	}

	var sections []string
	contentWidth := m.width - 4

	// Header
	headerParts := []string{
		titleStyle.Render("✦ Trito"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.providerLabel()),
	}
	if started := m.startedLabel(); started != "" {
		headerParts = append(headerParts, hintStyle.Render("  •  "), hintStyle.Render(started))
	}
	header := headerStyle.Width(contentWidth).Render(
		lipgloss.JoinHorizontal(lipgloss.Center, headerParts...),
	)
	sections = append(sections, header)

	// Messages
	messagesPanel := messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(m.viewport.View())
	sections = append(sections, messagesPanel)

	// Input
	var inputContent string
	if m.loading {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("Vendedor"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.notice != "" {
		sections = append(sections, noticeStyle.Render(m.notice))
	}
	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) providerLabel() string {
	if m.opts.Model == "" {
		return m.opts.Provider
	}
	return m.opts.Provider + "/" + m.opts.Model
}

// startedLabel tells how long the current client has been served.
func (m Model) startedLabel() string {
	conv := m.session.Conversation()
	if conv == nil {
		return ""
	}
	return "atendimento iniciado " + history.FormatRelativeTime(conv.CreatedAt())
}

func (m Model) renderLogin() string {
	lines := []string{
		loginTitleStyle.Render("✦ Trito"),
		subtitleStyle.Render("Enter the access password"),
		"",
		m.password.View(),
	}
	if m.authState == auth.Rejected {
		lines = append(lines, "", errorStyle.Render(passwordIncorrect))
	}
	lines = append(lines, "", hintStyle.Render("Enter to submit • Esc to quit"))

	panel := loginPanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}

// renderLoadingAnimation renders a colorful animated loading indicator
func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	frame := m.animationFrame

	spinColor := gradientColors[frame%len(gradientColors)]
	spin := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[frame%len(chars)])

	barWidth := 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + frame) % len(gradientColors)
		charIdx := (i + frame/2) % len(barChars)
		bar.WriteString(lipgloss.NewStyle().Foreground(gradientColors[colorIdx]).Render(barChars[charIdx]))
	}

	var dots strings.Builder
	numDots := (frame / 3) % 4
	for i := 0; i < numDots; i++ {
		dotColor := gradientColors[(frame+i)%len(gradientColors)]
		dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
	}
	for i := numDots; i < 3; i++ {
		dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
	}

	label := " O consultor está pensando "
	if m.cancelling {
		label = " Cancelando "
	}
	text := lipgloss.NewStyle().Foreground(colorText).Render(label)

	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, dots.String())
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{chat.ResetCommand, "New client"},
		{cmdRetry, "Retry"},
		{cmdCopy, "Copy"},
		{cmdExport, "Export"},
		{"Esc · " + CmdExit, "Quit"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		))
	}

	bar := strings.Join(items, "  │  ")
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// updateViewport redraws the conversation from the session history. The
// system prompt is never shown.
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	msgs := m.session.History()
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}
	renderOpts := m.opts.Render.ForBubble(bubbleWidth)

	var content strings.Builder
	for _, msg := range msgs {
		switch msg.Role {
		case chat.RoleHuman:
			content.WriteString(humanLabelStyle.Render("● Vendedor"))
			content.WriteString("\n")
			content.WriteString(humanBubbleStyle.Width(bubbleWidth).Render(msg.Content))
		case chat.RoleAssistant:
			content.WriteString(assistantLabelStyle.Render("✦ Consultor"))
			content.WriteString("\n")
			content.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(render.Reply(msg.Content, renderOpts)))
		default:
			continue
		}
		content.WriteString("\n\n")
	}

	if n := len(msgs); n > 0 && msgs[n-1].Role == chat.RoleHuman && !m.loading {
		content.WriteString(pendingStyle.Render("Sem resposta. Digite /retry para tentar de novo."))
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// Run starts the TUI for s and blocks until the operator quits.
func Run(ctx context.Context, s ChatSession, opts Options) error {
	m := NewModel(ctx, s, opts)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
