package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	session "github.com/koscakluka/signspell/core"
	"github.com/koscakluka/signspell/core/transport/socket"
	"github.com/muesli/reflow/wordwrap"
)

const (
	pacingStep    = 5
	sliderWidth   = 20
	toastDuration = 3 * time.Second
	defaultWidth  = 72
)

const introMarkdown = `# signspell

Type a sentence and press **enter**. Every word is signed in order, the
word being signed is shown below.

- **tab** switches between the text input and the pacing slider
- with the slider focused, **+** and **-** change how fast words are played
- **esc** quits
`

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#818cf8"))
	labelStyle     = lipgloss.NewStyle().Bold(true).Border(lipgloss.RoundedBorder()).Padding(0, 2)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	onlineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80"))
	offlineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#fb7185"))
	toastStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")).Padding(0, 1)
	toastErrStyle  = toastStyle.Foreground(lipgloss.Color("#fb7185"))
	sliderOnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#818cf8"))
	sliderOffStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	focusedStyle   = lipgloss.NewStyle().Bold(true)
)

type tickMsg time.Time

type connectionMsg session.ConnectionState

type dispatchedMsg struct {
	text string
	err  error
}

type keyMap struct {
	Send   key.Binding
	Focus  key.Binding
	Faster key.Binding
	Slower key.Binding
	About  key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Send:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "translate")),
		Focus:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "input/pacing")),
		Faster: key.NewBinding(key.WithKeys("+", "=", "right"), key.WithHelp("+", "faster")),
		Slower: key.NewBinding(key.WithKeys("-", "left"), key.WithHelp("-", "slower")),
		About:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "about")),
		Quit:   key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Focus, k.Faster, k.Slower, k.About, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type model struct {
	ctx          context.Context
	session      *session.Session
	pollInterval time.Duration
	hold         func(session.Pacing) time.Duration

	input textinput.Model
	keys  keyMap
	help  help.Model
	width int

	label     string
	queueLen  int
	holdUntil time.Time
	pacing    session.Pacing
	connected bool
	lastSent  string
	showIntro bool
	intro     string

	toast      string
	toastErr   bool
	toastUntil time.Time
}

func newModel(ctx context.Context, s *session.Session, pollInterval time.Duration) model {
	input := textinput.New()
	input.Placeholder = "Type something to sign"
	input.Prompt = "> "
	input.Focus()

	m := model{
		ctx:          ctx,
		session:      s,
		pollInterval: pollInterval,
		hold:         session.Pacing.UnitDuration,
		input:        input,
		keys:         newKeyMap(),
		help:         help.New(),
		width:        defaultWidth,
		pacing:       s.Pacing(),
		connected:    s.ConnectionState() == session.Connected,
		showIntro:    true,
	}
	m.intro = renderIntro(m.width)
	return m
}

func renderIntro(width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		if out, err := renderer.Render(introMarkdown); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return wordwrap.String(introMarkdown, width)
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func dispatch(ctx context.Context, s *session.Session, text string) tea.Cmd {
	return func() tea.Msg {
		return dispatchedMsg{text: text, err: s.Dispatch(ctx, text)}
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick(m.pollInterval))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width-2, 20)
		m.input.Width = m.width - 4
		m.help.Width = m.width
		m.intro = renderIntro(m.width)
		return m, nil

	case tickMsg:
		m = m.advance(time.Time(msg))
		return m, tick(m.pollInterval)

	case connectionMsg:
		m.connected = session.ConnectionState(msg) == session.Connected
		if m.connected {
			m = m.notify("Connected to the translator", false, time.Now())
		} else {
			m = m.notify("Connection lost, reconnecting", true, time.Now())
		}
		return m, nil

	case dispatchedMsg:
		if msg.err != nil {
			return m.notify(describeDispatchError(msg.err), true, time.Now()), nil
		}
		m.lastSent = msg.text
		return m.notify("Sent for translation", false, time.Now()), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Focus):
		if m.input.Focused() {
			m.input.Blur()
			return m, nil
		}
		return m, m.input.Focus()
	}

	if m.input.Focused() {
		if key.Matches(msg, m.keys.Send) {
			text := m.input.Value()
			m.input.Reset()
			return m, dispatch(m.ctx, m.session, text)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Faster):
		m.pacing = m.session.SetPacing(m.pacing + pacingStep)
	case key.Matches(msg, m.keys.Slower):
		m.pacing = m.session.SetPacing(m.pacing - pacingStep)
	case key.Matches(msg, m.keys.About):
		m.showIntro = !m.showIntro
	}
	return m, nil
}

// advance plays the next unit once the current one has been held long
// enough.
func (m model) advance(now time.Time) model {
	if !m.toastUntil.IsZero() && now.After(m.toastUntil) {
		m.toast, m.toastUntil = "", time.Time{}
	}

	if now.Before(m.holdUntil) {
		m.queueLen = m.session.QueueLen()
		return m
	}
	if _, ok := m.session.Pull(); ok {
		m.label = m.session.CurrentLabel()
		m.holdUntil = now.Add(m.hold(m.session.Pacing()))
	}
	m.queueLen = m.session.QueueLen()
	return m
}

func (m model) notify(text string, isErr bool, now time.Time) model {
	m.toast, m.toastErr, m.toastUntil = text, isErr, now.Add(toastDuration)
	return m
}

func describeDispatchError(err error) string {
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		return "Type something to translate first"
	case errors.Is(err, socket.ErrNotConnected):
		return "Not connected to the translator"
	case errors.Is(err, session.ErrPlaybackPending):
		return "Wait for the current words to finish"
	default:
		return err.Error()
	}
}

func (m model) View() string {
	var b strings.Builder

	status := offlineStyle.Render("○ offline")
	if m.connected {
		status = onlineStyle.Render("● online")
	}
	b.WriteString(titleStyle.Render("signspell") + "  " + status)
	if m.toast != "" {
		style := toastStyle
		if m.toastErr {
			style = toastErrStyle
		}
		b.WriteString("  " + style.Render(m.toast))
	}
	b.WriteString("\n\n")

	if m.showIntro {
		b.WriteString(m.intro + "\n\n")
	}

	label := m.label
	if label == "" {
		label = mutedStyle.Render("nothing signed yet")
	}
	b.WriteString(labelStyle.Render(label) + "\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d words queued", m.queueLen)) + "\n\n")

	b.WriteString(m.sliderView() + "\n\n")

	if m.lastSent != "" {
		b.WriteString(mutedStyle.Render(wordwrap.String("Last sent: "+m.lastSent, m.width)) + "\n")
	}
	b.WriteString(m.input.View() + "\n\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m model) sliderView() string {
	span := int(session.MaxPacing - session.MinPacing)
	filled := int(m.pacing-session.MinPacing) * sliderWidth / span

	caption := "pacing"
	if !m.input.Focused() {
		caption = focusedStyle.Render("pacing")
	}
	return fmt.Sprintf("%s %s%s %d",
		caption,
		sliderOnStyle.Render(strings.Repeat("━", filled)),
		sliderOffStyle.Render(strings.Repeat("─", sliderWidth-filled)),
		m.pacing,
	)
}
