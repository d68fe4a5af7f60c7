package main

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	session "github.com/koscakluka/signspell/core"
	"github.com/koscakluka/signspell/core/animation"
)

type stubChannel struct {
	mu       sync.Mutex
	handlers session.ChannelHandlers
	requests []string
}

func (c *stubChannel) Subscribe(handlers session.ChannelHandlers) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = handlers
	return func() {}
}

func (c *stubChannel) RequestAnimation(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, text)
	return nil
}

func (c *stubChannel) connect() {
	c.mu.Lock()
	onConnected := c.handlers.OnConnected
	c.mu.Unlock()
	onConnected()
}

func (c *stubChannel) deliver(labels ...string) {
	batch := make([]animation.Unit, 0, len(labels))
	for _, label := range labels {
		batch = append(batch, animation.Unit{Label: label, Animation: json.RawMessage(`{"frames":1}`)})
	}

	c.mu.Lock()
	onBatch := c.handlers.OnAnimationBatch
	c.mu.Unlock()
	onBatch(batch)
}

func newTestModel(t *testing.T) (model, *stubChannel) {
	t.Helper()

	channel := &stubChannel{}
	s := session.NewSession(session.WithChannel(channel))
	t.Cleanup(s.Close)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	m := newModel(context.Background(), s, time.Millisecond)
	m.hold = func(session.Pacing) time.Duration { return time.Second }
	return m, channel
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()

	next, cmd := m.Update(msg)
	updated, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return updated, cmd
}

func TestModelHoldsEachWord(t *testing.T) {
	m, channel := newTestModel(t)
	channel.connect()
	channel.deliver("good", "morning")

	now := time.Now()
	m = m.advance(now)
	if m.label != "good" || m.queueLen != 1 {
		t.Fatalf("after first tick: label %q, queue %d", m.label, m.queueLen)
	}

	m = m.advance(now.Add(500 * time.Millisecond))
	if m.label != "good" {
		t.Fatalf("word changed before its hold ended: %q", m.label)
	}

	m = m.advance(now.Add(time.Second))
	if m.label != "morning" || m.queueLen != 0 {
		t.Fatalf("after hold: label %q, queue %d", m.label, m.queueLen)
	}

	m = m.advance(now.Add(3 * time.Second))
	if m.label != "morning" {
		t.Fatalf("label should stay on the last word once the queue is empty, got %q", m.label)
	}
}

func TestModelTickSchedulesNextTick(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := update(t, m, tickMsg(time.Now()))
	if cmd == nil {
		t.Fatalf("expected a follow-up tick")
	}
}

func TestModelPacingKeys(t *testing.T) {
	m, _ := newTestModel(t)
	plus := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}}
	minus := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}}

	// typed into the input while it has focus
	m, _ = update(t, m, plus)
	if m.pacing != session.DefaultPacing || m.input.Value() != "+" {
		t.Fatalf("expected + to be typed, pacing %d, input %q", m.pacing, m.input.Value())
	}
	m.input.Reset()

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.input.Focused() {
		t.Fatalf("tab should move focus to the pacing slider")
	}

	m, _ = update(t, m, plus)
	if m.pacing != session.DefaultPacing+pacingStep {
		t.Fatalf("pacing = %d after +", m.pacing)
	}
	m, _ = update(t, m, minus)
	m, _ = update(t, m, minus)
	if m.pacing != session.DefaultPacing-pacingStep {
		t.Fatalf("pacing = %d after two -", m.pacing)
	}

	for range 30 {
		m, _ = update(t, m, plus)
	}
	if m.pacing != session.MaxPacing || m.session.Pacing() != session.MaxPacing {
		t.Fatalf("pacing should clamp at %d, got %d", session.MaxPacing, m.pacing)
	}
}

func TestModelDispatch(t *testing.T) {
	m, channel := newTestModel(t)
	channel.connect()

	m.input.SetValue("thank you")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected a dispatch command")
	}
	if m.input.Value() != "" {
		t.Fatalf("input should be cleared after sending, got %q", m.input.Value())
	}

	m, _ = update(t, m, cmd())
	if m.lastSent != "thank you" || m.toastErr {
		t.Fatalf("unexpected state after dispatch: sent %q, toast %q", m.lastSent, m.toast)
	}

	channel.mu.Lock()
	requests := strings.Join(channel.requests, "|")
	channel.mu.Unlock()
	if requests != "thank you" {
		t.Fatalf("channel received %q", requests)
	}
}

func TestModelDispatchEmptyInput(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, cmd())

	if !m.toastErr || m.toast != "Type something to translate first" {
		t.Fatalf("expected an empty input toast, got %q", m.toast)
	}
}

func TestModelConnectionToast(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, connectionMsg(session.Connected))
	if !m.connected || m.toastErr {
		t.Fatalf("expected connected state")
	}
	if !strings.Contains(m.View(), "online") {
		t.Fatalf("view should show the online badge")
	}

	m, _ = update(t, m, connectionMsg(session.Disconnected))
	if m.connected || !m.toastErr {
		t.Fatalf("expected disconnected state with an error toast")
	}

	m = m.advance(time.Now().Add(toastDuration + time.Second))
	if m.toast != "" {
		t.Fatalf("toast should expire, got %q", m.toast)
	}
}

func TestModelView(t *testing.T) {
	m, channel := newTestModel(t)
	channel.connect()
	channel.deliver("hello")
	m = m.advance(time.Now())

	view := m.View()
	for _, want := range []string{"signspell", "hello", "pacing"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view is missing %q:\n%s", want, view)
		}
	}
}
