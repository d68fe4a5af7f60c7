package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingRenderer struct {
	mu      sync.Mutex
	labels  []string
	pacings []Pacing
	fail    map[string]error
	panics  map[string]bool
	onCall  func(count int)
}

func (r *recordingRenderer) Render(_ context.Context, label string, _ json.RawMessage, pacing Pacing) error {
	r.mu.Lock()
	r.labels = append(r.labels, label)
	r.pacings = append(r.pacings, pacing)
	count := len(r.labels)
	onCall := r.onCall
	r.mu.Unlock()

	if onCall != nil {
		onCall(count)
	}
	if r.panics[label] {
		panic("renderer exploded")
	}
	return r.fail[label]
}

func (r *recordingRenderer) rendered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.labels...)
}

func TestPlayRendersUnitsInOrderAndStopsOnCancel(t *testing.T) {
	channel := newTestChannel()
	s := NewSession(WithChannel(channel), WithPacing(60))
	channel.subscribeAndStart(t, s)
	channel.emitBatch(units("a", "b", "c"))

	ctx, cancel := context.WithCancel(context.Background())
	renderer := &recordingRenderer{onCall: func(count int) {
		if count == 3 {
			cancel()
		}
	}}

	err := Play(ctx, s, renderer, WithPollInterval(time.Millisecond))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	assertLabels(t, renderer.rendered(), "a", "b", "c")
	for _, pacing := range renderer.pacings {
		if pacing != 60 {
			t.Fatalf("expected renderer to receive pacing 60, got %d", pacing)
		}
	}
	if got := s.CurrentLabel(); got != "c" {
		t.Fatalf("expected current label c, got %q", got)
	}
}

func TestPlayPollsEmptyQueueUntilUnitsArrive(t *testing.T) {
	channel := newTestChannel()
	s := NewSession(WithChannel(channel))
	channel.subscribeAndStart(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	renderer := &recordingRenderer{onCall: func(count int) {
		if count == 2 {
			cancel()
		}
	}}

	done := make(chan error, 1)
	go func() { done <- Play(ctx, s, renderer, WithPollInterval(time.Millisecond)) }()

	time.Sleep(20 * time.Millisecond)
	if got := renderer.rendered(); len(got) != 0 {
		t.Fatalf("expected nothing rendered from an empty queue, got %v", got)
	}

	channel.emitBatch(units("late", "arrival"))

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("expected playback to finish")
	}
	assertLabels(t, renderer.rendered(), "late", "arrival")
}

func TestPlayContinuesAfterRendererFailures(t *testing.T) {
	channel := newTestChannel()
	s := NewSession(WithChannel(channel))
	channel.subscribeAndStart(t, s)
	channel.emitBatch(units("fails", "panics", "works"))

	ctx, cancel := context.WithCancel(context.Background())
	renderer := &recordingRenderer{
		fail:   map[string]error{"fails": errors.New("render failed")},
		panics: map[string]bool{"panics": true},
		onCall: func(count int) {
			if count == 3 {
				cancel()
			}
		},
	}

	if err := Play(ctx, s, renderer, WithPollInterval(time.Millisecond)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	assertLabels(t, renderer.rendered(), "fails", "panics", "works")
}

func TestRendererFunc(t *testing.T) {
	called := false
	renderer := RendererFunc(func(context.Context, string, json.RawMessage, Pacing) error {
		called = true
		return nil
	})

	if err := renderer.Render(context.Background(), "a", nil, DefaultPacing); err != nil || !called {
		t.Fatalf("expected renderer func to be called, err=%v called=%t", err, called)
	}
}

func TestPanicSafeNamedWorkerRecovers(t *testing.T) {
	worker := panicSafeNamedWorker("test", func(context.Context) error { panic("boom") })

	if err := worker(context.Background()); err == nil {
		t.Fatalf("expected panic to be converted into an error")
	}
}
