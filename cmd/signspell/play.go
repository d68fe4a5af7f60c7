package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	session "github.com/koscakluka/signspell/core"
	"github.com/koscakluka/signspell/core/events"
	"github.com/koscakluka/signspell/core/transport/socket"
	"github.com/koscakluka/signspell/internal/config"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	connectTimeout     = 10 * time.Second
	defaultIdleTimeout = 3 * time.Second
)

var errNeverConnected = errors.New("could not connect to the translator")

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Translate lines from stdin and print the signed words",
	Long: `Reads text from stdin one line at a time, sends every line to the
translator and prints each word as its animation is played. Exits once
stdin is closed and playback has gone idle.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := term.IsTerminal(int(os.Stdin.Fd()))
		return runPlay(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), playOptions{prompt: prompt})
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
}

type playOptions struct {
	prompt      bool
	idleTimeout time.Duration
	// hold overrides how long each word is shown
	hold func(session.Pacing) time.Duration
}

func runPlay(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer, opts playOptions) error {
	if opts.idleTimeout <= 0 {
		opts.idleTimeout = defaultIdleTimeout
	}
	if opts.hold == nil {
		opts.hold = session.Pacing.UnitDuration
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var lastActivity atomic.Int64
	touch := func() { lastActivity.Store(time.Now().UnixNano()) }
	touch()

	client := socket.NewClient(cfg.URL, socket.WithReconnectDelay(cfg.ReconnectDelay))
	defer client.Close()

	connected := make(chan struct{})
	var connectedOnce sync.Once
	s := session.NewSession(append(cfg.SessionOptions(),
		session.WithChannel(client),
		session.WithEventHandler(func(e events.Event) {
			switch e.(type) {
			case events.AnimationBatchAppended, events.AnimationUnitPulled:
				touch()
			}
		}),
		session.WithOnConnectionStateChanged(func(state session.ConnectionState) {
			if state == session.Connected {
				connectedOnce.Do(func() { close(connected) })
			}
		}),
	)...)
	defer s.Close()

	if err := s.Start(ctx); err != nil {
		return err
	}
	go func() { _ = client.Run(ctx) }()

	select {
	case <-connected:
	case <-time.After(connectTimeout):
		return fmt.Errorf("%w at %s", errNeverConnected, cfg.URL)
	case <-ctx.Done():
		return ctx.Err()
	}

	var outMu sync.Mutex
	printf := func(format string, args ...any) {
		outMu.Lock()
		defer outMu.Unlock()
		fmt.Fprintf(out, format, args...)
	}

	profile := termenv.NewOutput(out).ColorProfile()
	wordStyle := profile.String().Bold().Foreground(profile.Color("#818cf8"))
	errorStyle := profile.String().Foreground(profile.Color("#fb7185"))

	renderer := session.RendererFunc(func(ctx context.Context, label string, _ json.RawMessage, pacing session.Pacing) error {
		printf("%s\n", wordStyle.Styled(label))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opts.hold(pacing)):
		}
		touch()
		return nil
	})

	played := make(chan error, 1)
	go func() {
		played <- session.Play(ctx, s, renderer, session.WithPollInterval(cfg.PollInterval))
	}()

	scanner := bufio.NewScanner(in)
	for {
		if opts.prompt {
			printf("> ")
		}
		if !scanner.Scan() {
			break
		}
		if err := s.Dispatch(ctx, scanner.Text()); err != nil {
			if errors.Is(err, session.ErrEmptyInput) {
				continue
			}
			printf("%s\n", errorStyle.Styled(err.Error()))
			continue
		}
		touch()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	waitIdle(ctx, s, &lastActivity, opts.idleTimeout)
	cancel()
	if err := <-played; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// waitIdle blocks until the queue is empty and nothing happened for idle.
func waitIdle(ctx context.Context, s *session.Session, lastActivity *atomic.Int64, idle time.Duration) {
	ticker := time.NewTicker(idle / 10)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			quiet := time.Since(time.Unix(0, lastActivity.Load()))
			if s.QueueLen() == 0 && quiet >= idle {
				return
			}
		}
	}
}
