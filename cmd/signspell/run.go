package main

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	session "github.com/koscakluka/signspell/core"
	"github.com/koscakluka/signspell/core/transport/socket"
	"github.com/koscakluka/signspell/internal/config"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:         "run",
	Short:       "Start the interactive client",
	Annotations: map[string]string{"terminal": "exclusive"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.RunE = runCmd.RunE
	rootCmd.Annotations = runCmd.Annotations
}

func runTUI(ctx context.Context, cfg config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := socket.NewClient(cfg.URL, socket.WithReconnectDelay(cfg.ReconnectDelay))
	defer client.Close()

	s := session.NewSession(append(cfg.SessionOptions(), session.WithChannel(client))...)
	defer s.Close()

	program := tea.NewProgram(newModel(ctx, s, cfg.PollInterval), tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := s.SubscribeConnectionState(func(state session.ConnectionState) {
		program.Send(connectionMsg(state))
	})
	defer unsubscribe()

	if err := s.Start(ctx); err != nil {
		return err
	}
	go func() { _ = client.Run(ctx) }()

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
