package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/koscakluka/signspell/internal/config"
	"github.com/koscakluka/signspell/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfg        config.Config
	closeLog   = func() error { return nil }
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "signspell",
	Short: "signspell plays sign language animations for typed text",
	Long: `signspell sends text to a translator service and plays back the sign
language animations it streams in return, one word at a time.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configPath, cmd.Flags()); err != nil {
			return err
		}
		return setupLogging(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config file")
	rootCmd.PersistentFlags().String("url", "", "Translator websocket URL")
	rootCmd.PersistentFlags().Int("pacing", 0, "Playback pacing, 20 to 100")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file instead of stderr")
}

func setupLogging(cmd *cobra.Command) error {
	level := logging.Level(cfg.Log.Debug)

	// the TUI owns the terminal, so it only logs when a file is given
	if cfg.Log.File == "" && cmd.Annotations["terminal"] == "exclusive" {
		logging.Install(logging.NewNop())
		return nil
	}

	logger, closeFn, err := logging.Open(cfg.Log.File, level)
	if err != nil {
		return err
	}
	closeLog = closeFn
	logging.Install(logger)
	slog.Debug("configuration loaded", "url", cfg.URL, "pacing", cfg.Pacing)
	return nil
}
