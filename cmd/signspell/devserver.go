package main

import (
	"github.com/koscakluka/signspell/internal/devserver"
	"github.com/spf13/cobra"
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Serve a local translator stub",
	Long: `Serves a websocket translator that fingerspells every word, except for a
small vocabulary of whole-word signs. Point the client at it with --url.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server := devserver.New(
			devserver.WithChunkSize(cfg.DevServer.ChunkSize),
			devserver.WithBatchDelay(cfg.DevServer.BatchDelay),
		)
		return server.ListenAndServe(cmd.Context(), cfg.DevServer.Addr)
	},
}

func init() {
	devserverCmd.Flags().String("addr", "", "Address to listen on")
	rootCmd.AddCommand(devserverCmd)
}
