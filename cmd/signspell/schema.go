package main

import (
	"fmt"

	"github.com/koscakluka/signspell/core/protocol"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the translator protocol",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := protocol.MarshalSchemas()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
