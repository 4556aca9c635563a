package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/snippetexec/runtime/backend/worker"
)

var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Run one snippet received on stdin (internal)",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return worker.Serve(cmd.Context(), os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
