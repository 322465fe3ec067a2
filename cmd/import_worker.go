/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/portfolio-service/internal/bootstrap"
	"github.com/spf13/cobra"
)

// importWorkerCmd represents the import-worker command
var importWorkerCmd = &cobra.Command{
	Use:   "import-worker",
	Short: "Start the market import worker",
	Long: `The market import worker consumes queued import requests, fetches the
venue's market list, and reconciles it against the stored markets in a
single transaction.`,
	Run: bootstrap.StartImportWorker,
}

func init() {
	rootCmd.AddCommand(importWorkerCmd)
}
