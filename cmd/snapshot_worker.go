/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/portfolio-service/internal/bootstrap"
	"github.com/spf13/cobra"
)

// snapshotWorkerCmd represents the snapshot-worker command
var snapshotWorkerCmd = &cobra.Command{
	Use:   "snapshot-worker",
	Short: "Start the pnl snapshot worker",
	Long: `The pnl snapshot worker consumes queued snapshot requests and writes the
per-user daily valuation rows used by the pnl and chart endpoints.`,
	Run: bootstrap.StartSnapshotWorker,
}

func init() {
	rootCmd.AddCommand(snapshotWorkerCmd)
}
