/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/portfolio-service/internal/bootstrap"
	"github.com/spf13/cobra"
)

// gatewayCmd represents the gateway command
var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the Portfolio Gateway service",
	Long: `The Portfolio Gateway exposes the portfolio HTTP API: market imports,
withdraw-info normalization, ecosystem token listing, and per-user pnl
reporting backed by daily valuation snapshots.`,
	Run: bootstrap.StartGateway,
}

func init() {
	rootCmd.AddCommand(gatewayCmd)
}
