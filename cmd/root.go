package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"finrecon/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "finrecon",
	Short: "Invoice extraction and bank reconciliation engine",
	Long: `finrecon extracts structured data from invoice files with per-field
confidence scores, parses bank statements, matches transactions to invoice
counterparties, and computes receivable/payable ledgers.

Run the HTTP server with "finrecon serve", or use the one-shot commands to
process a single invoice or statement file from the terminal.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
