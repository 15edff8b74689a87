package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"finrecon/internal/logger"
	"finrecon/internal/statement"
	"finrecon/pkg/models"
)

var statementCmd = &cobra.Command{
	Use:   "statement [file]",
	Short: "Parse a bank statement file and print its transactions",
	Long: `Parse one bank statement (PDF, XLSX, XLS or CSV) and print the extracted
transactions with credit/debit totals. Rows that do not parse as
transactions are dropped silently, matching server behavior.`,
	Example: `  # Parse a CSV statement
  finrecon statement statement.csv

  # Parse a PDF statement to a JSON file
  finrecon statement statement.pdf -o transactions.json`,
	Args: cobra.ExactArgs(1),
	RunE: runStatement,
}

type statementOutput struct {
	FileName     string               `json:"file_name"`
	Transactions []models.Transaction `json:"transactions"`
	Count        int                  `json:"count"`
	TotalCredits float64              `json:"total_credits"`
	TotalDebits  float64              `json:"total_debits"`
}

func init() {
	rootCmd.AddCommand(statementCmd)

	statementCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
}

func runStatement(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("statement-cmd")

	outputPath, _ := cmd.Flags().GetString("output")
	filePath := args[0]

	if !statement.Supported(filePath) {
		return fmt.Errorf("unsupported statement format %q", filepath.Ext(filePath))
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", filePath, err)
	}

	txs, err := statement.NewParser().Parse(data, filepath.Base(filePath))
	if err != nil {
		return err
	}
	credits, debits := statement.Totals(txs)

	log.Info().
		Str("file", filePath).
		Int("transactions", len(txs)).
		Msg("Statement parsed")

	return writeJSON(statementOutput{
		FileName:     filepath.Base(filePath),
		Transactions: txs,
		Count:        len(txs),
		TotalCredits: credits,
		TotalDebits:  debits,
	}, outputPath)
}
