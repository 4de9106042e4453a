package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kosarica/quote-service/internal/export"
)

var (
	exportSubmission string
	exportOut        string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a submission to an Excel workbook",
	Long: `Write a submission's totals, every package quote and its edit history to an
xlsx workbook with one sheet each.`,
	Example: `  quote-service export --submission 6f1c... --out quote.xlsx`,
	RunE:    runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportSubmission, "submission", "", "Submission ID (required)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default <submission>.xlsx)")
	_ = exportCmd.MarkFlagRequired("submission")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p := newPipeline()

	sub, err := p.Get(ctx, exportSubmission)
	if err != nil {
		return fmt.Errorf("failed to load submission: %w", err)
	}
	history, err := p.History(ctx, exportSubmission)
	if err != nil {
		return fmt.Errorf("failed to load edit history: %w", err)
	}

	out := exportOut
	if out == "" {
		out = sub.ID + ".xlsx"
	}
	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := export.WriteWorkbook(file, sub, history); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", out, err)
	}

	logger.Info().
		Str("submission", sub.ID).
		Str("status", string(sub.Status)).
		Int("edits", len(history)).
		Str("file", out).
		Msg("Submission exported")
	return nil
}
