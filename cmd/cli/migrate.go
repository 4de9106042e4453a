package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kosarica/quote-service/config"
	"github.com/kosarica/quote-service/internal/database"
)

var migratePrint bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Apply the quote service schema to the database named by DATABASE_URL. Every
statement is idempotent, so running it against an up to date database is a no-op.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migratePrint, "print", false, "Print the schema instead of applying it")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if migratePrint {
		fmt.Print(database.Schema())
		return nil
	}

	dsn := config.GetDatabaseURL()
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}
	if err := database.MigrateDSN(cmd.Context(), dsn); err != nil {
		return err
	}
	logger.Info().Msg("Schema applied")
	return nil
}
