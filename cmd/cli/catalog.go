package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kosarica/quote-service/internal/catalog"
	"github.com/kosarica/quote-service/internal/database"
)

var catalogFile string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Validate and import catalog files",
}

var catalogValidateCmd = &cobra.Command{
	Use:     "validate",
	Short:   "Check that every reference in a catalog file resolves",
	Example: `  quote-service catalog validate --file catalog.yaml`,
	RunE:    runCatalogValidate,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Upsert a catalog file into Postgres",
	Long: `Validate a catalog file and upsert it in one transaction. Every service in the
file replaces its packages, questions, rules, discounts and size prices.
Running servers drop their cached copies when the transaction commits.`,
	Example: `  quote-service catalog import --file catalog.yaml`,
	RunE:    runCatalogImport,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogValidateCmd, catalogImportCmd)

	catalogCmd.PersistentFlags().StringVar(&catalogFile, "file", "", "Catalog YAML file (required)")
	_ = catalogCmd.MarkPersistentFlagRequired("file")
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	f, err := catalog.ReadFile(catalogFile)
	if err != nil {
		var invalid *catalog.InvalidCatalogError
		if errors.As(err, &invalid) {
			for _, p := range invalid.Problems {
				fmt.Printf("  - %s\n", p)
			}
		}
		return err
	}

	questions := 0
	for _, s := range f.Services {
		questions += len(s.Questions)
	}
	fmt.Printf("Catalog OK: %d services, %d questions, %d locations, %d add-ons, %d coupons\n",
		len(f.Services), questions, len(f.Locations), len(f.AddOns), len(f.Coupons))
	return nil
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	f, err := catalog.ReadFile(catalogFile)
	if err != nil {
		return err
	}

	repo := database.NewCatalogRepository(database.Pool())
	if err := repo.Import(cmd.Context(), f); err != nil {
		return fmt.Errorf("failed to import catalog: %w", err)
	}

	logger.Info().
		Str("file", catalogFile).
		Int("services", len(f.Services)).
		Msg("Catalog imported")
	return nil
}
