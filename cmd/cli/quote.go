package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/kosarica/quote-service/internal/catalog"
	"github.com/kosarica/quote-service/internal/pricing"
)

var (
	quoteCatalog   string
	quoteService   string
	quoteResponses string
	quoteSizeRange string
	quoteLocation  string
	quoteOutput    string
	quoteCurrency  string
	quoteLang      string
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price question responses against a catalog file",
	Long: `Validate a set of question responses for one service and print the quote of
every active package. The responses file is YAML or JSON holding a list of
responses in the same shape the HTTP API accepts.`,
	Example: `  quote-service quote --catalog catalog.yaml --service svc-clean --responses answers.yaml
  quote-service quote --catalog catalog.yaml --service svc-clean --responses answers.json \
    --size-range sr-large --location loc-north --output json`,
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVar(&quoteCatalog, "catalog", "", "Catalog YAML file (required)")
	quoteCmd.Flags().StringVar(&quoteService, "service", "", "Service ID (required)")
	quoteCmd.Flags().StringVar(&quoteResponses, "responses", "", "Responses file, YAML or JSON (required)")
	quoteCmd.Flags().StringVar(&quoteSizeRange, "size-range", "", "Size range ID")
	quoteCmd.Flags().StringVar(&quoteLocation, "location", "", "Location ID")
	quoteCmd.Flags().StringVar(&quoteOutput, "output", "table", "Output format: table or json")
	quoteCmd.Flags().StringVar(&quoteCurrency, "currency", "EUR", "ISO 4217 currency used for display")
	quoteCmd.Flags().StringVar(&quoteLang, "lang", "hr", "Language tag used for number formatting")
	_ = quoteCmd.MarkFlagRequired("catalog")
	_ = quoteCmd.MarkFlagRequired("service")
	_ = quoteCmd.MarkFlagRequired("responses")
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mem, err := catalog.LoadFile(quoteCatalog)
	if err != nil {
		return err
	}
	sc, err := mem.Service(ctx, quoteService)
	if err != nil {
		return fmt.Errorf("failed to load service %s: %w", quoteService, err)
	}

	var loc *catalog.Location
	if quoteLocation != "" {
		if loc, err = mem.Location(ctx, quoteLocation); err != nil {
			return fmt.Errorf("failed to load location %s: %w", quoteLocation, err)
		}
	}

	inputs, err := readResponses(quoteResponses)
	if err != nil {
		return err
	}

	responses, err := pricing.Validate(sc, inputs)
	if err != nil {
		return fmt.Errorf("responses rejected: %w", err)
	}

	set := pricing.GenerateQuotes(pricing.QuoteRequest{
		Catalog:     sc,
		Responses:   responses,
		SizeRangeID: quoteSizeRange,
		Location:    loc,
	})
	logger.Debug().
		Str("service", quoteService).
		Int("responses", len(responses)).
		Int("packages", len(set.Quotes)).
		Msg("Quotes generated")

	if quoteOutput == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(set.Quotes)
	}
	return printQuotes(sc, set)
}

// readResponses decodes a YAML or JSON list of responses. JSON is valid YAML.
func readResponses(path string) ([]pricing.ResponseInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read responses: %w", err)
	}
	var inputs []pricing.ResponseInput
	if err := yaml.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("failed to parse responses: %w", err)
	}
	return inputs, nil
}

func printQuotes(sc *catalog.ServiceCatalog, set pricing.QuoteSet) error {
	money, err := moneyFormatter(quoteCurrency, quoteLang)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PACKAGE\tSIZE\tADJUSTMENTS\tSURCHARGE\tTOTAL\tBID\tINCLUDES")
	for _, q := range set.Quotes {
		bid := ""
		if q.RequiresBid {
			bid = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			q.PackageName,
			money(q.SizePrice),
			money(q.QuestionAdjustments),
			money(q.SurchargeAmount),
			money(q.TotalPrice),
			bid,
			strings.Join(sc.FeatureNames(q.IncludedFeatures), ", "),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if set.RequiresBid {
		fmt.Println("\nAt least one package requires an on-site bid.")
	}
	return nil
}

// moneyFormatter returns a function rendering amounts in the given currency
// and locale.
func moneyFormatter(code, lang string) (func(decimal.Decimal) string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		return nil, fmt.Errorf("invalid currency %q: %w", code, err)
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("invalid language %q: %w", lang, err)
	}
	p := message.NewPrinter(tag)
	return func(d decimal.Decimal) string {
		return p.Sprint(currency.Symbol(unit.Amount(d.InexactFloat64())))
	}, nil
}
