// Schema Generator
//
// Generates JSON Schema files for the quote service API payloads so clients
// can validate requests and responses without reading Go sources.
//
// Usage:
//
//	go run ./cmd/schema-gen
//
// Output:
//
//	./schemas/quoting.json
//	./schemas/catalog.json
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"

	"github.com/kosarica/quote-service/internal/handlers"
	"github.com/kosarica/quote-service/internal/pricing"
	"github.com/kosarica/quote-service/internal/submission"
)

// SchemaGroup represents a group of related schemas
type SchemaGroup struct {
	Name   string
	Types  []any
	Output string
}

func main() {
	outputDir := "./schemas"
	if len(os.Args) > 1 {
		outputDir = os.Args[1]
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	groups := []SchemaGroup{
		{
			Name: "quoting",
			Types: []any{
				// Request types
				submission.CreateRequest{},
				handlers.AddServiceRequest{},
				handlers.ApplyResponsesRequest{},
				pricing.ResponseInput{},
				submission.PackageChoice{},
				submission.SubmitRequest{},
				submission.EditRequest{},
				handlers.DeclineRequest{},
				// Response types
				submission.Submission{},
				submission.ServiceSelection{},
				pricing.Quote{},
				pricing.Totals{},
				handlers.QuotesResponse{},
				handlers.HistoryResponse{},
				submission.EditResult{},
				handlers.ErrorResponse{},
			},
			Output: "quoting.json",
		},
		{
			Name: "catalog",
			Types: []any{
				handlers.InvalidateRequest{},
				handlers.CatalogHealthResponse{},
				handlers.HealthResponse{},
			},
			Output: "catalog.json",
		},
	}

	for _, group := range groups {
		schema := generateGroupSchema(group)
		outputPath := filepath.Join(outputDir, group.Output)

		if err := writeSchema(schema, outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", group.Output, err)
			os.Exit(1)
		}

		fmt.Printf("Generated %s\n", outputPath)
	}

	fmt.Println("Schema generation complete!")
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// mapTypes describes types whose JSON form differs from their Go layout.
// Money is encoded as a decimal string.
func mapTypes(t reflect.Type) *jsonschema.Schema {
	if t == decimalType {
		return &jsonschema.Schema{
			Type:     "string",
			Pattern:  `^-?[0-9]+(\.[0-9]+)?$`,
			Examples: []any{"166.50"},
		}
	}
	return nil
}

// generateGroupSchema creates a combined schema with all types in a group
func generateGroupSchema(group SchemaGroup) map[string]any {
	reflector := &jsonschema.Reflector{
		DoNotReference: false,
		ExpandedStruct: false,
		Mapper:         mapTypes,
	}

	// Create combined definitions
	definitions := make(map[string]any)

	for _, t := range group.Types {
		schema := reflector.Reflect(t)

		// Get the type name from the schema
		typeName := ""
		if schema.Ref != "" {
			// Extract type name from $ref like "#/$defs/BasketItem"
			typeName = filepath.Base(schema.Ref)
		}

		// Add all definitions from this type's schema
		for name, def := range schema.Definitions {
			definitions[name] = def
		}

		// If there's a main type, add it to definitions too
		if typeName != "" && schema.Definitions[typeName] != nil {
			definitions[typeName] = schema.Definitions[typeName]
		}
	}

	return map[string]any{
		"$schema":     "https://json-schema.org/draft/2020-12/schema",
		"$id":         fmt.Sprintf("https://kosarica.hr/schemas/quote-service/%s.json", group.Name),
		"title":       fmt.Sprintf("%s API Types", capitalize(group.Name)),
		"description": fmt.Sprintf("JSON Schema for %s API types generated from Go structs", group.Name),
		"$defs":       definitions,
	}
}

// writeSchema writes a schema to a JSON file
func writeSchema(schema map[string]any, path string) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
