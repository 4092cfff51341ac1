package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"tradepilot/internal/oracle"
)

var simulatePrices []string

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one poll cycle with fixture prices and a simulated executor",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(simulatePrices) == 0 {
			return fmt.Errorf("at least one --price is required")
		}

		quotes, err := parseQuotes(simulatePrices)
		if err != nil {
			return err
		}

		return getApp().SimulateCycle(cmd.Context(), quotes)
	},
}

// parseQuotes turns ASSET=latest:reference pairs into fixture quotes.
// The reference part is optional.
func parseQuotes(values []string) (map[string]oracle.Quote, error) {
	quotes := make(map[string]oracle.Quote, len(values))
	for _, value := range values {
		asset, prices, ok := strings.Cut(value, "=")
		if !ok || asset == "" {
			return nil, fmt.Errorf("invalid --price value %q, expected ASSET=latest:reference", value)
		}

		latestStr, referenceStr, _ := strings.Cut(prices, ":")
		latest, err := decimal.NewFromString(latestStr)
		if err != nil {
			return nil, fmt.Errorf("invalid latest price in %q: %w", value, err)
		}

		quote := oracle.Quote{Latest: latest}
		if referenceStr != "" {
			reference, err := decimal.NewFromString(referenceStr)
			if err != nil {
				return nil, fmt.Errorf("invalid reference price in %q: %w", value, err)
			}
			quote.Reference = reference
		}

		quotes[strings.ToUpper(asset)] = quote
	}
	return quotes, nil
}

func init() {
	simulateCmd.Flags().StringArrayVar(&simulatePrices, "price", nil, "Fixture quote as ASSET=latest:reference (repeatable)")
}
