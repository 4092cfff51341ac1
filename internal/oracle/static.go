package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Static serves fixed quotes, used by the simulate command and tests.
type Static struct {
	quotes map[string]Quote
}

// NewStatic builds a fixture oracle; asset ids are case-insensitive.
func NewStatic(quotes map[string]Quote) *Static {
	normalized := make(map[string]Quote, len(quotes))
	for asset, quote := range quotes {
		normalized[strings.ToUpper(asset)] = quote
	}
	return &Static{quotes: normalized}
}

// GetQuote returns the fixture quote regardless of window.
func (s *Static) GetQuote(ctx context.Context, assetID string, window time.Duration) (Quote, error) {
	quote, ok := s.quotes[strings.ToUpper(assetID)]
	if !ok {
		return Quote{}, fmt.Errorf("no static quote for asset %q", assetID)
	}
	return quote, nil
}

var _ Oracle = (*Static)(nil)
