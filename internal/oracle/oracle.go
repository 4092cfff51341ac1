package oracle

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Quote carries the latest price for an asset and, when the source can
// provide it, the reference price at the start of the requested window.
// A zero Reference means the source could not produce one; the engine
// treats that as "no change".
type Quote struct {
	Latest    decimal.Decimal
	Reference decimal.Decimal
}

// ChangePct computes the percentage move from the reference price,
// returning zero when no usable reference exists.
func (q Quote) ChangePct() decimal.Decimal {
	if q.Reference.Sign() <= 0 {
		return decimal.Zero
	}
	return q.Latest.Sub(q.Reference).Div(q.Reference).Mul(decimal.NewFromInt(100))
}

// Oracle retrieves current and window-reference prices for an asset.
type Oracle interface {
	GetQuote(ctx context.Context, assetID string, window time.Duration) (Quote, error)
}
