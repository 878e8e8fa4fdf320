package marketdata

import (
	"context"

	"github.com/piquette/finance-go/quote"

	"harvest-advisor/internal/logger"
	"harvest-advisor/internal/types"
)

// yahooProvider refreshes current prices from Yahoo Finance quotes.
type yahooProvider struct{}

// Refresh fetches a live quote per symbol and returns positions with updated
// current prices. A failed quote keeps the position's supplied price; the
// advisory pipeline should not die because one ticker is unavailable.
func (y *yahooProvider) Refresh(ctx context.Context, positions []types.Position) ([]types.Position, error) {
	updated := make([]types.Position, len(positions))
	copy(updated, positions)

	for i := range updated {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q, err := quote.Get(updated[i].Symbol)
		if err != nil || q == nil {
			logger.Warn(ctx, "Quote refresh failed, keeping supplied price",
				"symbol", updated[i].Symbol, "error", err)
			continue
		}
		if q.RegularMarketPrice > 0 {
			logger.Debug(ctx, "Quote refreshed",
				"symbol", updated[i].Symbol,
				"old_price", updated[i].CurrentPrice,
				"new_price", q.RegularMarketPrice,
			)
			updated[i].CurrentPrice = q.RegularMarketPrice
		}
	}
	return updated, nil
}
