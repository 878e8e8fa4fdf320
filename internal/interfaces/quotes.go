package interfaces

import (
	"context"

	"harvest-advisor/internal/types"
)

// QuoteProvider refreshes current prices before portfolio intake. Positions
// are value types; Refresh returns updated copies and leaves the input alone.
type QuoteProvider interface {
	Refresh(ctx context.Context, positions []types.Position) ([]types.Position, error)
}
