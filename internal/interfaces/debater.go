package interfaces

import (
	"context"

	"harvest-advisor/internal/types"
)

// Debater runs a full multi-round negotiation over a set of positions and
// returns the finalized, internally consistent session. Either a complete
// session or an error is returned, never a half-built session.
type Debater interface {
	Run(ctx context.Context, positions []types.Position, marketContext string) (*types.DebateSession, error)
}
