package interfaces

import (
	"context"

	"harvest-advisor/internal/types"
)

// SupervisorJudge is the external capability behind supervisor evaluation.
// Judge returns raw feedback text for the round; a failed or unparseable call
// degrades the round to ConsensusNone with generic feedback.
type SupervisorJudge interface {
	Judge(ctx context.Context, statements []types.AgentStatement, history []types.DebateRound) (string, error)
}
