package debateobs

import (
	"context"
	"time"

	"harvest-advisor/internal/interfaces"
	"harvest-advisor/internal/logger"
	"harvest-advisor/internal/trace"
	"harvest-advisor/internal/types"
)

// observableDebater wraps a Debater with logging and tracing
type observableDebater struct {
	inner interfaces.Debater
}

var _ interfaces.Debater = (*observableDebater)(nil)

// Wrap wraps a debate orchestrator with observability middleware
func Wrap(inner interfaces.Debater) interfaces.Debater {
	return &observableDebater{inner: inner}
}

func (od *observableDebater) Run(ctx context.Context, positions []types.Position, marketContext string) (*types.DebateSession, error) {
	ctx, span := trace.StartSpan(ctx, "debate.session")
	defer span.End()

	// Skip(1) so the log record points at the actual caller, not this wrapper
	logger.InfoSkip(ctx, 1, "Starting debate session",
		"positions", len(positions),
		"market_context_length", len(marketContext),
	)

	start := time.Now()
	session, err := od.inner.Run(ctx, positions, marketContext)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Debate session failed", err,
			"positions", len(positions),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Debate session completed",
		"session_id", session.SessionID,
		"final_status", string(session.FinalStatus),
		"rounds", session.TotalRounds,
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
	return session, nil
}
