package llmobs

import (
	"context"

	"harvest-advisor/internal/interfaces"
	"harvest-advisor/internal/logger"
	"harvest-advisor/internal/trace"
	"harvest-advisor/internal/types"
)

// observableReasoner wraps a Reasoner with logging and tracing
type observableReasoner struct {
	backend interfaces.Reasoner
}

var _ interfaces.Reasoner = (*observableReasoner)(nil)

// WrapReasoner wraps a reasoning backend with observability middleware
func WrapReasoner(backend interfaces.Reasoner) interfaces.Reasoner {
	return &observableReasoner{backend: backend}
}

func (or *observableReasoner) Generate(ctx context.Context, persona types.Persona, position types.Position, roundContext string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Generate")
	defer span.End()

	// Skip(1) so the log record points at the actual caller, not this wrapper
	logger.DebugSkip(ctx, 1, "Requesting agent reasoning",
		"persona", string(persona),
		"symbol", position.Symbol,
		"context_length", len(roundContext),
	)

	raw, err := or.backend.Generate(ctx, persona, position, roundContext)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Agent reasoning failed", err,
			"persona", string(persona),
			"symbol", position.Symbol,
		)
		return "", err
	}

	logger.DebugSkip(ctx, 1, "Agent reasoning received",
		"persona", string(persona),
		"symbol", position.Symbol,
		"response_length", len(raw),
	)
	return raw, nil
}

// observableJudge wraps a SupervisorJudge with logging and tracing
type observableJudge struct {
	backend interfaces.SupervisorJudge
}

var _ interfaces.SupervisorJudge = (*observableJudge)(nil)

// WrapJudge wraps a supervisor backend with observability middleware
func WrapJudge(backend interfaces.SupervisorJudge) interfaces.SupervisorJudge {
	return &observableJudge{backend: backend}
}

func (oj *observableJudge) Judge(ctx context.Context, statements []types.AgentStatement, history []types.DebateRound) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Judge")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Requesting supervisor judgement",
		"statements", len(statements),
		"rounds_completed", len(history),
	)

	raw, err := oj.backend.Judge(ctx, statements, history)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Supervisor judgement failed", err,
			"statements", len(statements),
		)
		return "", err
	}

	return raw, nil
}
