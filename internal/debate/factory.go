package debate

import (
	"fmt"
	"time"

	"harvest-advisor/internal/interfaces"
	"harvest-advisor/internal/store"
	"harvest-advisor/internal/types"
)

// New builds the debate orchestrator from configuration and backends. The
// reasoner and judge backends are usually the same client, wrapped separately
// by the caller.
func New(cfg *store.Config, reasoner interfaces.Reasoner, judge interfaces.SupervisorJudge) (interfaces.Debater, error) {
	if cfg.Debate.MaxRounds < 1 {
		return nil, fmt.Errorf("debate requires max_rounds >= 1, got %d", cfg.Debate.MaxRounds)
	}
	if reasoner == nil {
		return nil, fmt.Errorf("debate requires a reasoning backend")
	}
	if judge == nil {
		return nil, fmt.Errorf("debate requires a supervisor backend")
	}

	callTimeout := time.Duration(cfg.Debate.CallTimeoutSeconds) * time.Second

	personas := types.DebateOrder()
	agents := make([]agentReasoner, 0, len(personas))
	for _, persona := range personas {
		agents = append(agents, agentReasoner{
			persona:     persona,
			backend:     reasoner,
			callTimeout: callTimeout,
		})
	}

	return &debater{
		maxRounds: cfg.Debate.MaxRounds,
		agents:    agents,
		evaluator: supervisorEvaluator{
			backend:     judge,
			callTimeout: callTimeout,
		},
	}, nil
}

var _ interfaces.Debater = (*debater)(nil)
