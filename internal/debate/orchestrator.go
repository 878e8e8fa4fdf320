package debate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"harvest-advisor/internal/logger"
	"harvest-advisor/internal/trace"
	"harvest-advisor/internal/types"
)

// debater drives the round loop. It holds configuration and backends only;
// all per-session state lives in local variables, so independent sessions can
// run concurrently against the same debater.
type debater struct {
	maxRounds int
	agents    []agentReasoner
	evaluator supervisorEvaluator
}

// Run executes the full negotiation. It returns either a finalized,
// internally consistent session or an error, never a half-built session.
func (d *debater) Run(ctx context.Context, positions []types.Position, marketContext string) (*types.DebateSession, error) {
	ctx, span := trace.StartSpan(ctx, "debate.Run")
	defer span.End()

	eligible, err := eligibleSet(positions)
	if err != nil {
		return nil, err
	}

	startedAt := time.Now().UTC()
	session := &types.DebateSession{
		SessionID:     sessionID(startedAt),
		Positions:     eligible,
		FinalStrategy: map[string]types.Recommendation{},
		StartedAt:     startedAt.Format(time.RFC3339),
	}

	if len(eligible) == 0 {
		session.FinalStatus = types.NoEligiblePositions
		session.SupervisorConclusion = "No loss-eligible positions supplied; nothing to debate."
		session.EndedAt = time.Now().UTC().Format(time.RFC3339)
		logger.Info(ctx, "Debate skipped, no eligible positions", "session_id", session.SessionID)
		return session, nil
	}

	logger.Info(ctx, "Debate session started",
		"session_id", session.SessionID,
		"positions", len(eligible),
		"max_rounds", d.maxRounds,
	)

	var sessionStatements []types.AgentStatement
	cancelled := false

	for roundNumber := 1; roundNumber <= d.maxRounds; roundNumber++ {
		roundCtx, roundSpan := trace.StartSpan(ctx, fmt.Sprintf("debate.round.%d", roundNumber))

		roundStatements, ok := d.runRound(roundCtx, roundNumber, eligible, sessionStatements, marketContext)
		if !ok {
			// Cancelled mid-round: the partial round is discarded, never
			// persisted. Finalize from what completed.
			roundSpan.End()
			cancelled = true
			break
		}

		status, agreements, disagreements, feedback := d.evaluator.evaluate(
			roundCtx, roundNumber, roundStatements, session.Rounds)

		round := types.DebateRound{
			RoundNumber:        roundNumber,
			Statements:         roundStatements,
			ConsensusStatus:    status,
			Agreements:         agreements,
			Disagreements:      disagreements,
			SupervisorFeedback: feedback,
		}
		session.Rounds = append(session.Rounds, round)
		sessionStatements = append(sessionStatements, roundStatements...)

		logger.Consensus(roundCtx, roundNumber, string(status), len(agreements), len(disagreements),
			"session_id", session.SessionID)
		roundSpan.End()

		if status == types.ConsensusFull {
			session.FinalStatus = types.ConsensusReached
			break
		}
		if roundNumber == d.maxRounds {
			session.FinalStatus = types.MaxRoundsReached
		}
	}

	if cancelled || session.FinalStatus == "" {
		session.FinalStatus = types.MaxRoundsReached
	}

	if err := d.finalize(session, eligible); err != nil {
		return nil, err
	}

	session.TotalRounds = len(session.Rounds)
	session.EndedAt = time.Now().UTC().Format(time.RFC3339)

	logger.Info(ctx, "Debate session finished",
		"session_id", session.SessionID,
		"final_status", string(session.FinalStatus),
		"rounds", session.TotalRounds,
	)
	return session, nil
}

// runRound collects one statement per persona per position, in the fixed
// persona order with positions nested inside, so every later statement sees
// the earlier ones. ok is false when the context was cancelled mid-round.
func (d *debater) runRound(ctx context.Context, roundNumber int, positions []types.Position, sessionStatements []types.AgentStatement, marketContext string) ([]types.AgentStatement, bool) {
	roundStatements := make([]types.AgentStatement, 0, len(d.agents)*len(positions))

	for i := range d.agents {
		agent := &d.agents[i]
		for _, pos := range positions {
			if ctx.Err() != nil {
				logger.Warn(ctx, "Debate cancelled mid-round, discarding partial round",
					"round", roundNumber, "statements_collected", len(roundStatements))
				return nil, false
			}

			prior := make([]types.AgentStatement, 0, len(sessionStatements)+len(roundStatements))
			prior = append(prior, sessionStatements...)
			prior = append(prior, roundStatements...)

			stmt := agent.produceStatement(ctx, pos, roundNumber, prior, marketContext)
			roundStatements = append(roundStatements, stmt)

			logger.Statement(ctx, string(stmt.AgentID), stmt.PositionSymbol,
				string(stmt.Recommendation), stmt.Confidence, roundNumber)
		}
	}
	if ctx.Err() != nil {
		// Cancelled after the last statement but before supervisor
		// evaluation: the round never froze, discard it.
		return nil, false
	}
	return roundStatements, true
}

// finalize derives the per-symbol strategy and the supervisor conclusion.
// Every eligible position gets exactly one entry.
func (d *debater) finalize(session *types.DebateSession, eligible []types.Position) error {
	if len(session.Rounds) == 0 {
		// Cancelled before any round completed: conservative KEEP across the
		// board, so the completeness guarantee still holds.
		for _, p := range eligible {
			session.FinalStrategy[p.Symbol] = types.Keep
		}
		session.SupervisorConclusion = fmt.Sprintf(
			"Session ended before any debate round completed; defaulting all %d position(s) to KEEP.", len(eligible))
		return nil
	}

	last := session.Rounds[len(session.Rounds)-1]
	tallies := tallyBySymbol(last.Statements)
	bySymbol := map[string]symbolTally{}
	for _, t := range tallies {
		bySymbol[t.symbol] = t
	}

	for _, p := range eligible {
		t, ok := bySymbol[p.Symbol]
		if !ok {
			return fmt.Errorf("internal error: no statements for symbol %s in round %d", p.Symbol, last.RoundNumber)
		}
		session.FinalStrategy[p.Symbol] = decide(t, session.FinalStatus)
	}

	session.SupervisorConclusion = conclusion(session, last)
	return nil
}

// decide picks the final recommendation for one symbol from the terminal
// round's tally. With full consensus the unanimous side wins (the strongest
// harvest variant when the side mixes HARVEST and PRIORITY_HARVEST);
// otherwise it is a confidence-weighted majority vote with ties going to
// KEEP, the conservative default.
func decide(t symbolTally, finalStatus types.FinalStatus) types.Recommendation {
	if finalStatus == types.ConsensusReached || t.agreed() {
		if t.harvestVotes == 0 {
			return types.Keep
		}
		if t.priorityVotes > 0 {
			return types.PriorityHarvest
		}
		return types.Harvest
	}

	harvestWeight := t.harvestConf * float64(t.harvestVotes)
	keepWeight := t.keepConf * float64(t.keepVotes)
	if harvestWeight > keepWeight {
		if t.priorityVotes > 0 && t.harvestConf > 70 {
			return types.PriorityHarvest
		}
		return types.Harvest
	}
	return types.Keep
}

func conclusion(session *types.DebateSession, last types.DebateRound) string {
	harvestCount := 0
	keepCount := 0
	var harvestLoss, harvestSaving float64
	lossBySymbol := map[string]types.Position{}
	for _, p := range session.Positions {
		lossBySymbol[p.Symbol] = p
	}
	for sym, rec := range session.FinalStrategy {
		if rec.HarvestSide() {
			harvestCount++
			harvestLoss += lossBySymbol[sym].LossAmount
			harvestSaving += lossBySymbol[sym].TaxSavingEstimate
		} else {
			keepCount++
		}
	}

	var b strings.Builder
	switch session.FinalStatus {
	case types.ConsensusReached:
		fmt.Fprintf(&b, "Full consensus reached in round %d. ", last.RoundNumber)
	default:
		fmt.Fprintf(&b, "Round limit reached after round %d with %d symbol(s) agreed and %d disputed. ",
			last.RoundNumber, len(last.Agreements), len(last.Disagreements))
	}
	fmt.Fprintf(&b, "Final strategy: harvest %d position(s) realizing $%.0f in losses (estimated tax saving $%.0f), keep %d position(s).",
		harvestCount, harvestLoss, harvestSaving, keepCount)
	return b.String()
}

// eligibleSet validates the supplied positions and filters to losing lots.
// Validation failures are caller mistakes and fail the session up front.
func eligibleSet(positions []types.Position) ([]types.Position, error) {
	seen := map[string]bool{}
	eligible := make([]types.Position, 0, len(positions))
	for _, p := range positions {
		if p.Symbol == "" {
			return nil, fmt.Errorf("position with empty symbol supplied to debate")
		}
		if seen[p.Symbol] {
			return nil, fmt.Errorf("duplicate symbol '%s' supplied to debate", p.Symbol)
		}
		seen[p.Symbol] = true
		if p.LossAmount > 0 {
			eligible = append(eligible, p)
		}
	}
	return eligible, nil
}

func sessionID(t time.Time) string {
	return t.Format("20060102_150405") + fmt.Sprintf("_%03d", t.Nanosecond()/1e6)
}
