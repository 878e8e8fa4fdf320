package debate

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"harvest-advisor/internal/interfaces"
	"harvest-advisor/internal/logger"
	"harvest-advisor/internal/types"
)

// minRoundsForPartial gates partial consensus: an early-round majority is a
// snap vote, not a negotiated outcome, so PARTIAL is only reported from round
// three onward.
const minRoundsForPartial = 3

const degradedFeedback = "Supervisor unavailable; insufficient information to assess consensus. Continuing the debate."

// supervisorEvaluator scores round-level agreement. The status and the
// agreement/disagreement breakdown are computed deterministically from the
// statements; the judge backend only contributes narrative feedback, and its
// failure degrades the round to NONE.
type supervisorEvaluator struct {
	backend     interfaces.SupervisorJudge
	callTimeout time.Duration
}

// symbolTally is the per-symbol vote breakdown for one round.
type symbolTally struct {
	symbol        string
	harvestVotes  int
	priorityVotes int
	keepVotes     int
	harvestConf   float64 // confidence-weighted average, harvest side
	keepConf      float64
}

func (t symbolTally) agreed() bool {
	return t.harvestVotes == 0 || t.keepVotes == 0
}

// confidenceSplit is the absolute gap between the two sides' weighted average
// confidence; the widest split is the next round's suggested focus.
func (t symbolTally) confidenceSplit() float64 {
	return math.Abs(t.harvestConf - t.keepConf)
}

func (s *supervisorEvaluator) evaluate(ctx context.Context, roundNumber int, statements []types.AgentStatement, history []types.DebateRound) (types.ConsensusStatus, map[string]string, map[string]string, string) {
	tallies := tallyBySymbol(statements)

	agreements := map[string]string{}
	disagreements := map[string]string{}
	agreedCount := 0
	focus := ""
	widest := -1.0

	for _, t := range tallies {
		if t.agreed() {
			agreedCount++
			agreements[t.symbol] = describeAgreement(t)
			continue
		}
		disagreements[t.symbol] = describeSplit(t)
		if t.confidenceSplit() > widest {
			widest = t.confidenceSplit()
			focus = t.symbol
		}
	}

	status := types.ConsensusNone
	switch {
	case len(tallies) > 0 && agreedCount == len(tallies):
		status = types.ConsensusFull
	case roundNumber >= minRoundsForPartial && agreedCount*2 > len(tallies):
		status = types.ConsensusPartial
	}

	feedback, ok := s.judgeFeedback(ctx, statements, history)
	if !ok {
		// Backend judgement failed: the round cannot claim consensus.
		return types.ConsensusNone, agreements, disagreements, degradedFeedback
	}
	if status != types.ConsensusFull && focus != "" {
		feedback = feedback + fmt.Sprintf(" Focus next round on %s (widest confidence split).", focus)
	}

	return status, agreements, disagreements, feedback
}

func (s *supervisorEvaluator) judgeFeedback(ctx context.Context, statements []types.AgentStatement, history []types.DebateRound) (string, bool) {
	callCtx := ctx
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	raw, err := s.backend.Judge(callCtx, statements, history)
	if err != nil {
		logger.Warn(ctx, "Supervisor backend failed, degrading round to NONE", "error", err)
		return "", false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		logger.Warn(ctx, "Supervisor backend returned empty feedback, degrading round to NONE")
		return "", false
	}
	return raw, true
}

// tallyBySymbol groups a round's statements by symbol in first-seen order so
// the breakdown is deterministic for a fixed statement sequence.
func tallyBySymbol(statements []types.AgentStatement) []symbolTally {
	var order []string
	harvestSum := map[string]float64{}
	keepSum := map[string]float64{}

	tallies := map[string]*symbolTally{}
	for _, stmt := range statements {
		t, seen := tallies[stmt.PositionSymbol]
		if !seen {
			t = &symbolTally{symbol: stmt.PositionSymbol}
			tallies[stmt.PositionSymbol] = t
			order = append(order, stmt.PositionSymbol)
		}
		if stmt.Recommendation.HarvestSide() {
			t.harvestVotes++
			if stmt.Recommendation == types.PriorityHarvest {
				t.priorityVotes++
			}
			harvestSum[stmt.PositionSymbol] += stmt.Confidence
		} else {
			t.keepVotes++
			keepSum[stmt.PositionSymbol] += stmt.Confidence
		}
	}

	out := make([]symbolTally, 0, len(order))
	for _, sym := range order {
		t := tallies[sym]
		if t.harvestVotes > 0 {
			t.harvestConf = harvestSum[sym] / float64(t.harvestVotes)
		}
		if t.keepVotes > 0 {
			t.keepConf = keepSum[sym] / float64(t.keepVotes)
		}
		out = append(out, *t)
	}
	return out
}

func describeAgreement(t symbolTally) string {
	if t.keepVotes > 0 {
		return fmt.Sprintf("all %d agents agree to KEEP (avg confidence %.0f%%)", t.keepVotes, t.keepConf)
	}
	desc := fmt.Sprintf("all %d agents agree to HARVEST (avg confidence %.0f%%)", t.harvestVotes, t.harvestConf)
	if t.priorityVotes > 0 {
		desc += fmt.Sprintf(", %d of them PRIORITY_HARVEST", t.priorityVotes)
	}
	return desc
}

func describeSplit(t symbolTally) string {
	return fmt.Sprintf("split %d harvest / %d keep (harvest avg confidence %.0f%%, keep avg confidence %.0f%%)",
		t.harvestVotes, t.keepVotes, t.harvestConf, t.keepConf)
}
