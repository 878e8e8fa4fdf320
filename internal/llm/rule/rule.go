package rule

import (
	"context"
	"fmt"
	"strings"

	"harvest-advisor/internal/logger"
	"harvest-advisor/internal/types"
)

// Backend is a deterministic, arithmetic-only reasoning backend used when no
// LLM provider is configured. Each persona's bias is expressed as a weighting
// over the position's figures, so repeated runs over the same portfolio give
// identical debates.
type Backend struct{}

func NewBackend() *Backend {
	return &Backend{}
}

// Generate emits a response in the same POSITION/CONFIDENCE/KEY_POINTS text
// protocol the LLM backends use, so the statement parser is exercised on the
// exact same path.
func (b *Backend) Generate(ctx context.Context, persona types.Persona, position types.Position, roundContext string) (string, error) {
	var rec types.Recommendation
	var conf float64
	var points []string

	lossPct := position.LossPct()

	switch persona {
	case types.TaxOptimizer:
		rec = types.Harvest
		conf = 55 + lossPct*1.5 + position.TaxSavingEstimate/200
		points = []string{
			fmt.Sprintf("harvesting realizes a $%.0f deductible loss", position.LossAmount),
			fmt.Sprintf("estimated tax saving of $%.0f offsets capital gains", position.TaxSavingEstimate),
		}
		if position.TaxSavingEstimate >= 1000 && lossPct >= 15 {
			rec = types.PriorityHarvest
			points = append(points, "loss size warrants harvesting before year end")
		}

	case types.RiskManager:
		if lossPct >= 20 || position.LossAmount >= 5000 {
			rec = types.PriorityHarvest
			conf = 65 + lossPct/2
			points = []string{
				fmt.Sprintf("%.1f%% drawdown signals concentration risk", lossPct),
				"exiting caps further downside exposure",
			}
		} else {
			rec = types.Harvest
			conf = 58
			points = []string{
				fmt.Sprintf("moderate %.1f%% loss still worth trimming", lossPct),
				"redeploying frees risk budget",
			}
		}

	case types.MarketStrategist:
		momentum := momentumFor(roundContext, position.Symbol)
		switch momentum {
		case "POSITIVE":
			rec = types.Keep
			conf = 68
			points = []string{
				"positive momentum suggests a rebound is underway",
				"selling into strength forfeits the recovery",
			}
		case "NEGATIVE":
			rec = types.Harvest
			conf = 62
			points = []string{
				"negative momentum confirms the downtrend",
				"no technical support for holding through weakness",
			}
		default:
			rec = types.Keep
			conf = 42
			points = []string{
				"no clear momentum signal either way",
				"timing an exit without a trend is guesswork",
			}
		}

	case types.GrowthOptimizer:
		if lossPct > 50 {
			rec = types.Harvest
			conf = 55
			points = []string{
				fmt.Sprintf("a %.0f%% drawdown suggests the growth thesis is broken", lossPct),
			}
		} else {
			rec = types.Keep
			conf = 72 - lossPct/2
			points = []string{
				"fundamentals-driven drawdowns tend to recover",
				fmt.Sprintf("held %d days; selling now locks in the loss permanently", position.HoldingPeriodDays),
			}
			if position.HoldingPeriodDays >= 365 {
				points = append(points, "long-term holding with durable recovery potential")
			}
		}

	default:
		return "", fmt.Errorf("unknown persona %q", persona)
	}

	// Peer pressure: every opposing voice already on record for this symbol
	// shaves a little conviction. Keeps the debate capable of drifting toward
	// one side across rounds instead of restating round 1 forever.
	opposing := countOpposing(roundContext, position.Symbol, rec)
	conf -= float64(opposing) * 3

	if conf > 95 {
		conf = 95
	}
	if conf < 5 {
		conf = 5
	}

	logger.Debug(ctx, "Rule backend statement computed",
		"persona", string(persona), "symbol", position.Symbol,
		"recommendation", string(rec), "confidence", conf)

	var sb strings.Builder
	fmt.Fprintf(&sb, "POSITION: %s\n", rec)
	fmt.Fprintf(&sb, "CONFIDENCE: %.0f\n", conf)
	sb.WriteString("KEY_POINTS:\n")
	for _, p := range points {
		fmt.Fprintf(&sb, "- %s\n", p)
	}
	return sb.String(), nil
}

// Judge produces templated round feedback from the statement set.
func (b *Backend) Judge(_ context.Context, statements []types.AgentStatement, _ []types.DebateRound) (string, error) {
	harvestBySym := map[string]int{}
	keepBySym := map[string]int{}
	for _, s := range statements {
		if s.Recommendation.HarvestSide() {
			harvestBySym[s.PositionSymbol]++
		} else {
			keepBySym[s.PositionSymbol]++
		}
	}

	var agreed, disputed []string
	for sym := range harvestBySym {
		if keepBySym[sym] == 0 {
			agreed = append(agreed, sym)
		}
	}
	for sym := range keepBySym {
		if harvestBySym[sym] == 0 {
			agreed = append(agreed, sym)
		} else {
			disputed = append(disputed, sym)
		}
	}

	var sb strings.Builder
	if len(disputed) == 0 {
		sb.WriteString("All positions have a unanimous side; the debate can conclude.")
	} else {
		fmt.Fprintf(&sb, "%d position(s) agreed, %d still disputed. ", len(agreed), len(disputed))
		sb.WriteString("Disputed symbols need another round: the harvest side should address recovery potential, the keep side should quantify the cost of waiting.")
	}
	return sb.String(), nil
}

// momentumFor extracts the momentum label for a symbol from a context string
// produced by the market service ("SYM: momentum=POSITIVE score=0.45").
func momentumFor(roundContext, symbol string) string {
	marker := symbol + ": momentum="
	idx := strings.Index(roundContext, marker)
	if idx < 0 {
		return ""
	}
	rest := roundContext[idx+len(marker):]
	if end := strings.IndexAny(rest, " \n"); end > 0 {
		return rest[:end]
	}
	return rest
}

// countOpposing counts prior statements for this symbol on the other side.
// Relies on the "<Persona> on <SYM>: <REC> (" line format of the serialized
// round context.
func countOpposing(roundContext, symbol string, rec types.Recommendation) int {
	keepMark := fmt.Sprintf("on %s: %s (", symbol, types.Keep)
	harvestMark := fmt.Sprintf("on %s: %s (", symbol, types.Harvest)
	priorityMark := fmt.Sprintf("on %s: %s (", symbol, types.PriorityHarvest)

	if rec.HarvestSide() {
		return strings.Count(roundContext, keepMark)
	}
	return strings.Count(roundContext, harvestMark) + strings.Count(roundContext, priorityMark)
}
