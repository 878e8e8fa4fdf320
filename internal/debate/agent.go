package debate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"harvest-advisor/internal/interfaces"
	"harvest-advisor/internal/logger"
	"harvest-advisor/internal/types"
)

// agentReasoner produces one persona's statement per position per round. It
// owns the round-context serialization and the parsing of the backend's text
// protocol; the backend only ever sees and returns strings.
type agentReasoner struct {
	persona     types.Persona
	backend     interfaces.Reasoner
	callTimeout time.Duration
}

// produceStatement always returns exactly one statement. Backend failures,
// timeouts and unparseable responses degrade to the fallback statement; one
// agent's failure never halts the negotiation.
func (a *agentReasoner) produceStatement(ctx context.Context, position types.Position, roundNumber int, prior []types.AgentStatement, externalContext string) types.AgentStatement {
	roundContext := serializeRoundContext(prior, externalContext, roundNumber)

	callCtx := ctx
	if a.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.callTimeout)
		defer cancel()
	}

	raw, err := a.backend.Generate(callCtx, a.persona, position, roundContext)
	if err != nil {
		logger.Warn(ctx, "Reasoning backend failed, using fallback statement",
			"persona", string(a.persona), "symbol", position.Symbol,
			"round", roundNumber, "error", err)
		return fallbackStatement(a.persona, position.Symbol, roundNumber)
	}

	stmt, err := parseStatement(raw, a.persona, position.Symbol, roundNumber)
	if err != nil {
		logger.Warn(ctx, "Unparseable backend response, using fallback statement",
			"persona", string(a.persona), "symbol", position.Symbol,
			"round", roundNumber, "error", err)
		return fallbackStatement(a.persona, position.Symbol, roundNumber)
	}
	return stmt
}

// fallbackStatement is the deterministic conservative placeholder substituted
// when the reasoning backend fails.
func fallbackStatement(persona types.Persona, symbol string, roundNumber int) types.AgentStatement {
	return types.AgentStatement{
		AgentID:         persona,
		PositionSymbol:  symbol,
		Recommendation:  types.Keep,
		Confidence:      0,
		RationalePoints: []string{"reasoning unavailable"},
		RoundNumber:     roundNumber,
	}
}

// serializeRoundContext renders the external market context plus every prior
// statement (earlier rounds and earlier personas this round) into the text
// block handed to the backend. The "<Persona> on <SYM>: <REC> (" line shape is
// relied on by the rule backend.
func serializeRoundContext(prior []types.AgentStatement, externalContext string, roundNumber int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d of the debate.\n", roundNumber)
	if externalContext != "" {
		b.WriteString(externalContext)
		if !strings.HasSuffix(externalContext, "\n") {
			b.WriteString("\n")
		}
	}
	if len(prior) == 0 {
		return b.String()
	}
	b.WriteString("\n=== Previous Discussion ===\n")
	for _, stmt := range prior {
		fmt.Fprintf(&b, "Round %d - %s on %s: %s (confidence %.0f%%) - %s\n",
			stmt.RoundNumber, stmt.AgentID, stmt.PositionSymbol,
			stmt.Recommendation, stmt.Confidence,
			strings.Join(stmt.RationalePoints, "; "))
	}
	return b.String()
}

// parseStatement parses the POSITION/CONFIDENCE/KEY_POINTS text protocol. A
// missing or unknown POSITION line is an error (the caller falls back); a
// malformed confidence defaults to 50, and confidence is clamped to [0, 100].
func parseStatement(raw string, persona types.Persona, symbol string, roundNumber int) (types.AgentStatement, error) {
	rec := types.Recommendation("")
	confidence := 50.0
	var points []string

	inPoints := false
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "POSITION:"):
			inPoints = false
			v := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(trimmed, "POSITION:")))
			v = strings.Trim(v, "[]")
			rec = types.Recommendation(v)
		case strings.HasPrefix(trimmed, "CONFIDENCE:"):
			inPoints = false
			v := strings.TrimSpace(strings.TrimPrefix(trimmed, "CONFIDENCE:"))
			v = strings.Trim(strings.TrimSuffix(v, "%"), "[]")
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				confidence = f
			}
		case strings.HasPrefix(trimmed, "KEY_POINTS:"):
			inPoints = true
		case inPoints && trimmed != "":
			p := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(trimmed, "-"), "•"))
			if p != "" {
				points = append(points, p)
			}
		}
	}

	if !rec.Valid() {
		return types.AgentStatement{}, fmt.Errorf("no valid POSITION line in response (got %q)", rec)
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	if len(points) == 0 {
		points = []string{"no explicit rationale given"}
	}
	if len(points) > 4 {
		points = points[:4]
	}

	return types.AgentStatement{
		AgentID:         persona,
		PositionSymbol:  symbol,
		Recommendation:  rec,
		Confidence:      confidence,
		RationalePoints: points,
		RoundNumber:     roundNumber,
	}, nil
}
