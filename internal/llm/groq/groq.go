package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"harvest-advisor/internal/logger"
	"harvest-advisor/internal/store"
	"harvest-advisor/internal/types"
)

// Client calls the Groq chat-completions API (OpenAI-compatible) and acts as
// both the persona reasoning backend and the supervisor judge backend.
type Client struct {
	cfg      *store.Config
	endpoint string
}

func NewClient(cfg *store.Config) *Client {
	endpoint := "https://api.groq.com/openai/v1/chat/completions"
	if ep := os.Getenv("GROQ_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &Client{cfg: cfg, endpoint: endpoint}
}

type personaProfile struct {
	Goal  string
	Focus string
	Bias  string
}

var personaProfiles = map[types.Persona]personaProfile{
	types.TaxOptimizer: {
		Goal:  "Maximize tax efficiency and tax loss harvesting benefits",
		Focus: "Tax saving amounts, capital gains offset, harvest priority",
		Bias:  "Prefers harvesting losses to offset gains",
	},
	types.RiskManager: {
		Goal:  "Reduce portfolio concentration and risk exposure",
		Focus: "Position sizing, concentration risk, volatility",
		Bias:  "Prefers harvesting large losses to reduce risk",
	},
	types.MarketStrategist: {
		Goal:  "Optimize entry and exit timing using market signals",
		Focus: "Market trends, momentum, support and resistance",
		Bias:  "Prefers keeping stocks with positive momentum",
	},
	types.GrowthOptimizer: {
		Goal:  "Preserve long-term growth and capital appreciation",
		Focus: "Company fundamentals, recovery potential, dividend growth",
		Bias:  "Prefers keeping quality companies through downturns",
	},
}

// Generate asks the model for a persona's statement on a position. The raw
// model text is returned; the debate core parses it.
func (c *Client) Generate(ctx context.Context, persona types.Persona, position types.Position, roundContext string) (string, error) {
	profile, ok := personaProfiles[persona]
	if !ok {
		return "", fmt.Errorf("unknown persona %q", persona)
	}

	system := fmt.Sprintf(`You are the %s agent in a portfolio debate about tax-loss harvesting.

Your Goal: %s
Your Focus: %s
Your Bias: %s

Be assertive but open to discussion. Respond to other agents' points.
Format your response EXACTLY as:
POSITION: [HARVEST/KEEP/PRIORITY_HARVEST]
CONFIDENCE: [0-100]
KEY_POINTS:
- [argument 1]
- [argument 2]
- [argument 3]`, persona, profile.Goal, profile.Focus, profile.Bias)

	user := fmt.Sprintf(`Position under debate:
%s: loss $%.0f, tax saving $%.0f, held %d days, qty %g, cost basis $%.2f, current $%.2f

%s

State your position on %s. Address other agents' arguments if applicable.`,
		position.Symbol, position.LossAmount, position.TaxSavingEstimate,
		position.HoldingPeriodDays, position.Quantity, position.CostBasis, position.CurrentPrice,
		roundContext, position.Symbol)

	return c.chat(ctx, system, user)
}

// Judge asks the model for round feedback given the statements so far.
func (c *Client) Judge(ctx context.Context, statements []types.AgentStatement, history []types.DebateRound) (string, error) {
	system := `You are the Debate Supervisor for a tax-loss harvesting discussion.
Evaluate the round and give brief, actionable guidance for the next round.
Be analytical, concise and decisive. Respond with plain text feedback only.`

	var b strings.Builder
	round := 0
	if len(statements) > 0 {
		round = statements[0].RoundNumber
	}
	fmt.Fprintf(&b, "Round %d statements:\n", round)
	for _, stmt := range statements {
		fmt.Fprintf(&b, "%s on %s: %s (confidence %.0f%%) - %s\n",
			stmt.AgentID, stmt.PositionSymbol, stmt.Recommendation,
			stmt.Confidence, strings.Join(stmt.RationalePoints, "; "))
	}
	if len(history) > 0 {
		fmt.Fprintf(&b, "\n%d earlier rounds completed; last status: %s\n",
			len(history), history[len(history)-1].ConsensusStatus)
	}
	b.WriteString("\nSummarize where the agents converge, where they split, and what the next round should address.")

	return c.chat(ctx, system, b.String())
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return "", errors.New("GROQ_API_KEY missing")
	}

	reqBody := map[string]any{
		"model": c.cfg.LLM.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"max_tokens":  c.cfg.LLM.MaxTokens,
		"temperature": c.cfg.LLM.Temperature,
	}

	bb, _ := json.Marshal(reqBody)
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bb))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		logger.ErrorWithErr(ctx, "Groq API request failed", err, "latency_ms", latency.Milliseconds())
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("groq http %d: %s", resp.StatusCode, string(body))
		logger.ErrorWithErr(ctx, "Groq API returned error status", err, "status_code", resp.StatusCode)
		return "", err
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	content, err := extractContent(respBytes)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to extract Groq response content", err)
		return "", err
	}

	logger.Debug(ctx, "Groq response received",
		"model", c.cfg.LLM.Model,
		"latency_ms", latency.Milliseconds(),
		"content_length", len(content),
	)
	return content, nil
}

// extractContent drills the OpenAI-style response shape, falling back to
// common alternative fields.
func extractContent(respBytes []byte) (string, error) {
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			Text string `json:"text"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBytes, &parsed); err == nil && len(parsed.Choices) > 0 {
		if s := strings.TrimSpace(parsed.Choices[0].Message.Content); s != "" {
			return s, nil
		}
		if s := strings.TrimSpace(parsed.Choices[0].Text); s != "" {
			return s, nil
		}
	}

	var anyResp map[string]any
	if err := json.Unmarshal(respBytes, &anyResp); err == nil {
		for _, k := range []string{"completion", "output", "output_text", "result"} {
			if v, exists := anyResp[k]; exists {
				if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s), nil
				}
			}
		}
	}

	return "", errors.New("no content in response")
}
