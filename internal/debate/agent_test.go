package debate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"harvest-advisor/internal/types"
)

func TestParseStatement(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantRec    types.Recommendation
		wantConf   float64
		wantPoints int
		wantErr    bool
	}{
		{
			name:       "well formed",
			raw:        "POSITION: HARVEST\nCONFIDENCE: 75\nKEY_POINTS:\n- first point\n- second point\n",
			wantRec:    types.Harvest,
			wantConf:   75,
			wantPoints: 2,
		},
		{
			name:       "bracketed values and percent sign",
			raw:        "POSITION: [PRIORITY_HARVEST]\nCONFIDENCE: [85%]\nKEY_POINTS:\n- point\n",
			wantRec:    types.PriorityHarvest,
			wantConf:   85,
			wantPoints: 1,
		},
		{
			name:       "lowercase position",
			raw:        "POSITION: keep\nCONFIDENCE: 40\nKEY_POINTS:\n- point\n",
			wantRec:    types.Keep,
			wantConf:   40,
			wantPoints: 1,
		},
		{
			name:       "malformed confidence defaults to 50",
			raw:        "POSITION: KEEP\nCONFIDENCE: very high\nKEY_POINTS:\n- point\n",
			wantRec:    types.Keep,
			wantConf:   50,
			wantPoints: 1,
		},
		{
			name:       "confidence clamped to 100",
			raw:        "POSITION: HARVEST\nCONFIDENCE: 130\nKEY_POINTS:\n- point\n",
			wantRec:    types.Harvest,
			wantConf:   100,
			wantPoints: 1,
		},
		{
			name:       "missing key points gets placeholder",
			raw:        "POSITION: HARVEST\nCONFIDENCE: 60\n",
			wantRec:    types.Harvest,
			wantConf:   60,
			wantPoints: 1,
		},
		{
			name:       "points capped at four",
			raw:        "POSITION: KEEP\nCONFIDENCE: 60\nKEY_POINTS:\n- a\n- b\n- c\n- d\n- e\n- f\n",
			wantRec:    types.Keep,
			wantConf:   60,
			wantPoints: 4,
		},
		{
			name:    "missing position line",
			raw:     "CONFIDENCE: 60\nKEY_POINTS:\n- point\n",
			wantErr: true,
		},
		{
			name:    "unknown position value",
			raw:     "POSITION: MAYBE\nCONFIDENCE: 60\nKEY_POINTS:\n- point\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStatement(tt.raw, types.TaxOptimizer, "AAPL", 2)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got.Recommendation != tt.wantRec {
				t.Errorf("Expected recommendation %s, got %s", tt.wantRec, got.Recommendation)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("Expected confidence %.0f, got %.0f", tt.wantConf, got.Confidence)
			}
			if len(got.RationalePoints) != tt.wantPoints {
				t.Errorf("Expected %d points, got %d", tt.wantPoints, len(got.RationalePoints))
			}
			if got.AgentID != types.TaxOptimizer || got.PositionSymbol != "AAPL" || got.RoundNumber != 2 {
				t.Errorf("Statement identity fields not carried through: %+v", got)
			}
		})
	}
}

func TestProduceStatementFallsBackOnBackendError(t *testing.T) {
	agent := agentReasoner{
		persona: types.RiskManager,
		backend: &scriptedReasoner{fn: func(types.Persona, types.Position, string) (string, error) {
			return "", errors.New("timeout")
		}},
		callTimeout: time.Second,
	}

	got := agent.produceStatement(context.Background(), losingPosition("TSLA", 500), 3, nil, "")
	if got.Recommendation != types.Keep || got.Confidence != 0 {
		t.Errorf("Expected fallback KEEP at 0, got %s at %.0f", got.Recommendation, got.Confidence)
	}
	if got.AgentID != types.RiskManager || got.PositionSymbol != "TSLA" || got.RoundNumber != 3 {
		t.Errorf("Fallback statement identity fields wrong: %+v", got)
	}
}

func TestProduceStatementFallsBackOnGarbage(t *testing.T) {
	agent := agentReasoner{
		persona: types.GrowthOptimizer,
		backend: &scriptedReasoner{fn: func(types.Persona, types.Position, string) (string, error) {
			return "I think we should probably sell, or maybe not.", nil
		}},
		callTimeout: time.Second,
	}

	got := agent.produceStatement(context.Background(), losingPosition("NFLX", 300), 1, nil, "")
	if got.Recommendation != types.Keep || got.Confidence != 0 {
		t.Errorf("Expected fallback KEEP at 0, got %s at %.0f", got.Recommendation, got.Confidence)
	}
}

func TestSerializeRoundContext(t *testing.T) {
	prior := []types.AgentStatement{
		stmt(types.TaxOptimizer, "AAPL", types.Harvest, 72, 1),
		stmt(types.RiskManager, "AAPL", types.Keep, 61, 1),
	}

	out := serializeRoundContext(prior, "AAPL: momentum=NEGATIVE score=-0.40 | market slides", 2)

	if !strings.HasPrefix(out, "Round 2 of the debate.\n") {
		t.Errorf("Expected round header, got %q", out)
	}
	if !strings.Contains(out, "AAPL: momentum=NEGATIVE") {
		t.Error("Expected market context to be included")
	}
	if !strings.Contains(out, "TaxOptimizer on AAPL: HARVEST (confidence 72%)") {
		t.Errorf("Expected prior statement line, got %q", out)
	}
	if !strings.Contains(out, "RiskManager on AAPL: KEEP (confidence 61%)") {
		t.Errorf("Expected second prior statement line, got %q", out)
	}
}

func TestSerializeRoundContextWithoutPrior(t *testing.T) {
	out := serializeRoundContext(nil, "", 1)
	if out != "Round 1 of the debate.\n" {
		t.Errorf("Expected bare round header, got %q", out)
	}
	if strings.Contains(out, "Previous Discussion") {
		t.Error("No prior statements, no discussion section")
	}
}
