package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"harvest-advisor/internal/sessionlog"
	"harvest-advisor/internal/types"
)

func TestSummarizeDayEmptyLog(t *testing.T) {
	t.Setenv("ADVISOR_LOG_DIR", t.TempDir())

	p, err := NewSummarizer().SummarizeDay(time.Now().UTC())
	if err != nil {
		t.Fatalf("SummarizeDay failed: %v", err)
	}
	if p != "" {
		t.Errorf("Expected empty path for a day with no sessions, got %s", p)
	}
}

func TestSummarizeDayAggregatesBySymbol(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ADVISOR_LOG_DIR", dir)

	first := &types.DebateSession{
		SessionID: "20260824_090000_001",
		Positions: []types.Position{
			{Symbol: "AAPL", LossAmount: 500, TaxSavingEstimate: 150},
			{Symbol: "TSLA", LossAmount: 200, TaxSavingEstimate: 60},
		},
		FinalStatus: types.ConsensusReached,
		FinalStrategy: map[string]types.Recommendation{
			"AAPL": types.PriorityHarvest,
			"TSLA": types.Keep,
		},
		TotalRounds: 2,
	}
	second := &types.DebateSession{
		SessionID: "20260824_140000_002",
		Positions: []types.Position{
			{Symbol: "AAPL", LossAmount: 400, TaxSavingEstimate: 120},
		},
		FinalStatus: types.MaxRoundsReached,
		FinalStrategy: map[string]types.Recommendation{
			"AAPL": types.Harvest,
		},
		TotalRounds: 5,
	}
	if err := sessionlog.AppendSummary(first); err != nil {
		t.Fatalf("AppendSummary failed: %v", err)
	}
	if err := sessionlog.AppendSummary(second); err != nil {
		t.Fatalf("AppendSummary failed: %v", err)
	}

	p, err := NewSummarizer().SummarizeToday()
	if err != nil {
		t.Fatalf("SummarizeToday failed: %v", err)
	}
	if p == "" {
		t.Fatal("Expected a CSV path")
	}
	if filepath.Dir(p) != filepath.Join(dir, "reports") {
		t.Errorf("Report written to unexpected directory: %s", p)
	}

	f, err := os.Open(p)
	if err != nil {
		t.Fatalf("Opening CSV failed: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Reading CSV failed: %v", err)
	}

	// Header, AAPL, TSLA, TOTAL.
	if len(rows) != 4 {
		t.Fatalf("Expected 4 CSV rows, got %d", len(rows))
	}
	if rows[0][0] != "symbol" {
		t.Errorf("Expected header row, got %v", rows[0])
	}

	aapl := rows[1]
	if aapl[0] != "AAPL" || aapl[1] != "2" || aapl[2] != "1" || aapl[3] != "1" || aapl[4] != "0" {
		t.Errorf("Unexpected AAPL row: %v", aapl)
	}
	if aapl[5] != "900.00" || aapl[6] != "270.00" {
		t.Errorf("Unexpected AAPL totals: %v", aapl)
	}

	tsla := rows[2]
	if tsla[0] != "TSLA" || tsla[4] != "1" || tsla[5] != "0.00" {
		t.Errorf("Kept position must not contribute harvested loss: %v", tsla)
	}

	total := rows[3]
	if total[0] != "TOTAL" || total[5] != "900.00" || total[6] != "270.00" {
		t.Errorf("Unexpected TOTAL row: %v", total)
	}
}
