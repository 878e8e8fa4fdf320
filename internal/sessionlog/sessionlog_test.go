package sessionlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"harvest-advisor/internal/types"
)

func testSession() *types.DebateSession {
	return &types.DebateSession{
		SessionID: "20260824_101500_042",
		Positions: []types.Position{
			{Symbol: "AAPL", Quantity: 10, CostBasis: 150, CurrentPrice: 120, LossAmount: 300, TaxSavingEstimate: 90},
			{Symbol: "TSLA", Quantity: 5, CostBasis: 200, CurrentPrice: 180, LossAmount: 100, TaxSavingEstimate: 30},
		},
		FinalStatus: types.ConsensusReached,
		FinalStrategy: map[string]types.Recommendation{
			"AAPL": types.Harvest,
			"TSLA": types.Keep,
		},
		SupervisorConclusion: "Full consensus reached in round 2.",
		TotalRounds:          2,
	}
}

func TestSaveWritesTranscript(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ADVISOR_LOG_DIR", dir)

	s := testSession()
	p, err := Save(s)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Base(p) != "debate_20260824_101500_042.json" {
		t.Errorf("Unexpected transcript filename: %s", p)
	}

	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("Reading transcript failed: %v", err)
	}
	var got types.DebateSession
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Transcript is not valid JSON: %v", err)
	}
	if got.SessionID != s.SessionID || got.FinalStatus != s.FinalStatus {
		t.Errorf("Round-tripped session differs: %+v", got)
	}
	if got.FinalStrategy["AAPL"] != types.Harvest {
		t.Errorf("Expected AAPL HARVEST in transcript, got %s", got.FinalStrategy["AAPL"])
	}
}

func TestAppendSummaryWritesOneLinePerPosition(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ADVISOR_LOG_DIR", dir)

	s := testSession()
	if err := AppendSummary(s); err != nil {
		t.Fatalf("AppendSummary failed: %v", err)
	}
	if err := AppendSummary(s); err != nil {
		t.Fatalf("Second AppendSummary failed: %v", err)
	}

	entries, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("Expected exactly one daily file, got %v", entries)
	}

	f, err := os.Open(entries[0])
	if err != nil {
		t.Fatalf("Opening daily file failed: %v", err)
	}
	defer f.Close()

	var lines []SummaryEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		var e SummaryEntry
		if err := json.Unmarshal([]byte(sc.Text()), &e); err != nil {
			t.Fatalf("Summary line is not valid JSON: %v", err)
		}
		lines = append(lines, e)
	}

	if len(lines) != 4 {
		t.Fatalf("Expected 4 summary lines (2 positions x 2 appends), got %d", len(lines))
	}
	if lines[0].Symbol != "AAPL" || lines[0].Recommendation != "HARVEST" {
		t.Errorf("Unexpected first line: %+v", lines[0])
	}
	if lines[1].Symbol != "TSLA" || lines[1].Recommendation != "KEEP" {
		t.Errorf("Unexpected second line: %+v", lines[1])
	}
	if lines[0].FinalStatus != string(types.ConsensusReached) || lines[0].Rounds != 2 {
		t.Errorf("Session fields not carried onto line: %+v", lines[0])
	}
}

func TestCompressOlderIgnoresFreshFiles(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ADVISOR_LOG_DIR", dir)

	s := testSession()
	if _, err := Save(s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := AppendSummary(s); err != nil {
		t.Fatalf("AppendSummary failed: %v", err)
	}

	if err := CompressOlder(7); err != nil {
		t.Fatalf("CompressOlder failed: %v", err)
	}

	gzipped, _ := filepath.Glob(filepath.Join(dir, "*", "*.gz"))
	if len(gzipped) != 0 {
		t.Errorf("Fresh files must not be compressed, got %v", gzipped)
	}
	if _, err := os.Stat(filepath.Join(dir, "debates", "debate_"+s.SessionID+".json")); err != nil {
		t.Errorf("Transcript should survive retention pass: %v", err)
	}
}
