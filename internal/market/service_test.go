package market

import (
	"context"
	"strings"
	"testing"
	"time"

	"harvest-advisor/internal/types"
)

func TestSignalCache(t *testing.T) {
	cache := newSignalCache(50 * time.Millisecond)

	signal := types.MomentumSignal{
		Symbol:    "TSLA",
		Score:     0.6,
		Label:     "POSITIVE",
		Timestamp: time.Now().Unix(),
	}
	cache.set("TSLA", signal)

	got, found := cache.get("TSLA")
	if !found {
		t.Fatal("Expected to find cached signal")
	}
	if got.Score != 0.6 || got.Label != "POSITIVE" {
		t.Errorf("Cached signal mismatch: %+v", got)
	}

	time.Sleep(100 * time.Millisecond)
	if _, found := cache.get("TSLA"); found {
		t.Error("Expected cache entry to be expired")
	}
}

func TestServiceDisabledReturnsNeutral(t *testing.T) {
	svc := NewService(&ServiceConfig{Enabled: false, CacheDuration: time.Minute, ScraperTimeout: time.Second})

	sig := svc.GetSignal(context.Background(), "NVDA")
	if sig.Label != "NEUTRAL" {
		t.Errorf("Expected NEUTRAL signal when disabled, got %s", sig.Label)
	}
	if sig.Score != 0 {
		t.Errorf("Expected zero score when disabled, got %f", sig.Score)
	}
}

func TestScoreText(t *testing.T) {
	cases := []struct {
		text string
		want float64
		ok   bool
	}{
		{"shares surge after record profit", 1, true},
		{"stock plunge on earnings miss and lawsuit", -1, true},
		{"quarterly report scheduled for tuesday", 0, false},
		{"rally fades as shares fall", 0, true},
	}
	for _, tc := range cases {
		got, ok := scoreText(tc.text)
		if ok != tc.ok {
			t.Errorf("scoreText(%q): ok = %v, want %v", tc.text, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("scoreText(%q) = %f, want %f", tc.text, got, tc.want)
		}
	}
}

func TestAnalyzeNoArticles(t *testing.T) {
	a := NewMomentumAnalyzer(time.Second)
	sig := a.Analyze(context.Background(), "AAPL", nil)
	if sig.Label != "NEUTRAL" || sig.Score != 0 {
		t.Errorf("Expected neutral zero signal, got %+v", sig)
	}
}

func TestBuildContextDisabled(t *testing.T) {
	svc := NewService(&ServiceConfig{Enabled: false, CacheDuration: time.Minute, ScraperTimeout: time.Second})
	positions := []types.Position{
		{Symbol: "TSLA"},
		{Symbol: "AAPL"},
	}

	out := svc.BuildContext(context.Background(), positions)
	if !strings.Contains(out, "AAPL: momentum=NEUTRAL") || !strings.Contains(out, "TSLA: momentum=NEUTRAL") {
		t.Errorf("Expected neutral entries for both symbols, got %q", out)
	}
	// Symbols are rendered sorted so the context string is deterministic.
	if strings.Index(out, "AAPL") > strings.Index(out, "TSLA") {
		t.Errorf("Expected sorted symbol order, got %q", out)
	}
}
