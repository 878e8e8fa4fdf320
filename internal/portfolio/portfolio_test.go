package portfolio

import (
	"context"
	"strings"
	"testing"

	"harvest-advisor/internal/store"
	"harvest-advisor/internal/types"
)

func testConfig() *store.Config {
	cfg := &store.Config{}
	cfg.Harvest.MinLossAmount = 100
	cfg.Harvest.MinLossPct = 5
	cfg.Harvest.TaxRate = 0.30
	return cfg
}

func TestDeriveLossClampedAtZero(t *testing.T) {
	cfg := testConfig()

	p := Derive(cfg, types.Position{Symbol: "AAPL", Quantity: 10, CostBasis: 100, CurrentPrice: 150})
	if p.LossAmount != 0 {
		t.Errorf("Expected zero loss for profitable lot, got %f", p.LossAmount)
	}

	p = Derive(cfg, types.Position{Symbol: "TSLA", Quantity: 10, CostBasis: 200, CurrentPrice: 150})
	if p.LossAmount != 500 {
		t.Errorf("Expected loss 500, got %f", p.LossAmount)
	}
	if p.TaxSavingEstimate != 150 {
		t.Errorf("Expected derived tax saving 150, got %f", p.TaxSavingEstimate)
	}
}

func TestDeriveKeepsSuppliedTaxSaving(t *testing.T) {
	cfg := testConfig()
	p := Derive(cfg, types.Position{Symbol: "TSLA", Quantity: 10, CostBasis: 200, CurrentPrice: 150, TaxSavingEstimate: 99})
	if p.TaxSavingEstimate != 99 {
		t.Errorf("Expected supplied tax saving to be kept, got %f", p.TaxSavingEstimate)
	}
}

func TestIntakeFiltersAndSorts(t *testing.T) {
	cfg := testConfig()
	raw := []types.Position{
		{Symbol: "WIN", Quantity: 10, CostBasis: 100, CurrentPrice: 150},  // profit
		{Symbol: "TINY", Quantity: 1, CostBasis: 100, CurrentPrice: 60},   // loss 40 < min amount
		{Symbol: "BIG", Quantity: 100, CostBasis: 50, CurrentPrice: 20},   // loss 3000
		{Symbol: "MID", Quantity: 10, CostBasis: 100, CurrentPrice: 50},   // loss 500
		{Symbol: "FLAT", Quantity: 100, CostBasis: 100, CurrentPrice: 98}, // 2% loss < min pct
	}

	eligible, err := Intake(context.Background(), cfg, raw)
	if err != nil {
		t.Fatalf("Intake returned error: %v", err)
	}
	if len(eligible) != 2 {
		t.Fatalf("Expected 2 eligible positions, got %d", len(eligible))
	}
	if eligible[0].Symbol != "BIG" || eligible[1].Symbol != "MID" {
		t.Errorf("Expected [BIG MID] order, got [%s %s]", eligible[0].Symbol, eligible[1].Symbol)
	}
}

func TestIntakeEmptyInput(t *testing.T) {
	eligible, err := Intake(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatalf("Expected no error for empty input, got %v", err)
	}
	if len(eligible) != 0 {
		t.Errorf("Expected empty eligible set, got %d", len(eligible))
	}
}

func TestIntakeValidation(t *testing.T) {
	cfg := testConfig()

	cases := []struct {
		name      string
		positions []types.Position
		wantErr   string
	}{
		{
			name: "duplicate symbols",
			positions: []types.Position{
				{Symbol: "TSLA", Quantity: 1, CostBasis: 100, CurrentPrice: 50},
				{Symbol: "TSLA", Quantity: 2, CostBasis: 120, CurrentPrice: 50},
			},
			wantErr: "duplicate symbol",
		},
		{
			name:      "empty symbol",
			positions: []types.Position{{Quantity: 1, CostBasis: 100, CurrentPrice: 50}},
			wantErr:   "symbol cannot be empty",
		},
		{
			name:      "non-positive quantity",
			positions: []types.Position{{Symbol: "TSLA", Quantity: 0, CostBasis: 100, CurrentPrice: 50}},
			wantErr:   "quantity must be positive",
		},
		{
			name:      "negative price",
			positions: []types.Position{{Symbol: "TSLA", Quantity: 1, CostBasis: 100, CurrentPrice: -1}},
			wantErr:   "current_price cannot be negative",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Intake(context.Background(), cfg, tc.positions)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}
