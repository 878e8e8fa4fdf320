package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"harvest-advisor/internal/logger"
	"harvest-advisor/internal/store"
	"harvest-advisor/internal/types"
)

// Intake validates raw positions, derives loss figures and returns the
// loss-eligible subset sorted by loss amount descending. Validation failures
// are caller mistakes and fail fast; an empty eligible set is a valid result.
func Intake(ctx context.Context, cfg *store.Config, raw []types.Position) ([]types.Position, error) {
	if err := validate(raw); err != nil {
		return nil, err
	}

	eligible := make([]types.Position, 0, len(raw))
	for _, p := range raw {
		p = Derive(cfg, p)
		reason, ok := eligibility(cfg, p)
		if !ok {
			logger.Debug(ctx, "Position not eligible for harvesting",
				"symbol", p.Symbol, "loss", p.LossAmount, "reason", reason)
			continue
		}
		eligible = append(eligible, p)
	}

	// Largest losses first so the debate addresses them first.
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].LossAmount > eligible[j].LossAmount
	})

	logger.Info(ctx, "Portfolio intake complete",
		"supplied", len(raw), "eligible", len(eligible))
	return eligible, nil
}

// Derive fills the computed fields of a position. LossAmount is always
// recomputed as (cost_basis - current_price) * quantity clamped at zero;
// any caller-supplied value is ignored. TaxSavingEstimate is only derived
// when the caller did not supply one.
func Derive(cfg *store.Config, p types.Position) types.Position {
	loss := (p.CostBasis - p.CurrentPrice) * p.Quantity
	if loss < 0 {
		loss = 0
	}
	p.LossAmount = loss
	if p.TaxSavingEstimate <= 0 {
		p.TaxSavingEstimate = loss * cfg.Harvest.TaxRate
	}
	return p
}

// eligibility applies the harvest thresholds to an already-derived position.
func eligibility(cfg *store.Config, p types.Position) (string, bool) {
	switch {
	case p.LossAmount <= 0:
		return "not a loss - holding is in profit", false
	case p.LossAmount < cfg.Harvest.MinLossAmount:
		return fmt.Sprintf("loss below minimum threshold %.2f", cfg.Harvest.MinLossAmount), false
	case p.LossPct() < cfg.Harvest.MinLossPct:
		return fmt.Sprintf("loss percentage below minimum %.2f%%", cfg.Harvest.MinLossPct), false
	}
	return "", true
}

func validate(positions []types.Position) error {
	seen := map[string]bool{}
	for i, p := range positions {
		if p.Symbol == "" {
			return fmt.Errorf("position %d: symbol cannot be empty", i)
		}
		if seen[p.Symbol] {
			return fmt.Errorf("duplicate symbol '%s' in position set", p.Symbol)
		}
		seen[p.Symbol] = true
		if p.Quantity <= 0 {
			return fmt.Errorf("position %s: quantity must be positive, got %g", p.Symbol, p.Quantity)
		}
		if p.CostBasis <= 0 {
			return fmt.Errorf("position %s: cost_basis must be positive, got %g", p.Symbol, p.CostBasis)
		}
		if p.CurrentPrice < 0 {
			return fmt.Errorf("position %s: current_price cannot be negative, got %g", p.Symbol, p.CurrentPrice)
		}
		if p.HoldingPeriodDays < 0 {
			return fmt.Errorf("position %s: holding_period_days cannot be negative, got %d", p.Symbol, p.HoldingPeriodDays)
		}
	}
	return nil
}

// LoadFile reads a positions JSON file (an array of Position objects).
func LoadFile(path string) ([]types.Position, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio file: %w", err)
	}
	var positions []types.Position
	if err := json.Unmarshal(b, &positions); err != nil {
		return nil, fmt.Errorf("failed to parse portfolio file %s: %w", path, err)
	}
	return positions, nil
}
