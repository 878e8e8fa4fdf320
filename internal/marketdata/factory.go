package marketdata

import (
	"harvest-advisor/internal/interfaces"
	"harvest-advisor/internal/store"
)

// New selects the quote provider from config: LIVE uses Yahoo Finance,
// anything else keeps the portfolio's supplied prices.
func New(cfg *store.Config) interfaces.QuoteProvider {
	if cfg.MarketData == "LIVE" {
		return &yahooProvider{}
	}
	return &staticProvider{}
}

// NewStatic returns the pass-through provider regardless of config.
func NewStatic() interfaces.QuoteProvider {
	return &staticProvider{}
}
