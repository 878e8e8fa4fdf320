package market

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"harvest-advisor/internal/logger"
	"harvest-advisor/internal/store"
	"harvest-advisor/internal/types"
)

// Service provides cached momentum signals and renders them into the debate's
// external context string.
type Service struct {
	scraper  *Scraper
	analyzer *MomentumAnalyzer
	cache    *signalCache
	cfg      *ServiceConfig
}

// ServiceConfig configures the market context service
type ServiceConfig struct {
	MaxArticles    int
	CacheDuration  time.Duration
	ScraperTimeout time.Duration
	Enabled        bool
}

// DefaultServiceConfig returns default configuration
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MaxArticles:    10,
		CacheDuration:  1 * time.Hour,
		ScraperTimeout: 30 * time.Second,
		Enabled:        true,
	}
}

// ConfigFromStore builds a ServiceConfig from the yaml config's news section.
func ConfigFromStore(cfg *store.Config) *ServiceConfig {
	return &ServiceConfig{
		MaxArticles:    cfg.News.MaxArticles,
		CacheDuration:  time.Duration(cfg.News.CacheMinutes) * time.Minute,
		ScraperTimeout: 30 * time.Second,
		Enabled:        cfg.News.Enabled,
	}
}

type signalCache struct {
	mu   sync.RWMutex
	data map[string]*cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	signal    types.MomentumSignal
	timestamp time.Time
}

func newSignalCache(ttl time.Duration) *signalCache {
	return &signalCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}
}

func (c *signalCache) get(symbol string) (types.MomentumSignal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[symbol]
	if !exists || time.Since(entry.timestamp) > c.ttl {
		return types.MomentumSignal{}, false
	}
	return entry.signal, true
}

func (c *signalCache) set(symbol string, signal types.MomentumSignal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[symbol] = &cacheEntry{signal: signal, timestamp: time.Now()}
}

// NewService creates a new market context service
func NewService(cfg *ServiceConfig) *Service {
	if cfg == nil {
		cfg = DefaultServiceConfig()
	}
	return &Service{
		scraper:  NewScraper(cfg.ScraperTimeout),
		analyzer: NewMomentumAnalyzer(cfg.ScraperTimeout),
		cache:    newSignalCache(cfg.CacheDuration),
		cfg:      cfg,
	}
}

// GetSignal returns the momentum signal for a symbol, cached or fresh.
// Scrape failures degrade to a neutral signal, never an error: missing market
// context must not block the debate.
func (s *Service) GetSignal(ctx context.Context, symbol string) types.MomentumSignal {
	if !s.cfg.Enabled {
		return types.MomentumSignal{
			Symbol:    symbol,
			Label:     "NEUTRAL",
			Timestamp: time.Now().Unix(),
		}
	}

	if cached, ok := s.cache.get(symbol); ok {
		logger.Debug(ctx, "Using cached momentum signal", "symbol", symbol)
		return cached
	}

	articles, err := s.scraper.ScrapeHeadlines(ctx, symbol, s.cfg.MaxArticles)
	if err != nil {
		logger.ErrorWithErr(ctx, "Headline scrape failed, using neutral signal", err, "symbol", symbol)
		return types.MomentumSignal{Symbol: symbol, Label: "NEUTRAL", Timestamp: time.Now().Unix()}
	}

	signal := s.analyzer.Analyze(ctx, symbol, articles)
	s.cache.set(symbol, signal)
	return signal
}

// BuildContext renders signals for the given positions into the free-text
// context string handed to the debate.
func (s *Service) BuildContext(ctx context.Context, positions []types.Position) string {
	if len(positions) == 0 {
		return ""
	}

	symbols := make([]string, 0, len(positions))
	for _, p := range positions {
		symbols = append(symbols, p.Symbol)
	}
	sort.Strings(symbols)

	var b strings.Builder
	b.WriteString("Market momentum signals:\n")
	for _, sym := range symbols {
		sig := s.GetSignal(ctx, sym)
		fmt.Fprintf(&b, "%s: momentum=%s score=%.2f", sym, sig.Label, sig.Score)
		if len(sig.Headlines) > 0 {
			fmt.Fprintf(&b, " | %s", sig.Headlines[0])
		}
		b.WriteString("\n")
	}
	return b.String()
}
