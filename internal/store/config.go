package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode       string `yaml:"mode"`        // DRY_RUN or LIVE
	MarketData string `yaml:"market_data"` // STATIC or LIVE
	Portfolio  string `yaml:"portfolio"`   // path to positions JSON

	Debate struct {
		MaxRounds             int `yaml:"max_rounds"`
		CallTimeoutSeconds    int `yaml:"call_timeout_seconds"`
		SessionTimeoutSeconds int `yaml:"session_timeout_seconds"`
	} `yaml:"debate"`

	Harvest struct {
		MinLossAmount float64 `yaml:"min_loss_amount"`
		MinLossPct    float64 `yaml:"min_loss_pct"`
		TaxRate       float64 `yaml:"tax_rate"`
	} `yaml:"harvest"`

	LLM struct {
		Provider    string  `yaml:"provider"` // GROQ or RULE
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"llm"`

	News struct {
		Enabled      bool `yaml:"enabled"`
		MaxArticles  int  `yaml:"max_articles"`
		CacheMinutes int  `yaml:"cache_minutes"`
	} `yaml:"news"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.MarketData != "STATIC" && c.MarketData != "LIVE" {
		return fmt.Errorf("invalid market_data '%s': must be 'STATIC' or 'LIVE'", c.MarketData)
	}
	if c.Debate.MaxRounds < 1 {
		return fmt.Errorf("debate.max_rounds must be >= 1, got %d", c.Debate.MaxRounds)
	}
	if c.Harvest.TaxRate <= 0 || c.Harvest.TaxRate >= 1 {
		return fmt.Errorf("harvest.tax_rate must be between 0 and 1, got %.2f", c.Harvest.TaxRate)
	}
	if c.Harvest.MinLossAmount < 0 {
		return errors.New("harvest.min_loss_amount cannot be negative")
	}
	if c.Harvest.MinLossPct < 0 || c.Harvest.MinLossPct > 100 {
		return fmt.Errorf("harvest.min_loss_pct must be between 0-100, got %.2f", c.Harvest.MinLossPct)
	}
	if c.LLM.Provider != "GROQ" && c.LLM.Provider != "RULE" {
		return fmt.Errorf("llm.provider must be 'GROQ' or 'RULE', got '%s'", c.LLM.Provider)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.MarketData == "" {
		c.MarketData = "STATIC"
	}
	if c.Debate.MaxRounds == 0 {
		c.Debate.MaxRounds = 5
	}
	if c.Debate.CallTimeoutSeconds == 0 {
		c.Debate.CallTimeoutSeconds = 30
	}
	if c.Harvest.MinLossAmount == 0 {
		c.Harvest.MinLossAmount = 100
	}
	if c.Harvest.MinLossPct == 0 {
		c.Harvest.MinLossPct = 5
	}
	if c.Harvest.TaxRate == 0 {
		c.Harvest.TaxRate = 0.30
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "RULE"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama-3.3-70b-versatile"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.News.MaxArticles == 0 {
		c.News.MaxArticles = 10
	}
	if c.News.CacheMinutes == 0 {
		c.News.CacheMinutes = 60
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
