package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"harvest-advisor/internal/debate"
	"harvest-advisor/internal/debate/debateobs"
	"harvest-advisor/internal/logger"
	"harvest-advisor/internal/market"
	"harvest-advisor/internal/marketdata"
	"harvest-advisor/internal/portfolio"
	"harvest-advisor/internal/report"
	"harvest-advisor/internal/report/reportobs"
	"harvest-advisor/internal/sessionlog"
	"harvest-advisor/internal/store"
	"harvest-advisor/internal/trace"

	"github.com/joho/godotenv"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	_ = godotenv.Load()
	must(logger.Init())
	must(trace.Init())

	cfg, err := store.LoadConfig(configPath())
	must(err)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if v := os.Getenv("ADVISOR_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		_ = sessionlog.CompressOlder(n)
	}

	report.SetDefaultSummarizer(reportobs.Wrap(report.NewSummarizer()))

	if cfg.Mode == "DRY_RUN" {
		log.Println(">> DRY_RUN mode")
	}

	reasoner, judge := buildBackends(cfg)
	dbt, err := debate.New(cfg, reasoner, judge)
	must(err)
	dbt = debateobs.Wrap(dbt)

	raw, err := portfolio.LoadFile(cfg.Portfolio)
	must(err)

	quotes := marketdata.New(cfg)
	refreshed, err := quotes.Refresh(ctx, raw)
	if err != nil {
		log.Printf("quote refresh failed, using supplied prices: %v", err)
		refreshed = raw
	}

	eligible, err := portfolio.Intake(ctx, cfg, refreshed)
	must(err)

	marketSvc := market.NewService(market.ConfigFromStore(cfg))
	marketContext := marketSvc.BuildContext(ctx, eligible)

	runCtx := ctx
	if cfg.Debate.SessionTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Debate.SessionTimeoutSeconds)*time.Second)
		defer cancel()
	}

	session, err := dbt.Run(runCtx, eligible, marketContext)
	must(err)

	if p, err := sessionlog.Save(session); err != nil {
		log.Printf("saving transcript failed: %v", err)
	} else {
		log.Println("Session transcript written:", p)
	}
	if err := sessionlog.AppendSummary(session); err != nil {
		log.Printf("appending daily summary failed: %v", err)
	}

	outcome := struct {
		SessionID     string         `json:"session_id"`
		FinalStatus   string         `json:"final_status"`
		TotalRounds   int            `json:"total_rounds"`
		FinalStrategy map[string]any `json:"final_strategy"`
		Conclusion    string         `json:"conclusion"`
	}{
		SessionID:     session.SessionID,
		FinalStatus:   string(session.FinalStatus),
		TotalRounds:   session.TotalRounds,
		FinalStrategy: map[string]any{},
		Conclusion:    session.SupervisorConclusion,
	}
	for sym, rec := range session.FinalStrategy {
		outcome.FinalStrategy[sym] = string(rec)
	}
	b, _ := json.Marshal(outcome)
	fmt.Println(string(b))

	if p, err := report.SummarizeToday(); err == nil && p != "" {
		log.Println("Daily report written:", p)
	}

	_ = trace.Shutdown(context.Background())
}

func configPath() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	return "config.yaml"
}
