package report

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"harvest-advisor/internal/interfaces"
)

// summaryLine mirrors the JSON lines the sessionlog package appends to the
// daily file. Kept as a local type so the two packages stay decoupled at the
// file format, not at a shared struct.
type summaryLine struct {
	Time, SessionID, Symbol string
	Recommendation          string
	FinalStatus             string
	Rounds                  int
	LossAmount              float64
	TaxSaving               float64
}

// aggRow is the per-symbol aggregation across a day's sessions.
type aggRow struct {
	Symbol        string
	Sessions      int
	HarvestCount  int
	PriorityCount int
	KeepCount     int
	LossHarvested float64
	TaxSaving     float64
}

type reportSummarizer struct{}

var _ interfaces.ReportSummarizer = (*reportSummarizer)(nil)

var defaultSummarizer interfaces.ReportSummarizer = &reportSummarizer{}

// SetDefaultSummarizer swaps the package-level summarizer, typically for the
// observability-wrapped variant.
func SetDefaultSummarizer(s interfaces.ReportSummarizer) {
	defaultSummarizer = s
}

func NewSummarizer() interfaces.ReportSummarizer {
	return &reportSummarizer{}
}

func SummarizeDay(t time.Time) (string, error) {
	return defaultSummarizer.SummarizeDay(t)
}

func SummarizeToday() (string, error) {
	return defaultSummarizer.SummarizeToday()
}

func logDir() string {
	if v := os.Getenv("ADVISOR_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailySummaryFile(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(logDir(), d+".txt")
}

func reportCSVPath(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(logDir(), "reports", d+".csv")
}

// SummarizeDay aggregates the day's summary lines by symbol and writes a CSV
// report. Returns "" without error when the day has no sessions.
func (r *reportSummarizer) SummarizeDay(t time.Time) (string, error) {
	inPath := dailySummaryFile(t)
	if _, err := os.Stat(inPath); err != nil {
		return "", nil
	}
	f, err := os.Open(inPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	aggs := map[string]*aggRow{}
	sessionsBySymbol := map[string]map[string]bool{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var line summaryLine
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			continue
		}
		row := aggs[line.Symbol]
		if row == nil {
			row = &aggRow{Symbol: line.Symbol}
			aggs[line.Symbol] = row
			sessionsBySymbol[line.Symbol] = map[string]bool{}
		}
		if !sessionsBySymbol[line.Symbol][line.SessionID] {
			sessionsBySymbol[line.Symbol][line.SessionID] = true
			row.Sessions++
		}
		switch line.Recommendation {
		case "HARVEST":
			row.HarvestCount++
			row.LossHarvested += line.LossAmount
			row.TaxSaving += line.TaxSaving
		case "PRIORITY_HARVEST":
			row.PriorityCount++
			row.LossHarvested += line.LossAmount
			row.TaxSaving += line.TaxSaving
		default:
			row.KeepCount++
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(aggs) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := reportCSVPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()
	headers := []string{"symbol", "sessions", "harvest", "priority_harvest", "keep", "loss_harvested", "est_tax_saving"}
	if err := w.Write(headers); err != nil {
		return "", err
	}

	var totalLoss, totalSaving float64
	for _, k := range keys {
		row := aggs[k]
		rec := []string{
			row.Symbol,
			strconv.Itoa(row.Sessions),
			strconv.Itoa(row.HarvestCount),
			strconv.Itoa(row.PriorityCount),
			strconv.Itoa(row.KeepCount),
			fmt.Sprintf("%.2f", row.LossHarvested),
			fmt.Sprintf("%.2f", row.TaxSaving),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		totalLoss += row.LossHarvested
		totalSaving += row.TaxSaving
	}
	_ = w.Write([]string{"TOTAL", "", "", "", "", fmt.Sprintf("%.2f", totalLoss), fmt.Sprintf("%.2f", totalSaving)})
	return outPath, nil
}

func (r *reportSummarizer) SummarizeToday() (string, error) {
	return r.SummarizeDay(time.Now().UTC())
}
