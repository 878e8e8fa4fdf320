package sessionlog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"harvest-advisor/internal/types"
)

var mu sync.Mutex

// SummaryEntry is one line of the daily summary file: one position's final
// outcome from one session. The reporting layer aggregates these by symbol.
type SummaryEntry struct {
	Time, SessionID, Symbol string
	Recommendation          string
	FinalStatus             string
	Rounds                  int
	LossAmount              float64
	TaxSaving               float64
}

func logDir() string {
	if v := os.Getenv("ADVISOR_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func sessionFilepath(sessionID string) string {
	return filepath.Join(logDir(), "debates", "debate_"+sessionID+".json")
}

func dailyFilepath(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(logDir(), d+".txt")
}

// Save writes the full session transcript as an indented JSON document and
// returns its path.
func Save(s *types.DebateSession) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	p := sessionFilepath(s.SessionID)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(p, b, 0o644); err != nil {
		return "", err
	}
	return p, nil
}

// AppendSummary appends one JSON line per position to today's summary file.
func AppendSummary(s *types.DebateSession) error {
	mu.Lock()
	defer mu.Unlock()

	now := time.Now().UTC()
	p := dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, pos := range s.Positions {
		e := SummaryEntry{
			Time:           now.Format("2006-01-02 15:04:05"),
			SessionID:      s.SessionID,
			Symbol:         pos.Symbol,
			Recommendation: string(s.FinalStrategy[pos.Symbol]),
			FinalStatus:    string(s.FinalStatus),
			Rounds:         s.TotalRounds,
			LossAmount:     pos.LossAmount,
			TaxSaving:      pos.TaxSavingEstimate,
		}
		b, _ := json.Marshal(e)
		if _, err := fmt.Fprintln(f, string(b)); err != nil {
			return err
		}
	}
	return nil
}

// CompressOlder gzips summary and transcript files older than retentionDays.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if ext := filepath.Ext(p); ext != ".txt" && ext != ".json" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil {
			return nil
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		if _, e2 := os.Stat(gz); e2 == nil {
			_ = os.Remove(p)
			return nil
		}

		in, e3 := os.Open(p)
		if e3 != nil {
			return nil
		}
		defer in.Close()

		out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if e4 != nil {
			return nil
		}
		gw := gzip.NewWriter(out)
		if _, e5 := io.Copy(gw, in); e5 == nil {
			_ = gw.Close()
			_ = out.Close()
			_ = os.Remove(p)
		} else {
			_ = gw.Close()
			_ = out.Close()
		}
		return nil
	})
}
