package interfaces

import "time"

// ReportSummarizer turns a day's persisted debate sessions into a CSV summary.
type ReportSummarizer interface {
	// SummarizeDay aggregates the day's session log into a CSV report and
	// returns its path, or "" when there is nothing to summarize.
	SummarizeDay(t time.Time) (string, error)
	SummarizeToday() (string, error)
}
