package reportobs

import (
	"context"
	"time"

	"harvest-advisor/internal/interfaces"
	"harvest-advisor/internal/logger"
	"harvest-advisor/internal/trace"
)

type observableReportSummarizer struct {
	summarizer interfaces.ReportSummarizer
}

var _ interfaces.ReportSummarizer = (*observableReportSummarizer)(nil)

func Wrap(summarizer interfaces.ReportSummarizer) interfaces.ReportSummarizer {
	return &observableReportSummarizer{
		summarizer: summarizer,
	}
}

func (ors *observableReportSummarizer) SummarizeDay(t time.Time) (string, error) {
	ctx := context.Background()
	ctx, span := trace.StartSpan(ctx, "report.SummarizeDay")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Starting daily report generation",
		"date", t.Format("2006-01-02"),
	)

	csvPath, err := ors.summarizer.SummarizeDay(t)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Daily report generation failed", err,
			"date", t.Format("2006-01-02"),
		)
		return "", err
	}

	if csvPath == "" {
		logger.InfoSkip(ctx, 1, "No sessions found for daily report",
			"date", t.Format("2006-01-02"),
		)
		return "", nil
	}

	logger.InfoSkip(ctx, 1, "Daily report generated",
		"date", t.Format("2006-01-02"),
		"csv_path", csvPath,
	)
	return csvPath, nil
}

func (ors *observableReportSummarizer) SummarizeToday() (string, error) {
	ctx := context.Background()
	ctx, span := trace.StartSpan(ctx, "report.SummarizeToday")
	defer span.End()

	csvPath, err := ors.summarizer.SummarizeToday()
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Today's report generation failed", err)
		return "", err
	}
	if csvPath == "" {
		logger.InfoSkip(ctx, 1, "No sessions found for today's report")
		return "", nil
	}

	logger.InfoSkip(ctx, 1, "Today's report generated",
		"csv_path", csvPath,
	)
	return csvPath, nil
}
