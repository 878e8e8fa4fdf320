package market

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"harvest-advisor/internal/logger"
	"harvest-advisor/internal/types"
)

// MomentumAnalyzer scores headlines into a momentum signal. Keyword scoring is
// deliberately simple: the signal is a tendency fed into the debate context,
// not a prediction.
type MomentumAnalyzer struct {
	timeout time.Duration
}

func NewMomentumAnalyzer(timeout time.Duration) *MomentumAnalyzer {
	return &MomentumAnalyzer{timeout: timeout}
}

var positiveWords = []string{
	"surge", "rally", "beat", "beats", "upgrade", "upgraded", "record",
	"strong", "gain", "gains", "bullish", "outperform", "growth", "soar",
	"jump", "rebound", "profit", "buyback", "dividend",
}

var negativeWords = []string{
	"plunge", "drop", "drops", "miss", "misses", "downgrade", "downgraded",
	"weak", "loss", "losses", "bearish", "underperform", "lawsuit", "recall",
	"cut", "cuts", "decline", "fall", "falls", "slump", "warning",
}

// Analyze aggregates per-article scores into one signal for the symbol.
// With no articles the result is a zero-confidence neutral signal.
func (a *MomentumAnalyzer) Analyze(ctx context.Context, symbol string, articles []types.NewsArticle) types.MomentumSignal {
	signal := types.MomentumSignal{
		Symbol:    symbol,
		Label:     "NEUTRAL",
		Timestamp: time.Now().Unix(),
	}
	if len(articles) == 0 {
		return signal
	}

	var total float64
	var scored int
	for _, art := range articles {
		text := art.Title + " " + art.Content
		if len(art.Content) < 80 && art.URL != "" {
			if body := a.fetchArticleBody(ctx, art.URL); body != "" {
				text += " " + body
			}
		}
		s, ok := scoreText(text)
		if !ok {
			continue
		}
		total += s
		scored++
		if len(signal.Headlines) < 5 {
			signal.Headlines = append(signal.Headlines, art.Title)
		}
	}
	if scored == 0 {
		return signal
	}

	signal.Score = total / float64(scored)
	switch {
	case signal.Score >= 0.2:
		signal.Label = "POSITIVE"
	case signal.Score <= -0.2:
		signal.Label = "NEGATIVE"
	}

	logger.Debug(ctx, "Momentum analyzed",
		"symbol", symbol, "score", signal.Score, "label", signal.Label, "articles_scored", scored)
	return signal
}

// scoreText returns the keyword balance of a text in [-1, 1]; ok is false
// when the text mentions none of the keywords.
func scoreText(text string) (float64, bool) {
	lower := strings.ToLower(text)
	var pos, neg int
	for _, w := range positiveWords {
		pos += strings.Count(lower, w)
	}
	for _, w := range negativeWords {
		neg += strings.Count(lower, w)
	}
	if pos+neg == 0 {
		return 0, false
	}
	return float64(pos-neg) / float64(pos+neg), true
}

// fetchArticleBody pulls paragraph text from an article page when the scrape
// only returned a headline.
func (a *MomentumAnalyzer) fetchArticleBody(ctx context.Context, articleURL string) string {
	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, articleURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Debug(ctx, "Article body fetch failed", "url", articleURL, "error", err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}

	paragraphs := []string{}
	doc.Find("article p, div.article-body p, div.content-body p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) > 20 {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n")
}
