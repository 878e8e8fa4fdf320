package market

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"harvest-advisor/internal/logger"
	"harvest-advisor/internal/types"
)

// Scraper collects recent headlines for a symbol from financial news sources.
type Scraper struct {
	sources []newsSource
	timeout time.Duration
}

type newsSource struct {
	Name       string
	BaseURL    string
	SearchPath string // "{symbol}" is replaced with the ticker
	Selectors  articleSelectors
	RateLimit  time.Duration
}

type articleSelectors struct {
	ArticleContainer string
	Title            string
	URL              string
	Content          string
	PublishedAt      string
}

func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		sources: defaultSources(),
		timeout: timeout,
	}
}

func defaultSources() []newsSource {
	return []newsSource{
		{
			Name:       "YahooFinance",
			BaseURL:    "https://finance.yahoo.com",
			SearchPath: "/quote/{symbol}/news",
			Selectors: articleSelectors{
				ArticleContainer: "li.stream-item",
				Title:            "h3",
				URL:              "a",
				Content:          "p",
				PublishedAt:      "div.publishing",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "MarketWatch",
			BaseURL:    "https://www.marketwatch.com",
			SearchPath: "/investing/stock/{symbol}",
			Selectors: articleSelectors{
				ArticleContainer: "div.article__content",
				Title:            "h3.article__headline a",
				URL:              "h3.article__headline a",
				Content:          "p.article__summary",
				PublishedAt:      "span.article__timestamp",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// ScrapeHeadlines fetches articles for a symbol from all configured sources.
func (s *Scraper) ScrapeHeadlines(ctx context.Context, symbol string, maxArticles int) ([]types.NewsArticle, error) {
	logger.Debug(ctx, "Starting headline scraping", "symbol", symbol, "sources", len(s.sources))

	all := []types.NewsArticle{}
	perSource := maxArticles / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	for _, source := range s.sources {
		articles, err := s.scrapeSource(ctx, source, symbol, perSource)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape source", err, "source", source.Name, "symbol", symbol)
			continue
		}
		all = append(all, articles...)
		time.Sleep(source.RateLimit)
	}

	// Google News catches tickers the primary sources miss.
	if len(all) == 0 {
		googled, err := s.scrapeGoogleNews(ctx, symbol, maxArticles)
		if err != nil {
			logger.ErrorWithErr(ctx, "Google News fallback failed", err, "symbol", symbol)
		} else {
			all = googled
		}
	}

	logger.Info(ctx, "Headline scraping completed", "symbol", symbol, "articles", len(all))
	return all, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, source newsSource, symbol string, maxArticles int) ([]types.NewsArticle, error) {
	articles := []types.NewsArticle{}

	c := colly.NewCollector(
		colly.AllowedDomains(hostOf(source.BaseURL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(source.Selectors.ArticleContainer, func(e *colly.HTMLElement) {
		if len(articles) >= maxArticles {
			return
		}

		title := strings.TrimSpace(e.ChildText(source.Selectors.Title))
		if title == "" {
			return
		}

		articleURL := e.ChildAttr(source.Selectors.URL, "href")
		if articleURL != "" && !strings.HasPrefix(articleURL, "http") {
			articleURL = source.BaseURL + articleURL
		}

		articles = append(articles, types.NewsArticle{
			Title:       title,
			URL:         articleURL,
			Content:     strings.TrimSpace(e.ChildText(source.Selectors.Content)),
			Source:      source.Name,
			PublishedAt: strings.TrimSpace(e.ChildText(source.Selectors.PublishedAt)),
			Symbol:      symbol,
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scraping error", err, "source", source.Name, "url", r.Request.URL.String())
	})

	searchURL := source.BaseURL + strings.ReplaceAll(source.SearchPath, "{symbol}", strings.ToUpper(symbol))
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", searchURL, err)
	}
	c.Wait()

	return articles, nil
}

func (s *Scraper) scrapeGoogleNews(ctx context.Context, symbol string, maxArticles int) ([]types.NewsArticle, error) {
	articles := []types.NewsArticle{}

	c := colly.NewCollector(
		colly.AllowedDomains("news.google.com", "www.google.com"),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	})

	c.OnHTML("article", func(e *colly.HTMLElement) {
		if len(articles) >= maxArticles {
			return
		}
		title := e.ChildText("h3, h4")
		link := e.ChildAttr("a", "href")
		if title == "" || link == "" {
			return
		}
		if strings.HasPrefix(link, "./articles/") {
			link = "https://news.google.com" + link[1:]
		}
		articles = append(articles, types.NewsArticle{
			Title:  title,
			URL:    link,
			Source: "GoogleNews",
			Symbol: symbol,
		})
	})

	query := url.QueryEscape(symbol + " stock news")
	searchURL := fmt.Sprintf("https://news.google.com/search?q=%s&hl=en-US&gl=US&ceid=US:en", query)
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("failed to scrape Google News: %w", err)
	}
	c.Wait()

	return articles, nil
}

func hostOf(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
