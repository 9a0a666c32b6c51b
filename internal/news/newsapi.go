package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shanmc/promptduel/internal/cache"
	"github.com/shanmc/promptduel/internal/model"
	"github.com/shanmc/promptduel/internal/util"
)

const defaultNewsAPIBaseURL = "https://newsapi.org"

// NewsAPIClient fetches per-ticker articles from newsapi.org. Responses
// are cached per ticker per day so same-day re-runs don't re-spend quota.
type NewsAPIClient struct {
	apiKey     string
	baseURL    string
	pageSize   int
	httpClient *http.Client
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewNewsAPIClient creates a new NewsAPI client. Pass a nil cache to
// disable caching.
func NewNewsAPIClient(cfg model.NewsConfig, c cache.Cache) (*NewsAPIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("NewsAPI key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultNewsAPIBaseURL
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 3
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &NewsAPIClient{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		pageSize:   pageSize,
		httpClient: util.NewHTTPClient(timeout, "", ""),
		cache:      c,
		cacheTTL:   cfg.CacheTTL,
	}, nil
}

// Name returns the source name
func (c *NewsAPIClient) Name() string {
	return "newsapi"
}

// Fetch returns recent articles mentioning the ticker
func (c *NewsAPIClient) Fetch(ctx context.Context, ticker string) ([]model.NewsItem, error) {
	key := cache.TickerKey(ticker, time.Now())
	if c.cache != nil {
		if raw, found := c.cache.Get(key); found {
			return c.decode(ticker, raw)
		}
	}

	query := url.Values{}
	query.Set("q", ticker+" financial news")
	query.Set("language", "en")
	query.Set("sortBy", "publishedAt")
	query.Set("pageSize", fmt.Sprintf("%d", c.pageSize))
	query.Set("apiKey", c.apiKey)

	reqURL := fmt.Sprintf("%s/v2/everything?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("newsapi read: %w", err)
	}

	items, err := c.decode(ticker, raw)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		_ = c.cache.Set(key, raw, c.cacheTTL)
	}

	return items, nil
}

func (c *NewsAPIClient) decode(ticker string, raw []byte) ([]model.NewsItem, error) {
	var body newsAPIResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("newsapi decode: %w", err)
	}

	if body.Status != "ok" {
		return nil, fmt.Errorf("newsapi error: %s (%s)", body.Code, body.Message)
	}

	items := make([]model.NewsItem, 0, len(body.Articles))
	for _, a := range body.Articles {
		publishedAt, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			publishedAt = time.Time{}
		}

		items = append(items, model.NewsItem{
			Ticker:      ticker,
			Headline:    a.Title,
			Body:        a.Description,
			Source:      a.Source.Name,
			URL:         a.URL,
			PublishedAt: publishedAt,
		})
	}

	return items, nil
}

// NewsAPI response structures
type newsAPIResponse struct {
	Status   string           `json:"status"`
	Code     string           `json:"code,omitempty"`
	Message  string           `json:"message,omitempty"`
	Articles []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}
