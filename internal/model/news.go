package model

import "time"

// NewsItem is one article fetched for a ticker.
type NewsItem struct {
	Ticker      string    `json:"ticker"`
	Headline    string    `json:"headline"`
	Body        string    `json:"body,omitempty"`
	Source      string    `json:"source,omitempty"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// NewsCorpus maps tickers to their fetched news items. Ticker order is
// insertion order (= fetch order); item order within a ticker is fetch
// order too.
type NewsCorpus struct {
	Tickers []string              `json:"tickers"`
	Items   map[string][]NewsItem `json:"items"`
}

// NewNewsCorpus returns an empty corpus.
func NewNewsCorpus() *NewsCorpus {
	return &NewsCorpus{Items: make(map[string][]NewsItem)}
}

// Add appends items under a ticker, registering the ticker on first use.
// Adding an empty slice still registers the ticker, so a failed fetch
// shows up as a ticker with zero items rather than a missing key.
func (c *NewsCorpus) Add(ticker string, items []NewsItem) {
	if _, seen := c.Items[ticker]; !seen {
		c.Tickers = append(c.Tickers, ticker)
	}
	c.Items[ticker] = append(c.Items[ticker], items...)
}

// Size returns the total number of items across all tickers.
func (c *NewsCorpus) Size() int {
	n := 0
	for _, items := range c.Items {
		n += len(items)
	}
	return n
}

// Empty reports whether the corpus holds no items at all.
func (c *NewsCorpus) Empty() bool {
	return c.Size() == 0
}
