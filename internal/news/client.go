package news

import (
	"context"

	"github.com/shanmc/promptduel/internal/model"
)

// Client defines the interface for news sources. A fetch fails per-call,
// never partially: on error the item slice is nil.
type Client interface {
	// Name returns the source name
	Name() string

	// Fetch returns recent news items for one ticker
	Fetch(ctx context.Context, ticker string) ([]model.NewsItem, error)
}
