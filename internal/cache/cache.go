package cache

import (
	"fmt"
	"time"
)

// Cache defines the interface for caching fetched news payloads.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// TickerKey generates a cache key for one ticker's news on a given day.
// Keying by day keeps repeated same-day runs from re-spending quota while
// guaranteeing a fresh fetch the next day.
func TickerKey(ticker string, day time.Time) string {
	return fmt.Sprintf("promptduel:news:v1:%s:%s", ticker, day.UTC().Format("2006-01-02"))
}
