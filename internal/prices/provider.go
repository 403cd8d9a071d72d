// Package prices defines the price-oracle contract the pipeline depends
// on. Real oracle implementations live outside the core; a static provider
// and a caching wrapper are enough for wiring and tests.
package prices

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Provider resolves the USD price of a token at a block. The second return
// reports whether a price is known; an unknown price is not an error.
type Provider interface {
	PriceForToken(ctx context.Context, token string, blockNumber uint64) (float64, bool, error)
}

// Static serves fixed per-token prices, typically from configuration.
type Static struct {
	prices map[string]float64
}

func NewStatic(prices map[string]float64) *Static {
	normalized := make(map[string]float64, len(prices))
	for token, price := range prices {
		normalized[strings.ToLower(token)] = price
	}
	return &Static{prices: normalized}
}

func (s *Static) PriceForToken(_ context.Context, token string, _ uint64) (float64, bool, error) {
	price, ok := s.prices[strings.ToLower(token)]
	return price, ok, nil
}

// Cached wraps a provider with a (token, block) cache so one block's
// enrichment does not hammer the oracle once per log.
type Cached struct {
	next Provider

	mu    sync.RWMutex
	cache map[string]cachedPrice
}

type cachedPrice struct {
	price float64
	known bool
}

func NewCached(next Provider) *Cached {
	return &Cached{next: next, cache: make(map[string]cachedPrice)}
}

func (c *Cached) PriceForToken(ctx context.Context, token string, blockNumber uint64) (float64, bool, error) {
	key := fmt.Sprintf("%s:%d", strings.ToLower(token), blockNumber)

	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return entry.price, entry.known, nil
	}

	price, known, err := c.next.PriceForToken(ctx, token, blockNumber)
	if err != nil {
		return 0, false, err
	}
	c.mu.Lock()
	c.cache[key] = cachedPrice{price: price, known: known}
	c.mu.Unlock()
	return price, known, nil
}
