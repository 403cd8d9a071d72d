package prices

import (
	"context"
	"testing"
)

const farmAddr = "0xa0246c9032bc3a600820415ae600c6388619a14d"

type countingProvider struct {
	next  Provider
	calls int
}

func (c *countingProvider) PriceForToken(ctx context.Context, token string, blockNumber uint64) (float64, bool, error) {
	c.calls++
	return c.next.PriceForToken(ctx, token, blockNumber)
}

func TestStaticIsCaseInsensitive(t *testing.T) {
	provider := NewStatic(map[string]float64{"0xA0246C9032BC3A600820415AE600C6388619A14D": 2.5})

	price, known, err := provider.PriceForToken(context.Background(), farmAddr, 100)
	if err != nil || !known || price != 2.5 {
		t.Fatalf("price = %v, known = %v, err = %v", price, known, err)
	}

	_, known, err = provider.PriceForToken(context.Background(), "0xdead", 100)
	if err != nil || known {
		t.Fatalf("unknown token: known = %v, err = %v", known, err)
	}
}

func TestCachedHitsBackendOncePerBlock(t *testing.T) {
	backend := &countingProvider{next: NewStatic(map[string]float64{farmAddr: 2.5})}
	cached := NewCached(backend)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		price, known, err := cached.PriceForToken(ctx, farmAddr, 100)
		if err != nil || !known || price != 2.5 {
			t.Fatalf("price = %v, known = %v, err = %v", price, known, err)
		}
	}
	if backend.calls != 1 {
		t.Fatalf("backend calls = %d, want 1", backend.calls)
	}

	// a different block is a different cache entry
	if _, _, err := cached.PriceForToken(ctx, farmAddr, 101); err != nil {
		t.Fatalf("err = %v", err)
	}
	if backend.calls != 2 {
		t.Fatalf("backend calls = %d, want 2", backend.calls)
	}
}

func TestCachedRemembersUnknownTokens(t *testing.T) {
	backend := &countingProvider{next: NewStatic(nil)}
	cached := NewCached(backend)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, known, err := cached.PriceForToken(ctx, "0xdead", 100)
		if err != nil || known {
			t.Fatalf("known = %v, err = %v", known, err)
		}
	}
	if backend.calls != 1 {
		t.Fatalf("backend calls = %d, want 1", backend.calls)
	}
}
