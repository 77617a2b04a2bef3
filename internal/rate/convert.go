package rate

import (
	"context"
	"fmt"
	"math"
	"time"

	"fxcache/internal/domain"
)

// Conversion is the outcome of converting an amount between two currencies
// using the latest cached rate table.
type Conversion struct {
	Base      string
	Quote     string
	Amount    float64
	Rate      float64
	Converted float64
	Degraded  bool
}

// Convert resolves the base/quote rate through the snapshot cache and applies
// it to amount. Pair rates derived from fresh snapshots are memoized in the
// pair cache with a TTL of maxAge; degraded rates are never memoized.
func (c *Cache) Convert(ctx context.Context, base, quote string, amount float64, maxAge time.Duration) (Conversion, error) {
	if !domain.IsValidCode(base) {
		return Conversion{}, fmt.Errorf("%w: %q", domain.ErrInvalidCurrency, base)
	}
	if !domain.IsValidCode(quote) {
		return Conversion{}, fmt.Errorf("%w: %q", domain.ErrInvalidCurrency, quote)
	}
	if base == quote {
		return Conversion{}, fmt.Errorf("%w: base and quote must be different", domain.ErrInvalidCurrency)
	}
	if amount <= 0 || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return Conversion{}, fmt.Errorf("%w: %v", domain.ErrInvalidAmount, amount)
	}

	if c.pairs != nil {
		if value, ok := c.pairs.Get(base, quote); ok {
			return Conversion{
				Base:      base,
				Quote:     quote,
				Amount:    amount,
				Rate:      value,
				Converted: amount * value,
			}, nil
		}
	}

	res, err := c.GetLatest(ctx, base, maxAge)
	if err != nil {
		return Conversion{}, err
	}

	value, ok := res.Snapshot.Rate(quote)
	if !ok {
		return Conversion{}, fmt.Errorf("%w: no rate for %s/%s in latest snapshot", domain.ErrRateNotFound, base, quote)
	}

	if c.pairs != nil && !res.Degraded {
		c.pairs.Set(base, quote, value, maxAge)
	}

	return Conversion{
		Base:      base,
		Quote:     quote,
		Amount:    amount,
		Rate:      value,
		Converted: amount * value,
		Degraded:  res.Degraded,
	}, nil
}
