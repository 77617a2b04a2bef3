package adapters

import (
	"context"
	"time"

	"fxcache/internal/domain"
)

type RateClient interface {
	FetchRates(ctx context.Context, base string) (domain.Snapshot, error)
}

type RateStore interface {
	Save(ctx context.Context, snapshot domain.Snapshot) error
	FindLatest(ctx context.Context, base string) (domain.Snapshot, error)
	FindRange(ctx context.Context, base string, from, to time.Time) ([]domain.Snapshot, error)
}

type PairCache interface {
	Get(base, quote string) (float64, bool)
	Set(base, quote string, value float64, ttl time.Duration)
}
