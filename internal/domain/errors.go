package domain

import "errors"

var (
	ErrInvalidCurrency     = errors.New("invalid currency code")
	ErrProviderUnavailable = errors.New("rate provider unavailable")
	ErrStoreUnavailable    = errors.New("rate store unavailable")
	ErrStaleDataExceeded   = errors.New("no snapshot within stale limit")
	ErrSnapshotNotFound    = errors.New("snapshot not found")
	ErrRateNotFound        = errors.New("rate not found")
	ErrEmptyRates          = errors.New("snapshot has no usable rates")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidTimeRange    = errors.New("invalid time range")
)
