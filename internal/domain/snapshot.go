package domain

import (
	"fmt"
	"maps"
	"math"
	"time"
)

// Snapshot is one immutable rate table fetched for a base currency.
// The rates map is never exposed directly; Rates returns a copy.
type Snapshot struct {
	base  string
	asOf  time.Time
	rates map[string]float64
}

// NewSnapshot validates and normalizes a fetched rate table. Entries with a
// non-positive or non-finite value, or with quote equal to base, are dropped;
// an empty result after filtering is ErrEmptyRates.
func NewSnapshot(base string, asOf time.Time, rates map[string]float64) (Snapshot, error) {
	if !IsValidCode(base) {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, base)
	}

	filtered := make(map[string]float64, len(rates))
	for quote, value := range rates {
		if quote == base || !IsValidCode(quote) {
			continue
		}
		if value <= 0 || math.IsInf(value, 0) || math.IsNaN(value) {
			continue
		}
		filtered[quote] = value
	}
	if len(filtered) == 0 {
		return Snapshot{}, fmt.Errorf("%w: base %q", ErrEmptyRates, base)
	}

	return Snapshot{base: base, asOf: asOf, rates: filtered}, nil
}

func (s Snapshot) Base() string { return s.base }

func (s Snapshot) AsOf() time.Time { return s.asOf }

// Rate returns the value for a quote currency.
func (s Snapshot) Rate(quote string) (float64, bool) {
	v, ok := s.rates[quote]
	return v, ok
}

// Rates returns a copy of the rate table.
func (s Snapshot) Rates() map[string]float64 {
	return maps.Clone(s.rates)
}

// IsZero reports whether the snapshot was never populated.
func (s Snapshot) IsZero() bool { return s.base == "" }

// Age is the time elapsed since the provider considered the rates current.
func (s Snapshot) Age(now time.Time) time.Duration { return now.Sub(s.asOf) }

// IsValidCode reports whether code is a well-formed 3-letter uppercase currency code.
func IsValidCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}
