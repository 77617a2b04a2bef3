package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewSnapshot_FiltersUnusableEntries(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s, err := NewSnapshot("USD", asOf, map[string]float64{
		"EUR": 0.9,
		"USD": 1.0,              // base itself
		"GBP": -0.8,             // non-positive
		"JPY": math.Inf(1),      // non-finite
		"CHF": math.NaN(),       // non-finite
		"xx":  1.5,              // malformed code
		"AUD": 1.52,
	})

	require.NoError(t, err)
	require.Equal(t, map[string]float64{"EUR": 0.9, "AUD": 1.52}, s.Rates())
	require.Equal(t, "USD", s.Base())
	require.Equal(t, asOf, s.AsOf())
}

func TestNewSnapshot_EmptyAfterFiltering(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := NewSnapshot("USD", asOf, map[string]float64{"USD": 1.0, "EUR": -1})
	require.ErrorIs(t, err, ErrEmptyRates)

	_, err = NewSnapshot("USD", asOf, nil)
	require.ErrorIs(t, err, ErrEmptyRates)
}

func TestNewSnapshot_RejectsMalformedBase(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, base := range []string{"", "usd", "USDT", "U1D"} {
		_, err := NewSnapshot(base, asOf, map[string]float64{"EUR": 0.9})
		require.ErrorIs(t, err, ErrInvalidCurrency)
	}
}

func TestSnapshot_RatesReturnsACopy(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s, err := NewSnapshot("USD", asOf, map[string]float64{"EUR": 0.9})
	require.NoError(t, err)

	view := s.Rates()
	view["EUR"] = 42
	view["XXX"] = 1

	fresh := s.Rates()
	require.Equal(t, map[string]float64{"EUR": 0.9}, fresh)

	v, ok := s.Rate("EUR")
	require.True(t, ok)
	require.InDelta(t, 0.9, v, 1e-9)
}

func TestSnapshot_AgeAndZero(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s, err := NewSnapshot("USD", asOf, map[string]float64{"EUR": 0.9})
	require.NoError(t, err)

	require.Equal(t, 10*time.Minute, s.Age(asOf.Add(10*time.Minute)))
	require.False(t, s.IsZero())
	require.True(t, Snapshot{}.IsZero())
}

func TestIsValidCode(t *testing.T) {
	valid := []string{"USD", "EUR", "ZWL"}
	invalid := []string{"", "us", "usd", "USDT", "U5D", "U-D"}

	for _, code := range valid {
		require.True(t, IsValidCode(code), code)
	}
	for _, code := range invalid {
		require.False(t, IsValidCode(code), code)
	}
}
