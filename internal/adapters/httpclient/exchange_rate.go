package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fxcache/internal/domain"
)

type ExchangeRateClient struct {
	http    *http.Client
	baseURL string
	now     func() time.Time
}

type apiResponse struct {
	Result             string             `json:"result"`
	ErrorType          string             `json:"error-type"`
	BaseCode           string             `json:"base_code"`
	TimeLastUpdateUnix int64              `json:"time_last_update_unix"`
	ConversionRates    map[string]float64 `json:"conversion_rates"`
}

// FetchRates requests the full rate table for a base currency. The provider's
// own update timestamp becomes the snapshot's asOf; responses without one get
// the local clock. No retries: a failed attempt is reported once.
func (c *ExchangeRateClient) FetchRates(ctx context.Context, base string) (domain.Snapshot, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: failed to parse base URL: %v", domain.ErrProviderUnavailable, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + base

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: failed to create request for currency %q: %v", domain.ErrProviderUnavailable, base, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: request for currency %q failed: %v", domain.ErrProviderUnavailable, base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
		return domain.Snapshot{}, fmt.Errorf("%w: provider rejected currency %q: %s", domain.ErrInvalidCurrency, base, resp.Status)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Snapshot{}, fmt.Errorf("%w: unexpected status code %d for currency %q", domain.ErrProviderUnavailable, resp.StatusCode, base)
	}

	var body apiResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: failed to decode response for currency %q: %v", domain.ErrProviderUnavailable, base, err)
	}

	if body.Result != "success" {
		if body.ErrorType == "unsupported-code" {
			return domain.Snapshot{}, fmt.Errorf("%w: provider does not support currency %q", domain.ErrInvalidCurrency, base)
		}
		return domain.Snapshot{}, fmt.Errorf("%w: api returned non-success result for currency %q: %s", domain.ErrProviderUnavailable, base, body.Result)
	}

	asOf := c.now()
	if body.TimeLastUpdateUnix > 0 {
		asOf = time.Unix(body.TimeLastUpdateUnix, 0).UTC()
	}

	snapshot, err := domain.NewSnapshot(base, asOf, body.ConversionRates)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: currency %q: %v", domain.ErrProviderUnavailable, base, err)
	}
	return snapshot, nil
}

func NewExchangeRateClient(httpClient *http.Client, baseURL string) *ExchangeRateClient {
	return &ExchangeRateClient{http: httpClient, baseURL: baseURL, now: time.Now}
}
