package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fxcache/internal/domain"
	"fxcache/internal/rate"
)

type Service interface {
	GetLatest(ctx context.Context, base string, maxAge time.Duration) (rate.Result, error)
	GetHistory(ctx context.Context, base string, from, to time.Time) ([]domain.Snapshot, error)
	Convert(ctx context.Context, base, quote string, amount float64, maxAge time.Duration) (rate.Conversion, error)
}

type Handler struct {
	service       Service
	defaultMaxAge time.Duration
}

func NewRateHandler(service Service, defaultMaxAge time.Duration) *Handler {
	return &Handler{service: service, defaultMaxAge: defaultMaxAge}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: errorMsg,
	})
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}

// statusFromError maps domain failures to HTTP codes; unknown errors fall
// through to 500 and are logged by the caller.
func statusFromError(err error) (int, bool) {
	switch {
	case errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrInvalidTimeRange),
		errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, true
	case errors.Is(err, domain.ErrRateNotFound),
		errors.Is(err, domain.ErrSnapshotNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, domain.ErrProviderUnavailable),
		errors.Is(err, domain.ErrStaleDataExceeded),
		errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, true
	}
	return http.StatusInternalServerError, false
}
