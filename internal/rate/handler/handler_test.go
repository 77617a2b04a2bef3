package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fxcache/internal/domain"
	"fxcache/internal/rate"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct{ mock.Mock }

func (m *MockService) GetLatest(ctx context.Context, base string, maxAge time.Duration) (rate.Result, error) {
	args := m.Called(ctx, base, maxAge)
	res, _ := args.Get(0).(rate.Result)
	return res, args.Error(1)
}

func (m *MockService) GetHistory(ctx context.Context, base string, from, to time.Time) ([]domain.Snapshot, error) {
	args := m.Called(ctx, base, from, to)
	snapshots, _ := args.Get(0).([]domain.Snapshot)
	return snapshots, args.Error(1)
}

func (m *MockService) Convert(ctx context.Context, base, quote string, amount float64, maxAge time.Duration) (rate.Conversion, error) {
	args := m.Called(ctx, base, quote, amount, maxAge)
	conversion, _ := args.Get(0).(rate.Conversion)
	return conversion, args.Error(1)
}

type errorJSON struct {
	Error string `json:"error"`
}

func newTestRouter(h *Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Get("/rates/{base}", h.GetLatest)
	router.Get("/rates/{base}/history", h.GetHistory)
	router.Get("/rates/{base}/{quote}/convert", h.Convert)
	return router
}

func mustTestSnapshot(t *testing.T, base string, asOf time.Time, rates map[string]float64) domain.Snapshot {
	t.Helper()
	s, err := domain.NewSnapshot(base, asOf, rates)
	require.NoError(t, err)
	return s
}

// --- GetLatest ---

func TestHandler_GetLatest_Success(t *testing.T) {
	mockService := new(MockService)
	h := NewRateHandler(mockService, 5*time.Minute)

	asOf := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	snapshot := mustTestSnapshot(t, "USD", asOf, map[string]float64{"EUR": 0.92})
	mockService.On("GetLatest", mock.Anything, "USD", 5*time.Minute).Return(rate.Result{Snapshot: snapshot}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rates/usd", nil)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body GetLatestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "USD", body.Base)
	require.False(t, body.Degraded)
	require.Empty(t, body.Warning)
	require.InDelta(t, 0.92, body.Rates["EUR"], 1e-9)
	mockService.AssertExpectations(t)
}

func TestHandler_GetLatest_MaxAgeOverride(t *testing.T) {
	mockService := new(MockService)
	h := NewRateHandler(mockService, 5*time.Minute)

	asOf := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	snapshot := mustTestSnapshot(t, "USD", asOf, map[string]float64{"EUR": 0.92})
	mockService.On("GetLatest", mock.Anything, "USD", time.Duration(0)).Return(rate.Result{Snapshot: snapshot}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rates/USD?max_age_seconds=0", nil)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	mockService.AssertExpectations(t)
}

func TestHandler_GetLatest_BadMaxAge(t *testing.T) {
	mockService := new(MockService)
	h := NewRateHandler(mockService, 5*time.Minute)

	for _, q := range []string{"max_age_seconds=-1", "max_age_seconds=abc"} {
		req := httptest.NewRequest(http.MethodGet, "/rates/USD?"+q, nil)
		rec := httptest.NewRecorder()
		newTestRouter(h).ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
	mockService.AssertNotCalled(t, "GetLatest", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_GetLatest_MalformedCode(t *testing.T) {
	mockService := new(MockService)
	h := NewRateHandler(mockService, 5*time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/rates/US1", nil)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, rate.ErrCodeMalformed.Error(), body.Error)
	mockService.AssertNotCalled(t, "GetLatest", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_GetLatest_DegradedResponseCarriesWarning(t *testing.T) {
	mockService := new(MockService)
	h := NewRateHandler(mockService, 5*time.Minute)

	asOf := time.Date(2025, 6, 1, 11, 50, 0, 0, time.UTC)
	snapshot := mustTestSnapshot(t, "USD", asOf, map[string]float64{"EUR": 0.92})
	mockService.On("GetLatest", mock.Anything, "USD", 5*time.Minute).
		Return(rate.Result{Snapshot: snapshot, Degraded: true, Warning: domain.ErrProviderUnavailable}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rates/USD", nil)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body GetLatestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Degraded)
	require.Contains(t, body.Warning, domain.ErrProviderUnavailable.Error())
}

func TestHandler_GetLatest_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{name: "provider down", serviceErr: domain.ErrProviderUnavailable, wantStatus: http.StatusServiceUnavailable},
		{name: "stale exceeded", serviceErr: domain.ErrStaleDataExceeded, wantStatus: http.StatusServiceUnavailable},
		{name: "store down", serviceErr: domain.ErrStoreUnavailable, wantStatus: http.StatusServiceUnavailable},
		{name: "invalid currency", serviceErr: domain.ErrInvalidCurrency, wantStatus: http.StatusBadRequest},
		{name: "unexpected", serviceErr: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := new(MockService)
			h := NewRateHandler(mockService, 5*time.Minute)
			mockService.On("GetLatest", mock.Anything, "USD", 5*time.Minute).Return(rate.Result{}, tc.serviceErr).Once()

			req := httptest.NewRequest(http.MethodGet, "/rates/USD", nil)
			rec := httptest.NewRecorder()
			newTestRouter(h).ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

// --- GetHistory ---

func TestHandler_GetHistory_Success(t *testing.T) {
	mockService := new(MockService)
	h := NewRateHandler(mockService, 5*time.Minute)

	t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	s1 := mustTestSnapshot(t, "EUR", t1, map[string]float64{"USD": 1.10})
	s2 := mustTestSnapshot(t, "EUR", t2, map[string]float64{"USD": 1.12})
	mockService.On("GetHistory", mock.Anything, "EUR", t1, t2).Return([]domain.Snapshot{s2, s1}, nil).Once()

	url := "/rates/EUR/history?from=" + t1.Format(time.RFC3339) + "&to=" + t2.Format(time.RFC3339)
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body GetHistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "EUR", body.Base)
	require.Len(t, body.Snapshots, 2)
	require.Equal(t, t2.Unix(), body.Snapshots[0].AsOf.Unix())
	require.Equal(t, t1.Unix(), body.Snapshots[1].AsOf.Unix())
	mockService.AssertExpectations(t)
}

func TestHandler_GetHistory_BadTimestamps(t *testing.T) {
	mockService := new(MockService)
	h := NewRateHandler(mockService, 5*time.Minute)

	urls := []string{
		"/rates/EUR/history",
		"/rates/EUR/history?from=2025-06-01T10:00:00Z",
		"/rates/EUR/history?from=notatime&to=2025-06-01T10:00:00Z",
	}
	for _, url := range urls {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		newTestRouter(h).ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, url)
	}
	mockService.AssertNotCalled(t, "GetHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_GetHistory_InvalidRangeFromService(t *testing.T) {
	mockService := new(MockService)
	h := NewRateHandler(mockService, 5*time.Minute)

	mockService.On("GetHistory", mock.Anything, "EUR", mock.Anything, mock.Anything).
		Return(nil, domain.ErrInvalidTimeRange).Once()

	url := "/rates/EUR/history?from=2025-06-02T10:00:00Z&to=2025-06-01T10:00:00Z"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Convert ---

func TestHandler_Convert_Success(t *testing.T) {
	mockService := new(MockService)
	h := NewRateHandler(mockService, 5*time.Minute)

	conversion := rate.Conversion{Base: "USD", Quote: "EUR", Amount: 100, Rate: 0.92, Converted: 92}
	mockService.On("Convert", mock.Anything, "USD", "EUR", 100.0, 5*time.Minute).Return(conversion, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rates/USD/EUR/convert?amount=100", nil)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body ConvertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.InDelta(t, 92.0, body.Converted, 1e-9)
	require.False(t, body.Degraded)
	mockService.AssertExpectations(t)
}

func TestHandler_Convert_BadAmount(t *testing.T) {
	mockService := new(MockService)
	h := NewRateHandler(mockService, 5*time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/rates/USD/EUR/convert?amount=lots", nil)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	mockService.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Convert_RateNotFound(t *testing.T) {
	mockService := new(MockService)
	h := NewRateHandler(mockService, 5*time.Minute)

	mockService.On("Convert", mock.Anything, "USD", "JPY", 10.0, 5*time.Minute).
		Return(rate.Conversion{}, domain.ErrRateNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/rates/USD/JPY/convert?amount=10", nil)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
