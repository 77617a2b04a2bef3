package handler

import (
	"net/http"
	"strconv"
	"time"

	"fxcache/internal/rate"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type GetLatestResponse struct {
	Base     string             `json:"base" example:"USD"`
	AsOf     time.Time          `json:"as_of"`
	Rates    map[string]float64 `json:"rates"`
	Degraded bool               `json:"degraded"`
	Warning  string             `json:"warning,omitempty"`
}

// GetLatest godoc
// @Summary Get the latest rate table for a base currency
// @Description Returns the freshest snapshot within the requested max age, refreshing from the provider when needed. A degraded response carries a stale snapshot served after a refresh failure.
// @Tags Rates
// @Produce json
// @Param base path string true "Base currency code" example(USD)
// @Param max_age_seconds query int false "Maximum acceptable snapshot age; 0 forces a refresh"
// @Success 200 {object} GetLatestResponse
// @Failure 400 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /rates/{base} [get]
func (h *Handler) GetLatest(w http.ResponseWriter, r *http.Request) {
	base, err := rate.NormalizeCode(chi.URLParam(r, "base"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	maxAge := h.defaultMaxAge
	if raw := r.URL.Query().Get("max_age_seconds"); raw != "" {
		seconds, parseErr := strconv.Atoi(raw)
		if parseErr != nil || seconds < 0 {
			writeError(w, http.StatusBadRequest, "max_age_seconds must be a non-negative integer")
			return
		}
		maxAge = time.Duration(seconds) * time.Second
	}

	res, err := h.service.GetLatest(r.Context(), base, maxAge)
	if err != nil {
		status, known := statusFromError(err)
		msg := err.Error()
		if !known {
			msg = "ups, couldn't get latest rates this time"
			logrus.WithError(err).WithFields(logrus.Fields{"handler": "GetLatest", "base": base}).Error(msg)
		}
		writeError(w, status, msg)
		return
	}

	body := GetLatestResponse{
		Base:     res.Snapshot.Base(),
		AsOf:     res.Snapshot.AsOf(),
		Rates:    res.Snapshot.Rates(),
		Degraded: res.Degraded,
	}
	if res.Warning != nil {
		body.Warning = res.Warning.Error()
	}
	writeJSON(w, body)
}
