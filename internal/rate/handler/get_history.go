package handler

import (
	"net/http"
	"time"

	"fxcache/internal/rate"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type HistorySnapshot struct {
	AsOf  time.Time          `json:"as_of"`
	Rates map[string]float64 `json:"rates"`
}

type GetHistoryResponse struct {
	Base      string            `json:"base" example:"EUR"`
	Snapshots []HistorySnapshot `json:"snapshots"`
}

// GetHistory godoc
// @Summary Get persisted rate snapshots for a time range
// @Description Returns all persisted snapshots with asOf inside [from, to], newest first. Never contacts the provider.
// @Tags Rates
// @Produce json
// @Param base path string true "Base currency code" example(EUR)
// @Param from query string true "Range start, RFC3339"
// @Param to query string true "Range end, RFC3339"
// @Success 200 {object} GetHistoryResponse
// @Failure 400 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /rates/{base}/history [get]
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	base, err := rate.NormalizeCode(chi.URLParam(r, "base"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be an RFC3339 timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must be an RFC3339 timestamp")
		return
	}

	snapshots, err := h.service.GetHistory(r.Context(), base, from, to)
	if err != nil {
		status, known := statusFromError(err)
		msg := err.Error()
		if !known {
			msg = "ups, couldn't get rate history this time"
			logrus.WithError(err).WithFields(logrus.Fields{"handler": "GetHistory", "base": base}).Error(msg)
		}
		writeError(w, status, msg)
		return
	}

	body := GetHistoryResponse{Base: base, Snapshots: make([]HistorySnapshot, 0, len(snapshots))}
	for _, s := range snapshots {
		body.Snapshots = append(body.Snapshots, HistorySnapshot{AsOf: s.AsOf(), Rates: s.Rates()})
	}
	writeJSON(w, body)
}
