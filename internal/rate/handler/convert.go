package handler

import (
	"net/http"
	"strconv"

	"fxcache/internal/rate"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type ConvertResponse struct {
	Base      string  `json:"base" example:"USD"`
	Quote     string  `json:"quote" example:"EUR"`
	Amount    float64 `json:"amount" example:"100"`
	Rate      float64 `json:"rate" example:"0.92"`
	Converted float64 `json:"converted" example:"92"`
	Degraded  bool    `json:"degraded"`
}

// Convert godoc
// @Summary Convert an amount between two currencies
// @Description Applies the latest cached base/quote rate to the given amount.
// @Tags Rates
// @Produce json
// @Param base path string true "Base currency code" example(USD)
// @Param quote path string true "Quote currency code" example(EUR)
// @Param amount query number true "Amount in base currency, positive"
// @Success 200 {object} ConvertResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /rates/{base}/{quote}/convert [get]
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	base, err := rate.NormalizeCode(chi.URLParam(r, "base"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	quote, err := rate.NormalizeCode(chi.URLParam(r, "quote"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a number")
		return
	}

	conversion, err := h.service.Convert(r.Context(), base, quote, amount, h.defaultMaxAge)
	if err != nil {
		status, known := statusFromError(err)
		msg := err.Error()
		if !known {
			msg = "ups, couldn't convert this time"
			logrus.WithError(err).WithFields(logrus.Fields{"handler": "Convert", "base": base, "quote": quote}).Error(msg)
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, ConvertResponse{
		Base:      conversion.Base,
		Quote:     conversion.Quote,
		Amount:    conversion.Amount,
		Rate:      conversion.Rate,
		Converted: conversion.Converted,
		Degraded:  conversion.Degraded,
	})
}
