package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tripledger/internal/domain"
	"tripledger/internal/ledger"
	"tripledger/internal/middleware"
)

// FareHandler handles HTTP requests for fare rates and estimates.
type FareHandler struct {
	ledger *ledger.StateMachine
}

// NewFareHandler creates a new FareHandler.
func NewFareHandler(sm *ledger.StateMachine) *FareHandler {
	return &FareHandler{ledger: sm}
}

// FareRatesRequest is the HTTP request body for updating fare rates.
type FareRatesRequest struct {
	BaseFare      uint64 `json:"base_fare"`
	PerKmFare     uint64 `json:"per_km_fare"`
	PerMinuteFare uint64 `json:"per_minute_fare"`
}

// FareRatesResponse is the HTTP response carrying the current rate triple.
type FareRatesResponse struct {
	BaseFare      uint64 `json:"base_fare"`
	PerKmFare     uint64 `json:"per_km_fare"`
	PerMinuteFare uint64 `json:"per_minute_fare"`
}

// FareEstimateResponse is the HTTP response for a fare estimate.
type FareEstimateResponse struct {
	DistanceMeters  uint64 `json:"distance_meters"`
	DurationSeconds uint64 `json:"duration_seconds"`
	Fare            uint64 `json:"fare"`
}

// Update handles POST /v1/fares
func (h *FareHandler) Update(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "caller principal required"})
		return
	}

	var req FareRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	rates := domain.FareRates{
		Base:      req.BaseFare,
		PerKm:     req.PerKmFare,
		PerMinute: req.PerMinuteFare,
	}

	if err := h.ledger.UpdateFareRates(c.Request.Context(), caller, rates); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, FareRatesResponse{
		BaseFare:      rates.Base,
		PerKmFare:     rates.PerKm,
		PerMinuteFare: rates.PerMinute,
	})
}

// Get handles GET /v1/fares
func (h *FareHandler) Get(c *gin.Context) {
	rates := h.ledger.FareRates()

	respondJSON(c, http.StatusOK, FareRatesResponse{
		BaseFare:      rates.Base,
		PerKmFare:     rates.PerKm,
		PerMinuteFare: rates.PerMinute,
	})
}

// Estimate handles GET /v1/fares/estimate?distance_meters=&duration_seconds=
func (h *FareHandler) Estimate(c *gin.Context) {
	distance, err := strconv.ParseUint(c.Query("distance_meters"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid distance_meters"})
		return
	}

	duration, err := strconv.ParseUint(c.Query("duration_seconds"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid duration_seconds"})
		return
	}

	fare, err := h.ledger.CalculateFare(distance, duration)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, FareEstimateResponse{
		DistanceMeters:  distance,
		DurationSeconds: duration,
		Fare:            fare,
	})
}
