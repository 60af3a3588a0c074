package handler

import (
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"tripledger/internal/domain"
	"tripledger/internal/ledger"
	"tripledger/internal/middleware"
)

// TripHandler handles HTTP requests for the trip ledger.
type TripHandler struct {
	ledger *ledger.StateMachine
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(sm *ledger.StateMachine) *TripHandler {
	return &TripHandler{ledger: sm}
}

// RecordTripRequest is the HTTP request body for recording a trip.
type RecordTripRequest struct {
	DistanceMeters  uint64 `json:"distance_meters"`
	DurationSeconds uint64 `json:"duration_seconds"`
	DataHash        string `json:"data_hash"`
}

// TripResponse is the HTTP response for trip reads.
type TripResponse struct {
	TripID          uint64 `json:"trip_id"`
	Driver          string `json:"driver"`
	DistanceMeters  uint64 `json:"distance_meters"`
	DurationSeconds uint64 `json:"duration_seconds"`
	Fare            uint64 `json:"fare"`
	DataHash        string `json:"data_hash"`
	RecordedAt      string `json:"recorded_at"`
}

// RecordTripResponse is the HTTP response for a recorded trip.
type RecordTripResponse struct {
	TripID uint64 `json:"trip_id"`
	Fare   uint64 `json:"fare"`
}

// Record handles POST /v1/trips
func (h *TripHandler) Record(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "caller principal required"})
		return
	}

	var req RecordTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	dataHash, err := parseDataHash(req.DataHash)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "data_hash must be a 32-byte hex string"})
		return
	}

	trip, err := h.ledger.RecordTrip(c.Request.Context(), caller, req.DistanceMeters, req.DurationSeconds, dataHash)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, RecordTripResponse{TripID: trip.ID, Fare: trip.Fare})
}

// Get handles GET /v1/trips/:id
func (h *TripHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid trip id"})
		return
	}

	trip, err := h.ledger.GetTrip(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}

// GetAll handles GET /v1/trips
func (h *TripHandler) GetAll(c *gin.Context) {
	trips, err := h.ledger.ListTrips(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, tripResponse(trip))
	}

	c.JSON(http.StatusOK, response)
}

func tripResponse(trip *domain.Trip) TripResponse {
	return TripResponse{
		TripID:          trip.ID,
		Driver:          trip.Driver.Hex(),
		DistanceMeters:  trip.DistanceMeters,
		DurationSeconds: trip.DurationSeconds,
		Fare:            trip.Fare,
		DataHash:        trip.DataHash.Hex(),
		RecordedAt:      trip.RecordedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// parseDataHash decodes a 32-byte hex string, with or without 0x prefix.
// common.HexToHash pads and truncates silently, which would corrupt the
// caller's hash, so length is checked here first.
func parseDataHash(raw string) (common.Hash, error) {
	trimmed := strings.TrimPrefix(raw, "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return common.Hash{}, err
	}
	if len(decoded) != common.HashLength {
		return common.Hash{}, hex.ErrLength
	}
	return common.BytesToHash(decoded), nil
}
