package handler

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"tripledger/internal/ledger"
	"tripledger/internal/middleware"
)

// DriverHandler handles HTTP requests for the driver registry.
type DriverHandler struct {
	ledger *ledger.StateMachine
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(sm *ledger.StateMachine) *DriverHandler {
	return &DriverHandler{ledger: sm}
}

// RegisterDriverRequest is the HTTP request body for driver registration.
type RegisterDriverRequest struct {
	Driver string `json:"driver"`
}

// DriverStatusResponse is the HTTP response for registry mutations.
type DriverStatusResponse struct {
	Driver     string `json:"driver"`
	Registered bool   `json:"registered"`
}

// Register handles POST /v1/drivers
func (h *DriverHandler) Register(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "caller principal required"})
		return
	}

	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if !common.IsHexAddress(req.Driver) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed driver address"})
		return
	}
	driver := common.HexToAddress(req.Driver)

	if err := h.ledger.RegisterDriver(c.Request.Context(), caller, driver); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, DriverStatusResponse{Driver: driver.Hex(), Registered: true})
}

// Remove handles POST /v1/drivers/:address/remove
func (h *DriverHandler) Remove(c *gin.Context) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "caller principal required"})
		return
	}

	raw := c.Param("address")
	if !common.IsHexAddress(raw) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed driver address"})
		return
	}
	driver := common.HexToAddress(raw)

	if err := h.ledger.RemoveDriver(c.Request.Context(), caller, driver); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, DriverStatusResponse{Driver: driver.Hex(), Registered: false})
}

// GetAll handles GET /v1/drivers
func (h *DriverHandler) GetAll(c *gin.Context) {
	drivers := h.ledger.ListDrivers()

	response := make([]string, 0, len(drivers))
	for _, driver := range drivers {
		response = append(response, driver.Hex())
	}

	c.JSON(http.StatusOK, gin.H{"drivers": response})
}
