package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tripledger/internal/ledger"
)

// EventHandler handles HTTP requests for the notification log.
type EventHandler struct {
	ledger *ledger.StateMachine
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(sm *ledger.StateMachine) *EventHandler {
	return &EventHandler{ledger: sm}
}

// EventResponse is the HTTP shape of one notification log entry.
type EventResponse struct {
	Sequence  uint64         `json:"sequence"`
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	EmittedAt string         `json:"emitted_at"`
}

const defaultEventLimit = 100

// GetAll handles GET /v1/events?since=&limit=
func (h *EventHandler) GetAll(c *gin.Context) {
	var since uint64
	if raw := c.Query("since"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid since"})
			return
		}
		since = parsed
	}

	limit := defaultEventLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	events, err := h.ledger.ListEvents(c.Request.Context(), since, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]EventResponse, 0, len(events))
	for _, event := range events {
		response = append(response, EventResponse{
			Sequence:  event.Sequence,
			ID:        event.ID,
			Type:      string(event.Type),
			Payload:   event.Payload,
			EmittedAt: event.EmittedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	c.JSON(http.StatusOK, response)
}
