package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bowling-booking-backend/internal/model"
)

// LaneResponse represents the API response for a single lane.
type LaneResponse struct {
	ID     int64          `json:"id"`
	Number string         `json:"number"`
	Type   model.LaneType `json:"type"`
}

// GetLanes handles GET /lanes.
func (h *Handler) GetLanes(c *gin.Context) {
	lanes, err := h.catalog.LanesOrderedByNumber(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	resp := make([]LaneResponse, 0, len(lanes))
	for _, l := range lanes {
		resp = append(resp, LaneResponse{ID: l.ID, Number: l.Number, Type: l.Type})
	}
	c.JSON(http.StatusOK, resp)
}
