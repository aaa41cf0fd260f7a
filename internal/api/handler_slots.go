package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bowling-booking-backend/internal/apperror"
	"bowling-booking-backend/internal/auth"
	"bowling-booking-backend/internal/model"
	"bowling-booking-backend/internal/parse"
	"bowling-booking-backend/internal/store"
)

// SlotResponse represents a price slot after an update.
type SlotResponse struct {
	ID    int64   `json:"id"`
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}

type updateSlotPriceRequest struct {
	Price *float64 `json:"price" binding:"required"`
}

// UpdateSlotPrice handles PATCH /infrastructure/slots/:slot_id. Bookings already made keep
// the total they were priced at.
func (h *Handler) UpdateSlotPrice(c *gin.Context) {
	p, ok := h.authorize(c, auth.OwnerGroup...)
	if !ok {
		return
	}
	id, ok := h.idParam(c, "slot_id", "slot")
	if !ok {
		return
	}
	var req updateSlotPriceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cents := parse.Cents(*req.Price)
	if cents < 0 {
		h.renderError(c, apperror.InvalidInput("Price must not be negative"))
		return
	}

	slot, err := h.store.UpdatePriceSlotPrice(c.Request.Context(), id, cents)
	if errors.Is(err, store.ErrNotFound) {
		h.renderError(c, apperror.NotFound("Slot"))
		return
	}
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.catalog.Flush()

	h.log.Info("slot price updated",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("price_cents", slot.PriceCents),
		zap.Int64("owner_id", p.UserID))
	c.JSON(http.StatusOK, SlotResponse{ID: slot.ID, Time: slot.TimeRange(), Price: model.Amount(slot.PriceCents)})
}
