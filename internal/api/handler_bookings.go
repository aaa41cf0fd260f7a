package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bowling-booking-backend/internal/auth"
	"bowling-booking-backend/internal/lifecycle"
	"bowling-booking-backend/internal/model"
	"bowling-booking-backend/internal/reservation"
	"bowling-booking-backend/internal/store"
)

// BookingItemResponse is one reserved cell.
type BookingItemResponse struct {
	ID          int64   `json:"id"`
	PriceSlotID int64   `json:"price_slot_id"`
	Time        string  `json:"time,omitempty"`
	Price       float64 `json:"price"`
}

// BookingResponse is the API view of a booking and its items.
type BookingResponse struct {
	ID          int64                 `json:"id"`
	UserID      int64                 `json:"user_id"`
	LaneID      int64                 `json:"lane_id"`
	BookingDate string                `json:"booking_date"`
	Status      model.BookingStatus   `json:"status"`
	TotalPrice  float64               `json:"total_price"`
	CreatedAt   time.Time             `json:"created_at"`
	ExpiresAt   time.Time             `json:"expires_at"`
	Items       []BookingItemResponse `json:"items"`
}

// bookingResponse resolves slot times through the catalog. A slot missing from the
// catalog leaves the item's time and price empty rather than failing the request.
func (h *Handler) bookingResponse(c *gin.Context, b *model.Booking) (BookingResponse, error) {
	ids := make([]int64, 0, len(b.Items))
	for _, it := range b.Items {
		ids = append(ids, it.PriceSlotID)
	}
	slots, err := h.catalog.PriceSlotsByIDs(c.Request.Context(), ids)
	if err != nil {
		return BookingResponse{}, err
	}
	byID := make(map[int64]model.PriceSlot, len(slots))
	for _, s := range slots {
		byID[s.ID] = s
	}

	resp := BookingResponse{
		ID:          b.ID,
		UserID:      b.UserID,
		LaneID:      b.LaneID(),
		BookingDate: b.BookingDate,
		Status:      b.Status,
		TotalPrice:  model.Amount(b.TotalCents),
		CreatedAt:   b.CreatedAt,
		ExpiresAt:   b.ExpiresAt,
		Items:       make([]BookingItemResponse, 0, len(b.Items)),
	}
	for _, it := range b.Items {
		item := BookingItemResponse{ID: it.ID, PriceSlotID: it.PriceSlotID}
		if s, ok := byID[it.PriceSlotID]; ok {
			item.Time = s.TimeRange()
			item.Price = model.Amount(s.PriceCents)
		}
		resp.Items = append(resp.Items, item)
	}
	return resp, nil
}

func (h *Handler) writeBooking(c *gin.Context, status int, b *model.Booking) {
	resp, err := h.bookingResponse(c, b)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(status, resp)
}

// GetAvailability handles GET /bookings/availability?booking_date=YYYY-MM-DD.
func (h *Handler) GetAvailability(c *gin.Context) {
	grid, err := h.availability.Grid(c.Request.Context(), c.Query("booking_date"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, grid)
}

type reserveRequest struct {
	BookingDate   string  `json:"booking_date" binding:"required"`
	LaneID        int64   `json:"lane_id" binding:"required"`
	SelectedSlots []int64 `json:"selected_slots"`
}

// Reserve handles POST /bookings/reserve.
func (h *Handler) Reserve(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req reserveRequest
	if !h.bindJSON(c, &req) {
		return
	}
	booking, err := h.reservations.CreateReservation(c.Request.Context(), p.UserID, reservation.Request{
		BookingDate:     req.BookingDate,
		LaneID:          req.LaneID,
		SelectedSlotIDs: req.SelectedSlots,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.writeBooking(c, http.StatusCreated, booking)
}

// GetBooking handles GET /bookings/:booking_id. Customers see their own bookings; the
// cashier group sees all of them.
func (h *Handler) GetBooking(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.idParam(c, "booking_id", "booking")
	if !ok {
		return
	}
	booking, err := h.store.BookingByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.renderError(c, lifecycle.ErrBookingNotFound.WithMessage("Booking %d not found", id))
		return
	}
	if err != nil {
		h.renderError(c, err)
		return
	}
	if booking.UserID != p.UserID {
		if err := auth.Authorize(p, auth.CashierGroup...); err != nil {
			h.renderError(c, err)
			return
		}
	}
	h.writeBooking(c, http.StatusOK, booking)
}

// ConfirmPayment handles POST /admin/confirm-payment/:booking_id.
func (h *Handler) ConfirmPayment(c *gin.Context) {
	if _, ok := h.authorize(c, auth.CashierGroup...); !ok {
		return
	}
	id, ok := h.idParam(c, "booking_id", "booking")
	if !ok {
		return
	}
	booking, err := h.lifecycle.ConfirmPayment(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.writeBooking(c, http.StatusOK, booking)
}
