package reservation

import (
	"net/http"

	"bowling-booking-backend/internal/apperror"
)

// Booking error codes shared with the lifecycle manager and the HTTP layer.
const (
	CodeInvalidSlotSelection   = "INVALID_SLOT_SELECTION"
	CodeNonContiguousSelection = "NON_CONTIGUOUS_SELECTION"
	CodeSlotUnavailable        = "SLOT_UNAVAILABLE"
)

var (
	ErrInvalidSlotSelection   = apperror.New(http.StatusBadRequest, CodeInvalidSlotSelection, "The selected slots are not valid")
	ErrNonContiguousSelection = apperror.New(http.StatusBadRequest, CodeNonContiguousSelection, "The selected slots must be consecutive")
	ErrSlotUnavailable        = apperror.New(http.StatusConflict, CodeSlotUnavailable, "One or more selected slots are already booked")
)
