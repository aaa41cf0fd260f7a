package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bowling-booking-backend/internal/apperror"
)

var errPushDisabled = apperror.New(http.StatusServiceUnavailable, "PUSH_DISABLED", "vapid keys are not configured")

// GetVAPIDPublicKey returns the VAPID public key to the client.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		h.renderError(c, errPushDisabled)
		return
	}

	c.JSON(http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
