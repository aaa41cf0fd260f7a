package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"bowling-booking-backend/internal/apperror"
	"bowling-booking-backend/internal/model"
	"bowling-booking-backend/internal/store"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

// SubscriptionResponse describes a stored push subscription.
type SubscriptionResponse struct {
	Endpoint  string    `json:"endpoint"`
	CreatedAt time.Time `json:"created_at"`
}

// PutSubscription handles the creation or replacement of the caller's subscription.
func (h *Handler) PutSubscription(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req putSubscriptionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	subscription := model.PushSubscription{
		Endpoint: req.Endpoint,
		UserID:   p.UserID,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}
	if err := h.store.UpsertPushSubscription(c.Request.Context(), &subscription); err != nil {
		h.renderError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of one of the caller's subscriptions.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req deleteSubscriptionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.store.DeletePushSubscription(c.Request.Context(), p.UserID, req.Endpoint); err != nil {
		h.renderError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// rawQueryParam returns key's value without URL decoding; push endpoints are compared
// byte for byte.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription handles the retrieval of one of the caller's subscriptions.
func (h *Handler) GetSubscription(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		h.renderError(c, apperror.InvalidInput("endpoint is required"))
		return
	}

	subscription, err := h.store.PushSubscription(c.Request.Context(), raw)
	if errors.Is(err, store.ErrNotFound) || (err == nil && subscription.UserID != p.UserID) {
		h.renderError(c, apperror.NotFound("Subscription"))
		return
	}
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, SubscriptionResponse{Endpoint: subscription.Endpoint, CreatedAt: subscription.CreatedAt})
}
