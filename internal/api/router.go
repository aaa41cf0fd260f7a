package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"bowling-booking-backend/config"
	"bowling-booking-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(mw.RequestID(), mw.Logger(h.log), mw.Recovery(h.log))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	caching := mw.Cache(cache.New(ttl, 2*ttl), ttl)

	authenticated := mw.Authenticate(h.tokens)

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api/v1")
	api.Use(rateLimiter)
	{
		api.GET("/healthz", h.Healthz)

		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.GET("/auth/me", authenticated, h.Me)

		api.GET("/lanes", caching, h.GetLanes)
		api.PATCH("/infrastructure/slots/:slot_id", authenticated, h.UpdateSlotPrice)

		api.GET("/bookings/availability", h.GetAvailability)
		api.POST("/bookings/reserve", authenticated, h.Reserve)
		api.GET("/bookings/:booking_id", authenticated, h.GetBooking)

		admin := api.Group("/admin", authenticated)
		admin.POST("/confirm-payment/:booking_id", h.ConfirmPayment)
		admin.GET("/users", h.ListUsers)
		admin.GET("/users/:user_id", h.GetUser)
		admin.PATCH("/users/:user_id", h.UpdateUser)

		push := api.Group("/push")
		push.GET("/vapid_public_key", h.GetVAPIDPublicKey)
		push.GET("/subscriptions", authenticated, h.GetSubscription)
		push.PUT("/subscriptions", authenticated, h.PutSubscription)
		push.DELETE("/subscriptions", authenticated, h.DeleteSubscription)
	}

	return r
}
