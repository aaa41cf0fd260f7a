package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bowling-booking-backend/internal/apperror"
	"bowling-booking-backend/internal/auth"
	"bowling-booking-backend/internal/availability"
	"bowling-booking-backend/internal/lifecycle"
	"bowling-booking-backend/internal/model"
	"bowling-booking-backend/internal/mw"
	"bowling-booking-backend/internal/reservation"
	"bowling-booking-backend/internal/store"
)

// Catalog is the venue data the handlers render.
type Catalog interface {
	LanesOrderedByNumber(ctx context.Context) ([]model.Lane, error)
	PriceSlotsByIDs(ctx context.Context, ids []int64) ([]model.PriceSlot, error)
	Flush()
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store        store.Store
	catalog      Catalog
	accounts     *auth.Service
	tokens       *auth.Tokens
	availability *availability.Service
	reservations *reservation.Engine
	lifecycle    *lifecycle.Manager
	webpush      *webpush.Options
	log          *zap.Logger
}

// Deps lists the services NewHandler wires together.
type Deps struct {
	Store        store.Store
	Catalog      Catalog
	Accounts     *auth.Service
	Tokens       *auth.Tokens
	Availability *availability.Service
	Reservations *reservation.Engine
	Lifecycle    *lifecycle.Manager
	WebPush      *webpush.Options
	Log          *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		store:        d.Store,
		catalog:      d.Catalog,
		accounts:     d.Accounts,
		tokens:       d.Tokens,
		availability: d.Availability,
		reservations: d.Reservations,
		lifecycle:    d.Lifecycle,
		webpush:      d.WebPush,
		log:          d.Log,
	}
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// renderError writes err as {code, message} with the status its code maps to.
func (h *Handler) renderError(c *gin.Context, err error) {
	appErr := apperror.As(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("request_id", mw.RequestIDFrom(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Response())
}

func (h *Handler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.renderError(c, apperror.InvalidInput("Invalid request body").Wrap(err))
		return false
	}
	return true
}

func (h *Handler) principal(c *gin.Context) (auth.Principal, bool) {
	p, ok := mw.PrincipalFrom(c)
	if !ok {
		h.renderError(c, apperror.Unauthorized("Not authenticated"))
	}
	return p, ok
}

// authorize checks the caller holds one of roles and renders 403 otherwise.
func (h *Handler) authorize(c *gin.Context, roles ...model.Role) (auth.Principal, bool) {
	p, ok := h.principal(c)
	if !ok {
		return p, false
	}
	if err := auth.Authorize(p, roles...); err != nil {
		h.renderError(c, err)
		return p, false
	}
	return p, true
}

func (h *Handler) idParam(c *gin.Context, name, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		h.renderError(c, apperror.InvalidInput("Invalid "+resource+" ID"))
		return 0, false
	}
	return id, true
}
