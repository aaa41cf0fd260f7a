package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bowling-booking-backend/internal/auth"
	"bowling-booking-backend/internal/model"
)

// UserResponse is the public view of an account.
type UserResponse struct {
	ID       int64      `json:"id"`
	Email    string     `json:"email"`
	FullName string     `json:"full_name"`
	Role     model.Role `json:"role"`
}

func newUserResponse(u *model.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.accounts.Register(c.Request.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(user))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	token, err := h.accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	user, err := h.accounts.Profile(c.Request.Context(), p)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

// ListUsers handles GET /admin/users.
func (h *Handler) ListUsers(c *gin.Context) {
	if _, ok := h.authorize(c, auth.OwnerGroup...); !ok {
		return
	}
	users, err := h.accounts.ListUsers(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	resp := make([]UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, newUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetUser handles GET /admin/users/:user_id.
func (h *Handler) GetUser(c *gin.Context) {
	if _, ok := h.authorize(c, auth.OwnerGroup...); !ok {
		return
	}
	id, ok := h.idParam(c, "user_id", "user")
	if !ok {
		return
	}
	user, err := h.accounts.GetUser(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

type updateUserRequest struct {
	FullName *string     `json:"full_name"`
	Role     *model.Role `json:"role"`
}

// UpdateUser handles PATCH /admin/users/:user_id.
func (h *Handler) UpdateUser(c *gin.Context) {
	if _, ok := h.authorize(c, auth.OwnerGroup...); !ok {
		return
	}
	id, ok := h.idParam(c, "user_id", "user")
	if !ok {
		return
	}
	var req updateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.accounts.UpdateUser(c.Request.Context(), id, auth.UserUpdate{
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}
