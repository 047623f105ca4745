package handlers

import (
	"net/http"

	"food-rescue-api/ledger"
	"food-rescue-api/models"

	"github.com/gin-gonic/gin"
)

// LoginRequest picks an identity. There are no passwords: either a concrete
// user id or a role, which resolves to the first user holding it.
type LoginRequest struct {
	UserID string          `json:"user_id"`
	Role   models.UserRole `json:"role"`
}

// Login issues a JWT for the selected identity
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	var (
		user *models.User
		err  error
	)
	switch {
	case req.UserID != "":
		user, err = h.ledger.User(ctx, req.UserID)
	case req.Role != "":
		if !req.Role.Valid() {
			h.respondError(c, &ledger.Failure{Reason: ledger.ReasonInvalidInput, Message: "Invalid role. Must be: USER, OWNER, VOLUNTEER or ADMIN"}, nil)
			return
		}
		user, err = h.ledger.FirstUserWithRole(ctx, req.Role)
	default:
		h.respondError(c, &ledger.Failure{Reason: ledger.ReasonInvalidInput, Message: "user_id or role is required"}, nil)
		return
	}
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	token, err := h.auth.GenerateToken(user)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	h.log.WithField("user_id", user.ID).WithField("role", user.Role).Info("identity selected")
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// GetProfile returns the authenticated user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	body := gin.H{"user": user}
	if user.Role == models.RoleUser {
		left, err := h.ledger.QuotaRemaining(c.Request.Context(), user)
		if err != nil {
			h.respondError(c, err, nil)
			return
		}
		body["bookings_left_today"] = left
	}
	c.JSON(http.StatusOK, body)
}
