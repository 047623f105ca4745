package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminGetAllBookings lists every booking, optionally filtered by ?status=
func (h *Handler) AdminGetAllBookings(c *gin.Context) {
	statuses, err := parseStatuses(c.Query("status"))
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	bookings, err := h.ledger.Bookings(c.Request.Context(), statuses...)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":          len(bookings),
		"status_summary": statusCounts(bookings),
		"bookings":       bookings,
	})
}

// AdminGetAllUsers returns all users
func (h *Handler) AdminGetAllUsers(c *gin.Context) {
	users, err := h.ledger.Users(c.Request.Context())
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

// AdminForceBookingStatus moves any booking along the state machine. The admin
// may act as staff or booker but cannot skip states.
func (h *Handler) AdminForceBookingStatus(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	note := req.Note
	if note == "" {
		note = "[ADMIN] status change"
	}
	h.changeStatus(c, user, c.Param("id"), req.Status, note)
}
