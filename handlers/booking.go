package handlers

import (
	"errors"
	"io"
	"net/http"

	"food-rescue-api/ledger"
	"food-rescue-api/models"
	"food-rescue-api/statemachine"

	"github.com/gin-gonic/gin"
)

type PlaceBookingRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	// defaults to one portion when omitted
	Quantity *int `json:"quantity"`
}

// PlaceBooking reserves portions of a session (USER and VOLUNTEER)
func (h *Handler) PlaceBooking(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req PlaceBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	booking, err := h.ledger.CreateBooking(c.Request.Context(), user, req.SessionID, quantity)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking requested",
		"booking": booking,
	})
}

// GetMyBookings lists the caller's bookings, newest first.
// ?view=active keeps PENDING and APPROVED, ?view=history the terminal ones.
func (h *Handler) GetMyBookings(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var statuses []models.BookingStatus
	switch view := c.Query("view"); view {
	case "":
	case "active":
		statuses = models.ActiveStatuses
	case "history":
		statuses = models.HistoryStatuses
	default:
		h.respondError(c, &ledger.Failure{Reason: ledger.ReasonInvalidInput, Message: "view must be active or history"}, nil)
		return
	}
	bookings, err := h.ledger.BookingsForUser(c.Request.Context(), user.ID, statuses...)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(bookings),
		"bookings": bookings,
	})
}

// GetBookingDetail returns one of the caller's bookings with its status trail
func (h *Handler) GetBookingDetail(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	booking, err := h.ledger.Booking(ctx, c.Param("id"))
	if err == nil && booking.UserID != user.ID {
		// not yours looks the same as not there
		err = ledger.ErrBookingNotFound
	}
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	history, err := h.ledger.History(ctx, booking.ID)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"booking":     booking,
		"history":     history,
		"valid_next":  statemachine.ValidTransitionsFrom(booking.Status),
		"is_terminal": booking.Status.Terminal(),
	})
}

type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// CancelBooking withdraws a PENDING or APPROVED booking of the caller
func (h *Handler) CancelBooking(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req CancelBookingRequest
	// body is optional, but a body that is sent must be valid JSON
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	note := req.Reason
	if note == "" {
		note = "cancelled by booker"
	}
	h.changeStatus(c, user, c.Param("id"), models.StatusCancelled, note)
}

// changeStatus runs a status change and renders the result the same way for
// every role. Illegal transitions carry the states reachable from the current one.
func (h *Handler) changeStatus(c *gin.Context, user *models.User, bookingID string, to models.BookingStatus, note string) {
	ctx := c.Request.Context()
	change, err := h.ledger.ChangeBookingStatus(ctx, user, bookingID, to, note)
	if err != nil {
		var extra gin.H
		if errors.Is(err, ledger.ErrIllegalTransition) {
			if current, lerr := h.ledger.Booking(ctx, bookingID); lerr == nil {
				extra = gin.H{
					"current_status":    current.Status,
					"requested":         to,
					"valid_next_states": statemachine.ValidTransitionsFrom(current.Status),
				}
			}
		}
		h.respondError(c, err, extra)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "Booking status updated",
		"booking_id":      change.Booking.ID,
		"previous_status": change.From,
		"current_status":  change.Booking.Status,
		"booking":         change.Booking,
	})
}
