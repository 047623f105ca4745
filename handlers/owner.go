package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"food-rescue-api/export"
	"food-rescue-api/ledger"
	"food-rescue-api/models"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ownerRestaurant resolves the restaurant of the calling owner
func (h *Handler) ownerRestaurant(c *gin.Context) (*models.User, *models.Restaurant, bool) {
	user, ok := h.currentUser(c)
	if !ok {
		return nil, nil, false
	}
	restaurant, err := h.ledger.RestaurantOwnedBy(c.Request.Context(), user.ID)
	if err != nil {
		h.respondError(c, err, nil)
		return nil, nil, false
	}
	return user, restaurant, true
}

// GetMyRestaurant returns the owner's restaurant with its dashboard summary
func (h *Handler) GetMyRestaurant(c *gin.Context) {
	_, restaurant, ok := h.ownerRestaurant(c)
	if !ok {
		return
	}
	summary, err := h.ledger.OwnerSummary(c.Request.Context(), restaurant.ID)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant": restaurant,
		"summary":    summary,
	})
}

// CreateSession publishes a new drop-off session for the owner's restaurant
func (h *Handler) CreateSession(c *gin.Context) {
	user, restaurant, ok := h.ownerRestaurant(c)
	if !ok {
		return
	}
	var in ledger.SessionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	in.RestaurantID = restaurant.ID

	session, err := h.ledger.CreateSession(c.Request.Context(), user, in)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Session published",
		"session": session,
	})
}

// CloseSession stops new bookings on one of the owner's sessions
func (h *Handler) CloseSession(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	session, err := h.ledger.CloseSession(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Session closed",
		"session": session,
	})
}

// GetRestaurantBookings lists bookings on the owner's sessions, ?status=PENDING,APPROVED
func (h *Handler) GetRestaurantBookings(c *gin.Context) {
	_, restaurant, ok := h.ownerRestaurant(c)
	if !ok {
		return
	}
	statuses, err := parseStatuses(c.Query("status"))
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	bookings, err := h.ledger.BookingsForRestaurant(c.Request.Context(), restaurant.ID, statuses...)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant":      restaurant.Name,
		"booking_summary": statusCounts(bookings),
		"count":           len(bookings),
		"bookings":        bookings,
	})
}

type UpdateBookingStatusRequest struct {
	Status models.BookingStatus `json:"status" binding:"required"`
	Note   string               `json:"note"`
}

// UpdateBookingStatus approves, rejects or closes out a booking as staff
func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.changeStatus(c, user, c.Param("id"), req.Status, req.Note)
}

type VerifyPickupRequest struct {
	Code string `json:"code" binding:"required"`
}

// VerifyPickup completes an APPROVED booking from the code shown at the counter
func (h *Handler) VerifyPickup(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req VerifyPickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	booking, err := h.ledger.VerifyPickupCode(c.Request.Context(), user, req.Code)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Pickup verified",
		"booking": booking,
	})
}

// ExportBookings downloads the owner's bookings as an xlsx workbook
func (h *Handler) ExportBookings(c *gin.Context) {
	_, restaurant, ok := h.ownerRestaurant(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	statuses, err := parseStatuses(c.Query("status"))
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	bookings, err := h.ledger.BookingsForRestaurant(ctx, restaurant.ID, statuses...)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	sessions, err := h.ledger.Sessions(ctx, ledger.SessionFilter{RestaurantID: restaurant.ID})
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	byID := make(map[string]models.DropoffSession, len(sessions))
	for _, s := range sessions {
		byID[s.ID] = s
	}

	var buf bytes.Buffer
	if err := export.BookingsWorkbook(&buf, bookings, byID, h.loc); err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="bookings-%s.xlsx"`, restaurant.ID))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
