package handlers

import (
	"net/http"

	"food-rescue-api/ledger"
	"food-rescue-api/models"
	"food-rescue-api/statemachine"

	"github.com/gin-gonic/gin"
)

// ListRestaurants returns all restaurants (public)
func (h *Handler) ListRestaurants(c *gin.Context) {
	restaurants, err := h.ledger.Restaurants(c.Request.Context())
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":       len(restaurants),
		"restaurants": restaurants,
	})
}

// GetRestaurant returns a single restaurant
func (h *Handler) GetRestaurant(c *gin.Context) {
	restaurant, err := h.ledger.Restaurant(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// GetRestaurantSessions lists every session a restaurant has published
func (h *Handler) GetRestaurantSessions(c *gin.Context) {
	ctx := c.Request.Context()
	restaurant, err := h.ledger.Restaurant(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	sessions, err := h.ledger.Sessions(ctx, ledger.SessionFilter{
		RestaurantID: restaurant.ID,
		Date:         c.Query("date"),
	})
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant": restaurant.Name,
		"count":      len(sessions),
		"sessions":   sessions,
	})
}

// ListSessions is the explore view. ?audience=recipient|volunteer narrows it
// to what that role can see; ?restaurant_id, ?date and ?q (restaurant name or
// category) filter further.
func (h *Handler) ListSessions(c *gin.Context) {
	audience := ledger.Audience(c.Query("audience"))
	switch audience {
	case ledger.AudienceAll, ledger.AudienceRecipient, ledger.AudienceVolunteer:
	default:
		h.respondError(c, &ledger.Failure{Reason: ledger.ReasonInvalidInput, Message: "audience must be recipient or volunteer"}, nil)
		return
	}
	sessions, err := h.ledger.Sessions(c.Request.Context(), ledger.SessionFilter{
		RestaurantID: c.Query("restaurant_id"),
		Date:         c.Query("date"),
		Audience:     audience,
		Search:       c.Query("q"),
	})
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// GetStateMachineInfo returns the booking lifecycle for informational purposes
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	var terminal []models.BookingStatus
	for _, s := range models.AllStatuses {
		if s.Terminal() {
			terminal = append(terminal, s)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"terminal_states": terminal,
		"actors": gin.H{
			string(statemachine.ActorStaff):  "owner of the session's restaurant, or ADMIN",
			string(statemachine.ActorBooker): "user who made the booking, or ADMIN",
		},
		"description": "Food Rescue Booking Lifecycle State Machine",
	})
}
