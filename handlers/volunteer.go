package handlers

import (
	"net/http"

	"food-rescue-api/ledger"

	"github.com/gin-gonic/gin"
)

// GetVolunteerSessions lists open VOLUNTEER_ONLY and MIXED sessions
func (h *Handler) GetVolunteerSessions(c *gin.Context) {
	sessions, err := h.ledger.Sessions(c.Request.Context(), ledger.SessionFilter{
		Audience: ledger.AudienceVolunteer,
		Date:     c.Query("date"),
		Search:   c.Query("q"),
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
