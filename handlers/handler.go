package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"food-rescue-api/ledger"
	"food-rescue-api/middleware"
	"food-rescue-api/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler serves the HTTP API on top of one ledger.
type Handler struct {
	ledger *ledger.Ledger
	auth   *middleware.Auth
	log    logrus.FieldLogger
	loc    *time.Location
}

func New(l *ledger.Ledger, auth *middleware.Auth, log logrus.FieldLogger, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{ledger: l, auth: auth, log: log, loc: loc}
}

// statusFor maps a ledger refusal onto an HTTP status code
func statusFor(reason ledger.Reason) int {
	switch reason {
	case ledger.ReasonInvalidInput:
		return http.StatusBadRequest
	case ledger.ReasonNotAuthenticated:
		return http.StatusUnauthorized
	case ledger.ReasonForbidden, ledger.ReasonNotEligible, ledger.ReasonWrongRestaurant:
		return http.StatusForbidden
	case ledger.ReasonSessionNotFound, ledger.ReasonBookingNotFound, ledger.ReasonRestaurantNotFound,
		ledger.ReasonUserNotFound, ledger.ReasonCodeNotFound:
		return http.StatusNotFound
	case ledger.ReasonDailyLimitReached, ledger.ReasonDuplicateRestaurant, ledger.ReasonInsufficientPortions,
		ledger.ReasonSessionClosed, ledger.ReasonAlreadyCompleted, ledger.ReasonNotApproved:
		return http.StatusConflict
	case ledger.ReasonIllegalTransition:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error","reason"}; extra keys are merged in.
func (h *Handler) respondError(c *gin.Context, err error, extra gin.H) {
	var f *ledger.Failure
	if !errors.As(err, &f) {
		h.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	body := gin.H{"error": f.Error(), "reason": f.Reason}
	if f.Message != "" {
		body["error"] = f.Message
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(statusFor(f.Reason), body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": ledger.ReasonInvalidInput})
}

// currentUser loads the caller named by the token. A token for a user that no
// longer exists is treated as unauthenticated.
func (h *Handler) currentUser(c *gin.Context) (*models.User, bool) {
	id := middleware.GetUserID(c)
	if id == "" {
		h.respondError(c, ledger.ErrNotAuthenticated, nil)
		return nil, false
	}
	user, err := h.ledger.User(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrUserNotFound) {
			err = ledger.ErrNotAuthenticated
		}
		h.respondError(c, err, nil)
		return nil, false
	}
	return user, true
}

// parseStatuses reads a comma separated ?status= filter
func parseStatuses(raw string) ([]models.BookingStatus, error) {
	if raw == "" {
		return nil, nil
	}
	var out []models.BookingStatus
	for _, part := range strings.Split(raw, ",") {
		s := models.BookingStatus(strings.ToUpper(strings.TrimSpace(part)))
		if !s.Valid() {
			return nil, &ledger.Failure{Reason: ledger.ReasonInvalidInput, Message: "unknown booking status " + part}
		}
		out = append(out, s)
	}
	return out, nil
}

// statusCounts groups bookings by status for the dashboard summaries
func statusCounts(bookings []models.Booking) map[string]int {
	summary := map[string]int{}
	for _, b := range bookings {
		summary[string(b.Status)]++
	}
	return summary
}
