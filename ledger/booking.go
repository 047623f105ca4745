package ledger

import (
	"context"
	"errors"
	"fmt"

	"food-rescue-api/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreateBooking reserves quantity portions of a session for actor.
//
// Checks run in a fixed order and the first failing one is returned:
// authentication, quantity, session lookup, session open, role eligibility,
// daily quota and duplicate restaurant (USER only), portion sufficiency.
// On success the booking is PENDING and the session's remaining portions
// drop by exactly quantity in the same transaction.
func (l *Ledger) CreateBooking(ctx context.Context, actor *models.User, sessionID string, quantity int) (*models.Booking, error) {
	booking, err := l.createBooking(ctx, actor, sessionID, quantity)
	if err != nil {
		if reason, ok := ReasonOf(err); ok {
			l.rec.BookingRefused(reason)
			l.log.WithFields(logrus.Fields{
				"session_id": sessionID,
				"reason":     reason,
			}).Debug("booking refused")
		}
		return nil, err
	}

	l.rec.BookingCreated(actor.Role)
	l.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"session_id": booking.SessionID,
		"user_id":    booking.UserID,
		"quantity":   booking.Quantity,
		"status":     booking.Status,
	}).Info("booking created")
	return booking, nil
}

func (l *Ledger) createBooking(ctx context.Context, actor *models.User, sessionID string, quantity int) (*models.Booking, error) {
	if actor == nil {
		return nil, ErrNotAuthenticated
	}
	if quantity < 1 {
		return nil, fail(ReasonInvalidInput, "quantity must be at least 1, got %d", quantity)
	}

	var booking models.Booking
	err := l.mutate(ctx, func(tx *gorm.DB) error {
		var session models.DropoffSession
		if err := findSession(tx, sessionID, &session); err != nil {
			return err
		}
		if session.Status != models.SessionOpen {
			return fail(ReasonSessionClosed, "session %q is closed", session.ID)
		}
		if !session.Type.BookableBy(actor.Role) {
			return fail(ReasonNotEligible, "role %s cannot book %s sessions", actor.Role, session.Type)
		}
		if actor.Role == models.RoleUser {
			if err := l.checkQuota(tx, actor.ID, session.RestaurantID); err != nil {
				return err
			}
		}
		if quantity > session.RemainingPortions {
			return fail(ReasonInsufficientPortions, "requested %d, %d remaining", quantity, session.RemainingPortions)
		}

		code, err := l.codes.Next(func(code string) (bool, error) {
			var n int64
			if err := tx.Model(&models.Booking{}).Where("code = ?", code).Count(&n).Error; err != nil {
				return false, fmt.Errorf("check pickup code: %w", err)
			}
			return n > 0, nil
		})
		if err != nil {
			return err
		}

		booking = models.Booking{
			ID:          uuid.NewString(),
			SessionID:   session.ID,
			UserID:      actor.ID,
			Quantity:    quantity,
			Status:      models.StatusPending,
			BookingTime: l.now(),
			Code:        code,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return fmt.Errorf("create booking: %w", err)
		}

		// The guard keeps remaining_portions from going negative even if the
		// row changed after it was read.
		res := tx.Model(&models.DropoffSession{}).
			Where("id = ? AND remaining_portions >= ?", session.ID, quantity).
			UpdateColumn("remaining_portions", gorm.Expr("remaining_portions - ?", quantity))
		if res.Error != nil {
			return fmt.Errorf("decrement portions: %w", res.Error)
		}
		if res.RowsAffected != 1 {
			return fail(ReasonInsufficientPortions, "requested %d, portions changed concurrently", quantity)
		}

		return recordHistory(tx, booking.ID, "", models.StatusPending, actor.ID, "booking requested")
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// checkQuota applies the recipient policy: at most dailyLimit live bookings per
// local calendar day, and never two of them at the same restaurant.
func (l *Ledger) checkQuota(tx *gorm.DB, userID, restaurantID string) error {
	todays, err := l.bookingsToday(tx, userID)
	if err != nil {
		return err
	}
	if len(todays) >= l.dailyLimit {
		return fail(ReasonDailyLimitReached, "daily limit of %d bookings reached", l.dailyLimit)
	}
	if len(todays) == 0 {
		return nil
	}

	ids := make([]string, 0, len(todays))
	for _, b := range todays {
		ids = append(ids, b.SessionID)
	}
	var n int64
	err = tx.Model(&models.DropoffSession{}).
		Where("id IN ? AND restaurant_id = ?", ids, restaurantID).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("check restaurant duplicates: %w", err)
	}
	if n > 0 {
		return fail(ReasonDuplicateRestaurant, "already booked at restaurant %q today", restaurantID)
	}
	return nil
}

// bookingsToday returns userID's bookings whose booking time falls on the
// ledger's current local date, ignoring REJECTED and CANCELLED ones.
// The date comparison happens here, not in SQL, so it follows l.loc.
func (l *Ledger) bookingsToday(tx *gorm.DB, userID string) ([]models.Booking, error) {
	var all []models.Booking
	err := tx.Where("user_id = ? AND status NOT IN ?", userID,
		[]models.BookingStatus{models.StatusRejected, models.StatusCancelled}).
		Find(&all).Error
	if err != nil {
		return nil, fmt.Errorf("load user bookings: %w", err)
	}

	today := l.today()
	out := all[:0]
	for _, b := range all {
		if localDate(b.BookingTime, l.loc) == today {
			out = append(out, b)
		}
	}
	return out, nil
}

// QuotaRemaining reports how many more bookings a USER may make today.
// Other roles are not subject to the quota and get -1.
func (l *Ledger) QuotaRemaining(ctx context.Context, user *models.User) (int, error) {
	if user == nil {
		return 0, ErrNotAuthenticated
	}
	if user.Role != models.RoleUser {
		return -1, nil
	}
	todays, err := l.bookingsToday(l.db.WithContext(ctx), user.ID)
	if err != nil {
		return 0, err
	}
	if left := l.dailyLimit - len(todays); left > 0 {
		return left, nil
	}
	return 0, nil
}

func recordHistory(tx *gorm.DB, bookingID string, from, to models.BookingStatus, by, note string) error {
	h := models.BookingStatusHistory{
		BookingID:  bookingID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  by,
		Note:       note,
	}
	if err := tx.Create(&h).Error; err != nil {
		return fmt.Errorf("record status history: %w", err)
	}
	return nil
}

func findBooking(tx *gorm.DB, query string, arg any, out *models.Booking) error {
	if err := tx.First(out, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gorm.ErrRecordNotFound
		}
		return fmt.Errorf("load booking: %w", err)
	}
	return nil
}
