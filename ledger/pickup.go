package ledger

import (
	"context"
	"errors"
	"fmt"

	"food-rescue-api/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// VerifyPickupCode completes the APPROVED booking presenting code at the
// actor's restaurant. The code must match exactly. A second call with the same code reports ALREADY_COMPLETED.
func (l *Ledger) VerifyPickupCode(ctx context.Context, actor *models.User, code string) (*models.Booking, error) {
	booking, err := l.verifyPickupCode(ctx, actor, code)
	if err != nil {
		if reason, ok := ReasonOf(err); ok {
			l.rec.PickupVerified(string(reason))
		}
		return nil, err
	}
	l.rec.PickupVerified("OK")
	l.rec.StatusChanged(models.StatusApproved, models.StatusCompleted)
	l.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"code":       booking.Code,
		"staff_id":   actor.ID,
	}).Info("pickup verified")
	return booking, nil
}

func (l *Ledger) verifyPickupCode(ctx context.Context, actor *models.User, code string) (*models.Booking, error) {
	if actor == nil {
		return nil, ErrNotAuthenticated
	}

	var booking models.Booking
	err := l.mutate(ctx, func(tx *gorm.DB) error {
		if err := findBooking(tx, "code = ?", code, &booking); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fail(ReasonCodeNotFound, "no booking with code %q", code)
			}
			return err
		}

		var session models.DropoffSession
		if err := findSession(tx, booking.SessionID, &session); err != nil {
			return err
		}
		if actor.Role != models.RoleAdmin {
			var n int64
			err := tx.Model(&models.Restaurant{}).
				Where("id = ? AND owner_id = ?", session.RestaurantID, actor.ID).
				Count(&n).Error
			if err != nil {
				return fmt.Errorf("check restaurant owner: %w", err)
			}
			if n == 0 {
				return fail(ReasonWrongRestaurant, "code %q belongs to another restaurant", code)
			}
		}

		switch booking.Status {
		case models.StatusCompleted:
			return fail(ReasonAlreadyCompleted, "code %q was already redeemed", code)
		case models.StatusApproved:
		default:
			return fail(ReasonNotApproved, "booking is %s", booking.Status)
		}
		return l.applyStatus(tx, &booking, &session, models.StatusCompleted, actor.ID, "pickup code verified")
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
