package ledger

import (
	"context"
	"errors"
	"fmt"

	"food-rescue-api/models"
	"food-rescue-api/statemachine"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// StatusChange is the outcome of a status update. From is read under the ledger
// lock, in the same transaction that wrote the new status.
type StatusChange struct {
	Booking models.Booking
	From    models.BookingStatus
}

// UpdateBookingStatus moves a booking along the state machine on behalf of actor.
// The owner of the session's restaurant acts as staff, the booking's own user as
// booker; ADMIN may act as either.
func (l *Ledger) UpdateBookingStatus(ctx context.Context, actor *models.User, bookingID string, to models.BookingStatus, note string) (*models.Booking, error) {
	change, err := l.ChangeBookingStatus(ctx, actor, bookingID, to, note)
	if err != nil {
		return nil, err
	}
	return &change.Booking, nil
}

// ChangeBookingStatus is UpdateBookingStatus reporting the status it moved from.
func (l *Ledger) ChangeBookingStatus(ctx context.Context, actor *models.User, bookingID string, to models.BookingStatus, note string) (*StatusChange, error) {
	if actor == nil {
		return nil, ErrNotAuthenticated
	}
	if !to.Valid() {
		return nil, fail(ReasonInvalidInput, "unknown booking status %q", to)
	}

	var (
		booking models.Booking
		from    models.BookingStatus
	)
	err := l.mutate(ctx, func(tx *gorm.DB) error {
		if err := findBooking(tx, "id = ?", bookingID, &booking); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fail(ReasonBookingNotFound, "booking %q not found", bookingID)
			}
			return err
		}
		from = booking.Status

		var session models.DropoffSession
		if err := findSession(tx, booking.SessionID, &session); err != nil {
			return err
		}
		actors, err := actorsFor(tx, actor, &booking, &session)
		if err != nil {
			return err
		}
		if err := checkTransition(from, to, actors); err != nil {
			return err
		}
		return l.applyStatus(tx, &booking, &session, to, actor.ID, note)
	})
	if err != nil {
		return nil, err
	}

	l.rec.StatusChanged(from, to)
	l.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"from":       from,
		"status":     to,
		"changed_by": actor.ID,
	}).Info("booking status updated")
	return &StatusChange{Booking: booking, From: from}, nil
}

// actorsFor lists the capacities in which user may touch booking.
func actorsFor(tx *gorm.DB, user *models.User, booking *models.Booking, session *models.DropoffSession) ([]statemachine.Actor, error) {
	if user.Role == models.RoleAdmin {
		return []statemachine.Actor{statemachine.ActorStaff, statemachine.ActorBooker}, nil
	}
	var actors []statemachine.Actor
	if booking.UserID == user.ID {
		actors = append(actors, statemachine.ActorBooker)
	}
	var n int64
	err := tx.Model(&models.Restaurant{}).
		Where("id = ? AND owner_id = ?", session.RestaurantID, user.ID).
		Count(&n).Error
	if err != nil {
		return nil, fmt.Errorf("check restaurant owner: %w", err)
	}
	if n > 0 {
		actors = append(actors, statemachine.ActorStaff)
	}
	return actors, nil
}

func checkTransition(from, to models.BookingStatus, actors []statemachine.Actor) error {
	err := statemachine.CanTransition(from, to, actors...)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, statemachine.ErrIllegalTransition):
		return fail(ReasonIllegalTransition, "%s", err.Error())
	default:
		return fail(ReasonForbidden, "%s", err.Error())
	}
}

// applyStatus writes the new status, restocks released portions when enabled
// and appends a history row. The caller holds the ledger lock.
func (l *Ledger) applyStatus(tx *gorm.DB, booking *models.Booking, session *models.DropoffSession, to models.BookingStatus, by, note string) error {
	from := booking.Status
	res := tx.Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, from).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("update booking status: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return fail(ReasonIllegalTransition, "booking %q changed concurrently", booking.ID)
	}
	booking.Status = to

	if l.restock && to.Released() && !from.Released() {
		err := tx.Model(&models.DropoffSession{}).
			Where("id = ?", session.ID).
			UpdateColumn("remaining_portions",
				gorm.Expr("MIN(total_portions, remaining_portions + ?)", booking.Quantity)).Error
		if err != nil {
			return fmt.Errorf("restock portions: %w", err)
		}
	}

	return recordHistory(tx, booking.ID, from, to, by, note)
}
