package ledger

import (
	"context"
	"fmt"

	"food-rescue-api/models"

	"gorm.io/gorm"
)

// Fixture is the initial state handed over by the fixture loader.
type Fixture struct {
	Users       []models.User
	Restaurants []models.Restaurant
	Sessions    []models.DropoffSession
	Bookings    []models.Booking
}

// Seed inserts a fixture in one transaction. It refuses data that would break
// the ledger's invariants rather than repairing it.
func (l *Ledger) Seed(ctx context.Context, f Fixture) error {
	if err := checkFixture(f); err != nil {
		return err
	}
	err := l.mutate(ctx, func(tx *gorm.DB) error {
		if len(f.Users) > 0 {
			if err := tx.Create(&f.Users).Error; err != nil {
				return fmt.Errorf("seed users: %w", err)
			}
		}
		if len(f.Restaurants) > 0 {
			if err := tx.Create(&f.Restaurants).Error; err != nil {
				return fmt.Errorf("seed restaurants: %w", err)
			}
		}
		if len(f.Sessions) > 0 {
			if err := tx.Create(&f.Sessions).Error; err != nil {
				return fmt.Errorf("seed sessions: %w", err)
			}
		}
		for i := range f.Bookings {
			b := &f.Bookings[i]
			var session models.DropoffSession
			if err := findSession(tx, b.SessionID, &session); err != nil {
				return err
			}
			if err := tx.Create(b).Error; err != nil {
				return fmt.Errorf("seed booking %s: %w", b.ID, err)
			}
			if err := recordHistory(tx, b.ID, "", b.Status, "fixture", "seeded"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.log.WithField("sessions", len(f.Sessions)).WithField("bookings", len(f.Bookings)).Info("ledger seeded")
	return nil
}

func checkFixture(f Fixture) error {
	for _, s := range f.Sessions {
		if s.TotalPortions < 0 || s.RemainingPortions < 0 || s.RemainingPortions > s.TotalPortions {
			return fail(ReasonInvalidInput, "session %s: remaining %d outside [0, %d]",
				s.ID, s.RemainingPortions, s.TotalPortions)
		}
	}
	codes := make(map[string]bool, len(f.Bookings))
	for _, b := range f.Bookings {
		if b.Quantity < 1 {
			return fail(ReasonInvalidInput, "booking %s: quantity %d", b.ID, b.Quantity)
		}
		if !b.Status.Valid() {
			return fail(ReasonInvalidInput, "booking %s: status %q", b.ID, b.Status)
		}
		if codes[b.Code] {
			return fail(ReasonInvalidInput, "booking %s: duplicate code %s", b.ID, b.Code)
		}
		codes[b.Code] = true
	}
	return nil
}
