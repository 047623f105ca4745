package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"food-rescue-api/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SessionInput is what an owner supplies to open a pickup window
type SessionInput struct {
	RestaurantID  string               `json:"restaurant_id" validate:"required"`
	Date          string               `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime     string               `json:"start_time" validate:"required,datetime=15:04"`
	EndTime       string               `json:"end_time" validate:"required,datetime=15:04"`
	TotalPortions int                  `json:"total_portions" validate:"min=0"`
	Description   string               `json:"description"`
	Allergens     []string             `json:"allergens"`
	Status        models.SessionStatus `json:"status" validate:"omitempty,oneof=OPEN CLOSED"`
	Type          models.SessionType   `json:"type" validate:"omitempty,oneof=REGULAR VOLUNTEER_ONLY MIXED"`
}

// CreateSession opens a new session with all of its portions remaining.
func (l *Ledger) CreateSession(ctx context.Context, actor *models.User, in SessionInput) (*models.DropoffSession, error) {
	if actor == nil {
		return nil, ErrNotAuthenticated
	}
	if err := l.validate.Struct(in); err != nil {
		return nil, fail(ReasonInvalidInput, "%s", describeValidation(err))
	}
	if in.Status == "" {
		in.Status = models.SessionOpen
	}
	if in.Type == "" {
		in.Type = models.SessionRegular
	}
	if in.Allergens == nil {
		in.Allergens = []string{}
	}

	session := models.DropoffSession{
		ID:                uuid.NewString(),
		RestaurantID:      in.RestaurantID,
		Date:              in.Date,
		StartTime:         in.StartTime,
		EndTime:           in.EndTime,
		TotalPortions:     in.TotalPortions,
		RemainingPortions: in.TotalPortions,
		Description:       in.Description,
		Allergens:         in.Allergens,
		Status:            in.Status,
		Type:              in.Type,
		CreatedAt:         l.now(),
	}

	err := l.mutate(ctx, func(tx *gorm.DB) error {
		if err := requireStaff(tx, actor, in.RestaurantID); err != nil {
			return err
		}
		if err := tx.Create(&session).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.WithFields(logrus.Fields{
		"session_id":     session.ID,
		"restaurant_id":  session.RestaurantID,
		"total_portions": session.TotalPortions,
	}).Info("session created")
	return &session, nil
}

// CloseSession stops further bookings on a session. Existing bookings are untouched.
func (l *Ledger) CloseSession(ctx context.Context, actor *models.User, sessionID string) (*models.DropoffSession, error) {
	if actor == nil {
		return nil, ErrNotAuthenticated
	}
	var session models.DropoffSession
	err := l.mutate(ctx, func(tx *gorm.DB) error {
		if err := findSession(tx, sessionID, &session); err != nil {
			return err
		}
		if err := requireStaff(tx, actor, session.RestaurantID); err != nil {
			return err
		}
		if session.Status == models.SessionClosed {
			return nil
		}
		session.Status = models.SessionClosed
		if err := tx.Model(&session).Update("status", models.SessionClosed).Error; err != nil {
			return fmt.Errorf("close session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.log.WithField("session_id", session.ID).Info("session closed")
	return &session, nil
}

// requireStaff checks that the restaurant exists and actor owns it. ADMIN passes.
func requireStaff(tx *gorm.DB, actor *models.User, restaurantID string) error {
	var restaurant models.Restaurant
	if err := tx.First(&restaurant, "id = ?", restaurantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(ReasonRestaurantNotFound, "restaurant %q not found", restaurantID)
		}
		return fmt.Errorf("load restaurant: %w", err)
	}
	if actor.Role == models.RoleAdmin || restaurant.OwnerID == actor.ID {
		return nil
	}
	return fail(ReasonForbidden, "restaurant %q is not yours", restaurantID)
}

func findSession(tx *gorm.DB, id string, out *models.DropoffSession) error {
	if err := tx.First(out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(ReasonSessionNotFound, "session %q not found", id)
		}
		return fmt.Errorf("load session: %w", err)
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
