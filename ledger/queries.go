package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"food-rescue-api/models"

	"gorm.io/gorm"
)

// Audience selects the session listing a role sees.
type Audience string

const (
	// AudienceAll lists every session
	AudienceAll Audience = ""
	// AudienceRecipient: open, portions left, not volunteer-only
	AudienceRecipient Audience = "recipient"
	// AudienceVolunteer: open, volunteer-only or mixed
	AudienceVolunteer Audience = "volunteer"
)

type SessionFilter struct {
	RestaurantID string
	Date         string
	Audience     Audience
	// Search matches restaurant name or category, case-insensitive substring
	Search string
}

// OwnerSummary backs the owner dashboard cards
type OwnerSummary struct {
	RestaurantID      string `json:"restaurant_id"`
	PendingBookings   int    `json:"pending_bookings"`
	ActiveBookings    int    `json:"active_bookings"` // APPROVED or COMPLETED
	OpenSessions      int    `json:"open_sessions"`
	RemainingPortions int    `json:"remaining_portions"`
}

func (l *Ledger) read(ctx context.Context) *gorm.DB {
	return l.db.WithContext(ctx)
}

func (l *Ledger) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := l.read(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (l *Ledger) User(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := l.read(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ReasonUserNotFound, "user %q not found", id)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &u, nil
}

// FirstUserWithRole backs the identity selector: pick a role, act as its first user.
func (l *Ledger) FirstUserWithRole(ctx context.Context, role models.UserRole) (*models.User, error) {
	var u models.User
	if err := l.read(ctx).Where("role = ?", role).Order("id").First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ReasonUserNotFound, "no user with role %s", role)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &u, nil
}

func (l *Ledger) Restaurants(ctx context.Context) ([]models.Restaurant, error) {
	var rs []models.Restaurant
	if err := l.read(ctx).Order("id").Find(&rs).Error; err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return rs, nil
}

func (l *Ledger) Restaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	var r models.Restaurant
	if err := l.read(ctx).First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ReasonRestaurantNotFound, "restaurant %q not found", id)
		}
		return nil, fmt.Errorf("load restaurant: %w", err)
	}
	return &r, nil
}

// RestaurantOwnedBy resolves an owner's restaurant through Restaurant.OwnerID.
func (l *Ledger) RestaurantOwnedBy(ctx context.Context, ownerID string) (*models.Restaurant, error) {
	var r models.Restaurant
	if err := l.read(ctx).Where("owner_id = ?", ownerID).Order("id").First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ReasonRestaurantNotFound, "no restaurant owned by %q", ownerID)
		}
		return nil, fmt.Errorf("load restaurant: %w", err)
	}
	return &r, nil
}

func (l *Ledger) Sessions(ctx context.Context, f SessionFilter) ([]models.DropoffSession, error) {
	q := l.read(ctx).Model(&models.DropoffSession{})
	if f.RestaurantID != "" {
		q = q.Where("restaurant_id = ?", f.RestaurantID)
	}
	if f.Date != "" {
		q = q.Where("date = ?", f.Date)
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		pattern := "%" + term + "%"
		matching := l.read(ctx).Model(&models.Restaurant{}).Select("id").
			Where("LOWER(name) LIKE ? OR LOWER(category) LIKE ?", pattern, pattern)
		q = q.Where("restaurant_id IN (?)", matching)
	}
	switch f.Audience {
	case AudienceRecipient:
		q = q.Where("status = ? AND remaining_portions > 0 AND type <> ?",
			models.SessionOpen, models.SessionVolunteerOnly)
	case AudienceVolunteer:
		q = q.Where("status = ? AND type IN ?", models.SessionOpen,
			[]models.SessionType{models.SessionVolunteerOnly, models.SessionMixed})
	}

	var sessions []models.DropoffSession
	if err := q.Order("date, start_time, id").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (l *Ledger) Session(ctx context.Context, id string) (*models.DropoffSession, error) {
	var s models.DropoffSession
	if err := findSession(l.read(ctx), id, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (l *Ledger) Booking(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	if err := findBooking(l.read(ctx), "id = ?", id, &b); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ReasonBookingNotFound, "booking %q not found", id)
		}
		return nil, err
	}
	return &b, nil
}

func (l *Ledger) BookingByCode(ctx context.Context, code string) (*models.Booking, error) {
	var b models.Booking
	if err := findBooking(l.read(ctx), "code = ?", code, &b); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ReasonCodeNotFound, "no booking with code %q", code)
		}
		return nil, err
	}
	return &b, nil
}

// BookingsForUser lists a user's bookings, newest first, optionally narrowed
// to the given statuses.
func (l *Ledger) BookingsForUser(ctx context.Context, userID string, statuses ...models.BookingStatus) ([]models.Booking, error) {
	q := l.read(ctx).Where("user_id = ?", userID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var bs []models.Booking
	if err := q.Order("booking_time desc").Find(&bs).Error; err != nil {
		return nil, fmt.Errorf("list user bookings: %w", err)
	}
	return bs, nil
}

// BookingsForRestaurant lists bookings on any of the restaurant's sessions,
// optionally narrowed to the given statuses.
func (l *Ledger) BookingsForRestaurant(ctx context.Context, restaurantID string, statuses ...models.BookingStatus) ([]models.Booking, error) {
	sub := l.read(ctx).Model(&models.DropoffSession{}).Select("id").Where("restaurant_id = ?", restaurantID)
	q := l.read(ctx).Where("session_id IN (?)", sub)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var bs []models.Booking
	if err := q.Order("booking_time desc").Find(&bs).Error; err != nil {
		return nil, fmt.Errorf("list restaurant bookings: %w", err)
	}
	return bs, nil
}

func (l *Ledger) Bookings(ctx context.Context, statuses ...models.BookingStatus) ([]models.Booking, error) {
	q := l.read(ctx)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var bs []models.Booking
	if err := q.Order("booking_time desc").Find(&bs).Error; err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bs, nil
}

// History returns the status trail of a booking, oldest first
func (l *Ledger) History(ctx context.Context, bookingID string) ([]models.BookingStatusHistory, error) {
	var hs []models.BookingStatusHistory
	if err := l.read(ctx).Where("booking_id = ?", bookingID).Order("id").Find(&hs).Error; err != nil {
		return nil, fmt.Errorf("list booking history: %w", err)
	}
	return hs, nil
}

func (l *Ledger) OwnerSummary(ctx context.Context, restaurantID string) (*OwnerSummary, error) {
	bookings, err := l.BookingsForRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	sessions, err := l.Sessions(ctx, SessionFilter{RestaurantID: restaurantID})
	if err != nil {
		return nil, err
	}

	sum := &OwnerSummary{RestaurantID: restaurantID}
	for _, b := range bookings {
		switch b.Status {
		case models.StatusPending:
			sum.PendingBookings++
		case models.StatusApproved, models.StatusCompleted:
			sum.ActiveBookings++
		}
	}
	for _, s := range sessions {
		if s.Status == models.SessionOpen {
			sum.OpenSessions++
			sum.RemainingPortions += s.RemainingPortions
		}
	}
	return sum, nil
}
