// Package fixtures holds the demo data the server starts with.
package fixtures

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"food-rescue-api/ledger"
	"food-rescue-api/models"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type fileUser struct {
	ID     string          `yaml:"id"`
	Name   string          `yaml:"name"`
	Email  string          `yaml:"email"`
	Role   models.UserRole `yaml:"role"`
	Avatar string          `yaml:"avatar"`
}

type fileRestaurant struct {
	ID       string  `yaml:"id"`
	OwnerID  string  `yaml:"owner_id"`
	Name     string  `yaml:"name"`
	Address  string  `yaml:"address"`
	Image    string  `yaml:"image"`
	Category string  `yaml:"category"`
	Rating   float64 `yaml:"rating"`
	Distance float64 `yaml:"distance"`
}

type fileSession struct {
	ID                string               `yaml:"id"`
	RestaurantID      string               `yaml:"restaurant_id"`
	DayOffset         int                  `yaml:"day_offset"` // days after the load date
	StartTime         string               `yaml:"start_time"`
	EndTime           string               `yaml:"end_time"`
	TotalPortions     int                  `yaml:"total_portions"`
	RemainingPortions int                  `yaml:"remaining_portions"`
	Description       string               `yaml:"description"`
	Allergens         []string             `yaml:"allergens"`
	Status            models.SessionStatus `yaml:"status"`
	Type              models.SessionType   `yaml:"type"`
}

type fileBooking struct {
	ID        string               `yaml:"id"`
	SessionID string               `yaml:"session_id"`
	UserID    string               `yaml:"user_id"`
	Quantity  int                  `yaml:"quantity"`
	Status    models.BookingStatus `yaml:"status"`
	Code      string               `yaml:"code"`
}

type file struct {
	Users       []fileUser       `yaml:"users"`
	Restaurants []fileRestaurant `yaml:"restaurants"`
	Sessions    []fileSession    `yaml:"sessions"`
	Bookings    []fileBooking    `yaml:"bookings"`
}

// Default builds the embedded demo fixture with session dates anchored on now.
func Default(now time.Time) (ledger.Fixture, error) {
	return Parse(seedYAML, now)
}

// Parse decodes a fixture document. Session dates are now+day_offset in now's
// location and seeded bookings are stamped with now.
func Parse(data []byte, now time.Time) (ledger.Fixture, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return ledger.Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}

	out := ledger.Fixture{
		Users:       make([]models.User, 0, len(f.Users)),
		Restaurants: make([]models.Restaurant, 0, len(f.Restaurants)),
		Sessions:    make([]models.DropoffSession, 0, len(f.Sessions)),
		Bookings:    make([]models.Booking, 0, len(f.Bookings)),
	}
	for _, u := range f.Users {
		if !u.Role.Valid() {
			return ledger.Fixture{}, fmt.Errorf("user %s: unknown role %q", u.ID, u.Role)
		}
		out.Users = append(out.Users, models.User{
			ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Avatar: u.Avatar,
		})
	}
	for _, r := range f.Restaurants {
		out.Restaurants = append(out.Restaurants, models.Restaurant{
			ID: r.ID, OwnerID: r.OwnerID, Name: r.Name, Address: r.Address, Image: r.Image,
			Category: r.Category, Rating: r.Rating, Distance: r.Distance,
		})
	}
	for _, s := range f.Sessions {
		allergens := s.Allergens
		if allergens == nil {
			allergens = []string{}
		}
		out.Sessions = append(out.Sessions, models.DropoffSession{
			ID:                s.ID,
			RestaurantID:      s.RestaurantID,
			Date:              now.AddDate(0, 0, s.DayOffset).Format(time.DateOnly),
			StartTime:         s.StartTime,
			EndTime:           s.EndTime,
			TotalPortions:     s.TotalPortions,
			RemainingPortions: s.RemainingPortions,
			Description:       s.Description,
			Allergens:         allergens,
			Status:            s.Status,
			Type:              s.Type,
			CreatedAt:         now,
		})
	}
	for _, b := range f.Bookings {
		out.Bookings = append(out.Bookings, models.Booking{
			ID: b.ID, SessionID: b.SessionID, UserID: b.UserID, Quantity: b.Quantity,
			Status: b.Status, BookingTime: now, Code: b.Code,
		})
	}
	return out, nil
}
