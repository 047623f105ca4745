package models

import "time"

type SessionStatus string

const (
	SessionOpen   SessionStatus = "OPEN"
	SessionClosed SessionStatus = "CLOSED"
)

// SessionType decides which roles may book a session
type SessionType string

const (
	SessionRegular       SessionType = "REGULAR"
	SessionVolunteerOnly SessionType = "VOLUNTEER_ONLY"
	SessionMixed         SessionType = "MIXED"
)

// DropoffSession is a pickup window offered by a restaurant.
// 0 <= RemainingPortions <= TotalPortions holds at all times.
type DropoffSession struct {
	ID                string        `json:"id" gorm:"primaryKey"`
	RestaurantID      string        `json:"restaurant_id" gorm:"index;not null"`
	Date              string        `json:"date" gorm:"not null"` // YYYY-MM-DD
	StartTime         string        `json:"start_time"`           // HH:MM
	EndTime           string        `json:"end_time"`
	TotalPortions     int           `json:"total_portions" gorm:"not null"`
	RemainingPortions int           `json:"remaining_portions" gorm:"not null"`
	Description       string        `json:"description"`
	Allergens         []string      `json:"allergens" gorm:"serializer:json"`
	Status            SessionStatus `json:"status" gorm:"not null;default:'OPEN'"`
	Type              SessionType   `json:"type" gorm:"not null;default:'REGULAR'"`
	CreatedAt         time.Time     `json:"created_at"`
}

// BookableBy reports whether a role may book this kind of session
func (t SessionType) BookableBy(role UserRole) bool {
	switch role {
	case RoleVolunteer:
		return true
	case RoleUser:
		return t != SessionVolunteerOnly
	}
	return false
}
