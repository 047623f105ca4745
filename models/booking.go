package models

import "time"

// BookingStatus represents all possible states of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusApproved  BookingStatus = "APPROVED"
	StatusRejected  BookingStatus = "REJECTED"
	StatusCompleted BookingStatus = "COMPLETED"
	StatusNoShow    BookingStatus = "NO_SHOW"
	StatusCancelled BookingStatus = "CANCELLED"
)

// AllStatuses lists the six booking states in lifecycle order
var AllStatuses = []BookingStatus{
	StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusNoShow, StatusCancelled,
}

// ActiveStatuses are the states a booker still has to act on
var ActiveStatuses = []BookingStatus{StatusPending, StatusApproved}

// HistoryStatuses are the terminal states
var HistoryStatuses = []BookingStatus{StatusRejected, StatusCompleted, StatusNoShow, StatusCancelled}

func (s BookingStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition may leave s
func (s BookingStatus) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusNoShow, StatusCancelled:
		return true
	}
	return false
}

// Released reports whether a booking in s no longer holds its portions
// or counts toward the daily quota.
func (s BookingStatus) Released() bool {
	return s == StatusRejected || s == StatusCancelled
}

type Booking struct {
	ID            string                 `json:"id" gorm:"primaryKey"`
	SessionID     string                 `json:"session_id" gorm:"index;not null"`
	UserID        string                 `json:"user_id" gorm:"index;not null"`
	Quantity      int                    `json:"quantity" gorm:"not null"`
	Status        BookingStatus          `json:"status" gorm:"not null;default:'PENDING'"`
	BookingTime   time.Time              `json:"booking_time" gorm:"not null"`
	Code          string                 `json:"code" gorm:"uniqueIndex;not null"` // pickup token, SE-####
	StatusHistory []BookingStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:BookingID"`
}

// BookingStatusHistory tracks every status change of a booking
type BookingStatusHistory struct {
	ID         uint          `json:"id" gorm:"primaryKey"`
	BookingID  string        `json:"booking_id" gorm:"index;not null"`
	FromStatus BookingStatus `json:"from_status"`
	ToStatus   BookingStatus `json:"to_status" gorm:"not null"`
	ChangedBy  string        `json:"changed_by"` // user ID who triggered the transition
	Note       string        `json:"note"`
	CreatedAt  time.Time     `json:"created_at"`
}
