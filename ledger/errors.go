package ledger

import (
	"errors"
	"fmt"
)

// Reason tags an expected business-rule failure. Failures are returned, never panicked.
type Reason string

const (
	ReasonNotAuthenticated     Reason = "NOT_AUTHENTICATED"
	ReasonInvalidInput         Reason = "INVALID_INPUT"
	ReasonForbidden            Reason = "FORBIDDEN"
	ReasonNotEligible          Reason = "NOT_ELIGIBLE"
	ReasonSessionNotFound      Reason = "SESSION_NOT_FOUND"
	ReasonSessionClosed        Reason = "SESSION_CLOSED"
	ReasonBookingNotFound      Reason = "BOOKING_NOT_FOUND"
	ReasonRestaurantNotFound   Reason = "RESTAURANT_NOT_FOUND"
	ReasonUserNotFound         Reason = "USER_NOT_FOUND"
	ReasonDailyLimitReached    Reason = "DAILY_LIMIT_REACHED"
	ReasonDuplicateRestaurant  Reason = "DUPLICATE_RESTAURANT"
	ReasonInsufficientPortions Reason = "INSUFFICIENT_PORTIONS"
	ReasonCodeNotFound         Reason = "CODE_NOT_FOUND"
	ReasonWrongRestaurant      Reason = "WRONG_RESTAURANT"
	ReasonAlreadyCompleted     Reason = "ALREADY_COMPLETED"
	ReasonNotApproved          Reason = "NOT_APPROVED"
	ReasonIllegalTransition    Reason = "ILLEGAL_TRANSITION"
)

// Failure is a tagged, recoverable refusal. Two failures match under errors.Is
// when their reasons are equal, so the sentinels below work regardless of message.
type Failure struct {
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return string(f.Reason)
	}
	return string(f.Reason) + ": " + f.Message
}

func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	return ok && t.Reason == f.Reason
}

var (
	ErrNotAuthenticated     = &Failure{Reason: ReasonNotAuthenticated}
	ErrInvalidInput         = &Failure{Reason: ReasonInvalidInput}
	ErrForbidden            = &Failure{Reason: ReasonForbidden}
	ErrNotEligible          = &Failure{Reason: ReasonNotEligible}
	ErrSessionNotFound      = &Failure{Reason: ReasonSessionNotFound}
	ErrSessionClosed        = &Failure{Reason: ReasonSessionClosed}
	ErrBookingNotFound      = &Failure{Reason: ReasonBookingNotFound}
	ErrRestaurantNotFound   = &Failure{Reason: ReasonRestaurantNotFound}
	ErrUserNotFound         = &Failure{Reason: ReasonUserNotFound}
	ErrDailyLimitReached    = &Failure{Reason: ReasonDailyLimitReached}
	ErrDuplicateRestaurant  = &Failure{Reason: ReasonDuplicateRestaurant}
	ErrInsufficientPortions = &Failure{Reason: ReasonInsufficientPortions}
	ErrCodeNotFound         = &Failure{Reason: ReasonCodeNotFound}
	ErrWrongRestaurant      = &Failure{Reason: ReasonWrongRestaurant}
	ErrAlreadyCompleted     = &Failure{Reason: ReasonAlreadyCompleted}
	ErrNotApproved          = &Failure{Reason: ReasonNotApproved}
	ErrIllegalTransition    = &Failure{Reason: ReasonIllegalTransition}
)

func fail(reason Reason, format string, args ...any) *Failure {
	return &Failure{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// ReasonOf returns the failure tag carried by err, if any.
func ReasonOf(err error) (Reason, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason, true
	}
	return "", false
}
