package statemachine

import (
	"errors"
	"strings"

	"food-rescue-api/models"
)

// Actor is the capacity in which a caller touches a booking
type Actor string

const (
	// ActorStaff is the owner of the restaurant running the session
	ActorStaff Actor = "staff"
	// ActorBooker is the user who made the booking
	ActorBooker Actor = "booker"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.BookingStatus `json:"from"`
	To    models.BookingStatus `json:"to"`
	Actor Actor                `json:"actor"`
}

// ErrIllegalTransition is returned when no actor may perform a change
var ErrIllegalTransition = errors.New("illegal transition")

// ErrActorNotAllowed is returned when the change exists but belongs to another actor
var ErrActorNotAllowed = errors.New("transition not allowed for actor")

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Staff decides on a pending request
	{From: models.StatusPending, To: models.StatusApproved, Actor: ActorStaff},
	{From: models.StatusPending, To: models.StatusRejected, Actor: ActorStaff},
	// Pickup verified at the counter
	{From: models.StatusApproved, To: models.StatusCompleted, Actor: ActorStaff},
	{From: models.StatusApproved, To: models.StatusNoShow, Actor: ActorStaff},
	// The booker may withdraw while the booking is still live
	{From: models.StatusPending, To: models.StatusCancelled, Actor: ActorBooker},
	{From: models.StatusApproved, To: models.StatusCancelled, Actor: ActorBooker},
}

type transitionKey struct {
	From  models.BookingStatus
	To    models.BookingStatus
	Actor Actor
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.BookingStatus) []models.BookingStatus {
	var nexts []models.BookingStatus
	seen := map[models.BookingStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// IsLegal reports whether any actor may move a booking from one state to another
func IsLegal(from, to models.BookingStatus) bool {
	for _, t := range validTransitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// CanTransition checks if one of the given actors can move from one state to another.
// It wraps ErrIllegalTransition when the edge does not exist at all and
// ErrActorNotAllowed when it exists for someone else.
func CanTransition(from, to models.BookingStatus, actors ...Actor) error {
	if !IsLegal(from, to) {
		return &TransitionError{From: from, To: to, err: ErrIllegalTransition}
	}
	for _, a := range actors {
		if transitionMap[transitionKey{From: from, To: to, Actor: a}] {
			return nil
		}
	}
	return &TransitionError{From: from, To: to, Actors: actors, err: ErrActorNotAllowed}
}

// TransitionError describes a refused status change
type TransitionError struct {
	From   models.BookingStatus
	To     models.BookingStatus
	Actors []Actor
	err    error
}

func (e *TransitionError) Error() string {
	if errors.Is(e.err, ErrIllegalTransition) {
		return "invalid transition: " + string(e.From) + " → " + string(e.To) +
			". Valid transitions from " + string(e.From) + " are: " + describeValidFrom(e.From)
	}
	names := make([]string, len(e.Actors))
	for i, a := range e.Actors {
		names[i] = string(a)
	}
	if len(names) == 0 {
		names = []string{"none"}
	}
	return "transition " + string(e.From) + " → " + string(e.To) +
		" is not allowed for actor '" + strings.Join(names, ", ") + "'"
}

func (e *TransitionError) Unwrap() error { return e.err }

func describeValidFrom(status models.BookingStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := make([]string, len(nexts))
	for i, s := range nexts {
		result[i] = string(s)
	}
	return strings.Join(result, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	out := make([]Transition, len(validTransitions))
	copy(out, validTransitions)
	return out
}
