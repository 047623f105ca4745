package ledger

import (
	"context"
	"testing"

	"food-rescue-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() SessionInput {
	return SessionInput{
		RestaurantID:  "r1",
		Date:          "2026-10-18",
		StartTime:     "20:00",
		EndTime:       "21:00",
		TotalPortions: 12,
		Description:   "Roti sisa hari ini",
		Allergens:     []string{"Gluten", "Dairy"},
		Type:          models.SessionMixed,
	}
}

func TestCreateSession(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	s, err := l.CreateSession(ctx, owner1, validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 12, s.TotalPortions)
	assert.Equal(t, 12, s.RemainingPortions)
	assert.Equal(t, models.SessionOpen, s.Status)
	assert.Equal(t, models.SessionMixed, s.Type)

	stored, err := l.Session(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gluten", "Dairy"}, stored.Allergens)
	assert.Equal(t, 12, stored.RemainingPortions)

	// new sessions are immediately bookable
	_, err = l.CreateBooking(ctx, volunteer, s.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining(t, l, s.ID))
}

func TestCreateSessionDefaultsAndZeroPortions(t *testing.T) {
	l := newTestLedger(t)
	in := validInput()
	in.Type = ""
	in.Allergens = nil
	in.TotalPortions = 0

	s, err := l.CreateSession(context.Background(), owner1, in)
	require.NoError(t, err)
	assert.Equal(t, models.SessionRegular, s.Type)
	assert.Equal(t, models.SessionOpen, s.Status)
	assert.Equal(t, []string{}, s.Allergens)
	assert.Zero(t, s.RemainingPortions)
}

func TestCreateSessionRefusals(t *testing.T) {
	tests := []struct {
		name   string
		actor  *models.User
		mutate func(in *SessionInput)
		want   Reason
	}{
		{"no actor", nil, func(*SessionInput) {}, ReasonNotAuthenticated},
		{"negative portions", owner1, func(in *SessionInput) { in.TotalPortions = -1 }, ReasonInvalidInput},
		{"empty restaurant", owner1, func(in *SessionInput) { in.RestaurantID = "" }, ReasonInvalidInput},
		{"bad date", owner1, func(in *SessionInput) { in.Date = "18/10/2026" }, ReasonInvalidInput},
		{"bad time", owner1, func(in *SessionInput) { in.StartTime = "8pm" }, ReasonInvalidInput},
		{"bad type", owner1, func(in *SessionInput) { in.Type = "VIP" }, ReasonInvalidInput},
		{"bad status", owner1, func(in *SessionInput) { in.Status = "PAUSED" }, ReasonInvalidInput},
		{"unknown restaurant", owner1, func(in *SessionInput) { in.RestaurantID = "r9" }, ReasonRestaurantNotFound},
		{"not the owner", owner2, func(*SessionInput) {}, ReasonForbidden},
		{"recipient", recipient, func(*SessionInput) {}, ReasonForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t)
			in := validInput()
			tt.mutate(&in)
			before := snapshot(t, l)

			_, err := l.CreateSession(context.Background(), tt.actor, in)
			assertReason(t, err, tt.want)
			assert.Equal(t, before, snapshot(t, l))
		})
	}
}

func TestCreateSessionAdmin(t *testing.T) {
	l := newTestLedger(t)
	in := validInput()
	in.RestaurantID = "r2"
	_, err := l.CreateSession(context.Background(), admin, in)
	require.NoError(t, err)
}

func TestCloseSession(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, err := l.CloseSession(ctx, owner2, "s1")
	assertReason(t, err, ReasonForbidden)

	_, err = l.CloseSession(ctx, owner1, "missing")
	assertReason(t, err, ReasonSessionNotFound)

	s, err := l.CloseSession(ctx, owner1, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionClosed, s.Status)

	// closing twice is harmless
	_, err = l.CloseSession(ctx, owner1, "s1")
	require.NoError(t, err)

	_, err = l.CreateBooking(ctx, recipient, "s1", 1)
	assertReason(t, err, ReasonSessionClosed)
}
