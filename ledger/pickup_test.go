package ledger

import (
	"context"
	"strings"
	"testing"

	"food-rescue-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvedBooking(t *testing.T, l *Ledger) *models.Booking {
	t.Helper()
	b := book(t, l, recipient, "s1", 1)
	_, err := l.UpdateBookingStatus(context.Background(), owner1, b.ID, models.StatusApproved, "")
	require.NoError(t, err)
	return b
}

func TestVerifyPickupCodeCompletesOnce(t *testing.T) {
	rec := &recorded{}
	l := newTestLedger(t, WithRecorder(rec))
	ctx := context.Background()
	b := approvedBooking(t, l)

	done, err := l.VerifyPickupCode(ctx, owner1, b.Code)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.Equal(t, b.ID, done.ID)

	_, err = l.VerifyPickupCode(ctx, owner1, b.Code)
	assertReason(t, err, ReasonAlreadyCompleted)

	stored, err := l.Booking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)

	assert.Equal(t, []string{"OK", string(ReasonAlreadyCompleted)}, rec.verified)
}

func TestVerifyPickupCodeRefusals(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	approved := approvedBooking(t, l)
	pending := book(t, l, recipient2, "s1", 1)

	rejected := book(t, l, volunteer, "s5", 1)
	_, err := l.UpdateBookingStatus(ctx, owner1, rejected.ID, models.StatusRejected, "")
	require.NoError(t, err)

	tests := []struct {
		name  string
		actor *models.User
		code  string
		want  Reason
	}{
		{"no actor", nil, approved.Code, ReasonNotAuthenticated},
		{"unknown code", owner1, "SE-0000", ReasonCodeNotFound},
		{"code lookup precedes restaurant check", owner2, "SE-0000", ReasonCodeNotFound},
		{"other restaurant", owner2, approved.Code, ReasonWrongRestaurant},
		{"recipient is not staff", recipient, approved.Code, ReasonWrongRestaurant},
		{"pending", owner1, pending.Code, ReasonNotApproved},
		{"rejected", owner1, rejected.Code, ReasonNotApproved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.VerifyPickupCode(ctx, tt.actor, tt.code)
			assertReason(t, err, tt.want)
		})
	}

	stored, err := l.Booking(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)
}

func TestVerifyPickupCodeExactMatchAndAdmin(t *testing.T) {
	l := newTestLedger(t)
	b := approvedBooking(t, l)

	for _, code := range []string{" " + b.Code, b.Code + "\n", strings.ToLower(b.Code)} {
		_, err := l.VerifyPickupCode(context.Background(), admin, code)
		assertReason(t, err, ReasonCodeNotFound)
	}

	done, err := l.VerifyPickupCode(context.Background(), admin, b.Code)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)

	history, err := l.History(context.Background(), b.ID)
	require.NoError(t, err)
	last := history[len(history)-1]
	assert.Equal(t, models.StatusApproved, last.FromStatus)
	assert.Equal(t, models.StatusCompleted, last.ToStatus)
	assert.Equal(t, "a1", last.ChangedBy)
}

func TestVerifyPickupCodeDoesNotRestock(t *testing.T) {
	l := newTestLedger(t)
	b := approvedBooking(t, l)
	_, err := l.VerifyPickupCode(context.Background(), owner1, b.Code)
	require.NoError(t, err)
	assert.Equal(t, 14, remaining(t, l, "s1"))
}
