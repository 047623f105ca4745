// Package ledger owns drop-off sessions and bookings. It is the only writer of
// both collections; everything else reads through the views it returns.
//
// Every mutation runs under one mutex and inside one gorm transaction, so a
// validate-then-mutate sequence (quota, portion check, decrement) is never
// interleaved with another booking.
package ledger

import (
	"context"
	"sync"
	"time"

	"food-rescue-api/models"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultDailyLimit is the number of live bookings a USER may hold per calendar day.
const DefaultDailyLimit = 2

// Recorder observes ledger outcomes. The metrics package provides the prometheus one.
type Recorder interface {
	BookingCreated(role models.UserRole)
	BookingRefused(reason Reason)
	StatusChanged(from, to models.BookingStatus)
	PickupVerified(result string)
}

type nopRecorder struct{}

func (nopRecorder) BookingCreated(models.UserRole)                           {}
func (nopRecorder) BookingRefused(Reason)                                    {}
func (nopRecorder) StatusChanged(models.BookingStatus, models.BookingStatus) {}
func (nopRecorder) PickupVerified(string)                                    {}

type Ledger struct {
	db *gorm.DB
	mu sync.Mutex

	now        func() time.Time
	loc        *time.Location
	dailyLimit int
	restock    bool
	codes      *CodeGenerator
	validate   *validator.Validate
	log        logrus.FieldLogger
	rec        Recorder
}

type Option func(*Ledger)

// WithClock replaces time.Now. Tests pin the clock to exercise the daily quota.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLocation sets the zone whose calendar days the quota counts in.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

func WithDailyLimit(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.dailyLimit = n
		}
	}
}

// WithRestock controls whether REJECTED and CANCELLED bookings return their
// portions to the session.
func WithRestock(on bool) Option {
	return func(l *Ledger) { l.restock = on }
}

func WithCodeGenerator(g *CodeGenerator) Option {
	return func(l *Ledger) {
		if g != nil {
			l.codes = g
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(l *Ledger) {
		if r != nil {
			l.rec = r
		}
	}
}

// New builds a ledger over an already migrated database.
func New(db *gorm.DB, opts ...Option) *Ledger {
	l := &Ledger{
		db:         db,
		now:        time.Now,
		loc:        time.Local,
		dailyLimit: DefaultDailyLimit,
		restock:    true,
		codes:      NewCodeGenerator("SE-", nil),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		log:        logrus.StandardLogger(),
		rec:        nopRecorder{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// mutate runs fn in a transaction while holding the ledger lock.
func (l *Ledger) mutate(ctx context.Context, fn func(tx *gorm.DB) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.WithContext(ctx).Transaction(fn)
}

// today returns the ledger's current calendar date as YYYY-MM-DD.
func (l *Ledger) today() string {
	return localDate(l.now(), l.loc)
}

func localDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.DateOnly)
}
