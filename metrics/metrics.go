package metrics

import (
	"food-rescue-api/ledger"
	"food-rescue-api/models"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "food_rescue"

// Recorder counts ledger outcomes. It satisfies ledger.Recorder.
type Recorder struct {
	bookingCreated    *prometheus.CounterVec
	bookingRefused    *prometheus.CounterVec
	bookingTransition *prometheus.CounterVec
	pickupVerified    *prometheus.CounterVec
}

var _ ledger.Recorder = (*Recorder)(nil)

func New() *Recorder {
	return &Recorder{
		bookingCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_created_total",
				Help:      "Count of bookings created by booker role.",
			},
			[]string{"role"},
		),
		bookingRefused: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_refused_total",
				Help:      "Count of refused booking attempts by reason.",
			},
			[]string{"reason"},
		),
		bookingTransition: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_transition_total",
				Help:      "Count of booking status changes.",
			},
			[]string{"from", "to"},
		),
		pickupVerified: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pickup_verified_total",
				Help:      "Count of pickup code verifications by result.",
			},
			[]string{"result"},
		),
	}
}

// Register adds every collector to reg.
func (r *Recorder) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{r.bookingCreated, r.bookingRefused, r.bookingTransition, r.pickupVerified} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) BookingCreated(role models.UserRole) {
	r.bookingCreated.WithLabelValues(string(role)).Inc()
}

func (r *Recorder) BookingRefused(reason ledger.Reason) {
	r.bookingRefused.WithLabelValues(string(reason)).Inc()
}

func (r *Recorder) StatusChanged(from, to models.BookingStatus) {
	r.bookingTransition.WithLabelValues(string(from), string(to)).Inc()
}

func (r *Recorder) PickupVerified(result string) {
	r.pickupVerified.WithLabelValues(result).Inc()
}
