// Package metrics exposes Prometheus collectors for the admission and
// check-in paths.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service counters.
type Metrics struct {
	AdmissionsTotal      prometheus.Counter
	AdmissionRejections  *prometheus.CounterVec
	CancellationsTotal   prometheus.Counter
	CheckInsTotal        prometheus.Counter
	CheckInRejections    *prometheus.CounterVec
	NotificationsDropped prometheus.Counter
}

// New registers the collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AdmissionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "communityhub_admissions_total",
			Help: "Registrations admitted.",
		}),
		AdmissionRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "communityhub_admission_rejections_total",
			Help: "Registrations refused, by reason.",
		}, []string{"reason"}),
		CancellationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "communityhub_cancellations_total",
			Help: "Registrations cancelled.",
		}),
		CheckInsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "communityhub_checkins_total",
			Help: "Check-ins recorded.",
		}),
		CheckInRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "communityhub_checkin_rejections_total",
			Help: "Check-ins refused, by reason.",
		}, []string{"reason"}),
		NotificationsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "communityhub_notifications_dropped_total",
			Help: "Notifications discarded because the queue was full.",
		}),
	}
}

// Handler serves the metrics endpoint for the given gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
