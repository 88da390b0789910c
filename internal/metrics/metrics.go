// Package metrics exposes prometheus counters for check-in outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckinAccepted counts committed attendance events.
	CheckinAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_checkins_accepted_total",
		Help: "Accepted check-in attempts.",
	})

	// CheckinRejected counts rejections by reason.
	CheckinRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_checkins_rejected_total",
		Help: "Rejected check-in attempts by reason.",
	}, []string{"reason"})

	// CheckinErrors counts store-level failures distinct from rejections.
	CheckinErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_checkin_errors_total",
		Help: "Check-in attempts that failed on store errors.",
	})

	// SessionsCreated counts attendance sessions opened by instructors.
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_sessions_created_total",
		Help: "Attendance sessions created.",
	})
)
