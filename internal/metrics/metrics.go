package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckinsAccepted counts successful check-ins.
	CheckinsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smartattend_checkins_accepted_total",
		Help: "Number of accepted check-ins.",
	})

	// CheckinsRejected counts rejected check-ins by reason code.
	CheckinsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartattend_checkins_rejected_total",
		Help: "Number of rejected check-ins, labeled by rejection reason.",
	}, []string{"reason"})

	// SessionsCreated counts sessions created by instructors.
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smartattend_sessions_created_total",
		Help: "Number of sessions created.",
	})
)
