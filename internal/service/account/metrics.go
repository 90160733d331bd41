package account

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var mutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "accounts",
		Name:      "mutations_total",
		Help:      "Account create/update/delete attempts by outcome",
	},
	[]string{"operation", "outcome"},
)

func observe(op, outcome string) { mutationsTotal.WithLabelValues(op, outcome).Inc() }
