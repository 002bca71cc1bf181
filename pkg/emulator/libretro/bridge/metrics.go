package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var faults = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "emuka", Subsystem: "bridge", Name: "faults_total",
	Help: "Callback handler faults caught before they reached the core.",
}, []string{"callback"})
