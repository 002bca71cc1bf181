package audio

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	consumers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "emuka", Subsystem: "audio", Name: "consumers",
		Help: "The number of registered audio consumers.",
	})
	pushed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "emuka", Subsystem: "audio", Name: "samples_total",
		Help: "Stereo samples produced by the core.",
	})
	dropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "emuka", Subsystem: "audio", Name: "queue_trims_total",
		Help: "How many times a full consumer queue has dropped its oldest samples.",
	})
)
