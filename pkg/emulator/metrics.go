package emulator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "emuka", Subsystem: "emulator", Name: "frames_total",
		Help: "Frame ticks handled by the emulator.",
	})
	framesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "emuka", Subsystem: "emulator", Name: "frames_skipped_total",
		Help: "Ticks consumed without advancing because the emulation ran ahead.",
	})
	framesCatchUp = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "emuka", Subsystem: "emulator", Name: "frames_catch_up_total",
		Help: "Extra frames run because the emulation fell behind.",
	})
	frameDrift = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "emuka", Subsystem: "emulator", Name: "frame_drift_seconds",
		Help: "Accumulated difference between the real and nominal frame time.",
	})
	queueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "emuka", Subsystem: "emulator", Name: "queue_length",
		Help: "Commands waiting for the emulator.",
	})
)
