// Package metrics exposes the monitor's activity to Prometheus. One Set
// implements the monitor's stats port; the HTTP server serves the scrape
// endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/health"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/monitor"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/telemetry"
)

// Set holds every collector the monitor loops feed.
type Set struct {
	records      prometheus.Counter
	malformed    prometheus.Counter
	pulses       prometheus.Counter
	linkFailures prometheus.Counter
	transitions  *prometheus.CounterVec

	rpm        *prometheus.GaugeVec
	voltage    *prometheus.GaugeVec
	mosfetTemp *prometheus.GaugeVec
	status     *prometheus.GaugeVec
	linkUp     prometheus.Gauge
}

var _ monitor.StatsSink = (*Set)(nil)

// New builds a Set and registers it on reg. A nil reg falls back to the
// process-wide default registerer.
func New(reg prometheus.Registerer) *Set {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	s := &Set{
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "escmon_records_total",
			Help: "Telemetry records parsed and accepted.",
		}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "escmon_records_malformed_total",
			Help: "Telemetry records dropped as malformed or out of range.",
		}),
		pulses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "escmon_trigger_pulses_total",
			Help: "Trigger bytes written to the collector link.",
		}),
		linkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "escmon_link_failures_total",
			Help: "Poll exchanges that failed to write or timed out reading.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "escmon_status_transitions_total",
			Help: "Motor status transitions by motor and new status.",
		}, []string{"motor", "to"}),
		rpm: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "escmon_motor_rpm",
			Help: "Last reported RPM per motor.",
		}, []string{"motor"}),
		voltage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "escmon_motor_voltage",
			Help: "Last reported bus voltage per motor.",
		}, []string{"motor"}),
		mosfetTemp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "escmon_motor_mosfet_temp",
			Help: "Last reported MOSFET temperature per motor.",
		}, []string{"motor"}),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "escmon_motor_status",
			Help: "Motor status: 0 normal, 1 down, 2 unknown.",
		}, []string{"motor"}),
		linkUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "escmon_link_up",
			Help: "Whether the collector link is inside its communication timeout.",
		}),
	}

	reg.MustRegister(
		s.records,
		s.malformed,
		s.pulses,
		s.linkFailures,
		s.transitions,
		s.rpm,
		s.voltage,
		s.mosfetTemp,
		s.status,
		s.linkUp,
	)
	return s
}

func (s *Set) Pulse()           { s.pulses.Inc() }
func (s *Set) LinkFailure()     { s.linkFailures.Inc() }
func (s *Set) RecordParsed()    { s.records.Inc() }
func (s *Set) RecordMalformed() { s.malformed.Inc() }

// LinkState publishes the collector liveness as 1 or 0.
func (s *Set) LinkState(up bool) {
	if up {
		s.linkUp.Set(1)
		return
	}
	s.linkUp.Set(0)
}

// MotorSample refreshes the per-motor reading gauges.
func (s *Set) MotorSample(sm telemetry.MotorSample) {
	motor := telemetry.MotorLabel(sm.MotorIndex)
	s.rpm.WithLabelValues(motor).Set(sm.RPM)
	s.voltage.WithLabelValues(motor).Set(sm.BusVoltage)
	s.mosfetTemp.WithLabelValues(motor).Set(sm.MosfetTemp)
}

// MotorStatus publishes the classification as a gauge level.
func (s *Set) MotorStatus(motor int, st health.Status) {
	s.status.WithLabelValues(telemetry.MotorLabel(motor)).Set(statusValue(st))
}

// StatusTransition counts a status change by motor and destination.
func (s *Set) StatusTransition(motor int, to health.Status) {
	s.transitions.WithLabelValues(telemetry.MotorLabel(motor), to.String()).Inc()
}

func statusValue(st health.Status) float64 {
	switch st {
	case health.StatusNormal:
		return 0
	case health.StatusDown:
		return 1
	default:
		return 2
	}
}
