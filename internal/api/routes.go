package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/auth"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/monitor"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/telemetry"
)

// RegisterRoutes registers every endpoint on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	apiV1 := "/api/v1"

	// Health and metrics carry no auth; probes and scrapers have no tokens.
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	if s.authMiddleware == nil {
		mux.HandleFunc(apiV1+"/status", s.handleStatus)
		mux.HandleFunc(apiV1+"/motors", s.handleMotors)
		mux.HandleFunc(apiV1+"/motors/", s.handleMotor)
		mux.HandleFunc(apiV1+"/stream", s.handleStream)
		return
	}

	mux.HandleFunc(apiV1+"/status", s.authMiddleware.Require(auth.ScopeRead)(s.handleStatus))
	mux.HandleFunc(apiV1+"/motors", s.authMiddleware.Require(auth.ScopeRead)(s.handleMotors))
	mux.HandleFunc(apiV1+"/motors/", s.authMiddleware.Require(auth.ScopeRead)(s.handleMotor))
	mux.HandleFunc(apiV1+"/stream", s.authMiddleware.Require(auth.ScopeTelemetry)(s.handleStream))
}

// motorView is one motor's state with its operator-facing label attached.
type motorView struct {
	Motor string `json:"motor"`
	monitor.MotorHealthState
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	uptime := 0.0
	if !s.startTime.IsZero() {
		uptime = time.Since(s.startTime).Seconds()
	}

	motors := 0
	if s.table != nil {
		motors = s.table.Len()
	}

	WriteSuccess(w, map[string]interface{}{
		"status":        "ok",
		"uptimeSeconds": uptime,
		"motors":        motors,
	})
}

// handleStatus handles GET /status: the same aggregate document the
// monitor publishes on its snapshot tick.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}
	if s.table == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE",
			"State table not available", nil)
		return
	}

	WriteSuccess(w, s.table.BuildSnapshot())
}

// handleMotors handles GET /motors.
func (s *Server) handleMotors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}
	if s.table == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE",
			"State table not available", nil)
		return
	}

	rows := s.table.Rows()
	views := make([]motorView, len(rows))
	for i, row := range rows {
		views[i] = motorView{
			Motor:            telemetry.MotorLabel(i),
			MotorHealthState: row,
		}
	}
	WriteSuccess(w, views)
}

// handleMotor handles GET /motors/{n}, where n is the 1-based motor number
// used everywhere operators see one.
func (s *Server) handleMotor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}
	if s.table == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE",
			"State table not available", nil)
		return
	}

	label := strings.TrimPrefix(r.URL.Path, "/api/v1/motors/")
	n, err := strconv.Atoi(label)
	if err != nil || n < 1 || n > s.table.Len() {
		WriteError(w, http.StatusNotFound, "NOT_FOUND",
			"Unknown motor: "+label, nil)
		return
	}

	row, err := s.table.Motor(n - 1)
	if err != nil {
		WriteError(w, http.StatusNotFound, "NOT_FOUND",
			"Unknown motor: "+label, nil)
		return
	}

	WriteSuccess(w, motorView{
		Motor:            telemetry.MotorLabel(n - 1),
		MotorHealthState: row,
	})
}

// handleStream handles GET /stream (SSE).
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.stream == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE",
			"Streaming not available", nil)
		return
	}
	s.stream.ServeHTTP(w, r)
}
