// Copyright 2025 Gameday Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	// Component labels.
	ComponentGameEngine        = "game_engine"
	ComponentSessionFSM        = "session_fsm"
	ComponentInjectionEngine   = "injection_engine"
	ComponentObservationEngine = "observation_engine"
	ComponentResetCoordinator  = "reset_coordinator"
	ComponentLedger            = "ledger"
	ComponentAPIServer         = "api_server"
)

var (
	// Namespace and subsystem for all metrics.
	namespace = "gameday"
	subsystem = "core"

	// Error counters.
	errorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors encountered by component",
		},
		[]string{"component", "instance"},
	)

	// Observation iteration timing.
	observationIterationTime = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "observation_iteration_duration_milliseconds",
			Help:      "Time taken for one observation poll iteration (in milliseconds)",
			Objectives: map[float64]float64{
				0.5:  0.01, // 50th percentile with 1% error
				0.9:  0.01, // 90th percentile with 1% error
				0.95: 0.01, // 95th percentile with 1% error
				0.99: 0.01, // 99th percentile with 1% error
			},
		},
		[]string{"session"},
	)

	// Game phase per session (0=Idle, 1=Running, 2=Recovering, -1=Unknown).
	gamePhase = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "game_phase",
			Help:      "Current game phase (0=Idle, 1=Running, 2=Recovering, -1=Unknown)",
		},
		[]string{"session"},
	)

	// Component health (1=Healthy, 0=Faulted).
	componentHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "component_health",
			Help:      "Ledger health of a monitored component (1=Healthy, 0=Faulted)",
		},
		[]string{"component"},
	)

	faultsInjected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "faults_injected_total",
			Help:      "Total number of faults injected by category and difficulty",
		},
		[]string{"category", "difficulty"},
	)

	remediationDuration = promauto.NewSummary(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "remediation_duration_seconds",
			Help:      "Elapsed time from injection to confirmed remediation",
			Objectives: map[float64]float64{
				0.5: 0.01,
				0.9: 0.01,
			},
		},
	)

	resetStepErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reset_step_errors_total",
			Help:      "Total number of failed reset steps by step name",
		},
		[]string{"step"},
	)
)

// InitErrorCounter initializes the error counter for a component and instance
// so the time series exists before the first error occurs.
func InitErrorCounter(component, instance string) {
	errorCounter.WithLabelValues(component, instance).Add(0)
}

// IncErrorCount increments the error counter for a component and instance.
func IncErrorCount(component, instance string) {
	errorCounter.WithLabelValues(component, instance).Inc()
}

// IncErrorCountAndLog increments the error counter and logs the error.
func IncErrorCountAndLog(component, instance string, err error, log *zap.SugaredLogger) {
	IncErrorCount(component, instance)
	if log != nil {
		log.Errorf("error in %s/%s: %v", component, instance, err)
	}
}

// ObserveObservationIteration records the duration of one poll iteration.
func ObserveObservationIteration(session string, duration time.Duration) {
	observationIterationTime.WithLabelValues(session).Observe(float64(duration.Milliseconds()))
}

// SetGamePhase updates the phase gauge for a session.
func SetGamePhase(session string, phase float64) {
	gamePhase.WithLabelValues(session).Set(phase)
}

// SetComponentHealth updates the health gauge for a component.
func SetComponentHealth(component string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	componentHealth.WithLabelValues(component).Set(v)
}

// IncFaultsInjected counts a successful fault injection.
func IncFaultsInjected(category, difficulty string) {
	faultsInjected.WithLabelValues(category, difficulty).Inc()
}

// ObserveRemediationDuration records a completed remediation time.
func ObserveRemediationDuration(duration time.Duration) {
	remediationDuration.Observe(duration.Seconds())
}

// IncResetStepError counts a failed reset step.
func IncResetStepError(step string) {
	resetStepErrors.WithLabelValues(step).Inc()
}

// Handler returns the HTTP handler serving the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
