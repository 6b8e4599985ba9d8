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

package constants

import "time"

const (
	// DefaultSessionID is the session created at boot. Additional sessions
	// can be created through the engine, but the dashboard only ever talks
	// to this one.
	DefaultSessionID = "default"

	// DefaultObservationInterval is the sleep between observation iterations.
	// Bounds polling cost and API rate against the backing resources.
	DefaultObservationInterval = 1 * time.Second

	// DefaultCheckTimeout bounds a single Observer.Check call. A check that
	// exceeds it counts as "still faulted" for that iteration.
	DefaultCheckTimeout = 5 * time.Second

	// DefaultActuatorTimeout bounds a single Actuator apply/restore call.
	DefaultActuatorTimeout = 30 * time.Second

	// DefaultStopWaitTimeout bounds the wait for a workload target to reach
	// the stopped state before start is issued. Starting a target that is
	// still mid-stop is rejected by the platform.
	DefaultStopWaitTimeout = 5 * time.Minute

	// DefaultStopPollInterval is how often the workload state is re-checked
	// while waiting for a stop to complete.
	DefaultStopPollInterval = 10 * time.Second

	// DefaultRestoreRetries is how often a single component's baseline
	// restore is retried before the reset moves on.
	DefaultRestoreRetries = 3

	// DefaultAPIListenAddress is where the dashboard API is served.
	DefaultAPIListenAddress = ":8084"

	// DefaultShutdownTimeout bounds graceful shutdown of the API server.
	DefaultShutdownTimeout = 10 * time.Second
)
