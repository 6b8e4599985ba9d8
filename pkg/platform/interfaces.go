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

// Package platform defines the contracts between the core and the backing
// infrastructure. How a fault is physically realized against a resource
// (revoking a network rule, toggling an access block, swapping an instance
// profile) is an adapter concern behind these interfaces.
package platform

import (
	"context"

	"github.com/gamedaylabs/gameday-core/pkg/ledger"
)

// Actuator applies or reverses a fault against a component's backing
// resources. Implementations retry internally against alternative targets
// for partial failures; callers do not retry Apply.
type Actuator interface {
	// Apply puts the component into its faulted condition.
	Apply(ctx context.Context, component string) error
	// Restore returns the component to its documented healthy baseline.
	Restore(ctx context.Context, component string) error
}

// Observer reports the current condition of a component. Callers bound each
// check with a context timeout; a check that errors or returns
// ledger.StatusUnknown counts as still faulted.
type Observer interface {
	Check(ctx context.Context, component string) (ledger.HealthStatus, error)
}

// WorkloadState is the lifecycle state of a compute workload target.
type WorkloadState string

const (
	WorkloadStateRunning  WorkloadState = "running"
	WorkloadStateStopping WorkloadState = "stopping"
	WorkloadStateStopped  WorkloadState = "stopped"
)

// WorkloadController stops and starts the underlying compute workload.
// Reset uses stop-then-start semantics to guarantee a clean process state;
// Status exists so callers can wait for a stop to fully complete before
// issuing the start.
type WorkloadController interface {
	Stop(ctx context.Context, target string) error
	Start(ctx context.Context, target string) error
	Status(ctx context.Context, target string) (WorkloadState, error)
}
