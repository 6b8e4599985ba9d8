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

package platform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gamedaylabs/gameday-core/pkg/catalog"
	"github.com/gamedaylabs/gameday-core/pkg/ledger"
	"github.com/gamedaylabs/gameday-core/pkg/logger"
	"github.com/gamedaylabs/gameday-core/pkg/registry"
)

// simStopDelay is how long a simulated workload stop takes. Long enough
// that the stop-wait in the reset flow is actually exercised.
const simStopDelay = 2 * time.Second

// SimPlatform simulates a lab environment in memory. It implements
// Actuator, Observer and WorkloadController, so a local run works end to
// end without cloud credentials: injected faults stay visible to the
// observer until restored, and workload targets take a moment to stop.
type SimPlatform struct {
	catalog  *catalog.Catalog
	registry *registry.Registry
	log      *zap.SugaredLogger

	mu        sync.Mutex
	faulted   map[string]bool
	workloads map[string]WorkloadState
}

// NewSimPlatform creates a simulated platform over the given catalog and
// resource registry.
func NewSimPlatform(cat *catalog.Catalog, reg *registry.Registry) *SimPlatform {
	return &SimPlatform{
		catalog:   cat,
		registry:  reg,
		log:       logger.For(logger.ComponentPlatform),
		faulted:   make(map[string]bool),
		workloads: make(map[string]WorkloadState),
	}
}

// Apply implements the Actuator interface.
func (s *SimPlatform) Apply(ctx context.Context, component string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	comp, ok := s.catalog.Get(component)
	if !ok {
		return fmt.Errorf("unknown component %s", component)
	}

	for _, mapping := range s.registry.ForTypes(comp.Resources) {
		s.log.Infof("Simulating fault on %s (%s)", mapping.Handle, mapping.Type)
	}

	s.mu.Lock()
	s.faulted[component] = true
	s.mu.Unlock()
	return nil
}

// Restore implements the Actuator interface.
func (s *SimPlatform) Restore(ctx context.Context, component string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, ok := s.catalog.Get(component); !ok {
		return fmt.Errorf("unknown component %s", component)
	}

	s.mu.Lock()
	delete(s.faulted, component)
	s.mu.Unlock()
	return nil
}

// Check implements the Observer interface.
func (s *SimPlatform) Check(ctx context.Context, component string) (ledger.HealthStatus, error) {
	if err := ctx.Err(); err != nil {
		return ledger.StatusUnknown, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.faulted[component] {
		return ledger.StatusFaulted, nil
	}
	return ledger.StatusHealthy, nil
}

// Heal clears a simulated fault, standing in for the player's remediation.
func (s *SimPlatform) Heal(component string) {
	s.mu.Lock()
	delete(s.faulted, component)
	s.mu.Unlock()
}

// Stop implements the WorkloadController interface. The target reports
// stopping for a moment before it reaches stopped.
func (s *SimPlatform) Stop(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.workloads[target] = WorkloadStateStopping
	s.mu.Unlock()

	time.AfterFunc(simStopDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.workloads[target] == WorkloadStateStopping {
			s.workloads[target] = WorkloadStateStopped
		}
	})
	return nil
}

// Start implements the WorkloadController interface.
func (s *SimPlatform) Start(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workloads[target] == WorkloadStateStopping {
		return fmt.Errorf("target %s is still stopping", target)
	}
	s.workloads[target] = WorkloadStateRunning
	return nil
}

// Status implements the WorkloadController interface.
func (s *SimPlatform) Status(ctx context.Context, target string) (WorkloadState, error) {
	if err := ctx.Err(); err != nil {
		return WorkloadStateRunning, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.workloads[target]
	if !ok {
		return WorkloadStateRunning, nil
	}
	return state, nil
}
