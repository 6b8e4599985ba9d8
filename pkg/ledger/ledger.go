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

// Package ledger persists per-component health flags. Writes are per-key
// and independent; there are no cross-key transactions. The ledger is the
// shared contract read by the dashboard.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"

	"github.com/gamedaylabs/gameday-core/pkg/events"
	"github.com/gamedaylabs/gameday-core/pkg/logger"
	"github.com/gamedaylabs/gameday-core/pkg/metrics"
)

// HealthStatus is the health condition of a monitored component.
type HealthStatus string

const (
	// StatusHealthy means the component is in its documented baseline state.
	StatusHealthy HealthStatus = "healthy"
	// StatusFaulted means a fault is (still) active on the component.
	StatusFaulted HealthStatus = "faulted"
	// StatusUnknown means an observer could not determine the condition.
	// Convergence treats Unknown as Faulted.
	StatusUnknown HealthStatus = "unknown"
)

// ErrUnknownComponent is returned for components outside the catalog.
var ErrUnknownComponent = fmt.Errorf("unknown component")

// Ledger stores per-component health flags with per-key atomic writes.
type Ledger interface {
	// Set updates one component's health flag.
	Set(ctx context.Context, component string, status HealthStatus) error
	// Get returns one component's health flag.
	Get(ctx context.Context, component string) (HealthStatus, error)
	// GetAll returns a snapshot of every component's health flag.
	GetAll(ctx context.Context) (map[string]HealthStatus, error)
}

// MemoryLedger is the in-process reference implementation. A deployment
// backing the ledger with an external key-value store implements the same
// interface; nothing in the core assumes in-memory storage.
type MemoryLedger struct {
	mu     sync.RWMutex
	states map[string]HealthStatus
	bus    *events.Bus
	log    *zap.SugaredLogger
}

// NewMemoryLedger creates a ledger with every named component Healthy.
// The bus is optional; when set, health changes are published to it.
func NewMemoryLedger(components []string, bus *events.Bus) *MemoryLedger {
	states := make(map[string]HealthStatus, len(components))
	for _, name := range components {
		states[name] = StatusHealthy
		metrics.SetComponentHealth(name, true)
	}

	return &MemoryLedger{
		states: states,
		bus:    bus,
		log:    logger.For(logger.ComponentLedger),
	}
}

// Set updates one component's health flag. Writing the same value again is
// a no-op and publishes no event.
func (l *MemoryLedger) Set(ctx context.Context, component string, status HealthStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	prev, ok := l.states[component]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownComponent, component)
	}
	l.states[component] = status
	l.mu.Unlock()

	if prev == status {
		return nil
	}

	l.log.Infof("Component %s: %s -> %s", component, prev, status)
	metrics.SetComponentHealth(component, status == StatusHealthy)
	if l.bus != nil {
		l.bus.Publish(events.NewComponentHealthEvent(component, string(status)))
	}

	return nil
}

// Get returns one component's health flag.
func (l *MemoryLedger) Get(ctx context.Context, component string) (HealthStatus, error) {
	if err := ctx.Err(); err != nil {
		return StatusUnknown, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	status, ok := l.states[component]
	if !ok {
		return StatusUnknown, fmt.Errorf("%w: %s", ErrUnknownComponent, component)
	}
	return status, nil
}

// GetAll returns a snapshot copy of every component's health flag.
func (l *MemoryLedger) GetAll(ctx context.Context) (map[string]HealthStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var snapshot map[string]HealthStatus
	if err := deepcopy.Copy(&snapshot, l.states); err != nil {
		return nil, fmt.Errorf("failed to copy ledger snapshot: %w", err)
	}
	return snapshot, nil
}
