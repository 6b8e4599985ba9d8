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
	"sync"

	"github.com/gamedaylabs/gameday-core/pkg/ledger"
)

// MockActuator is a mock implementation of Actuator for testing.
type MockActuator struct {
	mutex        sync.Mutex
	ApplyCalls   []string
	RestoreCalls []string

	// ApplyFunc overrides the default behavior (success) when set.
	ApplyFunc func(ctx context.Context, component string) error
	// RestoreFunc overrides the default behavior (success) when set.
	RestoreFunc func(ctx context.Context, component string) error
}

// NewMockActuator creates a new MockActuator instance.
func NewMockActuator() *MockActuator {
	return &MockActuator{}
}

// Apply implements the Actuator interface.
func (m *MockActuator) Apply(ctx context.Context, component string) error {
	m.mutex.Lock()
	m.ApplyCalls = append(m.ApplyCalls, component)
	m.mutex.Unlock()

	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, component)
	}
	return nil
}

// Restore implements the Actuator interface.
func (m *MockActuator) Restore(ctx context.Context, component string) error {
	m.mutex.Lock()
	m.RestoreCalls = append(m.RestoreCalls, component)
	m.mutex.Unlock()

	if m.RestoreFunc != nil {
		return m.RestoreFunc(ctx, component)
	}
	return nil
}

// AppliedComponents returns a copy of the components Apply was called with.
func (m *MockActuator) AppliedComponents() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	out := make([]string, len(m.ApplyCalls))
	copy(out, m.ApplyCalls)
	return out
}

// RestoredComponents returns a copy of the components Restore was called with.
func (m *MockActuator) RestoredComponents() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	out := make([]string, len(m.RestoreCalls))
	copy(out, m.RestoreCalls)
	return out
}

// MockObserver is a mock implementation of Observer for testing.
// By default every component reports faulted, matching the state right
// after an injection.
type MockObserver struct {
	mutex      sync.Mutex
	CheckCalls []string

	// CheckFunc overrides the default behavior when set.
	CheckFunc func(ctx context.Context, component string) (ledger.HealthStatus, error)
}

// NewMockObserver creates a new MockObserver instance.
func NewMockObserver() *MockObserver {
	return &MockObserver{}
}

// Check implements the Observer interface.
func (m *MockObserver) Check(ctx context.Context, component string) (ledger.HealthStatus, error) {
	m.mutex.Lock()
	m.CheckCalls = append(m.CheckCalls, component)
	m.mutex.Unlock()

	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, component)
	}
	return ledger.StatusFaulted, nil
}

// CheckCount returns how often Check was called for a component.
func (m *MockObserver) CheckCount(component string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	count := 0
	for _, c := range m.CheckCalls {
		if c == component {
			count++
		}
	}
	return count
}

// MockWorkloadController is a mock implementation of WorkloadController
// for testing. Stop moves a target to stopped immediately unless StopFunc
// or StatusFunc script something slower.
type MockWorkloadController struct {
	mutex      sync.Mutex
	states     map[string]WorkloadState
	StopCalls  []string
	StartCalls []string

	StopFunc   func(ctx context.Context, target string) error
	StartFunc  func(ctx context.Context, target string) error
	StatusFunc func(ctx context.Context, target string) (WorkloadState, error)
}

// NewMockWorkloadController creates a new MockWorkloadController instance.
func NewMockWorkloadController() *MockWorkloadController {
	return &MockWorkloadController{states: make(map[string]WorkloadState)}
}

// Stop implements the WorkloadController interface.
func (m *MockWorkloadController) Stop(ctx context.Context, target string) error {
	m.mutex.Lock()
	m.StopCalls = append(m.StopCalls, target)
	m.mutex.Unlock()

	if m.StopFunc != nil {
		return m.StopFunc(ctx, target)
	}

	m.SetState(target, WorkloadStateStopped)
	return nil
}

// Start implements the WorkloadController interface.
func (m *MockWorkloadController) Start(ctx context.Context, target string) error {
	m.mutex.Lock()
	m.StartCalls = append(m.StartCalls, target)
	m.mutex.Unlock()

	if m.StartFunc != nil {
		return m.StartFunc(ctx, target)
	}

	m.SetState(target, WorkloadStateRunning)
	return nil
}

// Status implements the WorkloadController interface.
func (m *MockWorkloadController) Status(ctx context.Context, target string) (WorkloadState, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, target)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	state, ok := m.states[target]
	if !ok {
		return WorkloadStateRunning, nil
	}
	return state, nil
}

// SetState scripts the state Status reports for a target.
func (m *MockWorkloadController) SetState(target string, state WorkloadState) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.states[target] = state
}
