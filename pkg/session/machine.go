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

// Package session owns the game phase state machine. One Machine exists per
// game session; the "default" session is created at boot. Only the engine
// owning a transition may fire it, enforced by the guarded event table, not
// by a separate lock.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/gamedaylabs/gameday-core/pkg/events"
	"github.com/gamedaylabs/gameday-core/pkg/logger"
	"github.com/gamedaylabs/gameday-core/pkg/metrics"
)

// Machine is the phase state machine of one game session.
type Machine struct {
	sessionID string

	// mu serializes event firing so a guard check and its transition are
	// atomic with respect to other callers.
	mu sync.Mutex

	fsm *fsm.FSM

	log *zap.SugaredLogger
	bus *events.Bus
}

// NewMachine creates a session machine in the Idle phase. The bus is
// optional; when set, every phase change is published to it.
func NewMachine(sessionID string, bus *events.Bus) *Machine {
	m := &Machine{
		sessionID: sessionID,
		log:       logger.For(logger.ComponentSessionFSM),
		bus:       bus,
	}

	m.fsm = fsm.NewFSM(
		string(PhaseIdle),
		fsm.Events{
			{Name: EventInject, Src: []string{string(PhaseIdle)}, Dst: string(PhaseRunning)},
			{Name: EventConverge, Src: []string{string(PhaseRunning)}, Dst: string(PhaseIdle)},
			{Name: EventResetBegin, Src: []string{string(PhaseIdle), string(PhaseRunning)}, Dst: string(PhaseRecovering)},
			{Name: EventResetComplete, Src: []string{string(PhaseRecovering)}, Dst: string(PhaseIdle)},
		},
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				m.onEnterState(e)
			},
		},
	)

	metrics.SetGamePhase(sessionID, PhaseValue(PhaseIdle))
	metrics.InitErrorCounter(metrics.ComponentSessionFSM, sessionID)

	return m
}

// onEnterState publishes the phase change.
func (m *Machine) onEnterState(e *fsm.Event) {
	phase := GamePhase(e.Dst)
	m.log.Infof("Session %s: phase %s -> %s (%s)", m.sessionID, e.Src, e.Dst, e.Event)
	metrics.SetGamePhase(m.sessionID, PhaseValue(phase))
	if m.bus != nil {
		m.bus.Publish(events.NewPhaseChangedEvent(m.sessionID, e.Dst))
	}
}

// SessionID returns the session this machine belongs to.
func (m *Machine) SessionID() string {
	return m.sessionID
}

// Current returns the current phase.
func (m *Machine) Current() GamePhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return GamePhase(m.fsm.Current())
}

// fire sends an event to the machine. An event that is not legal in the
// current phase fails with InvalidTransitionError and mutates nothing.
func (m *Machine) fire(ctx context.Context, event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fireLocked(ctx, event)
}

// fireLocked requires m.mu to be held.
func (m *Machine) fireLocked(ctx context.Context, event string) error {
	err := m.fsm.Event(ctx, event)
	if err == nil {
		return nil
	}

	var invalid fsm.InvalidEventError
	if errors.As(err, &invalid) {
		return &InvalidTransitionError{
			SessionID: m.sessionID,
			Phase:     GamePhase(m.fsm.Current()),
			Event:     event,
		}
	}

	metrics.IncErrorCount(metrics.ComponentSessionFSM, m.sessionID)
	return err
}

// BeginGame transitions Idle -> Running. Injection engine only.
func (m *Machine) BeginGame(ctx context.Context) error {
	return m.fire(ctx, EventInject)
}

// Converge transitions Running -> Idle. Observation engine only; the caller
// guarantees every selected component reads healthy in the ledger first.
func (m *Machine) Converge(ctx context.Context) error {
	return m.fire(ctx, EventConverge)
}

// BeginReset transitions any phase into Recovering. Calling it while the
// session is already Recovering is legal and a no-op, which is what makes
// reset retriable from a stuck recovery.
func (m *Machine) BeginReset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if GamePhase(m.fsm.Current()) == PhaseRecovering {
		return nil
	}
	return m.fireLocked(ctx, EventResetBegin)
}

// CompleteReset transitions Recovering -> Idle after the post-reset
// confirmation pass converged.
func (m *Machine) CompleteReset(ctx context.Context) error {
	return m.fire(ctx, EventResetComplete)
}
