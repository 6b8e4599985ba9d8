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

package session

import "fmt"

// GamePhase is the overall phase of a game session. Exactly one phase is
// active at a time; the machine's transition table is the only mutation path.
type GamePhase string

const (
	// PhaseIdle means no game is running and injection is legal.
	PhaseIdle GamePhase = "idle"
	// PhaseRunning means faults are injected and an observation run polls
	// for remediation.
	PhaseRunning GamePhase = "running"
	// PhaseRecovering means a reset is restoring the baseline.
	PhaseRecovering GamePhase = "recovering"
)

// Event constants for phase transitions
const (
	// EventInject starts a game (Idle -> Running, injection engine only).
	EventInject = "inject"
	// EventConverge ends a game (Running -> Idle, observation engine only,
	// after every selected component reads healthy).
	EventConverge = "converge"
	// EventResetBegin interrupts any phase into Recovering.
	EventResetBegin = "reset_begin"
	// EventResetComplete ends recovery (Recovering -> Idle, only after the
	// post-reset confirmation pass converged).
	EventResetComplete = "reset_complete"
)

// PhaseValue maps a phase onto the metrics gauge encoding.
func PhaseValue(phase GamePhase) float64 {
	switch phase {
	case PhaseIdle:
		return 0
	case PhaseRunning:
		return 1
	case PhaseRecovering:
		return 2
	default:
		return -1
	}
}

// InvalidTransitionError is returned when a requested transition is not in
// the legal transition table for the current phase. The machine state is
// left untouched.
type InvalidTransitionError struct {
	SessionID string
	Phase     GamePhase
	Event     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("session %s: event %q not legal in phase %q", e.SessionID, e.Event, e.Phase)
}
