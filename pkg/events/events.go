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

// Package events carries live state-change notifications from the core to
// dashboard consumers. Payload fields are plain strings so subscribers can
// forward events without importing core packages.
package events

import "time"

// Type identifies the kind of event.
type Type string

const (
	// TypePhaseChanged fires on every game phase transition.
	TypePhaseChanged Type = "phase_changed"
	// TypeComponentHealth fires when a component's ledger health changes.
	TypeComponentHealth Type = "component_health"
	// TypeGameStarted fires after a successful fault injection.
	TypeGameStarted Type = "game_started"
	// TypeGameCompleted fires when an observation run converges.
	TypeGameCompleted Type = "game_completed"
	// TypeResetRequested fires when a reset is accepted.
	TypeResetRequested Type = "reset_requested"
)

// Event is one state-change notification.
type Event struct {
	Type      Type      `json:"type"`
	SessionID string    `json:"sessionId,omitempty"`
	Component string    `json:"component,omitempty"`
	Health    string    `json:"health,omitempty"`
	Phase     string    `json:"phase,omitempty"`
	Category  string    `json:"category,omitempty"`
	Elapsed   string    `json:"elapsed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewPhaseChangedEvent reports a phase transition.
func NewPhaseChangedEvent(sessionID, phase string) Event {
	return Event{
		Type:      TypePhaseChanged,
		SessionID: sessionID,
		Phase:     phase,
		Timestamp: time.Now(),
	}
}

// NewComponentHealthEvent reports a ledger health change.
func NewComponentHealthEvent(component, health string) Event {
	return Event{
		Type:      TypeComponentHealth,
		Component: component,
		Health:    health,
		Timestamp: time.Now(),
	}
}

// NewGameStartedEvent reports a started game.
func NewGameStartedEvent(sessionID, category string) Event {
	return Event{
		Type:      TypeGameStarted,
		SessionID: sessionID,
		Category:  category,
		Timestamp: time.Now(),
	}
}

// NewGameCompletedEvent reports a converged remediation with its elapsed time.
func NewGameCompletedEvent(sessionID string, elapsed time.Duration) Event {
	return Event{
		Type:      TypeGameCompleted,
		SessionID: sessionID,
		Elapsed:   elapsed.String(),
		Timestamp: time.Now(),
	}
}

// NewResetRequestedEvent reports an accepted reset.
func NewResetRequestedEvent(sessionID string) Event {
	return Event{
		Type:      TypeResetRequested,
		SessionID: sessionID,
		Timestamp: time.Now(),
	}
}
