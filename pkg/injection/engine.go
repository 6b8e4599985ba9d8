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

// Package injection selects and applies faults to start a game.
package injection

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	errcategory "github.com/gamedaylabs/gameday-core/pkg/backoff"
	"github.com/gamedaylabs/gameday-core/pkg/catalog"
	"github.com/gamedaylabs/gameday-core/pkg/events"
	"github.com/gamedaylabs/gameday-core/pkg/ledger"
	"github.com/gamedaylabs/gameday-core/pkg/logger"
	"github.com/gamedaylabs/gameday-core/pkg/metrics"
	"github.com/gamedaylabs/gameday-core/pkg/platform"
	"github.com/gamedaylabs/gameday-core/pkg/session"
)

var (
	// ErrGameNotReady is returned when injection is requested outside the
	// Idle phase. No fault is applied and the ledger is untouched.
	ErrGameNotReady = errors.New("game not ready")
	// ErrUnknownCategory is returned for a category outside the catalog.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrUnknownDifficulty is returned for a difficulty other than easy/hard.
	ErrUnknownDifficulty = errors.New("unknown difficulty")
)

// Engine is the failure injection engine of one session.
type Engine struct {
	catalog         *catalog.Catalog
	actuator        platform.Actuator
	ledger          ledger.Ledger
	machine         *session.Machine
	bus             *events.Bus
	actuatorTimeout time.Duration
	log             *zap.SugaredLogger
}

// NewEngine creates an injection engine. The bus is optional.
func NewEngine(cat *catalog.Catalog, actuator platform.Actuator, led ledger.Ledger, machine *session.Machine, bus *events.Bus, actuatorTimeout time.Duration) *Engine {
	metrics.InitErrorCounter(metrics.ComponentInjectionEngine, machine.SessionID())

	return &Engine{
		catalog:         cat,
		actuator:        actuator,
		ledger:          led,
		machine:         machine,
		bus:             bus,
		actuatorTimeout: actuatorTimeout,
		log:             logger.For(logger.ComponentInjectionEngine),
	}
}

// Select returns the components that would be faulted for a category and
// difficulty, without side effects. Easy picks one component uniformly at
// random; hard picks all except components excluded from hard mode.
func (e *Engine) Select(category catalog.Category, difficulty catalog.Difficulty) ([]catalog.Component, error) {
	pool := e.catalog.ByCategory(category)
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	switch difficulty {
	case catalog.DifficultyEasy:
		return []catalog.Component{pool[rand.Intn(len(pool))]}, nil
	case catalog.DifficultyHard:
		var selected []catalog.Component
		for _, comp := range pool {
			if comp.ExcludeFromHard {
				e.log.Debugf("Component %s excluded from hard mode", comp.Name)
				continue
			}
			selected = append(selected, comp)
		}
		return selected, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDifficulty, difficulty)
	}
}

// Inject faults the selected components of a category and transitions the
// session Idle -> Running. The phase is claimed through the machine's guard
// before any actuation, so of two racing injections exactly one applies
// faults; the loser is rejected with ErrGameNotReady and no side effects.
// A single component's actuation failure is logged and does not block the
// others; only successfully faulted components are marked in the ledger and
// returned.
func (e *Engine) Inject(ctx context.Context, category catalog.Category, difficulty catalog.Difficulty) ([]string, error) {
	selected, err := e.Select(category, difficulty)
	if err != nil {
		return nil, err
	}

	// Claiming the phase first makes the Idle precondition atomic with the
	// transition. Whoever fires it owns the game.
	if err := e.machine.BeginGame(ctx); err != nil {
		var invalid *session.InvalidTransitionError
		if errors.As(err, &invalid) {
			return nil, fmt.Errorf("%w: session %s is %s", ErrGameNotReady, invalid.SessionID, invalid.Phase)
		}
		return nil, err
	}

	var faulted []string
	for _, comp := range selected {
		actx, cancel := context.WithTimeout(ctx, e.actuatorTimeout)
		err := e.actuator.Apply(actx, comp.Name)
		cancel()
		if err != nil {
			if errcategory.CategoryOf(err) == errcategory.CategoryIgnored {
				e.log.Debugf("Benign actuation failure for %s: %v", comp.Name, err)
				continue
			}
			metrics.IncErrorCountAndLog(metrics.ComponentInjectionEngine, comp.Name,
				fmt.Errorf("failed to fault %s: %w", comp.Name, err), e.log)
			continue
		}
		faulted = append(faulted, comp.Name)
	}

	if len(faulted) == 0 {
		// Every actuation failed. The game still starts; the observation
		// run over an empty set converges immediately and returns to Idle.
		e.log.Warnf("All %d actuation(s) failed for %s/%s", len(selected), category, difficulty)
	}

	// Ledger writes are per-component and independent; a failed write does
	// not roll back the others.
	for _, name := range faulted {
		if err := e.ledger.Set(ctx, name, ledger.StatusFaulted); err != nil {
			metrics.IncErrorCountAndLog(metrics.ComponentInjectionEngine, name, err, e.log)
		}
	}

	metrics.IncFaultsInjected(string(category), string(difficulty))
	e.log.Infof("Injected %d fault(s) for %s/%s: %v", len(faulted), category, difficulty, faulted)
	if e.bus != nil {
		e.bus.Publish(events.NewGameStartedEvent(e.machine.SessionID(), string(category)))
	}

	return faulted, nil
}
