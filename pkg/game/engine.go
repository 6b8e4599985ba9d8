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

// Package game is the orchestration facade. It owns the per-session state
// machines and ties injection, observation and reset together into the
// start-game and reset flows the API exposes.
package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gamedaylabs/gameday-core/pkg/catalog"
	"github.com/gamedaylabs/gameday-core/pkg/events"
	"github.com/gamedaylabs/gameday-core/pkg/injection"
	"github.com/gamedaylabs/gameday-core/pkg/ledger"
	"github.com/gamedaylabs/gameday-core/pkg/logger"
	"github.com/gamedaylabs/gameday-core/pkg/metrics"
	"github.com/gamedaylabs/gameday-core/pkg/observation"
	"github.com/gamedaylabs/gameday-core/pkg/platform"
	"github.com/gamedaylabs/gameday-core/pkg/reset"
	"github.com/gamedaylabs/gameday-core/pkg/session"
)

// ErrEngineClosed is returned for operations on a closed engine.
var ErrEngineClosed = errors.New("game engine closed")

// Config tunes the engine's timing.
type Config struct {
	// ObservationInterval is the pause between observation iterations.
	ObservationInterval time.Duration
	// CheckTimeout bounds one observer check.
	CheckTimeout time.Duration
	// ActuatorTimeout bounds one fault or restore call.
	ActuatorTimeout time.Duration
	// StopWaitTimeout bounds the wait for a workload target to stop.
	StopWaitTimeout time.Duration
	// StopPollInterval is the re-check interval of the stop wait.
	StopPollInterval time.Duration
	// RestoreRetries bounds restore attempts per component during reset.
	RestoreRetries int
	// WorkloadTargets are the compute resources restarted during reset.
	WorkloadTargets []string
}

// sessionState bundles everything belonging to one game session. The
// machine serializes phase transitions; runCancel and resetCancel stop the
// background flows when a reset preempts them.
type sessionState struct {
	machine     *session.Machine
	injector    *injection.Engine
	coordinator *reset.Coordinator

	runCancel   context.CancelFunc
	resetCancel context.CancelFunc
}

// Engine orchestrates game sessions over one shared environment. Sessions
// have independent phase machines but share the catalog, the ledger and the
// platform adapters.
type Engine struct {
	catalog  *catalog.Catalog
	actuator platform.Actuator
	observer platform.Observer
	workload platform.WorkloadController
	ledger   ledger.Ledger
	bus      *events.Bus
	recorder Recorder
	cfg      Config
	log      *zap.SugaredLogger

	mu       sync.Mutex
	sessions map[string]*sessionState
	closed   bool

	wg sync.WaitGroup
}

// NewEngine creates a game engine. The recorder may be nil, in which case
// completion times only go to the log.
func NewEngine(cat *catalog.Catalog, actuator platform.Actuator, observer platform.Observer, workload platform.WorkloadController, led ledger.Ledger, bus *events.Bus, recorder Recorder, cfg Config) *Engine {
	if recorder == nil {
		recorder = NewLogRecorder()
	}

	return &Engine{
		catalog:  cat,
		actuator: actuator,
		observer: observer,
		workload: workload,
		ledger:   led,
		bus:      bus,
		recorder: recorder,
		cfg:      cfg,
		log:      logger.For(logger.ComponentGameEngine),
		sessions: make(map[string]*sessionState),
	}
}

// session returns the state for a session id, creating it in the Idle phase
// on first use.
func (e *Engine) session(sessionID string) (*sessionState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}

	st, ok := e.sessions[sessionID]
	if ok {
		return st, nil
	}

	machine := session.NewMachine(sessionID, e.bus)
	st = &sessionState{
		machine:  machine,
		injector: injection.NewEngine(e.catalog, e.actuator, e.ledger, machine, e.bus, e.cfg.ActuatorTimeout),
		coordinator: reset.NewCoordinator(e.catalog, e.actuator, e.workload, e.ledger, machine, reset.Config{
			ActuatorTimeout:  e.cfg.ActuatorTimeout,
			StopWaitTimeout:  e.cfg.StopWaitTimeout,
			StopPollInterval: e.cfg.StopPollInterval,
			RestoreRetries:   e.cfg.RestoreRetries,
			WorkloadTargets:  e.cfg.WorkloadTargets,
		}),
	}
	e.sessions[sessionID] = st
	return st, nil
}

// StartGame injects faults for the category and difficulty, moves the
// session to Running and starts the observation run in the background. It
// returns the names of the successfully faulted components. Fails with
// injection.ErrGameNotReady unless the session is Idle.
func (e *Engine) StartGame(ctx context.Context, sessionID string, category catalog.Category, difficulty catalog.Difficulty) ([]string, error) {
	st, err := e.session(sessionID)
	if err != nil {
		return nil, err
	}

	faulted, err := st.injector.Inject(ctx, category, difficulty)
	if err != nil {
		return nil, err
	}
	startedAt := time.Now()

	run := observation.NewRun(sessionID, faulted, e.observer, e.ledger, e.cfg.ObservationInterval, e.cfg.CheckTimeout)

	// The run outlives the HTTP request that started the game, so it gets
	// its own context, cancelled only by a reset or engine shutdown.
	runCtx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	st.runCancel = cancel
	e.mu.Unlock()

	e.log.Infof("Session %s: game started, run %s watching %d component(s)", sessionID, run.ID(), len(faulted))

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()
		e.superviseGame(runCtx, st, run, TimeRecord{
			SessionID:  sessionID,
			Category:   category,
			Difficulty: difficulty,
		}, startedAt)
	}()

	return faulted, nil
}

// superviseGame waits for the observation run and completes the game when
// it converges. A cancelled run means a reset preempted the game; nothing
// is recorded then.
func (e *Engine) superviseGame(ctx context.Context, st *sessionState, run *observation.Run, record TimeRecord, startedAt time.Time) {
	if err := run.Execute(ctx); err != nil {
		e.log.Infof("Session %s: run %s cancelled before convergence", record.SessionID, run.ID())
		return
	}

	if err := st.machine.Converge(ctx); err != nil {
		// A reset slipped in between convergence and the transition. The
		// reset flow owns the session now.
		e.log.Warnf("Session %s: convergence discarded: %s", record.SessionID, err)
		return
	}

	record.Elapsed = time.Since(startedAt)
	metrics.ObserveRemediationDuration(record.Elapsed)

	if err := e.recorder.Record(ctx, record); err != nil {
		metrics.IncErrorCountAndLog(metrics.ComponentGameEngine, record.SessionID, err, e.log)
	}

	e.log.Infof("Session %s: all faults remediated in %s", record.SessionID, record.Elapsed)
	if e.bus != nil {
		e.bus.Publish(events.NewGameCompletedEvent(record.SessionID, record.Elapsed))
	}
}

// Reset accepts a reset for the session and returns immediately. The reset
// itself runs in the background: it cancels any active observation run and
// any reset already in flight, restores the baseline, and finishes with a
// confirmation pass over every catalog component. Only the confirmation
// pass's convergence returns the session to Idle. Legal in every phase.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	st, err := e.session(sessionID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if st.runCancel != nil {
		st.runCancel()
		st.runCancel = nil
	}
	if st.resetCancel != nil {
		st.resetCancel()
	}
	resetCtx, cancel := context.WithCancel(context.Background())
	st.resetCancel = cancel
	e.mu.Unlock()

	e.log.Infof("Session %s: reset accepted", sessionID)
	if e.bus != nil {
		e.bus.Publish(events.NewResetRequestedEvent(sessionID))
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.runReset(resetCtx, st)
	}()

	return nil
}

// runReset executes the reset steps and the confirmation pass. The pass
// covers the full catalog, not just the faulted set, so a reset issued
// mid-game cannot declare components healthy it never looked at.
func (e *Engine) runReset(ctx context.Context, st *sessionState) {
	sessionID := st.machine.SessionID()

	if err := st.coordinator.Execute(ctx); err != nil {
		e.log.Infof("Session %s: reset aborted: %s", sessionID, err)
		return
	}

	confirm := observation.NewRun(sessionID, e.catalog.Names(), e.observer, e.ledger, e.cfg.ObservationInterval, e.cfg.CheckTimeout)
	e.log.Infof("Session %s: reset complete, confirmation run %s started", sessionID, confirm.ID())

	if err := confirm.Execute(ctx); err != nil {
		e.log.Infof("Session %s: confirmation run %s cancelled", sessionID, confirm.ID())
		return
	}

	if err := st.machine.CompleteReset(ctx); err != nil {
		metrics.IncErrorCountAndLog(metrics.ComponentGameEngine, sessionID, err, e.log)
		return
	}

	e.log.Infof("Session %s: environment confirmed healthy, back to idle", sessionID)
}

// Phase returns the session's current game phase. Unknown sessions are
// Idle; they simply have not been used yet.
func (e *Engine) Phase(sessionID string) session.GamePhase {
	e.mu.Lock()
	st, ok := e.sessions[sessionID]
	e.mu.Unlock()
	if !ok {
		return session.PhaseIdle
	}
	return st.machine.Current()
}

// ComponentStates returns the current ledger snapshot.
func (e *Engine) ComponentStates(ctx context.Context) (map[string]ledger.HealthStatus, error) {
	return e.ledger.GetAll(ctx)
}

// Close cancels every background run and waits for them to finish. The
// engine rejects new operations afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for _, st := range e.sessions {
		if st.runCancel != nil {
			st.runCancel()
		}
		if st.resetCancel != nil {
			st.resetCancel()
		}
	}
	e.mu.Unlock()

	e.wg.Wait()
}
