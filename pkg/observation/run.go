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

// Package observation implements the continuous, cancellable, parallel
// polling loop that detects when all injected faults have been remediated.
package observation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gamedaylabs/gameday-core/pkg/ledger"
	"github.com/gamedaylabs/gameday-core/pkg/logger"
	"github.com/gamedaylabs/gameday-core/pkg/metrics"
	"github.com/gamedaylabs/gameday-core/pkg/platform"
)

// RunState is the lifecycle state of one observation run.
type RunState string

const (
	RunStateNotStarted RunState = "not_started"
	RunStatePolling    RunState = "polling"
	RunStateConverged  RunState = "converged"
	RunStateCancelled  RunState = "cancelled"
)

// Run polls the observers of a fixed component set until every component
// reads healthy, or until cancelled. A Run is single-use.
type Run struct {
	id         string
	sessionID  string
	components []string

	observer platform.Observer
	ledger   ledger.Ledger

	interval     time.Duration
	checkTimeout time.Duration

	log *zap.SugaredLogger

	mu        sync.Mutex
	state     RunState
	iteration uint64
}

// NewRun creates a run over the given component set. The set is captured at
// creation; components faulted later belong to a different run.
func NewRun(sessionID string, components []string, observer platform.Observer, led ledger.Ledger, interval, checkTimeout time.Duration) *Run {
	names := make([]string, len(components))
	copy(names, components)

	return &Run{
		id:           uuid.New().String(),
		sessionID:    sessionID,
		components:   names,
		observer:     observer,
		ledger:       led,
		interval:     interval,
		checkTimeout: checkTimeout,
		state:        RunStateNotStarted,
		log:          logger.For(logger.ComponentObservationEngine),
	}
}

// ID returns the run's unique id, used for log correlation.
func (r *Run) ID() string {
	return r.id
}

// Components returns the component set the run polls.
func (r *Run) Components() []string {
	out := make([]string, len(r.components))
	copy(out, r.components)
	return out
}

// State returns the run's current lifecycle state.
func (r *Run) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Iteration returns the number of completed poll iterations.
func (r *Run) Iteration() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.iteration
}

func (r *Run) setState(state RunState) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

// Execute runs the polling loop until convergence or cancellation. It
// returns nil once every component in the set reads healthy, or the context
// error when cancelled. Cancellation is cooperative: checks already in
// flight finish, their results are discarded and no further ledger writes
// happen.
func (r *Run) Execute(ctx context.Context) error {
	r.setState(RunStatePolling)
	r.log.Infof("Observation run %s started over %d component(s): %v", r.id, len(r.components), r.components)

	// The convergence predicate over an empty set is vacuously true; a run
	// with nothing to poll must not spin forever.
	remaining := make([]string, len(r.components))
	copy(remaining, r.components)

	for {
		if err := ctx.Err(); err != nil {
			r.setState(RunStateCancelled)
			r.log.Infof("Observation run %s cancelled after %d iteration(s)", r.id, r.Iteration())
			return err
		}

		iterStart := time.Now()
		healthy := r.pollOnce(ctx, remaining)

		// A cancellation observed mid-iteration discards the iteration's
		// results; the reset coordinator owns the next transition.
		if err := ctx.Err(); err != nil {
			r.setState(RunStateCancelled)
			r.log.Infof("Observation run %s cancelled mid-iteration", r.id)
			return err
		}

		// All ledger writes of this iteration happen before the convergence
		// predicate is evaluated. Writes are per-component and independent.
		next := remaining[:0]
		for _, name := range remaining {
			if !healthy[name] {
				next = append(next, name)
				continue
			}
			if err := r.ledger.Set(ctx, name, ledger.StatusHealthy); err != nil {
				metrics.IncErrorCountAndLog(metrics.ComponentObservationEngine, name, err, r.log)
			}
		}
		remaining = next

		r.mu.Lock()
		r.iteration++
		iteration := r.iteration
		r.mu.Unlock()

		metrics.ObserveObservationIteration(r.sessionID, time.Since(iterStart))

		if len(remaining) == 0 {
			r.setState(RunStateConverged)
			r.log.Infof("Observation run %s converged after %d iteration(s)", r.id, iteration)
			return nil
		}

		r.log.Debugf("Observation run %s iteration %d: %d component(s) still faulted", r.id, iteration, len(remaining))

		select {
		case <-ctx.Done():
			r.setState(RunStateCancelled)
			r.log.Infof("Observation run %s cancelled while sleeping", r.id)
			return ctx.Err()
		case <-time.After(r.interval):
		}
	}
}

// pollOnce dispatches one concurrent check per remaining component and
// reports which ones came back healthy. The fan-out is bounded by the
// component set size. A check that times out, errors, or reports Unknown
// counts as still faulted, never as healthy.
func (r *Run) pollOnce(ctx context.Context, names []string) map[string]bool {
	results := make([]bool, len(names))

	g := new(errgroup.Group)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, r.checkTimeout)
			defer cancel()

			status, err := r.observer.Check(cctx, name)
			if err != nil {
				r.log.Debugf("Check for %s failed, treating as still faulted: %v", name, err)
				return nil
			}
			results[i] = status == ledger.StatusHealthy
			return nil
		})
	}
	_ = g.Wait()

	healthy := make(map[string]bool, len(names))
	for i, name := range names {
		healthy[name] = results[i]
	}
	return healthy
}
