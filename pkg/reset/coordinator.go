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

// Package reset returns the environment to its clean baseline. Every step
// is best-effort: an error is logged and the reset proceeds, because a
// partial reset is still strictly better than no reset.
package reset

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	errcategory "github.com/gamedaylabs/gameday-core/pkg/backoff"
	"github.com/gamedaylabs/gameday-core/pkg/catalog"
	"github.com/gamedaylabs/gameday-core/pkg/ledger"
	"github.com/gamedaylabs/gameday-core/pkg/logger"
	"github.com/gamedaylabs/gameday-core/pkg/metrics"
	"github.com/gamedaylabs/gameday-core/pkg/platform"
	"github.com/gamedaylabs/gameday-core/pkg/session"
)

// Step names for metrics and logs.
const (
	StepRestoreBaseline = "restore_baseline"
	StepForceLedger     = "force_ledger"
	StepWorkloadStop    = "workload_stop"
	StepWorkloadWait    = "workload_stop_wait"
	StepWorkloadStart   = "workload_start"
)

// restoreRetryInterval is the pause between restore attempts for one
// component.
const restoreRetryInterval = 500 * time.Millisecond

// Config tunes the coordinator.
type Config struct {
	// ActuatorTimeout bounds one restore call.
	ActuatorTimeout time.Duration
	// StopWaitTimeout bounds the wait for a workload target to stop.
	StopWaitTimeout time.Duration
	// StopPollInterval is the re-check interval while waiting for a stop.
	StopPollInterval time.Duration
	// RestoreRetries bounds restore attempts per component.
	RestoreRetries int
	// WorkloadTargets are the compute resources restarted during reset.
	WorkloadTargets []string
}

// Coordinator restores the baseline of one game environment. The game
// engine wraps it: the engine cancels the in-flight observation run before
// Execute, and runs the post-reset confirmation pass after it; only that
// pass's convergence moves the phase Recovering -> Idle.
type Coordinator struct {
	catalog  *catalog.Catalog
	actuator platform.Actuator
	workload platform.WorkloadController
	ledger   ledger.Ledger
	machine  *session.Machine
	cfg      Config
	log      *zap.SugaredLogger
}

// NewCoordinator creates a reset coordinator.
func NewCoordinator(cat *catalog.Catalog, actuator platform.Actuator, workload platform.WorkloadController, led ledger.Ledger, machine *session.Machine, cfg Config) *Coordinator {
	metrics.InitErrorCounter(metrics.ComponentResetCoordinator, machine.SessionID())

	return &Coordinator{
		catalog:  cat,
		actuator: actuator,
		workload: workload,
		ledger:   led,
		machine:  machine,
		cfg:      cfg,
		log:      logger.For(logger.ComponentResetCoordinator),
	}
}

// Execute transitions the session into Recovering and runs the ordered
// reset steps: baseline restores (network, then data, then audit, then
// identity, then compute), forcing the ledger healthy, and the hard
// workload restart. It returns an error only when the context is cancelled;
// individual step failures are logged and counted, never fatal.
func (c *Coordinator) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := c.machine.BeginReset(ctx); err != nil {
		// BeginReset is legal from every phase; an error here means the
		// context died or the machine is broken, not a guard rejection.
		return fmt.Errorf("failed to enter recovering phase: %w", err)
	}

	c.restoreBaselines(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	c.forceLedgerHealthy(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	c.restartWorkload(ctx)
	return ctx.Err()
}

// restoreBaselines restores every component's backing resources to the
// documented healthy baseline, class by class in dependency order.
// Components within one class restore in parallel; a failed component never
// blocks the others.
func (c *Coordinator) restoreBaselines(ctx context.Context) {
	for _, group := range c.catalog.RestoreGroups() {
		if ctx.Err() != nil {
			return
		}
		class := group[0].RestoreClass
		c.log.Infof("Restoring baseline for %d %s component(s)", len(group), class)

		g := new(errgroup.Group)
		for _, comp := range group {
			comp := comp
			g.Go(func() error {
				if err := c.restoreComponent(ctx, comp.Name); err != nil {
					metrics.IncResetStepError(StepRestoreBaseline)
					metrics.IncErrorCountAndLog(metrics.ComponentResetCoordinator, comp.Name,
						fmt.Errorf("failed to restore %s: %w", comp.Name, err), c.log)
				}
				return nil
			})
		}
		_ = g.Wait()
	}
}

// restoreComponent retries a single component's restore with a constant
// interval, bounded by the configured attempt count. Errors categorized as
// permanent stop the retries at once.
func (c *Coordinator) restoreComponent(ctx context.Context, component string) error {
	operation := func() error {
		actx, cancel := context.WithTimeout(ctx, c.cfg.ActuatorTimeout)
		defer cancel()

		err := c.actuator.Restore(actx, component)
		if err == nil {
			return nil
		}
		if errcategory.IsPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(restoreRetryInterval), uint64(c.cfg.RestoreRetries)),
		ctx,
	)
	return backoff.Retry(operation, policy)
}

// forceLedgerHealthy marks every catalog component healthy. Authoritative
// regardless of individual restore outcomes; the workload restart is what
// re-establishes ground truth.
func (c *Coordinator) forceLedgerHealthy(ctx context.Context) {
	for _, name := range c.catalog.Names() {
		if err := c.ledger.Set(ctx, name, ledger.StatusHealthy); err != nil {
			metrics.IncResetStepError(StepForceLedger)
			metrics.IncErrorCountAndLog(metrics.ComponentResetCoordinator, name, err, c.log)
		}
	}
}

// restartWorkload hard-restarts every workload target: stop, wait until the
// stop fully completed, then start. Starting a target still mid-stop is
// rejected by the platform, hence the explicit bounded wait.
func (c *Coordinator) restartWorkload(ctx context.Context) {
	for _, target := range c.cfg.WorkloadTargets {
		if ctx.Err() != nil {
			return
		}

		c.log.Infof("Restarting workload target %s", target)

		if err := c.workload.Stop(ctx, target); err != nil {
			metrics.IncResetStepError(StepWorkloadStop)
			metrics.IncErrorCountAndLog(metrics.ComponentResetCoordinator, target,
				fmt.Errorf("failed to stop %s: %w", target, err), c.log)
		}

		if err := c.waitUntilStopped(ctx, target); err != nil {
			metrics.IncResetStepError(StepWorkloadWait)
			metrics.IncErrorCountAndLog(metrics.ComponentResetCoordinator, target,
				fmt.Errorf("%s did not reach stopped state: %w", target, err), c.log)
		}

		if err := c.workload.Start(ctx, target); err != nil {
			metrics.IncResetStepError(StepWorkloadStart)
			metrics.IncErrorCountAndLog(metrics.ComponentResetCoordinator, target,
				fmt.Errorf("failed to start %s: %w", target, err), c.log)
		}
	}
}

// waitUntilStopped polls the workload state at a constant interval until the
// target reports stopped, bounded by StopWaitTimeout.
func (c *Coordinator) waitUntilStopped(ctx context.Context, target string) error {
	wctx, cancel := context.WithTimeout(ctx, c.cfg.StopWaitTimeout)
	defer cancel()

	operation := func() error {
		state, err := c.workload.Status(wctx, target)
		if err != nil {
			return err
		}
		if state != platform.WorkloadStateStopped {
			return fmt.Errorf("target %s is %s", target, state)
		}
		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.NewConstantBackOff(c.cfg.StopPollInterval), wctx))
}
