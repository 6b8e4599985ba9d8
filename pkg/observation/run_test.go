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

package observation_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gamedaylabs/gameday-core/pkg/ledger"
	"github.com/gamedaylabs/gameday-core/pkg/observation"
	"github.com/gamedaylabs/gameday-core/pkg/platform"
)

const (
	testInterval     = 10 * time.Millisecond
	testCheckTimeout = 50 * time.Millisecond
)

// scriptedObserver reports faulted for a component until the scripted
// iteration is reached.
type scriptedObserver struct {
	mu          sync.Mutex
	calls       map[string]int
	healthyFrom map[string]int
}

func newScriptedObserver(healthyFrom map[string]int) *scriptedObserver {
	return &scriptedObserver{
		calls:       make(map[string]int),
		healthyFrom: healthyFrom,
	}
}

func (o *scriptedObserver) Check(ctx context.Context, component string) (ledger.HealthStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.calls[component]++
	from, ok := o.healthyFrom[component]
	if !ok || o.calls[component] < from {
		return ledger.StatusFaulted, nil
	}
	return ledger.StatusHealthy, nil
}

func (o *scriptedObserver) callCount(component string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls[component]
}

var _ = Describe("Run", func() {
	var (
		led *ledger.MemoryLedger
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		led = ledger.NewMemoryLedger([]string{"EC2", "ALB Security Group", "CloudTrail"}, nil)
	})

	Describe("convergence", func() {
		It("converges immediately over an empty component set", func() {
			run := observation.NewRun("default", nil, platform.NewMockObserver(), led, testInterval, testCheckTimeout)

			done := make(chan error, 1)
			go func() { done <- run.Execute(ctx) }()

			Eventually(done, time.Second).Should(Receive(BeNil()))
			Expect(run.State()).To(Equal(observation.RunStateConverged))
		})

		It("converges exactly at the iteration the observer reports healthy", func() {
			observer := newScriptedObserver(map[string]int{"EC2": 3})
			Expect(led.Set(ctx, "EC2", ledger.StatusFaulted)).To(Succeed())

			run := observation.NewRun("default", []string{"EC2"}, observer, led, testInterval, testCheckTimeout)

			done := make(chan error, 1)
			go func() { done <- run.Execute(ctx) }()

			Eventually(done, 2*time.Second).Should(Receive(BeNil()))
			Expect(run.State()).To(Equal(observation.RunStateConverged))
			Expect(run.Iteration()).To(Equal(uint64(3)))

			status, err := led.Get(ctx, "EC2")
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(ledger.StatusHealthy))
		})

		It("does not converge while any component still reads faulted", func() {
			observer := newScriptedObserver(map[string]int{"EC2": 1}) // CloudTrail never heals
			Expect(led.Set(ctx, "EC2", ledger.StatusFaulted)).To(Succeed())
			Expect(led.Set(ctx, "CloudTrail", ledger.StatusFaulted)).To(Succeed())

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			run := observation.NewRun("default", []string{"EC2", "CloudTrail"}, observer, led, testInterval, testCheckTimeout)

			done := make(chan error, 1)
			go func() { done <- run.Execute(runCtx) }()

			// EC2 heals, the run keeps polling CloudTrail
			Eventually(func() (ledger.HealthStatus, error) {
				return led.Get(ctx, "EC2")
			}, time.Second).Should(Equal(ledger.StatusHealthy))
			Consistently(done, 100*time.Millisecond).ShouldNot(Receive())
			Expect(run.State()).To(Equal(observation.RunStatePolling))

			cancel()
			Eventually(done, time.Second).Should(Receive(MatchError(context.Canceled)))
		})
	})

	Describe("conservative health reads", func() {
		It("treats a timed-out check as still faulted", func() {
			Expect(led.Set(ctx, "EC2", ledger.StatusFaulted)).To(Succeed())
			Expect(led.Set(ctx, "ALB Security Group", ledger.StatusFaulted)).To(Succeed())

			observer := platform.NewMockObserver()
			observer.CheckFunc = func(cctx context.Context, component string) (ledger.HealthStatus, error) {
				if component == "EC2" {
					// Hang until the per-check timeout fires
					<-cctx.Done()
					return ledger.StatusUnknown, cctx.Err()
				}
				return ledger.StatusHealthy, nil
			}

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			run := observation.NewRun("default", []string{"EC2", "ALB Security Group"}, observer, led, testInterval, testCheckTimeout)

			done := make(chan error, 1)
			go func() { done <- run.Execute(runCtx) }()

			Eventually(func() (ledger.HealthStatus, error) {
				return led.Get(ctx, "ALB Security Group")
			}, time.Second).Should(Equal(ledger.StatusHealthy))

			// Convergence is not declared while EC2 keeps timing out
			Consistently(done, 150*time.Millisecond).ShouldNot(Receive())

			status, err := led.Get(ctx, "EC2")
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(ledger.StatusFaulted))
		})

		It("treats Unknown as still faulted", func() {
			Expect(led.Set(ctx, "EC2", ledger.StatusFaulted)).To(Succeed())

			observer := platform.NewMockObserver()
			observer.CheckFunc = func(cctx context.Context, component string) (ledger.HealthStatus, error) {
				return ledger.StatusUnknown, nil
			}

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			run := observation.NewRun("default", []string{"EC2"}, observer, led, testInterval, testCheckTimeout)

			done := make(chan error, 1)
			go func() { done <- run.Execute(runCtx) }()

			Consistently(done, 100*time.Millisecond).ShouldNot(Receive())
			cancel()
			Eventually(done, time.Second).Should(Receive(HaveOccurred()))
		})
	})

	Describe("monotonic convergence", func() {
		It("never re-marks a component faulted within the same run", func() {
			observer := newScriptedObserver(map[string]int{"EC2": 1}) // EC2 healthy from the first check
			Expect(led.Set(ctx, "EC2", ledger.StatusFaulted)).To(Succeed())
			Expect(led.Set(ctx, "CloudTrail", ledger.StatusFaulted)).To(Succeed())

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			run := observation.NewRun("default", []string{"EC2", "CloudTrail"}, observer, led, testInterval, testCheckTimeout)

			done := make(chan error, 1)
			go func() { done <- run.Execute(runCtx) }()

			Eventually(func() (ledger.HealthStatus, error) {
				return led.Get(ctx, "EC2")
			}, time.Second).Should(Equal(ledger.StatusHealthy))

			// Give the loop a few more iterations, EC2 must not be re-checked
			// or re-faulted.
			checksAfterHeal := observer.callCount("EC2")
			Consistently(func() (ledger.HealthStatus, error) {
				return led.Get(ctx, "EC2")
			}, 100*time.Millisecond).Should(Equal(ledger.StatusHealthy))
			Expect(observer.callCount("EC2")).To(Equal(checksAfterHeal))

			cancel()
			Eventually(done, time.Second).Should(Receive(HaveOccurred()))
		})
	})

	Describe("cancellation", func() {
		It("performs no ledger writes after cancellation", func() {
			Expect(led.Set(ctx, "EC2", ledger.StatusFaulted)).To(Succeed())

			started := make(chan struct{})
			observer := platform.NewMockObserver()
			var once sync.Once
			observer.CheckFunc = func(cctx context.Context, component string) (ledger.HealthStatus, error) {
				once.Do(func() { close(started) })
				// Healthy result that must be discarded if the run is
				// cancelled before the iteration completes.
				<-cctx.Done()
				return ledger.StatusHealthy, nil
			}

			runCtx, cancel := context.WithCancel(ctx)
			run := observation.NewRun("default", []string{"EC2"}, observer, led, testInterval, testCheckTimeout)

			done := make(chan error, 1)
			go func() { done <- run.Execute(runCtx) }()

			<-started
			cancel()

			Eventually(done, time.Second).Should(Receive(MatchError(context.Canceled)))
			Expect(run.State()).To(Equal(observation.RunStateCancelled))

			status, err := led.Get(ctx, "EC2")
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(ledger.StatusFaulted), "a cancelled run must not write the ledger")
		})
	})
})
