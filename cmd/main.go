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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gamedaylabs/gameday-core/pkg/api"
	"github.com/gamedaylabs/gameday-core/pkg/config"
	"github.com/gamedaylabs/gameday-core/pkg/events"
	"github.com/gamedaylabs/gameday-core/pkg/game"
	"github.com/gamedaylabs/gameday-core/pkg/ledger"
	"github.com/gamedaylabs/gameday-core/pkg/logger"
	"github.com/gamedaylabs/gameday-core/pkg/platform"
	"github.com/gamedaylabs/gameday-core/pkg/version"
)

func main() {
	// Initialize the global logger first thing
	logger.Initialize()

	log := logger.For(logger.ComponentGameEngine)
	log.Infof("Starting gameday-core %s...", version.GetAppVersion())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configManager := config.NewFileConfigManager("")
	cfg, err := configManager.GetConfig(ctx)
	if err != nil {
		log.Errorf("Failed to load config: %s", err)
		os.Exit(1)
	}

	cat, err := cfg.Catalog()
	if err != nil {
		log.Errorf("Invalid component catalog: %s", err)
		os.Exit(1)
	}
	reg, err := cfg.Registry()
	if err != nil {
		log.Errorf("Invalid resource registry: %s", err)
		os.Exit(1)
	}

	bus := events.NewBus()
	defer bus.Close()

	led := ledger.NewMemoryLedger(cat.Names(), bus)

	// The simulated platform stands in for the cloud adapters; swap it out
	// for real ones when running against a provisioned lab environment.
	sim := platform.NewSimPlatform(cat, reg)

	engine := game.NewEngine(cat, sim, sim, sim, led, bus, nil, game.Config{
		ObservationInterval: cfg.Engine.ObservationInterval.AsDuration(),
		CheckTimeout:        cfg.Engine.CheckTimeout.AsDuration(),
		ActuatorTimeout:     cfg.Engine.ActuatorTimeout.AsDuration(),
		StopWaitTimeout:     cfg.Engine.StopWaitTimeout.AsDuration(),
		StopPollInterval:    cfg.Engine.StopPollInterval.AsDuration(),
		RestoreRetries:      cfg.Engine.RestoreRetries,
		WorkloadTargets:     cfg.WorkloadTargets,
	})
	defer engine.Close()

	server := api.NewServer(engine, bus, api.ServerConfig{
		ListenAddress: cfg.API.ListenAddress,
	})

	if err := server.Start(ctx); err != nil {
		log.Errorf("API server failed: %s", err)
		os.Exit(1)
	}

	log.Info("Shutdown complete")
	_ = logger.Sync()
}
