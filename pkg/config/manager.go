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

package config

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/gamedaylabs/gameday-core/pkg/logger"
)

// Environment variables recognized at startup.
const (
	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "GAMEDAY_CONFIG_PATH"
	// EnvListenAddress overrides api.listenAddress.
	EnvListenAddress = "GAMEDAY_LISTEN_ADDRESS"
)

// DefaultConfigPath is where the config file is expected in containers.
const DefaultConfigPath = "/data/config.yaml"

// ConfigManager provides the environment configuration to the engines.
type ConfigManager interface {
	GetConfig(ctx context.Context) (FullConfig, error)
}

// FileConfigManager reads the config from a YAML file. The parsed config is
// cached; the catalog is static during gameplay, so the file is read once.
type FileConfigManager struct {
	path string
	log  *zap.SugaredLogger

	mu     sync.Mutex
	cached *FullConfig
}

// NewFileConfigManager creates a manager for the given path. An empty path
// falls back to EnvConfigPath and then DefaultConfigPath.
func NewFileConfigManager(path string) *FileConfigManager {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = DefaultConfigPath
	}
	return &FileConfigManager{
		path: path,
		log:  logger.For(logger.ComponentConfigManager),
	}
}

// GetConfig returns the parsed config, reading the file on first use.
// Environment overrides take precedence over file values.
func (m *FileConfigManager) GetConfig(ctx context.Context) (FullConfig, error) {
	if err := ctx.Err(); err != nil {
		return FullConfig{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil {
		return *m.cached, nil
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		return FullConfig{}, fmt.Errorf("failed to read config %s: %w", m.path, err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return FullConfig{}, err
	}

	if addr := os.Getenv(EnvListenAddress); addr != "" {
		cfg.API.ListenAddress = addr
	}

	m.log.Infof("Loaded config from %s (%d components, %d resource mappings)",
		m.path, len(cfg.Components), len(cfg.Resources))

	m.cached = &cfg
	return cfg, nil
}

// MockConfigManager returns a fixed config, for tests.
type MockConfigManager struct {
	Config FullConfig
	Err    error
}

// GetConfig implements the ConfigManager interface.
func (m *MockConfigManager) GetConfig(ctx context.Context) (FullConfig, error) {
	if m.Err != nil {
		return FullConfig{}, m.Err
	}
	return m.Config, nil
}
