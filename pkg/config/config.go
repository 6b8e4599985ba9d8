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
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gamedaylabs/gameday-core/pkg/catalog"
	"github.com/gamedaylabs/gameday-core/pkg/constants"
	"github.com/gamedaylabs/gameday-core/pkg/registry"
)

// Duration wraps time.Duration for YAML parsing of values like "1s" or "5m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// AsDuration returns the wrapped time.Duration.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// ComponentConfig describes one monitored component.
type ComponentConfig struct {
	Name            string   `yaml:"name"`
	Category        string   `yaml:"category"`
	Mode            string   `yaml:"mode"`
	RestoreClass    string   `yaml:"restoreClass"`
	ExcludeFromHard bool     `yaml:"excludeFromHard,omitempty"`
	Resources       []string `yaml:"resources,omitempty"`
}

// ResourceMappingConfig describes one resource handle created at setup.
type ResourceMappingConfig struct {
	Type     string            `yaml:"type"`
	Handle   string            `yaml:"handle"`
	ARN      string            `yaml:"arn,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// EngineConfig tunes the orchestration engines. Zero values are replaced by
// the defaults in pkg/constants.
type EngineConfig struct {
	// ObservationInterval is the sleep between observation iterations.
	ObservationInterval Duration `yaml:"observationInterval,omitempty"`
	// CheckTimeout bounds one Observer.Check call.
	CheckTimeout Duration `yaml:"checkTimeout,omitempty"`
	// ActuatorTimeout bounds one Actuator apply/restore call.
	ActuatorTimeout Duration `yaml:"actuatorTimeout,omitempty"`
	// StopWaitTimeout bounds the wait for a workload stop to complete.
	StopWaitTimeout Duration `yaml:"stopWaitTimeout,omitempty"`
	// StopPollInterval is the workload state re-check interval while waiting.
	StopPollInterval Duration `yaml:"stopPollInterval,omitempty"`
	// RestoreRetries bounds per-component restore attempts during reset.
	RestoreRetries int `yaml:"restoreRetries,omitempty"`
}

// APIConfig configures the dashboard API server.
type APIConfig struct {
	ListenAddress string `yaml:"listenAddress,omitempty"`
}

// FullConfig is the root configuration document.
type FullConfig struct {
	Components      []ComponentConfig       `yaml:"components"`
	Resources       []ResourceMappingConfig `yaml:"resources,omitempty"`
	WorkloadTargets []string                `yaml:"workloadTargets,omitempty"`
	Engine          EngineConfig            `yaml:"engine,omitempty"`
	API             APIConfig               `yaml:"api,omitempty"`
}

// ParseConfig parses a YAML document, applies defaults and validates.
func ParseConfig(data []byte) (FullConfig, error) {
	var cfg FullConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FullConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return FullConfig{}, err
	}
	return cfg, nil
}

func (c *FullConfig) applyDefaults() {
	if c.Engine.ObservationInterval == 0 {
		c.Engine.ObservationInterval = Duration(constants.DefaultObservationInterval)
	}
	if c.Engine.CheckTimeout == 0 {
		c.Engine.CheckTimeout = Duration(constants.DefaultCheckTimeout)
	}
	if c.Engine.ActuatorTimeout == 0 {
		c.Engine.ActuatorTimeout = Duration(constants.DefaultActuatorTimeout)
	}
	if c.Engine.StopWaitTimeout == 0 {
		c.Engine.StopWaitTimeout = Duration(constants.DefaultStopWaitTimeout)
	}
	if c.Engine.StopPollInterval == 0 {
		c.Engine.StopPollInterval = Duration(constants.DefaultStopPollInterval)
	}
	if c.Engine.RestoreRetries == 0 {
		c.Engine.RestoreRetries = constants.DefaultRestoreRetries
	}
	if c.API.ListenAddress == "" {
		c.API.ListenAddress = constants.DefaultAPIListenAddress
	}
}

// Validate checks the config for consistency.
func (c *FullConfig) Validate() error {
	if len(c.Components) == 0 {
		return fmt.Errorf("config has no components")
	}
	if _, err := c.Catalog(); err != nil {
		return err
	}
	if _, err := c.Registry(); err != nil {
		return err
	}
	return nil
}

// Catalog builds the component catalog from the config.
func (c *FullConfig) Catalog() (*catalog.Catalog, error) {
	components := make([]catalog.Component, 0, len(c.Components))
	for _, cc := range c.Components {
		components = append(components, catalog.Component{
			Name:            cc.Name,
			Category:        catalog.Category(cc.Category),
			Mode:            catalog.Difficulty(cc.Mode),
			RestoreClass:    catalog.RestoreClass(cc.RestoreClass),
			ExcludeFromHard: cc.ExcludeFromHard,
			Resources:       cc.Resources,
		})
	}
	return catalog.New(components)
}

// Registry builds the resource registry from the config.
func (c *FullConfig) Registry() (*registry.Registry, error) {
	mappings := make([]registry.Mapping, 0, len(c.Resources))
	for _, rc := range c.Resources {
		mappings = append(mappings, registry.Mapping{
			Type:     rc.Type,
			Handle:   rc.Handle,
			ARN:      rc.ARN,
			Metadata: rc.Metadata,
		})
	}
	return registry.New(mappings)
}
