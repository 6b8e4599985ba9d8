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

// Package registry maps resource types to the concrete handles actuator and
// observer implementations need. Populated once at environment setup and
// read-only during gameplay.
package registry

import "fmt"

// Mapping is one resource handle entry, e.g. EC2_INSTANCE_1 or ALB_SG.
type Mapping struct {
	// Type is the resource type key, unique in the registry.
	Type string
	// Handle is the opaque identifier actuators pass to the backing platform.
	Handle string
	// ARN is the optional full resource identifier.
	ARN string
	// Metadata carries free-form adapter-specific settings.
	Metadata map[string]string
}

// Registry is a frozen lookup table of resource mappings.
type Registry struct {
	byType map[string]Mapping
}

// New builds a registry and validates type uniqueness.
func New(mappings []Mapping) (*Registry, error) {
	byType := make(map[string]Mapping, len(mappings))
	for _, m := range mappings {
		if m.Type == "" {
			return nil, fmt.Errorf("resource mapping with empty type")
		}
		if _, dup := byType[m.Type]; dup {
			return nil, fmt.Errorf("duplicate resource mapping %q", m.Type)
		}
		byType[m.Type] = m
	}
	return &Registry{byType: byType}, nil
}

// Lookup returns the mapping for a resource type.
func (r *Registry) Lookup(resourceType string) (Mapping, bool) {
	m, ok := r.byType[resourceType]
	return m, ok
}

// ForTypes returns the mappings for the given resource types, skipping
// unknown ones. Adapters decide how to react to missing handles.
func (r *Registry) ForTypes(resourceTypes []string) []Mapping {
	out := make([]Mapping, 0, len(resourceTypes))
	for _, t := range resourceTypes {
		if m, ok := r.byType[t]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Len returns the number of mappings.
func (r *Registry) Len() int {
	return len(r.byType)
}
