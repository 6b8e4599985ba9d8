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

// Package catalog holds the static set of monitored components a game
// session can fault. The catalog is built once from configuration and
// read-only afterwards.
package catalog

import (
	"fmt"
	"sort"
)

// Category groups components by the kind of failure they exercise.
type Category string

const (
	CategorySecurity   Category = "security"
	CategoryResilience Category = "resilience"
)

// Difficulty selects how many components of a category get faulted.
type Difficulty string

const (
	// DifficultyEasy faults exactly one component, chosen at random.
	DifficultyEasy Difficulty = "easy"
	// DifficultyHard faults every component of the category except
	// components explicitly excluded from hard mode.
	DifficultyHard Difficulty = "hard"
)

// RestoreClass orders baseline restores during reset. A human operator has
// to fix network exposure before data exposure before audit settings before
// identity bindings to avoid transient lockouts; reset follows the same order.
type RestoreClass string

const (
	RestoreClassNetwork  RestoreClass = "network"
	RestoreClassData     RestoreClass = "data"
	RestoreClassAudit    RestoreClass = "audit"
	RestoreClassIdentity RestoreClass = "identity"
	RestoreClassCompute  RestoreClass = "compute"
)

// restoreOrder is the fixed class order applied by the reset coordinator.
var restoreOrder = map[RestoreClass]int{
	RestoreClassNetwork:  0,
	RestoreClassData:     1,
	RestoreClassAudit:    2,
	RestoreClassIdentity: 3,
	RestoreClassCompute:  4,
}

// Component is one monitored component of the demo workload. Multiple
// physical sub-faults (e.g. the EC2 instance-profile swap and the EC2
// process kill) map onto one logical component name.
type Component struct {
	// Name is the unique logical component name shown on the dashboard.
	Name string
	// Category is the failure category the component belongs to.
	Category Category
	// Mode is the difficulty pool the component is drawn from.
	Mode Difficulty
	// RestoreClass orders the component's baseline restore during reset.
	RestoreClass RestoreClass
	// ExcludeFromHard keeps the component out of hard-mode selection.
	// Difficulty-balancing rule, not derived from anything else.
	ExcludeFromHard bool
	// Resources are the resource mapping types backing this component.
	Resources []string
}

// Catalog is the read-only component set of a game environment.
type Catalog struct {
	components []Component
	byName     map[string]Component
}

// New builds a catalog and validates component uniqueness.
func New(components []Component) (*Catalog, error) {
	byName := make(map[string]Component, len(components))
	for _, c := range components {
		if c.Name == "" {
			return nil, fmt.Errorf("component with empty name")
		}
		if _, dup := byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate component %q", c.Name)
		}
		if c.Category != CategorySecurity && c.Category != CategoryResilience {
			return nil, fmt.Errorf("component %q: unknown category %q", c.Name, c.Category)
		}
		byName[c.Name] = c
	}

	return &Catalog{components: components, byName: byName}, nil
}

// Get returns the component with the given name.
func (c *Catalog) Get(name string) (Component, bool) {
	comp, ok := c.byName[name]
	return comp, ok
}

// All returns every component in catalog order.
func (c *Catalog) All() []Component {
	out := make([]Component, len(c.components))
	copy(out, c.components)
	return out
}

// Names returns every component name in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.components))
	for _, comp := range c.components {
		names = append(names, comp.Name)
	}
	return names
}

// ByCategory returns the components of one category in catalog order.
func (c *Catalog) ByCategory(cat Category) []Component {
	var out []Component
	for _, comp := range c.components {
		if comp.Category == cat {
			out = append(out, comp)
		}
	}
	return out
}

// RestoreGroups returns all components grouped by restore class, groups
// sorted in the fixed restore order. Components with an unknown class sort
// after the known ones.
func (c *Catalog) RestoreGroups() [][]Component {
	grouped := make(map[RestoreClass][]Component)
	for _, comp := range c.components {
		grouped[comp.RestoreClass] = append(grouped[comp.RestoreClass], comp)
	}

	classes := make([]RestoreClass, 0, len(grouped))
	for class := range grouped {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool {
		oi, iok := restoreOrder[classes[i]]
		oj, jok := restoreOrder[classes[j]]
		if iok != jok {
			return iok
		}
		if oi != oj {
			return oi < oj
		}
		return classes[i] < classes[j]
	})

	out := make([][]Component, 0, len(classes))
	for _, class := range classes {
		out = append(out, grouped[class])
	}
	return out
}
