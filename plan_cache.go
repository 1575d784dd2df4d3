/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ipfix

import "sync"

// PlanCache memoizes the Plan compiled for a (TemplateKey, placement
// template) pair, so a data set spanning many records pays the
// compilation cost once. It is invalidated whenever its governing
// template is redefined or withdrawn, since a new template at the same
// key may no longer be compatible with a cached plan's steps.
type PlanCache struct {
	mu    sync.RWMutex
	plans map[TemplateKey]*Plan
}

// NewPlanCache constructs an empty plan cache.
func NewPlanCache() *PlanCache {
	return &PlanCache{plans: make(map[TemplateKey]*Plan)}
}

// Get returns the cached plan for key, if present.
func (c *PlanCache) Get(key TemplateKey) (*Plan, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.plans[key]
	if ok {
		PlanCacheHits.Inc()
	} else {
		PlanCacheMisses.Inc()
	}
	return p, ok
}

// Put stores the compiled plan for key, replacing any prior entry.
func (c *PlanCache) Put(key TemplateKey, plan *Plan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[key] = plan
}

// Invalidate drops the cached plan for key, if any. Called by Session
// whenever a template at key is redefined or withdrawn.
func (c *PlanCache) Invalidate(key TemplateKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.plans[key]; ok {
		delete(c.plans, key)
		PlanCacheEvictions.Inc()
	}
}

// GetOrCompile returns the cached plan for wire's key, compiling and
// caching one against placement if absent.
func (c *PlanCache) GetOrCompile(wire *WireTemplate, placement *PlacementTemplate) (*Plan, error) {
	if p, ok := c.Get(wire.Key); ok {
		bound := 0
		for _, fs := range wire.Fields {
			if _, ok := placement.Lookup(fs.IE); ok {
				bound++
			}
		}
		same := bound == len(p.Placements)
		for _, pl := range p.Placements {
			if got, ok := placement.Lookup(pl.IE); !ok || got != pl {
				same = false
			}
		}
		if same {
			return p, nil
		}
	}
	p, err := CompilePlan(wire, placement)
	if err != nil {
		return nil, err
	}
	c.Put(wire.Key, p)
	return p, nil
}
