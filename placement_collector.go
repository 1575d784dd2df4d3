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

// placementRegistration is one caller-registered PlacementTemplate,
// remembered in registration order so PlacementCollector can apply the
// "first subset match wins" rule RFC 7011 implementations conventionally
// use to pick among several placement templates a wire template could
// satisfy.
type placementRegistration struct {
	placement *PlacementTemplate
	onRecord  func(*PlacementTemplate) error
}

// PlacementCollector is a ContentHandler that matches each incoming wire
// template against a set of caller-registered PlacementTemplates, and for
// every data record governed by a matching template, fills the winning
// placement's bound values (compiling and caching a Plan the first time a
// given template is seen) before invoking the caller's callback.
//
// Registration order matters: for a wire template compatible with more
// than one registered placement, the first one registered (by
// RegisterPlacement call order) wins and is used for every record of that
// template.
type PlacementCollector struct {
	NopContentHandler

	session *Session
	plans   *PlanCache

	registrations []placementRegistration
	// chosen maps a template key to the registration index selected for
	// it, so the choice is made once, in TemplateRecord, not per record.
	chosen map[TemplateKey]int
}

// NewPlacementCollector constructs a collector bound to session, whose
// plan cache is shared with the session's own (so a plan compiled here is
// reused by any other consumer of the same session that decodes the same
// template with the same placement template).
func NewPlacementCollector(session *Session) *PlacementCollector {
	return &PlacementCollector{
		session: session,
		plans:   session.Plans,
		chosen:  make(map[TemplateKey]int),
	}
}

// RegisterPlacement adds a placement template to the collector's match
// list, with onRecord invoked once per data record the placement wins a
// match for.
func (c *PlacementCollector) RegisterPlacement(p *PlacementTemplate, onRecord func(*PlacementTemplate) error) {
	c.registrations = append(c.registrations, placementRegistration{placement: p, onRecord: onRecord})
}

// TemplateRecord selects, and remembers, the first registered placement
// (if any) whose elements are a subset of tmpl, in registration order.
func (c *PlacementCollector) TemplateRecord(tmpl *WireTemplate) error {
	if !tmpl.Active() {
		delete(c.chosen, tmpl.Key)
		return nil
	}
	for i, reg := range c.registrations {
		if tmpl.Contains(reg.placement.Elements()) {
			c.chosen[tmpl.Key] = i
			return nil
		}
	}
	delete(c.chosen, tmpl.Key)
	return nil
}

// TemplateWithdrawn forgets any placement selection made for key.
func (c *PlacementCollector) TemplateWithdrawn(key TemplateKey) error {
	delete(c.chosen, key)
	return nil
}

// dataRecord runs the selected placement's compiled plan against the
// record at the transcoder's cursor (positioned by ParseMessage) and
// invokes the winning registration's callback. ParseMessage calls it only
// when hasSelection reports a match; records of other templates are
// skipped without decoding.
func (c *PlacementCollector) dataRecord(t *Transcoder, tmpl *WireTemplate) error {
	idx, ok := c.chosen[tmpl.Key]
	if !ok {
		return nil
	}
	reg := c.registrations[idx]

	plan, err := c.plans.GetOrCompile(tmpl, reg.placement)
	if err != nil {
		return err
	}
	if err := plan.DecodeRecord(t); err != nil {
		return err
	}
	if reg.onRecord != nil {
		return reg.onRecord(reg.placement)
	}
	return nil
}

// hasSelection reports whether tmpl currently has a winning placement
// registered, letting Parse decide whether to route a data set's records
// through dataRecord or simply advance past them unread.
func (c *PlacementCollector) hasSelection(key TemplateKey) bool {
	_, ok := c.chosen[key]
	return ok
}
