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

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// Session tracks the state a single transport connection (or file)
// accumulates while exchanging IPFIX messages: the active templates per
// observation domain, their compiled plans, and each domain's expected
// next sequence number. Per the concurrency model, a Session is used by
// one goroutine at a time; independent sessions share nothing but the
// process-wide information element catalog.
type Session struct {
	ID string

	Store TemplateStore
	Plans *PlanCache

	catalog Catalog

	mu       sync.Mutex
	nextSeq  map[uint32]uint32
	haveSeq  map[uint32]bool
}

// NewSession constructs a session with an in-memory TemplateStore and the
// default process-wide catalog. Use WithTemplateStore to plug in a
// distributed store (see addons/etcd) for sessions sharing state across
// collector replicas.
func NewSession(id string) *Session {
	return &Session{
		ID:      id,
		Store:   NewEphemeralTemplateStore(),
		Plans:   NewPlanCache(),
		catalog: DefaultCatalog(),
		nextSeq: make(map[uint32]uint32),
		haveSeq: make(map[uint32]bool),
	}
}

// WithTemplateStore replaces the session's template store.
func (s *Session) WithTemplateStore(store TemplateStore) *Session {
	s.Store = store
	return s
}

// WithCatalog replaces the session's information element catalog.
func (s *Session) WithCatalog(c Catalog) *Session {
	s.catalog = c
	return s
}

// Catalog returns the information element catalog this session resolves
// field specifiers against.
func (s *Session) Catalog() Catalog {
	return s.catalog
}

// DefineTemplate registers tmpl (already Activate'd) as the current
// definition at its key, invalidating any compiled plan cached for the
// same key since a new definition may not be compatible with it.
// Redefining a template at an ID that already names an identical
// definition is accepted as a no-op refresh, not an error: the store entry
// is refreshed and the cached plan is kept. RFC 7011 section 8.1 allows
// exporters to periodically retransmit templates.
func (s *Session) DefineTemplate(ctx context.Context, tmpl *WireTemplate) error {
	same := false
	if old, err := s.Store.Get(ctx, tmpl.Key); err == nil && old.IsOptions == tmpl.IsOptions &&
		old.Scope == tmpl.Scope && len(old.Fields) == len(tmpl.Fields) {
		same = true
		for i, fs := range tmpl.Fields {
			if old.Fields[i].IE.Key() != fs.IE.Key() || old.Fields[i].WireLen != fs.WireLen {
				same = false
			}
		}
	}
	if err := s.Store.Put(ctx, tmpl); err != nil {
		return err
	}
	if !same {
		s.Plans.Invalidate(tmpl.Key)
	}
	ActiveTemplates.WithLabelValues(domainLabel(tmpl.Key.ObservationDomainID)).Set(float64(len(s.Store.GetAll(ctx))))
	return nil
}

// WithdrawTemplate deactivates and removes the template at key.
func (s *Session) WithdrawTemplate(ctx context.Context, key TemplateKey) error {
	if err := s.Store.Delete(ctx, key); err != nil {
		return err
	}
	s.Plans.Invalidate(key)
	ActiveTemplates.WithLabelValues(domainLabel(key.ObservationDomainID)).Set(float64(len(s.Store.GetAll(ctx))))
	return nil
}

// LookupTemplate returns the active template at key, or a wrapped
// TemplateInactive/UnknownTemplate error.
func (s *Session) LookupTemplate(ctx context.Context, key TemplateKey) (*WireTemplate, error) {
	tmpl, err := s.Store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !tmpl.Active() {
		return nil, templateInactiveError(key.ObservationDomainID, key.TemplateID)
	}
	return tmpl, nil
}

// ObserveSequence checks seq against the expected next sequence number
// for domain, updates the session's tracking state, and returns a
// SequenceGap error (recoverable; the caller should continue decoding)
// if seq does not match what was expected. The first message observed
// for a domain always establishes the baseline without error.
func (s *Session) ObserveSequence(domain uint32, seq uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expected, seen := s.nextSeq[domain]
	s.nextSeq[domain] = seq + 1
	s.haveSeq[domain] = true

	if !seen {
		return nil
	}
	if seq != expected {
		SequenceGapsTotal.WithLabelValues(domainLabel(domain)).Inc()
		return sequenceGapError(domain, expected, seq)
	}
	return nil
}

func domainLabel(domain uint32) string {
	return strconv.FormatUint(uint64(domain), 10)
}

// Close releases the session's template store.
func (s *Session) Close(ctx context.Context) error {
	return s.Store.Close(ctx)
}

func (s *Session) String() string {
	return fmt.Sprintf("session(%s)", s.ID)
}
