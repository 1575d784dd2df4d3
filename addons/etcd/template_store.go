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

// Package etcd adapts ipfix.TemplateStore onto etcd, so that a fleet of
// collector replicas sharing an observation domain can converge on the
// same template state instead of each replica requiring its own copy of
// every exporter's templates before it can decode data records.
package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/flowstream/ipfix"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/namespace"
)

// fieldDTO is the wire-independent, catalog-relative encoding of one
// FieldSpecifier: the (enterprise, number) pair identifying the
// information element, rather than a pointer to the catalog's instance,
// since catalog pointers are only valid within the process that produced
// them.
type fieldDTO struct {
	PEN     uint32 `json:"pen,omitempty"`
	Number  uint16 `json:"number"`
	WireLen uint16 `json:"wireLen"`
}

// templateDTO is the etcd-stored encoding of a WireTemplate.
type templateDTO struct {
	Key       ipfix.TemplateKey `json:"key"`
	Fields    []fieldDTO        `json:"fields"`
	IsOptions bool              `json:"isOptions,omitempty"`
	Scope     int               `json:"scope,omitempty"`
}

func encodeTemplate(tmpl *ipfix.WireTemplate) ([]byte, error) {
	dto := templateDTO{
		Key:       tmpl.Key,
		IsOptions: tmpl.IsOptions,
		Scope:     tmpl.Scope,
		Fields:    make([]fieldDTO, len(tmpl.Fields)),
	}
	for i, fs := range tmpl.Fields {
		dto.Fields[i] = fieldDTO{PEN: fs.IE.EnterpriseId, Number: fs.IE.Number, WireLen: fs.WireLen}
	}
	return json.Marshal(dto)
}

// decodeTemplate reconstructs a WireTemplate from its DTO encoding,
// resolving each field against catalog. A field naming an information
// element the local catalog doesn't know about fails the whole decode:
// a template this store can't fully resolve is not one it can safely
// hand to a collector for data record decoding.
func decodeTemplate(data []byte, catalog ipfix.Catalog) (*ipfix.WireTemplate, error) {
	var dto templateDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}
	tmpl := ipfix.NewWireTemplate(dto.Key)
	tmpl.IsOptions = dto.IsOptions
	tmpl.Scope = dto.Scope
	for _, f := range dto.Fields {
		ie, ok := catalog.LookupByNumber(f.PEN, f.Number)
		if !ok {
			return nil, fmt.Errorf("etcd template store: template %s: information element %d/%d not in catalog", dto.Key, f.PEN, f.Number)
		}
		if err := tmpl.Append(ie, f.WireLen); err != nil {
			return nil, err
		}
	}
	tmpl.Activate()
	return tmpl, nil
}

// TemplateStore mirrors a local ipfix.EphemeralTemplateStore into etcd,
// so that Put and Delete are visible to every replica watching the same
// key prefix. Reads are served from the local mirror; only writes, and
// the initial Start-time backfill, touch etcd directly.
type TemplateStore struct {
	client  *clientv3.Client
	catalog ipfix.Catalog

	local *ipfix.EphemeralTemplateStore

	mu        sync.Mutex
	revisions map[ipfix.TemplateKey]int64

	prefix string
}

var _ ipfix.TemplateStore = (*TemplateStore)(nil)

// NewTemplateStore constructs a TemplateStore scoped to name, sharing
// client with any other etcd-backed component the caller has configured
// (the namespace wrapper below gives each one its own key prefix). catalog
// resolves information elements by (enterprise, number) when
// reconstructing templates read back from etcd.
func NewTemplateStore(name string, client *clientv3.Client, catalog ipfix.Catalog) *TemplateStore {
	prefix := "templates/" + name + "/"
	client.KV = namespace.NewKV(client.KV, prefix)
	client.Watcher = namespace.NewWatcher(client.Watcher, prefix)
	client.Lease = namespace.NewLease(client.Lease, prefix)

	return &TemplateStore{
		client:    client,
		catalog:   catalog,
		local:     ipfix.NewEphemeralTemplateStore(),
		revisions: make(map[ipfix.TemplateKey]int64),
		prefix:    prefix,
	}
}

func (s *TemplateStore) Get(ctx context.Context, key ipfix.TemplateKey) (*ipfix.WireTemplate, error) {
	return s.local.Get(ctx, key)
}

func (s *TemplateStore) GetAll(ctx context.Context) map[ipfix.TemplateKey]*ipfix.WireTemplate {
	return s.local.GetAll(ctx)
}

func (s *TemplateStore) Put(ctx context.Context, tmpl *ipfix.WireTemplate) error {
	data, err := encodeTemplate(tmpl)
	if err != nil {
		return err
	}
	res, err := s.client.Put(ctx, tmpl.Key.String(), string(data), clientv3.WithPrevKV())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.revisions[tmpl.Key] = res.Header.Revision
	s.mu.Unlock()
	return s.local.Put(ctx, tmpl)
}

func (s *TemplateStore) Delete(ctx context.Context, key ipfix.TemplateKey) error {
	if _, err := s.client.Delete(ctx, key.String()); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.revisions, key)
	s.mu.Unlock()
	return s.local.Delete(ctx, key)
}

func (s *TemplateStore) Close(ctx context.Context) error {
	return s.local.Close(ctx)
}

// Start backfills the local mirror from etcd's current state, then
// watches the key prefix for changes from other replicas until ctx is
// done. Run it in its own goroutine once per TemplateStore.
func (s *TemplateStore) Start(ctx context.Context) error {
	logger := ipfix.FromContext(ctx)

	if err := s.backfill(ctx); err != nil {
		return err
	}

	rch := s.client.Watch(ctx, "", clientv3.WithPrefix(), clientv3.WithPrevKV())
	for {
		select {
		case resp := <-rch:
			for _, ev := range resp.Events {
				if err := s.applyEvent(ctx, ev); err != nil {
					logger.Error(err, "failed to apply etcd template watch event")
				}
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *TemplateStore) backfill(ctx context.Context) error {
	res, err := s.client.Get(ctx, "", clientv3.WithPrefix(), clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return err
	}
	for _, kv := range res.Kvs {
		tmpl, err := decodeTemplate(kv.Value, s.catalog)
		if err != nil {
			return err
		}
		if err := s.local.Put(ctx, tmpl); err != nil {
			return err
		}
		s.mu.Lock()
		s.revisions[tmpl.Key] = kv.ModRevision
		s.mu.Unlock()
	}
	return nil
}

func (s *TemplateStore) applyEvent(ctx context.Context, ev *clientv3.Event) error {
	if ev.Type == clientv3.EventTypeDelete {
		tmpl, err := decodeTemplate(ev.PrevKv.GetValue(), s.catalog)
		if err != nil {
			return err
		}
		return s.local.Delete(ctx, tmpl.Key)
	}

	tmpl, err := decodeTemplate(ev.Kv.Value, s.catalog)
	if err != nil {
		return err
	}

	s.mu.Lock()
	prevRev, seen := s.revisions[tmpl.Key]
	stale := seen && prevRev >= ev.Kv.ModRevision
	if !stale {
		s.revisions[tmpl.Key] = ev.Kv.ModRevision
	}
	s.mu.Unlock()
	if stale {
		return nil
	}
	return s.local.Put(ctx, tmpl)
}
