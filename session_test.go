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
	"testing"
)

func TestSessionDefineLookupWithdraw(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewSession("test")

	key := TemplateKey{TemplateID: 256}
	wire := NewWireTemplate(key)
	wire.Append(testIE(1, Unsigned8), 1)
	wire.Activate()

	if err := s.DefineTemplate(ctx, wire); err != nil {
		t.Fatalf("DefineTemplate: %v", err)
	}
	got, err := s.LookupTemplate(ctx, key)
	if err != nil {
		t.Fatalf("LookupTemplate: %v", err)
	}
	if got.Key != key {
		t.Errorf("looked up template key = %v, want %v", got.Key, key)
	}

	if err := s.WithdrawTemplate(ctx, key); err != nil {
		t.Fatalf("WithdrawTemplate: %v", err)
	}
	if _, err := s.LookupTemplate(ctx, key); err == nil {
		t.Error("expected LookupTemplate to fail after withdrawal")
	}
}

func TestSessionLookupUnknownTemplate(t *testing.T) {
	t.Parallel()
	s := NewSession("test")
	if _, err := s.LookupTemplate(context.Background(), TemplateKey{TemplateID: 999}); err == nil {
		t.Fatal("expected an UnknownTemplate error")
	} else if ipfixErr, ok := err.(*Error); !ok || ipfixErr.Kind != ErrUnknownTemplate {
		t.Fatalf("expected ErrUnknownTemplate, got %v", err)
	}
}

func TestSessionRedefinitionInvalidatesPlanCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewSession("test")

	ieA := testIE(1, Unsigned8)
	ieB := testIE(2, Unsigned8)
	ieC := testIE(3, Unsigned8)

	key := TemplateKey{TemplateID: 256}
	wireAB := NewWireTemplate(key)
	wireAB.Append(ieA, 1)
	wireAB.Append(ieB, 1)
	wireAB.Activate()
	if err := s.DefineTemplate(ctx, wireAB); err != nil {
		t.Fatalf("DefineTemplate(AB): %v", err)
	}

	pt := NewPlacementTemplate()
	var a, b uint64
	pt.Bind(ieA, &a)
	pt.Bind(ieB, &b)

	plan1, err := s.Plans.GetOrCompile(wireAB, pt)
	if err != nil {
		t.Fatalf("GetOrCompile(1): %v", err)
	}

	// S5: redefining TID=256 with a differing field list must invalidate
	// the plan cached for that key.
	wireABC := NewWireTemplate(key)
	wireABC.Append(ieA, 1)
	wireABC.Append(ieB, 1)
	wireABC.Append(ieC, 1)
	wireABC.Activate()
	if err := s.DefineTemplate(ctx, wireABC); err != nil {
		t.Fatalf("DefineTemplate(ABC): %v", err)
	}

	if _, ok := s.Plans.Get(key); ok {
		t.Fatal("expected the plan cache entry to be evicted on redefinition")
	}

	plan2, err := s.Plans.GetOrCompile(wireABC, pt)
	if err != nil {
		t.Fatalf("GetOrCompile(2): %v", err)
	}
	if plan1 == plan2 {
		t.Fatal("expected a freshly compiled plan after redefinition, not the stale cached one")
	}
	if len(plan2.Steps) != 3 {
		t.Fatalf("len(plan2.Steps) = %d, want 3 (A, B, C)", len(plan2.Steps))
	}
}

func TestSessionObserveSequence(t *testing.T) {
	t.Parallel()
	s := NewSession("test")

	// First observation for a domain establishes the baseline without error.
	if err := s.ObserveSequence(7, 100); err != nil {
		t.Fatalf("first ObserveSequence: %v", err)
	}
	// The next in-order sequence number is fine.
	if err := s.ObserveSequence(7, 101); err != nil {
		t.Fatalf("in-order ObserveSequence: %v", err)
	}
	// A gap is reported but recoverable.
	err := s.ObserveSequence(7, 105)
	if err == nil {
		t.Fatal("expected a SequenceGap error")
	}
	ipfixErr, ok := err.(*Error)
	if !ok || ipfixErr.Kind != ErrSequenceGap {
		t.Fatalf("expected ErrSequenceGap, got %v", err)
	}
	if ipfixErr.Severity != SeverityRecoverable {
		t.Errorf("Severity = %v, want SeverityRecoverable", ipfixErr.Severity)
	}

	// Independent domains track sequence numbers separately.
	if err := s.ObserveSequence(8, 0); err != nil {
		t.Fatalf("first ObserveSequence on a different domain: %v", err)
	}
}

func TestSessionCatalogDefaultAndOverride(t *testing.T) {
	t.Parallel()
	s := NewSession("test")
	if s.Catalog() == nil {
		t.Fatal("expected NewSession to install a default catalog")
	}

	custom := NewCatalog()
	s.WithCatalog(custom)
	if s.Catalog() != custom {
		t.Error("WithCatalog did not replace the session's catalog")
	}
}

func TestCrossSessionIsolation(t *testing.T) {
	t.Parallel()
	// S6: two sessions using the same template ID with different field
	// lists must not perturb each other's template table or plan cache.
	ctx := context.Background()
	s1 := NewSession("session-1")
	s2 := NewSession("session-2")

	key := TemplateKey{TemplateID: 256}

	wire1 := NewWireTemplate(key)
	wire1.Append(testIE(1, Unsigned8), 1)
	wire1.Activate()
	if err := s1.DefineTemplate(ctx, wire1); err != nil {
		t.Fatalf("s1.DefineTemplate: %v", err)
	}

	wire2 := NewWireTemplate(key)
	wire2.Append(testIE(1, Unsigned8), 1)
	wire2.Append(testIE(2, Unsigned8), 1)
	wire2.Activate()
	if err := s2.DefineTemplate(ctx, wire2); err != nil {
		t.Fatalf("s2.DefineTemplate: %v", err)
	}

	got1, err := s1.LookupTemplate(ctx, key)
	if err != nil {
		t.Fatalf("s1.LookupTemplate: %v", err)
	}
	got2, err := s2.LookupTemplate(ctx, key)
	if err != nil {
		t.Fatalf("s2.LookupTemplate: %v", err)
	}
	if len(got1.Fields) != 1 {
		t.Errorf("s1 template has %d fields, want 1", len(got1.Fields))
	}
	if len(got2.Fields) != 2 {
		t.Errorf("s2 template has %d fields, want 2", len(got2.Fields))
	}
}
