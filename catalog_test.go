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

import "testing"

func TestCatalogRegisterAndLookup(t *testing.T) {
	t.Parallel()
	c := NewCatalog()
	ie := &InformationElement{Name: "testElement", Number: 1, Type: Unsigned64}
	c.Register(ie)

	got, ok := c.LookupByNumber(0, 1)
	if !ok || got != ie {
		t.Fatalf("LookupByNumber(0, 1) = %v, %v, want %v, true", got, ok, ie)
	}
	byName, ok := c.LookupByName("testElement")
	if !ok || byName != ie {
		t.Fatalf("LookupByName = %v, %v, want %v, true", byName, ok, ie)
	}
}

func TestCatalogEnterpriseIEsAreNotIndexedByName(t *testing.T) {
	t.Parallel()
	c := NewCatalog()
	ie := &InformationElement{Name: "vendorThing", Number: 1, EnterpriseId: 12345, Type: Unsigned32}
	c.Register(ie)

	if _, ok := c.LookupByName("vendorThing"); ok {
		t.Error("enterprise-specific IEs must not be reachable via LookupByName")
	}
	got, ok := c.LookupByNumber(12345, 1)
	if !ok || got != ie {
		t.Fatalf("LookupByNumber(12345, 1) = %v, %v, want %v, true", got, ok, ie)
	}

	// The same element number under the standard (PEN 0) namespace is a
	// distinct entry.
	if _, ok := c.LookupByNumber(0, 1); ok {
		t.Error("enterprise IE must not collide with PEN 0 namespace")
	}
}

func TestCatalogRegisterReplacesExisting(t *testing.T) {
	t.Parallel()
	c := NewCatalog()
	first := &InformationElement{Name: "original", Number: 1, Type: Unsigned8}
	c.Register(first)
	second := &InformationElement{Name: "renamed", Number: 1, Type: Unsigned8}
	c.Register(second)

	got, _ := c.LookupByNumber(0, 1)
	if got != second {
		t.Error("Register must replace an existing entry with the same key")
	}
	if _, ok := c.LookupByName("original"); ok {
		t.Error("the replaced entry's old name must no longer resolve")
	}
}

func TestCatalogAll(t *testing.T) {
	t.Parallel()
	c := NewCatalog()
	c.Register(&InformationElement{Name: "a", Number: 1, Type: Unsigned8})
	c.Register(&InformationElement{Name: "b", Number: 2, Type: Unsigned8})
	if len(c.All()) != 2 {
		t.Fatalf("len(All()) = %d, want 2", len(c.All()))
	}
}

func TestDefaultCatalogIsSingletonAndBootstrapped(t *testing.T) {
	t.Parallel()
	d1 := DefaultCatalog()
	d2 := DefaultCatalog()
	if d1 != d2 {
		t.Fatal("DefaultCatalog must return the same instance on every call")
	}
	// octetDeltaCount (IE 1) is present in the embedded IANA registry.
	if _, ok := d1.LookupByNumber(0, 1); !ok {
		t.Error("DefaultCatalog should be bootstrapped from the embedded IANA registry")
	}
}
