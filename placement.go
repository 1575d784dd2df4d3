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
	"fmt"
	"reflect"
)

// Placement binds one information element to a caller-owned Go value. It
// is the Go analogue of libfc's "IE plus memory address and size": rather
// than a raw pointer, a Placement holds a reflect.Value obtained from a
// pointer the caller supplied, so binding stays within Go's memory-safety
// guarantees at the cost of one indirection per field instead of zero.
type Placement struct {
	IE     *InformationElement
	target reflect.Value
}

// goKindFor reports the Go reflect.Kind a Placement target must have to
// receive values of the given information element type.
func goKindFor(t IEType) reflect.Kind {
	switch t {
	case Unsigned8, Unsigned16, Unsigned32, Unsigned64, Ipv4Address,
		DateTimeSeconds, DateTimeMilliseconds, DateTimeMicroseconds, DateTimeNanoseconds:
		return reflect.Uint64
	case Signed8, Signed16, Signed32, Signed64:
		return reflect.Int64
	case Float32:
		return reflect.Float32
	case Float64:
		return reflect.Float64
	case Boolean:
		return reflect.Bool
	case String:
		return reflect.String
	case OctetArray, MacAddress, Ipv6Address:
		return reflect.Slice
	default:
		return reflect.Invalid
	}
}

// PlacementTemplate is an ordered set of Placements a caller registers to
// receive decoded field values, or to supply field values for encoding.
// Its membership, checked against a WireTemplate by Contains, decides
// whether the two can be combined; its order plays no part in that check.
type PlacementTemplate struct {
	placements []*Placement
	byKey      map[IEKey]*Placement
}

// NewPlacementTemplate constructs an empty placement template.
func NewPlacementTemplate() *PlacementTemplate {
	return &PlacementTemplate{byKey: make(map[IEKey]*Placement)}
}

// Bind registers dst (which must be a non-nil pointer of a type
// compatible with ie.Type, per goKindFor) to receive ie's value. Binding
// the same IE twice replaces the earlier placement, matching the
// "first-subset-match wins" collector semantics at the template level.
func (p *PlacementTemplate) Bind(ie *InformationElement, dst interface{}) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("placement target for %s must be a non-nil pointer", ie)
	}
	elem := v.Elem()
	wantKind := goKindFor(ie.Type)
	if wantKind == reflect.Invalid {
		return fmt.Errorf("no placement binding defined for type %s", ie.Type)
	}
	if !elem.CanSet() {
		return fmt.Errorf("placement target for %s is not settable", ie)
	}
	if elem.Kind() != wantKind && !(wantKind == reflect.Slice && elem.Kind() == reflect.Array) {
		return fmt.Errorf("placement target for %s must be %s, got %s", ie, wantKind, elem.Kind())
	}

	pl := &Placement{IE: ie, target: elem}
	key := ie.Key()
	if existing, ok := p.byKey[key]; ok {
		*existing = *pl
		return nil
	}
	p.placements = append(p.placements, pl)
	p.byKey[key] = pl
	return nil
}

// Lookup returns the placement bound to ie's key, if any.
func (p *PlacementTemplate) Lookup(ie *InformationElement) (*Placement, bool) {
	pl, ok := p.byKey[ie.Key()]
	return pl, ok
}

// Elements returns the bound information elements in registration order.
// WireTemplate.Contains treats them as a set, so the order does not affect
// matching.
func (p *PlacementTemplate) Elements() []*InformationElement {
	out := make([]*InformationElement, len(p.placements))
	for i, pl := range p.placements {
		out[i] = pl.IE
	}
	return out
}

func (pl *Placement) setUint(v uint64) { pl.target.SetUint(v) }
func (pl *Placement) setInt(v int64)   { pl.target.SetInt(v) }
func (pl *Placement) setFloat(v float64) { pl.target.SetFloat(v) }
func (pl *Placement) setBool(v bool)   { pl.target.SetBool(v) }
func (pl *Placement) setString(v string) { pl.target.SetString(v) }
func (pl *Placement) setBytes(v []byte) {
	if pl.target.Kind() == reflect.Array {
		reflect.Copy(pl.target, reflect.ValueOf(v))
		return
	}
	pl.target.SetBytes(v)
}

func (pl *Placement) getUint() uint64   { return pl.target.Uint() }
func (pl *Placement) getInt() int64     { return pl.target.Int() }
func (pl *Placement) getFloat() float64 { return pl.target.Float() }
func (pl *Placement) getBool() bool     { return pl.target.Bool() }
func (pl *Placement) getString() string { return pl.target.String() }
func (pl *Placement) getBytes() []byte {
	if pl.target.Kind() == reflect.Array {
		b := make([]byte, pl.target.Len())
		reflect.Copy(reflect.ValueOf(b), pl.target)
		return b
	}
	return pl.target.Bytes()
}

// StructTemplate binds a WireTemplate's fields directly to named byte
// ranges within a flat []byte record buffer, rather than to individual Go
// values. It is used when the caller wants to retain data records in a
// pre-serialized, cache-friendly layout (e.g., a columnar store) instead
// of materializing per-record Go structs.
type StructTemplate struct {
	Key    TemplateKey
	Fields []StructField
	Size   int
}

// StructField describes one IE's placement within a StructTemplate's flat
// record layout.
type StructField struct {
	IE     *InformationElement
	Offset int
	Length int
}

// NewStructTemplate computes a flat, fixed-offset layout for wire's
// fields. It fails if wire has any variable-length field, since a flat
// struct layout has no room for a varlen payload of unknown size; use a
// PlacementTemplate with a []byte or string target for those instead.
func NewStructTemplate(wire *WireTemplate) (*StructTemplate, error) {
	if wire.HasVariableLength() {
		return nil, fmt.Errorf("template %s has a variable-length field, incompatible with a flat struct layout", wire.Key)
	}
	st := &StructTemplate{Key: wire.Key}
	offset := 0
	for _, fs := range wire.Fields {
		st.Fields = append(st.Fields, StructField{IE: fs.IE, Offset: offset, Length: int(fs.WireLen)})
		offset += int(fs.WireLen)
	}
	st.Size = offset
	return st, nil
}
