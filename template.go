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

import "fmt"

// TemplateKey identifies a template within a session: the observation
// domain it was defined in, plus its template ID. Template IDs are only
// meaningful within a single (session, domain) pair; the same ID may name
// unrelated templates in different domains, or across different sessions
// on the same collector.
type TemplateKey struct {
	ObservationDomainID uint32
	TemplateID          uint16
}

func (k TemplateKey) String() string {
	return fmt.Sprintf("domain=%d/template=%d", k.ObservationDomainID, k.TemplateID)
}

// FieldSpecifier is one entry of a template record: the information
// element it names, and the wire length it was declared with (which may
// be a reduced length, or VarLen for variable-length fields).
type FieldSpecifier struct {
	IE      *InformationElement
	WireLen uint16
}

// WireTemplate is the decoded form of a template record: an ordered list
// of field specifiers, plus the cumulative offset/length bookkeeping
// needed to validate and later decode the data records it governs.
//
// A WireTemplate is built via Append calls and only becomes usable for
// decoding after Activate; this mirrors the wire sequence (a template
// record arrives complete, in one set) while keeping construction and use
// as two distinct, separately testable phases.
type WireTemplate struct {
	Key    TemplateKey
	Fields []FieldSpecifier

	// IsOptions marks a template parsed from an options template record;
	// Scope is the count of its leading scope fields.
	IsOptions bool
	Scope     int

	active bool

	// minLen is the sum of each field's wire length, substituting 1 for
	// variable-length fields (the minimum a varlen field can occupy: a
	// 1-octet length prefix plus zero payload octets... for the purposes
	// of the running minimum we count only the prefix octet here and the
	// payload separately at decode time).
	minLen int
	// hasVarlen records whether any field is variable-length, so decoding
	// a data record governed by this template must read the varlen
	// prefix of each such field rather than trusting a fixed stride.
	hasVarlen bool
}

// NewWireTemplate constructs an empty, inactive template for the given
// key. Fields are added with Append and the template is made usable for
// decoding with Activate.
func NewWireTemplate(key TemplateKey) *WireTemplate {
	return &WireTemplate{Key: key}
}

// Append adds a field specifier to the template. It must be called before
// Activate; appending to an active template returns an error, matching
// the wire behavior that template records are immutable once accepted.
func (t *WireTemplate) Append(ie *InformationElement, wireLen uint16) error {
	if t.active {
		return fmt.Errorf("cannot append to active template %s", t.Key)
	}
	if err := ie.Type.validateWireLength(wireLen); err != nil {
		return planCompilationError(t.Key.TemplateID, err.Error())
	}
	t.Fields = append(t.Fields, FieldSpecifier{IE: ie, WireLen: wireLen})
	if wireLen == VarLen {
		t.hasVarlen = true
		t.minLen++
	} else {
		t.minLen += int(wireLen)
	}
	return nil
}

// Activate marks the template ready for use. Per RFC 7011 section 8.1, a
// template with zero fields (a withdrawal record, for template sets) is
// not itself an active template; callers parsing withdrawal semantics
// should not call Activate for those records.
func (t *WireTemplate) Activate() {
	t.active = true
}

// Deactivate withdraws the template; subsequent data records referencing
// it yield a TemplateInactive error until it is redefined.
func (t *WireTemplate) Deactivate() {
	t.active = false
}

// Active reports whether data records may currently be decoded against
// this template.
func (t *WireTemplate) Active() bool {
	return t.active
}

// MinRecordLength returns the minimum number of octets a data record
// governed by this template can occupy (every variable-length field at
// its shortest, zero-octet payload).
func (t *WireTemplate) MinRecordLength() int {
	return t.minLen
}

// HasVariableLength reports whether any field in the template is
// variable-length, i.e., whether data records must be walked
// field-by-field rather than addressed by a fixed stride.
func (t *WireTemplate) HasVariableLength() bool {
	return t.hasVarlen
}

// Contains reports whether every IE in ies appears somewhere in t's field
// list. Per spec, placement order is not significant: a placement
// template matches a wire template whenever its IE set is a subset of
// the wire template's, irrespective of either one's field order. This is
// the subset test a PlacementCollector uses to decide whether a
// registered PlacementTemplate applies to a wire template it has just
// seen.
func (t *WireTemplate) Contains(ies []*InformationElement) bool {
	present := make(map[IEKey]bool, len(t.Fields))
	for _, fs := range t.Fields {
		present[fs.IE.Key()] = true
	}
	for _, want := range ies {
		if !present[want.Key()] {
			return false
		}
	}
	return true
}
