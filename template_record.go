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

// DecodeTemplateRecord reads one template record (RFC 7011 section 3.4.1)
// at the cursor, resolving each field specifier's information element
// through catalog. A field naming an IE the catalog does not know is
// still recorded, as an anonymous octetArray of its declared wire length,
// since RFC 7011 requires decoders to tolerate unknown elements rather
// than reject the whole template.
//
// A fieldCount of 0 denotes a template withdrawal; the returned template
// has no fields and is not activated.
func DecodeTemplateRecord(t *Transcoder, domain uint32, catalog Catalog) (*WireTemplate, error) {
	t.Checkpoint()

	templateID, ok1 := t.DecodeUint(2)
	fieldCount, ok2 := t.DecodeUint(2)
	if !(ok1 && ok2) {
		t.Rollback()
		return nil, truncatedError(TemplateRecordHeaderLength, t.Avail())
	}

	tmpl := NewWireTemplate(TemplateKey{ObservationDomainID: domain, TemplateID: uint16(templateID)})

	for i := uint64(0); i < fieldCount; i++ {
		ie, wireLen, err := decodeFieldSpecifier(t, catalog)
		if err != nil {
			t.Rollback()
			return nil, err
		}
		if err := tmpl.Append(ie, wireLen); err != nil {
			t.Rollback()
			return nil, err
		}
	}

	if fieldCount > 0 {
		tmpl.Activate()
	}
	return tmpl, nil
}

// decodeFieldSpecifier reads one field specifier (RFC 7011 section 3.2):
// a 2-octet element ID with the enterprise bit, a 2-octet wire length,
// and, if the enterprise bit was set, a 4-octet enterprise number.
func decodeFieldSpecifier(t *Transcoder, catalog Catalog) (*InformationElement, uint16, error) {
	rawID, ok1 := t.DecodeUint(2)
	wireLen, ok2 := t.DecodeUint(2)
	if !(ok1 && ok2) {
		return nil, 0, truncatedError(FieldSpecifierLength, t.Avail())
	}

	id := uint16(rawID)
	var pen uint32
	if id&enterpriseBit != 0 {
		id &= elementNumberMask
		rawPEN, ok := t.DecodeUint(4)
		if !ok {
			return nil, 0, truncatedError(4, t.Avail())
		}
		pen = uint32(rawPEN)
	}

	ie, ok := catalog.LookupByNumber(pen, id)
	if !ok {
		ie = &InformationElement{Name: "_unknown", Number: id, EnterpriseId: pen, Type: OctetArray}
	}
	return ie, uint16(wireLen), nil
}

// EncodeTemplateRecord writes tmpl as a template record at the cursor.
func EncodeTemplateRecord(t *Transcoder, tmpl *WireTemplate) bool {
	t.Checkpoint()
	if !t.EncodeUint(uint64(tmpl.Key.TemplateID), 2) || !t.EncodeUint(uint64(len(tmpl.Fields)), 2) {
		t.Rollback()
		return false
	}
	for _, fs := range tmpl.Fields {
		if !encodeFieldSpecifier(t, fs) {
			t.Rollback()
			return false
		}
	}
	return true
}

func encodeFieldSpecifier(t *Transcoder, fs FieldSpecifier) bool {
	id := fs.IE.Number
	if fs.IE.IsEnterprise() {
		id |= enterpriseBit
	}
	if !t.EncodeUint(uint64(id), 2) || !t.EncodeUint(uint64(fs.WireLen), 2) {
		return false
	}
	if fs.IE.IsEnterprise() {
		if !t.EncodeUint(uint64(fs.IE.EnterpriseId), 4) {
			return false
		}
	}
	return true
}

// DecodeOptionsTemplateRecord reads one options template record (RFC
// 7011 section 3.4.2.2), which carries a scope field count ahead of its
// regular fields.
func DecodeOptionsTemplateRecord(t *Transcoder, domain uint32, catalog Catalog) (*WireTemplate, error) {
	t.Checkpoint()

	templateID, ok1 := t.DecodeUint(2)
	fieldCount, ok2 := t.DecodeUint(2)
	scopeCount, ok3 := t.DecodeUint(2)
	if !(ok1 && ok2 && ok3) {
		t.Rollback()
		return nil, truncatedError(OptionsTemplateRecordHeaderLength, t.Avail())
	}
	if scopeCount == 0 || scopeCount > fieldCount {
		t.Rollback()
		return nil, malformedSetError(uint16(templateID), "options template scope field count out of range")
	}

	tmpl := NewWireTemplate(TemplateKey{ObservationDomainID: domain, TemplateID: uint16(templateID)})
	tmpl.IsOptions = true
	tmpl.Scope = int(scopeCount)

	for i := uint64(0); i < fieldCount; i++ {
		ie, wireLen, err := decodeFieldSpecifier(t, catalog)
		if err != nil {
			t.Rollback()
			return nil, err
		}
		if err := tmpl.Append(ie, wireLen); err != nil {
			t.Rollback()
			return nil, err
		}
	}

	if fieldCount > 0 {
		tmpl.Activate()
	}
	return tmpl, nil
}

// EncodeOptionsTemplateRecord writes tmpl as an options template record.
func EncodeOptionsTemplateRecord(t *Transcoder, tmpl *WireTemplate) bool {
	t.Checkpoint()
	if !t.EncodeUint(uint64(tmpl.Key.TemplateID), 2) ||
		!t.EncodeUint(uint64(len(tmpl.Fields)), 2) ||
		!t.EncodeUint(uint64(tmpl.Scope), 2) {
		t.Rollback()
		return false
	}
	for _, fs := range tmpl.Fields {
		if !encodeFieldSpecifier(t, fs) {
			t.Rollback()
			return false
		}
	}
	return true
}
