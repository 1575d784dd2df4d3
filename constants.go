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

// ProtocolVersion is the fixed version field value of every IPFIX message
// header (RFC 7011 section 3.1).
const ProtocolVersion uint16 = 10

const (
	// MessageHeaderLength is the fixed size, in octets, of the IPFIX
	// message header.
	MessageHeaderLength = 16
	// SetHeaderLength is the fixed size, in octets, of a set header.
	SetHeaderLength = 4
	// TemplateRecordHeaderLength is the fixed size, in octets, of a
	// template record header (template ID + field count).
	TemplateRecordHeaderLength = 4
	// OptionsTemplateRecordHeaderLength is the fixed size, in octets, of
	// an options template record header (template ID + field count +
	// scope field count).
	OptionsTemplateRecordHeaderLength = 6
	// FieldSpecifierLength is the size, in octets, of a template field
	// specifier without an enterprise number.
	FieldSpecifierLength = 4
	// EnterpriseFieldSpecifierLength is the size, in octets, of a
	// template field specifier carrying an enterprise number.
	EnterpriseFieldSpecifierLength = 8

	// MinTemplateID is the lowest set ID reserved for data use; set IDs
	// below this are reserved for the template (2) and options template
	// (3) sets themselves.
	MinTemplateID = 256

	// TemplateSetID is the reserved set ID for template sets.
	TemplateSetID = 2
	// OptionsTemplateSetID is the reserved set ID for options template
	// sets.
	OptionsTemplateSetID = 3
)

// MaxMessageLength is the largest value the 16-bit message header length
// field can carry.
const MaxMessageLength = 0xFFFF

// MaxVarlenShortLength is the largest payload length a 1-octet varlen
// prefix can represent directly; lengths above this use the 3-octet
// (0xFF + 2-octet length) extended form.
const MaxVarlenShortLength = 254

// VarlenExtendedMarker is the 1-octet value signaling that a 2-octet
// extended length follows in a variable-length field encoding.
const VarlenExtendedMarker = 0xFF
