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

// VarLen is the sentinel wire length marking a variable-length field.
const VarLen uint16 = 0xFFFF

// IEType is the closed set of 20 abstract data types assigned by IANA for
// IPFIX information elements (RFC 7011 section 3.1, RFC 6313 basic types).
// It replaces a per-type class hierarchy with a tagged enum plus a small
// per-kind behavior table, so dispatch over types is an exhaustive switch
// with no virtual call and no allocation.
type IEType uint8

const (
	OctetArray IEType = iota
	Unsigned8
	Unsigned16
	Unsigned32
	Unsigned64
	Signed8
	Signed16
	Signed32
	Signed64
	Float32
	Float64
	Boolean
	MacAddress
	String
	DateTimeSeconds
	DateTimeMilliseconds
	DateTimeMicroseconds
	DateTimeNanoseconds
	Ipv4Address
	Ipv6Address
)

// ieTypeCount is the number of types known to this package. This must not
// change without a corresponding RFC revision.
const ieTypeCount = 20

func (t IEType) String() string {
	switch t {
	case OctetArray:
		return "octetArray"
	case Unsigned8:
		return "unsigned8"
	case Unsigned16:
		return "unsigned16"
	case Unsigned32:
		return "unsigned32"
	case Unsigned64:
		return "unsigned64"
	case Signed8:
		return "signed8"
	case Signed16:
		return "signed16"
	case Signed32:
		return "signed32"
	case Signed64:
		return "signed64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Boolean:
		return "boolean"
	case MacAddress:
		return "macAddress"
	case String:
		return "string"
	case DateTimeSeconds:
		return "dateTimeSeconds"
	case DateTimeMilliseconds:
		return "dateTimeMilliseconds"
	case DateTimeMicroseconds:
		return "dateTimeMicroseconds"
	case DateTimeNanoseconds:
		return "dateTimeNanoseconds"
	case Ipv4Address:
		return "ipv4Address"
	case Ipv6Address:
		return "ipv6Address"
	default:
		return "unassigned"
	}
}

// ParseIEType parses the canonical type name used by the embedded IANA
// registry and by enterprise catalog YAML files.
func ParseIEType(name string) (IEType, bool) {
	for t := IEType(0); int(t) < ieTypeCount; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

// MarshalText renders the canonical type name, used by YAML and JSON
// catalog export.
func (t IEType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses the canonical type name produced by MarshalText.
func (t *IEType) UnmarshalText(text []byte) error {
	parsed, ok := ParseIEType(string(text))
	if !ok {
		return fmt.Errorf("unknown information element type %q", text)
	}
	*t = parsed
	return nil
}

// DefaultLength returns the type's canonical wire length as defined by RFC
// 7011/6313. Variable-length types report VarLen.
func (t IEType) DefaultLength() uint16 {
	switch t {
	case OctetArray, String:
		return VarLen
	case Unsigned8, Signed8, Boolean:
		return 1
	case Unsigned16, Signed16:
		return 2
	case Unsigned32, Signed32, Float32, DateTimeSeconds, Ipv4Address:
		return 4
	case Unsigned64, Signed64, Float64, DateTimeMilliseconds, DateTimeMicroseconds, DateTimeNanoseconds:
		return 8
	case MacAddress:
		return 6
	case Ipv6Address:
		return 16
	default:
		return 0
	}
}

// NativeSize returns the number of octets this type occupies in its
// canonical (non reduced-length) in-memory representation. For the integer
// and dateTime families this equals DefaultLength; it is split out
// separately because a few idioms (e.g. reduced-length checks) read more
// naturally phrased against "native size" than "default wire length".
func (t IEType) NativeSize() uint16 {
	return t.DefaultLength()
}

// IsVariableLength reports whether the type's wire length is carried by a
// length prefix rather than fixed by the template.
func (t IEType) IsVariableLength() bool {
	return t == OctetArray || t == String
}

// IsEndianSwappable reports whether the wire encoding of the type is
// affected by host/network byte order, i.e., whether reduced-length
// encoding zero/sign-extends rather than merely truncating a byte copy.
func (t IEType) IsEndianSwappable() bool {
	switch t {
	case Unsigned8, Unsigned16, Unsigned32, Unsigned64,
		Signed8, Signed16, Signed32, Signed64,
		Float32, Float64, Boolean,
		DateTimeSeconds, DateTimeMilliseconds, DateTimeMicroseconds, DateTimeNanoseconds,
		Ipv4Address:
		return true
	default:
		return false
	}
}

// IsSigned reports whether the type decodes with sign extension rather than
// zero extension under reduced-length encoding.
func (t IEType) IsSigned() bool {
	switch t {
	case Signed8, Signed16, Signed32, Signed64:
		return true
	default:
		return false
	}
}

// AllowsReducedLength reports whether wireLen is an admissible reduced wire
// length for t, per spec §4.1's per-type table.
func (t IEType) AllowsReducedLength(wireLen uint16) bool {
	if wireLen == VarLen {
		return t.IsVariableLength()
	}
	switch t {
	case Unsigned8, Unsigned16, Unsigned32, Unsigned64,
		Signed8, Signed16, Signed32, Signed64,
		DateTimeSeconds, DateTimeMilliseconds, DateTimeMicroseconds, DateTimeNanoseconds:
		return wireLen >= 1 && wireLen <= t.NativeSize()
	case Float32:
		return wireLen == 4
	case Float64:
		return wireLen == 4 || wireLen == 8
	case Boolean:
		return wireLen == 1
	case MacAddress:
		return wireLen == 6
	case Ipv4Address:
		return wireLen == 4
	case Ipv6Address:
		return wireLen == 16
	case OctetArray, String:
		return true
	default:
		return false
	}
}

// validateWireLength turns an inadmissible (type, wireLen) combination into
// a PlanCompilationError-shaped message used by the placement compiler.
func (t IEType) validateWireLength(wireLen uint16) error {
	if t.AllowsReducedLength(wireLen) {
		return nil
	}
	return fmt.Errorf("type %s does not admit wire length %d", t, wireLen)
}
