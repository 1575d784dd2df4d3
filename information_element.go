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

	"github.com/flowstream/ipfix/iana/semantics"
	"github.com/flowstream/ipfix/iana/status"
)

// InformationElement is an immutable descriptor for a named, typed IPFIX
// field. The catalog owns every instance for the process lifetime; wire,
// placement, and struct templates hold non-owning references to catalog
// instances.
//
// Two IEs are equal iff their (Number, EnterpriseId) pair matches; Name is
// informational only and is not part of identity.
type InformationElement struct {
	Name         string `yaml:"name"`
	Number       uint16 `yaml:"id"`
	EnterpriseId uint32 `yaml:"enterpriseId,omitempty"`

	Type      IEType             `yaml:"dataType"`
	Semantics semantics.Semantic `yaml:"semantics,omitempty"`
	Status    status.Status      `yaml:"status,omitempty"`

	// Units, if non-empty, documents the IE's measurement unit (IANA
	// registry metadata, not used by the wire codec).
	Units string `yaml:"units,omitempty"`
}

// Key returns the (enterprise, number) pair identifying this IE.
func (i *InformationElement) Key() IEKey {
	return IEKey{PEN: i.EnterpriseId, Number: i.Number}
}

func (i *InformationElement) String() string {
	if i.EnterpriseId == 0 {
		return fmt.Sprintf("%s(%d)<%s>", i.Name, i.Number, i.Type)
	}
	return fmt.Sprintf("%s(%d/%d)<%s>", i.Name, i.EnterpriseId, i.Number, i.Type)
}

// IsEnterprise reports whether the IE is privately scoped (PEN != 0).
func (i *InformationElement) IsEnterprise() bool {
	return i.EnterpriseId != 0
}

// IEKey identifies an information element by its (enterprise, number) pair,
// the only part of an IE that participates in equality per spec §3.
type IEKey struct {
	PEN    uint32
	Number uint16
}

func (k IEKey) String() string {
	if k.PEN == 0 {
		return fmt.Sprintf("%d", k.Number)
	}
	return fmt.Sprintf("%d/%d", k.PEN, k.Number)
}

// enterpriseBit marks, in a template field specifier's element-id octet
// pair, that a 4-octet enterprise number follows (RFC 7011 section 3.2).
const enterpriseBit uint16 = 0x8000

// elementNumberMask extracts the low 15 bits (the element number) from a
// raw wire field-id octet pair.
const elementNumberMask uint16 = 0x7FFF
