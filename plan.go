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

// transferKind tags how one field in a compiled Plan moves between the
// wire and a Placement. It is a closed set: every case the plan executor
// handles is listed here, so the executor's dispatch switch is provably
// exhaustive rather than open to a silently-missing case.
type transferKind int

const (
	// transferSkip: no placement is bound to this field; advance past it
	// without reading its value.
	transferSkip transferKind = iota
	// transferFixedNoEndian: copy wireLen octets verbatim (MacAddress,
	// Ipv6Address).
	transferFixedNoEndian
	// transferFixedEndian: decode/encode a fixed-width integer, dateTime,
	// or Ipv4Address field with zero/sign extension as appropriate.
	transferFixedEndian
	// transferBoolean: decode/encode the single-octet RFC 2579 boolean.
	transferBoolean
	// transferFloat32To64: decode a 4-octet float and place it in a
	// float64 target; on encode, narrow the float64 value to a 4-octet
	// float.
	transferFloat32To64
	// transferFloat: decode/encode a float32 or float64 field at its
	// native width.
	transferFloat
	// transferVarlen: decode/encode a variable-length field.
	transferVarlen
	// transferFixedOctets: a fixed (non-varlen) wire length OctetArray or
	// String field bound to a []byte, [N]byte, or string placement.
	// Unlike transferFixedNoEndian this trims trailing NUL padding off a
	// string target on decode and NUL-pads a short value on encode,
	// since a fixed-length string field's wire length is not implied by
	// the value's own length the way a varlen field's is.
	transferFixedOctets
	// transferDoubleToFloat: encode a float64 placement value narrowed to
	// a 4-octet float32 wire field. classifyTransfer never selects it.
	transferDoubleToFloat
	// transferVarlenFromByteArray: encode a fixed-size byte array
	// placement value as a variable-length wire field. classifyTransfer
	// never selects it; encodeStep handles it like transferVarlen.
	transferVarlenFromByteArray
)

// PlanStep is one instruction of a compiled Plan: transfer transferKind's
// field, at placement index placementIdx (when applicable), of wireLen
// octets.
type PlanStep struct {
	Kind         transferKind
	WireLen      int
	Signed       bool
	PlacementIdx int // index into Plan.Placements, -1 for transferSkip
}

// Plan is the compiled result of matching a WireTemplate against a
// PlacementTemplate: a flat instruction list the executor runs once per
// data record, with no further catalog lookups, type switches beyond the
// the step's own Kind, or allocation.
type Plan struct {
	TemplateKey TemplateKey
	Steps       []PlanStep
	Placements  []*Placement
	RecordLen   int
}

// CompilePlan matches wire's fields against placement's bindings, in
// wire's field order, producing a Plan. Fields with no matching placement
// become transferSkip steps; fields whose placement target is
// type-incompatible with the wire field yield a PlanCompilationError.
func CompilePlan(wire *WireTemplate, placement *PlacementTemplate) (*Plan, error) {
	plan := &Plan{TemplateKey: wire.Key}

	for _, fs := range wire.Fields {
		wireLen := int(fs.WireLen)
		if fs.WireLen == VarLen {
			wireLen = -1
		}
		step := PlanStep{PlacementIdx: -1, WireLen: wireLen, Signed: fs.IE.Type.IsSigned()}

		pl, bound := placement.Lookup(fs.IE)
		if !bound {
			step.Kind = transferSkip
			plan.Steps = append(plan.Steps, step)
			if fs.WireLen == VarLen {
				plan.RecordLen++ // conservative: at least the length prefix
			} else {
				plan.RecordLen += int(fs.WireLen)
			}
			continue
		}

		kind, err := classifyTransfer(fs.IE.Type, fs.WireLen, pl)
		if err != nil {
			return nil, planCompilationError(wire.Key.TemplateID, err.Error())
		}
		step.Kind = kind
		step.PlacementIdx = len(plan.Placements)
		plan.Placements = append(plan.Placements, pl)
		plan.Steps = append(plan.Steps, step)

		if fs.WireLen == VarLen {
			plan.RecordLen++
		} else {
			plan.RecordLen += int(fs.WireLen)
		}
	}

	return plan, nil
}

// classifyTransfer decides which transferKind a bound (type, wireLen)
// pair requires, validating that the placement's Go kind is compatible.
func classifyTransfer(t IEType, wireLen uint16, pl *Placement) (transferKind, error) {
	wantKind := goKindFor(t)
	gotKind := pl.target.Kind()
	compatible := gotKind == wantKind || (wantKind == reflect.Slice && gotKind == reflect.Array)
	if !compatible {
		return 0, fmt.Errorf("placement for %s has incompatible kind %s", pl.IE, gotKind)
	}

	switch t {
	case Boolean:
		return transferBoolean, nil
	case Float32:
		return transferFloat, nil
	case Float64:
		if wireLen == 4 {
			return transferFloat32To64, nil
		}
		return transferFloat, nil
	case OctetArray, String:
		if wireLen == VarLen {
			return transferVarlen, nil
		}
		return transferFixedOctets, nil
	case MacAddress, Ipv6Address:
		return transferFixedNoEndian, nil
	case Ipv4Address:
		return transferFixedEndian, nil
	default:
		return transferFixedEndian, nil
	}
}
