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

// DecodeRecord runs plan against t at the cursor's current position,
// filling the bound placements and leaving the cursor just past the
// record. On truncation it rolls back to the position at call time and
// returns a Truncated error; placements may have been partially written
// up to that point, since the tight loop does not buffer its output.
func (p *Plan) DecodeRecord(t *Transcoder) error {
	t.Checkpoint()
	for _, step := range p.Steps {
		ok, err := decodeStep(t, p, step)
		if err != nil {
			t.Rollback()
			return err
		}
		if !ok {
			t.Rollback()
			return truncatedError(p.RecordLen, t.Avail())
		}
	}
	return nil
}

// decodeStep executes one PlanStep. Its return is (ok, err): ok is false
// for an ordinary truncation (DecodeRecord reports Truncated); err is set
// when the step detected a condition with its own severity distinct from
// truncation (e.g. a boolean octet outside {1,2}, which is recoverable
// rather than fatal) and must be returned to the caller verbatim.
func decodeStep(t *Transcoder, p *Plan, step PlanStep) (bool, error) {
	switch step.Kind {
	case transferSkip:
		if step.WireLen < 0 {
			_, ok := t.DecodeVarlen()
			return ok, nil
		}
		return t.Advance(step.WireLen), nil

	case transferFixedNoEndian:
		b, ok := t.DecodeBytes(step.WireLen)
		if !ok {
			return false, nil
		}
		p.Placements[step.PlacementIdx].setBytes(b)
		return true, nil

	case transferFixedEndian:
		pl := p.Placements[step.PlacementIdx]
		if step.Signed {
			v, ok := t.DecodeInt(step.WireLen)
			if !ok {
				return false, nil
			}
			pl.setInt(v)
			return true, nil
		}
		v, ok := t.DecodeUint(step.WireLen)
		if !ok {
			return false, nil
		}
		pl.setUint(v)
		return true, nil

	case transferBoolean:
		v, err := t.DecodeBoolean()
		if err != nil {
			return false, err
		}
		p.Placements[step.PlacementIdx].setBool(v)
		return true, nil

	case transferFloat32To64:
		v, ok := t.DecodeFloat32As64()
		if !ok {
			return false, nil
		}
		p.Placements[step.PlacementIdx].setFloat(v)
		return true, nil

	case transferFloat:
		pl := p.Placements[step.PlacementIdx]
		if step.WireLen == 4 {
			v, ok := t.DecodeFloat32()
			if !ok {
				return false, nil
			}
			pl.setFloat(float64(v))
			return true, nil
		}
		v, ok := t.DecodeFloat64()
		if !ok {
			return false, nil
		}
		pl.setFloat(v)
		return true, nil

	case transferVarlen:
		b, ok := t.DecodeVarlen()
		if !ok {
			return false, nil
		}
		pl := p.Placements[step.PlacementIdx]
		if pl.target.Kind().String() == "string" {
			pl.setString(string(b))
		} else {
			pl.setBytes(append([]byte(nil), b...))
		}
		return true, nil

	case transferFixedOctets:
		b, ok := t.DecodeBytes(step.WireLen)
		if !ok {
			return false, nil
		}
		pl := p.Placements[step.PlacementIdx]
		if pl.target.Kind().String() == "string" {
			pl.setString(string(trimTrailingNUL(b)))
		} else {
			pl.setBytes(append([]byte(nil), b...))
		}
		return true, nil

	default:
		return false, nil
	}
}

// trimTrailingNUL drops trailing zero octets from a fixed-width string
// field's decoded bytes, the conventional NUL-padding a fixed OctetArray/
// String wire length leaves once the value itself is shorter.
func trimTrailingNUL(b []byte) []byte {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	return b[:i]
}

// EncodeRecord runs plan in reverse against t, writing each bound
// placement's current value at the cursor and advancing past it. It
// rolls back and returns an EncodeBufferFull error if the record does not
// fit in the remaining buffer.
func (p *Plan) EncodeRecord(t *Transcoder) error {
	t.Checkpoint()
	for _, step := range p.Steps {
		if !encodeStep(t, p, step) {
			t.Rollback()
			return encodeBufferFullError(p.RecordLen, t.Avail())
		}
	}
	return nil
}

func encodeStep(t *Transcoder, p *Plan, step PlanStep) bool {
	switch step.Kind {
	case transferSkip:
		if step.WireLen < 0 {
			return t.EncodeVarlen(nil)
		}
		return t.EncodeBytes(make([]byte, step.WireLen))

	case transferFixedNoEndian:
		pl := p.Placements[step.PlacementIdx]
		return t.EncodeBytes(pl.getBytes())

	case transferFixedEndian:
		pl := p.Placements[step.PlacementIdx]
		if step.Signed {
			return t.EncodeInt(pl.getInt(), step.WireLen)
		}
		return t.EncodeUint(pl.getUint(), step.WireLen)

	case transferBoolean:
		return t.EncodeBoolean(p.Placements[step.PlacementIdx].getBool())

	case transferFloat32To64, transferDoubleToFloat:
		return t.EncodeFloat64As32(p.Placements[step.PlacementIdx].getFloat())

	case transferFloat:
		pl := p.Placements[step.PlacementIdx]
		if step.WireLen == 4 {
			return t.EncodeFloat32(float32(pl.getFloat()))
		}
		return t.EncodeFloat64(pl.getFloat())

	case transferVarlen, transferVarlenFromByteArray:
		pl := p.Placements[step.PlacementIdx]
		if pl.target.Kind().String() == "string" {
			return t.EncodeVarlen([]byte(pl.getString()))
		}
		return t.EncodeVarlen(pl.getBytes())

	case transferFixedOctets:
		pl := p.Placements[step.PlacementIdx]
		var v []byte
		if pl.target.Kind().String() == "string" {
			v = []byte(pl.getString())
		} else {
			v = pl.getBytes()
		}
		if len(v) > step.WireLen {
			return false
		}
		padded := make([]byte, step.WireLen)
		copy(padded, v)
		return t.EncodeBytes(padded)

	default:
		return false
	}
}
