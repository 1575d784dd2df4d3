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

// MessageHeader is the fixed 16-octet header at the start of every IPFIX
// message (RFC 7011 section 3.1).
type MessageHeader struct {
	Version             uint16
	Length              uint16
	ExportTime          uint32
	SequenceNumber      uint32
	ObservationDomainID uint32
}

// DecodeMessageHeader reads and validates a message header at the
// transcoder's current position, advancing past it on success. The
// cursor is left unchanged if the header is truncated or the version
// field is not 10.
func (t *Transcoder) DecodeMessageHeader() (MessageHeader, error) {
	t.Checkpoint()

	version, ok := t.DecodeUint(2)
	if !ok {
		t.Rollback()
		return MessageHeader{}, truncatedError(MessageHeaderLength, t.Avail())
	}
	if uint16(version) != ProtocolVersion {
		t.Rollback()
		return MessageHeader{}, versionMismatchError(uint16(version))
	}

	length, ok1 := t.DecodeUint(2)
	exportTime, ok2 := t.DecodeUint(4)
	seq, ok3 := t.DecodeUint(4)
	domain, ok4 := t.DecodeUint(4)
	if !(ok1 && ok2 && ok3 && ok4) {
		t.Rollback()
		return MessageHeader{}, truncatedError(MessageHeaderLength, t.Avail())
	}

	return MessageHeader{
		Version:             uint16(version),
		Length:              uint16(length),
		ExportTime:          uint32(exportTime),
		SequenceNumber:      uint32(seq),
		ObservationDomainID: uint32(domain),
	}, nil
}

// EncodeMessageHeader writes h at the transcoder's current position.
func (t *Transcoder) EncodeMessageHeader(h MessageHeader) bool {
	t.Checkpoint()
	ok := t.EncodeUint(uint64(h.Version), 2) &&
		t.EncodeUint(uint64(h.Length), 2) &&
		t.EncodeUint(uint64(h.ExportTime), 4) &&
		t.EncodeUint(uint64(h.SequenceNumber), 4) &&
		t.EncodeUint(uint64(h.ObservationDomainID), 4)
	if !ok {
		t.Rollback()
	}
	return ok
}

// SetHeader is the fixed 4-octet header preceding every set's records
// (RFC 7011 section 3.3.2).
type SetHeader struct {
	ID     uint16
	Length uint16
}

// IsTemplateSet reports whether the set carries template records.
func (h SetHeader) IsTemplateSet() bool { return h.ID == TemplateSetID }

// IsOptionsTemplateSet reports whether the set carries options template
// records.
func (h SetHeader) IsOptionsTemplateSet() bool { return h.ID == OptionsTemplateSetID }

// IsDataSet reports whether the set carries data records governed by the
// template named by h.ID.
func (h SetHeader) IsDataSet() bool { return h.ID >= MinTemplateID }

// DecodeSetHeader reads a set header at the cursor, advancing past it.
func (t *Transcoder) DecodeSetHeader() (SetHeader, error) {
	t.Checkpoint()
	id, ok1 := t.DecodeUint(2)
	length, ok2 := t.DecodeUint(2)
	if !(ok1 && ok2) {
		t.Rollback()
		return SetHeader{}, truncatedError(SetHeaderLength, t.Avail())
	}
	if length < SetHeaderLength {
		t.Rollback()
		return SetHeader{}, malformedSetError(uint16(id), "set length shorter than set header")
	}
	return SetHeader{ID: uint16(id), Length: uint16(length)}, nil
}

// EncodeSetHeader writes h at the cursor.
func (t *Transcoder) EncodeSetHeader(h SetHeader) bool {
	t.Checkpoint()
	ok := t.EncodeUint(uint64(h.ID), 2) && t.EncodeUint(uint64(h.Length), 2)
	if !ok {
		t.Rollback()
	}
	return ok
}

// SetListEntry locates one set within a decoded message buffer, produced
// by walking the message's set list without yet decoding its records.
type SetListEntry struct {
	Header SetHeader
	// Offset is the byte offset, from the start of the message buffer,
	// of the set's first record (i.e., immediately after its header).
	Offset int
}

// WalkSets decodes the set header chain of a message body (the buffer
// positioned just past the message header, bounded to h.Length-16 octets)
// and returns one entry per set, without decoding any record contents. A
// malformed set header aborts the walk with the sets successfully parsed
// so far, since a caller may still usefully process those.
func WalkSets(t *Transcoder, bodyLen int) ([]SetListEntry, error) {
	if !t.Focus(bodyLen) {
		return nil, truncatedError(bodyLen, t.Avail())
	}
	defer t.Defocus()

	var entries []SetListEntry
	for t.Avail() > 0 {
		if t.Avail() < SetHeaderLength {
			return entries, malformedSetError(0, "trailing octets too short for a set header")
		}
		hdr, err := t.DecodeSetHeader()
		if err != nil {
			return entries, err
		}
		recordLen := int(hdr.Length) - SetHeaderLength
		entry := SetListEntry{Header: hdr, Offset: t.Pos()}
		if recordLen < 0 || !t.Advance(recordLen) {
			return entries, malformedSetError(hdr.ID, "set length exceeds remaining message body")
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
