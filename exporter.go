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
	"context"
	"sync/atomic"
)

// Exporter assembles IPFIX messages for one observation domain and
// flushes them to an ExportDestination. It fills the message header's
// length and sequence number only at Flush time, once the size of the
// assembled message is known, rather than reserving space and patching it
// in place: Go slices make appending cheaper than in-place patching of a
// scattered buffer the way libfc's MBuf does it.
type Exporter struct {
	dest   ExportDestination
	domain uint32
	seq    atomic.Uint32

	plans *PlanCache

	pending  [][]byte
	pendingN int
}

// NewExporter constructs an exporter for domain, writing to dest.
func NewExporter(dest ExportDestination, domain uint32) *Exporter {
	return &Exporter{dest: dest, domain: domain, plans: NewPlanCache()}
}

// ExportTemplate appends tmpl as a template (or options template) record
// to the pending message, in its own set.
func (e *Exporter) ExportTemplate(tmpl *WireTemplate) error {
	size := OptionsTemplateRecordHeaderLength
	for _, fs := range tmpl.Fields {
		if fs.IE.IsEnterprise() {
			size += EnterpriseFieldSpecifierLength
		} else {
			size += FieldSpecifierLength
		}
	}
	buf := make([]byte, size)
	t := NewTranscoder(buf)

	var ok bool
	if tmpl.IsOptions {
		ok = EncodeOptionsTemplateRecord(t, tmpl)
	} else {
		ok = EncodeTemplateRecord(t, tmpl)
	}
	if !ok {
		return encodeBufferFullError(len(buf), 0)
	}

	setID := uint16(TemplateSetID)
	if tmpl.IsOptions {
		setID = OptionsTemplateSetID
	}
	return e.appendSet(setID, t.buf[:t.Pos()])
}

// ExportRecord encodes one data record governed by tmpl via plan and
// appends it to the pending message in a data set of its own, with tmpl's
// template ID. Consecutive records for the same template ID are not
// coalesced into one set.
func (e *Exporter) ExportRecord(tmpl *WireTemplate, plan *Plan) error {
	// RecordLen counts 1 octet per varlen field; a bound varlen field also
	// needs its payload plus up to 2 more prefix octets.
	size := plan.RecordLen
	for _, step := range plan.Steps {
		if step.WireLen < 0 && step.PlacementIdx >= 0 {
			size += plan.Placements[step.PlacementIdx].target.Len() + 2
		}
	}
	buf := make([]byte, size)
	t := NewTranscoder(buf)
	if err := plan.EncodeRecord(t); err != nil {
		return err
	}
	return e.appendSet(tmpl.Key.TemplateID, t.buf[:t.Pos()])
}

// appendSet appends payload as the sole content of one set with the
// given ID. A future revision may coalesce consecutive same-ID calls
// into a single set instead of one set per call; Flush does not depend
// on that and is correct either way.
func (e *Exporter) appendSet(setID uint16, payload []byte) error {
	hdr := make([]byte, SetHeaderLength)
	t := NewTranscoder(hdr)
	if !t.EncodeSetHeader(SetHeader{ID: setID, Length: uint16(SetHeaderLength + len(payload))}) {
		return encodeBufferFullError(SetHeaderLength, 0)
	}
	e.pending = append(e.pending, hdr, payload)
	e.pendingN += len(hdr) + len(payload)
	return nil
}

// PendingSize returns the number of octets the currently pending sets
// would occupy, not counting the message header Flush will prepend.
// Callers assembling a message up to PreferredMaxMessageSize should check
// this before adding another record or template.
func (e *Exporter) PendingSize() int {
	return e.pendingN
}

// Flush assembles the pending sets into one message (prepending a
// message header with a freshly allocated sequence number and the
// current wall-clock export time supplied by caller), writes it to dest,
// and clears the pending buffer.
func (e *Exporter) Flush(ctx context.Context, exportTime uint32) error {
	if e.pendingN == 0 {
		return nil
	}

	hdrBuf := make([]byte, MessageHeaderLength)
	t := NewTranscoder(hdrBuf)
	length := MessageHeaderLength + e.pendingN
	seq := e.seq.Add(1) - 1
	if !t.EncodeMessageHeader(MessageHeader{
		Version:             ProtocolVersion,
		Length:              uint16(length),
		ExportTime:          exportTime,
		SequenceNumber:      seq,
		ObservationDomainID: e.domain,
	}) {
		return encodeBufferFullError(MessageHeaderLength, 0)
	}

	buffers := make([][]byte, 0, len(e.pending)+1)
	buffers = append(buffers, hdrBuf)
	buffers = append(buffers, e.pending...)

	if err := e.dest.WriteV(ctx, buffers); err != nil {
		return err
	}

	e.pending = e.pending[:0]
	e.pendingN = 0
	return nil
}
