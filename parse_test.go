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
	"testing"
)

func encodeTemplateRecordBytes(t *testing.T, tmpl *WireTemplate) []byte {
	t.Helper()
	buf := make([]byte, 256)
	tc := NewTranscoder(buf)
	if !EncodeTemplateRecord(tc, tmpl) {
		t.Fatalf("EncodeTemplateRecord failed for %v", tmpl.Key)
	}
	return buf[:tc.Pos()]
}

func wrapSet(t *testing.T, id uint16, payload []byte) []byte {
	t.Helper()
	hdr := make([]byte, SetHeaderLength)
	tc := NewTranscoder(hdr)
	if !tc.EncodeSetHeader(SetHeader{ID: id, Length: uint16(SetHeaderLength + len(payload))}) {
		t.Fatalf("EncodeSetHeader failed for set %d", id)
	}
	return append(hdr, payload...)
}

func buildMessage(t *testing.T, domain, seq, exportTime uint32, sets ...[]byte) []byte {
	t.Helper()
	var body []byte
	for _, s := range sets {
		body = append(body, s...)
	}
	hdr := make([]byte, MessageHeaderLength)
	tc := NewTranscoder(hdr)
	if !tc.EncodeMessageHeader(MessageHeader{
		Version:             ProtocolVersion,
		Length:              uint16(MessageHeaderLength + len(body)),
		ExportTime:          exportTime,
		SequenceNumber:      seq,
		ObservationDomainID: domain,
	}) {
		t.Fatalf("EncodeMessageHeader failed")
	}
	return append(hdr, body...)
}

// TestParseMessageTemplateWithdrawalAndRedefinition exercises S5: a
// template set defining TID=256 with [A,B], a one-record data set, a
// template set redefining TID=256 with [A,B,C], and a second one-record
// data set, all within a single message. Both records must be delivered
// to a placement registered for [A,B] (a subset of both definitions),
// and the plan compiled for the first definition must not be reused for
// the second.
func TestParseMessageTemplateWithdrawalAndRedefinition(t *testing.T) {
	catalog := NewCatalog()
	ieA := &InformationElement{Name: "A", Number: 9001, Type: Unsigned8}
	ieB := &InformationElement{Name: "B", Number: 9002, Type: Unsigned8}
	ieC := &InformationElement{Name: "C", Number: 9003, Type: Unsigned8}
	catalog.Register(ieA)
	catalog.Register(ieB)
	catalog.Register(ieC)

	session := NewSession("conn").WithCatalog(catalog)
	collector := NewPlacementCollector(session)

	pt := NewPlacementTemplate()
	var a, b uint64
	pt.Bind(ieA, &a)
	pt.Bind(ieB, &b)

	var records [][2]uint64
	collector.RegisterPlacement(pt, func(*PlacementTemplate) error {
		records = append(records, [2]uint64{a, b})
		return nil
	})

	key := TemplateKey{TemplateID: 256}

	wireAB := NewWireTemplate(key)
	wireAB.Append(ieA, 1)
	wireAB.Append(ieB, 1)
	wireAB.Activate()

	wireABC := NewWireTemplate(key)
	wireABC.Append(ieA, 1)
	wireABC.Append(ieB, 1)
	wireABC.Append(ieC, 1)
	wireABC.Activate()

	templateSet1 := wrapSet(t, TemplateSetID, encodeTemplateRecordBytes(t, wireAB))
	dataSet1 := wrapSet(t, 256, []byte{0x11, 0x22})
	templateSet2 := wrapSet(t, TemplateSetID, encodeTemplateRecordBytes(t, wireABC))
	dataSet2 := wrapSet(t, 256, []byte{0x33, 0x44, 0x55})

	msg := buildMessage(t, 0, 0, 0x5F000000, templateSet1, dataSet1, templateSet2, dataSet2)

	if err := ParseMessage(context.Background(), session, collector, msg); err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0] != [2]uint64{0x11, 0x22} {
		t.Errorf("records[0] = %v, want [0x11 0x22]", records[0])
	}
	if records[1] != [2]uint64{0x33, 0x44} {
		t.Errorf("records[1] = %v, want [0x33 0x44]", records[1])
	}
}

func TestParseMessageUnknownTemplateIsRecoverable(t *testing.T) {
	session := NewSession("conn")
	handler := &recordingHandler{}

	dataSet := wrapSet(t, 256, []byte{0xAA})
	msg := buildMessage(t, 0, 0, 0, dataSet)

	if err := ParseMessage(context.Background(), session, handler, msg); err != nil {
		t.Fatalf("expected UnknownTemplate to be recoverable, got fatal error: %v", err)
	}
	if len(handler.errors) != 1 {
		t.Fatalf("handler observed %d errors, want 1", len(handler.errors))
	}
	if ipfixErr, ok := handler.errors[0].(*Error); !ok || ipfixErr.Kind != ErrUnknownTemplate {
		t.Fatalf("expected ErrUnknownTemplate, got %v", handler.errors[0])
	}
	if !handler.endMessageCalled {
		t.Error("expected EndMessage to still be called after a recoverable error")
	}
}

func TestParseMessageVersionMismatchIsRecoverable(t *testing.T) {
	session := NewSession("conn")
	handler := &recordingHandler{}

	buf := make([]byte, MessageHeaderLength)
	tc := NewTranscoder(buf)
	tc.EncodeMessageHeader(MessageHeader{Version: 9, Length: MessageHeaderLength})

	err := ParseMessage(context.Background(), session, handler, buf)
	if err != nil {
		t.Fatalf("expected a recoverable VersionMismatch to reach the handler, not be returned: %v", err)
	}
	if len(handler.errors) != 1 {
		t.Fatalf("handler observed %d errors, want 1", len(handler.errors))
	}
	if ipfixErr, ok := handler.errors[0].(*Error); !ok || ipfixErr.Kind != ErrVersionMismatch {
		t.Fatalf("expected ErrVersionMismatch, got %v", handler.errors[0])
	}
	if handler.endMessageCalled {
		t.Error("EndMessage must not be called when the header itself is invalid")
	}
}

// recordingHandler is a minimal ContentHandler that records errors and
// whether EndMessage was reached, for asserting severity-driven control
// flow without a full PlacementCollector.
type recordingHandler struct {
	NopContentHandler
	errors           []error
	endMessageCalled bool
}

func (h *recordingHandler) HandleError(err error) error {
	h.errors = append(h.errors, err)
	return nil
}

func (h *recordingHandler) EndMessage(MessageHeader) error {
	h.endMessageCalled = true
	return nil
}
