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

import "context"

// ParseMessage decodes one complete IPFIX message from buf into the
// events handler receives, using session to resolve and maintain
// template state. buf must contain exactly one message (callers reading
// from a stream transport are responsible for finding message
// boundaries first, e.g. via the message header's Length field).
//
// Errors surfaced during the set walk are routed through
// handler.HandleError before Parse applies severity-based control flow:
// a recoverable error skips the remainder of the current set and
// continues with the next one; a fatal error (or a non-nil return from
// HandleError itself) aborts the message and is returned to the caller.
func ParseMessage(ctx context.Context, session *Session, handler ContentHandler, buf []byte) error {
	t := NewTranscoder(buf)

	header, err := t.DecodeMessageHeader()
	if err != nil {
		return reportAndClassify(handler, err)
	}

	if seqErr := session.ObserveSequence(header.ObservationDomainID, header.SequenceNumber); seqErr != nil {
		if err := reportAndClassify(handler, seqErr); err != nil {
			return err
		}
		// SequenceGap is always recoverable: keep decoding this message.
	}

	if err := handler.StartMessage(header); err != nil {
		return err
	}

	bodyLen := int(header.Length) - MessageHeaderLength
	entries, walkErr := WalkSets(t, bodyLen)
	for _, entry := range entries {
		if err := parseSet(ctx, session, handler, t, header, entry); err != nil {
			return err
		}
	}
	if walkErr != nil {
		if err := reportAndClassify(handler, walkErr); err != nil {
			return err
		}
	}

	return handler.EndMessage(header)
}

func parseSet(ctx context.Context, session *Session, handler ContentHandler, t *Transcoder, header MessageHeader, entry SetListEntry) error {
	recordLen := int(entry.Header.Length) - SetHeaderLength
	t.Seek(entry.Offset)
	if !t.Focus(recordLen) {
		return reportAndClassify(handler, truncatedError(recordLen, t.Avail()))
	}
	defer t.Defocus()

	switch {
	case entry.Header.IsTemplateSet():
		return parseTemplateSet(ctx, session, handler, t, header.ObservationDomainID, entry.Header)
	case entry.Header.IsOptionsTemplateSet():
		return parseOptionsTemplateSet(ctx, session, handler, t, header.ObservationDomainID, entry.Header)
	case entry.Header.IsDataSet():
		return parseDataSet(ctx, session, handler, t, header.ObservationDomainID, entry.Header)
	default:
		return reportAndClassify(handler, malformedSetError(entry.Header.ID, "set ID is reserved but not a known set type"))
	}
}

func parseTemplateSet(ctx context.Context, session *Session, handler ContentHandler, t *Transcoder, domain uint32, setHdr SetHeader) error {
	if err := handler.StartTemplateSet(setHdr); err != nil {
		return err
	}
	for t.Avail() > 0 {
		tmpl, err := DecodeTemplateRecord(t, domain, session.Catalog())
		if err != nil {
			return reportAndClassify(handler, err)
		}
		if len(tmpl.Fields) == 0 {
			if err := session.WithdrawTemplate(ctx, tmpl.Key); err != nil {
				return err
			}
			if err := handler.TemplateWithdrawn(tmpl.Key); err != nil {
				return err
			}
			continue
		}
		if err := session.DefineTemplate(ctx, tmpl); err != nil {
			return err
		}
		if err := handler.TemplateRecord(tmpl); err != nil {
			return err
		}
	}
	return handler.EndTemplateSet(setHdr)
}

func parseOptionsTemplateSet(ctx context.Context, session *Session, handler ContentHandler, t *Transcoder, domain uint32, setHdr SetHeader) error {
	if err := handler.StartTemplateSet(setHdr); err != nil {
		return err
	}
	for t.Avail() > 0 {
		tmpl, err := DecodeOptionsTemplateRecord(t, domain, session.Catalog())
		if err != nil {
			return reportAndClassify(handler, err)
		}
		if len(tmpl.Fields) == 0 {
			if err := session.WithdrawTemplate(ctx, tmpl.Key); err != nil {
				return err
			}
			if err := handler.TemplateWithdrawn(tmpl.Key); err != nil {
				return err
			}
			continue
		}
		if err := session.DefineTemplate(ctx, tmpl); err != nil {
			return err
		}
		if err := handler.TemplateRecord(tmpl); err != nil {
			return err
		}
	}
	return handler.EndTemplateSet(setHdr)
}

func parseDataSet(ctx context.Context, session *Session, handler ContentHandler, t *Transcoder, domain uint32, setHdr SetHeader) error {
	tmpl, err := session.LookupTemplate(ctx, TemplateKey{ObservationDomainID: domain, TemplateID: setHdr.ID})
	if err != nil {
		return reportAndClassify(handler, err)
	}

	if err := handler.StartDataSet(setHdr, tmpl); err != nil {
		return err
	}

	collector, hasCollector := handler.(*PlacementCollector)

	for t.Avail() > 0 {
		if t.Avail() < tmpl.MinRecordLength() {
			break // trailing padding, not a full record
		}
		offset := t.Pos()
		if hasCollector && collector.hasSelection(tmpl.Key) {
			if err := collector.dataRecord(t, tmpl); err != nil {
				return reportAndClassify(handler, err)
			}
		} else if !skipRecord(t, tmpl) {
			return reportAndClassify(handler, truncatedError(tmpl.MinRecordLength(), t.Avail()))
		}
		if err := handler.DataRecord(tmpl, offset); err != nil {
			return err
		}
	}

	return handler.EndDataSet(setHdr)
}

// skipRecord advances the cursor past one data record governed by tmpl
// without decoding any field, for callers with no placement bound to the
// template (e.g., a handler only interested in template traffic).
func skipRecord(t *Transcoder, tmpl *WireTemplate) bool {
	for _, fs := range tmpl.Fields {
		if fs.WireLen == VarLen {
			if _, ok := t.DecodeVarlen(); !ok {
				return false
			}
			continue
		}
		if !t.Advance(int(fs.WireLen)) {
			return false
		}
	}
	return true
}

// reportAndClassify routes err through handler.HandleError and applies
// severity-based control flow: nil return continues per err's own
// Severity (recoverable errors are swallowed here, since the set-level
// loop that called this already stops advancing on its own), anything
// else aborts the message.
func reportAndClassify(handler ContentHandler, err error) error {
	if handlerErr := handler.HandleError(err); handlerErr != nil {
		return handlerErr
	}
	if ipfixErr, ok := err.(*Error); ok && ipfixErr.Severity != SeverityFatal {
		return nil
	}
	return err
}
