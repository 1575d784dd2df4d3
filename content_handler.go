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

// ContentHandler receives a sequence of parse events as Parse walks a
// message, in the manner of a SAX XML handler: it is never handed the
// whole message at once, and its callbacks drive whatever the caller
// wants to do with each piece (route to a PlacementCollector, log it,
// forward it unmodified).
//
// Every method may return an error; a nil error continues the walk. A
// non-nil error's effect depends on the event and on Error.Severity: a
// recoverable error from a record- or set-scoped callback causes Parse to
// skip to the next set, while a fatal error unwinds the whole message.
type ContentHandler interface {
	// StartMessage is called once per message, after the header has
	// been validated and sequence-checked.
	StartMessage(header MessageHeader) error
	// EndMessage is called once per message, after every set has been
	// processed (successfully or by being skipped).
	EndMessage(header MessageHeader) error

	// StartTemplateSet/EndTemplateSet bracket a template set's records.
	StartTemplateSet(header SetHeader) error
	EndTemplateSet(header SetHeader) error
	// TemplateRecord is called once per template record decoded from a
	// template or options template set, after it has been defined in
	// the session.
	TemplateRecord(tmpl *WireTemplate) error
	// TemplateWithdrawn is called when a zero-field template record
	// withdraws a previously active template.
	TemplateWithdrawn(key TemplateKey) error

	// StartDataSet/EndDataSet bracket a data set's records.
	StartDataSet(header SetHeader, tmpl *WireTemplate) error
	EndDataSet(header SetHeader) error
	// DataRecord is called once per data record, after any bound
	// PlacementTemplate has been filled via its compiled Plan. offset is
	// the record's byte offset within the current message, for
	// diagnostics.
	DataRecord(tmpl *WireTemplate, offset int) error

	// HandleError is called for any error surfaced during the walk,
	// before Parse applies the recoverable/fatal control flow the
	// error's Severity implies. Returning a non-nil error from
	// HandleError itself always aborts the message, regardless of the
	// original error's severity; returning nil defers to that severity.
	HandleError(err error) error
}

// NopContentHandler implements ContentHandler with every method a no-op
// that returns nil, for embedding in handlers that only care about a
// subset of events.
type NopContentHandler struct{}

func (NopContentHandler) StartMessage(MessageHeader) error           { return nil }
func (NopContentHandler) EndMessage(MessageHeader) error             { return nil }
func (NopContentHandler) StartTemplateSet(SetHeader) error           { return nil }
func (NopContentHandler) EndTemplateSet(SetHeader) error             { return nil }
func (NopContentHandler) TemplateRecord(*WireTemplate) error         { return nil }
func (NopContentHandler) TemplateWithdrawn(TemplateKey) error        { return nil }
func (NopContentHandler) StartDataSet(SetHeader, *WireTemplate) error { return nil }
func (NopContentHandler) EndDataSet(SetHeader) error                 { return nil }
func (NopContentHandler) DataRecord(*WireTemplate, int) error        { return nil }
func (NopContentHandler) HandleError(err error) error                { return nil }
