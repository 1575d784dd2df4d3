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
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/flowstream/ipfix/iana/units"
)

//go:embed hack/ipfix-information-elements.csv
var ianaRegistryCSV embed.FS

// ReadIANACSV parses the IANA-assigned IPFIX information element registry
// in the column layout: id,name,dataType,semantics,status,units. It is the
// bootstrap source for the default Catalog; enterprise IEs are layered on
// top via ReadCatalogYAML or Catalog.Register.
func ReadIANACSV(r io.Reader) ([]*InformationElement, error) {
	cr := csv.NewReader(r)
	if _, err := cr.Read(); err != nil { // header
		return nil, fmt.Errorf("read IANA registry header: %w", err)
	}

	var ies []*InformationElement
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read IANA registry row: %w", err)
		}
		if len(record) < 6 {
			return nil, fmt.Errorf("malformed IANA registry row: %v", record)
		}

		id, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("parse element id %q: %w", record[0], err)
		}

		typ, ok := ParseIEType(record[2])
		if !ok {
			return nil, fmt.Errorf("unknown data type %q for IE %d (%s)", record[2], id, record[1])
		}

		ie := &InformationElement{
			Number: uint16(id),
			Name:   record[1],
			Type:   typ,
			Units:  units.Parse(record[5]),
		}
		if record[3] != "" {
			_ = ie.Semantics.UnmarshalText([]byte(record[3]))
		}
		if record[4] != "" {
			_ = ie.Status.UnmarshalText([]byte(record[4]))
		}
		ies = append(ies, ie)
	}
	return ies, nil
}

func mustReadIANARegistry() []*InformationElement {
	f, err := ianaRegistryCSV.Open("hack/ipfix-information-elements.csv")
	if err != nil {
		panic(fmt.Errorf("open embedded IANA registry: %w", err))
	}
	defer f.Close()

	ies, err := ReadIANACSV(f)
	if err != nil {
		panic(fmt.Errorf("parse embedded IANA registry: %w", err))
	}
	return ies
}
