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
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// catalogExport is the document shape read and written by ReadCatalogYAML
// and WriteCatalogYAML, enterprise IE sets alongside some export metadata.
type catalogExport struct {
	Name            string                 `yaml:"name"`
	ExportTimestamp time.Time              `yaml:"exportTimestamp"`
	Elements        []*InformationElement  `yaml:"elements"`
}

// MustReadCatalogYAML is ReadCatalogYAML, panicking on error. Intended for
// package or process init where a malformed enterprise catalog file is a
// deployment error, not a runtime condition to recover from.
func MustReadCatalogYAML(r io.Reader) []*InformationElement {
	ies, err := ReadCatalogYAML(r)
	if err != nil {
		panic(err)
	}
	return ies
}

// ReadCatalogYAML parses a YAML document describing an enterprise
// information element set, as produced by WriteCatalogYAML. The returned
// IEs are typically fed to Catalog.Register or NewIANACatalog.
func ReadCatalogYAML(r io.Reader) ([]*InformationElement, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc catalogExport
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Elements, nil
}

// MustWriteCatalogYAML is WriteCatalogYAML, panicking on error.
func MustWriteCatalogYAML(w io.Writer, name string, ies []*InformationElement) {
	if err := WriteCatalogYAML(w, name, ies); err != nil {
		panic(err)
	}
}

// WriteCatalogYAML serializes an enterprise information element set, for
// distribution alongside an exporter or collector deployment.
func WriteCatalogYAML(w io.Writer, name string, ies []*InformationElement) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()

	return enc.Encode(catalogExport{
		Name:            name,
		ExportTimestamp: time.Now(),
		Elements:        ies,
	})
}
