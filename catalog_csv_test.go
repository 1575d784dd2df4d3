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
	"strings"
	"testing"
)

func TestReadIANACSV(t *testing.T) {
	t.Parallel()
	doc := "id,name,dataType,semantics,status,units\n" +
		"1,octetDeltaCount,unsigned64,deltaCounter,current,octets\n" +
		"4,protocolIdentifier,unsigned8,identifier,current,none\n"

	ies, err := ReadIANACSV(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadIANACSV: %v", err)
	}
	if len(ies) != 2 {
		t.Fatalf("len(ies) = %d, want 2", len(ies))
	}
	if ies[0].Number != 1 || ies[0].Name != "octetDeltaCount" || ies[0].Type != Unsigned64 {
		t.Errorf("ies[0] = %+v, want octetDeltaCount/1/Unsigned64", ies[0])
	}
	if ies[1].Number != 4 || ies[1].Type != Unsigned8 {
		t.Errorf("ies[1] = %+v, want protocolIdentifier/4/Unsigned8", ies[1])
	}
}

func TestReadIANACSVRejectsUnknownType(t *testing.T) {
	t.Parallel()
	doc := "id,name,dataType,semantics,status,units\n" +
		"1,bogus,notARealType,,,\n"
	if _, err := ReadIANACSV(strings.NewReader(doc)); err == nil {
		t.Fatal("expected ReadIANACSV to reject an unrecognized data type")
	}
}

func TestReadIANACSVRejectsShortRow(t *testing.T) {
	t.Parallel()
	doc := "id,name,dataType,semantics,status,units\n" +
		"1,tooShort,unsigned8\n"
	if _, err := ReadIANACSV(strings.NewReader(doc)); err == nil {
		t.Fatal("expected ReadIANACSV to reject a row with fewer than 6 columns")
	}
}

func TestMustReadIANARegistryBootstrapsFromEmbeddedCSV(t *testing.T) {
	t.Parallel()
	ies := mustReadIANARegistry()
	if len(ies) == 0 {
		t.Fatal("expected the embedded registry to yield at least one IE")
	}
	found := false
	for _, ie := range ies {
		if ie.Number == 1 && ie.Name == "octetDeltaCount" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected the embedded registry to include octetDeltaCount (IE 1)")
	}
}
