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

package ipfix_test

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"github.com/flowstream/ipfix"
	"github.com/flowstream/ipfix/transport"
)

// Decode a file of concatenated IPFIX messages. TCPInputSource's framing
// only needs an io.Reader, so it deframes a plain file the same way it
// deframes a live connection.
func Example_decoder() {
	f, err := os.Open("demo_flow_records.ipfix")
	if err != nil {
		log.Fatalf("failed to open capture: %v", err)
	}
	defer f.Close()

	ctx := context.Background()
	src := transport.NewTCPInputSource(f)

	session := ipfix.NewSession("file-decoder").
		WithCatalog(ipfix.DefaultCatalog()).
		WithTemplateStore(ipfix.NewEphemeralTemplateStore())
	collector := ipfix.NewPlacementCollector(session)

	buf := make([]byte, ipfix.MessageHeaderLength+65535)
	for {
		n, err := src.Read(ctx, buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Fatalf("failed to read message: %v", err)
		}
		if err := ipfix.ParseMessage(ctx, session, collector, buf[:n]); err != nil {
			log.Println("failed to parse IPFIX message:", err)
		}
	}
}
