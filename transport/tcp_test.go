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

package transport

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"

	"github.com/flowstream/ipfix"
)

func encodeTestHeader(t *testing.T, length uint16) []byte {
	t.Helper()
	buf := make([]byte, ipfix.MessageHeaderLength)
	tc := ipfix.NewTranscoder(buf)
	if !tc.EncodeMessageHeader(ipfix.MessageHeader{Version: ipfix.ProtocolVersion, Length: length}) {
		t.Fatal("EncodeMessageHeader failed")
	}
	return buf
}

func TestTCPInputSourceDeframesConsecutiveMessages(t *testing.T) {
	t.Parallel()
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	msg1 := append(encodeTestHeader(t, ipfix.MessageHeaderLength+2), []byte{0xAA, 0xBB}...)
	msg2 := append(encodeTestHeader(t, ipfix.MessageHeaderLength+1), []byte{0xCC}...)

	go func() {
		client.Write(msg1)
		client.Write(msg2)
	}()

	src := NewTCPInputSource(server)
	dst := make([]byte, ipfix.MaxMessageLength)

	n, err := src.Read(context.Background(), dst)
	if err != nil {
		t.Fatalf("Read(1): %v", err)
	}
	if !bytes.Equal(dst[:n], msg1) {
		t.Fatalf("Read(1) = % X, want % X", dst[:n], msg1)
	}

	n, err = src.Read(context.Background(), dst)
	if err != nil {
		t.Fatalf("Read(2): %v", err)
	}
	if !bytes.Equal(dst[:n], msg2) {
		t.Fatalf("Read(2) = % X, want % X", dst[:n], msg2)
	}
}

func TestTCPInputSourceCannotPeekOrResync(t *testing.T) {
	t.Parallel()
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	src := NewTCPInputSource(server)
	if src.CanPeek() {
		t.Error("TCPInputSource must not claim peek support")
	}
	if !src.IsMessageOriented() {
		t.Error("TCPInputSource deframes to whole messages, so IsMessageOriented must be true")
	}
	if err := src.Resync(context.Background()); err == nil {
		t.Error("expected Resync to fail for a stream transport")
	}
}

func TestTCPExportDestinationWritesConcatenatedBuffers(t *testing.T) {
	t.Parallel()
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	dest := NewTCPExportDestination(client)
	buffers := [][]byte{{0x01, 0x02}, {0x03, 0x04, 0x05}}

	done := make(chan error, 1)
	go func() { done <- dest.WriteV(context.Background(), buffers) }()

	got := make([]byte, 5)
	if _, err := io.ReadFull(server, got); err != nil {
		t.Fatalf("server read: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("WriteV: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x03, 0x04, 0x05}) {
		t.Fatalf("got = % X, want 01 02 03 04 05", got)
	}
	if dest.IsConnectionless() {
		t.Error("TCP is connection-oriented")
	}
	if dest.PreferredMaxMessageSize() != ipfix.MaxMessageLength {
		t.Errorf("PreferredMaxMessageSize() = %d, want %d", dest.PreferredMaxMessageSize(), ipfix.MaxMessageLength)
	}
}
