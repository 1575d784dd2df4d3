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

// Package transport provides reference InputSource and ExportDestination
// implementations over TCP and UDP, the two transports RFC 7011 section
// 10 requires collectors to support.
package transport

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/flowstream/ipfix"
)

// TCPChannelBufferSize is not read by this package: TCPInputSource has no
// internal channel and deframes one message per Read call.
var TCPChannelBufferSize = 10

// TCPListener accepts connections on a single address and deframes each
// one's message stream (RFC 7011's single long-lived TCP session) into
// complete message buffers, delivered as one InputSource per connection
// to onConnection.
type TCPListener struct {
	bindAddr string

	addr     *net.TCPAddr
	listener *net.TCPListener
}

// NewTCPListener constructs a listener bound to bindAddr; call Listen to
// start accepting.
func NewTCPListener(bindAddr string) *TCPListener {
	return &TCPListener{bindAddr: bindAddr}
}

// Listen accepts connections until ctx is done, invoking onConnection
// once per accepted connection with an InputSource that deframes that
// connection's message stream. onConnection is responsible for reading
// messages from the source (e.g., via ipfix.ParseMessage in a loop) and
// should return when the source is exhausted.
func (l *TCPListener) Listen(ctx context.Context, onConnection func(context.Context, *TCPInputSource)) error {
	logger := ipfix.FromContext(ctx)

	addr, err := net.ResolveTCPAddr("tcp", l.bindAddr)
	if err != nil {
		return err
	}
	l.addr = addr

	ln, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return err
	}
	l.listener = ln
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	logger.Info("started TCP listener", "addr", l.bindAddr)
	for {
		conn, err := ln.AcceptTCP()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Info("shutting down TCP listener", "addr", l.bindAddr)
				return nil
			}
			ipfix.TCPErrorsTotal.Inc()
			return err
		}
		ipfix.TCPActiveConnections.Inc()
		go func(conn net.Conn) {
			defer ipfix.TCPActiveConnections.Dec()
			defer conn.Close()
			onConnection(ctx, NewTCPInputSource(conn))
		}(conn)
	}
}

// TCPInputSource deframes one TCP connection's byte stream into complete
// IPFIX messages, using the message header's length field the way a
// single long-lived session requires (RFC 7011 section 10.2). It does
// not support CanPeek or Resync: a stream has no notion of rewinding, and
// a malformed length leaves the remainder of the stream unrecoverable,
// so a caller observing an error from Read should close the connection.
type TCPInputSource struct {
	reader io.Reader

	buf    bytes.Buffer
	have   int
	length int
}

// NewTCPInputSource wraps a net.Conn (or any io.Reader) as an
// InputSource that yields one complete message per Read call.
func NewTCPInputSource(r io.Reader) *TCPInputSource {
	return &TCPInputSource{reader: r}
}

var _ ipfix.InputSource = (*TCPInputSource)(nil)

// Read blocks until one complete IPFIX message has been read from the
// underlying stream, then copies it into dst and returns its length. dst
// must be at least as large as the message (ipfix.MaxMessageLength is
// always sufficient).
func (s *TCPInputSource) Read(ctx context.Context, dst []byte) (int, error) {
	if s.length == 0 {
		if err := s.readHeader(); err != nil {
			return 0, err
		}
	}
	if err := s.readBody(); err != nil {
		return 0, err
	}

	n := copy(dst, s.buf.Bytes())
	ipfix.TCPReceivedBytes.Add(float64(n))
	s.buf.Reset()
	s.have = 0
	s.length = 0
	return n, nil
}

func (s *TCPInputSource) readHeader() error {
	need := ipfix.MessageHeaderLength - s.have
	b := make([]byte, need)
	n, err := io.ReadFull(s.reader, b)
	if err != nil {
		return fmt.Errorf("tcp input source: reading message header: %w", err)
	}
	s.buf.Write(b[:n])
	s.have += n
	s.length = int(binary.BigEndian.Uint16(s.buf.Bytes()[2:4]))
	return nil
}

func (s *TCPInputSource) readBody() error {
	remaining := s.length - s.have
	if remaining <= 0 {
		return nil
	}
	b := make([]byte, remaining)
	n, err := io.ReadFull(s.reader, b)
	if err != nil {
		return fmt.Errorf("tcp input source: reading message body: %w", err)
	}
	s.buf.Write(b[:n])
	s.have += n
	return nil
}

func (s *TCPInputSource) CanPeek() bool          { return false }
func (s *TCPInputSource) IsMessageOriented() bool { return true }

func (s *TCPInputSource) Resync(ctx context.Context) error {
	return fmt.Errorf("tcp input source: cannot resync a stream transport, close the connection instead")
}

// TCPExportDestination writes assembled messages to a single TCP
// connection, the long-lived session model RFC 7011 section 10.2
// prescribes for exporters using TCP.
type TCPExportDestination struct {
	conn net.Conn
}

// NewTCPExportDestination wraps an established TCP connection.
func NewTCPExportDestination(conn net.Conn) *TCPExportDestination {
	return &TCPExportDestination{conn: conn}
}

var _ ipfix.ExportDestination = (*TCPExportDestination)(nil)

func (d *TCPExportDestination) WriteV(ctx context.Context, buffers [][]byte) error {
	nb := net.Buffers(buffers)
	_, err := nb.WriteTo(d.conn)
	return err
}

func (d *TCPExportDestination) PreferredMaxMessageSize() int { return ipfix.MaxMessageLength }
func (d *TCPExportDestination) IsConnectionless() bool       { return false }
