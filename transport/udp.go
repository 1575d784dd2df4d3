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
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/flowstream/ipfix"
	"golang.org/x/sys/unix"
)

// UDPPacketBufferSize bounds how large a single UDP datagram this package
// reads. RFC 7011 section 10.3 leaves datagram sizing to path MTU
// considerations; 1500 matches common Ethernet MTU minus headers, the
// same conservative default yaf-derived exporters use. Raise it if your
// exporters are known not to fragment at a larger size.
var UDPPacketBufferSize = 1500

// UDPInputSource reads one complete IPFIX message per underlying UDP
// datagram: for UDP, one packet is one message by construction, so no
// deframing beyond the header's version check is required.
type UDPInputSource struct {
	conn net.PacketConn
}

// NewUDPInputSource wraps a net.PacketConn (already bound and listening)
// as an InputSource.
func NewUDPInputSource(conn net.PacketConn) *UDPInputSource {
	return &UDPInputSource{conn: conn}
}

var _ ipfix.InputSource = (*UDPInputSource)(nil)

func (s *UDPInputSource) Read(ctx context.Context, dst []byte) (int, error) {
	n, _, err := s.conn.ReadFrom(dst)
	if err != nil {
		ipfix.UDPErrorsTotal.Inc()
		return 0, err
	}
	ipfix.UDPPacketsTotal.Inc()
	ipfix.UDPPacketBytes.Add(float64(n))
	return n, nil
}

func (s *UDPInputSource) CanPeek() bool           { return true }
func (s *UDPInputSource) IsMessageOriented() bool { return true }

// Resync is a no-op for UDP: a malformed datagram is simply discarded,
// and the next Read call naturally starts at the next datagram boundary.
func (s *UDPInputSource) Resync(ctx context.Context) error {
	return nil
}

// ListenUDP binds a UDP socket at bindAddr with SO_REUSEADDR and
// SO_REUSEPORT set (so multiple collector replicas can load-balance
// datagrams across the same port), returning an InputSource over it.
func ListenUDP(ctx context.Context, bindAddr string) (*UDPInputSource, error) {
	addr, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return nil, err
	}

	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			ctrlErr := c.Control(func(fd uintptr) {
				if sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); sockErr != nil {
					return
				}
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if ctrlErr != nil {
				return ctrlErr
			}
			return sockErr
		},
	}

	conn, err := lc.ListenPacket(ctx, "udp", addr.String())
	if err != nil {
		return nil, err
	}
	return NewUDPInputSource(conn), nil
}

// UDPExportDestination writes each assembled message as a single
// datagram to a fixed remote address.
type UDPExportDestination struct {
	conn net.Conn
	mtu  int
}

// NewUDPExportDestination wraps a connected UDP socket (net.DialUDP),
// capping assembled messages at mtu octets.
func NewUDPExportDestination(conn net.Conn, mtu int) *UDPExportDestination {
	if mtu <= 0 {
		mtu = UDPPacketBufferSize
	}
	return &UDPExportDestination{conn: conn, mtu: mtu}
}

var _ ipfix.ExportDestination = (*UDPExportDestination)(nil)

func (d *UDPExportDestination) WriteV(ctx context.Context, buffers [][]byte) error {
	total := 0
	for _, b := range buffers {
		total += len(b)
	}
	msg := make([]byte, 0, total)
	for _, b := range buffers {
		msg = append(msg, b...)
	}
	n, err := d.conn.Write(msg)
	if err != nil {
		return err
	}
	if n != len(msg) {
		return errors.New("udp export destination: short write")
	}
	return nil
}

func (d *UDPExportDestination) PreferredMaxMessageSize() int { return d.mtu }
func (d *UDPExportDestination) IsConnectionless() bool       { return true }
