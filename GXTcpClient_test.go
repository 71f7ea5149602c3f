//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd || windows

package gxsocket

// --------------------------------------------------------------------------
//
//	Gurux Ltd
//
// Filename:        $HeadURL$
//
// Version:         $Revision$,
//
//	$Date$
//	$Author$
//
// # Copyright (c) Gurux Ltd
//
// ---------------------------------------------------------------------------
//
//	DESCRIPTION
//
// This file is a part of Gurux Device Framework.
//
// Gurux Device Framework is Open Source software; you can redistribute it
// and/or modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2 of the License.
// Gurux Device Framework is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU General Public License for more details.
//
// More information of Gurux products: https://www.gurux.org
//
// This code is licensed under the GNU General Public License v2.
// Full text may be retrieved at http://www.gnu.org/licenses/gpl-2.0.txt
// ---------------------------------------------------------------------------

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"golang.org/x/net/nettest"
	"gotest.tools/v3/assert"
)

func TestTcpClientEcho(t *testing.T) {
	port := startTCPEcho(t, "tcp4", "127.0.0.1:0")
	c, err := NewGXTcpClient("127.0.0.1", port, IPVersionIPv4)
	assert.NilError(t, err)
	defer c.Disconnect()
	assert.NilError(t, c.SetTimeout(ioTimeout))

	assert.Assert(t, c.IsTCP())
	assert.Assert(t, c.IsClient())
	assert.Assert(t, c.IsIPv4())
	assert.Assert(t, c.GetBlocking())
	assert.Equal(t, "127.0.0.1", c.GetHostTo())
	assert.Equal(t, port, c.GetPortTo())
	assert.Equal(t, "127.0.0.1", c.GetHostFrom())
	assert.Assert(t, c.GetPortFrom() != 0)

	assert.NilError(t, c.Send("hello"))
	assert.Equal(t, "hello", string(receiveN(t, c, 5)))

	assert.NilError(t, c.Send([]byte{1, 2, 3}))
	assert.DeepEqual(t, []byte{1, 2, 3}, receiveN(t, c, 3))

	assert.Equal(t, uint64(8), c.GetBytesSent())
	assert.Equal(t, uint64(8), c.GetBytesReceived())
	c.ResetByteCounters()
	assert.Equal(t, uint64(0), c.GetBytesSent())
	assert.Equal(t, uint64(0), c.GetBytesReceived())
}

func TestTcpClientEchoIPv6(t *testing.T) {
	if !nettest.SupportsIPv6() {
		t.Skip("IPv6 is not supported")
	}
	port := startTCPEcho(t, "tcp6", "[::1]:0")
	c, err := NewGXTcpClient("::1", port, IPVersionIPv6)
	assert.NilError(t, err)
	defer c.Disconnect()
	assert.NilError(t, c.SetTimeout(ioTimeout))

	assert.Assert(t, c.IsIPv6())
	assert.Assert(t, !c.IsIPv4())
	assert.Equal(t, "::1", c.GetHostFrom())
	assert.NilError(t, c.Send("hello"))
	assert.Equal(t, "hello", string(receiveN(t, c, 5)))
}

func TestTcpClientNonBlockingReceiveEmpty(t *testing.T) {
	port := startTCPEcho(t, "tcp4", "127.0.0.1:0")
	c, err := NewGXTcpClient("127.0.0.1", port, IPVersionIPv4)
	assert.NilError(t, err)
	defer c.Disconnect()

	assert.NilError(t, c.SetBlocking(false))
	assertQuick(t, func() {
		data, err := c.Receive()
		assert.NilError(t, err)
		assert.Assert(t, data == nil)
	})

	// Data sent afterwards is still picked up without blocking.
	assert.NilError(t, c.Send("ping"))
	var got []byte
	deadline := time.Now().Add(ioTimeout * time.Millisecond)
	for len(got) < 4 && time.Now().Before(deadline) {
		data, err := c.Receive()
		assert.NilError(t, err)
		got = append(got, data...)
		if data == nil {
			time.Sleep(5 * time.Millisecond)
		}
	}
	assert.Equal(t, "ping", string(got))
}

func TestTcpClientConnectionRefused(t *testing.T) {
	port := closedTCPPort(t)
	c, err := NewGXTcpClient("127.0.0.1", port, IPVersionIPv4)
	assertKind(t, err, ErrorKindConnectionRefused)
	assert.Assert(t, c == nil)
}

func TestTcpClientUnroutable(t *testing.T) {
	s := NewGXSettings()
	// TEST-NET-3, RFC 5737.
	s.HostName = "203.0.113.1"
	s.Port = 9999
	s.Timeout = time.Second
	c, err := s.Open()
	assert.Assert(t, err != nil)
	assert.Assert(t, c == nil)
	kind, ok := ErrorKindOf(err)
	assert.Assert(t, ok)
	switch kind {
	case ErrorKindTimeout, ErrorKindUnreachable, ErrorKindConnectionRefused, ErrorKindPermissionDenied:
	default:
		t.Fatalf("unexpected error kind %s: %v", kind, err)
	}
}

func TestTcpClientInvalidArguments(t *testing.T) {
	_, err := NewGXTcpClient("127.0.0.1", 0, IPVersionIPv4)
	assertKind(t, err, ErrorKindInvalidArgument)

	_, err = NewGXTcpClient("::1", 4059, IPVersionIPv4)
	assertKind(t, err, ErrorKindAddressFamilyMismatch)

	port := startTCPEcho(t, "tcp4", "127.0.0.1:0")
	c, err := NewGXTcpClient("127.0.0.1", port, IPVersionIPv4)
	assert.NilError(t, err)
	defer c.Disconnect()
	assertKind(t, c.Send(nil), ErrorKindInvalidArgument)
}

func TestTcpClientReceiveEOF(t *testing.T) {
	port := startTCPPeer(t, func(conn net.Conn) {
		_, _ = conn.Write([]byte("bye"))
	})
	c, err := NewGXTcpClient("127.0.0.1", port, IPVersionIPv4)
	assert.NilError(t, err)
	defer c.Disconnect()
	assert.NilError(t, c.SetTimeout(ioTimeout))

	assert.Equal(t, "bye", string(receiveN(t, c, 3)))
	data, err := c.Receive()
	assert.Assert(t, errors.Is(err, io.EOF))
	assert.Assert(t, data == nil)
}

func TestTcpClientReceiveTimeout(t *testing.T) {
	port := startTCPEcho(t, "tcp4", "127.0.0.1:0")
	c, err := NewGXTcpClient("127.0.0.1", port, IPVersionIPv4)
	assert.NilError(t, err)
	defer c.Disconnect()

	assert.NilError(t, c.SetTimeout(50))
	assert.Equal(t, uint32(50), c.GetTimeout())
	_, err = c.Receive()
	assertKind(t, err, ErrorKindTimeout)
}

func TestTcpClientReceiveSize(t *testing.T) {
	port := startTCPEcho(t, "tcp4", "127.0.0.1:0")
	c, err := NewGXTcpClient("127.0.0.1", port, IPVersionIPv4)
	assert.NilError(t, err)
	defer c.Disconnect()
	assert.NilError(t, c.SetTimeout(ioTimeout))

	assertKind(t, c.SetReceiveSize(0), ErrorKindInvalidArgument)
	assert.Equal(t, DefaultReceiveSize, c.GetReceiveSize())
	assert.NilError(t, c.SetReceiveSize(4))
	assert.NilError(t, c.Send("0123456789"))
	for received := 0; received < 10; {
		data, err := c.Receive()
		assert.NilError(t, err)
		assert.Assert(t, len(data) <= 4, "got %d bytes", len(data))
		received += len(data)
	}
}

func TestTcpClientNextReadSize(t *testing.T) {
	release := make(chan struct{})
	port := startTCPPeer(t, func(conn net.Conn) {
		_, _ = conn.Write([]byte("12345"))
		<-release
	})
	defer close(release)
	c, err := NewGXTcpClient("127.0.0.1", port, IPVersionIPv4)
	assert.NilError(t, err)
	defer c.Disconnect()

	var n int
	deadline := time.Now().Add(ioTimeout * time.Millisecond)
	for n < 5 && time.Now().Before(deadline) {
		n, err = c.GetNextReadSize()
		assert.NilError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 5, n)
}

func TestTcpClientDisconnectWithUnreadData(t *testing.T) {
	got := make(chan error, 1)
	port := startTCPPeer(t, func(conn net.Conn) {
		_, _ = conn.Write([]byte("unread"))
		_ = conn.SetReadDeadline(time.Now().Add(ioTimeout * time.Millisecond))
		_, err := conn.Read(make([]byte, 1))
		got <- err
	})
	c, err := NewGXTcpClient("127.0.0.1", port, IPVersionIPv4)
	assert.NilError(t, err)

	deadline := time.Now().Add(ioTimeout * time.Millisecond)
	for n := 0; n < 6 && time.Now().Before(deadline); {
		n, err = c.GetNextReadSize()
		assert.NilError(t, err)
	}
	assert.NilError(t, c.Disconnect())
	// The queued bytes were drained, so the peer sees an orderly close.
	assert.Assert(t, errors.Is(<-got, io.EOF))
}

func TestTcpClientReceiveIsSizedToData(t *testing.T) {
	port := startTCPEcho(t, "tcp4", "127.0.0.1:0")
	c, err := NewGXTcpClient("127.0.0.1", port, IPVersionIPv4)
	assert.NilError(t, err)
	defer c.Disconnect()
	assert.NilError(t, c.SetTimeout(ioTimeout))

	assert.NilError(t, c.Send("a"))
	first, err := c.Receive()
	assert.NilError(t, err)
	assert.Equal(t, "a", string(first))
	assert.Equal(t, 1, cap(first))

	// Later receives do not overwrite data already returned.
	assert.NilError(t, c.Send("b"))
	second, err := c.Receive()
	assert.NilError(t, err)
	assert.Equal(t, "b", string(second))
	assert.Equal(t, "a", string(first))
}

func TestTcpClientNonBlockingSendTimeout(t *testing.T) {
	release := make(chan struct{})
	port := startTCPPeer(t, func(net.Conn) {
		<-release
	})
	defer close(release)
	c, err := NewGXTcpClient("127.0.0.1", port, IPVersionIPv4)
	assert.NilError(t, err)
	defer c.Disconnect()

	// The peer never reads, so the socket buffers fill up.
	assert.NilError(t, c.SetBlocking(false))
	assert.NilError(t, c.SetTimeout(100))
	start := time.Now()
	err = c.Send(make([]byte, 64<<20))
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Assert(t, time.Since(start) < ioTimeout*time.Millisecond)
}
