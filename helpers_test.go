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

	"gotest.tools/v3/assert"
)

// ioTimeout bounds every blocking call in the tests so a failure cannot
// hang the run.
const ioTimeout = 5000

// startTCPEcho starts a TCP peer that echoes everything back and returns
// its port.
func startTCPEcho(t *testing.T, network, address string) int {
	t.Helper()
	l, err := net.Listen(network, address)
	assert.NilError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				_, _ = io.Copy(conn, conn)
			}()
		}
	}()
	return l.Addr().(*net.TCPAddr).Port
}

// startTCPPeer starts a TCP peer that runs serve on the first accepted
// connection and returns its port.
func startTCPPeer(t *testing.T, serve func(net.Conn)) int {
	t.Helper()
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	assert.NilError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn)
	}()
	return l.Addr().(*net.TCPAddr).Port
}

// startUDPEcho starts a UDP peer that sends every datagram back to its
// sender and returns its port.
func startUDPEcho(t *testing.T, network, address string) int {
	t.Helper()
	pc, err := net.ListenPacket(network, address)
	assert.NilError(t, err)
	t.Cleanup(func() { _ = pc.Close() })
	go func() {
		buf := make([]byte, 65536)
		for {
			n, from, err := pc.ReadFrom(buf)
			if err != nil {
				return
			}
			if _, err := pc.WriteTo(buf[:n], from); err != nil && errors.Is(err, net.ErrClosed) {
				return
			}
		}
	}()
	return pc.LocalAddr().(*net.UDPAddr).Port
}

// closedTCPPort returns a loopback port nobody listens on.
func closedTCPPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	assert.NilError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	assert.NilError(t, l.Close())
	return port
}

// freeUDPPort returns a loopback UDP port that was free a moment ago.
func freeUDPPort(t *testing.T) int {
	t.Helper()
	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	assert.NilError(t, err)
	port := pc.LocalAddr().(*net.UDPAddr).Port
	assert.NilError(t, pc.Close())
	return port
}

// receiveN receives from a stream until n bytes have arrived.
func receiveN(t *testing.T, c *GXTcpClient, n int) []byte {
	t.Helper()
	var ret []byte
	for len(ret) < n {
		data, err := c.Receive()
		assert.NilError(t, err)
		ret = append(ret, data...)
	}
	return ret
}

// readN reads n bytes from a peer connection.
func readN(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()
	assert.NilError(t, conn.SetReadDeadline(time.Now().Add(ioTimeout*time.Millisecond)))
	buf := make([]byte, n)
	_, err := io.ReadFull(conn, buf)
	assert.NilError(t, err)
	return buf
}

// assertQuick fails when fn takes longer than a non-blocking call may.
func assertQuick(t *testing.T, fn func()) {
	t.Helper()
	start := time.Now()
	fn()
	elapsed := time.Since(start)
	assert.Assert(t, elapsed < 50*time.Millisecond, "took %v", elapsed)
}
