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
	"encoding/binary"
	"errors"
	"io"
	"strconv"

	"github.com/Gurux/gxcommon-go"
)

// GXTcpClient is a connected TCP stream socket.
//
// It is created either by dialing with NewGXTcpClient or by
// GXTcpServer.Accept. There is no unconnected state: construction connects
// or fails.
type GXTcpClient struct {
	socketBase
	hostTo string
	portTo int
}

// NewGXTcpClient connects to hostTo:portTo. The handshake always runs in
// blocking mode and waits as long as the OS does.
func NewGXTcpClient(hostTo string, portTo int, ipVersion IPVersion) (*GXTcpClient, error) {
	s := NewGXSettings()
	s.HostName = hostTo
	s.Port = portTo
	s.IPVersion = ipVersion
	return newTcpClient(s)
}

func newTcpClient(s *GXSettings) (*GXTcpClient, error) {
	c := &GXTcpClient{}
	c.init(c, NetworkTypeTCP, SocketRoleClient, s)
	addr, err := ResolveAddress(s.HostName, s.Port, s.IPVersion, false)
	if err != nil {
		return nil, err
	}
	c.hostTo = s.HostName
	c.portTo = s.Port
	c.statef(gxcommon.MediaStateOpening)
	c.trace(gxcommon.TraceTypesInfo, "msg.connecting_to", NetworkTypeTCP.String(), c.hostTo, c.portTo, s.Timeout.Milliseconds())
	h, err := openHandle(s.IPVersion, NetworkTypeTCP)
	if err == nil {
		if err = h.connect(addr, s.Timeout); err != nil {
			_ = h.close()
		}
	}
	if err != nil {
		c.trace(gxcommon.TraceTypesError, "msg.connect_failed", c.hostTo, c.portTo, err)
		c.statef(gxcommon.MediaStateClosed)
		return nil, err
	}
	c.attach(h)
	c.trace(gxcommon.TraceTypesInfo, "msg.connected_to", c.hostTo, c.portTo)
	c.statef(gxcommon.MediaStateOpen)
	return c, nil
}

// newAcceptedClient wraps a handle returned by accept.
func newAcceptedClient(server *socketBase, h *socketHandle) *GXTcpClient {
	c := &GXTcpClient{}
	c.inherit(c, server)
	c.attach(h)
	remote := h.remoteEndpoint()
	c.hostTo = hostString(remote.Addr())
	c.portTo = int(remote.Port())
	return c
}

// String returns the remote endpoint.
func (c *GXTcpClient) String() string {
	return c.hostTo + ":" + strconv.Itoa(c.portTo)
}

// GetHostTo returns the remote host as given at construction, or the peer
// address of an accepted socket.
func (c *GXTcpClient) GetHostTo() string {
	return c.hostTo
}

// GetPortTo returns the remote port.
func (c *GXTcpClient) GetPortTo() int {
	return c.portTo
}

// Send writes all of data to the stream. Data may be a string, a byte slice
// or any other value gxcommon.ToBytes can convert.
func (c *GXTcpClient) Send(data any) error {
	h, _, timeout, err := c.acquire("send")
	if err != nil {
		return err
	}
	tmp, err := toPayload("send", data)
	if err != nil {
		return err
	}
	c.sent(tmp)
	if _, err := h.send(tmp, timeout); err != nil {
		c.trace(gxcommon.TraceTypesError, "msg.send_failed", err)
		return err
	}
	return nil
}

// Receive returns the bytes that are available, at most GetReceiveSize.
//
// In blocking mode it waits for at least one byte. In non-blocking mode it
// returns nil, nil when nothing is queued. io.EOF reports that the peer
// closed the stream. Callers loop to drain larger payloads.
func (c *GXTcpClient) Receive() ([]byte, error) {
	h, blocking, timeout, err := c.acquire("receive")
	if err != nil {
		return nil, err
	}
	data, ok, err := c.receive(func(buf []byte) (int, bool, error) {
		return h.recv(buf, blocking, timeout)
	})
	if err != nil {
		c.trace(gxcommon.TraceTypesError, "msg.receive_failed", err)
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if len(data) == 0 {
		return nil, io.EOF
	}
	c.received(data)
	return data, nil
}

// GetNextReadSize returns how many bytes can be received without blocking.
// Zero does not mean the peer closed the stream.
func (c *GXTcpClient) GetNextReadSize() (int, error) {
	h, _, _, err := c.acquire("next read size")
	if err != nil {
		return 0, err
	}
	return h.available()
}

// toPayload converts a send argument into bytes.
func toPayload(op string, data any) ([]byte, error) {
	if data == nil {
		return nil, newError(op, ErrorKindInvalidArgument, errors.New("nil payload"))
	}
	switch v := data.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	tmp, err := gxcommon.ToBytes(data, binary.BigEndian)
	if err != nil {
		return nil, newError(op, ErrorKindInvalidArgument, err)
	}
	return tmp, nil
}
