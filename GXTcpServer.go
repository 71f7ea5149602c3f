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
	"fmt"

	"github.com/Gurux/gxcommon-go"
)

// GXTcpServer is a listening TCP socket.
type GXTcpServer struct {
	socketBase
	backlog int
}

// NewGXTcpServer binds portFrom on hostFrom and starts listening. An empty
// hostFrom (or "*") binds every local address, a zero backlog selects the OS
// maximum.
func NewGXTcpServer(portFrom int, hostFrom string, ipVersion IPVersion, backlog int) (*GXTcpServer, error) {
	s := NewGXSettings()
	s.Server = true
	s.LocalPort = portFrom
	s.LocalHostName = hostFrom
	s.IPVersion = ipVersion
	s.Backlog = backlog
	return newTcpServer(s)
}

func newTcpServer(s *GXSettings) (*GXTcpServer, error) {
	if s.Backlog < 0 {
		return nil, newError("listen", ErrorKindInvalidArgument, fmt.Errorf("backlog %d", s.Backlog))
	}
	srv := &GXTcpServer{backlog: clampBacklog(s.Backlog)}
	srv.init(srv, NetworkTypeTCP, SocketRoleServer, s)
	addr, err := ResolveAddress(s.LocalHostName, s.LocalPort, s.IPVersion, true)
	if err != nil {
		return nil, err
	}
	srv.statef(gxcommon.MediaStateOpening)
	h, err := openHandle(s.IPVersion, NetworkTypeTCP)
	if err != nil {
		srv.statef(gxcommon.MediaStateClosed)
		return nil, err
	}
	if err = h.setReuseAddress(); err == nil {
		if err = h.bind(addr); err == nil {
			err = h.listen(srv.backlog)
		}
	}
	if err != nil {
		_ = h.close()
		srv.statef(gxcommon.MediaStateClosed)
		return nil, err
	}
	srv.attach(h)
	srv.trace(gxcommon.TraceTypesInfo, "msg.listening", srv.String(), srv.backlog)
	srv.statef(gxcommon.MediaStateOpen)
	return srv, nil
}

// GetBacklog returns the listen queue length handed to the OS.
func (s *GXTcpServer) GetBacklog() int {
	return s.backlog
}

// Accept returns the next pending connection as a blocking GXTcpClient.
//
// In blocking mode it waits for a peer. In non-blocking mode it returns
// nil, nil when no connection is pending. The accepted socket is independent
// of the server; it only inherits the timeout, receive size and tracing.
func (s *GXTcpServer) Accept() (*GXTcpClient, error) {
	h, blocking, timeout, err := s.acquire("accept")
	if err != nil {
		return nil, err
	}
	nh, err := h.accept(blocking, timeout)
	if err != nil || nh == nil {
		return nil, err
	}
	c := newAcceptedClient(&s.socketBase, nh)
	s.trace(gxcommon.TraceTypesInfo, "msg.accepted", c.String())
	return c, nil
}
