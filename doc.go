// Package gxsocket provides synchronous TCP and UDP sockets for Gurux
// components with caller controlled blocking.
//
// Every socket is one of three variants sharing the GXSocket capability set:
//
//   - GXTcpClient: a connected stream. Construction dials and either
//     connects or fails; there is no unconnected client.
//   - GXTcpServer: binds and listens on construction; Accept returns new,
//     independent GXTcpClient values.
//   - GXUdp: a bound datagram socket, with or without a default peer.
//
// # Blocking
//
// Sockets start in blocking mode: Accept, Receive and ReceiveFrom suspend
// the calling goroutine inside the OS until something arrives. After
// SetBlocking(false) the same calls return nil, nil when nothing is
// available. "Nothing available" is never reported as an error. The mode
// applies from the next call on; a call already waiting in the OS is not
// affected. The library starts no goroutines of its own.
//
// # Lifecycle
//
// Disconnect closes the descriptor exactly once. Every later operation
// fails with ErrDisconnected, and a second Disconnect fails with
// ErrAlreadyDisconnected. The IsIPv4, IsTCP, IsClient and similar queries
// keep working after Disconnect.
//
// Example
//
//	srv, err := gxsocket.NewGXTcpServer(4059, "", gxsocket.IPVersionIPv4, 0)
//	if err != nil {
//	    // handle bind error
//	}
//	defer srv.Disconnect()
//
//	c, err := gxsocket.NewGXTcpClient("127.0.0.1", 4059, gxsocket.IPVersionIPv4)
//	if err != nil {
//	    // handle connect error
//	}
//	peer, _ := srv.Accept()
//	_ = c.Send("hello")
//	data, _ := peer.Receive() // "hello"
//
// # Errors and timeouts
//
// Failures are *SocketError values whose Kind classifies them. Match them
// with errors.Is against ErrAddressInUse, ErrConnectionRefused, ErrTimeout
// and the other sentinels. Nothing is retried automatically.
//
// The constructors block as long as the OS does. GXSettings.Open and
// SetTimeout add a deadline to connect, accept and receive.
//
// # Settings and tracing
//
// GXSettings collects all construction options and reads and writes them
// as the same XML fragments the other Gurux media use. Trace messages and
// media state changes are reported through gxcommon event types and can be
// localized with Localize.
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
