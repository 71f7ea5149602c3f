//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd || windows)

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
	"net/netip"
	"runtime"
	"time"
)

type sysfd = int

const maxBacklog = 128

var errPlatform = fmt.Errorf("sockets on %s", runtime.GOOS)

func openHandle(version IPVersion, protocol NetworkType) (*socketHandle, error) {
	return nil, newError("socket", ErrorKindUnsupported, errPlatform)
}

func unsupported(op string) error {
	return newError(op, ErrorKindUnsupported, errPlatform)
}

func (h *socketHandle) setBlocking(bool) error                  { return unsupported("set blocking") }
func (h *socketHandle) isBlocking() (bool, error)               { return false, unsupported("get blocking") }
func (h *socketHandle) setReuseAddress() error                  { return unsupported("setsockopt") }
func (h *socketHandle) bind(netip.AddrPort) error               { return unsupported("bind") }
func (h *socketHandle) listen(int) error                        { return unsupported("listen") }
func (h *socketHandle) send([]byte, time.Duration) (int, error) { return 0, unsupported("send") }
func (h *socketHandle) available() (int, error)                 { return 0, unsupported("next read size") }
func (h *socketHandle) drain()                                  {}
func (h *socketHandle) close() error                            { return unsupported("close") }
func (h *socketHandle) sockname() (netip.AddrPort, error) {
	return netip.AddrPort{}, unsupported("getsockname")
}
func (h *socketHandle) peername() (netip.AddrPort, error) {
	return netip.AddrPort{}, unsupported("getpeername")
}

func (h *socketHandle) connect(netip.AddrPort, time.Duration) error {
	return unsupported("connect")
}

func (h *socketHandle) accept(bool, time.Duration) (*socketHandle, error) {
	return nil, unsupported("accept")
}

func (h *socketHandle) sendTo([]byte, netip.AddrPort) error {
	return unsupported("send to")
}

func (h *socketHandle) recv([]byte, bool, time.Duration) (int, bool, error) {
	return 0, false, unsupported("receive")
}

func (h *socketHandle) recvFrom([]byte, bool, time.Duration) (int, netip.AddrPort, bool, error) {
	return 0, netip.AddrPort{}, false, unsupported("receive from")
}

func osError(op string, err error) error {
	return newError(op, ErrorKindIO, err)
}
