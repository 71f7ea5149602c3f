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

import "net/netip"

// socketHandle owns exactly one OS socket descriptor.
//
// close is not re-enterable; the owning socketBase guarantees it runs once.
type socketHandle struct {
	fd       sysfd
	version  IPVersion
	protocol NetworkType
	// nonBlocking mirrors the OS flag where it cannot be read back.
	nonBlocking bool
}

// localEndpoint returns the bound local address, or the zero value when the
// OS cannot report it.
func (h *socketHandle) localEndpoint() netip.AddrPort {
	ap, err := h.sockname()
	if err != nil {
		return netip.AddrPort{}
	}
	return ap
}

// remoteEndpoint returns the connected peer, or the zero value when the
// socket has none.
func (h *socketHandle) remoteEndpoint() netip.AddrPort {
	ap, err := h.peername()
	if err != nil {
		return netip.AddrPort{}
	}
	return ap
}

// clampBacklog keeps a listen queue length inside what the OS accepts.
// Zero selects the OS maximum.
func clampBacklog(backlog int) int {
	if backlog <= 0 || backlog > maxBacklog {
		return maxBacklog
	}
	return backlog
}
