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
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
)

const maxPort = 65535

// ResolveAddress resolves host and port into a socket address of the given
// IP version.
//
// When passive is true the address is used for bind: an empty host or "*"
// means every local address and port 0 lets the OS pick a port. Otherwise
// the host must name a peer and the port must be non-zero.
//
// A literal address of the other IP version fails with
// ErrorKindAddressFamilyMismatch, anything that does not resolve fails with
// ErrorKindInvalidAddress. Name resolution may block regardless of the
// blocking mode of any socket.
func ResolveAddress(host string, port int, ipVersion IPVersion, passive bool) (netip.AddrPort, error) {
	return resolveAddress(context.Background(), host, port, ipVersion, passive)
}

func resolveAddress(ctx context.Context, host string, port int, ipVersion IPVersion, passive bool) (netip.AddrPort, error) {
	if !ipVersion.valid() {
		return netip.AddrPort{}, newError("resolve", ErrorKindInvalidArgument, fmt.Errorf("unknown IP version %d", int(ipVersion)))
	}
	if port < 0 || port > maxPort || (port == 0 && !passive) {
		return netip.AddrPort{}, newError("resolve", ErrorKindInvalidArgument, fmt.Errorf("port %d out of range", port))
	}
	host = strings.TrimSpace(host)
	if isAnyHost(host) {
		if !passive {
			return netip.AddrPort{}, newError("resolve", ErrorKindInvalidAddress, fmt.Errorf("host %q names no peer", host))
		}
		if ipVersion == IPVersionIPv6 {
			return netip.AddrPortFrom(netip.IPv6Unspecified(), uint16(port)), nil
		}
		return netip.AddrPortFrom(netip.IPv4Unspecified(), uint16(port)), nil
	}
	if addr, err := netip.ParseAddr(strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")); err == nil {
		if ipVersion == IPVersionIPv4 && addr.Is4In6() {
			addr = addr.Unmap()
		}
		if addr.Is4() != (ipVersion == IPVersionIPv4) || addr.Is4In6() {
			return netip.AddrPort{}, newError("resolve", ErrorKindAddressFamilyMismatch, fmt.Errorf("%s is not an %s address", host, ipVersion))
		}
		return netip.AddrPortFrom(addr, uint16(port)), nil
	}
	network := "ip4"
	if ipVersion == IPVersionIPv6 {
		network = "ip6"
	}
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, network, host)
	if err != nil {
		return netip.AddrPort{}, newError("resolve", ErrorKindInvalidAddress, err)
	}
	for _, addr := range addrs {
		if ipVersion == IPVersionIPv4 {
			addr = addr.Unmap()
		}
		if addr.Is4() == (ipVersion == IPVersionIPv4) {
			return netip.AddrPortFrom(addr, uint16(port)), nil
		}
	}
	return netip.AddrPort{}, newError("resolve", ErrorKindInvalidAddress, fmt.Errorf("no %s address for %s", ipVersion, host))
}

// isAnyHost reports whether host stands for every local address.
func isAnyHost(host string) bool {
	return host == "" || host == "*"
}

// hostString formats an address the way the accessors report it.
func hostString(addr netip.Addr) string {
	if !addr.IsValid() {
		return ""
	}
	return addr.String()
}
