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
	"strings"

	"github.com/Gurux/gxcommon-go"
)

// IPVersion selects the address family of a socket.
//
// The zero value is IPv4, so leaving the version unset means IPv4.
type IPVersion int

const (
	// IPVersionIPv4 selects AF_INET.
	IPVersionIPv4 IPVersion = iota
	// IPVersionIPv6 selects AF_INET6.
	IPVersionIPv6
)

// IPVersionParse converts "IPv4"/"IPv6" (case insensitive, "4" and "6" are
// accepted too) into an IPVersion.
//
// Unknown values fail with ErrorKindInvalidArgument wrapping
// gxcommon.ErrUnknownEnum.
func IPVersionParse(value string) (IPVersion, error) {
	var ret IPVersion
	var err error
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "IPV4", "4":
		ret = IPVersionIPv4
	case "IPV6", "6":
		ret = IPVersionIPv6
	default:
		err = newError("parse", ErrorKindInvalidArgument, fmt.Errorf("%w: %q", gxcommon.ErrUnknownEnum, value))
	}
	return ret, err
}

// String returns the canonical name of the IP version.
// It satisfies fmt.Stringer.
func (g IPVersion) String() string {
	var ret string
	switch g {
	case IPVersionIPv4:
		ret = "IPv4"
	case IPVersionIPv6:
		ret = "IPv6"
	}
	return ret
}

func (g IPVersion) valid() bool {
	return g == IPVersionIPv4 || g == IPVersionIPv6
}
